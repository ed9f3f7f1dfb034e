package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/b4knamy/online-chat-backend/internal/auth"
	"github.com/b4knamy/online-chat-backend/internal/domain"
	"github.com/b4knamy/online-chat-backend/internal/repository"
	"github.com/b4knamy/online-chat-backend/internal/service"
	"github.com/b4knamy/online-chat-backend/pkg/log"
	"github.com/b4knamy/online-chat-backend/pkg/response"
)

// HTTPHandler serves the thin REST surface around the realtime core.
type HTTPHandler struct {
	rooms      service.RoomService
	store      repository.Store
	gateway    auth.Gateway
	systemUser string
}

// NewHTTPHandler creates the HTTP handler. systemUser is the fixed account
// used for rooms created over REST.
func NewHTTPHandler(rooms service.RoomService, store repository.Store, gateway auth.Gateway, systemUser string) *HTTPHandler {
	return &HTTPHandler{
		rooms:      rooms,
		store:      store,
		gateway:    gateway,
		systemUser: systemUser,
	}
}

// RegisterRoutes registers all REST routes.
func (h *HTTPHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/rooms", h.ListRooms)
	r.POST("/rooms", h.CreateRoom)
	r.POST("/auth/login", h.Login)
	r.POST("/auth/logout", h.Logout)
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
}

// ListRooms returns all rooms with nested admin and messages.
func (h *HTTPHandler) ListRooms(c *gin.Context) {
	ctx := c.Request.Context()

	rooms, err := h.rooms.ListRooms(ctx)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to list rooms")
		response.InternalError(c, "failed to list rooms")
		return
	}

	response.Success(c, rooms)
}

type createRoomRequest struct {
	Room string `json:"room" binding:"required"`
}

// CreateRoom creates a room administered by the configured system user.
func (h *HTTPHandler) CreateRoom(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	admin, err := h.store.GetUser(ctx, h.systemUser)
	if err != nil {
		l.Error().Err(err).Str(log.FieldUsername, h.systemUser).Msg("system user lookup failed")
		response.InternalError(c, "failed to create room")
		return
	}

	room, err := h.rooms.CreateRoom(ctx, admin, req.Room)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserHasRoom):
			response.BadRequest(c, "user already owns a room")
		case errors.Is(err, service.ErrInvalidRoomName):
			response.BadRequest(c, err.Error())
		case errors.Is(err, service.ErrRoomExists):
			response.Conflict(c, "room already exists")
		default:
			l.Error().Err(err).Msg("failed to create room")
			response.InternalError(c, "failed to create room")
		}
		return
	}

	response.Created(c, room)
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	User  domain.User `json:"user"`
	Token string      `json:"token"`
}

// Login verifies credentials and returns the principal with a session token.
func (h *HTTPHandler) Login(c *gin.Context) {
	ctx := c.Request.Context()

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "credentials missing")
		return
	}

	user, token, err := h.gateway.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			response.Unauthorized(c, "invalid credentials")
			return
		}
		log.Ctx(ctx).Error().Err(err).Msg("authentication failed")
		response.InternalError(c, "authentication failed")
		return
	}

	response.Success(c, loginResponse{User: *user, Token: token})
}

// Logout validates the bearer token and acknowledges the logout.
func (h *HTTPHandler) Logout(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token := strings.TrimPrefix(header, "Bearer ")
	if token == "" || token == header {
		response.Unauthorized(c, "missing bearer token")
		return
	}

	if _, err := h.gateway.ValidateToken(token); err != nil {
		response.Unauthorized(c, "invalid token")
		return
	}

	response.Success(c, nil)
}
