package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/b4knamy/online-chat-backend/internal/config"
	"github.com/b4knamy/online-chat-backend/internal/domain"
	"github.com/b4knamy/online-chat-backend/internal/hub"
	"github.com/b4knamy/online-chat-backend/internal/repository"
	"github.com/b4knamy/online-chat-backend/internal/service"
	"github.com/b4knamy/online-chat-backend/pkg/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type envHandlerFunc func(ctx context.Context, client *hub.Client, data json.RawMessage)

// WSHandler owns both realtime endpoints: per-room chat sockets and the
// global environment socket.
type WSHandler struct {
	hub      *hub.Hub
	store    repository.Store
	rooms    service.RoomService
	chat     service.ChatService
	presence service.PresenceService
	wsCfg    config.WebSocketConfig

	// Inbound environment types dispatch through this table; unknown types
	// fall through to a sender-only protocol warning.
	envHandlers map[string]envHandlerFunc
}

// NewWSHandler creates the websocket handler.
func NewWSHandler(
	h *hub.Hub,
	store repository.Store,
	rooms service.RoomService,
	chat service.ChatService,
	presence service.PresenceService,
	wsCfg config.WebSocketConfig,
) *WSHandler {
	wh := &WSHandler{
		hub:      h,
		store:    store,
		rooms:    rooms,
		chat:     chat,
		presence: presence,
		wsCfg:    wsCfg,
	}
	wh.envHandlers = map[string]envHandlerFunc{
		domain.MsgTypeLogin:      wh.handleLogin,
		domain.MsgTypeLogout:     wh.handleLogout,
		domain.MsgTypeCreateRoom: wh.handleCreateRoom,
		domain.MsgTypeRemoveRoom: wh.handleRemoveRoom,
	}
	return wh
}

// RegisterRoutes registers the realtime endpoints.
func (h *WSHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/ws/chat/:room", h.HandleChatSocket)
	r.GET("/ws/environment", h.HandleEnvironmentSocket)
}

// HandleChatSocket serves one chat connection: connecting -> bound -> closed.
// A failed room or user lookup closes the socket without joining any group.
func (h *WSHandler) HandleChatSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.L().Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := hub.NewClient(uuid.New().String(), h.hub, conn, h.wsCfg)
	ctx := c.Request.Context()

	roomName := c.Param("room")
	username := c.Query("username")

	room, err := h.rooms.GetRoom(ctx, roomName)
	if err != nil {
		log.L().Debug().Str(log.FieldRoom, roomName).Msg("chat connect rejected, room not found")
		client.Session.Close()
		conn.Close()
		return
	}

	user, err := h.store.GetUser(ctx, username)
	if err != nil {
		log.L().Debug().Str(log.FieldUsername, username).Msg("chat connect rejected, user not found")
		client.Session.Close()
		conn.Close()
		return
	}

	group := hub.RoomGroup(room.Name)
	if h.hub.GroupSize(group) >= room.MaxUsers {
		// The write pump is not running yet, so the warning goes straight
		// to the socket before it closes.
		if payload, merr := json.Marshal(domain.NewErrorMessage(domain.ErrCodeConflict, "room is full")); merr == nil {
			conn.SetWriteDeadline(time.Now().Add(h.wsCfg.WriteWait))
			conn.WriteMessage(websocket.TextMessage, payload)
		}
		client.Session.Close()
		conn.Close()
		return
	}

	if err := client.Session.Bind(user, room); err != nil {
		conn.Close()
		return
	}

	h.hub.Register(client)
	h.hub.Join(group, client)

	go client.WritePump()
	go func() {
		// Unregister inside ReadPump removes the client from the room
		// group before the socket closes, for abrupt drops too.
		client.ReadPump(h.handleChatMessage)
		client.Session.Close()
	}()
}

func (h *WSHandler) handleChatMessage(client *hub.Client, message []byte) {
	l := log.L().With().Str(log.FieldClientID, client.ID).Logger()
	ctx := log.WithLogger(context.Background(), &l)

	var data domain.ChatData
	if err := json.Unmarshal(message, &data); err != nil {
		client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "invalid message format"))
		return
	}

	user, room := client.Session.User(), client.Session.Room()
	if user == nil || room == nil {
		return
	}

	if _, err := h.chat.PostMessage(ctx, user, room, data.Text); err != nil {
		l.Error().Err(err).Msg("failed to post message")
		client.SendMessage(domain.NewErrorMessage(domain.ErrCodeTransient, "failed to send message"))
	}
}

// HandleEnvironmentSocket serves one environment connection:
// connecting -> joined -> closed.
func (h *WSHandler) HandleEnvironmentSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.L().Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := hub.NewClient(uuid.New().String(), h.hub, conn, h.wsCfg)

	if err := client.Session.Join(); err != nil {
		conn.Close()
		return
	}

	h.hub.Register(client)
	h.hub.Join(hub.EnvironmentGroup, client)

	go client.WritePump()
	go func() {
		client.ReadPump(h.handleEnvironmentMessage)

		// Mandatory finalizer: logout side effects run on clean close and
		// abrupt drop alike.
		if err := h.presence.Logout(context.Background(), client.ID); err != nil {
			log.L().Error().Err(err).Str(log.FieldClientID, client.ID).Msg("logout on disconnect failed")
		}
		client.Session.Close()
	}()

	if err := h.presence.PushSnapshot(context.Background()); err != nil {
		log.L().Error().Err(err).Msg("failed to push presence snapshot on connect")
	}
}

func (h *WSHandler) handleEnvironmentMessage(client *hub.Client, message []byte) {
	l := log.L().With().Str(log.FieldClientID, client.ID).Logger()
	ctx := log.WithLogger(context.Background(), &l)

	var envelope domain.Envelope
	if err := json.Unmarshal(message, &envelope); err != nil {
		client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "invalid message format"))
		return
	}

	handle, ok := h.envHandlers[envelope.Type]
	if !ok {
		client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "unknown message type"))
		return
	}
	handle(ctx, client, envelope.Data)
}

func (h *WSHandler) handleLogin(ctx context.Context, client *hub.Client, data json.RawMessage) {
	var payload domain.LoginData
	if err := json.Unmarshal(data, &payload); err != nil || payload.Username == "" {
		client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "invalid login payload"))
		return
	}

	user, ok, err := h.presence.Login(ctx, client.ID, payload.Username)
	if err != nil {
		client.SendMessage(domain.NewErrorMessage(domain.ErrCodeTransient, "login failed"))
		return
	}
	if !ok {
		// User already bound elsewhere: silent no-op.
		return
	}

	if err := client.Session.BindUser(user); err != nil {
		log.L().Warn().Err(err).Str(log.FieldClientID, client.ID).Msg("could not bind user to session")
	}
}

func (h *WSHandler) handleLogout(ctx context.Context, client *hub.Client, _ json.RawMessage) {
	if err := h.presence.Logout(ctx, client.ID); err != nil {
		client.SendMessage(domain.NewErrorMessage(domain.ErrCodeTransient, "logout failed"))
		return
	}
	client.Session.UnbindUser()
}

func (h *WSHandler) handleCreateRoom(ctx context.Context, client *hub.Client, data json.RawMessage) {
	user := client.Session.User()
	if user == nil {
		client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "not logged in"))
		return
	}

	var payload domain.CreateRoomData
	if err := json.Unmarshal(data, &payload); err != nil {
		client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "invalid create room payload"))
		return
	}

	if _, err := h.rooms.CreateRoom(ctx, user, payload.NewRoom); err != nil {
		switch {
		case errors.Is(err, service.ErrUserHasRoom):
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeValidation, "user already owns a room"))
		case errors.Is(err, service.ErrInvalidRoomName):
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeValidation, err.Error()))
		case errors.Is(err, service.ErrRoomExists):
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeConflict, "room already exists"))
		default:
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeTransient, "failed to create room"))
		}
	}
}

func (h *WSHandler) handleRemoveRoom(ctx context.Context, client *hub.Client, data json.RawMessage) {
	user := client.Session.User()
	if user == nil {
		client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "not logged in"))
		return
	}

	var payload domain.RemoveRoomData
	if err := json.Unmarshal(data, &payload); err != nil {
		client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "invalid remove room payload"))
		return
	}

	if _, err := h.rooms.RemoveRoom(ctx, user, payload.Room); err != nil {
		if errors.Is(err, service.ErrRoomNotFound) {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeNotFound, "room not found"))
			return
		}
		client.SendMessage(domain.NewErrorMessage(domain.ErrCodeTransient, "failed to remove room"))
	}
}
