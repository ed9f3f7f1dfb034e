package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/b4knamy/online-chat-backend/internal/domain"
	"github.com/b4knamy/online-chat-backend/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

// Gateway authenticates users and binds connections to principals. It is the
// session/auth collaborator the realtime core consumes.
type Gateway interface {
	// Authenticate verifies username+password and returns the principal
	// with a signed session token.
	Authenticate(ctx context.Context, username, password string) (*domain.User, string, error)

	// ValidateToken returns the username carried by a session token.
	ValidateToken(token string) (string, error)

	// Bind attaches a connection to a user principal.
	Bind(ctx context.Context, connID, username string) (*domain.User, error)

	// Unbind tears down the connection binding and returns the username
	// that was bound, or the empty string.
	Unbind(ctx context.Context, connID string) string
}

// Claims are the session token claims.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type gateway struct {
	store         repository.Store
	secret        []byte
	tokenDuration time.Duration

	mu       sync.RWMutex
	bindings map[string]string // connID -> username
}

// NewGateway creates the session/auth gateway.
func NewGateway(store repository.Store, secret string, tokenDuration time.Duration) Gateway {
	return &gateway{
		store:         store,
		secret:        []byte(secret),
		tokenDuration: tokenDuration,
		bindings:      make(map[string]string),
	}
}

func (g *gateway) Authenticate(ctx context.Context, username, password string) (*domain.User, string, error) {
	user, hash, err := g.store.GetCredentials(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	now := time.Now()
	claims := Claims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(g.tokenDuration)),
			Issuer:    "online-chat-backend",
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
	if err != nil {
		return nil, "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return user, token, nil
}

func (g *gateway) ValidateToken(tokenStr string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return g.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	return claims.Username, nil
}

func (g *gateway) Bind(ctx context.Context, connID, username string) (*domain.User, error) {
	user, err := g.store.GetUser(ctx, username)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	g.bindings[connID] = username
	g.mu.Unlock()

	return user, nil
}

func (g *gateway) Unbind(ctx context.Context, connID string) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	username, ok := g.bindings[connID]
	if !ok {
		return ""
	}
	delete(g.bindings, connID)
	return username
}

// HashPassword returns the bcrypt hash used when provisioning users.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
