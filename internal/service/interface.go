package service

import (
	"context"
	"errors"

	"github.com/b4knamy/online-chat-backend/internal/domain"
)

var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrRoomExists      = errors.New("room already exists")
	ErrUserHasRoom     = errors.New("user already owns a room")
	ErrInvalidRoomName = errors.New("room name must be 3-10 alphanumeric characters")
)

// RoomService enforces room lifecycle invariants and emits room lifecycle
// broadcasts to the environment group.
type RoomService interface {
	// CreateRoom validates and creates a room administered by admin.
	CreateRoom(ctx context.Context, admin *domain.User, name string) (*domain.Room, error)

	// RemoveRoom deletes the named room and clears the admin's has_room
	// flag. The requesting user is not checked against the room's admin.
	RemoveRoom(ctx context.Context, requester *domain.User, name string) (*domain.Room, error)

	// ListRooms returns all rooms with nested admin and messages.
	ListRooms(ctx context.Context) ([]domain.Room, error)

	// GetRoom fetches a room by name.
	GetRoom(ctx context.Context, name string) (*domain.Room, error)
}

// ChatService is the per-room message path: persist, then broadcast.
type ChatService interface {
	// PostMessage persists the message and, only after the save has been
	// confirmed, broadcasts the enriched context to the room's group.
	PostMessage(ctx context.Context, user *domain.User, room *domain.Room, text string) (*domain.MessageContext, error)
}

// PresenceService manages login/logout lifecycle and presence snapshots.
type PresenceService interface {
	// Login reserves the username, binds the connection, and pushes the
	// updated snapshot. It reports false, with no side effects, when the
	// username is not available.
	Login(ctx context.Context, connID, username string) (*domain.User, bool, error)

	// Logout unbinds the connection, releases the username, and pushes
	// the updated snapshot. It runs on explicit logout and on abrupt
	// disconnect; unbound connections are a no-op.
	Logout(ctx context.Context, connID string) error

	// Snapshot reads the current presence view fresh from the store.
	Snapshot(ctx context.Context) (domain.PresenceSnapshot, error)

	// PushSnapshot broadcasts a fresh presence view to the environment
	// group.
	PushSnapshot(ctx context.Context) error
}
