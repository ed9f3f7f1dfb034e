package repository

import (
	"context"
	"errors"

	"github.com/b4knamy/online-chat-backend/internal/domain"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrUserNotFound = errors.New("user not found")
	ErrRoomExists   = errors.New("room already exists")
	ErrUserHasRoom  = errors.New("user already owns a room")
)

// Store is the persistence gateway for users, rooms and messages.
type Store interface {
	// CreateRoom creates a room and marks the admin as owning it in one
	// transaction. Returns ErrRoomExists on a name conflict and
	// ErrUserHasRoom when the admin already owns a live room.
	CreateRoom(ctx context.Context, admin *domain.User, name string) (*domain.Room, error)

	// DeleteRoom removes the named room, its messages, and clears the
	// admin's has_room flag in one transaction. Returns the deleted room.
	DeleteRoom(ctx context.Context, name string) (*domain.Room, error)

	// CreateMessage persists a message with a server-assigned timestamp.
	CreateMessage(ctx context.Context, user *domain.User, room *domain.Room, text string) (*domain.Message, error)

	// GetUser fetches a user by username.
	GetUser(ctx context.Context, username string) (*domain.User, error)

	// GetCredentials fetches a user and its password hash by username.
	GetCredentials(ctx context.Context, username string) (*domain.User, string, error)

	// GetRoom fetches a room by name with its admin preloaded.
	GetRoom(ctx context.Context, name string) (*domain.Room, error)

	// ListRooms returns all rooms with nested admin and messages.
	ListRooms(ctx context.Context) ([]domain.Room, error)

	// ListUsernames returns every provisioned username.
	ListUsernames(ctx context.Context) ([]string, error)

	// SaveUser persists mutable user state (the has_room flag).
	SaveUser(ctx context.Context, user *domain.User) error

	// EnsureUser creates the user if it does not exist yet.
	EnsureUser(ctx context.Context, username, passwordHash string) error
}
