package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/b4knamy/online-chat-backend/internal/domain"
	"github.com/b4knamy/online-chat-backend/internal/hub"
	"github.com/b4knamy/online-chat-backend/internal/pubsub"
	"github.com/b4knamy/online-chat-backend/internal/repository"
	"github.com/b4knamy/online-chat-backend/pkg/log"
)

// RoomCreatedContext is the environment payload for a created room.
type RoomCreatedContext struct {
	Room         domain.RoomContext `json:"room"`
	Notification string             `json:"notification"`
}

// RoomRemovedContext is the environment payload for a removed room.
type RoomRemovedContext struct {
	Name         string `json:"name"`
	Notification string `json:"notification"`
}

type roomService struct {
	store       repository.Store
	broadcaster pubsub.Broadcaster
	opTimeout   time.Duration
}

// NewRoomService creates the room coordinator.
func NewRoomService(store repository.Store, broadcaster pubsub.Broadcaster, opTimeout time.Duration) RoomService {
	return &roomService{
		store:       store,
		broadcaster: broadcaster,
		opTimeout:   opTimeout,
	}
}

func (s *roomService) CreateRoom(ctx context.Context, admin *domain.User, name string) (*domain.Room, error) {
	l := log.Ctx(ctx)

	if admin.HasRoom {
		return nil, ErrUserHasRoom
	}
	if !domain.ValidRoomName(name) {
		return nil, ErrInvalidRoomName
	}

	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	// The room row and the admin's has_room flag commit together; a name
	// conflict from a concurrent create surfaces here.
	room, err := s.store.CreateRoom(opCtx, admin, name)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRoomExists):
			return nil, ErrRoomExists
		case errors.Is(err, repository.ErrUserHasRoom):
			return nil, ErrUserHasRoom
		default:
			return nil, fmt.Errorf("failed to create room: %w", err)
		}
	}

	event := domain.NewEnvironmentEvent(domain.EventRoomCreated, RoomCreatedContext{
		Room:         room.Context(),
		Notification: fmt.Sprintf("%s created room %s", admin.Username, name),
	})
	if err := s.broadcaster.Broadcast(ctx, hub.EnvironmentGroup, event); err != nil {
		l.Error().Err(err).Str(log.FieldRoom, name).Msg("failed to broadcast room created")
	}

	l.Info().Str(log.FieldRoom, name).Str(log.FieldUsername, admin.Username).Msg("room created")
	return room, nil
}

func (s *roomService) RemoveRoom(ctx context.Context, requester *domain.User, name string) (*domain.Room, error) {
	l := log.Ctx(ctx)

	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	// Deleting the room and clearing the admin's has_room flag is one unit
	// of work. The requester is not required to be the room's admin.
	room, err := s.store.DeleteRoom(opCtx, name)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to remove room: %w", err)
	}

	event := domain.NewEnvironmentEvent(domain.EventRoomRemoved, RoomRemovedContext{
		Name:         name,
		Notification: fmt.Sprintf("%s removed room %s", requester.Username, name),
	})
	if err := s.broadcaster.Broadcast(ctx, hub.EnvironmentGroup, event); err != nil {
		l.Error().Err(err).Str(log.FieldRoom, name).Msg("failed to broadcast room removed")
	}

	l.Info().Str(log.FieldRoom, name).Str(log.FieldUsername, requester.Username).Msg("room removed")
	return room, nil
}

func (s *roomService) ListRooms(ctx context.Context) ([]domain.Room, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	return s.store.ListRooms(opCtx)
}

func (s *roomService) GetRoom(ctx context.Context, name string) (*domain.Room, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	room, err := s.store.GetRoom(opCtx, name)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return room, nil
}
