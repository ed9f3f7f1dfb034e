package service

import (
	"context"
	"fmt"
	"time"

	"github.com/b4knamy/online-chat-backend/internal/domain"
	"github.com/b4knamy/online-chat-backend/internal/hub"
	"github.com/b4knamy/online-chat-backend/internal/pubsub"
	"github.com/b4knamy/online-chat-backend/internal/repository"
	"github.com/b4knamy/online-chat-backend/pkg/log"
)

type chatService struct {
	store       repository.Store
	broadcaster pubsub.Broadcaster
	opTimeout   time.Duration
}

// NewChatService creates the chat relay.
func NewChatService(store repository.Store, broadcaster pubsub.Broadcaster, opTimeout time.Duration) ChatService {
	return &chatService{
		store:       store,
		broadcaster: broadcaster,
		opTimeout:   opTimeout,
	}
}

// PostMessage saves then broadcasts. A failed save never produces a
// broadcast. Text is accepted as-is; empty and oversized payloads are not
// rejected here.
func (s *chatService) PostMessage(ctx context.Context, user *domain.User, room *domain.Room, text string) (*domain.MessageContext, error) {
	l := log.Ctx(ctx)

	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	msg, err := s.store.CreateMessage(opCtx, user, room, text)
	if err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}

	enriched := msg.Context()
	if err := s.broadcaster.Broadcast(ctx, hub.RoomGroup(room.Name), domain.NewChatEvent(enriched)); err != nil {
		l.Error().Err(err).Str(log.FieldRoom, room.Name).Msg("failed to broadcast chat message")
		return nil, err
	}

	return &enriched, nil
}
