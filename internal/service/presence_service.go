package service

import (
	"context"
	"fmt"
	"time"

	"github.com/b4knamy/online-chat-backend/internal/auth"
	"github.com/b4knamy/online-chat-backend/internal/domain"
	"github.com/b4knamy/online-chat-backend/internal/hub"
	"github.com/b4knamy/online-chat-backend/internal/presence"
	"github.com/b4knamy/online-chat-backend/internal/pubsub"
	"github.com/b4knamy/online-chat-backend/pkg/log"
)

// PresenceChangeContext accompanies user.joined / user.left events.
type PresenceChangeContext struct {
	Username     string `json:"username"`
	Notification string `json:"notification"`
}

type presenceService struct {
	store       presence.Store
	gateway     auth.Gateway
	broadcaster pubsub.Broadcaster
	opTimeout   time.Duration
}

// NewPresenceService creates the presence lifecycle service.
func NewPresenceService(store presence.Store, gateway auth.Gateway, broadcaster pubsub.Broadcaster, opTimeout time.Duration) PresenceService {
	return &presenceService{
		store:       store,
		gateway:     gateway,
		broadcaster: broadcaster,
		opTimeout:   opTimeout,
	}
}

func (s *presenceService) Login(ctx context.Context, connID, username string) (*domain.User, bool, error) {
	l := log.Ctx(ctx)

	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	// Reserve removes the name from the available set and bumps the online
	// counter in one atomic step. A name that is not available means the
	// user is already logged in elsewhere: silent no-op.
	ok, err := s.store.Reserve(opCtx, username)
	if err != nil {
		return nil, false, fmt.Errorf("failed to reserve presence: %w", err)
	}
	if !ok {
		l.Debug().Str(log.FieldUsername, username).Msg("login ignored, user not available")
		return nil, false, nil
	}

	user, err := s.gateway.Bind(opCtx, connID, username)
	if err != nil {
		// Binding failed after the reservation: hand the name back so the
		// set and counter stay consistent. opCtx may be the reason Bind
		// failed, so the rollback runs on its own deadline.
		relCtx, relCancel := context.WithTimeout(context.Background(), s.opTimeout)
		defer relCancel()
		if relErr := s.store.Release(relCtx, username); relErr != nil {
			l.Error().Err(relErr).Str(log.FieldUsername, username).Msg("failed to release presence after bind failure")
		}
		return nil, false, fmt.Errorf("failed to bind session: %w", err)
	}

	if err := s.PushSnapshot(ctx); err != nil {
		l.Error().Err(err).Msg("failed to push presence snapshot after login")
	}

	event := domain.NewEnvironmentEvent(domain.EventUserJoined, PresenceChangeContext{
		Username:     username,
		Notification: fmt.Sprintf("%s joined", username),
	})
	if err := s.broadcaster.Broadcast(ctx, hub.EnvironmentGroup, event); err != nil {
		l.Error().Err(err).Str(log.FieldUsername, username).Msg("failed to broadcast user joined")
	}

	l.Info().Str(log.FieldUsername, username).Str(log.FieldClientID, connID).Msg("user logged in")
	return user, true, nil
}

func (s *presenceService) Logout(ctx context.Context, connID string) error {
	l := log.Ctx(ctx)

	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	username := s.gateway.Unbind(opCtx, connID)
	if username == "" {
		return nil
	}

	if err := s.store.Release(opCtx, username); err != nil {
		return fmt.Errorf("failed to release presence: %w", err)
	}

	if err := s.PushSnapshot(ctx); err != nil {
		l.Error().Err(err).Msg("failed to push presence snapshot after logout")
	}

	event := domain.NewEnvironmentEvent(domain.EventUserLeft, PresenceChangeContext{
		Username:     username,
		Notification: fmt.Sprintf("%s left", username),
	})
	if err := s.broadcaster.Broadcast(ctx, hub.EnvironmentGroup, event); err != nil {
		l.Error().Err(err).Str(log.FieldUsername, username).Msg("failed to broadcast user left")
	}

	l.Info().Str(log.FieldUsername, username).Str(log.FieldClientID, connID).Msg("user logged out")
	return nil
}

func (s *presenceService) Snapshot(ctx context.Context) (domain.PresenceSnapshot, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	return s.store.Snapshot(opCtx)
}

func (s *presenceService) PushSnapshot(ctx context.Context) error {
	snapshot, err := s.Snapshot(ctx)
	if err != nil {
		return err
	}

	event := domain.NewEnvironmentEvent(domain.EventAvailableUsers, snapshot)
	return s.broadcaster.Broadcast(ctx, hub.EnvironmentGroup, event)
}
