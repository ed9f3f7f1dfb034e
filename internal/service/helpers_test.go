package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/b4knamy/online-chat-backend/internal/domain"
	"github.com/b4knamy/online-chat-backend/internal/repository"
)

const testTimeout = 2 * time.Second

// recordingBroadcaster captures broadcasts per group for assertions.
type recordingBroadcaster struct {
	mu     sync.Mutex
	events []recordedEvent
}

type recordedEvent struct {
	group   string
	payload interface{}
}

func (b *recordingBroadcaster) Broadcast(_ context.Context, group string, payload interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, recordedEvent{group: group, payload: payload})
	return nil
}

func (b *recordingBroadcaster) toGroup(group string) []interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	var payloads []interface{}
	for _, e := range b.events {
		if e.group == group {
			payloads = append(payloads, e.payload)
		}
	}
	return payloads
}

func (b *recordingBroadcaster) environmentEvents(eventType string) []*domain.EnvironmentEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	var events []*domain.EnvironmentEvent
	for _, e := range b.events {
		if ev, ok := e.payload.(*domain.EnvironmentEvent); ok && ev.EventType == eventType {
			events = append(events, ev)
		}
	}
	return events
}

// failingMessageStore wraps a Store and fails every CreateMessage call.
type failingMessageStore struct {
	repository.Store
}

var errStoreDown = errors.New("store down")

func (s *failingMessageStore) CreateMessage(context.Context, *domain.User, *domain.Room, string) (*domain.Message, error) {
	return nil, errStoreDown
}

func seedUser(store *repository.MemoryStore, username string) *domain.User {
	_ = store.EnsureUser(context.Background(), username, "x")
	user, _ := store.GetUser(context.Background(), username)
	return user
}
