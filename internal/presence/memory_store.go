package presence

import (
	"context"
	"sort"
	"sync"

	"github.com/b4knamy/online-chat-backend/internal/domain"
)

// MemoryStore is an in-memory Store for tests and redis-free development.
// A single mutex gives the same atomicity the redis scripts provide.
type MemoryStore struct {
	mu        sync.Mutex
	available map[string]struct{}
	online    int64
}

// NewMemoryStore creates an empty in-memory presence store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{available: make(map[string]struct{})}
}

func (s *MemoryStore) Seed(ctx context.Context, usernames []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.available = make(map[string]struct{}, len(usernames))
	for _, u := range usernames {
		s.available[u] = struct{}{}
	}
	s.online = 0
	return nil
}

func (s *MemoryStore) Reserve(ctx context.Context, username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.available[username]; !ok {
		return false, nil
	}
	delete(s.available, username)
	s.online++
	return true, nil
}

func (s *MemoryStore) Release(ctx context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.available[username]; ok {
		return nil
	}
	s.available[username] = struct{}{}
	if s.online > 0 {
		s.online--
	}
	return nil
}

func (s *MemoryStore) Snapshot(ctx context.Context) (domain.PresenceSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := make([]string, 0, len(s.available))
	for u := range s.available {
		users = append(users, u)
	}
	sort.Strings(users)

	return domain.PresenceSnapshot{
		AvailableUsers: users,
		OnlineUsers:    s.online,
	}, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
