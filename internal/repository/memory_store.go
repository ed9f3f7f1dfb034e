package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/b4knamy/online-chat-backend/internal/domain"
)

// MemoryStore is an in-memory Store for tests and storage-free development.
// Every operation is guarded by one mutex, so the create/delete units of
// work are atomic here too.
type MemoryStore struct {
	mu       sync.Mutex
	users    map[string]*memoryUser      // username -> user
	rooms    map[string]*domain.Room     // room name -> room
	messages map[string][]domain.Message // room id -> messages
}

type memoryUser struct {
	user domain.User
	hash string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]*memoryUser),
		rooms:    make(map[string]*domain.Room),
		messages: make(map[string][]domain.Message),
	}
}

func (s *MemoryStore) CreateRoom(ctx context.Context, admin *domain.User, name string) (*domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.users[admin.Username]
	if !ok {
		return nil, ErrUserNotFound
	}
	if stored.user.HasRoom {
		return nil, ErrUserHasRoom
	}
	if _, exists := s.rooms[name]; exists {
		return nil, ErrRoomExists
	}

	stored.user.HasRoom = true
	admin.HasRoom = true

	room := &domain.Room{
		ID:        uuid.New().String(),
		Name:      name,
		Admin:     stored.user,
		MaxUsers:  domain.DefaultMaxUsers,
		Messages:  []domain.Message{},
		CreatedAt: time.Now(),
	}
	s.rooms[name] = room

	copied := *room
	return &copied, nil
}

func (s *MemoryStore) DeleteRoom(ctx context.Context, name string) (*domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[name]
	if !ok {
		return nil, ErrRoomNotFound
	}

	delete(s.rooms, name)
	delete(s.messages, room.ID)

	if stored, ok := s.users[room.Admin.Username]; ok {
		stored.user.HasRoom = false
	}
	room.Admin.HasRoom = false

	copied := *room
	return &copied, nil
}

func (s *MemoryStore) CreateMessage(ctx context.Context, user *domain.User, room *domain.Room, text string) (*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := domain.Message{
		ID:        uuid.New().String(),
		User:      *user,
		RoomID:    room.ID,
		Text:      text,
		CreatedAt: time.Now(),
	}
	s.messages[room.ID] = append(s.messages[room.ID], msg)
	return &msg, nil
}

func (s *MemoryStore) GetUser(ctx context.Context, username string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.users[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	user := stored.user
	return &user, nil
}

func (s *MemoryStore) GetCredentials(ctx context.Context, username string) (*domain.User, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.users[username]
	if !ok {
		return nil, "", ErrUserNotFound
	}
	user := stored.user
	return &user, stored.hash, nil
}

func (s *MemoryStore) GetRoom(ctx context.Context, name string) (*domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[name]
	if !ok {
		return nil, ErrRoomNotFound
	}
	copied := *room
	copied.Messages = append([]domain.Message{}, s.messages[room.ID]...)
	return &copied, nil
}

func (s *MemoryStore) ListRooms(ctx context.Context) ([]domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rooms := make([]domain.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		copied := *room
		copied.Messages = append([]domain.Message{}, s.messages[room.ID]...)
		rooms = append(rooms, copied)
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].CreatedAt.Before(rooms[j].CreatedAt) })
	return rooms, nil
}

func (s *MemoryStore) ListUsernames(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	usernames := make([]string, 0, len(s.users))
	for username := range s.users {
		usernames = append(usernames, username)
	}
	sort.Strings(usernames)
	return usernames, nil
}

func (s *MemoryStore) SaveUser(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.users[user.Username]
	if !ok {
		return ErrUserNotFound
	}
	stored.user.HasRoom = user.HasRoom
	return nil
}

func (s *MemoryStore) EnsureUser(ctx context.Context, username, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[username]; ok {
		return nil
	}
	s.users[username] = &memoryUser{
		user: domain.User{ID: uuid.New().String(), Username: username},
		hash: passwordHash,
	}
	return nil
}
