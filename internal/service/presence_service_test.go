package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b4knamy/online-chat-backend/internal/auth"
	"github.com/b4knamy/online-chat-backend/internal/domain"
	"github.com/b4knamy/online-chat-backend/internal/hub"
	"github.com/b4knamy/online-chat-backend/internal/presence"
	"github.com/b4knamy/online-chat-backend/internal/repository"
)

func newPresenceService(t *testing.T, usernames ...string) (PresenceService, *presence.MemoryStore, *recordingBroadcaster) {
	t.Helper()

	repo := repository.NewMemoryStore()
	for _, u := range usernames {
		seedUser(repo, u)
	}

	store := presence.NewMemoryStore()
	require.NoError(t, store.Seed(context.Background(), usernames))

	broadcaster := &recordingBroadcaster{}
	gateway := auth.NewGateway(repo, "test-secret", testTimeout)

	return NewPresenceService(store, gateway, broadcaster, testTimeout), store, broadcaster
}

func lastSnapshot(t *testing.T, broadcaster *recordingBroadcaster) domain.PresenceSnapshot {
	t.Helper()
	events := broadcaster.environmentEvents(domain.EventAvailableUsers)
	require.NotEmpty(t, events)
	snap, ok := events[len(events)-1].Context.(domain.PresenceSnapshot)
	require.True(t, ok)
	return snap
}

func TestLoginRemovesUserFromAvailableSet(t *testing.T) {
	svc, _, broadcaster := newPresenceService(t, "Basch", "Vaan")

	user, ok, err := svc.Login(context.Background(), "conn-1", "Basch")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Basch", user.Username)

	snap := lastSnapshot(t, broadcaster)
	assert.NotContains(t, snap.AvailableUsers, "Basch")
	assert.Contains(t, snap.AvailableUsers, "Vaan")
	assert.Equal(t, int64(1), snap.OnlineUsers)

	joined := broadcaster.environmentEvents(domain.EventUserJoined)
	require.Len(t, joined, 1)
	assert.Len(t, broadcaster.toGroup(hub.EnvironmentGroup), 2) // snapshot + user.joined
}

func TestLoginUnavailableUserIsSilentNoOp(t *testing.T) {
	svc, store, broadcaster := newPresenceService(t, "Basch")

	_, ok, err := svc.Login(context.Background(), "conn-1", "Basch")
	require.NoError(t, err)
	require.True(t, ok)
	before, _ := store.Snapshot(context.Background())
	eventsBefore := len(broadcaster.toGroup(hub.EnvironmentGroup))

	// Second login from another connection: Basch is no longer available.
	_, ok, err = svc.Login(context.Background(), "conn-2", "Basch")
	require.NoError(t, err)
	assert.False(t, ok)

	after, _ := store.Snapshot(context.Background())
	assert.Equal(t, before, after)
	assert.Len(t, broadcaster.toGroup(hub.EnvironmentGroup), eventsBefore)
}

func TestLogoutRestoresAvailability(t *testing.T) {
	svc, _, broadcaster := newPresenceService(t, "Basch")

	_, ok, err := svc.Login(context.Background(), "conn-1", "Basch")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, svc.Logout(context.Background(), "conn-1"))

	snap := lastSnapshot(t, broadcaster)
	assert.Contains(t, snap.AvailableUsers, "Basch")
	assert.Equal(t, int64(0), snap.OnlineUsers)

	left := broadcaster.environmentEvents(domain.EventUserLeft)
	require.Len(t, left, 1)
}

func TestLogoutUnboundConnectionIsNoOp(t *testing.T) {
	svc, _, broadcaster := newPresenceService(t, "Basch")

	require.NoError(t, svc.Logout(context.Background(), "never-logged-in"))
	assert.Empty(t, broadcaster.toGroup(hub.EnvironmentGroup))
}

func TestRepeatedLogoutNeverGoesNegative(t *testing.T) {
	svc, store, _ := newPresenceService(t, "Basch")

	_, ok, err := svc.Login(context.Background(), "conn-1", "Basch")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, svc.Logout(context.Background(), "conn-1"))
	require.NoError(t, svc.Logout(context.Background(), "conn-1"))

	snap, err := store.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), snap.OnlineUsers)
}

func TestPresenceSumInvariant(t *testing.T) {
	users := []string{"Basch", "Vaan", "Ashe", "Fran"}
	svc, store, _ := newPresenceService(t, users...)
	total := int64(len(users))

	check := func() {
		snap, err := store.Snapshot(context.Background())
		require.NoError(t, err)
		assert.Equal(t, total, snap.OnlineUsers+int64(len(snap.AvailableUsers)))
	}

	ctx := context.Background()
	check()

	_, _, _ = svc.Login(ctx, "c1", "Basch")
	check()
	_, _, _ = svc.Login(ctx, "c2", "Vaan")
	check()
	require.NoError(t, svc.Logout(ctx, "c1"))
	check()
	_, _, _ = svc.Login(ctx, "c3", "Ashe")
	check()
	require.NoError(t, svc.Logout(ctx, "c2"))
	check()
	require.NoError(t, svc.Logout(ctx, "c3"))
	check()
}

func TestConcurrentLoginSameUser(t *testing.T) {
	svc, store, _ := newPresenceService(t, "Basch")

	const attempts = 8
	oks := make([]bool, attempts)
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	wg.Add(attempts)
	for i := 0; i < attempts; i++ {
		go func(i int) {
			defer wg.Done()
			_, oks[i], errs[i] = svc.Login(context.Background(), fmt.Sprintf("conn-%d", i), "Basch")
		}(i)
	}
	wg.Wait()

	var wins int
	for i := 0; i < attempts; i++ {
		require.NoError(t, errs[i])
		if oks[i] {
			wins++
		}
	}
	assert.Equal(t, 1, wins)

	snap, err := store.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), snap.OnlineUsers)
	assert.Empty(t, snap.AvailableUsers)
}

// deadlineStore fails like the redis store does once its context expires.
type deadlineStore struct {
	*presence.MemoryStore
}

func (s *deadlineStore) Release(ctx context.Context, username string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.MemoryStore.Release(ctx, username)
}

// stallingGateway blocks Bind until the operation deadline.
type stallingGateway struct {
	auth.Gateway
}

func (stallingGateway) Bind(ctx context.Context, connID, username string) (*domain.User, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestLoginBindTimeoutRollsBackReservation(t *testing.T) {
	store := &deadlineStore{MemoryStore: presence.NewMemoryStore()}
	require.NoError(t, store.Seed(context.Background(), []string{"Basch"}))

	broadcaster := &recordingBroadcaster{}
	svc := NewPresenceService(store, stallingGateway{}, broadcaster, 50*time.Millisecond)

	_, ok, err := svc.Login(context.Background(), "conn-1", "Basch")
	require.Error(t, err)
	assert.False(t, ok)

	// The reservation must be rolled back even though the bind context
	// already expired: Basch is available again and nobody counts as online.
	snap, err := store.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Basch"}, snap.AvailableUsers)
	assert.Equal(t, int64(0), snap.OnlineUsers)

	assert.Empty(t, broadcaster.environmentEvents(domain.EventUserJoined))
}

func TestPushSnapshotReadsFresh(t *testing.T) {
	svc, store, broadcaster := newPresenceService(t, "Basch", "Vaan")

	// Mutate the store behind the service's back; the pushed snapshot must
	// reflect it.
	reserved, err := store.Reserve(context.Background(), "Vaan")
	require.NoError(t, err)
	require.True(t, reserved)

	require.NoError(t, svc.PushSnapshot(context.Background()))

	snap := lastSnapshot(t, broadcaster)
	assert.Equal(t, []string{"Basch"}, snap.AvailableUsers)
	assert.Equal(t, int64(1), snap.OnlineUsers)
}
