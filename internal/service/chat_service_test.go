package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b4knamy/online-chat-backend/internal/domain"
	"github.com/b4knamy/online-chat-backend/internal/hub"
	"github.com/b4knamy/online-chat-backend/internal/repository"
)

func TestPostMessageBroadcastsEnrichedContext(t *testing.T) {
	store := repository.NewMemoryStore()
	broadcaster := &recordingBroadcaster{}
	svc := NewChatService(store, broadcaster, testTimeout)

	user := seedUser(store, "Basch")
	room := &domain.Room{ID: "r1", Name: "Room1"}

	enriched, err := svc.PostMessage(context.Background(), user, room, "hello there")
	require.NoError(t, err)

	assert.NotEmpty(t, enriched.ID)
	assert.Equal(t, "hello there", enriched.Text)
	assert.Equal(t, user.Ref(), enriched.User)
	assert.Regexp(t, `^\d{2}/\d{2}/\d{4}$`, enriched.CreatedAt)

	payloads := broadcaster.toGroup(hub.RoomGroup("Room1"))
	require.Len(t, payloads, 1)
	event, ok := payloads[0].(*domain.ChatEvent)
	require.True(t, ok)
	assert.Equal(t, domain.MsgTypeChatMessage, event.Type)
	assert.Equal(t, *enriched, event.Data.Message)
}

func TestPostMessageFailedSaveNeverBroadcasts(t *testing.T) {
	store := repository.NewMemoryStore()
	broadcaster := &recordingBroadcaster{}
	svc := NewChatService(&failingMessageStore{Store: store}, broadcaster, testTimeout)

	user := seedUser(store, "Basch")
	room := &domain.Room{ID: "r1", Name: "Room1"}

	_, err := svc.PostMessage(context.Background(), user, room, "lost")
	require.Error(t, err)
	assert.ErrorIs(t, err, errStoreDown)

	assert.Empty(t, broadcaster.toGroup(hub.RoomGroup("Room1")))
}

func TestPostMessageAcceptsEmptyText(t *testing.T) {
	store := repository.NewMemoryStore()
	broadcaster := &recordingBroadcaster{}
	svc := NewChatService(store, broadcaster, testTimeout)

	user := seedUser(store, "Basch")
	room := &domain.Room{ID: "r1", Name: "Room1"}

	enriched, err := svc.PostMessage(context.Background(), user, room, "")
	require.NoError(t, err)
	assert.Empty(t, enriched.Text)
	assert.Len(t, broadcaster.toGroup(hub.RoomGroup("Room1")), 1)
}
