package hub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b4knamy/online-chat-backend/internal/config"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	h := New()
	go h.Run()
	return h
}

func newTestClient(h *Hub, id string) *Client {
	return NewClient(id, h, nil, config.WebSocketConfig{
		PingInterval:   30 * time.Second,
		PongWait:       60 * time.Second,
		WriteWait:      10 * time.Second,
		MaxMessageSize: 4096,
	})
}

func recv(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case msg, ok := <-c.Send:
		require.True(t, ok, "send channel closed")
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for delivery")
		return nil
	}
}

func assertNoDelivery(t *testing.T, c *Client) {
	t.Helper()
	select {
	case msg, ok := <-c.Send:
		if ok {
			t.Fatalf("unexpected delivery: %s", msg)
		}
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDeliverReachesAllGroupMembers(t *testing.T) {
	h := newTestHub(t)

	a := newTestClient(h, "a")
	b := newTestClient(h, "b")
	c := newTestClient(h, "c")

	h.Register(a)
	h.Register(b)
	h.Register(c)

	h.Join("chat_Room1", a)
	h.Join("chat_Room1", b)
	h.Join(EnvironmentGroup, c)

	h.Deliver("chat_Room1", []byte("hello"))

	assert.Equal(t, "hello", string(recv(t, a)))
	assert.Equal(t, "hello", string(recv(t, b)))
	assertNoDelivery(t, c)
}

func TestLeaveStopsDelivery(t *testing.T) {
	h := newTestHub(t)

	a := newTestClient(h, "a")
	b := newTestClient(h, "b")
	h.Register(a)
	h.Register(b)
	h.Join("chat_Room1", a)
	h.Join("chat_Room1", b)

	h.Leave("chat_Room1", a)
	h.Deliver("chat_Room1", []byte("after-leave"))

	assert.Equal(t, "after-leave", string(recv(t, b)))
	assertNoDelivery(t, a)
}

func TestLeaveIsIdempotent(t *testing.T) {
	h := newTestHub(t)

	a := newTestClient(h, "a")
	h.Register(a)

	// Leaving a group never joined, and leaving twice, must not panic or
	// affect other members.
	h.Leave("chat_Room1", a)
	h.Join("chat_Room1", a)
	h.Leave("chat_Room1", a)
	h.Leave("chat_Room1", a)

	assert.Equal(t, 0, h.GroupSize("chat_Room1"))
}

func TestUnregisterRemovesFromEveryGroup(t *testing.T) {
	h := newTestHub(t)

	a := newTestClient(h, "a")
	h.Register(a)
	h.Join("chat_Room1", a)
	h.Join(EnvironmentGroup, a)

	h.Unregister(a)

	// Unregister closes the send channel once processed.
	select {
	case _, ok := <-a.Send:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for unregister")
	}

	assert.Equal(t, 0, h.GroupSize("chat_Room1"))
	assert.Equal(t, 0, h.GroupSize(EnvironmentGroup))
}

func TestGroupSize(t *testing.T) {
	h := newTestHub(t)

	a := newTestClient(h, "a")
	b := newTestClient(h, "b")
	h.Register(a)
	h.Register(b)

	assert.Equal(t, 0, h.GroupSize("chat_Room1"))
	h.Join("chat_Room1", a)
	assert.Equal(t, 1, h.GroupSize("chat_Room1"))
	h.Join("chat_Room1", b)
	assert.Equal(t, 2, h.GroupSize("chat_Room1"))
}

func TestRoomGroupName(t *testing.T) {
	assert.Equal(t, "chat_Room1", RoomGroup("Room1"))
}
