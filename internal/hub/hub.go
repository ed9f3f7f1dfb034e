package hub

import (
	"fmt"
	"sync"

	"github.com/b4knamy/online-chat-backend/pkg/log"
)

// EnvironmentGroup is the single global group for presence and room
// lifecycle events.
const EnvironmentGroup = "environment"

// RoomGroup returns the broadcast group name for a chat room.
func RoomGroup(roomName string) string {
	return fmt.Sprintf("chat_%s", roomName)
}

// Hub maintains dynamic membership of named broadcast groups and fans
// payloads out to every local member. Cross-process fan-out happens through
// the pubsub bridge, which feeds remote payloads back in via Deliver.
type Hub struct {
	clients    map[string]*Client            // clientID -> client
	groups     map[string]map[string]*Client // group -> clientID -> client
	register   chan *Client
	unregister chan *Client
	deliver    chan *GroupMessage
	mu         sync.RWMutex
}

// GroupMessage is a payload addressed to one group.
type GroupMessage struct {
	Group   string
	Payload []byte
}

// New creates a hub. Run must be started before clients register.
func New() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		groups:     make(map[string]map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan *GroupMessage, 256),
	}
}

// Run processes registration, cleanup and delivery until the process exits.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			log.L().Debug().Str(log.FieldClientID, client.ID).Msg("client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				for group, members := range h.groups {
					delete(members, client.ID)
					if len(members) == 0 {
						delete(h.groups, group)
					}
				}
				delete(h.clients, client.ID)
				close(client.Send)
			}
			h.mu.Unlock()
			log.L().Debug().Str(log.FieldClientID, client.ID).Msg("client unregistered")

		case msg := <-h.deliver:
			h.mu.RLock()
			for clientID, client := range h.groups[msg.Group] {
				select {
				case client.Send <- msg.Payload:
				default:
					// Slow consumer: drop the connection, not the group.
					log.L().Warn().Str(log.FieldClientID, clientID).Msg("send buffer full, dropping client")
					go h.Unregister(client)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub and every group it joined. The
// client's send channel is closed exactly once.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Join adds the client to a group. Membership is visible to broadcasts as
// soon as Join returns.
func (h *Hub) Join(group string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.groups[group]; !ok {
		h.groups[group] = make(map[string]*Client)
	}
	h.groups[group][client.ID] = client
	log.L().Info().Str(log.FieldClientID, client.ID).Str(log.FieldGroup, group).Msg("client joined group")
}

// Leave removes the client from a group. It is idempotent: leaving a group
// the client never joined is a no-op. Once Leave returns, no broadcast
// issued afterwards reaches the client.
func (h *Hub) Leave(group string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.groups[group]
	if !ok {
		return
	}
	delete(members, client.ID)
	if len(members) == 0 {
		delete(h.groups, group)
	}
	log.L().Info().Str(log.FieldClientID, client.ID).Str(log.FieldGroup, group).Msg("client left group")
}

// Deliver queues a payload for every current member of the group. Membership
// is resolved at delivery time, never lazily against dead connections.
func (h *Hub) Deliver(group string, payload []byte) {
	h.deliver <- &GroupMessage{Group: group, Payload: payload}
}

// GroupSize returns the number of local members in a group.
func (h *Hub) GroupSize(group string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[group])
}
