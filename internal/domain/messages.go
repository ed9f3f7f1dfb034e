package domain

import "encoding/json"

// Inbound message types on the environment socket.
const (
	MsgTypeLogin      = "login.user"
	MsgTypeLogout     = "logout.user"
	MsgTypeCreateRoom = "room.created"
	MsgTypeRemoveRoom = "remove.room"
)

// Outbound event types on the environment socket.
const (
	EventAvailableUsers = "available.users"
	EventRoomCreated    = "room.created"
	EventRoomRemoved    = "remove.room"
	EventUserJoined     = "user.joined"
	EventUserLeft       = "user.left"
)

// Outbound message type on a room socket.
const MsgTypeChatMessage = "chat.message"

// Error codes for sender-only warnings.
const (
	ErrCodeBadRequest    = "BAD_REQUEST"
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeConflict      = "CONFLICT"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeTransient     = "TRANSIENT_ERROR"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// Envelope is the inbound wire frame: {type, data}.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Inbound payloads.

type LoginData struct {
	Username string `json:"username"`
}

type CreateRoomData struct {
	NewRoom string `json:"new_room"`
}

type RemoveRoomData struct {
	Room string `json:"room"`
}

// ChatData is the free-text payload accepted on room sockets.
type ChatData struct {
	Text string `json:"text"`
}

// Outbound frames.

// ChatEvent wraps a persisted message for room-group delivery.
type ChatEvent struct {
	Type string        `json:"type"`
	Data ChatEventData `json:"data"`
}

type ChatEventData struct {
	Message MessageContext `json:"message"`
}

// NewChatEvent builds the room broadcast frame for a persisted message.
func NewChatEvent(ctx MessageContext) *ChatEvent {
	return &ChatEvent{
		Type: MsgTypeChatMessage,
		Data: ChatEventData{Message: ctx},
	}
}

// EnvironmentEvent is the outbound frame for environment-group events.
type EnvironmentEvent struct {
	EventType string      `json:"event_type"`
	Context   interface{} `json:"context"`
}

// NewEnvironmentEvent builds an environment broadcast frame.
func NewEnvironmentEvent(eventType string, context interface{}) *EnvironmentEvent {
	return &EnvironmentEvent{EventType: eventType, Context: context}
}

// ErrorMessage is a sender-only warning; it is never broadcast.
type ErrorMessage struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewErrorMessage builds a sender-only warning frame.
func NewErrorMessage(code, message string) *ErrorMessage {
	return &ErrorMessage{Type: "error", Code: code, Message: message}
}
