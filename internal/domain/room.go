package domain

import (
	"regexp"
	"time"
)

// DefaultMaxUsers is the membership capacity of a room when none is given.
const DefaultMaxUsers = 3

// MessageDateLayout is the calendar-date format used in chat payloads.
const MessageDateLayout = "02/01/2006"

// roomNamePattern restricts room names to 3-10 alphanumeric characters.
var roomNamePattern = regexp.MustCompile(`^[a-zA-Z0-9]{3,10}$`)

// ValidRoomName reports whether name satisfies the room naming rule.
func ValidRoomName(name string) bool {
	return roomNamePattern.MatchString(name)
}

// Room is a chat room. Each user administers at most one live room.
type Room struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Admin     User      `json:"admin"`
	MaxUsers  int       `json:"max_users"`
	Messages  []Message `json:"room_messages"`
	CreatedAt time.Time `json:"-"`
}

// Message is an immutable chat message posted to a room.
type Message struct {
	ID        string    `json:"id"`
	User      User      `json:"user"`
	RoomID    string    `json:"-"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// MessageContext is the enriched payload broadcast to a room group after a
// message has been persisted.
type MessageContext struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	User      Ref    `json:"user"`
	CreatedAt string `json:"created_at"`
}

// Context returns the broadcast form of the message, with the server-assigned
// timestamp rendered as a calendar date.
func (m *Message) Context() MessageContext {
	return MessageContext{
		ID:        m.ID,
		Text:      m.Text,
		User:      m.User.Ref(),
		CreatedAt: m.CreatedAt.Format(MessageDateLayout),
	}
}

// RoomContext is the payload broadcast to the environment group when a room
// is created.
type RoomContext struct {
	Admin    Ref              `json:"admin"`
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Messages []MessageContext `json:"room_messages"`
}

// Context returns the broadcast form of the room.
func (r *Room) Context() RoomContext {
	msgs := make([]MessageContext, 0, len(r.Messages))
	for i := range r.Messages {
		msgs = append(msgs, r.Messages[i].Context())
	}
	return RoomContext{
		Admin:    r.Admin.Ref(),
		ID:       r.ID,
		Name:     r.Name,
		Messages: msgs,
	}
}
