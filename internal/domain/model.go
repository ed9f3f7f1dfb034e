package domain

import (
	"time"
)

// UserModel is the GORM model for the users table.
type UserModel struct {
	ID           string    `gorm:"type:varchar(36);primaryKey"`
	Username     string    `gorm:"type:varchar(50);uniqueIndex;not null"`
	PasswordHash string    `gorm:"type:varchar(100);not null"`
	HasRoom      bool      `gorm:"not null;default:false"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

// TableName specifies the table name for UserModel.
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts UserModel to a domain User.
func (m *UserModel) ToDomain() *User {
	return &User{
		ID:       m.ID,
		Username: m.Username,
		HasRoom:  m.HasRoom,
	}
}

// RoomModel is the GORM model for the rooms table.
type RoomModel struct {
	ID        string         `gorm:"type:varchar(36);primaryKey"`
	Name      string         `gorm:"type:varchar(10);uniqueIndex;not null"`
	AdminID   string         `gorm:"type:varchar(36);index;not null"`
	Admin     UserModel      `gorm:"foreignKey:AdminID"`
	MaxUsers  int            `gorm:"not null;default:3"`
	Messages  []MessageModel `gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
}

// TableName specifies the table name for RoomModel.
func (RoomModel) TableName() string {
	return "rooms"
}

// ToDomain converts RoomModel to a domain Room.
func (m *RoomModel) ToDomain() *Room {
	messages := make([]Message, len(m.Messages))
	for i := range m.Messages {
		messages[i] = *m.Messages[i].ToDomain()
	}
	return &Room{
		ID:        m.ID,
		Name:      m.Name,
		Admin:     *m.Admin.ToDomain(),
		MaxUsers:  m.MaxUsers,
		Messages:  messages,
		CreatedAt: m.CreatedAt,
	}
}

// MessageModel is the GORM model for the messages table.
type MessageModel struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	UserID    string    `gorm:"type:varchar(36);index;not null"`
	User      UserModel `gorm:"foreignKey:UserID"`
	RoomID    string    `gorm:"type:varchar(36);index;not null"`
	Text      string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// TableName specifies the table name for MessageModel.
func (MessageModel) TableName() string {
	return "messages"
}

// ToDomain converts MessageModel to a domain Message.
func (m *MessageModel) ToDomain() *Message {
	return &Message{
		ID:        m.ID,
		User:      *m.User.ToDomain(),
		RoomID:    m.RoomID,
		Text:      m.Text,
		CreatedAt: m.CreatedAt,
	}
}
