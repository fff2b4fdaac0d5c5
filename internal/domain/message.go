package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// ChatMessage is an immutable chat event: who said what, where, and when.
// It is created once on receipt of a client payload and then handed to the
// history store, the event producer and the broadcaster.
type ChatMessage struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"room_id"`
	Username  string    `json:"username"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// MessageModel is the GORM model for the messages table.
type MessageModel struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	RoomID    string    `gorm:"type:varchar(36);index:idx_messages_room_time;not null"`
	Username  string    `gorm:"type:varchar(50);not null"`
	Content   string    `gorm:"type:text;not null"`
	Timestamp time.Time `gorm:"index:idx_messages_room_time;not null"`
}

// TableName specifies the table name for MessageModel.
func (MessageModel) TableName() string {
	return "messages"
}

// ToDomain converts MessageModel to a domain ChatMessage.
func (m *MessageModel) ToDomain() *ChatMessage {
	return &ChatMessage{
		ID:        m.ID,
		RoomID:    m.RoomID,
		Username:  m.Username,
		Content:   m.Content,
		Timestamp: m.Timestamp,
	}
}

// MessageToModel converts a domain ChatMessage to MessageModel.
func MessageToModel(msg *ChatMessage) *MessageModel {
	return &MessageModel{
		ID:        msg.ID,
		RoomID:    msg.RoomID,
		Username:  msg.Username,
		Content:   msg.Content,
		Timestamp: msg.Timestamp,
	}
}

// InboundPayload is what clients send on the realtime channel. Any
// client-supplied identity fields are deliberately absent: authorship is
// always taken from the authenticated session.
type InboundPayload struct {
	Message string `json:"message"`
}

// Validate checks the payload shape. Empty or whitespace-only messages are
// rejected.
func (p *InboundPayload) Validate() error {
	if strings.TrimSpace(p.Message) == "" {
		return ErrEmptyMessage
	}
	return nil
}

// OutboundPayload is what connected clients receive for each chat message.
type OutboundPayload struct {
	Username  string    `json:"username"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Outbound converts a ChatMessage into the wire payload broadcast to a room.
func (m *ChatMessage) Outbound() *OutboundPayload {
	return &OutboundPayload{
		Username:  m.Username,
		Message:   m.Content,
		Timestamp: m.Timestamp,
	}
}

// EncodeOutbound marshals the broadcast payload once so the serialized form
// is shared across all recipients.
func (m *ChatMessage) EncodeOutbound() ([]byte, error) {
	return json.Marshal(m.Outbound())
}
