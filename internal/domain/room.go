package domain

import (
	"time"

	"gorm.io/gorm"
)

// Room represents a chatroom.
type Room struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// RoomModel is the GORM model for the chatrooms table.
type RoomModel struct {
	ID        string         `gorm:"type:varchar(36);primaryKey"`
	Name      string         `gorm:"type:varchar(100);uniqueIndex;not null"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// TableName specifies the table name for RoomModel.
func (RoomModel) TableName() string {
	return "chatrooms"
}

// ToDomain converts RoomModel to domain Room.
func (m *RoomModel) ToDomain() *Room {
	return &Room{
		ID:        m.ID,
		Name:      m.Name,
		CreatedAt: m.CreatedAt,
	}
}

// RoomToModel converts domain Room to RoomModel.
func RoomToModel(r *Room) *RoomModel {
	return &RoomModel{
		ID:        r.ID,
		Name:      r.Name,
		CreatedAt: r.CreatedAt,
	}
}

// CreateRoomRequest represents a create chatroom request.
type CreateRoomRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
}
