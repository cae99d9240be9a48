package domain

import "time"

type RoomID string

type Room struct {
	ID        RoomID    `json:"roomId"`
	CreatedBy UserID    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewRoom(id RoomID, createdBy UserID) *Room {
	return &Room{ID: id, CreatedBy: createdBy, CreatedAt: time.Now().UTC()}
}
