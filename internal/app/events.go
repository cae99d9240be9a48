package app

import (
	"encoding/json"

	"github.com/kmelnick/huddle/internal/core"
	"github.com/kmelnick/huddle/internal/domain"
	"github.com/rs/zerolog/log"
)

// Outbound event payloads. Field names are part of the client protocol.

type ConnectedEvent struct {
	Type         string `json:"type"`
	ConnectionID string `json:"connectionId"`
	Timestamp    string `json:"timestamp"`
}

type JoinedServerEvent struct {
	Type   string        `json:"type"`
	UserID domain.UserID `json:"userId"`
}

type RoomJoinedEvent struct {
	Type         string          `json:"type"`
	RoomID       domain.RoomID   `json:"roomId"`
	Participants []domain.UserID `json:"participants"`
}

type UserJoinedEvent struct {
	Type         string          `json:"type"`
	UserID       domain.UserID   `json:"userId"`
	UserName     string          `json:"userName"`
	Participants []domain.UserID `json:"participants"`
}

type UserLeftEvent struct {
	Type         string          `json:"type"`
	UserID       domain.UserID   `json:"userId"`
	UserName     string          `json:"userName"`
	Participants []domain.UserID `json:"participants"`
}

type LeftRoomEvent struct {
	Type string `json:"type"`
}

// SessionEvent carries an opaque SDP offer or answer to a single peer.
type SessionEvent struct {
	Type         string          `json:"type"`
	Payload      json.RawMessage `json:"sdp"`
	FromUserID   domain.UserID   `json:"fromUserId"`
	FromUserName string          `json:"fromUserName"`
	TargetUserID domain.UserID   `json:"targetUserId"`
}

type CandidateEvent struct {
	Type         string          `json:"type"`
	Candidate    json.RawMessage `json:"candidate"`
	FromUserID   domain.UserID   `json:"fromUserId"`
	TargetUserID domain.UserID   `json:"targetUserId"`
}

type MediaToggledEvent struct {
	Type      string        `json:"type"`
	UserID    domain.UserID `json:"userId"`
	IsEnabled bool          `json:"isEnabled"`
}

type ChatMessageEvent struct {
	Type      string        `json:"type"`
	UserID    domain.UserID `json:"userId"`
	UserName  string        `json:"userName"`
	Message   string        `json:"message"`
	Timestamp string        `json:"timestamp"`
}

type ScreenShareEvent struct {
	Type     string        `json:"type"`
	UserID   domain.UserID `json:"userId"`
	UserName string        `json:"userName"`
}

type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// sendJSON marshals v and queues it on conn. Delivery is best effort: a
// full buffer or closed connection drops the frame silently.
func sendJSON(conn core.SignalConnection, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.events").Msg("marshal event")
		return
	}
	if err := conn.TrySend(core.Frame(b)); err != nil {
		log.Debug().Err(err).Str("module", "app.events").Msg("dropped frame")
	}
}
