package app

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kmelnick/huddle/internal/core"
	"github.com/kmelnick/huddle/internal/domain"
	"github.com/rs/zerolog/log"
)

// Orchestrator coordinates the identity and room registries and routes
// signaling traffic between members. Delivery is best effort: a target
// that has disconnected, or whose send buffer is full, is skipped without
// notifying the sender.
type Orchestrator struct {
	Registry *Registry
	Rooms    *RoomRegistry
}

// Attach binds a fresh connection and greets it with its connection id.
func (o *Orchestrator) Attach(cid core.ConnID, conn core.SignalConnection) {
	o.Registry.Bind(cid, conn)
	sendJSON(conn, ConnectedEvent{
		Type:         "connected",
		ConnectionID: string(cid),
		Timestamp:    timestamp(),
	})
}

// JoinServer registers the connection's identity.
func (o *Orchestrator) JoinServer(cid core.ConnID, userID domain.UserID, displayName string) error {
	user, err := o.Registry.Register(cid, userID, displayName)
	if err != nil {
		return err
	}
	o.sendTo(cid, JoinedServerEvent{Type: "joined-server", UserID: user.ID})
	return nil
}

// JoinRoom puts the connection's user into the room, creating it on
// demand. The joiner gets the prior participant list; everyone else gets
// a user-joined notification. Joining while already in another room
// leaves that room first.
func (o *Orchestrator) JoinRoom(cid core.ConnID, roomID domain.RoomID) error {
	user, ok := o.Registry.Lookup(cid)
	if !ok {
		return ErrIdentityRequired
	}
	if prev := user.CurrentRoom; prev != "" && prev != roomID {
		o.leaveCurrent(cid, user)
	}
	others := o.Rooms.Join(roomID, user.ID)
	o.Registry.SetRoom(cid, roomID)

	o.sendTo(cid, RoomJoinedEvent{Type: "room-joined", RoomID: roomID, Participants: others})
	o.broadcast(others, UserJoinedEvent{
		Type:         "user-joined",
		UserID:       user.ID,
		UserName:     user.DisplayName,
		Participants: others,
	})
	return nil
}

// LeaveRoom handles an explicit leave request. Leaving while not in a
// room is a no-op aside from the ack.
func (o *Orchestrator) LeaveRoom(cid core.ConnID) error {
	user, ok := o.Registry.Lookup(cid)
	if !ok {
		return ErrIdentityRequired
	}
	o.leaveCurrent(cid, user)
	o.sendTo(cid, LeftRoomEvent{Type: "left-room"})
	return nil
}

// Disconnect tears down everything the connection owned: room membership
// with a user-left broadcast, then the identity binding. Must be called
// exactly once when the transport drops.
func (o *Orchestrator) Disconnect(cid core.ConnID) {
	if user, ok := o.Registry.Lookup(cid); ok {
		o.leaveCurrent(cid, user)
	}
	o.Registry.Unregister(cid)
	log.Info().Str("module", "app.orchestrator").Str("cid", string(cid)).Msg("connection torn down")
}

func (o *Orchestrator) leaveCurrent(cid core.ConnID, user *domain.User) {
	roomID := user.CurrentRoom
	if roomID == "" {
		return
	}
	remaining, existed := o.Rooms.Leave(roomID, user.ID)
	o.Registry.SetRoom(cid, "")
	if !existed || len(remaining) == 0 {
		return
	}
	o.broadcast(remaining, UserLeftEvent{
		Type:         "user-left",
		UserID:       user.ID,
		UserName:     user.DisplayName,
		Participants: remaining,
	})
}

// RelayOffer forwards an opaque SDP offer to the target user only.
func (o *Orchestrator) RelayOffer(cid core.ConnID, roomID domain.RoomID, target domain.UserID, sdp json.RawMessage) error {
	return o.relaySession(cid, "offer", roomID, target, sdp)
}

// RelayAnswer forwards an opaque SDP answer to the target user only.
func (o *Orchestrator) RelayAnswer(cid core.ConnID, roomID domain.RoomID, target domain.UserID, sdp json.RawMessage) error {
	return o.relaySession(cid, "answer", roomID, target, sdp)
}

func (o *Orchestrator) relaySession(cid core.ConnID, kind string, roomID domain.RoomID, target domain.UserID, sdp json.RawMessage) error {
	user, err := o.senderInRoom(cid, roomID)
	if err != nil {
		return err
	}
	o.sendToUser(target, SessionEvent{
		Type:         kind,
		Payload:      sdp,
		FromUserID:   user.ID,
		FromUserName: user.DisplayName,
		TargetUserID: target,
	})
	return nil
}

// RelayCandidate forwards an opaque ICE candidate to the target user only.
func (o *Orchestrator) RelayCandidate(cid core.ConnID, roomID domain.RoomID, target domain.UserID, candidate json.RawMessage) error {
	user, err := o.senderInRoom(cid, roomID)
	if err != nil {
		return err
	}
	o.sendToUser(target, CandidateEvent{
		Type:         "ice-candidate",
		Candidate:    candidate,
		FromUserID:   user.ID,
		TargetUserID: target,
	})
	return nil
}

// ToggleVideo records the sender's video state and tells the rest of the
// room.
func (o *Orchestrator) ToggleVideo(cid core.ConnID, roomID domain.RoomID, enabled bool) error {
	user, err := o.senderInRoom(cid, roomID)
	if err != nil {
		return err
	}
	o.Registry.SetVideo(cid, enabled)
	o.broadcastExcept(roomID, user.ID, MediaToggledEvent{Type: "user-video-toggled", UserID: user.ID, IsEnabled: enabled})
	return nil
}

// ToggleAudio records the sender's audio state and tells the rest of the
// room.
func (o *Orchestrator) ToggleAudio(cid core.ConnID, roomID domain.RoomID, enabled bool) error {
	user, err := o.senderInRoom(cid, roomID)
	if err != nil {
		return err
	}
	o.Registry.SetAudio(cid, enabled)
	o.broadcastExcept(roomID, user.ID, MediaToggledEvent{Type: "user-audio-toggled", UserID: user.ID, IsEnabled: enabled})
	return nil
}

// MaxChatMessageLen caps chat text after trimming.
const MaxChatMessageLen = 500

// Chat trims, bounds and broadcasts a chat line to the whole room,
// sender included, with a server-side timestamp.
func (o *Orchestrator) Chat(cid core.ConnID, roomID domain.RoomID, text string) error {
	user, err := o.senderInRoom(cid, roomID)
	if err != nil {
		return err
	}
	msg := trimChat(text)
	if msg == "" {
		return fmt.Errorf("%w: message cannot be empty", ErrInvalidPayload)
	}
	members, ok := o.Rooms.Members(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	o.broadcast(members, ChatMessageEvent{
		Type:      "chat-message",
		UserID:    user.ID,
		UserName:  user.DisplayName,
		Message:   msg,
		Timestamp: timestamp(),
	})
	return nil
}

// ScreenShare announces a screen-share start or stop to the rest of the
// room. No state is recorded.
func (o *Orchestrator) ScreenShare(cid core.ConnID, roomID domain.RoomID, started bool) error {
	user, err := o.senderInRoom(cid, roomID)
	if err != nil {
		return err
	}
	kind := "user-stopped-screen-share"
	if started {
		kind = "user-started-screen-share"
	}
	o.broadcastExcept(roomID, user.ID, ScreenShareEvent{Type: kind, UserID: user.ID, UserName: user.DisplayName})
	return nil
}

// senderInRoom resolves the sending user and checks room membership.
func (o *Orchestrator) senderInRoom(cid core.ConnID, roomID domain.RoomID) (*domain.User, error) {
	user, ok := o.Registry.Lookup(cid)
	if !ok {
		return nil, ErrIdentityRequired
	}
	if !o.Rooms.IsMember(roomID, user.ID) {
		return nil, ErrNotInRoom
	}
	return user, nil
}

func (o *Orchestrator) sendTo(cid core.ConnID, v any) {
	if conn, ok := o.Registry.Conn(cid); ok {
		sendJSON(conn, v)
	}
}

func (o *Orchestrator) sendToUser(uid domain.UserID, v any) {
	if conn, ok := o.Registry.ConnOfUser(uid); ok {
		sendJSON(conn, v)
	}
}

func (o *Orchestrator) broadcast(members []domain.UserID, v any) {
	for _, uid := range members {
		o.sendToUser(uid, v)
	}
}

func (o *Orchestrator) broadcastExcept(roomID domain.RoomID, except domain.UserID, v any) {
	members, ok := o.Rooms.Members(roomID)
	if !ok {
		return
	}
	for _, uid := range members {
		if uid == except {
			continue
		}
		o.sendToUser(uid, v)
	}
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func trimChat(text string) string {
	msg := []rune(strings.TrimSpace(text))
	if len(msg) > MaxChatMessageLen {
		msg = msg[:MaxChatMessageLen]
	}
	return string(msg)
}
