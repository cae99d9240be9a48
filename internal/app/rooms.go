package app

import (
	"crypto/rand"
	"sync"

	"github.com/kmelnick/huddle/internal/domain"
	"github.com/rs/zerolog/log"
)

type roomState struct {
	room    *domain.Room
	members map[domain.UserID]struct{}
	// order preserves join order for participant snapshots.
	order []domain.UserID
}

func (s *roomState) snapshot(exclude domain.UserID) []domain.UserID {
	out := make([]domain.UserID, 0, len(s.order))
	for _, uid := range s.order {
		if uid != exclude {
			out = append(out, uid)
		}
	}
	return out
}

// RoomInfo is a read-only view for the request/response surface.
type RoomInfo struct {
	Room         domain.Room
	Participants []domain.UserID
	Active       bool
}

// RoomRegistry owns all room state. A single lock guards the room map and
// every member set so that join, leave and delete-on-empty are each one
// atomic step with respect to any other room operation.
type RoomRegistry struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*roomState
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{rooms: make(map[domain.RoomID]*roomState)}
}

// Create makes a new empty room with a server-generated id. Collisions are
// not checked; the id space is large enough for the active-room scale.
func (f *RoomRegistry) Create(createdBy domain.UserID) *domain.Room {
	room := domain.NewRoom(newRoomID(), createdBy)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rooms[room.ID] = &roomState{room: room, members: make(map[domain.UserID]struct{})}
	log.Info().Str("module", "app.rooms").Str("room", string(room.ID)).Str("created_by", string(createdBy)).Msg("room created")
	return room
}

// Join adds uid to the room, creating the room on demand with uid as
// creator. It returns the participants present before this join, which is
// what the joiner reconciles peer connections against. Idempotent for a
// uid that is already a member.
func (f *RoomRegistry) Join(roomID domain.RoomID, uid domain.UserID) []domain.UserID {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.rooms[roomID]
	if !ok {
		s = &roomState{room: domain.NewRoom(roomID, uid), members: make(map[domain.UserID]struct{})}
		f.rooms[roomID] = s
		log.Info().Str("module", "app.rooms").Str("room", string(roomID)).Str("created_by", string(uid)).Msg("room created on join")
	}
	others := s.snapshot(uid)
	if _, member := s.members[uid]; !member {
		s.members[uid] = struct{}{}
		s.order = append(s.order, uid)
	}
	log.Info().Str("module", "app.rooms").Str("room", string(roomID)).Str("user", string(uid)).Int("members", len(s.members)).Msg("member joined")
	return others
}

// Leave removes uid from the room and returns the remaining participants.
// A room emptied by this call is deleted in the same critical section, so
// an empty room is never observable. The second return value reports
// whether the room existed.
func (f *RoomRegistry) Leave(roomID domain.RoomID, uid domain.UserID) ([]domain.UserID, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.rooms[roomID]
	if !ok {
		return nil, false
	}
	if _, member := s.members[uid]; member {
		delete(s.members, uid)
		for i, id := range s.order {
			if id == uid {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
	if len(s.members) == 0 {
		delete(f.rooms, roomID)
		log.Info().Str("module", "app.rooms").Str("room", string(roomID)).Msg("room deleted (empty)")
		return nil, true
	}
	log.Info().Str("module", "app.rooms").Str("room", string(roomID)).Str("user", string(uid)).Int("members", len(s.members)).Msg("member left")
	return s.snapshot(""), true
}

// Members returns the current participant list.
func (f *RoomRegistry) Members(roomID domain.RoomID) ([]domain.UserID, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	s, ok := f.rooms[roomID]
	if !ok {
		return nil, false
	}
	return s.snapshot(""), true
}

// IsMember reports whether uid currently belongs to the room.
func (f *RoomRegistry) IsMember(roomID domain.RoomID, uid domain.UserID) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	s, ok := f.rooms[roomID]
	if !ok {
		return false
	}
	_, member := s.members[uid]
	return member
}

// Get returns room metadata for the request/response surface.
func (f *RoomRegistry) Get(roomID domain.RoomID) (RoomInfo, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	s, ok := f.rooms[roomID]
	if !ok {
		return RoomInfo{}, false
	}
	return RoomInfo{Room: *s.room, Participants: s.snapshot(""), Active: true}, true
}

// List returns a snapshot of every active room.
func (f *RoomRegistry) List() []RoomInfo {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]RoomInfo, 0, len(f.rooms))
	for _, s := range f.rooms {
		out = append(out, RoomInfo{Room: *s.room, Participants: s.snapshot(""), Active: true})
	}
	return out
}

const roomIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// newRoomID returns a short opaque token. 20 characters over a 36-symbol
// alphabet leaves collisions negligible at this scale.
func newRoomID() domain.RoomID {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		log.Panic().Err(err).Str("module", "app.rooms").Msg("crypto/rand failed")
	}
	for i, b := range buf {
		buf[i] = roomIDAlphabet[int(b)%len(roomIDAlphabet)]
	}
	return domain.RoomID(buf)
}
