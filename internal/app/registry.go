package app

import (
	"fmt"
	"sync"

	"github.com/kmelnick/huddle/internal/core"
	"github.com/kmelnick/huddle/internal/domain"
	"github.com/rs/zerolog/log"
)

type sessionEntry struct {
	Conn core.SignalConnection
	User *domain.User // nil until join-server succeeds
}

// Registry is the identity registry: it owns the mapping from live
// connections to users. All mutation goes through its methods; the maps
// are never exposed.
type Registry struct {
	mu       sync.RWMutex
	sessions map[core.ConnID]*sessionEntry
	byUser   map[domain.UserID]core.ConnID
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[core.ConnID]*sessionEntry),
		byUser:   make(map[domain.UserID]core.ConnID),
	}
}

// Bind attaches a fresh transport connection with no identity yet.
func (r *Registry) Bind(cid core.ConnID, conn core.SignalConnection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[cid] = &sessionEntry{Conn: conn}
	log.Info().Str("module", "app.registry").Str("cid", string(cid)).Msg("bound connection")
}

// Register gives the connection an identity. A user id still bound to a
// different live connection is rejected with ErrDuplicateIdentity;
// re-registering on the same connection overwrites the prior binding.
func (r *Registry) Register(cid core.ConnID, userID domain.UserID, displayName string) (*domain.User, error) {
	user, err := domain.NewUser(userID, displayName)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPayload, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[cid]
	if !ok {
		return nil, ErrIdentityRequired
	}
	if other, ok := r.byUser[userID]; ok && other != cid {
		return nil, ErrDuplicateIdentity
	}
	if entry.User != nil {
		delete(r.byUser, entry.User.ID)
	}
	entry.User = user
	r.byUser[userID] = cid
	log.Info().Str("module", "app.registry").Str("cid", string(cid)).Str("user", string(userID)).Msg("registered identity")
	return user, nil
}

// Lookup returns the user registered on cid, if any.
func (r *Registry) Lookup(cid core.ConnID) (*domain.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.sessions[cid]
	if !ok || entry.User == nil {
		return nil, false
	}
	return entry.User, true
}

// Conn returns the transport connection bound to cid.
func (r *Registry) Conn(cid core.ConnID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.sessions[cid]
	if !ok {
		return nil, false
	}
	return entry.Conn, true
}

// ConnOfUser resolves the live connection currently bound to a user id.
func (r *Registry) ConnOfUser(userID domain.UserID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cid, ok := r.byUser[userID]
	if !ok {
		return nil, false
	}
	entry, ok := r.sessions[cid]
	if !ok {
		return nil, false
	}
	return entry.Conn, true
}

// SetRoom records which room the connection's user currently occupies.
// Empty roomID clears the association.
func (r *Registry) SetRoom(cid core.ConnID, roomID domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.sessions[cid]; ok && entry.User != nil {
		entry.User.CurrentRoom = roomID
	}
}

// SetVideo flips the user's video flag and returns the user.
func (r *Registry) SetVideo(cid core.ConnID, enabled bool) (*domain.User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[cid]
	if !ok || entry.User == nil {
		return nil, false
	}
	entry.User.VideoEnabled = enabled
	return entry.User, true
}

// SetAudio flips the user's audio flag and returns the user.
func (r *Registry) SetAudio(cid core.ConnID, enabled bool) (*domain.User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[cid]
	if !ok || entry.User == nil {
		return nil, false
	}
	entry.User.AudioEnabled = enabled
	return entry.User, true
}

// Unregister drops the connection and its identity. Idempotent; a
// connection that never registered is a no-op beyond map removal.
func (r *Registry) Unregister(cid core.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[cid]
	if !ok {
		return
	}
	if entry.User != nil {
		delete(r.byUser, entry.User.ID)
	}
	delete(r.sessions, cid)
	log.Info().Str("module", "app.registry").Str("cid", string(cid)).Msg("unregistered connection")
}
