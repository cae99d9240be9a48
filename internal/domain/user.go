// Package domain contains entities without logic, just meta-data.
package domain

import "errors"

const (
	MaxUserIDLen      = 64
	MaxDisplayNameLen = 64
)

var (
	ErrUserIDEmpty        = errors.New("user id empty")
	ErrUserIDTooLong      = errors.New("user id too long")
	ErrDisplayNameEmpty   = errors.New("display name empty")
	ErrDisplayNameTooLong = errors.New("display name too long")
)

type UserID string

// User is one registered participant. The binding to its transport
// connection lives in the registry, not here.
type User struct {
	ID           UserID `json:"id"`
	DisplayName  string `json:"name"`
	CurrentRoom  RoomID `json:"-"`
	VideoEnabled bool   `json:"videoEnabled"`
	AudioEnabled bool   `json:"audioEnabled"`
}

// NewUser is a tiny helper to avoid ad-hoc struct literals in adapters.
// Media flags start enabled, matching what clients assume on join.
func NewUser(id UserID, displayName string) (*User, error) {
	if len(id) == 0 {
		return nil, ErrUserIDEmpty
	}
	if len(id) > MaxUserIDLen {
		return nil, ErrUserIDTooLong
	}
	if len(displayName) == 0 {
		return nil, ErrDisplayNameEmpty
	}
	if len(displayName) > MaxDisplayNameLen {
		return nil, ErrDisplayNameTooLong
	}
	return &User{
		ID:           id,
		DisplayName:  displayName,
		VideoEnabled: true,
		AudioEnabled: true,
	}, nil
}
