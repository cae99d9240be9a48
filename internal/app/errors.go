package app

import "errors"

// Sentinel errors for the signaling surface. Adapters match these with
// errors.Is to decide what to report back to the offending connection;
// none of them ever terminates the connection.
var (
	ErrInvalidPayload    = errors.New("invalid payload")
	ErrIdentityRequired  = errors.New("identity required, join the server first")
	ErrDuplicateIdentity = errors.New("user id is already connected")
	ErrRoomNotFound      = errors.New("room not found or inactive")
	ErrNotInRoom         = errors.New("sender is not a member of the room")
)
