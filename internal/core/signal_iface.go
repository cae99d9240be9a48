// Package core holds transport-free types shared between the application
// layer and the adapters.
package core

// Frame is a raw encoded payload ready for the wire.
type Frame []byte

// ConnID identifies one live transport session. It is server-assigned and
// never reused for the lifetime of the process.
type ConnID string

// SignalConnection abstracts a system messaging transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	// TrySend queues a frame without blocking. It fails when the peer's
	// outbound buffer is full or the connection is already closed.
	TrySend(Frame) error
	Close()
}
