package ports

import (
	"context"
	"errors"
	"time"
)

// ErrClosed is returned by Send and Receive once a transport has been closed.
var ErrClosed = errors.New("transport: closed")

// Datagram is one packet received from the broadcast medium.
type Datagram[A comparable] struct {
	Payload []byte
	Sender  A
	Arrival time.Time
}

// Transport is a best-effort broadcast medium. Every Send reaches zero or
// more peers as a single datagram; nothing is retried or acknowledged.
//
// A identifies the sender of a received datagram.
type Transport[A comparable] interface {
	// MTU is the largest payload Send accepts.
	MTU() int

	// Send broadcasts payload to every peer.
	Send(ctx context.Context, payload []byte) error

	// Receive blocks until a datagram arrives, ctx is done or the transport
	// is closed.
	Receive(ctx context.Context) (Datagram[A], error)

	Close() error
}
