package broadcast

import (
	"fmt"

	"github.com/bft-labs/bifrost/pkg/codec"
)

// Limits are the per-type size constants of a [Message].
type Limits struct {
	// MaxPacketSize is the maximum number of bytes a single packet may
	// contain. No single encoded message may exceed it, but smaller messages
	// are combined into one packet.
	MaxPacketSize int

	// ExpectedSize is the number of bytes expected for one message. It is
	// only used to size encoding buffers.
	ExpectedSize int

	// DeadSpace is the number of unused bytes in a packet below which the
	// packet is considered full enough to send early.
	DeadSpace int
}

// Validate reports limits that no message type can satisfy.
func (l Limits) Validate() error {
	if l.MaxPacketSize <= 0 {
		return fmt.Errorf("broadcast: max packet size must be positive, got %d", l.MaxPacketSize)
	}
	if l.ExpectedSize < 0 {
		return fmt.Errorf("broadcast: expected size must not be negative, got %d", l.ExpectedSize)
	}
	if l.DeadSpace < 0 || l.DeadSpace >= l.MaxPacketSize {
		return fmt.Errorf("broadcast: dead space %d out of range [0, %d)", l.DeadSpace, l.MaxPacketSize)
	}
	return nil
}

// Message is the capability every broadcast type must provide. M is the
// implementing type itself:
//
//	type Status struct { ... }
//	func (Status) Limits() broadcast.Limits { ... }
//	func (s Status) TryMerge(old Status) (Status, bool) { ... }
//
// Limits and Decode are called on the zero value of M, so they must not
// depend on receiver state. Value types are the natural fit.
type Message[M any] interface {
	codec.Encoder
	codec.Decoder[M]

	// Limits returns the size constants for the type.
	Limits() Limits

	// TryMerge is called on a new message with an older, still queued one.
	// If the new message supersedes old, it returns the merged message and
	// true, and old is dropped in its favour.
	TryMerge(old M) (M, bool)
}

// NoMerge can be embedded in a message type whose instances never merge.
type NoMerge[M any] struct{}

// TryMerge always reports false.
func (NoMerge[M]) TryMerge(old M) (M, bool) {
	var zero M
	return zero, false
}

// limitsOf returns the limits declared by M. Inconsistent limits are a
// programming error in the message type and panic.
func limitsOf[M Message[M]]() Limits {
	var zero M
	l := zero.Limits()
	if err := l.Validate(); err != nil {
		panic(fmt.Sprintf("%T: %v", zero, err))
	}
	return l
}
