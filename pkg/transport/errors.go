package transport

import (
	"errors"
	"fmt"

	"github.com/bft-labs/bifrost/internal/ports"
)

// ErrClosed is returned once a transport has been closed.
var ErrClosed = ports.ErrClosed

// ErrTooLarge is matched by errors for payloads above the MTU.
var ErrTooLarge = errors.New("transport: payload exceeds MTU")

func tooLarge(size, mtu int) error {
	return fmt.Errorf("%w: %d > %d bytes", ErrTooLarge, size, mtu)
}

// Datagram is a received packet. See [ports.Datagram].
type Datagram[A comparable] = ports.Datagram[A]
