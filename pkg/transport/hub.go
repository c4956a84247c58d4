package transport

import (
	"context"
	"sync"
	"time"

	"github.com/bft-labs/bifrost/internal/ports"
)

const hubQueue = 64

// HubOption configures a [Hub].
type HubOption func(*Hub)

// WithDropEvery makes the hub drop every n-th packet it is handed.
func WithDropEvery(n int) HubOption {
	return func(h *Hub) {
		h.dropEvery = n
	}
}

// WithClock sets the time source stamped on delivered datagrams.
func WithClock(now func() time.Time) HubOption {
	return func(h *Hub) {
		h.now = now
	}
}

// WithLoopback delivers packets back to their sender as well.
func WithLoopback() HubOption {
	return func(h *Hub) {
		h.loopback = true
	}
}

// Hub connects HubTransports into one broadcast domain.
type Hub struct {
	mu        sync.Mutex
	endpoints []*HubTransport
	counter   int

	dropEvery int
	loopback  bool
	now       func() time.Time
}

// NewHub creates an empty broadcast domain.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{now: time.Now}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Join connects a new endpoint identified by name.
func (h *Hub) Join(name string, mtu int) *HubTransport {
	t := &HubTransport{
		name:   name,
		mtu:    mtu,
		hub:    h,
		inbox:  make(chan Datagram[string], hubQueue),
		closed: make(chan struct{}),
	}

	h.mu.Lock()
	h.endpoints = append(h.endpoints, t)
	h.mu.Unlock()
	return t
}

// Sent returns the number of packets handed to the hub, dropped ones
// included.
func (h *Hub) Sent() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.counter
}

func (h *Hub) broadcast(from *HubTransport, payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.counter++
	if h.dropEvery > 0 && h.counter%h.dropEvery == 0 {
		return
	}

	d := Datagram[string]{Sender: from.name, Arrival: h.now()}
	for _, t := range h.endpoints {
		if t == from && !h.loopback {
			continue
		}
		d.Payload = append([]byte(nil), payload...)
		t.deliver(d)
	}
}

func (h *Hub) leave(t *HubTransport) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i, e := range h.endpoints {
		if e == t {
			h.endpoints = append(h.endpoints[:i], h.endpoints[i+1:]...)
			return
		}
	}
}

// HubTransport is one endpoint of a [Hub]. Senders are identified by the
// name given to [Hub.Join].
type HubTransport struct {
	name string
	mtu  int
	hub  *Hub

	inbox     chan Datagram[string]
	closed    chan struct{}
	closeOnce sync.Once
}

var _ ports.Transport[string] = (*HubTransport)(nil)

// deliver queues d without blocking. A full inbox drops it, like a socket
// buffer would.
func (t *HubTransport) deliver(d Datagram[string]) {
	select {
	case <-t.closed:
	case t.inbox <- d:
	default:
	}
}

func (t *HubTransport) Name() string {
	return t.name
}

func (t *HubTransport) MTU() int {
	return t.mtu
}

func (t *HubTransport) Send(ctx context.Context, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-t.closed:
		return ErrClosed
	default:
	}
	if len(payload) > t.mtu {
		return tooLarge(len(payload), t.mtu)
	}

	t.hub.broadcast(t, payload)
	return nil
}

func (t *HubTransport) Receive(ctx context.Context) (Datagram[string], error) {
	select {
	case d := <-t.inbox:
		return d, nil
	case <-t.closed:
		return Datagram[string]{}, ErrClosed
	case <-ctx.Done():
		return Datagram[string]{}, ctx.Err()
	}
}

func (t *HubTransport) Close() error {
	t.closeOnce.Do(func() {
		t.hub.leave(t)
		close(t.closed)
	})
	return nil
}
