package broadcast

import (
	"bytes"
	"time"
)

// Entry is a received message tagged with its arrival time and sender.
type Entry[A comparable, T any] struct {
	Arrival time.Time
	Sender  A
	Message T
}

// Inbound holds messages unpacked from received packets in arrival order.
//
// A is the sender identity supplied by the transport, typically a network
// address.
type Inbound[A comparable, M Message[M]] struct {
	entries []Entry[A, M]
}

// NewInbound creates an empty buffer.
func NewInbound[A comparable, M Message[M]]() *Inbound[A, M] {
	return &Inbound[A, M]{}
}

// Len returns the number of buffered messages.
func (in *Inbound[A, M]) Len() int {
	return len(in.entries)
}

// Clear drops every buffered message.
func (in *Inbound[A, M]) Clear() {
	clear(in.entries)
	in.entries = in.entries[:0]
}

// Pop removes and returns the oldest message.
func (in *Inbound[A, M]) Pop() (Entry[A, M], bool) {
	if len(in.entries) == 0 {
		return Entry[A, M]{}, false
	}

	e := in.entries[0]
	in.entries[0] = Entry[A, M]{}
	in.entries = in.entries[1:]
	return e, true
}

// Take removes and returns the oldest message matching predicate.
func (in *Inbound[A, M]) Take(predicate func(Entry[A, M]) bool) (Entry[A, M], bool) {
	for i, e := range in.entries {
		if predicate(e) {
			in.remove(i)
			return e, true
		}
	}
	return Entry[A, M]{}, false
}

// TakeMap scans in arrival order for the first message f maps to a value,
// removes it and returns the mapped value with the arrival time and sender.
//
// It serves request/response correlation (answering a ping) as well as
// deduplication against teammates (an event someone else already reported).
func TakeMap[A comparable, M Message[M], R any](in *Inbound[A, M], f func(arrival time.Time, sender A, message M) (R, bool)) (Entry[A, R], bool) {
	for i, e := range in.entries {
		if r, ok := f(e.Arrival, e.Sender, e.Message); ok {
			in.remove(i)
			return Entry[A, R]{Arrival: e.Arrival, Sender: e.Sender, Message: r}, true
		}
	}
	return Entry[A, R]{}, false
}

func (in *Inbound[A, M]) remove(i int) {
	copy(in.entries[i:], in.entries[i+1:])
	in.entries[len(in.entries)-1] = Entry[A, M]{}
	in.entries = in.entries[:len(in.entries)-1]
}

// Unpack splits a packet received now from sender. See [Inbound.UnpackAt].
func (in *Inbound[A, M]) Unpack(packet []byte, sender A) error {
	return in.UnpackAt(packet, sender, time.Now())
}

// UnpackAt decodes every message in packet and appends them with the given
// arrival time and sender. The read cursor advances by each message's
// EncodeLen.
//
// If any message fails to decode, the whole packet is discarded and the
// decoder's error is returned.
func (in *Inbound[A, M]) UnpackAt(packet []byte, sender A, arrival time.Time) error {
	_, err := in.unpack(packet, sender, arrival)
	return err
}

// UnpackCount is [Inbound.UnpackAt] reporting how many messages were added.
func (in *Inbound[A, M]) UnpackCount(packet []byte, sender A, arrival time.Time) (int, error) {
	return in.unpack(packet, sender, arrival)
}

func (in *Inbound[A, M]) unpack(packet []byte, sender A, arrival time.Time) (int, error) {
	var (
		decoder  M
		messages []M
		offset   int
	)

	for offset < len(packet) {
		rest := packet[offset:]
		m, err := decoder.Decode(bytes.NewReader(rest))
		if err != nil {
			return 0, err
		}

		n := m.EncodeLen()
		if n <= 0 || n > len(rest) {
			return 0, &FramingError{Offset: offset, Length: n, Remaining: len(rest)}
		}

		messages = append(messages, m)
		offset += n
	}

	for _, m := range messages {
		in.entries = append(in.entries, Entry[A, M]{Arrival: arrival, Sender: sender, Message: m})
	}
	return len(messages), nil
}
