package domain

import "time"

// Stats are running totals kept by a node.
type Stats struct {
	PacketsSent     uint64
	BytesSent       uint64
	PacketsReceived uint64
	BytesReceived   uint64

	// MessagesReceived counts messages successfully unpacked.
	MessagesReceived uint64

	SendErrors    uint64
	ReceiveErrors uint64

	// DecodeErrors counts whole packets discarded because a message failed
	// to decode.
	DecodeErrors uint64

	LastSent     time.Time
	LastReceived time.Time
}

// RecordSend accounts for one transmitted packet.
func (s *Stats) RecordSend(bytes int, at time.Time) {
	s.PacketsSent++
	s.BytesSent += uint64(bytes)
	s.LastSent = at
}

// RecordReceive accounts for one received packet that unpacked into n
// messages.
func (s *Stats) RecordReceive(bytes, n int, at time.Time) {
	s.PacketsReceived++
	s.BytesReceived += uint64(bytes)
	s.MessagesReceived += uint64(n)
	s.LastReceived = at
}
