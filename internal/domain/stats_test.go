package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStats_Record(t *testing.T) {
	var s Stats
	now := time.Date(2024, time.July, 15, 12, 0, 0, 0, time.UTC)

	s.RecordSend(10, now)
	s.RecordSend(5, now.Add(time.Second))
	s.RecordReceive(7, 3, now.Add(2*time.Second))

	require.Equal(t, uint64(2), s.PacketsSent)
	require.Equal(t, uint64(15), s.BytesSent)
	require.Equal(t, now.Add(time.Second), s.LastSent)
	require.Equal(t, uint64(1), s.PacketsReceived)
	require.Equal(t, uint64(7), s.BytesReceived)
	require.Equal(t, uint64(3), s.MessagesReceived)
	require.Equal(t, now.Add(2*time.Second), s.LastReceived)
}
