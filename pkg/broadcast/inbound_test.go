package broadcast

import (
	"io"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInbound_UnpackAndPop(t *testing.T) {
	t.Parallel()

	in := NewInbound[struct{}, dummy]()
	require.NoError(t, in.UnpackAt([]byte{3, 3, 3, 2, 2, 4, 4, 4, 4}, struct{}{}, epoch))

	for _, want := range []dummy{3, 2, 4} {
		e, ok := in.Pop()
		require.True(t, ok)
		require.Equal(t, Entry[struct{}, dummy]{Arrival: epoch, Sender: struct{}{}, Message: want}, e)
	}

	_, ok := in.Pop()
	require.False(t, ok)
}

func TestInbound_FIFOAcrossPackets(t *testing.T) {
	t.Parallel()

	in := NewInbound[string, dummy]()
	require.NoError(t, in.UnpackAt([]byte{1, 2, 2}, "alice", at(0)))
	require.NoError(t, in.UnpackAt([]byte{3, 3, 3}, "bob", at(1)))
	require.Equal(t, 3, in.Len())

	var got []Entry[string, dummy]
	for {
		e, ok := in.Pop()
		if !ok {
			break
		}
		got = append(got, e)
	}

	require.Equal(t, []Entry[string, dummy]{
		{Arrival: at(0), Sender: "alice", Message: 1},
		{Arrival: at(0), Sender: "alice", Message: 2},
		{Arrival: at(1), Sender: "bob", Message: 3},
	}, got)
}

func TestInbound_DecodeFailureDiscardsPacket(t *testing.T) {
	t.Parallel()

	in := NewInbound[string, dummy]()
	require.NoError(t, in.UnpackAt([]byte{1}, "alice", at(0)))

	// The third message is truncated.
	err := in.UnpackAt([]byte{2, 2, 1, 3, 3}, "bob", at(1))
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	require.Equal(t, 1, in.Len())

	err = in.UnpackAt([]byte{0}, "bob", at(1))
	require.Error(t, err)
	require.Equal(t, 1, in.Len())
}

func TestInbound_EmptyPacket(t *testing.T) {
	t.Parallel()

	in := NewInbound[string, dummy]()
	n, err := in.UnpackCount(nil, "alice", at(0))
	require.NoError(t, err)
	require.Zero(t, n)
	require.Zero(t, in.Len())
}

func TestInbound_FramingGuard(t *testing.T) {
	t.Parallel()

	// lying claims two bytes but its decoder reads one.
	in := NewInbound[string, lying]()
	err := in.UnpackAt([]byte{7}, "alice", at(0))
	require.ErrorIs(t, err, ErrFraming)

	var framing *FramingError
	require.ErrorAs(t, err, &framing)
	require.Equal(t, 0, framing.Offset)
	require.Equal(t, 2, framing.Length)
	require.Equal(t, 1, framing.Remaining)
	require.Zero(t, in.Len())
}

func TestInbound_Take(t *testing.T) {
	t.Parallel()

	in := NewInbound[string, dummy]()
	require.NoError(t, in.UnpackAt([]byte{1, 2, 2, 1}, "alice", at(0)))

	e, ok := in.Take(func(e Entry[string, dummy]) bool { return e.Message == 2 })
	require.True(t, ok)
	require.Equal(t, dummy(2), e.Message)
	require.Equal(t, 2, in.Len())

	_, ok = in.Take(func(e Entry[string, dummy]) bool { return e.Message == 2 })
	require.False(t, ok)
}

func TestTakeMap(t *testing.T) {
	t.Parallel()

	in := NewInbound[string, dummy]()
	require.NoError(t, in.UnpackAt([]byte{1}, "alice", at(0)))
	require.NoError(t, in.UnpackAt([]byte{2, 2}, "bob", at(1)))
	require.NoError(t, in.UnpackAt([]byte{2, 2}, "carol", at(2)))

	double := func(_ time.Time, _ string, m dummy) (int, bool) {
		if m != 2 {
			return 0, false
		}
		return int(m) * 2, true
	}

	e, ok := TakeMap(in, double)
	require.True(t, ok)
	require.Equal(t, Entry[string, int]{Arrival: at(1), Sender: "bob", Message: 4}, e)

	e, ok = TakeMap(in, double)
	require.True(t, ok)
	require.Equal(t, "carol", e.Sender)

	_, ok = TakeMap(in, double)
	require.False(t, ok)

	first, ok := in.Pop()
	require.True(t, ok)
	require.Equal(t, "alice", first.Sender)
}

func TestInbound_Clear(t *testing.T) {
	t.Parallel()

	in := NewInbound[string, dummy]()
	require.NoError(t, in.UnpackAt([]byte{1, 1}, "alice", at(0)))
	in.Clear()
	require.Zero(t, in.Len())
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 100; i++ {
		var (
			sent  []dummy
			total int
		)
		for {
			n := dummy(1 + rng.Intn(8))
			if total+int(n) > 8 {
				break
			}
			sent = append(sent, n)
			total += int(n)
		}

		out := NewOutbound[dummy](Rate{})
		for _, m := range sent {
			require.NoError(t, out.PushAt(m, Before(at(0)), at(0)))
		}

		var received []dummy
		in := NewInbound[int, dummy]()
		for out.Len() > 0 {
			packet, ok := out.PackAt(at(1))
			require.True(t, ok)
			require.NoError(t, in.UnpackAt(packet, i, at(1)))
		}
		for {
			e, ok := in.Pop()
			if !ok {
				break
			}
			received = append(received, e.Message)
		}

		require.Equal(t, sent, received)
	}
}

// lying reports a longer encoding than its decoder consumes.
type lying struct {
	NoMerge[lying]
}

func (lying) Encode(w io.Writer) error {
	_, err := w.Write([]byte{7, 7})
	return err
}

func (lying) EncodeLen() int {
	return 2
}

func (lying) Decode(r io.Reader) (lying, error) {
	var b [1]byte
	_, err := io.ReadFull(r, b[:])
	return lying{}, err
}

func (lying) Limits() Limits {
	return Limits{MaxPacketSize: 4, ExpectedSize: 2}
}
