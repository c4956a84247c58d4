package broadcast

import (
	"bytes"
	"errors"
	"io"

	"github.com/bft-labs/bifrost/pkg/codec"
)

// dummy encodes to n bytes, all of value n.
type dummy uint8

func (d dummy) Encode(w io.Writer) error {
	_, err := w.Write(bytes.Repeat([]byte{byte(d)}, int(d)))
	return err
}

func (d dummy) EncodeLen() int {
	return int(d)
}

func (dummy) Decode(r io.Reader) (dummy, error) {
	n, err := codec.ReadU8(r)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, errors.New("dummy: zero length")
	}

	rest := make([]byte, n-1)
	if _, err := io.ReadFull(r, rest); err != nil {
		return 0, err
	}
	for _, b := range rest {
		if b != n {
			return 0, errors.New("dummy: inconsistent body")
		}
	}
	return dummy(n), nil
}

func (dummy) Limits() Limits {
	return Limits{MaxPacketSize: 8, ExpectedSize: 8, DeadSpace: 2}
}

func (d dummy) TryMerge(old dummy) (dummy, bool) {
	return d, false
}

var errProbe = errors.New("probe: refused")

// probe is a message whose codec can be told to misbehave.
type probe struct {
	NoMerge[probe]

	value uint8
	fail  bool
	lie   bool
}

func (p probe) Encode(w io.Writer) error {
	if p.fail {
		return errProbe
	}
	return codec.WriteU8(w, p.value)
}

func (p probe) EncodeLen() int {
	if p.lie {
		return 2
	}
	return 1
}

func (probe) Decode(r io.Reader) (probe, error) {
	v, err := codec.ReadU8(r)
	return probe{value: v}, err
}

func (probe) Limits() Limits {
	return Limits{MaxPacketSize: 4, ExpectedSize: 1, DeadSpace: 0}
}

// status is keyed by player; a newer status for the same player supersedes
// an older one and keeps the highest sequence number seen.
type status struct {
	player uint8
	seq    uint8
}

func (s status) Encode(w io.Writer) error {
	if err := codec.WriteU8(w, s.player); err != nil {
		return err
	}
	return codec.WriteU8(w, s.seq)
}

func (status) EncodeLen() int {
	return 2
}

func (status) Decode(r io.Reader) (status, error) {
	player, err := codec.ReadU8(r)
	if err != nil {
		return status{}, err
	}
	seq, err := codec.ReadU8(r)
	return status{player: player, seq: seq}, err
}

func (status) Limits() Limits {
	return Limits{MaxPacketSize: 6, ExpectedSize: 2, DeadSpace: 1}
}

func (s status) TryMerge(old status) (status, bool) {
	if s.player != old.player {
		return status{}, false
	}
	if old.seq > s.seq {
		s.seq = old.seq
	}
	return s, true
}

// broken declares limits no message can satisfy.
type broken struct {
	dummy
}

func (broken) Limits() Limits {
	return Limits{MaxPacketSize: 4, DeadSpace: 4}
}

func (broken) Decode(r io.Reader) (broken, error) {
	return broken{}, nil
}

func (b broken) TryMerge(old broken) (broken, bool) {
	return b, false
}

func deadlines[M Message[M]](o *Outbound[M]) []int64 {
	out := make([]int64, 0, len(o.fragments))
	for _, f := range o.fragments {
		out = append(out, f.deadline.UnixNano())
	}
	return out
}
