package teammsg

import (
	"fmt"
	"io"

	"github.com/bft-labs/bifrost/pkg/broadcast"
	"github.com/bft-labs/bifrost/pkg/codec"
)

// Kind tags the variant of a Message. It is the first byte on the wire.
type Kind uint8

const (
	KindPing Kind = iota
	KindPong
	KindDetectedWhistle
	KindRecognizedRefereePose
)

func (k Kind) String() string {
	switch k {
	case KindPing:
		return "Ping"
	case KindPong:
		return "Pong"
	case KindDetectedWhistle:
		return "DetectedWhistle"
	case KindRecognizedRefereePose:
		return "RecognizedRefereePose"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Message is a team message. Pose is only meaningful, and only encoded,
// for KindRecognizedRefereePose.
type Message struct {
	Kind Kind
	Pose RefereePose
}

var _ broadcast.Message[Message] = Message{}

func Ping() Message {
	return Message{Kind: KindPing}
}

func Pong() Message {
	return Message{Kind: KindPong}
}

func DetectedWhistle() Message {
	return Message{Kind: KindDetectedWhistle}
}

func RecognizedRefereePose(p RefereePose) Message {
	return Message{Kind: KindRecognizedRefereePose, Pose: p}
}

func (m Message) String() string {
	if m.Kind == KindRecognizedRefereePose {
		return fmt.Sprintf("%s(%s)", m.Kind, m.Pose)
	}
	return m.Kind.String()
}

func (m Message) Encode(w io.Writer) error {
	if err := codec.WriteU8(w, uint8(m.Kind)); err != nil {
		return err
	}
	if m.Kind == KindRecognizedRefereePose {
		return codec.WriteU8(w, uint8(m.Pose))
	}
	return nil
}

func (m Message) EncodeLen() int {
	if m.Kind == KindRecognizedRefereePose {
		return 2
	}
	return 1
}

func (Message) Decode(r io.Reader) (Message, error) {
	tag, err := codec.ReadU8(r)
	if err != nil {
		return Message{}, err
	}

	switch k := Kind(tag); k {
	case KindPing, KindPong, KindDetectedWhistle:
		return Message{Kind: k}, nil
	case KindRecognizedRefereePose:
		p, err := codec.ReadU8(r)
		if err != nil {
			return Message{}, err
		}
		if pose := RefereePose(p); pose.Valid() {
			return RecognizedRefereePose(pose), nil
		}
		return Message{}, fmt.Errorf("%w: referee pose %d", codec.ErrInvalidVariant, p)
	default:
		return Message{}, fmt.Errorf("%w: team message kind %d", codec.ErrInvalidVariant, tag)
	}
}

// Limits fit the SPL team communication budget: a packet never exceeds 128
// bytes and is worth sending early once half of it is used.
func (Message) Limits() broadcast.Limits {
	return broadcast.Limits{
		MaxPacketSize: 128,
		ExpectedSize:  1,
		DeadSpace:     64,
	}
}

// TryMerge replaces a queued message of the same kind.
func (m Message) TryMerge(old Message) (Message, bool) {
	return m, m.Kind == old.Kind
}
