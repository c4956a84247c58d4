package teammsg

import (
	"time"

	"github.com/bft-labs/bifrost/pkg/broadcast"
	"github.com/bft-labs/bifrost/pkg/node"
)

// PongDelay is how long after a ping arrived its pong is due.
const PongDelay = time.Second

// AnswerPing takes the oldest received ping and queues a pong due one
// second after the ping arrived. It reports the pinging peer.
func AnswerPing[A comparable](n *node.Node[A, Message]) (A, bool, error) {
	e, ok := node.TakeMap(n, func(_ time.Time, _ A, m Message) (Message, bool) {
		return Pong(), m.Kind == KindPing
	})
	if !ok {
		var zero A
		return zero, false, nil
	}

	return e.Sender, true, n.PushBy(e.Message, broadcast.Before(e.Arrival.Add(PongDelay)))
}

// TakePong takes the oldest received pong.
func TakePong[A comparable](n *node.Node[A, Message]) (broadcast.Entry[A, Message], bool) {
	return n.Take(func(e broadcast.Entry[A, Message]) bool {
		return e.Message.Kind == KindPong
	})
}

// WhistleReported takes a teammate's whistle report that arrived at or
// after since. A robot that hears the whistle itself checks this first so
// the team reports each whistle once.
func WhistleReported[A comparable](n *node.Node[A, Message], since time.Time) (A, bool) {
	e, ok := node.TakeMap(n, func(arrival time.Time, sender A, m Message) (A, bool) {
		return sender, m.Kind == KindDetectedWhistle && !arrival.Before(since)
	})
	return e.Message, ok
}

// ReportWhistle queues a whistle detection unless a teammate already
// reported one since. It reports whether a message was queued.
func ReportWhistle[A comparable](n *node.Node[A, Message], since time.Time) (bool, error) {
	if _, ok := WhistleReported(n, since); ok {
		return false, nil
	}
	return true, n.MergeOrPushBy(DetectedWhistle(), broadcast.ASAP)
}
