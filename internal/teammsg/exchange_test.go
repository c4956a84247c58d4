package teammsg

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bft-labs/bifrost/pkg/broadcast"
	"github.com/bft-labs/bifrost/pkg/node"
	"github.com/bft-labs/bifrost/pkg/transport"
)

func newTeam(t *testing.T, names ...string) []*node.Node[string, Message] {
	t.Helper()

	hub := transport.NewHub()
	cfg := node.DefaultConfig()
	cfg.CycleInterval = 5 * time.Millisecond

	nodes := make([]*node.Node[string, Message], 0, len(names))
	for _, name := range names {
		n, err := node.New[string, Message](cfg, hub.Join(name, 128))
		require.NoError(t, err)
		require.NoError(t, n.Start(context.Background()))
		t.Cleanup(func() { _ = n.Stop() })
		nodes = append(nodes, n)
	}
	return nodes
}

func TestAnswerPing(t *testing.T) {
	team := newTeam(t, "p1", "p2")
	p1, p2 := team[0], team[1]

	_, ok, err := AnswerPing(p2)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, p1.PushBy(Ping(), broadcast.ASAP))
	require.Eventually(t, func() bool { return p2.Received() == 1 }, 2*time.Second, 5*time.Millisecond)

	from, ok, err := AnswerPing(p2)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "p1", from)
	require.Equal(t, 1, p2.Pending())

	require.Eventually(t, func() bool {
		_, ok := TakePong(p1)
		return ok
	}, 3*time.Second, 10*time.Millisecond)
}

func TestReportWhistle(t *testing.T) {
	team := newTeam(t, "p1", "p2")
	p1, p2 := team[0], team[1]
	start := time.Now()

	queued, err := ReportWhistle(p1, start)
	require.NoError(t, err)
	require.True(t, queued)

	require.Eventually(t, func() bool { return p2.Received() == 1 }, 2*time.Second, 5*time.Millisecond)

	queued, err = ReportWhistle(p2, start)
	require.NoError(t, err)
	require.False(t, queued)
	require.Zero(t, p2.Received())
	require.Zero(t, p2.Pending())
}

func TestWhistleReported_IgnoresOldReports(t *testing.T) {
	team := newTeam(t, "p1", "p2")
	p1, p2 := team[0], team[1]

	require.NoError(t, p1.PushBy(DetectedWhistle(), broadcast.ASAP))
	require.Eventually(t, func() bool { return p2.Received() == 1 }, 2*time.Second, 5*time.Millisecond)

	_, ok := WhistleReported(p2, time.Now().Add(time.Minute))
	require.False(t, ok)

	from, ok := WhistleReported(p2, time.Time{})
	require.True(t, ok)
	require.Equal(t, "p1", from)
}
