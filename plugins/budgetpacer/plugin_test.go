package budgetpacer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bft-labs/bifrost/internal/teammsg"
	"github.com/bft-labs/bifrost/pkg/broadcast"
	"github.com/bft-labs/bifrost/pkg/log"
	"github.com/bft-labs/bifrost/pkg/node"
	"github.com/bft-labs/bifrost/pkg/transport"
)

type fakeRate struct {
	mu   sync.Mutex
	rate broadcast.Rate
}

func (f *fakeRate) Rate() broadcast.Rate {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rate
}

func (f *fakeRate) SetRate(r broadcast.Rate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rate = r
	return nil
}

// secondHalf leaves 100 messages for 5 players over 100 seconds: one
// message every 5 seconds each.
var secondHalf = teammsg.Budget{
	Playing:        true,
	MessageBudget:  100 + teammsg.MinimalBudget,
	PlayersPerTeam: 5,
	SecsRemaining:  100,
}

func fixed(b teammsg.Budget, ok bool) Source {
	return func(node.Stats) (teammsg.Budget, bool) { return b, ok }
}

func initialized(t *testing.T, cfg Config) (*Plugin, *fakeRate) {
	t.Helper()

	rate := &fakeRate{rate: broadcast.DefaultRate()}
	p := New(cfg)
	require.NoError(t, p.Initialize(context.Background(), node.PluginConfig{
		Logger: log.NewNoopLogger(),
		Rate:   rate,
		Stats:  func() node.Stats { return node.Stats{PacketsSent: 3} },
	}))
	t.Cleanup(func() { require.NoError(t, p.Shutdown(context.Background())) })
	return p, rate
}

func TestPlugin_CalibratesOnInitialize(t *testing.T) {
	p, rate := initialized(t, Config{Interval: time.Hour, Source: fixed(secondHalf, true)})

	want := broadcast.DefaultRate()
	want.LateThreshold = 5 * time.Second
	want.AutomaticDeadline = 5 * time.Second
	require.Equal(t, want, rate.Rate())

	// Nothing changed since.
	require.False(t, p.Calibrate())
}

func TestPlugin_LeavesRateOutsideOfPlay(t *testing.T) {
	idle := secondHalf
	idle.Playing = false

	p, rate := initialized(t, Config{Source: fixed(idle, true)})
	require.False(t, p.Calibrate())
	require.Equal(t, broadcast.DefaultRate(), rate.Rate())

	p, rate = initialized(t, Config{Source: fixed(secondHalf, false)})
	require.False(t, p.Calibrate())
	require.Equal(t, broadcast.DefaultRate(), rate.Rate())
}

func TestPlugin_PassesStats(t *testing.T) {
	var seen []uint64
	var mu sync.Mutex
	source := func(s node.Stats) (teammsg.Budget, bool) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, s.PacketsSent)
		return teammsg.Budget{}, false
	}

	initialized(t, Config{Interval: time.Hour, Source: source})

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []uint64{3}, seen)
}

func TestPlugin_Periodic(t *testing.T) {
	var (
		mu     sync.Mutex
		budget = secondHalf
	)
	source := func(node.Stats) (teammsg.Budget, bool) {
		mu.Lock()
		defer mu.Unlock()
		return budget, true
	}

	_, rate := initialized(t, Config{Interval: 5 * time.Millisecond, Source: source})

	mu.Lock()
	budget.SecsRemaining = 40
	mu.Unlock()

	require.Eventually(t, func() bool {
		return rate.Rate().LateThreshold == 2*time.Second
	}, 5*time.Second, 5*time.Millisecond)
}

func TestPlugin_DisabledWithoutSource(t *testing.T) {
	p, rate := initialized(t, DefaultConfig())
	require.False(t, p.Calibrate())
	require.Equal(t, broadcast.DefaultRate(), rate.Rate())
}

func TestFixedBudget(t *testing.T) {
	start := time.Date(2024, 7, 15, 12, 0, 0, 0, time.UTC)
	now := start
	source := FixedBudget(start, 1200, 5, func() time.Time { return now })

	now = start.Add(100 * time.Second)
	b, ok := source(node.Stats{PacketsSent: 10})
	require.True(t, ok)
	require.Equal(t, teammsg.Budget{
		Playing:        true,
		FirstHalf:      true,
		MessageBudget:  1150,
		PlayersPerTeam: 5,
		SecsRemaining:  500,
	}, b)

	now = start.Add(700 * time.Second)
	b, ok = source(node.Stats{PacketsSent: 1000})
	require.True(t, ok)
	require.False(t, b.FirstHalf)
	require.Equal(t, int16(500), b.SecsRemaining)
	require.Zero(t, b.MessageBudget)

	now = start.Add(1200 * time.Second)
	_, ok = source(node.Stats{})
	require.False(t, ok)
}

func TestWithBudgetPacer_CalibratesNode(t *testing.T) {
	hub := transport.NewHub()
	n, err := node.New[string, teammsg.Message](node.DefaultConfig(), hub.Join("p1", transport.DefaultMTU),
		WithBudgetPacer(Config{Interval: time.Hour, Source: fixed(secondHalf, true)}),
	)
	require.NoError(t, err)

	require.NoError(t, n.Start(context.Background()))
	defer func() { require.NoError(t, n.Stop()) }()

	require.Equal(t, 5*time.Second, n.Rate().LateThreshold)
	require.Equal(t, 5*time.Second, n.Rate().AutomaticDeadline)
}
