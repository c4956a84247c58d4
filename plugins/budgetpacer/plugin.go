// Package budgetpacer keeps a node from sending team messages faster than the
// team's remaining message budget can sustain.
//
// While a game is being played, the late threshold and automatic deadline
// are recalibrated periodically so the remaining budget lasts until the end
// of the match. Outside of play the rate is left alone.
package budgetpacer

import (
	"context"
	"sync"
	"time"

	"github.com/bft-labs/bifrost/internal/teammsg"
	"github.com/bft-labs/bifrost/pkg/log"
	"github.com/bft-labs/bifrost/pkg/node"
)

// Source reports the current budget, typically from the game controller.
// It reports false when no budget is known.
type Source func(stats node.Stats) (teammsg.Budget, bool)

// Plugin implements budget pacing.
type Plugin struct {
	mu sync.Mutex

	// Configuration
	interval time.Duration
	source   Source

	// Runtime state
	logger log.Logger
	rate   node.RateController
	stats  func() node.Stats
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Config holds configuration options for the budget pacer plugin.
type Config struct {
	// Interval is how often the budget is checked.
	// Default: 1 second
	Interval time.Duration

	// Source supplies the budget. Without one the plugin is disabled.
	Source Source
}

// DefaultConfig returns a Config with sensible defaults and no source.
func DefaultConfig() Config {
	return Config{
		Interval: time.Second,
	}
}

// New creates a new budget pacer plugin with the given configuration.
func New(cfg Config) *Plugin {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}

	return &Plugin{
		interval: cfg.Interval,
		source:   cfg.Source,
	}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "budgetpacer"
}

// Initialize calibrates once and starts the periodic check.
func (p *Plugin) Initialize(ctx context.Context, cfg node.PluginConfig) error {
	p.mu.Lock()
	p.logger = cfg.Logger
	p.rate = cfg.Rate
	p.stats = cfg.Stats
	p.mu.Unlock()

	if p.logger == nil {
		p.logger = log.NewNoopLogger()
	}
	if p.source == nil || p.rate == nil {
		p.logger.Warn("Budget pacer disabled: no budget source")
		return nil
	}

	p.Calibrate()

	loopCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.logger.Info("Budget pacer plugin initialized", log.Duration("interval", p.interval))

	p.wg.Add(1)
	go p.loop(loopCtx)

	return nil
}

// Shutdown stops the periodic check.
func (p *Plugin) Shutdown(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	return nil
}

func (p *Plugin) loop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Calibrate()
		}
	}
}

// Calibrate applies the current budget to the node's rate. It reports
// whether the rate changed.
func (p *Plugin) Calibrate() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.source == nil || p.rate == nil {
		return false
	}

	var stats node.Stats
	if p.stats != nil {
		stats = p.stats()
	}

	budget, ok := p.source(stats)
	if !ok {
		return false
	}

	current := p.rate.Rate()
	updated, ok := teammsg.Calibrate(current, budget)
	if !ok || updated == current {
		return false
	}
	if err := p.rate.SetRate(updated); err != nil {
		p.logger.Warn("Budget pacer: rate rejected", log.Err(err))
		return false
	}

	p.logger.Debug("Budget pacer: rate calibrated",
		log.Int("message_budget", int(budget.MessageBudget)),
		log.Int("secs_remaining", int(budget.SecsRemaining)),
		log.Duration("interval", updated.LateThreshold),
	)
	return true
}

// Ensure Plugin implements node.Plugin.
var _ node.Plugin = (*Plugin)(nil)
