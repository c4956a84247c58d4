// Package configwatcher reloads the outbound rate of a running node when its
// TOML configuration file changes.
package configwatcher

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/bifrost/internal/cliconfig"
	"github.com/bft-labs/bifrost/pkg/log"
	"github.com/bft-labs/bifrost/pkg/node"
)

// Plugin watches the config file's directory and applies changed rate
// thresholds through the node's RateController.
type Plugin struct {
	mu sync.Mutex

	// Configuration
	debounceDelay time.Duration
	pinned        map[string]bool
	onReload      func(node.RateChange)

	// Runtime state
	path     string
	logger   log.Logger
	rate     node.RateController
	watcher  *fsnotify.Watcher
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	debounce *time.Timer
}

// Config holds configuration options for the config watcher plugin.
type Config struct {
	// DebounceDelay is the delay to wait after a file change before reloading.
	// Editors often write a file in several steps.
	// Default: 100 milliseconds
	DebounceDelay time.Duration

	// Pinned names flags set on the command line. Their thresholds are
	// never overwritten by the file.
	Pinned map[string]bool

	// OnReload, if set, is called after every reload that changed the rate.
	OnReload func(node.RateChange)
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DebounceDelay: 100 * time.Millisecond,
	}
}

// New creates a new config watcher plugin with the given configuration.
func New(cfg Config) *Plugin {
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = 100 * time.Millisecond
	}

	return &Plugin{
		debounceDelay: cfg.DebounceDelay,
		pinned:        cfg.Pinned,
		onReload:      cfg.OnReload,
	}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "configwatcher"
}

// Initialize starts watching cfg.ConfigPath. A node without a config path
// or rate controller runs with the watcher disabled.
func (p *Plugin) Initialize(ctx context.Context, cfg node.PluginConfig) error {
	p.mu.Lock()
	p.path = cfg.ConfigPath
	p.logger = cfg.Logger
	p.rate = cfg.Rate
	p.mu.Unlock()

	if p.logger == nil {
		p.logger = log.NewNoopLogger()
	}
	if p.path == "" || p.rate == nil {
		p.logger.Warn("Config watcher disabled: no config path")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	// The directory is watched so that editors replacing the file by rename
	// are still seen.
	if err := watcher.Add(filepath.Dir(p.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(p.path), err)
	}
	p.watcher = watcher

	watchCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.logger.Info("Config watcher plugin initialized", log.String("path", p.path))

	p.wg.Add(1)
	go p.watchLoop(watchCtx)

	return nil
}

// Shutdown stops the config watcher.
func (p *Plugin) Shutdown(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()

	p.mu.Lock()
	if p.debounce != nil {
		p.debounce.Stop()
	}
	p.mu.Unlock()

	if p.watcher != nil {
		return p.watcher.Close()
	}
	return nil
}

func (p *Plugin) watchLoop(ctx context.Context) {
	defer p.wg.Done()

	name := filepath.Base(p.path)
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-p.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			p.debounceReload(ctx)

		case err, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
			p.logger.Error("Config watcher: watcher error", log.Err(err))
		}
	}
}

func (p *Plugin) debounceReload(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.debounce != nil {
		p.debounce.Stop()
	}

	p.debounce = time.AfterFunc(p.debounceDelay, func() {
		if ctx.Err() != nil {
			return
		}
		if err := p.Reload(); err != nil {
			p.logger.Warn("Config watcher: reload failed", log.String("path", p.path), log.Err(err))
		}
	})
}

// ErrNotInitialized is returned by Reload before a successful Initialize.
var ErrNotInitialized = errors.New("configwatcher: not initialized")

// Reload reads the config file and applies its thresholds. An unchanged rate
// is not reapplied.
func (p *Plugin) Reload() error {
	p.mu.Lock()
	path, rate := p.path, p.rate
	p.mu.Unlock()

	if path == "" || rate == nil {
		return ErrNotInitialized
	}

	fc, err := cliconfig.LoadFileConfig(path)
	if err != nil {
		return err
	}

	old := rate.Rate()
	updated, err := fc.ApplyRate(old, p.pinned)
	if err != nil {
		return err
	}
	if updated == old {
		p.logger.Debug("Config watcher: rate unchanged")
		return nil
	}
	if err := rate.SetRate(updated); err != nil {
		return err
	}

	p.logger.Info("Config watcher: rate updated",
		log.Duration("late_threshold", updated.LateThreshold),
		log.Duration("automatic_deadline", updated.AutomaticDeadline),
		log.Duration("early_threshold", updated.EarlyThreshold),
	)
	if p.onReload != nil {
		p.onReload(node.RateChange{Old: old, New: updated})
	}
	return nil
}

// Ensure Plugin implements node.Plugin.
var _ node.Plugin = (*Plugin)(nil)
