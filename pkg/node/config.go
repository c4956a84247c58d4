package node

import (
	"fmt"
	"time"

	"github.com/bft-labs/bifrost/internal/app"
	"github.com/bft-labs/bifrost/internal/domain"
	"github.com/bft-labs/bifrost/pkg/broadcast"
)

// Config holds the settings of a Node.
type Config struct {
	CycleInterval time.Duration
	Rate          broadcast.Rate

	BackoffInitial time.Duration
	BackoffMax     time.Duration

	// ConfigPath is handed to plugins that watch the configuration file.
	ConfigPath string
}

// DefaultConfig returns a Config using the default rate.
func DefaultConfig() Config {
	return Config{
		CycleInterval:  app.DefaultCycleInterval,
		Rate:           broadcast.DefaultRate(),
		BackoffInitial: app.DefaultBackoffInitial,
		BackoffMax:     app.DefaultBackoffMax,
	}
}

// SetDefaults fills zero durations.
func (c *Config) SetDefaults() {
	if c.CycleInterval == 0 {
		c.CycleInterval = app.DefaultCycleInterval
	}
	if c.BackoffInitial == 0 {
		c.BackoffInitial = app.DefaultBackoffInitial
	}
	if c.BackoffMax == 0 {
		c.BackoffMax = app.DefaultBackoffMax
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.CycleInterval <= 0 {
		return fmt.Errorf("%w: cycle interval must be positive", domain.ErrInvalidConfig)
	}
	if c.BackoffMax < c.BackoffInitial {
		return fmt.Errorf("%w: backoff max %s below initial %s", domain.ErrInvalidConfig, c.BackoffMax, c.BackoffInitial)
	}
	if err := c.Rate.Validate(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}
	return nil
}
