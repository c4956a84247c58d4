package node

import (
	"context"
	"fmt"

	"github.com/bft-labs/bifrost/pkg/broadcast"
	"github.com/bft-labs/bifrost/pkg/log"
)

// RateController retunes the outbound buffer of a running node.
type RateController interface {
	Rate() broadcast.Rate
	SetRate(broadcast.Rate) error
}

// RateChange describes a rate replaced at runtime.
type RateChange struct {
	Old broadcast.Rate
	New broadcast.Rate
}

// PluginConfig is handed to every plugin on Initialize.
type PluginConfig struct {
	ConfigPath string
	Logger     log.Logger
	Rate       RateController

	// Stats returns the node's running totals.
	Stats func() Stats
}

// Plugin extends a node with a component that lives as long as the node
// runs.
type Plugin interface {
	Name() string

	// Initialize is called from Start. An error aborts the start and
	// leaves the node crashed.
	Initialize(ctx context.Context, cfg PluginConfig) error

	Shutdown(ctx context.Context) error
}

// BasePlugin implements Plugin with no-ops.
type BasePlugin struct {
	PluginName string
}

func (p BasePlugin) Name() string {
	if p.PluginName == "" {
		return "unnamed"
	}
	return p.PluginName
}

func (BasePlugin) Initialize(context.Context, PluginConfig) error { return nil }
func (BasePlugin) Shutdown(context.Context) error                  { return nil }

func initializePlugin(ctx context.Context, p Plugin, cfg PluginConfig) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("plugin %s panicked during initialization: %v", p.Name(), r)
		}
	}()
	return p.Initialize(ctx, cfg)
}

func shutdownPlugin(ctx context.Context, p Plugin) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("plugin %s panicked during shutdown: %v", p.Name(), r)
		}
	}()
	return p.Shutdown(ctx)
}
