package node

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/bft-labs/bifrost/internal/app"
	"github.com/bft-labs/bifrost/internal/ports"
	"github.com/bft-labs/bifrost/pkg/broadcast"
	"github.com/bft-labs/bifrost/pkg/log"
)

// Node is a broadcast participant exchanging messages of type M with peers
// identified by A. Use New to create one, then Start.
type Node[A comparable, M broadcast.Message[M]] struct {
	config    Config
	transport ports.Transport[A]
	lifecycle *app.Lifecycle
	agent     *app.Agent[A, M]
	logger    log.Logger
	plugins   []Plugin

	mu      sync.Mutex
	started []Plugin
	cancel context.CancelFunc
	closed bool
}

// New creates a node in StateStopped. The node takes ownership of transport
// and closes it on Stop.
func New[A comparable, M broadcast.Message[M]](cfg Config, transport ports.Transport[A], opts ...Option) (*Node[A, M], error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	emitter := &eventEmitterWrapper{handler: o.eventHandler}

	agent, err := app.NewAgent[A, M](app.AgentConfig{
		CycleInterval:  cfg.CycleInterval,
		Rate:           cfg.Rate,
		BackoffInitial: cfg.BackoffInitial,
		BackoffMax:     cfg.BackoffMax,
	}, transport,
		app.WithAgentLogger(o.logger),
		app.WithSendEvents(emitter),
		app.WithReceiveEvents(emitter),
	)
	if err != nil {
		return nil, err
	}

	return &Node[A, M]{
		config:    cfg,
		transport: transport,
		lifecycle: app.NewLifecycle(o.logger, emitter),
		agent:     agent,
		logger:    o.logger,
		plugins:   o.plugins,
	}, nil
}

// Start initializes plugins and begins cycling in the background. The
// provided context bounds the lifetime of the node.
func (n *Node[A, M]) Start(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return ports.ErrClosed
	}
	if !n.lifecycle.CanStart() {
		return ErrAlreadyRunning
	}
	if err := n.lifecycle.TransitionTo(app.StateStarting, "Start() called"); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	n.cancel = cancel

	pluginCfg := PluginConfig{
		ConfigPath: n.config.ConfigPath,
		Logger:     n.logger,
		Rate:       n.agent,
		Stats:      n.agent.Stats,
	}
	for i, p := range n.plugins {
		if err := initializePlugin(runCtx, p, pluginCfg); err != nil {
			n.logger.Error("plugin initialization failed",
				log.String("plugin", p.Name()),
				log.Err(err))
			cancel()
			n.shutdownPlugins(n.plugins[:i])
			n.started = nil
			_ = n.lifecycle.TransitionTo(app.StateCrashed, "plugin init failed: "+p.Name())
			return err
		}
		n.logger.Info("plugin initialized", log.String("plugin", p.Name()))
	}
	n.started = n.plugins

	n.lifecycle.Go(func() {
		if err := n.lifecycle.TransitionTo(app.StateRunning, "cycling"); err != nil {
			n.logger.Error("failed to transition to running", log.Err(err))
			return
		}

		err := n.agent.Run(runCtx)
		if err != nil && !errors.Is(err, context.Canceled) {
			n.logger.Error("agent stopped", log.Err(err))
			_ = n.lifecycle.TransitionTo(app.StateCrashed, err.Error())
		}
	})

	return nil
}

// Stop cancels the node, waits for its goroutines, shuts plugins down in
// reverse order and closes the transport. Every failure along the way is
// returned together. A crashed node can still be stopped.
func (n *Node[A, M]) Stop() error {
	n.mu.Lock()

	if !n.lifecycle.CanStop() {
		n.mu.Unlock()
		return ErrNotRunning
	}
	if err := n.lifecycle.TransitionTo(app.StateStopping, "Stop() called"); err != nil {
		n.mu.Unlock()
		return err
	}
	if n.cancel != nil {
		n.cancel()
	}
	n.closed = true
	started := n.started
	n.started = nil
	n.mu.Unlock()

	var result *multierror.Error

	waitErr := n.lifecycle.WaitWithTimeout(app.ShutdownTimeout)
	if waitErr != nil {
		result = multierror.Append(result, waitErr)
	}

	result = multierror.Append(result, n.shutdownPlugins(started))

	if err := n.transport.Close(); err != nil {
		n.logger.Error("transport close failed", log.Err(err))
		result = multierror.Append(result, err)
	}

	if waitErr != nil {
		_ = n.lifecycle.TransitionTo(app.StateCrashed, "shutdown timeout")
	} else {
		_ = n.lifecycle.TransitionTo(app.StateStopped, "graceful shutdown")
	}

	return result.ErrorOrNil()
}

func (n *Node[A, M]) shutdownPlugins(plugins []Plugin) *multierror.Error {
	ctx, cancel := context.WithTimeout(context.Background(), app.ShutdownTimeout)
	defer cancel()

	var result *multierror.Error
	for i := len(plugins) - 1; i >= 0; i-- {
		p := plugins[i]
		if err := shutdownPlugin(ctx, p); err != nil {
			n.logger.Error("plugin shutdown failed",
				log.String("plugin", p.Name()),
				log.Err(err))
			result = multierror.Append(result, err)
			continue
		}
		n.logger.Info("plugin shutdown complete", log.String("plugin", p.Name()))
	}
	return result
}

// Status returns the current lifecycle state.
func (n *Node[A, M]) Status() State {
	return convertState(n.lifecycle.State())
}

// Stats returns running totals of packets and messages.
func (n *Node[A, M]) Stats() Stats {
	return n.agent.Stats()
}

func (n *Node[A, M]) Rate() broadcast.Rate {
	return n.agent.Rate()
}

// SetRate retunes the outbound buffer while the node runs.
func (n *Node[A, M]) SetRate(r broadcast.Rate) error {
	return n.agent.SetRate(r)
}

// Push queues message with the automatic deadline.
func (n *Node[A, M]) Push(message M) error {
	return n.agent.Push(message)
}

// PushBy queues message with deadline, anchored at the current time.
func (n *Node[A, M]) PushBy(message M, deadline broadcast.Deadline) error {
	return n.agent.PushBy(message, deadline)
}

// UpdateOrPush re-encodes the first queued message matching predicate in
// place, or queues message if none matches.
func (n *Node[A, M]) UpdateOrPush(message M, predicate func(M) bool) error {
	return n.agent.UpdateOrPush(message, predicate)
}

func (n *Node[A, M]) UpdateOrPushBy(message M, deadline broadcast.Deadline, predicate func(M) bool) error {
	return n.agent.UpdateOrPushBy(message, deadline, predicate)
}

// MergeOrPush merges message into the first queued message it supersedes,
// or queues it.
func (n *Node[A, M]) MergeOrPush(message M) error {
	return n.agent.MergeOrPush(message)
}

func (n *Node[A, M]) MergeOrPushBy(message M, deadline broadcast.Deadline) error {
	return n.agent.MergeOrPushBy(message, deadline)
}

func (n *Node[A, M]) Remove(predicate func(M) bool) (M, bool) {
	return n.agent.Remove(predicate)
}

// Pending returns the number of queued outgoing messages.
func (n *Node[A, M]) Pending() int {
	return n.agent.Pending()
}

// Pop returns the oldest received message.
func (n *Node[A, M]) Pop() (broadcast.Entry[A, M], bool) {
	return n.agent.Pop()
}

func (n *Node[A, M]) Take(predicate func(broadcast.Entry[A, M]) bool) (broadcast.Entry[A, M], bool) {
	return n.agent.Take(predicate)
}

// Received returns the number of messages waiting to be popped.
func (n *Node[A, M]) Received() int {
	return n.agent.Received()
}

// TakeMap removes the oldest received message f maps to a value. See
// [broadcast.TakeMap].
func TakeMap[A comparable, M broadcast.Message[M], R any](n *Node[A, M], f func(arrival time.Time, sender A, message M) (R, bool)) (broadcast.Entry[A, R], bool) {
	return app.TakeMap(n.agent, f)
}
