package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/bft-labs/bifrost/internal/domain"
	"github.com/bft-labs/bifrost/internal/ports"
	"github.com/bft-labs/bifrost/pkg/broadcast"
)

// Defaults for AgentConfig.
const (
	DefaultCycleInterval    = 100 * time.Millisecond
	DefaultErrorLogInterval = time.Second
	DefaultErrorLogBurst    = 5
)

// AgentConfig configures the control cycle.
type AgentConfig struct {
	// CycleInterval is how often Run offers the outbound buffer a chance to
	// produce a packet.
	CycleInterval time.Duration

	Rate broadcast.Rate

	BackoffInitial time.Duration
	BackoffMax     time.Duration

	// ErrorLogInterval and ErrorLogBurst throttle logging of receive and
	// decode failures.
	ErrorLogInterval time.Duration
	ErrorLogBurst    int
}

func (c *AgentConfig) setDefaults() {
	if c.CycleInterval <= 0 {
		c.CycleInterval = DefaultCycleInterval
	}
	if c.BackoffInitial <= 0 {
		c.BackoffInitial = DefaultBackoffInitial
	}
	if c.BackoffMax <= 0 {
		c.BackoffMax = DefaultBackoffMax
	}
	if c.ErrorLogInterval <= 0 {
		c.ErrorLogInterval = DefaultErrorLogInterval
	}
	if c.ErrorLogBurst <= 0 {
		c.ErrorLogBurst = DefaultErrorLogBurst
	}
}

// SendEventEmitter is called after every packet handed to the transport.
type SendEventEmitter interface {
	OnSendSuccess(bytesSent int, duration time.Duration)
	OnSendError(err error, bytes int, retryable bool)
}

// ReceiveEventEmitter is called for every received packet.
type ReceiveEventEmitter interface {
	OnReceive(bytes, messages int)
	OnDecodeError(err error, bytes int)
}

// Agent drives one outbound and one inbound buffer over a transport. The
// buffers themselves are single-owner; Agent guards each with its own mutex
// so application goroutines can push and pop while Run is active.
type Agent[A comparable, M broadcast.Message[M]] struct {
	config    AgentConfig
	transport ports.Transport[A]
	logger    ports.Logger
	sendEv    SendEventEmitter
	recvEv    ReceiveEventEmitter
	now       func() time.Time

	outMu    sync.Mutex
	outbound *broadcast.Outbound[M]

	inMu    sync.Mutex
	inbound *broadcast.Inbound[A, M]

	statsMu sync.Mutex
	stats   domain.Stats

	// cycleMu serializes Cycle so the backoff has a single user.
	cycleMu sync.Mutex
	backoff *backoff

	logLimiter *rate.Limiter
	suppressed int
}

// AgentOption configures optional Agent behaviour.
type AgentOption func(*agentOptions)

type agentOptions struct {
	logger ports.Logger
	sendEv SendEventEmitter
	recvEv ReceiveEventEmitter
	now    func() time.Time
}

func WithAgentLogger(logger ports.Logger) AgentOption {
	return func(o *agentOptions) {
		o.logger = logger
	}
}

func WithSendEvents(e SendEventEmitter) AgentOption {
	return func(o *agentOptions) {
		o.sendEv = e
	}
}

func WithReceiveEvents(e ReceiveEventEmitter) AgentOption {
	return func(o *agentOptions) {
		o.recvEv = e
	}
}

// WithClock replaces time.Now as the agent's time source.
func WithClock(now func() time.Time) AgentOption {
	return func(o *agentOptions) {
		o.now = now
	}
}

// NewAgent creates an agent. It fails if the rate is invalid or the message
// type's packets cannot fit the transport MTU.
func NewAgent[A comparable, M broadcast.Message[M]](config AgentConfig, transport ports.Transport[A], opts ...AgentOption) (*Agent[A, M], error) {
	config.setDefaults()
	if err := config.Rate.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}

	o := agentOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = noopLogger{}
	}

	outbound := broadcast.NewOutbound[M](config.Rate)
	if size := outbound.Limits().MaxPacketSize; size > transport.MTU() {
		return nil, fmt.Errorf("%w: packets up to %d bytes, MTU %d", domain.ErrPacketTooLarge, size, transport.MTU())
	}

	return &Agent[A, M]{
		config:     config,
		transport:  transport,
		logger:     o.logger,
		sendEv:     o.sendEv,
		recvEv:     o.recvEv,
		now:        o.now,
		outbound:   outbound,
		inbound:    broadcast.NewInbound[A, M](),
		backoff:    newBackoff(config.BackoffInitial, config.BackoffMax),
		logLimiter: rate.NewLimiter(rate.Every(config.ErrorLogInterval), config.ErrorLogBurst),
	}, nil
}

// Run cycles the outbound buffer every CycleInterval and feeds received
// datagrams into the inbound buffer until ctx is done or the transport is
// closed.
func (a *Agent[A, M]) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	received := make(chan error, 1)
	go func() {
		received <- a.receiveLoop(ctx)
	}()

	ticker := time.NewTicker(a.config.CycleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			<-received
			return ctx.Err()
		case err := <-received:
			return err
		case <-ticker.C:
			if err := a.Cycle(ctx, a.now()); err != nil {
				cancel()
				<-received
				return err
			}
		}
	}
}

// Cycle sends at most one packet. Send failures are logged, reported and
// followed by a backoff; the packet is not requeued. Cycle only returns an
// error once ctx is done or the transport is closed.
func (a *Agent[A, M]) Cycle(ctx context.Context, now time.Time) error {
	a.cycleMu.Lock()
	defer a.cycleMu.Unlock()

	a.outMu.Lock()
	packet, ok := a.outbound.PackAt(now)
	a.outMu.Unlock()
	if !ok {
		return nil
	}

	start := time.Now()
	err := a.transport.Send(ctx, packet)
	duration := time.Since(start)

	if err != nil {
		a.statsMu.Lock()
		a.stats.SendErrors++
		a.statsMu.Unlock()

		retryable := !errors.Is(err, ports.ErrClosed) && ctx.Err() == nil
		a.logger.Error("send failed",
			ports.Err(err),
			ports.Int("bytes", len(packet)),
		)
		if a.sendEv != nil {
			a.sendEv.OnSendError(err, len(packet), retryable)
		}
		if !retryable {
			return err
		}
		return a.backoff.Wait(ctx)
	}

	a.backoff.Reset()

	a.statsMu.Lock()
	a.stats.RecordSend(len(packet), now)
	a.statsMu.Unlock()

	a.logger.Debug("sent packet",
		ports.Int("bytes", len(packet)),
		ports.Duration("duration", duration),
	)
	if a.sendEv != nil {
		a.sendEv.OnSendSuccess(len(packet), duration)
	}
	return nil
}

func (a *Agent[A, M]) receiveLoop(ctx context.Context) error {
	for {
		d, err := a.transport.Receive(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if errors.Is(err, ports.ErrClosed) {
				return err
			}

			a.statsMu.Lock()
			a.stats.ReceiveErrors++
			a.statsMu.Unlock()
			a.throttled("receive failed", ports.Err(err))

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(a.config.CycleInterval):
			}
			continue
		}

		_ = a.Deliver(d)
	}
}

// Deliver unpacks a received datagram into the inbound buffer. A packet
// with any undecodable message is dropped whole and the error returned.
func (a *Agent[A, M]) Deliver(d ports.Datagram[A]) error {
	a.inMu.Lock()
	n, err := a.inbound.UnpackCount(d.Payload, d.Sender, d.Arrival)
	a.inMu.Unlock()

	if err != nil {
		a.statsMu.Lock()
		a.stats.DecodeErrors++
		a.statsMu.Unlock()

		a.throttled("dropped undecodable packet",
			ports.Err(err),
			ports.Any("sender", d.Sender),
			ports.Int("bytes", len(d.Payload)),
		)
		if a.recvEv != nil {
			a.recvEv.OnDecodeError(err, len(d.Payload))
		}
		return err
	}

	a.statsMu.Lock()
	a.stats.RecordReceive(len(d.Payload), n, d.Arrival)
	a.statsMu.Unlock()

	if a.recvEv != nil {
		a.recvEv.OnReceive(len(d.Payload), n)
	}
	return nil
}

// throttled logs a warning unless the error log budget is spent. Entries
// dropped in between are counted on the next one that gets through.
func (a *Agent[A, M]) throttled(msg string, fields ...ports.Field) {
	a.statsMu.Lock()
	defer a.statsMu.Unlock()

	if !a.logLimiter.Allow() {
		a.suppressed++
		return
	}
	if a.suppressed > 0 {
		fields = append(fields, ports.Int("suppressed", a.suppressed))
		a.suppressed = 0
	}
	a.logger.Warn(msg, fields...)
}

// Stats returns a snapshot of the running totals.
func (a *Agent[A, M]) Stats() domain.Stats {
	a.statsMu.Lock()
	defer a.statsMu.Unlock()
	return a.stats
}

// Outbound delegates. Relative deadlines are anchored at the agent clock.

func (a *Agent[A, M]) Push(message M) error {
	return a.PushBy(message, broadcast.Automatic())
}

func (a *Agent[A, M]) PushBy(message M, deadline broadcast.Deadline) error {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	return a.outbound.PushAt(message, deadline, a.now())
}

func (a *Agent[A, M]) UpdateOrPush(message M, predicate func(M) bool) error {
	return a.UpdateOrPushBy(message, broadcast.Automatic(), predicate)
}

func (a *Agent[A, M]) UpdateOrPushBy(message M, deadline broadcast.Deadline, predicate func(M) bool) error {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	return a.outbound.UpdateOrPushAt(message, deadline, a.now(), predicate)
}

func (a *Agent[A, M]) MergeOrPush(message M) error {
	return a.MergeOrPushBy(message, broadcast.Automatic())
}

func (a *Agent[A, M]) MergeOrPushBy(message M, deadline broadcast.Deadline) error {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	return a.outbound.MergeOrPushAt(message, deadline, a.now())
}

func (a *Agent[A, M]) Remove(predicate func(M) bool) (M, bool) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	return a.outbound.Remove(predicate)
}

// Pending returns the number of messages waiting to be sent.
func (a *Agent[A, M]) Pending() int {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	return a.outbound.Len()
}

func (a *Agent[A, M]) Rate() broadcast.Rate {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	return a.outbound.Rate()
}

// SetRate retunes the outbound buffer. Already queued messages keep the
// deadline they were pushed with.
func (a *Agent[A, M]) SetRate(r broadcast.Rate) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}
	a.outMu.Lock()
	defer a.outMu.Unlock()
	a.outbound.SetRate(r)
	return nil
}

// Inbound delegates.

func (a *Agent[A, M]) Pop() (broadcast.Entry[A, M], bool) {
	a.inMu.Lock()
	defer a.inMu.Unlock()
	return a.inbound.Pop()
}

func (a *Agent[A, M]) Take(predicate func(broadcast.Entry[A, M]) bool) (broadcast.Entry[A, M], bool) {
	a.inMu.Lock()
	defer a.inMu.Unlock()
	return a.inbound.Take(predicate)
}

// Received returns the number of messages waiting to be popped.
func (a *Agent[A, M]) Received() int {
	a.inMu.Lock()
	defer a.inMu.Unlock()
	return a.inbound.Len()
}

// TakeMap is [broadcast.TakeMap] under the agent's inbound lock.
func TakeMap[A comparable, M broadcast.Message[M], R any](a *Agent[A, M], f func(arrival time.Time, sender A, message M) (R, bool)) (broadcast.Entry[A, R], bool) {
	a.inMu.Lock()
	defer a.inMu.Unlock()
	return broadcast.TakeMap(a.inbound, f)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...ports.Field) {}
func (noopLogger) Info(string, ...ports.Field)  {}
func (noopLogger) Warn(string, ...ports.Field)  {}
func (noopLogger) Error(string, ...ports.Field) {}
