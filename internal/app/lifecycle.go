package app

import (
	"fmt"
	"sync"
	"time"

	"github.com/bft-labs/bifrost/internal/domain"
	"github.com/bft-labs/bifrost/internal/ports"
)

// ShutdownTimeout is the maximum time to wait for the workers of a node to
// return after cancellation.
const ShutdownTimeout = 5 * time.Second

// State is the lifecycle state of a node.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
	StateCrashed
)

var stateNames = [...]string{
	StateStopped:  "Stopped",
	StateStarting: "Starting",
	StateRunning:  "Running",
	StateStopping: "Stopping",
	StateCrashed:  "Crashed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "Unknown"
	}
	return stateNames[s]
}

// active reports whether the node holds running workers or resources in s.
func (s State) active() bool {
	return s == StateStarting || s == StateRunning || s == StateStopping
}

// transitions lists the states reachable from each state. A crashed node
// may be restarted or stopped to release what it still holds.
var transitions = map[State][]State{
	StateStopped:  {StateStarting},
	StateStarting: {StateRunning, StateStopping, StateCrashed},
	StateRunning:  {StateStopping, StateCrashed},
	StateStopping: {StateStopped, StateCrashed},
	StateCrashed:  {StateStarting, StateStopping},
}

// TransitionError reports a rejected state change. It unwraps to
// domain.ErrAlreadyRunning from an active state and domain.ErrNotRunning
// otherwise.
type TransitionError struct {
	From State
	To   State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%v: cannot go from %v to %v", e.Unwrap(), e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	if e.From.active() {
		return domain.ErrAlreadyRunning
	}
	return domain.ErrNotRunning
}

// EventEmitter is called when lifecycle state changes.
type EventEmitter interface {
	OnStateChange(previous, current State, reason string)
}

// Lifecycle is the state machine of a node. It also tracks the node's
// worker goroutines so Stop can wait for them.
type Lifecycle struct {
	mu      sync.RWMutex
	state   State
	workers sync.WaitGroup

	logger  ports.Logger
	emitter EventEmitter
}

// NewLifecycle returns a lifecycle in StateStopped. emitter may be nil.
func NewLifecycle(logger ports.Logger, emitter EventEmitter) *Lifecycle {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Lifecycle{
		state:   StateStopped,
		logger:  logger,
		emitter: emitter,
	}
}

func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// TransitionTo moves to next, or returns a *TransitionError if next is not
// reachable from the current state. The emitter and logger are called
// outside the lock.
func (l *Lifecycle) TransitionTo(next State, reason string) error {
	l.mu.Lock()
	prev := l.state
	if !reachable(prev, next) {
		l.mu.Unlock()
		return &TransitionError{From: prev, To: next}
	}
	l.state = next
	l.mu.Unlock()

	if l.emitter != nil {
		l.emitter.OnStateChange(prev, next, reason)
	}
	l.logger.Info("state transition",
		ports.String("from", prev.String()),
		ports.String("to", next.String()),
		ports.String("reason", reason),
	)
	return nil
}

func reachable(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// CanStart reports whether StateStarting is reachable.
func (l *Lifecycle) CanStart() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return reachable(l.state, StateStarting)
}

// CanStop reports whether StateStopping is reachable.
func (l *Lifecycle) CanStop() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return reachable(l.state, StateStopping)
}

// Go runs f as a tracked worker.
func (l *Lifecycle) Go(f func()) {
	l.workers.Add(1)
	go func() {
		defer l.workers.Done()
		f()
	}()
}

// WaitWithTimeout waits for every worker started with Go. It returns
// domain.ErrShutdownTimeout if they are still running after timeout.
func (l *Lifecycle) WaitWithTimeout(timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		l.workers.Wait()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return nil
	case <-timer.C:
		l.logger.Warn("shutdown timeout, workers still running",
			ports.Duration("timeout", timeout),
		)
		return domain.ErrShutdownTimeout
	}
}
