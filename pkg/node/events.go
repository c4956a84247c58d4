package node

import (
	"time"

	"github.com/bft-labs/bifrost/internal/app"
	"github.com/bft-labs/bifrost/internal/domain"
)

// Stats are running totals of a node.
type Stats = domain.Stats

// State is the lifecycle state of a Node.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
	StateCrashed
)

func (s State) String() string {
	return app.State(s).String()
}

func convertState(s app.State) State {
	switch s {
	case app.StateStarting:
		return StateStarting
	case app.StateRunning:
		return StateRunning
	case app.StateStopping:
		return StateStopping
	case app.StateCrashed:
		return StateCrashed
	default:
		return StateStopped
	}
}

type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

type SendSuccessEvent struct {
	Bytes    int
	Duration time.Duration
}

type SendErrorEvent struct {
	Error     error
	Bytes     int
	Retryable bool
}

type ReceiveEvent struct {
	Bytes    int
	Messages int
}

type DecodeErrorEvent struct {
	Error error
	Bytes int
}

// EventHandler receives node events. Calls are synchronous from the node's
// goroutines and must return quickly.
type EventHandler interface {
	OnStateChange(StateChangeEvent)
	OnSendSuccess(SendSuccessEvent)
	OnSendError(SendErrorEvent)
	OnReceive(ReceiveEvent)
	OnDecodeError(DecodeErrorEvent)
}

// BaseEventHandler ignores every event. Embed it to implement only some
// methods.
type BaseEventHandler struct{}

func (BaseEventHandler) OnStateChange(StateChangeEvent) {}
func (BaseEventHandler) OnSendSuccess(SendSuccessEvent) {}
func (BaseEventHandler) OnSendError(SendErrorEvent)     {}
func (BaseEventHandler) OnReceive(ReceiveEvent)         {}
func (BaseEventHandler) OnDecodeError(DecodeErrorEvent) {}

// eventEmitterWrapper adapts EventHandler to the app layer emitters.
type eventEmitterWrapper struct {
	handler EventHandler
}

func (e *eventEmitterWrapper) OnStateChange(previous, current app.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{
		Previous: convertState(previous),
		Current:  convertState(current),
		Reason:   reason,
	})
}

func (e *eventEmitterWrapper) OnSendSuccess(bytes int, duration time.Duration) {
	if e.handler != nil {
		e.handler.OnSendSuccess(SendSuccessEvent{Bytes: bytes, Duration: duration})
	}
}

func (e *eventEmitterWrapper) OnSendError(err error, bytes int, retryable bool) {
	if e.handler != nil {
		e.handler.OnSendError(SendErrorEvent{Error: err, Bytes: bytes, Retryable: retryable})
	}
}

func (e *eventEmitterWrapper) OnReceive(bytes, messages int) {
	if e.handler != nil {
		e.handler.OnReceive(ReceiveEvent{Bytes: bytes, Messages: messages})
	}
}

func (e *eventEmitterWrapper) OnDecodeError(err error, bytes int) {
	if e.handler != nil {
		e.handler.OnDecodeError(DecodeErrorEvent{Error: err, Bytes: bytes})
	}
}
