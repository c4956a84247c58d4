package domain

import "errors"

// Domain errors returned by the public API. Check them with errors.Is.
var (
	// ErrAlreadyRunning is returned when Start() is called on a running node.
	ErrAlreadyRunning = errors.New("bifrost: already running")

	// ErrNotRunning is returned when Stop() is called on a stopped node.
	ErrNotRunning = errors.New("bifrost: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("bifrost: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("bifrost: invalid configuration")

	ErrPacketTooLarge = errors.New("bifrost: packet exceeds transport MTU")
)
