package node

import "github.com/bft-labs/bifrost/internal/domain"

var (
	ErrAlreadyRunning  = domain.ErrAlreadyRunning
	ErrNotRunning      = domain.ErrNotRunning
	ErrShutdownTimeout = domain.ErrShutdownTimeout
	ErrInvalidConfig   = domain.ErrInvalidConfig
	ErrPacketTooLarge  = domain.ErrPacketTooLarge
)
