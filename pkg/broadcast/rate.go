package broadcast

import (
	"fmt"
	"time"
)

// Rate controls how eagerly an [Outbound] releases packets.
type Rate struct {
	// LateThreshold is the minimum interval between two late packets.
	LateThreshold time.Duration

	// AutomaticDeadline is applied to messages pushed with [Automatic].
	AutomaticDeadline time.Duration

	// EarlyThreshold is the minimum interval between two early packets.
	EarlyThreshold time.Duration
}

// DefaultRate returns the rate used for team communication during a match.
func DefaultRate() Rate {
	return Rate{
		LateThreshold:     2500 * time.Millisecond,
		AutomaticDeadline: 5000 * time.Millisecond,
		EarlyThreshold:    7500 * time.Millisecond,
	}
}

// Validate checks that no threshold is negative.
func (r Rate) Validate() error {
	if r.LateThreshold < 0 {
		return fmt.Errorf("broadcast: late threshold must not be negative")
	}
	if r.AutomaticDeadline < 0 {
		return fmt.Errorf("broadcast: automatic deadline must not be negative")
	}
	if r.EarlyThreshold < 0 {
		return fmt.Errorf("broadcast: early threshold must not be negative")
	}
	return nil
}
