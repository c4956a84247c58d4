package broadcast

import (
	"fmt"
	"time"
)

type deadlineKind uint8

const (
	deadlineAutomatic deadlineKind = iota
	deadlineWithin
	deadlineBefore
)

// Deadline describes when a message is to be considered late.
//
// Within is relative to the anchor time at which the message is pushed,
// whereas Before is an absolute time constructed beforehand. The zero value
// is Automatic, which uses the buffer's [Rate.AutomaticDeadline]. Prefer the
// zero value unless there is a reason not to.
type Deadline struct {
	kind   deadlineKind
	within time.Duration
	before time.Time
}

var (
	// ASAP is for messages that start off late.
	ASAP = Within(0)

	// Whenever is a day away and is used to pad packets with unimportant data.
	Whenever = Within(24 * time.Hour)
)

// Automatic returns the deadline resolved with the buffer's configured default.
func Automatic() Deadline {
	return Deadline{}
}

// Within returns a deadline d after the anchor time.
func Within(d time.Duration) Deadline {
	return Deadline{kind: deadlineWithin, within: d}
}

// Before returns an absolute deadline.
func Before(t time.Time) Deadline {
	return Deadline{kind: deadlineBefore, before: t}
}

// IsAutomatic reports whether d is the automatic deadline.
func (d Deadline) IsAutomatic() bool {
	return d.kind == deadlineAutomatic
}

// Resolve returns the absolute deadline for a message pushed at anchor.
func (d Deadline) Resolve(anchor time.Time, automatic time.Duration) time.Time {
	switch d.kind {
	case deadlineWithin:
		return anchor.Add(d.within)
	case deadlineBefore:
		return d.before
	default:
		return anchor.Add(automatic)
	}
}

func (d Deadline) String() string {
	switch d.kind {
	case deadlineWithin:
		return fmt.Sprintf("within %s", d.within)
	case deadlineBefore:
		return fmt.Sprintf("before %s", d.before.Format(time.RFC3339Nano))
	default:
		return "automatic"
	}
}
