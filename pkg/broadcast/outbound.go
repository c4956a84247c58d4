package broadcast

import (
	"slices"
	"time"

	"github.com/bits-and-blooms/bitset"
)

// Outbound buffers messages and bundles them into packets.
//
// It waits until a packet can be adequately filled or a message is considered
// late before releasing a packet. Queued fragments are kept sorted by
// deadline, earliest first; fragments with equal deadlines keep push order.
type Outbound[M Message[M]] struct {
	fragments []fragment[M]
	limits    Limits
	rate      Rate

	// Zero until the first packet of each kind.
	lastLate  time.Time
	lastEarly time.Time
}

// NewOutbound creates an empty buffer with the given rate.
//
// It panics if the limits declared by M are inconsistent.
func NewOutbound[M Message[M]](rate Rate) *Outbound[M] {
	return &Outbound[M]{
		limits: limitsOf[M](),
		rate:   rate,
	}
}

// Rate returns the current rate configuration.
func (o *Outbound[M]) Rate() Rate {
	return o.rate
}

// SetRate replaces the rate configuration. Deadlines already resolved for
// queued messages are not recomputed.
func (o *Outbound[M]) SetRate(rate Rate) {
	o.rate = rate
}

// Limits returns the size constants of M.
func (o *Outbound[M]) Limits() Limits {
	return o.limits
}

// Len returns the number of queued messages.
func (o *Outbound[M]) Len() int {
	return len(o.fragments)
}

// Push queues a message with an automatic deadline, anchored now.
//
// If an older update may still linger in the buffer, [Outbound.UpdateOrPush]
// or [Outbound.MergeOrPush] reduce traffic at the cost of a scan.
func (o *Outbound[M]) Push(message M) error {
	return o.PushAt(message, Automatic(), time.Now())
}

// PushBy queues a message with the given deadline, anchored now.
func (o *Outbound[M]) PushBy(message M, deadline Deadline) error {
	return o.PushAt(message, deadline, time.Now())
}

// PushAt queues a message with the given deadline, anchored at when.
func (o *Outbound[M]) PushAt(message M, deadline Deadline, when time.Time) error {
	f, err := newFragment(message, deadline.Resolve(when, o.rate.AutomaticDeadline), o.limits)
	if err != nil {
		return err
	}

	o.insert(f)
	return nil
}

// insert places f after the last fragment whose deadline is not after f's.
func (o *Outbound[M]) insert(f fragment[M]) {
	i := len(o.fragments)
	for i > 0 && f.deadline.Before(o.fragments[i-1].deadline) {
		i--
	}
	o.fragments = slices.Insert(o.fragments, i, f)
}

// UpdateOrPush replaces the first queued message matching predicate, or
// pushes message with an automatic deadline if none matches.
//
// A replaced message keeps its position and deadline. Since a fragment may
// be packed at any time, there is no guarantee the older update is still
// queued.
func (o *Outbound[M]) UpdateOrPush(message M, predicate func(M) bool) error {
	return o.UpdateOrPushAt(message, Automatic(), time.Now(), predicate)
}

// UpdateOrPushBy is [Outbound.UpdateOrPush] with an explicit deadline for the
// push fallback.
func (o *Outbound[M]) UpdateOrPushBy(message M, deadline Deadline, predicate func(M) bool) error {
	return o.UpdateOrPushAt(message, deadline, time.Now(), predicate)
}

// UpdateOrPushAt is [Outbound.UpdateOrPush] with an explicit deadline and
// anchor for the push fallback.
func (o *Outbound[M]) UpdateOrPushAt(message M, deadline Deadline, when time.Time, predicate func(M) bool) error {
	for i := range o.fragments {
		if predicate(o.fragments[i].message) {
			return o.fragments[i].update(message, o.limits)
		}
	}

	return o.PushAt(message, deadline, when)
}

// MergeOrPush merges message into the first queued message it supersedes
// according to [Message.TryMerge], or pushes it with an automatic deadline.
func (o *Outbound[M]) MergeOrPush(message M) error {
	return o.MergeOrPushAt(message, Automatic(), time.Now())
}

// MergeOrPushBy is [Outbound.MergeOrPush] with an explicit deadline for the
// push fallback.
func (o *Outbound[M]) MergeOrPushBy(message M, deadline Deadline) error {
	return o.MergeOrPushAt(message, deadline, time.Now())
}

// MergeOrPushAt is [Outbound.MergeOrPush] with an explicit deadline and
// anchor for the push fallback.
func (o *Outbound[M]) MergeOrPushAt(message M, deadline Deadline, when time.Time) error {
	for i := range o.fragments {
		if merged, ok := message.TryMerge(o.fragments[i].message); ok {
			return o.fragments[i].update(merged, o.limits)
		}
	}

	return o.PushAt(message, deadline, when)
}

// Remove drops the last queued message matching predicate and returns it.
func (o *Outbound[M]) Remove(predicate func(M) bool) (M, bool) {
	for i := len(o.fragments) - 1; i >= 0; i-- {
		if predicate(o.fragments[i].message) {
			m := o.fragments[i].message
			o.fragments = slices.Delete(o.fragments, i, i+1)
			return m, true
		}
	}

	var zero M
	return zero, false
}

// Clear drops every queued message.
func (o *Outbound[M]) Clear() {
	clear(o.fragments)
	o.fragments = o.fragments[:0]
}

// NextDeadline returns the earliest deadline among queued messages.
func (o *Outbound[M]) NextDeadline() (time.Time, bool) {
	if len(o.fragments) == 0 {
		return time.Time{}, false
	}
	return o.fragments[0].deadline, true
}

// IsLate reports whether the earliest queued message is past its deadline.
// It ignores the rate thresholds.
func (o *Outbound[M]) IsLate(now time.Time) bool {
	d, ok := o.NextDeadline()
	return ok && !d.After(now)
}

// Pack builds a packet at the current time. See [Outbound.PackAt].
func (o *Outbound[M]) Pack() ([]byte, bool) {
	return o.PackAt(time.Now())
}

// PackAt returns the next packet if one is due at now.
//
// A packet is due when the earliest deadline has passed and LateThreshold has
// elapsed since the last late packet, or when the queued messages would fill
// a packet to within DeadSpace bytes and EarlyThreshold has elapsed since the
// last early packet. Messages are selected in deadline order, skipping those
// that no longer fit. Skipped messages stay queued.
func (o *Outbound[M]) PackAt(now time.Time) ([]byte, bool) {
	late := o.late(now)
	early := o.early(now)
	if !late && !early {
		return nil, false
	}

	selected, size := o.selection()
	if selected.None() {
		return nil, false
	}

	packet := make([]byte, 0, size)
	kept := o.fragments[:0]
	for i := range o.fragments {
		if selected.Test(uint(i)) {
			packet = append(packet, o.fragments[i].encoded...)
		} else {
			kept = append(kept, o.fragments[i])
		}
	}
	clear(o.fragments[len(kept):])
	o.fragments = kept

	if late {
		o.lastLate = now
	}
	if early {
		o.lastEarly = now
	}

	return packet, true
}

// selection runs the forward best-fit scan and returns the selected
// fragment indices together with the resulting packet size.
func (o *Outbound[M]) selection() (*bitset.BitSet, int) {
	selected := bitset.New(uint(len(o.fragments)))
	remaining := o.limits.MaxPacketSize

	for i := range o.fragments {
		if remaining <= o.limits.DeadSpace {
			break
		}
		if size := o.fragments[i].size(); size <= remaining {
			remaining -= size
			selected.Set(uint(i))
		}
	}

	return selected, o.limits.MaxPacketSize - remaining
}

// late reports whether a late packet is due.
func (o *Outbound[M]) late(now time.Time) bool {
	if len(o.fragments) == 0 || o.fragments[0].deadline.After(now) {
		return false
	}
	return now.Sub(o.lastLate) >= o.rate.LateThreshold
}

// early reports whether an early packet is due: the buffer could fill a packet
// to within DeadSpace bytes although nothing is late yet.
func (o *Outbound[M]) early(now time.Time) bool {
	if len(o.fragments) == 0 || now.Sub(o.lastEarly) < o.rate.EarlyThreshold {
		return false
	}

	_, size := o.selection()
	return o.limits.MaxPacketSize-size <= o.limits.DeadSpace
}
