// Package broadcast implements the packing and unpacking engine for a
// low-volume broadcast network.
//
// Application code pushes small messages into an [Outbound] buffer together
// with a [Deadline]. Once per control cycle it asks the buffer for a packet;
// the buffer answers with a packet only when the earliest deadline has passed
// (a late packet) or when enough data has accumulated to fill a packet to
// within [Limits.DeadSpace] bytes (an early packet). Both are spaced by the
// thresholds in [Rate].
//
// On the receiving side an [Inbound] buffer splits each received packet back
// into timestamped, sender-tagged messages which are consumed with
// [Inbound.Pop], [Inbound.Take] or [TakeMap].
//
// Buffers are plain single-owner data structures. They do no locking, start
// no goroutines, perform no I/O and never read the clock in their *At
// variants, so callers sharing a buffer between goroutines must supply their
// own mutual exclusion.
//
// # Wire format
//
// A packet is the concatenation of message encodings with no length prefix.
// The only framing is that each message's Decode consumes exactly EncodeLen
// bytes (see package codec).
package broadcast
