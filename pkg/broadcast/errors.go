package broadcast

import (
	"errors"
	"fmt"
)

var (
	// ErrTooLong matches a [TooLongError] with errors.Is.
	ErrTooLong = errors.New("broadcast: message too long")

	// ErrEncoding matches an [EncodingError] with errors.Is.
	ErrEncoding = errors.New("broadcast: encoding failed")

	// ErrLengthMismatch is wrapped in an [EncodingError] when a message
	// writes a different number of bytes than its EncodeLen reports.
	ErrLengthMismatch = errors.New("broadcast: encoded length does not match EncodeLen")

	// ErrFraming matches a [FramingError] with errors.Is.
	ErrFraming = errors.New("broadcast: invalid framing")
)

// TooLongError is returned when a message does not fit in a single packet.
type TooLongError struct {
	Size int
	Max  int
}

func (e *TooLongError) Error() string {
	return fmt.Sprintf("broadcast: %d bytes is too long to fit in a single packet of %d", e.Size, e.Max)
}

// Is reports whether target is ErrTooLong.
func (e *TooLongError) Is(target error) bool {
	return target == ErrTooLong
}

// EncodingError wraps an error from a message's Encode.
type EncodingError struct {
	Err error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("broadcast: encode: %v", e.Err)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrEncoding.
func (e *EncodingError) Is(target error) bool {
	return target == ErrEncoding
}

// FramingError is returned by Unpack when a decoded message reports a length
// that cannot advance the read cursor within the packet.
type FramingError struct {
	Offset    int
	Length    int
	Remaining int
}

func (e *FramingError) Error() string {
	return fmt.Sprintf("broadcast: message at offset %d reports length %d with %d bytes remaining",
		e.Offset, e.Length, e.Remaining)
}

// Is reports whether target is ErrFraming.
func (e *FramingError) Is(target error) bool {
	return target == ErrFraming
}
