package broadcast

import (
	"bytes"
	"time"
)

// fragment is a queued message together with its cached encoding and its
// absolute deadline.
//
// Encoding is done eagerly so that packing only concatenates bytes.
type fragment[M Message[M]] struct {
	message  M
	encoded  []byte
	deadline time.Time
}

func newFragment[M Message[M]](message M, deadline time.Time, limits Limits) (fragment[M], error) {
	encoded, err := encodeMessage(message, limits)
	if err != nil {
		return fragment[M]{}, err
	}

	return fragment[M]{
		message:  message,
		encoded:  encoded,
		deadline: deadline,
	}, nil
}

// update replaces the message in place, keeping position and deadline. On
// error the fragment is left unchanged.
func (f *fragment[M]) update(message M, limits Limits) error {
	encoded, err := encodeMessage(message, limits)
	if err != nil {
		return err
	}

	f.message = message
	f.encoded = encoded
	return nil
}

func (f *fragment[M]) size() int {
	return len(f.encoded)
}

func encodeMessage[M Message[M]](message M, limits Limits) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(limits.ExpectedSize)

	if err := message.Encode(&buf); err != nil {
		return nil, &EncodingError{Err: err}
	}
	if buf.Len() != message.EncodeLen() {
		return nil, &EncodingError{Err: ErrLengthMismatch}
	}
	if buf.Len() > limits.MaxPacketSize {
		return nil, &TooLongError{Size: buf.Len(), Max: limits.MaxPacketSize}
	}

	return buf.Bytes(), nil
}
