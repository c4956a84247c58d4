package codec

import (
	"errors"
	"io"
)

// Encoder is implemented by values that can be written to the wire.
type Encoder interface {
	// Encode writes the encoded form of the value to w.
	Encode(w io.Writer) error

	// EncodeLen returns the exact number of bytes Encode writes.
	EncodeLen() int
}

// Decoder is implemented by types that can be read back from the wire.
// Decode is called on the zero value of T and must consume exactly as many
// bytes as the returned value's EncodeLen.
type Decoder[T any] interface {
	Decode(r io.Reader) (T, error)
}

// ErrInvalidVariant is returned when an enum tag does not name a known variant.
var ErrInvalidVariant = errors.New("codec: invalid variant")
