// Package codec defines the byte codec contract used by broadcast messages.
//
// A packet on the wire is the raw concatenation of message encodings. There
// is no length prefix, delimiter or checksum: the only framing is that
// [Decoder.Decode] consumes exactly [Encoder.EncodeLen] bytes. Implementations
// must keep those two in agreement.
//
// The helpers in this package write and read fixed-width little-endian
// primitives, which is the encoding used by every message type on the team
// network.
package codec
