// Package domain contains the error values and counters shared by the
// application layer and the public node API.
//
// It has no dependencies on infrastructure concerns (sockets, file system,
// logging).
package domain
