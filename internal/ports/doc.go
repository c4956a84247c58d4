// Package ports defines the interfaces that connect the application layer to
// infrastructure adapters.
//
//   - [Transport]: sends and receives broadcast datagrams
//   - [Logger]: structured logging, aliased from pkg/log
//
// The application layer (internal/app) depends only on these interfaces.
// Adapters in pkg/transport implement Transport over UDP broadcast and over an
// in-memory hub used by tests and simulations.
package ports
