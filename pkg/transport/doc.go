// Package transport implements [ports.Transport] for team broadcast.
//
// [UDP] broadcasts datagrams on the local network, one port per team. [Hub]
// is an in-memory broadcast medium connecting any number of [HubTransport]
// endpoints; it can drop packets and enforce an MTU and is used for tests
// and simulations.
//
// Both deliver whole datagrams or nothing. Neither retries, acknowledges or
// reorders.
package transport
