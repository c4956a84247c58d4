// Package node embeds a team broadcast participant in an application.
//
// A [Node] owns one outbound and one inbound buffer and drives them over a
// [ports.Transport]: every cycle the outbound buffer may release one packet,
// and every received datagram is unpacked into the inbound buffer.
//
//	hub := transport.NewHub()
//	n, err := node.New[string, teammsg.Message](node.DefaultConfig(), hub.Join("p1", 1024))
//	if err != nil {
//	    return err
//	}
//	if err := n.Start(ctx); err != nil {
//	    return err
//	}
//	defer n.Stop()
//
//	_ = n.PushBy(teammsg.Ping(), broadcast.ASAP)
//
// # Lifecycle
//
// A node is in one of [StateStopped], [StateStarting], [StateRunning],
// [StateStopping] or [StateCrashed]. Stop closes the transport, so a stopped
// node cannot be started again.
//
// # Plugins
//
// Plugins are initialized in registration order when the node starts and
// shut down in reverse order when it stops. They receive a [RateController]
// to retune the outbound buffer at runtime.
package node
