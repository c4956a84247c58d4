// Package bifrost broadcasts team messages between robots of one team over
// UDP, batching them into as few packets as their deadlines allow.
//
// Example usage:
//
//	n, err := bifrost.Listen(bifrost.Team(7), node.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := n.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer n.Stop()
//
//	n.Push(bifrost.Ping())
package bifrost

import (
	"net/netip"

	"github.com/bft-labs/bifrost/internal/teammsg"
	"github.com/bft-labs/bifrost/pkg/node"
	"github.com/bft-labs/bifrost/pkg/transport"
)

// Message is a team message: a ping, a pong, a whistle detection or a
// recognized referee pose.
type Message = teammsg.Message

// RefereePose is a referee gesture carried by a pose message.
type RefereePose = teammsg.RefereePose

// Node is a node exchanging team messages over UDP.
type Node = node.Node[netip.AddrPort, teammsg.Message]

// Ping returns a ping message. Teammates answer with a pong.
func Ping() Message {
	return teammsg.Ping()
}

// Team returns the UDP settings of a team's broadcast channel.
func Team(team int) transport.UDPConfig {
	return transport.UDPConfig{
		Port:       transport.TeamPort(team),
		IgnoreSelf: true,
	}
}

// Listen binds the UDP socket and returns a stopped node that owns it.
func Listen(udp transport.UDPConfig, cfg node.Config, opts ...node.Option) (*Node, error) {
	t, err := transport.ListenUDP(udp)
	if err != nil {
		return nil, err
	}

	n, err := node.New[netip.AddrPort, teammsg.Message](cfg, t, opts...)
	if err != nil {
		_ = t.Close()
		return nil, err
	}
	return n, nil
}
