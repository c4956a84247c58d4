package node_test

import (
	"context"
	"fmt"
	"time"

	"github.com/bft-labs/bifrost/internal/teammsg"
	"github.com/bft-labs/bifrost/pkg/broadcast"
	"github.com/bft-labs/bifrost/pkg/node"
	"github.com/bft-labs/bifrost/pkg/transport"
)

// ExampleNew joins two players to an in-memory broadcast domain and sends a
// ping from one to the other.
func ExampleNew() {
	hub := transport.NewHub()

	cfg := node.DefaultConfig()
	cfg.CycleInterval = 10 * time.Millisecond

	p1, err := node.New[string, teammsg.Message](cfg, hub.Join("p1", 128))
	if err != nil {
		fmt.Printf("failed to create node: %v\n", err)
		return
	}
	p2, err := node.New[string, teammsg.Message](cfg, hub.Join("p2", 128))
	if err != nil {
		fmt.Printf("failed to create node: %v\n", err)
		return
	}

	ctx := context.Background()
	_ = p1.Start(ctx)
	_ = p2.Start(ctx)
	defer p1.Stop()
	defer p2.Stop()

	_ = p1.PushBy(teammsg.Ping(), broadcast.ASAP)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if e, ok := p2.Pop(); ok {
			fmt.Printf("%s from %s\n", e.Message, e.Sender)
			return
		}
		time.Sleep(5 * time.Millisecond)
	}

	// Output: Ping from p1
}
