package bifrost_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bft-labs/bifrost"
	"github.com/bft-labs/bifrost/pkg/node"
	"github.com/bft-labs/bifrost/pkg/transport"
)

func TestTeam(t *testing.T) {
	cfg := bifrost.Team(7)
	require.Equal(t, 10007, cfg.Port)
	require.True(t, cfg.IgnoreSelf)
}

func TestListen(t *testing.T) {
	n, err := bifrost.Listen(transport.UDPConfig{
		ListenAddr: "127.0.0.1:0",
		Broadcast:  "127.0.0.1:9",
	}, node.DefaultConfig())
	require.NoError(t, err)

	require.NoError(t, n.Start(context.Background()))
	require.NoError(t, n.Push(bifrost.Ping()))
	require.Equal(t, 1, n.Pending())
	require.NoError(t, n.Stop())
	require.Equal(t, node.StateStopped, n.Status())
}

func TestListen_Errors(t *testing.T) {
	_, err := bifrost.Listen(transport.UDPConfig{ListenAddr: "127.0.0.1:0", Broadcast: "nowhere"}, node.DefaultConfig())
	require.Error(t, err)

	// teammsg packets are up to 128 bytes.
	_, err = bifrost.Listen(transport.UDPConfig{ListenAddr: "127.0.0.1:0", MTU: 64}, node.DefaultConfig())
	require.ErrorIs(t, err, node.ErrPacketTooLarge)
}
