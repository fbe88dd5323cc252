package p2p

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lexamoris/synthia/kernel/config"
	"github.com/lexamoris/synthia/kernel/keystore"
	"github.com/lexamoris/synthia/x/genesis/testutil"
)

const testBootstrapPeer = "/ip4/104.131.131.82/tcp/4001/p2p/QmaCpDMGvV2BGHeYERUEnRQAwe3N8SzbUtfsmvsqQLuvuJ"

func TestNewNetwork(t *testing.T) {
	tests := []struct {
		desc   string
		cfg    *config.P2PConfig
		errMsg string
	}{
		{desc: "nil config", cfg: nil, errMsg: ErrInvalidConfig.Error()},
		{desc: "negative port", cfg: &config.P2PConfig{Port: -1}, errMsg: "invalid port"},
		{desc: "port out of range", cfg: &config.P2PConfig{Port: 70000}, errMsg: "invalid port"},
		{desc: "bad external ip", cfg: &config.P2PConfig{Port: 4001, ExternalIP: "not-an-ip"}, errMsg: "invalid external IP"},
		{desc: "bad bootstrap multiaddr", cfg: &config.P2PConfig{Port: 4001, BootstrapPeers: []string{"garbage"}}, errMsg: "invalid bootstrap peer"},
		{desc: "bootstrap peer without id", cfg: &config.P2PConfig{Port: 4001, BootstrapPeers: []string{"/ip4/10.0.0.1/tcp/4001"}}, errMsg: "invalid bootstrap peer"},
		{desc: "ephemeral port", cfg: &config.P2PConfig{Port: 0}},
		{desc: "full config", cfg: &config.P2PConfig{Port: 4001, ExternalIP: "203.0.113.7", BootstrapPeers: []string{testBootstrapPeer}}},
	}
	for _, tc := range tests {
		t.Run(tc.desc, func(t *testing.T) {
			n, err := NewNetwork(tc.cfg, nil)
			if tc.errMsg != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.errMsg)
				return
			}
			require.NoError(t, err)
			require.Len(t, n.BootstrapPeers(), len(tc.cfg.BootstrapPeers))
		})
	}
}

func TestAddressFactory(t *testing.T) {
	n, err := NewNetwork(&config.P2PConfig{Port: 4001}, nil)
	require.NoError(t, err)
	in := n.addressFactory(nil)
	require.Nil(t, in)

	n, err = NewNetwork(&config.P2PConfig{Port: 4001, ExternalIP: "203.0.113.7"}, nil)
	require.NoError(t, err)
	out := n.addressFactory(nil)
	require.Len(t, out, 2)
	require.Equal(t, "/ip4/203.0.113.7/tcp/4001", out[0].String())
}

func TestNetworkNotStarted(t *testing.T) {
	n, err := NewNetwork(&config.P2PConfig{Port: 0}, nil)
	require.NoError(t, err)
	require.Nil(t, n.GetHost())
	require.Empty(t, n.ConnectedPeers())
	require.NoError(t, n.Stop())

	err = n.Announce(context.Background(), testutil.TestCid(t, "content"))
	require.ErrorIs(t, err, ErrNetworkNotStarted)

	require.ErrorIs(t, n.Start(context.Background(), nil), ErrInvalidKey)
}

func TestNetworkStartAndAnnounce(t *testing.T) {
	if testing.Short() {
		t.Skip("starts a libp2p host")
	}
	key, err := keystore.GenerateKey()
	require.NoError(t, err)
	n, err := NewNetwork(&config.P2PConfig{Port: 0}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, n.Start(ctx, key))
	defer func() { require.NoError(t, n.Stop()) }()

	require.ErrorIs(t, n.Start(ctx, key), ErrNetworkAlreadyStarted)

	id, err := ID(key)
	require.NoError(t, err)
	require.Equal(t, id, n.GetHost().ID())
	require.Empty(t, n.ConnectedPeers())
}
