package p2p

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/ipfs/go-cid"
	"github.com/libp2p/go-libp2p"
	dht "github.com/libp2p/go-libp2p-kad-dht"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	quic "github.com/libp2p/go-libp2p/p2p/transport/quic"
	"github.com/libp2p/go-libp2p/p2p/transport/tcp"
	maddr "github.com/multiformats/go-multiaddr"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lexamoris/synthia/kernel/config"
	"github.com/lexamoris/synthia/kernel/keystore"
	"github.com/lexamoris/synthia/kernel/metrics"
	"github.com/lexamoris/synthia/x/genesis/types"
)

// Announcement is published on the genesis topic whenever content is pinned.
type Announcement struct {
	Cid       string `json:"cid"`
	Peer      string `json:"peer"`
	Timestamp int64  `json:"timestamp"`
}

// Network is the p2p network the kernel advertises its pinned state on.
type Network struct {
	config *config.P2PConfig

	listenAddr       maddr.Multiaddr
	listenAddrQUIC   maddr.Multiaddr
	externalAddr     maddr.Multiaddr
	externalAddrQUIC maddr.Multiaddr
	bootstrapPeers   []peer.AddrInfo

	mu       sync.RWMutex
	h        host.Host
	localDHT *dht.IpfsDHT
	topic    *pubsub.Topic
	sub      *pubsub.Subscription
	cancel   context.CancelFunc

	logger  zerolog.Logger
	metrics *metrics.Metrics
}

var _ types.PeerAnnouncer = &Network{}

func NewNetwork(config *config.P2PConfig, metrics *metrics.Metrics) (*Network, error) {
	if config == nil {
		return nil, ErrInvalidConfig
	}
	// port 0 lets the OS pick
	if config.Port < 0 || config.Port > 65535 {
		return nil, fmt.Errorf("invalid port: %d", config.Port)
	}

	listenAddr, err := maddr.NewMultiaddr(fmt.Sprintf("/ip4/0.0.0.0/tcp/%d", config.Port))
	if err != nil {
		return nil, fmt.Errorf("failed to create listen address: %w", err)
	}
	listenAddrQUIC, err := maddr.NewMultiaddr(fmt.Sprintf("/ip4/0.0.0.0/udp/%d/quic-v1", config.Port))
	if err != nil {
		return nil, fmt.Errorf("failed to create QUIC listen address: %w", err)
	}

	n := &Network{
		config:         config,
		listenAddr:     listenAddr,
		listenAddrQUIC: listenAddrQUIC,
		logger:         log.With().Str("module", "p2p").Logger(),
		metrics:        metrics,
	}

	if config.ExternalIP != "" {
		if net.ParseIP(config.ExternalIP) == nil {
			return nil, fmt.Errorf("invalid external IP: %s", config.ExternalIP)
		}
		n.externalAddr, err = maddr.NewMultiaddr(fmt.Sprintf("/ip4/%s/tcp/%d", config.ExternalIP, config.Port))
		if err != nil {
			return nil, fmt.Errorf("failed to create external address: %w", err)
		}
		n.externalAddrQUIC, err = maddr.NewMultiaddr(fmt.Sprintf("/ip4/%s/udp/%d/quic-v1", config.ExternalIP, config.Port))
		if err != nil {
			return nil, fmt.Errorf("failed to create QUIC external address: %w", err)
		}
	}

	for _, addr := range config.BootstrapPeers {
		ma, err := maddr.NewMultiaddr(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid bootstrap peer %q: %w", addr, err)
		}
		info, err := peer.AddrInfoFromP2pAddr(ma)
		if err != nil {
			return nil, fmt.Errorf("invalid bootstrap peer %q: %w", addr, err)
		}
		n.bootstrapPeers = append(n.bootstrapPeers, *info)
	}
	return n, nil
}

// addressFactory is a function that returns the external address if it is set, otherwise returns the input addresses
func (n *Network) addressFactory(addrs []maddr.Multiaddr) []maddr.Multiaddr {
	if n.externalAddr != nil {
		return []maddr.Multiaddr{n.externalAddr, n.externalAddrQUIC}
	}
	return addrs
}

// BootstrapPeers returns the parsed bootstrap peers.
func (n *Network) BootstrapPeers() []peer.AddrInfo {
	return n.bootstrapPeers
}

// ConnectedPeers returns the list of connected peers
func (n *Network) ConnectedPeers() []peer.AddrInfo {
	h := n.GetHost()
	if h == nil {
		return nil
	}
	peers := h.Network().Peers()
	addrInfos := make([]peer.AddrInfo, 0, len(peers))
	for _, p := range peers {
		if p == h.ID() {
			continue
		}
		addrInfos = append(addrInfos, h.Peerstore().PeerInfo(p))
	}
	return addrInfos
}

// Start starts the p2p network
func (n *Network) Start(ctx context.Context, key *keystore.PrivKey) error {
	privKey, err := PrivKey(key)
	if err != nil {
		return err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.h != nil {
		return ErrNetworkAlreadyStarted
	}
	h, err := libp2p.New(
		libp2p.ListenAddrs(n.listenAddr, n.listenAddrQUIC),
		libp2p.ChainOptions(
			libp2p.Transport(tcp.NewTCPTransport),
			libp2p.Transport(quic.NewTransport),
		),
		libp2p.Identity(privKey),
		libp2p.AddrsFactory(n.addressFactory),
	)
	if err != nil {
		return err
	}

	kad, err := dht.New(ctx, h,
		dht.QueryFilter(dht.PublicQueryFilter),
		dht.RoutingTableFilter(dht.PublicRoutingTableFilter),
	)
	if err != nil {
		_ = h.Close()
		return fmt.Errorf("failed to start DHT network,err: %w", err)
	}
	n.logger.Info().Msg("DHT network started")
	if err := kad.Bootstrap(ctx); err != nil {
		_ = kad.Close()
		_ = h.Close()
		return fmt.Errorf("failed to bootstrap DHT network,err: %w", err)
	}
	n.logger.Info().Msg("DHT network bootstrapped")

	if len(n.bootstrapPeers) == 0 {
		n.logger.Warn().Msg("no bootstrap peers configured")
	}
	n.connectPeers(ctx, h)

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	ps, err := n.PubSub(loopCtx, h)
	if err != nil {
		cancel()
		_ = kad.Close()
		_ = h.Close()
		return err
	}
	topic, err := ps.Join(types.AnnouncementTopic)
	if err != nil {
		cancel()
		_ = kad.Close()
		_ = h.Close()
		return fmt.Errorf("failed to join topic %s,err: %w", types.AnnouncementTopic, err)
	}
	sub, err := topic.Subscribe()
	if err != nil {
		cancel()
		_ = kad.Close()
		_ = h.Close()
		return fmt.Errorf("failed to subscribe to topic %s,err: %w", types.AnnouncementTopic, err)
	}
	go n.readAnnouncements(loopCtx, h.ID(), sub)

	n.h = h
	n.localDHT = kad
	n.topic = topic
	n.sub = sub
	n.cancel = cancel
	n.logger.Info().Str("peer_id", h.ID().String()).Msg("p2p network started")
	return nil
}

// connectPeers connects to the configured bootstrap peers
func (n *Network) connectPeers(ctx context.Context, h host.Host) {
	wg := sync.WaitGroup{}
	wg.Add(len(n.bootstrapPeers))
	for _, p := range n.bootstrapPeers {
		go func() {
			defer wg.Done()
			if err := h.Connect(ctx, p); err != nil {
				n.logger.Err(err).Msgf("failed to connect to bootstrapper %s", p.String())
				return
			}
			n.metrics.IncrCounter(metrics.MetricNamePeersConnected)
			n.logger.Info().Msgf("successfully connected to bootstrapper %s", p.String())
		}()
	}
	wg.Wait()
}

func (n *Network) readAnnouncements(ctx context.Context, self peer.ID, sub *pubsub.Subscription) {
	for {
		msg, err := sub.Next(ctx)
		if err != nil {
			if ctx.Err() == nil {
				n.logger.Debug().Err(err).Msg("announcement subscription closed")
			}
			return
		}
		if msg.ReceivedFrom == self {
			continue
		}
		a, err := decodeAnnouncement(msg.Data, msg.GetFrom())
		if err != nil {
			n.logger.Warn().Err(err).Str("from", msg.ReceivedFrom.String()).Msg("malformed announcement")
			continue
		}
		n.logger.Info().Str("cid", a.Cid).Str("peer", a.Peer).Msg("received genesis announcement")
	}
}

// Announce implements types.PeerAnnouncer. It publishes c on the genesis
// topic and provides it on the DHT.
func (n *Network) Announce(ctx context.Context, c cid.Cid) error {
	n.mu.RLock()
	h, kad, topic := n.h, n.localDHT, n.topic
	n.mu.RUnlock()
	if h == nil {
		return ErrNetworkNotStarted
	}

	data, err := json.Marshal(Announcement{
		Cid:       c.String(),
		Peer:      h.ID().String(),
		Timestamp: time.Now().Unix(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode announcement: %w", err)
	}

	var result *multierror.Error
	if err := topic.Publish(ctx, data); err != nil {
		result = multierror.Append(result, fmt.Errorf("failed to publish announcement: %w", err))
	}
	if err := kad.Provide(ctx, c, true); err != nil {
		result = multierror.Append(result, fmt.Errorf("failed to provide %s: %w", c, err))
	}
	if err := result.ErrorOrNil(); err != nil {
		return err
	}
	n.logger.Info().Str("cid", c.String()).Msg("announced pinned content")
	return nil
}

// GetHost returns the p2p host
func (n *Network) GetHost() host.Host {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.h
}

// Stop stops the p2p network
func (n *Network) Stop() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.h == nil {
		return nil
	}
	// the subscription must be gone before the topic can close
	n.sub.Cancel()
	var result *multierror.Error
	if err := n.topic.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	n.cancel()
	if err := n.localDHT.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := n.h.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	n.h = nil
	n.localDHT = nil
	n.topic = nil
	n.sub = nil
	n.cancel = nil
	return result.ErrorOrNil()
}

// GetListenAddr returns the listen address
func (n *Network) GetListenAddr() maddr.Multiaddr {
	return n.listenAddr
}
