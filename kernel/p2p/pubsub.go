package p2p

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ipfs/go-cid"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/protocol"

	"github.com/lexamoris/synthia/kernel/metrics"
	"github.com/lexamoris/synthia/x/genesis/types"
)

const (
	// maxAnnouncementSize bounds a gossiped announcement. An encoded
	// Announcement is well under 256 bytes.
	maxAnnouncementSize = 1 << 12
	// announcementValidateTimeout bounds a single topic validator call.
	announcementValidateTimeout = time.Second
)

var (
	errEmptyAnnouncement  = errors.New("empty announcement")
	errAnnouncementSender = errors.New("announcement peer does not match message origin")
	errAnnouncementTime   = errors.New("announcement timestamp must be positive")
)

// PubSub creates the gossipsub router for the genesis announcement topic and
// registers the topic validator on it.
func (n *Network) PubSub(ctx context.Context, h host.Host) (*pubsub.PubSub, error) {
	options := []pubsub.Option{
		pubsub.WithGossipSubProtocols([]protocol.ID{pubsub.GossipSubID_v13}, pubsub.GossipSubDefaultFeatures),
		pubsub.WithDirectPeers(n.bootstrapPeers),
		pubsub.WithPeerExchange(true),
		pubsub.WithMessageSignaturePolicy(pubsub.StrictSign),
		pubsub.WithMaxMessageSize(maxAnnouncementSize),
	}
	ps, err := pubsub.NewGossipSub(ctx, h, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to start gossip pub sub,err: %w", err)
	}
	if err := ps.RegisterTopicValidator(
		types.AnnouncementTopic,
		n.validateAnnouncement,
		pubsub.WithValidatorTimeout(announcementValidateTimeout),
	); err != nil {
		return nil, fmt.Errorf("failed to register validator for topic %s,err: %w", types.AnnouncementTopic, err)
	}
	return ps, nil
}

// validateAnnouncement drops announcements that do not decode or that claim
// a peer other than the signer, so they are never relayed.
func (n *Network) validateAnnouncement(_ context.Context, from peer.ID, msg *pubsub.Message) pubsub.ValidationResult {
	if _, err := decodeAnnouncement(msg.Data, msg.GetFrom()); err != nil {
		n.metrics.IncrCounter(metrics.MetricNameAnnouncementsDenied)
		n.logger.Debug().Err(err).Str("received_from", from.String()).Msg("rejected genesis announcement")
		return pubsub.ValidationReject
	}
	return pubsub.ValidationAccept
}

// decodeAnnouncement parses data and checks it against the signing peer.
func decodeAnnouncement(data []byte, origin peer.ID) (Announcement, error) {
	var a Announcement
	if len(data) == 0 {
		return a, errEmptyAnnouncement
	}
	if err := json.Unmarshal(data, &a); err != nil {
		return a, fmt.Errorf("failed to decode announcement: %w", err)
	}
	if _, err := cid.Decode(a.Cid); err != nil {
		return a, fmt.Errorf("invalid announcement cid %q: %w", a.Cid, err)
	}
	if a.Peer != origin.String() {
		return a, errAnnouncementSender
	}
	if a.Timestamp <= 0 {
		return a, errAnnouncementTime
	}
	return a, nil
}
