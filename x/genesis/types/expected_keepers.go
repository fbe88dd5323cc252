package types

import (
	"context"

	"github.com/ipfs/go-cid"
)

// StoragePinner submits a snapshot to content-addressable storage and
// returns the address it was stored under.
type StoragePinner interface {
	Pin(ctx context.Context, payload PinPayload) (cid.Cid, error)
}

// PeerAnnouncer advertises a pinned content address to the peer network.
type PeerAnnouncer interface {
	Announce(ctx context.Context, c cid.Cid) error
}
