package pinstore

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/lexamoris/synthia/kernel/metrics"
	"github.com/lexamoris/synthia/x/genesis/types"
)

var (
	ErrNotPinned = errors.New("content is not pinned")
	ErrNilDB     = errors.New("leveldb cannot be nil")
)

var pinPrefix = []byte("pin/")

// cidPrefix describes how pinned documents are addressed: CIDv1, dag-json
// codec, sha2-256 multihash.
var cidPrefix = cid.Prefix{
	Version:  1,
	Codec:    cid.DagJSON,
	MhType:   multihash.SHA2_256,
	MhLength: -1,
}

// Store is a content-addressed pin store backed by leveldb. Documents are
// addressed by the CID of their canonical JSON encoding and stored gzip
// compressed.
type Store struct {
	db        *leveldb.DB
	announcer types.PeerAnnouncer
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

var _ types.StoragePinner = &Store{}

type Option func(*Store)

// WithAnnouncer advertises every pinned address through a.
func WithAnnouncer(a types.PeerAnnouncer) Option {
	return func(s *Store) { s.announcer = a }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

func NewStore(db *leveldb.DB, opts ...Option) (*Store, error) {
	if db == nil {
		return nil, ErrNilDB
	}
	s := &Store{
		db:     db,
		logger: log.With().Str("module", "pinstore").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ComputeCid returns the content address of the canonical encoding of v.
func ComputeCid(v any) (cid.Cid, []byte, error) {
	content, err := json.Marshal(v)
	if err != nil {
		return cid.Undef, nil, fmt.Errorf("failed to encode content: %w", err)
	}
	c, err := cidPrefix.Sum(content)
	if err != nil {
		return cid.Undef, nil, fmt.Errorf("failed to hash content: %w", err)
	}
	return c, content, nil
}

func pinKey(c cid.Cid) []byte {
	return append(append([]byte{}, pinPrefix...), c.Bytes()...)
}

// Pin implements types.StoragePinner. Pinning the same payload twice is a
// no-op returning the same address. Announcement failures are logged and do
// not fail the pin.
func (s *Store) Pin(ctx context.Context, payload types.PinPayload) (cid.Cid, error) {
	c, content, err := ComputeCid(payload)
	if err != nil {
		return cid.Undef, err
	}
	if err := ctx.Err(); err != nil {
		return cid.Undef, err
	}
	key := pinKey(c)
	exists, err := s.db.Has(key, nil)
	if err != nil {
		return cid.Undef, fmt.Errorf("failed to check pin %s: %w", c, err)
	}
	if !exists {
		compressed, err := types.GzipDeterministic(content, gzip.BestCompression)
		if err != nil {
			return cid.Undef, fmt.Errorf("failed to compress pin %s: %w", c, err)
		}
		if err := s.db.Put(key, compressed, nil); err != nil {
			return cid.Undef, fmt.Errorf("failed to store pin %s: %w", c, err)
		}
		s.logger.Info().Str("cid", c.String()).Int("size", len(content)).Msg("pinned content")
	} else {
		s.logger.Debug().Str("cid", c.String()).Msg("content already pinned")
	}

	if s.announcer != nil {
		if err := s.announcer.Announce(ctx, c); err != nil {
			s.logger.Error().Err(err).Str("cid", c.String()).Msg("failed to announce pinned content")
		} else {
			s.metrics.IncrCounter(metrics.MetricNameAnnouncements)
		}
	}
	return c, nil
}

// GetRaw returns the canonical JSON pinned under c.
func (s *Store) GetRaw(c cid.Cid) ([]byte, error) {
	compressed, err := s.db.Get(pinKey(c), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", c, ErrNotPinned)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read pin %s: %w", c, err)
	}
	content, err := types.GzipUnzip(compressed)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress pin %s: %w", c, err)
	}
	// content must hash back to its address
	got, err := cidPrefix.Sum(content)
	if err != nil {
		return nil, err
	}
	if !got.Equals(c) {
		return nil, fmt.Errorf("pin %s is corrupted, content hashes to %s", c, got)
	}
	return content, nil
}

// Get returns the pin payload stored under c.
func (s *Store) Get(c cid.Cid) (types.PinPayload, error) {
	content, err := s.GetRaw(c)
	if err != nil {
		return types.PinPayload{}, err
	}
	var payload types.PinPayload
	if err := json.Unmarshal(content, &payload); err != nil {
		return types.PinPayload{}, fmt.Errorf("failed to decode pin %s: %w", c, err)
	}
	return payload, nil
}

func (s *Store) Has(c cid.Cid) (bool, error) {
	return s.db.Has(pinKey(c), nil)
}

// List returns every pinned address.
func (s *Store) List() ([]cid.Cid, error) {
	iter := s.db.NewIterator(util.BytesPrefix(pinPrefix), nil)
	defer iter.Release()
	var result []cid.Cid
	for iter.Next() {
		c, err := cid.Cast(iter.Key()[len(pinPrefix):])
		if err != nil {
			s.logger.Warn().Err(err).Msg("skipping malformed pin key")
			continue
		}
		result = append(result, c)
	}
	return result, iter.Error()
}

// Unpin removes c from the store.
func (s *Store) Unpin(c cid.Cid) error {
	key := pinKey(c)
	exists, err := s.db.Has(key, nil)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%s: %w", c, ErrNotPinned)
	}
	return s.db.Delete(key, nil)
}

func (s *Store) Close() error {
	return s.db.Close()
}
