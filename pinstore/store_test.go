package pinstore_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/ipfs/go-cid"
	"github.com/stretchr/testify/require"

	"github.com/lexamoris/synthia/constants"
	"github.com/lexamoris/synthia/pinstore"
	"github.com/lexamoris/synthia/x/genesis/testutil"
	"github.com/lexamoris/synthia/x/genesis/types"
)

func newPayload() types.PinPayload {
	return types.NewPinPayload(constants.Default(), types.DefaultPolicyRegistry(), "2026-10-19T12:00:00.000Z")
}

func newMemStore(t *testing.T, opts ...pinstore.Option) *pinstore.Store {
	t.Helper()
	db, err := pinstore.NewLevelDB("", false)
	require.NoError(t, err)
	store, err := pinstore.NewStore(db, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNewStoreNilDB(t *testing.T) {
	_, err := pinstore.NewStore(nil)
	require.ErrorIs(t, err, pinstore.ErrNilDB)
}

func TestPinAndGet(t *testing.T) {
	store := newMemStore(t)
	payload := newPayload()

	c, err := store.Pin(context.Background(), payload)
	require.NoError(t, err)
	require.Equal(t, uint64(1), c.Version())
	require.Equal(t, uint64(cid.DagJSON), c.Type())

	expected, _, err := pinstore.ComputeCid(payload)
	require.NoError(t, err)
	require.True(t, expected.Equals(c))

	has, err := store.Has(c)
	require.NoError(t, err)
	require.True(t, has)

	got, err := store.Get(c)
	require.NoError(t, err)
	require.Equal(t, payload, got)

	// same content, same address
	again, err := store.Pin(context.Background(), payload)
	require.NoError(t, err)
	require.True(t, again.Equals(c))

	pins, err := store.List()
	require.NoError(t, err)
	require.Len(t, pins, 1)
	require.True(t, pins[0].Equals(c))
}

func TestPinDifferentContent(t *testing.T) {
	store := newMemStore(t)
	a := newPayload()
	b := newPayload()
	b.Timestamp = "2026-10-20T12:00:00.000Z"

	ca, err := store.Pin(context.Background(), a)
	require.NoError(t, err)
	cb, err := store.Pin(context.Background(), b)
	require.NoError(t, err)
	require.False(t, ca.Equals(cb))

	pins, err := store.List()
	require.NoError(t, err)
	require.Len(t, pins, 2)
}

func TestUnpin(t *testing.T) {
	store := newMemStore(t)
	c, err := store.Pin(context.Background(), newPayload())
	require.NoError(t, err)

	require.NoError(t, store.Unpin(c))
	_, err = store.Get(c)
	require.ErrorIs(t, err, pinstore.ErrNotPinned)
	require.ErrorIs(t, store.Unpin(c), pinstore.ErrNotPinned)
}

func TestPinCancelledContext(t *testing.T) {
	store := newMemStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := store.Pin(ctx, newPayload())
	require.ErrorIs(t, err, context.Canceled)
}

func TestPinAnnounces(t *testing.T) {
	ctrl := gomock.NewController(t)
	announcer := testutil.NewMockPeerAnnouncer(ctrl)
	store := newMemStore(t, pinstore.WithAnnouncer(announcer))

	expected, _, err := pinstore.ComputeCid(newPayload())
	require.NoError(t, err)
	announcer.EXPECT().Announce(gomock.Any(), expected).Return(nil)

	c, err := store.Pin(context.Background(), newPayload())
	require.NoError(t, err)
	require.True(t, c.Equals(expected))
}

func TestPinAnnounceFailureIsNotFatal(t *testing.T) {
	ctrl := gomock.NewController(t)
	announcer := testutil.NewMockPeerAnnouncer(ctrl)
	store := newMemStore(t, pinstore.WithAnnouncer(announcer))
	announcer.EXPECT().Announce(gomock.Any(), gomock.Any()).Return(errors.New("no peers"))

	c, err := store.Pin(context.Background(), newPayload())
	require.NoError(t, err)
	require.True(t, c.Defined())
}

func TestPinPersistsOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pins")
	db, err := pinstore.NewLevelDB(path, false)
	require.NoError(t, err)
	store, err := pinstore.NewStore(db)
	require.NoError(t, err)
	c, err := store.Pin(context.Background(), newPayload())
	require.NoError(t, err)
	require.NoError(t, store.Close())

	db, err = pinstore.NewLevelDB(path, true)
	require.NoError(t, err)
	store, err = pinstore.NewStore(db)
	require.NoError(t, err)
	defer store.Close()
	got, err := store.Get(c)
	require.NoError(t, err)
	require.Equal(t, newPayload(), got)
}
