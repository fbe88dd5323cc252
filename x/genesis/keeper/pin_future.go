package keeper

import (
	"context"
	"time"

	"github.com/ipfs/go-cid"

	"github.com/lexamoris/synthia/x/genesis/types"
)

// PinFuture is the pending outcome of a pin submitted to the storage
// collaborator.
type PinFuture struct {
	done chan struct{}
	cid  cid.Cid
	err  error
}

// startPin runs the pin in its own goroutine, bounded by timeout.
func startPin(parent context.Context, timeout time.Duration, pinner types.StoragePinner, payload types.PinPayload) *PinFuture {
	f := &PinFuture{done: make(chan struct{})}
	ctx, cancel := context.WithTimeout(parent, timeout)
	go func() {
		defer close(f.done)
		defer cancel()
		f.cid, f.err = pinner.Pin(ctx, payload)
	}()
	return f
}

// Done is closed once the pin finished.
func (f *PinFuture) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the pin finished or ctx is done.
func (f *PinFuture) Wait(ctx context.Context) (cid.Cid, error) {
	select {
	case <-f.done:
		return f.cid, f.err
	case <-ctx.Done():
		return cid.Undef, ctx.Err()
	}
}
