// Package overlay keeps the composition layers (subtitles, OSD and so on)
// associated with the surfaces of a context.
package overlay

import (
	"context"
	"fmt"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/vacontext/va"
	"github.com/xaionaro-go/xsync"
)

type Layer struct {
	X, Y          int
	Width, Height uint
	GlobalAlpha   float32
}

// Overlay keeps the layers per surface. The layers reference surfaces, so
// the overlay must be reset before the surfaces are destroyed.
//
// An overlay may be shared by several contexts: each one Attach-es to it
// and Destroy-s it, and the overlay is finalized by the last Destroy.
type Overlay struct {
	locker      xsync.Mutex
	layers      map[va.ID][]Layer
	isFinalized bool
	resetCount  int
	owners      int
}

func New(ctx context.Context) *Overlay {
	o := &Overlay{}
	o.Init(ctx)
	return o
}

// Init (re-)initializes an overlay, it is a no-op on an initialized one.
func (o *Overlay) Init(ctx context.Context) {
	o.locker.Do(ctx, func() {
		if o.layers != nil {
			return
		}
		o.layers = map[va.ID][]Layer{}
		o.isFinalized = false
	})
}

// Reset detaches all the layers from their surfaces.
func (o *Overlay) Reset(ctx context.Context) (_err error) {
	logger.Tracef(ctx, "Reset")
	defer func() { logger.Tracef(ctx, "/Reset: %v", _err) }()
	return xsync.DoR1(ctx, &o.locker, func() error {
		if o.isFinalized {
			return fmt.Errorf("the overlay is finalized")
		}
		o.layers = map[va.ID][]Layer{}
		o.resetCount++
		return nil
	})
}

// Finalize releases everything; the overlay must be Init-ed to be used again.
func (o *Overlay) Finalize(ctx context.Context) {
	o.locker.Do(ctx, func() {
		o.layers = nil
		o.isFinalized = true
	})
}

// Attach registers one more owner, (re-)initializing the overlay if needed.
func (o *Overlay) Attach(ctx context.Context) {
	o.Init(ctx)
	o.locker.Do(ctx, func() {
		o.owners++
	})
}

// Owners returns the amount of attached owners.
func (o *Overlay) Owners() int {
	return xsync.DoR1(context.TODO(), &o.locker, func() int {
		return o.owners
	})
}

// Destroy detaches an owner and finalizes the overlay if it was the last one.
func (o *Overlay) Destroy(ctx context.Context) error {
	isLast := xsync.DoR1(ctx, &o.locker, func() bool {
		if o.owners > 0 {
			o.owners--
		}
		return o.owners == 0
	})
	if isLast {
		o.Finalize(ctx)
	}
	return nil
}

// SetComposition replaces the layers of the surface; nil layers detach
// everything from it.
func (o *Overlay) SetComposition(
	ctx context.Context,
	surfaceID va.ID,
	layers []Layer,
) error {
	return xsync.DoR1(ctx, &o.locker, func() error {
		if o.isFinalized || o.layers == nil {
			return fmt.Errorf("the overlay is not initialized")
		}
		if len(layers) == 0 {
			delete(o.layers, surfaceID)
			return nil
		}
		o.layers[surfaceID] = append([]Layer(nil), layers...)
		return nil
	})
}

func (o *Overlay) Composition(ctx context.Context, surfaceID va.ID) []Layer {
	return xsync.DoR1(ctx, &o.locker, func() []Layer {
		return append([]Layer(nil), o.layers[surfaceID]...)
	})
}

// ResetCount returns how many times the overlay was reset.
func (o *Overlay) ResetCount() int {
	return xsync.DoR1(context.TODO(), &o.locker, func() int {
		return o.resetCount
	})
}
