package surface

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/facebookincubator/go-belt/tool/experimental/errmon"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/vacontext/internal"
	"github.com/xaionaro-go/vacontext/pool"
	"github.com/xaionaro-go/vacontext/va"
	"github.com/xaionaro-go/xcontext"
)

// Proxy is an acquired surface; Release returns it to the pool it was
// acquired from. A proxy which is garbage collected unreleased is released
// by its finalizer.
type Proxy struct {
	surface    *Surface
	pool       *pool.Pool[*Surface]
	isReleased atomic.Bool
}

func newProxy(
	ctx context.Context,
	surface *Surface,
	pool *pool.Pool[*Surface],
) *Proxy {
	p := &Proxy{
		surface: surface,
		pool:    pool,
	}
	ctx = xcontext.DetachDone(ctx)
	internal.SetFinalizer(ctx, p, func(p *Proxy) {
		if p.isReleased.Load() {
			return
		}
		errmon.ObserveErrorCtx(ctx, fmt.Errorf("%s was not released", p.surface))
		p.release(ctx)
	})
	return p
}

func (p *Proxy) Surface() *Surface {
	return p.surface
}

func (p *Proxy) SurfaceID() va.ID {
	return p.surface.ID()
}

// Release returns the surface to the pool; subsequent calls are no-ops.
func (p *Proxy) Release(ctx context.Context) {
	internal.ClearFinalizer(p)
	p.release(ctx)
}

func (p *Proxy) release(ctx context.Context) {
	if !p.isReleased.CompareAndSwap(false, true) {
		return
	}
	if !p.pool.Release(ctx, p.surface) {
		logger.Debugf(ctx, "%s outlived its pool, destroying it", p.surface)
		p.surface.Release(ctx)
	}
}
