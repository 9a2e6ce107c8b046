package surface

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/vacontext"
	"github.com/xaionaro-go/vacontext/pool"
	"github.com/xaionaro-go/vacontext/va"
)

// ScratchCount is the amount of surfaces allocated beyond the reference
// frames, to absorb the ones in flight.
const ScratchCount = 4

// Count returns the amount of surfaces needed for refFrames reference frames.
func Count(refFrames uint) int {
	return int(refFrames) + ScratchCount
}

// OverlayResetter is the part of the overlay which depends on the surfaces.
type OverlayResetter interface {
	Reset(context.Context) error
}

// Set owns the surfaces of a context and the pool they are acquired from.
//
// Set is not safe for concurrent mutation (Build/Reset), while Acquire and
// AvailableCount are serialized by the pool.
type Set struct {
	display  *va.Display
	overlay  OverlayResetter
	parent   ParentRef
	surfaces []*Surface
	pool     *pool.Pool[*Surface]
}

var _ vacontext.Destroyer = (*Set)(nil)

func NewSet(
	display *va.Display,
	overlay OverlayResetter,
	parent ParentRef,
) *Set {
	return &Set{
		display: display,
		overlay: overlay,
		parent:  parent,
	}
}

// IsBuilt returns true if the collection of surfaces exists (even if it
// was only partially populated).
func (s *Set) IsBuilt() bool {
	return s.surfaces != nil
}

// Build allocates surfaces until there are count of them, each registered
// as available in the pool.
//
// On failure the already allocated surfaces are kept: it is up to the
// caller to retry or to Reset.
func (s *Set) Build(
	ctx context.Context,
	width, height uint,
	count int,
) (_err error) {
	logger.Debugf(ctx, "Build(ctx, %dx%d, %d)", width, height, count)
	defer func() { logger.Debugf(ctx, "/Build(ctx, %dx%d, %d): %v", width, height, count, _err) }()

	if s.overlay != nil {
		if err := s.overlay.Reset(ctx); err != nil {
			return fmt.Errorf("unable to reset the overlay: %w", err)
		}
	}

	if s.surfaces == nil {
		s.surfaces = make([]*Surface, 0, count)
	}
	if s.pool == nil {
		s.pool = pool.New[*Surface](pool.Format{
			Name:   pool.FormatEncoded,
			Width:  width,
			Height: height,
		})
	}
	s.pool.SetCapacity(ctx, count)

	for idx := len(s.surfaces); idx < count; idx++ {
		surface, err := New(ctx, s.display, va.RTFormatYUV420, width, height)
		if err != nil {
			return fmt.Errorf("unable to create surface #%d: %w", idx, err)
		}
		surface.SetParentContext(s.parent)
		s.surfaces = append(s.surfaces, surface)
		if err := s.pool.AddObject(ctx, surface); err != nil {
			return fmt.Errorf("unable to add %s to the pool: %w", surface, err)
		}
	}

	logger.Debugf(ctx, "%d surfaces of %dx%d (~%s)", len(s.surfaces), width, height, humanize.IBytes(Footprint(width, height, len(s.surfaces))))
	return nil
}

// Reset releases the pool and all the surfaces. Surfaces acquired at that
// moment are only detached: each one is destroyed when its proxy is
// released. It is safe to call on an empty set.
func (s *Set) Reset(ctx context.Context) {
	logger.Debugf(ctx, "Reset")
	defer func() { logger.Debugf(ctx, "/Reset") }()

	if s.overlay != nil {
		if err := s.overlay.Reset(ctx); err != nil {
			logger.Warnf(ctx, "unable to reset the overlay: %v", err)
		}
	}

	held := map[*Surface]struct{}{}
	if s.pool != nil {
		for _, surface := range s.pool.Close(ctx) {
			held[surface] = struct{}{}
		}
		s.pool = nil
	}

	for _, surface := range s.surfaces {
		surface.SetParentContext(NoParent)
		if _, ok := held[surface]; ok {
			logger.Debugf(ctx, "%s is still acquired, it will be destroyed on release", surface)
			continue
		}
		surface.Release(ctx)
	}
	s.surfaces = nil
}

// Destroy is Reset.
func (s *Set) Destroy(ctx context.Context) error {
	s.Reset(ctx)
	return nil
}

// Acquire takes a free surface. It never blocks: if the pool is exhausted
// it returns vacontext.ErrNoSurfaceAvailable.
func (s *Set) Acquire(ctx context.Context) (*Proxy, error) {
	if s.pool == nil {
		return nil, vacontext.ErrNoSurfaceAvailable
	}
	surface, ok := s.pool.Acquire(ctx)
	if !ok {
		logger.Tracef(ctx, "the surface pool is exhausted")
		return nil, vacontext.ErrNoSurfaceAvailable
	}
	return newProxy(ctx, surface, s.pool), nil
}

// AvailableCount returns the amount of free surfaces in the pool.
func (s *Set) AvailableCount() int {
	if s.pool == nil {
		return 0
	}
	return s.pool.Size()
}

// Capacity returns the capacity of the pool.
func (s *Set) Capacity() int {
	if s.pool == nil {
		return 0
	}
	return s.pool.Capacity()
}

// Len returns the amount of allocated surfaces.
func (s *Set) Len() int {
	return len(s.surfaces)
}

// IDs returns the surface ids in the order of allocation.
func (s *Set) IDs() []va.ID {
	ids := make([]va.ID, 0, len(s.surfaces))
	for _, surface := range s.surfaces {
		ids = append(ids, surface.ID())
	}
	return ids
}

// Surfaces returns a copy of the collection.
func (s *Set) Surfaces() []*Surface {
	return append([]*Surface(nil), s.surfaces...)
}
