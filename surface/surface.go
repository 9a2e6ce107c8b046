// Package surface manages the hardware surfaces (frame buffers) of a
// context: their allocation, the pool they are acquired from and their
// release.
package surface

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/vacontext/va"
)

// ParentRef is a weak reference to the context owning a surface. It is
// resolved through the registry of the context package, so a surface never
// keeps its context alive.
type ParentRef uint64

// NoParent is the ParentRef of a detached surface.
const NoParent = ParentRef(0)

type Surface struct {
	display  *va.Display
	id       atomic.Uint32
	rtFormat uint32
	width    uint
	height   uint
	parent   atomic.Uint64
}

// New allocates one hardware surface.
func New(
	ctx context.Context,
	display *va.Display,
	rtFormat uint32,
	width, height uint,
) (*Surface, error) {
	var (
		ids    []va.ID
		status va.Status
	)
	display.Do(ctx, func(drv va.Driver) {
		ids, status = drv.CreateSurfaces(rtFormat, width, height, 1)
	})
	if err := va.CheckStatus(status, "vaCreateSurfaces()"); err != nil {
		return nil, err
	}
	if len(ids) != 1 {
		return nil, fmt.Errorf("expected exactly one surface, but the driver returned %d", len(ids))
	}
	logger.Tracef(ctx, "surface %s (%dx%d)", ids[0], width, height)
	s := &Surface{
		display:  display,
		rtFormat: rtFormat,
		width:    width,
		height:   height,
	}
	s.id.Store(uint32(ids[0]))
	return s, nil
}

func (s *Surface) ID() va.ID {
	return va.ID(s.id.Load())
}

func (s *Surface) Width() uint {
	return s.width
}

func (s *Surface) Height() uint {
	return s.height
}

func (s *Surface) RTFormat() uint32 {
	return s.rtFormat
}

func (s *Surface) SetParentContext(ref ParentRef) {
	s.parent.Store(uint64(ref))
}

func (s *Surface) ParentContext() ParentRef {
	return ParentRef(s.parent.Load())
}

func (s *Surface) String() string {
	return fmt.Sprintf("surface(%s)", s.ID())
}

// Release destroys the hardware surface. A driver error is only logged:
// the handle is considered gone anyway. It is idempotent.
func (s *Surface) Release(ctx context.Context) {
	id := va.ID(s.id.Swap(uint32(va.InvalidID)))
	if id == va.InvalidID {
		return
	}
	err := s.display.DoStatus(ctx, "vaDestroySurfaces()", func(drv va.Driver) va.Status {
		return drv.DestroySurfaces([]va.ID{id})
	})
	if err != nil {
		logger.Warnf(ctx, "failed to destroy surface %s: %v", id, err)
	}
}

// Footprint estimates the memory used by count YUV 4:2:0 surfaces.
func Footprint(width, height uint, count int) uint64 {
	return uint64(width) * uint64(height) * 3 / 2 * uint64(count)
}
