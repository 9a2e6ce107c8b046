// Package manager implements vacontext.Context: a driver context with its
// configuration and the pool of surfaces it is bound to.
package manager

import (
	"context"
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/hashicorp/go-multierror"
	"github.com/xaionaro-go/vacontext"
	"github.com/xaionaro-go/vacontext/attrib"
	"github.com/xaionaro-go/vacontext/confighandle"
	"github.com/xaionaro-go/vacontext/internal"
	"github.com/xaionaro-go/vacontext/overlay"
	"github.com/xaionaro-go/vacontext/surface"
	"github.com/xaionaro-go/vacontext/va"
	"github.com/xaionaro-go/xsync"
)

// Manager is not safe for concurrent Reset-s; other methods may be called
// concurrently.
type Manager struct {
	locker     xsync.Mutex
	display    *va.Display
	ref        surface.ParentRef
	descriptor vacontext.Descriptor
	surfaces   *surface.Set
	handle     *confighandle.Handle
	overlay    *overlay.Overlay
	isClosed   bool
}

var _ vacontext.Context = (*Manager)(nil)

// New creates a context for the descriptor. On failure nothing allocated
// on the display survives.
func New(
	ctx context.Context,
	display *va.Display,
	descriptor vacontext.Descriptor,
	opts ...vacontext.Option,
) (_ret *Manager, _err error) {
	logger.Debugf(ctx, "New(ctx, %s)", descriptor)
	defer func() { logger.Debugf(ctx, "/New(ctx, %s): %v", descriptor, _err) }()

	if err := descriptor.Validate(); err != nil {
		return nil, err
	}

	m := &Manager{
		display:    display,
		ref:        newRef(),
		descriptor: descriptor,
		handle:     confighandle.New(),
	}
	if opt, ok := vacontext.GetOption[OptionOverlay](opts); ok && opt.Overlay != nil {
		m.overlay = opt.Overlay
	} else {
		m.overlay = overlay.New(ctx)
	}
	m.overlay.Attach(ctx)
	m.surfaces = surface.NewSet(display, m.overlay, m.ref)

	registry.Store(m.ref, m)
	defer func() {
		if _err != nil {
			m.destroy(ctx)
		}
	}()

	if err := m.create(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) createSurfaces(ctx context.Context) error {
	d := m.descriptor
	return m.surfaces.Build(ctx, d.Width, d.Height, surface.Count(d.RefFrames))
}

// create builds the surfaces if there are none, negotiates the attributes
// and creates the configuration and the context handles.
func (m *Manager) create(ctx context.Context) error {
	if !m.surfaces.IsBuilt() {
		if err := m.createSurfaces(ctx); err != nil {
			return fmt.Errorf("unable to create the surfaces: %w", err)
		}
	}

	d := m.descriptor
	surfaceIDs := m.surfaces.IDs()
	internal.Assert(ctx, len(surfaceIDs) == surface.Count(d.RefFrames), len(surfaceIDs), "!=", surface.Count(d.RefFrames))

	attribs, err := attrib.Negotiate(ctx, m.display, d.Profile, d.EntryPoint, d.RateControl)
	if err != nil {
		return fmt.Errorf("unable to negotiate the configuration: %w", err)
	}

	err = m.handle.Create(
		ctx,
		m.display,
		d.Profile.VAProfile(), d.EntryPoint.VAEntrypoint(),
		attribs,
		d.Width, d.Height,
		surfaceIDs,
	)
	if err != nil {
		m.handle.Destroy(ctx, m.display)
		return err
	}
	return nil
}

func (m *Manager) rebindContext(ctx context.Context) error {
	d := m.descriptor
	err := m.handle.CreateContext(ctx, m.display, d.Width, d.Height, m.surfaces.IDs())
	if err != nil {
		m.handle.Destroy(ctx, m.display)
		return err
	}
	return nil
}

// Reset reconfigures the context, rebuilding only what the new descriptor
// invalidates:
//   - size or reference frames: the surfaces, and the context bound to them;
//   - profile, entry point or rate control: the configuration and the context.
func (m *Manager) Reset(
	ctx context.Context,
	descriptor vacontext.Descriptor,
) (_err error) {
	logger.Debugf(ctx, "Reset(ctx, %s)", descriptor)
	defer func() { logger.Debugf(ctx, "/Reset(ctx, %s): %v", descriptor, _err) }()
	if err := descriptor.Validate(); err != nil {
		return err
	}
	return xsync.DoA2R1(ctx, &m.locker, m.resetLocked, ctx, descriptor)
}

func (m *Manager) resetLocked(
	ctx context.Context,
	descriptor vacontext.Descriptor,
) error {
	if m.isClosed {
		return vacontext.ErrClosed
	}

	changes := m.descriptor.Diff(descriptor)
	logger.Tracef(ctx, "changes: %#+v; new descriptor: %s", changes, spew.Sdump(descriptor))

	// a previously failed reset might have left something unbuilt
	rebuildSurfaces := changes.SurfacesChanged() || m.surfaces.Len() != surface.Count(descriptor.RefFrames)
	rebuildConfig := changes.ConfigChanged || m.handle.ConfigID == va.InvalidID
	rebindContext := rebuildSurfaces || rebuildConfig || m.handle.ContextID == va.InvalidID
	if !rebindContext {
		m.descriptor = descriptor
		return nil
	}

	m.descriptor = descriptor

	switch {
	case rebuildConfig:
		m.handle.Destroy(ctx, m.display)
	case rebindContext:
		m.handle.DestroyContext(ctx, m.display)
	}
	if rebuildSurfaces {
		m.surfaces.Reset(ctx)
		if err := m.createSurfaces(ctx); err != nil {
			return fmt.Errorf("unable to re-create the surfaces: %w", err)
		}
	}

	if rebuildConfig {
		if err := m.create(ctx); err != nil {
			return fmt.Errorf("unable to re-create the configuration: %w", err)
		}
		return nil
	}
	if err := m.rebindContext(ctx); err != nil {
		return fmt.Errorf("unable to re-bind the context to the surfaces: %w", err)
	}
	return nil
}

// GetID returns the driver context ID, or va.InvalidID if there is none.
func (m *Manager) GetID() va.ID {
	return xsync.DoR1(xsync.WithNoLogging(context.TODO(), true), &m.locker, func() va.ID {
		return m.handle.ContextID
	})
}

// ConfigID returns the driver configuration ID, or va.InvalidID if there is none.
func (m *Manager) ConfigID() va.ID {
	return xsync.DoR1(xsync.WithNoLogging(context.TODO(), true), &m.locker, func() va.ID {
		return m.handle.ConfigID
	})
}

func (m *Manager) GetDescriptor() vacontext.Descriptor {
	return xsync.DoR1(xsync.WithNoLogging(context.TODO(), true), &m.locker, func() vacontext.Descriptor {
		return m.descriptor
	})
}

// SurfaceIDs returns the IDs of all the surfaces of the context (acquired
// or not), in the order the context is bound to them.
func (m *Manager) SurfaceIDs() []va.ID {
	return xsync.DoR1(xsync.WithNoLogging(context.TODO(), true), &m.locker, m.surfaces.IDs)
}

func (m *Manager) Overlay() *overlay.Overlay {
	return m.overlay
}

// GetSurfaceProxy acquires a free surface. It never blocks: if all the
// surfaces are in use it returns vacontext.ErrNoSurfaceAvailable.
func (m *Manager) GetSurfaceProxy(
	ctx context.Context,
) (vacontext.SurfaceProxy, error) {
	return xsync.DoR2(xsync.WithNoLogging(ctx, true), &m.locker, func() (vacontext.SurfaceProxy, error) {
		if m.isClosed {
			return nil, vacontext.ErrClosed
		}
		proxy, err := m.surfaces.Acquire(ctx)
		if err != nil {
			return nil, err
		}
		return proxy, nil
	})
}

// GetSurfaceCount returns the amount of free surfaces.
func (m *Manager) GetSurfaceCount() int {
	return xsync.DoR1(xsync.WithNoLogging(context.TODO(), true), &m.locker, m.surfaces.AvailableCount)
}

// GetAttribute returns the value the driver reports for the attribute
// given the current profile and entry point.
func (m *Manager) GetAttribute(
	ctx context.Context,
	attribType va.ConfigAttribType,
) (uint32, error) {
	d := m.GetDescriptor()
	return attrib.QuerySingle(ctx, m.display, d.Profile, d.EntryPoint, attribType)
}

// Close destroys the context handle, the configuration handle, the surfaces
// and the overlay, in this order. It is idempotent.
func (m *Manager) Close(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "Close")
	defer func() { logger.Debugf(ctx, "/Close: %v", _err) }()
	return xsync.DoA1R1(ctx, &m.locker, m.closeLocked, ctx)
}

func (m *Manager) closeLocked(ctx context.Context) error {
	if m.isClosed {
		return nil
	}
	return m.destroy(ctx)
}

func (m *Manager) destroy(ctx context.Context) error {
	m.isClosed = true
	registry.Delete(m.ref)

	var result *multierror.Error
	for _, r := range []vacontext.Destroyer{
		m.handle.Destroyer(m.display),
		m.surfaces,
		m.overlay,
	} {
		if err := r.Destroy(ctx); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
