// Package confighandle owns the driver configuration and the driver
// context of a codec context.
package confighandle

import (
	"context"
	"fmt"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/vacontext"
	"github.com/xaionaro-go/vacontext/va"
)

// Handle is a pair of a configuration handle and a context handle bound
// to it. A context is bound to a fixed set of surfaces at creation.
//
// Both handles must be destroyed before the display is closed.
type Handle struct {
	ConfigID  va.ID
	ContextID va.ID
}

// New returns a handle with both IDs unset.
func New() *Handle {
	return &Handle{
		ConfigID:  va.InvalidID,
		ContextID: va.InvalidID,
	}
}

// Create creates the configuration with the (already negotiated)
// attributes and the context bound to the surfaces.
//
// If the context creation fails, the created configuration stays owned by
// the handle: call Destroy to release it.
func (h *Handle) Create(
	ctx context.Context,
	display *va.Display,
	profile va.Profile,
	entrypoint va.Entrypoint,
	attribs []va.ConfigAttrib,
	width, height uint,
	surfaceIDs []va.ID,
) (_err error) {
	logger.Debugf(ctx, "Create(ctx, %d, %d, %v, %dx%d, %v)", profile, entrypoint, attribs, width, height, surfaceIDs)
	defer func() {
		logger.Debugf(ctx, "/Create(ctx, %d, %d, %v, %dx%d, %v): %v", profile, entrypoint, attribs, width, height, surfaceIDs, _err)
	}()

	if h.ConfigID != va.InvalidID {
		return fmt.Errorf("the configuration is already created: %s", h.ConfigID)
	}

	var (
		configID va.ID
		status   va.Status
	)
	display.Do(ctx, func(drv va.Driver) {
		configID, status = drv.CreateConfig(profile, entrypoint, attribs)
	})
	if err := va.CheckStatus(status, "vaCreateConfig()"); err != nil {
		return fmt.Errorf("unable to create the configuration: %w", err)
	}
	h.ConfigID = configID

	return h.CreateContext(ctx, display, width, height, surfaceIDs)
}

// CreateContext (re-)binds a context to the surfaces using the existing
// configuration.
func (h *Handle) CreateContext(
	ctx context.Context,
	display *va.Display,
	width, height uint,
	surfaceIDs []va.ID,
) error {
	switch {
	case h.ConfigID == va.InvalidID:
		return fmt.Errorf("the configuration is not created")
	case h.ContextID != va.InvalidID:
		return fmt.Errorf("the context is already created: %s", h.ContextID)
	}

	renderTargets := append([]va.ID(nil), surfaceIDs...)
	var (
		contextID va.ID
		status    va.Status
	)
	display.Do(ctx, func(drv va.Driver) {
		contextID, status = drv.CreateContext(h.ConfigID, int(width), int(height), va.Progressive, renderTargets)
	})
	if err := va.CheckStatus(status, "vaCreateContext()"); err != nil {
		return fmt.Errorf("unable to create the context: %w", err)
	}
	logger.Debugf(ctx, "context %s", contextID)
	h.ContextID = contextID
	return nil
}

// DestroyContext destroys only the context handle, keeping the
// configuration. Driver errors are logged, the ID is reset anyway.
func (h *Handle) DestroyContext(
	ctx context.Context,
	display *va.Display,
) {
	if h.ContextID == va.InvalidID {
		return
	}
	logger.Debugf(ctx, "destroying context %s", h.ContextID)
	err := display.DoStatus(ctx, "vaDestroyContext()", func(drv va.Driver) va.Status {
		return drv.DestroyContext(h.ContextID)
	})
	if err != nil {
		logger.Warnf(ctx, "failed to destroy context %s: %v", h.ContextID, err)
	}
	h.ContextID = va.InvalidID
}

// Destroy destroys the context handle, then the configuration handle.
// It is idempotent.
func (h *Handle) Destroy(
	ctx context.Context,
	display *va.Display,
) {
	h.DestroyContext(ctx, display)

	if h.ConfigID == va.InvalidID {
		return
	}
	logger.Debugf(ctx, "destroying config %s", h.ConfigID)
	err := display.DoStatus(ctx, "vaDestroyConfig()", func(drv va.Driver) va.Status {
		return drv.DestroyConfig(h.ConfigID)
	})
	if err != nil {
		logger.Warnf(ctx, "failed to destroy config %s: %v", h.ConfigID, err)
	}
	h.ConfigID = va.InvalidID
}

// IsValid returns true if both handles are set.
func (h *Handle) IsValid() bool {
	return h.ConfigID != va.InvalidID && h.ContextID != va.InvalidID
}

type destroyer struct {
	handle  *Handle
	display *va.Display
}

// Destroyer returns the handle as a resource released on the display.
func (h *Handle) Destroyer(display *va.Display) vacontext.Destroyer {
	return destroyer{handle: h, display: display}
}

func (d destroyer) Destroy(ctx context.Context) error {
	d.handle.Destroy(ctx, d.display)
	return nil
}
