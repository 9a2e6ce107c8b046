// Package vacontext defines the public API of hardware codec contexts: the
// descriptor of a context, the operations exposed to a codec session and
// the errors reported by them.
package vacontext

import (
	"context"
	"io"

	"github.com/xaionaro-go/vacontext/va"
)

// SurfaceProxy is a surface acquired from a context. Releasing it returns
// the surface to the context's pool.
type SurfaceProxy interface {
	SurfaceID() va.ID
	Release(context.Context)
}

// Context is a hardware execution context bound to a pool of surfaces.
type Context interface {
	GetID() va.ID
	GetDescriptor() Descriptor
	Reset(context.Context, Descriptor) error
	GetSurfaceProxy(context.Context) (SurfaceProxy, error)
	GetSurfaceCount() int
	GetAttribute(context.Context, va.ConfigAttribType) (uint32, error)
	Close(context.Context) error
}

// Factory creates contexts on a single display.
type Factory interface {
	io.Closer

	NewContext(context.Context, Descriptor, ...Option) (Context, error)
}

// Destroyer is a hardware resource with an explicit teardown step.
type Destroyer interface {
	Destroy(context.Context) error
}
