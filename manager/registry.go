package manager

import (
	"sync/atomic"

	"github.com/xaionaro-go/vacontext/surface"
	"github.com/xaionaro-go/xsync"
)

var (
	registry xsync.Map[surface.ParentRef, *Manager]
	lastRef  atomic.Uint64
)

func newRef() surface.ParentRef {
	return surface.ParentRef(lastRef.Add(1))
}

// Lookup resolves a surface's parent reference into its context. It
// returns false for detached surfaces and for closed contexts.
func Lookup(ref surface.ParentRef) (*Manager, bool) {
	if ref == surface.NoParent {
		return nil, false
	}
	return registry.Load(ref)
}

// ParentOf returns the context the surface belongs to.
func ParentOf(s *surface.Surface) (*Manager, bool) {
	return Lookup(s.ParentContext())
}
