package manager

import (
	"github.com/xaionaro-go/vacontext/overlay"
)

// OptionOverlay makes the context use the given overlay instead of
// creating its own. The overlay may be shared: it is finalized when the
// last context using it is closed.
type OptionOverlay struct {
	Overlay *overlay.Overlay
}
