package vacontext

import (
	"errors"
	"fmt"

	"github.com/xaionaro-go/vacontext/va"
)

// ErrNoSurfaceAvailable is returned when the surface pool is exhausted.
// It is an expected condition: the caller is supposed to retry later.
var ErrNoSurfaceAvailable = errors.New("no surface available")

// ErrClosed is returned on use of a destroyed context.
var ErrClosed = errors.New("the context is closed")

type ErrInvalidDescriptor struct {
	Reason string
}

func (e ErrInvalidDescriptor) Error() string {
	return fmt.Sprintf("invalid context descriptor: %s", e.Reason)
}

type ErrUnsupportedPixelFormat struct {
	RTFormats uint32
}

func (e ErrUnsupportedPixelFormat) Error() string {
	return fmt.Sprintf("unsupported pixel format: YUV 4:2:0 is not among the reported RT formats 0x%08x", e.RTFormats)
}

type ErrUnsupportedRateControl struct {
	Mode      RateControl
	Supported uint32
}

func (e ErrUnsupportedRateControl) Error() string {
	return fmt.Sprintf("unsupported %s rate control (supported: 0x%08x)", va.RateControlString(e.Mode.VARateControl()), e.Supported)
}

type ErrAttributeNotSupported struct {
	Type va.ConfigAttribType
}

func (e ErrAttributeNotSupported) Error() string {
	return fmt.Sprintf("the driver does not report a value for attribute %s", e.Type)
}
