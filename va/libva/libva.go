//go:build linux && (amd64 || arm64)

// Package libva binds the system libva through purego (no cgo), exposing it
// as a va.Driver on top of a DRM render node.
package libva

import (
	"fmt"
	"os"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/xaionaro-go/vacontext/va"
)

// DefaultDevice is the render node used when no device is specified.
const DefaultDevice = "/dev/dri/renderD128"

var (
	vaGetDisplayDRM       func(fd int32) uintptr
	vaInitialize          func(dpy uintptr, major, minor *int32) int32
	vaTerminate           func(dpy uintptr) int32
	vaGetConfigAttributes func(dpy uintptr, profile, entrypoint int32, attribs unsafe.Pointer, num int32) int32
	vaCreateConfig        func(dpy uintptr, profile, entrypoint int32, attribs unsafe.Pointer, num int32, config *uint32) int32
	vaDestroyConfig       func(dpy uintptr, config uint32) int32
	vaCreateContext       func(dpy uintptr, config uint32, width, height, flag int32, targets unsafe.Pointer, num int32, context *uint32) int32
	vaDestroyContext      func(dpy uintptr, context uint32) int32
	vaCreateSurfaces      func(dpy uintptr, format, width, height uint32, surfaces unsafe.Pointer, num uint32, attribs unsafe.Pointer, numAttribs uint32) int32
	vaDestroySurfaces     func(dpy uintptr, surfaces unsafe.Pointer, num int32) int32

	loadOnce sync.Once
	loadErr  error
)

func load() error {
	loadOnce.Do(func() {
		loadErr = doLoad()
	})
	return loadErr
}

func dlopenAny(names ...string) (uintptr, error) {
	var lastErr error
	for _, name := range names {
		lib, err := purego.Dlopen(name, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err == nil {
			return lib, nil
		}
		lastErr = err
	}
	return 0, fmt.Errorf("unable to load any of %v: %w", names, lastErr)
}

func doLoad() error {
	libVA, err := dlopenAny("libva.so.2", "libva.so")
	if err != nil {
		return err
	}
	libVADRM, err := dlopenAny("libva-drm.so.2", "libva-drm.so")
	if err != nil {
		return err
	}

	purego.RegisterLibFunc(&vaGetDisplayDRM, libVADRM, "vaGetDisplayDRM")
	purego.RegisterLibFunc(&vaInitialize, libVA, "vaInitialize")
	purego.RegisterLibFunc(&vaTerminate, libVA, "vaTerminate")
	purego.RegisterLibFunc(&vaGetConfigAttributes, libVA, "vaGetConfigAttributes")
	purego.RegisterLibFunc(&vaCreateConfig, libVA, "vaCreateConfig")
	purego.RegisterLibFunc(&vaDestroyConfig, libVA, "vaDestroyConfig")
	purego.RegisterLibFunc(&vaCreateContext, libVA, "vaCreateContext")
	purego.RegisterLibFunc(&vaDestroyContext, libVA, "vaDestroyContext")
	purego.RegisterLibFunc(&vaCreateSurfaces, libVA, "vaCreateSurfaces")
	purego.RegisterLibFunc(&vaDestroySurfaces, libVA, "vaDestroySurfaces")
	return nil
}

// Driver is a va.Driver backed by a native VADisplay.
type Driver struct {
	file         *os.File
	display      uintptr
	VersionMajor int
	VersionMinor int
}

var _ va.Driver = (*Driver)(nil)

// Open opens the DRM render node and initializes a VADisplay on it.
func Open(device string) (_ret *Driver, _err error) {
	if device == "" {
		device = DefaultDevice
	}
	if err := load(); err != nil {
		return nil, fmt.Errorf("unable to load libva: %w", err)
	}

	f, err := os.OpenFile(device, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("unable to open '%s': %w", device, err)
	}
	defer func() {
		if _err != nil {
			_ = f.Close()
		}
	}()

	display := vaGetDisplayDRM(int32(f.Fd()))
	if display == 0 {
		return nil, fmt.Errorf("unable to get a VA display for '%s'", device)
	}

	var major, minor int32
	status := va.Status(vaInitialize(display, &major, &minor))
	if err := va.CheckStatus(status, "vaInitialize()"); err != nil {
		return nil, err
	}

	return &Driver{
		file:         f,
		display:      display,
		VersionMajor: int(major),
		VersionMinor: int(minor),
	}, nil
}

// Close terminates the VADisplay and closes the render node.
func (d *Driver) Close() error {
	status := va.Status(vaTerminate(d.display))
	err := va.CheckStatus(status, "vaTerminate()")
	if closeErr := d.file.Close(); err == nil {
		err = closeErr
	}
	return err
}

func (d *Driver) GetConfigAttributes(
	profile va.Profile,
	entrypoint va.Entrypoint,
	attribs []va.ConfigAttrib,
) va.Status {
	if len(attribs) == 0 {
		return va.StatusSuccess
	}
	return va.Status(vaGetConfigAttributes(
		d.display,
		int32(profile), int32(entrypoint),
		unsafe.Pointer(&attribs[0]), int32(len(attribs)),
	))
}

func (d *Driver) CreateConfig(
	profile va.Profile,
	entrypoint va.Entrypoint,
	attribs []va.ConfigAttrib,
) (va.ID, va.Status) {
	var attribsPtr unsafe.Pointer
	if len(attribs) > 0 {
		attribsPtr = unsafe.Pointer(&attribs[0])
	}
	configID := uint32(va.InvalidID)
	status := va.Status(vaCreateConfig(
		d.display,
		int32(profile), int32(entrypoint),
		attribsPtr, int32(len(attribs)),
		&configID,
	))
	return va.ID(configID), status
}

func (d *Driver) DestroyConfig(config va.ID) va.Status {
	return va.Status(vaDestroyConfig(d.display, uint32(config)))
}

func (d *Driver) CreateContext(
	config va.ID,
	width, height int,
	flag int32,
	renderTargets []va.ID,
) (va.ID, va.Status) {
	var targetsPtr unsafe.Pointer
	if len(renderTargets) > 0 {
		targetsPtr = unsafe.Pointer(&renderTargets[0])
	}
	contextID := uint32(va.InvalidID)
	status := va.Status(vaCreateContext(
		d.display,
		uint32(config),
		int32(width), int32(height), flag,
		targetsPtr, int32(len(renderTargets)),
		&contextID,
	))
	return va.ID(contextID), status
}

func (d *Driver) DestroyContext(context va.ID) va.Status {
	return va.Status(vaDestroyContext(d.display, uint32(context)))
}

func (d *Driver) CreateSurfaces(
	rtFormat uint32,
	width, height uint,
	count int,
) ([]va.ID, va.Status) {
	if count <= 0 {
		return nil, va.StatusInvalidParameter
	}
	ids := make([]va.ID, count)
	status := va.Status(vaCreateSurfaces(
		d.display,
		rtFormat, uint32(width), uint32(height),
		unsafe.Pointer(&ids[0]), uint32(count),
		nil, 0,
	))
	if status != va.StatusSuccess {
		return nil, status
	}
	return ids, status
}

func (d *Driver) DestroySurfaces(surfaces []va.ID) va.Status {
	if len(surfaces) == 0 {
		return va.StatusSuccess
	}
	return va.Status(vaDestroySurfaces(
		d.display,
		unsafe.Pointer(&surfaces[0]), int32(len(surfaces)),
	))
}
