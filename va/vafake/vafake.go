// Package vafake provides an in-memory VA driver with configurable
// capabilities and failure injection. It keeps track of every live object,
// so that leaks and dangling handles can be detected.
package vafake

import (
	"fmt"
	"sync"

	"github.com/xaionaro-go/vacontext/va"
)

// Call names accepted by Driver.FailOn.
const (
	CallGetConfigAttributes = "vaGetConfigAttributes"
	CallCreateConfig        = "vaCreateConfig"
	CallDestroyConfig       = "vaDestroyConfig"
	CallCreateContext       = "vaCreateContext"
	CallDestroyContext      = "vaDestroyContext"
	CallCreateSurfaces      = "vaCreateSurfaces"
	CallDestroySurfaces     = "vaDestroySurfaces"
)

// Capability is the set of attribute values reported for a
// (profile, entrypoint) pair. Attributes missing from the map are reported
// as va.AttribNotSupported.
type Capability map[va.ConfigAttribType]uint32

type capabilityKey struct {
	Profile    va.Profile
	Entrypoint va.Entrypoint
}

type fakeConfig struct {
	Profile    va.Profile
	Entrypoint va.Entrypoint
	Attribs    []va.ConfigAttrib
}

type fakeContext struct {
	Config        va.ID
	Width, Height int
	RenderTargets []va.ID
}

type fakeSurface struct {
	RTFormat      uint32
	Width, Height uint
}

// Driver implements va.Driver in memory.
type Driver struct {
	locker       sync.Mutex
	capabilities map[capabilityKey]Capability
	failures     map[string]failure
	nextID       va.ID
	configs      map[va.ID]fakeConfig
	contexts     map[va.ID]fakeContext
	surfaces     map[va.ID]fakeSurface
	calls        map[string]int
}

type failure struct {
	Status    va.Status
	SkipCalls int
}

var _ va.Driver = (*Driver)(nil)

// New returns a driver which does not support anything until
// SetCapability is called.
func New() *Driver {
	return &Driver{
		capabilities: map[capabilityKey]Capability{},
		failures:     map[string]failure{},
		nextID:       0x10,
		configs:      map[va.ID]fakeConfig{},
		contexts:     map[va.ID]fakeContext{},
		surfaces:     map[va.ID]fakeSurface{},
		calls:        map[string]int{},
	}
}

// SetCapability declares the attribute values reported for the pair.
func (d *Driver) SetCapability(
	profile va.Profile,
	entrypoint va.Entrypoint,
	capability Capability,
) *Driver {
	d.locker.Lock()
	defer d.locker.Unlock()
	d.capabilities[capabilityKey{Profile: profile, Entrypoint: entrypoint}] = capability
	return d
}

// FailOn makes the call return the status, after skipCalls successful calls.
func (d *Driver) FailOn(call string, status va.Status, skipCalls int) *Driver {
	d.locker.Lock()
	defer d.locker.Unlock()
	d.failures[call] = failure{Status: status, SkipCalls: skipCalls}
	return d
}

// ClearFailures cancels all the FailOn-s.
func (d *Driver) ClearFailures() {
	d.locker.Lock()
	defer d.locker.Unlock()
	d.failures = map[string]failure{}
}

// Calls returns how many times the call was issued (including failed ones).
func (d *Driver) Calls(call string) int {
	d.locker.Lock()
	defer d.locker.Unlock()
	return d.calls[call]
}

// LiveConfigs returns the amount of not-destroyed configurations.
func (d *Driver) LiveConfigs() int {
	d.locker.Lock()
	defer d.locker.Unlock()
	return len(d.configs)
}

// LiveContexts returns the amount of not-destroyed contexts.
func (d *Driver) LiveContexts() int {
	d.locker.Lock()
	defer d.locker.Unlock()
	return len(d.contexts)
}

// LiveSurfaces returns the amount of not-destroyed surfaces.
func (d *Driver) LiveSurfaces() int {
	d.locker.Lock()
	defer d.locker.Unlock()
	return len(d.surfaces)
}

// ContextRenderTargets returns the surfaces the context was bound to.
func (d *Driver) ContextRenderTargets(contextID va.ID) ([]va.ID, bool) {
	d.locker.Lock()
	defer d.locker.Unlock()
	c, ok := d.contexts[contextID]
	if !ok {
		return nil, false
	}
	return append([]va.ID(nil), c.RenderTargets...), true
}

// ConfigAttribs returns the attributes the configuration was created with.
func (d *Driver) ConfigAttribs(configID va.ID) ([]va.ConfigAttrib, bool) {
	d.locker.Lock()
	defer d.locker.Unlock()
	c, ok := d.configs[configID]
	if !ok {
		return nil, false
	}
	return append([]va.ConfigAttrib(nil), c.Attribs...), true
}

// SurfaceSize returns the dimensions of a live surface.
func (d *Driver) SurfaceSize(surfaceID va.ID) (uint, uint, bool) {
	d.locker.Lock()
	defer d.locker.Unlock()
	s, ok := d.surfaces[surfaceID]
	return s.Width, s.Height, ok
}

func (d *Driver) String() string {
	d.locker.Lock()
	defer d.locker.Unlock()
	return fmt.Sprintf("vafake(configs:%d, contexts:%d, surfaces:%d)", len(d.configs), len(d.contexts), len(d.surfaces))
}

func (d *Driver) checkFailureLocked(call string) va.Status {
	d.calls[call]++
	f, ok := d.failures[call]
	if !ok {
		return va.StatusSuccess
	}
	if f.SkipCalls > 0 {
		f.SkipCalls--
		d.failures[call] = f
		return va.StatusSuccess
	}
	return f.Status
}

func (d *Driver) newIDLocked() va.ID {
	id := d.nextID
	d.nextID++
	return id
}

func (d *Driver) GetConfigAttributes(
	profile va.Profile,
	entrypoint va.Entrypoint,
	attribs []va.ConfigAttrib,
) va.Status {
	d.locker.Lock()
	defer d.locker.Unlock()
	if status := d.checkFailureLocked(CallGetConfigAttributes); status != va.StatusSuccess {
		return status
	}
	capability, ok := d.capabilities[capabilityKey{Profile: profile, Entrypoint: entrypoint}]
	if !ok {
		return va.StatusUnsupportedProfile
	}
	for idx := range attribs {
		value, ok := capability[attribs[idx].Type]
		if !ok {
			value = va.AttribNotSupported
		}
		attribs[idx].Value = value
	}
	return va.StatusSuccess
}

func (d *Driver) CreateConfig(
	profile va.Profile,
	entrypoint va.Entrypoint,
	attribs []va.ConfigAttrib,
) (va.ID, va.Status) {
	d.locker.Lock()
	defer d.locker.Unlock()
	if status := d.checkFailureLocked(CallCreateConfig); status != va.StatusSuccess {
		return va.InvalidID, status
	}
	capability, ok := d.capabilities[capabilityKey{Profile: profile, Entrypoint: entrypoint}]
	if !ok {
		return va.InvalidID, va.StatusUnsupportedProfile
	}
	for _, attrib := range attribs {
		supported, ok := capability[attrib.Type]
		if !ok {
			return va.InvalidID, va.StatusAttrNotSupported
		}
		switch attrib.Type {
		case va.ConfigAttribRTFormat, va.ConfigAttribRateControl:
			if supported&attrib.Value != attrib.Value {
				return va.InvalidID, va.StatusAttrNotSupported
			}
		}
	}
	id := d.newIDLocked()
	d.configs[id] = fakeConfig{
		Profile:    profile,
		Entrypoint: entrypoint,
		Attribs:    append([]va.ConfigAttrib(nil), attribs...),
	}
	return id, va.StatusSuccess
}

func (d *Driver) DestroyConfig(config va.ID) va.Status {
	d.locker.Lock()
	defer d.locker.Unlock()
	if status := d.checkFailureLocked(CallDestroyConfig); status != va.StatusSuccess {
		return status
	}
	if _, ok := d.configs[config]; !ok {
		return va.StatusInvalidConfig
	}
	delete(d.configs, config)
	return va.StatusSuccess
}

func (d *Driver) CreateContext(
	config va.ID,
	width, height int,
	flag int32,
	renderTargets []va.ID,
) (va.ID, va.Status) {
	d.locker.Lock()
	defer d.locker.Unlock()
	if status := d.checkFailureLocked(CallCreateContext); status != va.StatusSuccess {
		return va.InvalidID, status
	}
	if _, ok := d.configs[config]; !ok {
		return va.InvalidID, va.StatusInvalidConfig
	}
	if width <= 0 || height <= 0 {
		return va.InvalidID, va.StatusInvalidParameter
	}
	for _, surfaceID := range renderTargets {
		if _, ok := d.surfaces[surfaceID]; !ok {
			return va.InvalidID, va.StatusInvalidSurface
		}
	}
	id := d.newIDLocked()
	d.contexts[id] = fakeContext{
		Config:        config,
		Width:         width,
		Height:        height,
		RenderTargets: append([]va.ID(nil), renderTargets...),
	}
	return id, va.StatusSuccess
}

func (d *Driver) DestroyContext(context va.ID) va.Status {
	d.locker.Lock()
	defer d.locker.Unlock()
	if status := d.checkFailureLocked(CallDestroyContext); status != va.StatusSuccess {
		return status
	}
	if _, ok := d.contexts[context]; !ok {
		return va.StatusInvalidContext
	}
	delete(d.contexts, context)
	return va.StatusSuccess
}

func (d *Driver) CreateSurfaces(
	rtFormat uint32,
	width, height uint,
	count int,
) ([]va.ID, va.Status) {
	d.locker.Lock()
	defer d.locker.Unlock()
	if status := d.checkFailureLocked(CallCreateSurfaces); status != va.StatusSuccess {
		return nil, status
	}
	if width == 0 || height == 0 || count <= 0 {
		return nil, va.StatusInvalidParameter
	}
	result := make([]va.ID, 0, count)
	for range count {
		id := d.newIDLocked()
		d.surfaces[id] = fakeSurface{
			RTFormat: rtFormat,
			Width:    width,
			Height:   height,
		}
		result = append(result, id)
	}
	return result, va.StatusSuccess
}

func (d *Driver) DestroySurfaces(surfaces []va.ID) va.Status {
	d.locker.Lock()
	defer d.locker.Unlock()
	if status := d.checkFailureLocked(CallDestroySurfaces); status != va.StatusSuccess {
		return status
	}
	for _, id := range surfaces {
		if _, ok := d.surfaces[id]; !ok {
			return va.StatusInvalidSurface
		}
	}
	for _, id := range surfaces {
		delete(d.surfaces, id)
	}
	return va.StatusSuccess
}
