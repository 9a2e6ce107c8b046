package vacontext

import (
	"fmt"
)

// Descriptor is the configuration a context is negotiated for.
type Descriptor struct {
	Profile     Profile     `json:"profile"                yaml:"profile"`
	EntryPoint  EntryPoint  `json:"entry_point"            yaml:"entry_point"`
	Width       uint        `json:"width"                  yaml:"width"`
	Height      uint        `json:"height"                 yaml:"height"`
	RefFrames   uint        `json:"ref_frames,omitempty"   yaml:"ref_frames,omitempty"`
	RateControl RateControl `json:"rate_control,omitempty" yaml:"rate_control,omitempty"`
}

func (d Descriptor) String() string {
	s := fmt.Sprintf("%s/%s %dx%d refs:%d", d.Profile, d.EntryPoint, d.Width, d.Height, d.RefFrames)
	if d.EntryPoint == EntryPointSliceEncode {
		s += " rc:" + d.RateControl.String()
	}
	return s
}

// Validate checks the caller contract: profile and entry point are set and
// the dimensions are positive.
func (d Descriptor) Validate() error {
	switch {
	case d.Profile == ProfileUndefined:
		return ErrInvalidDescriptor{Reason: "the profile is not set"}
	case d.Profile >= EndOfProfile:
		return ErrInvalidDescriptor{Reason: fmt.Sprintf("unknown profile %d", uint(d.Profile))}
	case d.EntryPoint == EntryPointUndefined:
		return ErrInvalidDescriptor{Reason: "the entry point is not set"}
	case d.EntryPoint >= EndOfEntryPoint:
		return ErrInvalidDescriptor{Reason: fmt.Sprintf("unknown entry point %d", uint(d.EntryPoint))}
	case d.Width == 0:
		return ErrInvalidDescriptor{Reason: "the width is zero"}
	case d.Height == 0:
		return ErrInvalidDescriptor{Reason: "the height is zero"}
	case d.EntryPoint == EntryPointSliceEncode && d.RateControl >= EndOfRateControl:
		return ErrInvalidDescriptor{Reason: fmt.Sprintf("unknown rate control %d", uint(d.RateControl))}
	}
	return nil
}

// ChangeSet is the difference between two descriptors in terms of the
// sub-resources to rebuild.
type ChangeSet struct {
	SizeChanged      bool
	RefFramesChanged bool
	ConfigChanged    bool
}

// Diff computes what has to be rebuilt to switch from d to newD.
//
// The rate control mode is compared only if the new entry point is
// EntryPointSliceEncode.
func (d Descriptor) Diff(newD Descriptor) ChangeSet {
	var c ChangeSet
	c.SizeChanged = d.Width != newD.Width || d.Height != newD.Height
	c.RefFramesChanged = d.RefFrames != newD.RefFrames
	c.ConfigChanged = d.Profile != newD.Profile || d.EntryPoint != newD.EntryPoint
	if newD.EntryPoint == EntryPointSliceEncode && d.RateControl != newD.RateControl {
		c.ConfigChanged = true
	}
	return c
}

// SurfacesChanged returns true if the surface set has to be rebuilt.
func (c ChangeSet) SurfacesChanged() bool {
	return c.SizeChanged || c.RefFramesChanged
}

// ContextChanged returns true if the hardware context has to be re-created:
// it is bound to the surface ids and to the configuration.
func (c ChangeSet) ContextChanged() bool {
	return c.SurfacesChanged() || c.ConfigChanged
}

func (c ChangeSet) IsEmpty() bool {
	return !c.ContextChanged()
}
