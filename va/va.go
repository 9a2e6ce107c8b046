// Package va describes the subset of the VA-API driver interface used to
// provision codec contexts: capability queries, configurations, contexts and
// surfaces.
package va

import (
	"fmt"
)

// ID is a driver-side object identifier (VAConfigID, VAContextID, VASurfaceID).
type ID uint32

// InvalidID is the sentinel value of an unset ID (VA_INVALID_ID).
const InvalidID = ID(0xffffffff)

func (id ID) String() string {
	if id == InvalidID {
		return "invalid"
	}
	return fmt.Sprintf("0x%08x", uint32(id))
}

// Profile is the driver code of a codec profile (VAProfile).
type Profile int32

const (
	ProfileNone                    = Profile(-1)
	ProfileMPEG2Simple             = Profile(0)
	ProfileMPEG2Main               = Profile(1)
	ProfileMPEG4Simple             = Profile(2)
	ProfileMPEG4AdvancedSimple     = Profile(3)
	ProfileMPEG4Main               = Profile(4)
	ProfileH264Main                = Profile(6)
	ProfileH264High                = Profile(7)
	ProfileVC1Simple               = Profile(8)
	ProfileVC1Main                 = Profile(9)
	ProfileVC1Advanced             = Profile(10)
	ProfileJPEGBaseline            = Profile(12)
	ProfileH264ConstrainedBaseline = Profile(13)
	ProfileVP8Version0_3           = Profile(14)
	ProfileHEVCMain                = Profile(17)
	ProfileHEVCMain10              = Profile(18)
	ProfileVP9Profile0             = Profile(19)
	ProfileVP9Profile2             = Profile(21)
	ProfileAV1Profile0             = Profile(32)
)

// Entrypoint is the driver code of a codec operation mode (VAEntrypoint).
type Entrypoint int32

const (
	EntrypointVLD        = Entrypoint(1)
	EntrypointIDCT       = Entrypoint(3)
	EntrypointMoComp     = Entrypoint(4)
	EntrypointEncSlice   = Entrypoint(6)
	EntrypointEncPicture = Entrypoint(7)
)

// ConfigAttribType is the type of a configuration attribute (VAConfigAttribType).
type ConfigAttribType int32

const (
	ConfigAttribRTFormat         = ConfigAttribType(0)
	ConfigAttribRateControl      = ConfigAttribType(5)
	ConfigAttribDecSliceMode     = ConfigAttribType(6)
	ConfigAttribEncPackedHeaders = ConfigAttribType(10)
	ConfigAttribEncInterlaced    = ConfigAttribType(11)
	ConfigAttribEncMaxRefFrames  = ConfigAttribType(13)
	ConfigAttribEncMaxSlices     = ConfigAttribType(14)
	ConfigAttribMaxPictureWidth  = ConfigAttribType(18)
	ConfigAttribMaxPictureHeight = ConfigAttribType(19)
	ConfigAttribEncQualityRange  = ConfigAttribType(21)
)

func (t ConfigAttribType) String() string {
	switch t {
	case ConfigAttribRTFormat:
		return "rt_format"
	case ConfigAttribRateControl:
		return "rate_control"
	case ConfigAttribDecSliceMode:
		return "dec_slice_mode"
	case ConfigAttribEncPackedHeaders:
		return "enc_packed_headers"
	case ConfigAttribEncInterlaced:
		return "enc_interlaced"
	case ConfigAttribEncMaxRefFrames:
		return "enc_max_ref_frames"
	case ConfigAttribEncMaxSlices:
		return "enc_max_slices"
	case ConfigAttribMaxPictureWidth:
		return "max_picture_width"
	case ConfigAttribMaxPictureHeight:
		return "max_picture_height"
	case ConfigAttribEncQualityRange:
		return "enc_quality_range"
	}
	return fmt.Sprintf("unknown_attrib_%d", int32(t))
}

// AttribNotSupported is the value reported by the driver for an attribute
// it does not know about (VA_ATTRIB_NOT_SUPPORTED).
const AttribNotSupported = uint32(0x80000000)

// ConfigAttrib mirrors VAConfigAttrib; the memory layout is relied upon by
// the native driver binding.
type ConfigAttrib struct {
	Type  ConfigAttribType
	Value uint32
}

// RT format capability bits (VA_RT_FORMAT_*).
const (
	RTFormatYUV420    = uint32(0x00000001)
	RTFormatYUV422    = uint32(0x00000002)
	RTFormatYUV444    = uint32(0x00000004)
	RTFormatYUV400    = uint32(0x00000010)
	RTFormatYUV420_10 = uint32(0x00000100)
)

// Rate control bits (VA_RC_*).
const (
	RCNone           = uint32(0x00000001)
	RCCBR            = uint32(0x00000002)
	RCVBR            = uint32(0x00000004)
	RCVCM            = uint32(0x00000008)
	RCCQP            = uint32(0x00000010)
	RCVBRConstrained = uint32(0x00000020)
	RCICQ            = uint32(0x00000040)
	RCQVBR           = uint32(0x00000400)
	RCAVBR           = uint32(0x00000800)
)

// RateControlString returns a human-readable name of a single VA_RC_* bit.
func RateControlString(rc uint32) string {
	switch rc {
	case RCNone:
		return "none"
	case RCCBR:
		return "CBR"
	case RCVBR:
		return "VBR"
	case RCVCM:
		return "VCM"
	case RCCQP:
		return "CQP"
	case RCVBRConstrained:
		return "VBR-constrained"
	case RCICQ:
		return "ICQ"
	case RCQVBR:
		return "QVBR"
	case RCAVBR:
		return "AVBR"
	}
	return fmt.Sprintf("<unknown 0x%08x>", rc)
}

// Progressive is the picture structure flag passed on context creation (VA_PROGRESSIVE).
const Progressive = int32(0x1)

// ParseConfigAttribType is the inverse of ConfigAttribType.String.
func ParseConfigAttribType(s string) (ConfigAttribType, error) {
	for _, t := range []ConfigAttribType{
		ConfigAttribRTFormat,
		ConfigAttribRateControl,
		ConfigAttribDecSliceMode,
		ConfigAttribEncPackedHeaders,
		ConfigAttribEncInterlaced,
		ConfigAttribEncMaxRefFrames,
		ConfigAttribEncMaxSlices,
		ConfigAttribMaxPictureWidth,
		ConfigAttribMaxPictureHeight,
		ConfigAttribEncQualityRange,
	} {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown config attribute type '%s'", s)
}
