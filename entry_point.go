package vacontext

import (
	"fmt"
	"strings"

	"github.com/xaionaro-go/vacontext/va"
)

type EntryPoint uint

const (
	EntryPointUndefined = EntryPoint(iota)
	EntryPointVLD
	EntryPointIDCT
	EntryPointMotionCompensation
	EntryPointSliceEncode
	EntryPointPictureEncode
	EndOfEntryPoint
)

func (e EntryPoint) String() string {
	switch e {
	case EntryPointUndefined:
		return "<undefined>"
	case EntryPointVLD:
		return "vld"
	case EntryPointIDCT:
		return "idct"
	case EntryPointMotionCompensation:
		return "motion-compensation"
	case EntryPointSliceEncode:
		return "slice-encode"
	case EntryPointPictureEncode:
		return "picture-encode"
	}
	return fmt.Sprintf("unexpected_entry_point_%d", uint(e))
}

// IsEncode returns true for the entry points producing a bitstream.
func (e EntryPoint) IsEncode() bool {
	switch e {
	case EntryPointSliceEncode, EntryPointPictureEncode:
		return true
	}
	return false
}

// VAEntrypoint translates the entry point into the driver code.
func (e EntryPoint) VAEntrypoint() va.Entrypoint {
	switch e {
	case EntryPointVLD:
		return va.EntrypointVLD
	case EntryPointIDCT:
		return va.EntrypointIDCT
	case EntryPointMotionCompensation:
		return va.EntrypointMoComp
	case EntryPointSliceEncode:
		return va.EntrypointEncSlice
	case EntryPointPictureEncode:
		return va.EntrypointEncPicture
	}
	return 0
}

func (e EntryPoint) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

func (e *EntryPoint) UnmarshalText(b []byte) error {
	if e == nil {
		return fmt.Errorf("EntryPoint is nil")
	}
	s := strings.ToLower(strings.Trim(string(b), `" `))
	for cmp := EntryPointUndefined; cmp < EndOfEntryPoint; cmp++ {
		if cmp.String() == s {
			*e = cmp
			return nil
		}
	}
	return fmt.Errorf("unknown value of the EntryPoint: '%s'", s)
}
