package vacontext

import (
	"fmt"
	"strings"

	"github.com/xaionaro-go/vacontext/va"
)

// RateControl is the bitrate management mode of an encoder. It is
// meaningful only for EntryPointSliceEncode.
type RateControl uint

const (
	RateControlUndefined = RateControl(iota)
	RateControlNone
	RateControlCBR
	RateControlVBR
	RateControlVCM
	RateControlCQP
	RateControlVBRConstrained
	RateControlICQ
	RateControlQVBR
	RateControlAVBR
	EndOfRateControl
)

func (rc RateControl) String() string {
	switch rc {
	case RateControlUndefined:
		return "<undefined>"
	case RateControlNone:
		return "none"
	case RateControlCBR:
		return "cbr"
	case RateControlVBR:
		return "vbr"
	case RateControlVCM:
		return "vcm"
	case RateControlCQP:
		return "cqp"
	case RateControlVBRConstrained:
		return "vbr-constrained"
	case RateControlICQ:
		return "icq"
	case RateControlQVBR:
		return "qvbr"
	case RateControlAVBR:
		return "avbr"
	}
	return fmt.Sprintf("unexpected_rate_control_%d", uint(rc))
}

// VARateControl translates the mode into the driver VA_RC_* bit.
// An undefined mode is treated as "none".
func (rc RateControl) VARateControl() uint32 {
	switch rc {
	case RateControlUndefined, RateControlNone:
		return va.RCNone
	case RateControlCBR:
		return va.RCCBR
	case RateControlVBR:
		return va.RCVBR
	case RateControlVCM:
		return va.RCVCM
	case RateControlCQP:
		return va.RCCQP
	case RateControlVBRConstrained:
		return va.RCVBRConstrained
	case RateControlICQ:
		return va.RCICQ
	case RateControlQVBR:
		return va.RCQVBR
	case RateControlAVBR:
		return va.RCAVBR
	}
	return 0
}

// RateControlMask converts a list of modes into a VA_RC_* bitmask.
func RateControlMask(modes ...RateControl) uint32 {
	var mask uint32
	for _, rc := range modes {
		mask |= rc.VARateControl()
	}
	return mask
}

func (rc RateControl) MarshalText() ([]byte, error) {
	return []byte(rc.String()), nil
}

func (rc *RateControl) UnmarshalText(b []byte) error {
	if rc == nil {
		return fmt.Errorf("RateControl is nil")
	}
	s := strings.ToLower(strings.Trim(string(b), `" `))
	for cmp := RateControlUndefined; cmp < EndOfRateControl; cmp++ {
		if cmp.String() == s {
			*rc = cmp
			return nil
		}
	}
	return fmt.Errorf("unknown value of the RateControl: '%s'", s)
}
