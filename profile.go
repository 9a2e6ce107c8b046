package vacontext

import (
	"fmt"
	"strings"

	"github.com/xaionaro-go/vacontext/va"
)

type Profile uint

const (
	ProfileUndefined = Profile(iota)
	ProfileMPEG2Simple
	ProfileMPEG2Main
	ProfileMPEG4Simple
	ProfileMPEG4AdvancedSimple
	ProfileMPEG4Main
	ProfileH264ConstrainedBaseline
	ProfileH264Main
	ProfileH264High
	ProfileVC1Simple
	ProfileVC1Main
	ProfileVC1Advanced
	ProfileJPEGBaseline
	ProfileVP8
	ProfileVP9Profile0
	ProfileVP9Profile2
	ProfileHEVCMain
	ProfileHEVCMain10
	ProfileAV1Main
	EndOfProfile
)

func (p Profile) String() string {
	switch p {
	case ProfileUndefined:
		return "<undefined>"
	case ProfileMPEG2Simple:
		return "mpeg2-simple"
	case ProfileMPEG2Main:
		return "mpeg2-main"
	case ProfileMPEG4Simple:
		return "mpeg4-simple"
	case ProfileMPEG4AdvancedSimple:
		return "mpeg4-advanced-simple"
	case ProfileMPEG4Main:
		return "mpeg4-main"
	case ProfileH264ConstrainedBaseline:
		return "h264-constrained-baseline"
	case ProfileH264Main:
		return "h264-main"
	case ProfileH264High:
		return "h264-high"
	case ProfileVC1Simple:
		return "vc1-simple"
	case ProfileVC1Main:
		return "vc1-main"
	case ProfileVC1Advanced:
		return "vc1-advanced"
	case ProfileJPEGBaseline:
		return "jpeg-baseline"
	case ProfileVP8:
		return "vp8"
	case ProfileVP9Profile0:
		return "vp9-profile0"
	case ProfileVP9Profile2:
		return "vp9-profile2"
	case ProfileHEVCMain:
		return "hevc-main"
	case ProfileHEVCMain10:
		return "hevc-main10"
	case ProfileAV1Main:
		return "av1-main"
	}
	return fmt.Sprintf("unexpected_profile_%d", uint(p))
}

// VAProfile translates the profile into the driver code.
func (p Profile) VAProfile() va.Profile {
	switch p {
	case ProfileMPEG2Simple:
		return va.ProfileMPEG2Simple
	case ProfileMPEG2Main:
		return va.ProfileMPEG2Main
	case ProfileMPEG4Simple:
		return va.ProfileMPEG4Simple
	case ProfileMPEG4AdvancedSimple:
		return va.ProfileMPEG4AdvancedSimple
	case ProfileMPEG4Main:
		return va.ProfileMPEG4Main
	case ProfileH264ConstrainedBaseline:
		return va.ProfileH264ConstrainedBaseline
	case ProfileH264Main:
		return va.ProfileH264Main
	case ProfileH264High:
		return va.ProfileH264High
	case ProfileVC1Simple:
		return va.ProfileVC1Simple
	case ProfileVC1Main:
		return va.ProfileVC1Main
	case ProfileVC1Advanced:
		return va.ProfileVC1Advanced
	case ProfileJPEGBaseline:
		return va.ProfileJPEGBaseline
	case ProfileVP8:
		return va.ProfileVP8Version0_3
	case ProfileVP9Profile0:
		return va.ProfileVP9Profile0
	case ProfileVP9Profile2:
		return va.ProfileVP9Profile2
	case ProfileHEVCMain:
		return va.ProfileHEVCMain
	case ProfileHEVCMain10:
		return va.ProfileHEVCMain10
	case ProfileAV1Main:
		return va.ProfileAV1Profile0
	}
	return va.ProfileNone
}

func (p Profile) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Profile) UnmarshalText(b []byte) error {
	if p == nil {
		return fmt.Errorf("Profile is nil")
	}
	s := strings.ToLower(strings.Trim(string(b), `" `))
	for cmp := ProfileUndefined; cmp < EndOfProfile; cmp++ {
		if cmp.String() == s {
			*p = cmp
			return nil
		}
	}
	return fmt.Errorf("unknown value of the Profile: '%s'", s)
}
