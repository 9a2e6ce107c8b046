package va

import (
	"fmt"

	"github.com/pkg/errors"
)

// Status is a driver call result code (VAStatus).
type Status int32

const (
	StatusSuccess                Status = 0x00
	StatusOperationFailed        Status = 0x01
	StatusAllocationFailed       Status = 0x02
	StatusInvalidDisplay         Status = 0x03
	StatusInvalidConfig          Status = 0x04
	StatusInvalidContext         Status = 0x05
	StatusInvalidSurface         Status = 0x06
	StatusAttrNotSupported       Status = 0x0a
	StatusMaxNumExceeded         Status = 0x0b
	StatusUnsupportedProfile     Status = 0x0c
	StatusUnsupportedEntrypoint  Status = 0x0d
	StatusUnsupportedRTFormat    Status = 0x0e
	StatusInvalidParameter       Status = 0x12
	StatusResolutionNotSupported Status = 0x13
	StatusUnimplemented          Status = 0x14
	StatusUnknown                Status = -1
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusOperationFailed:
		return "operation failed"
	case StatusAllocationFailed:
		return "resource allocation failed"
	case StatusInvalidDisplay:
		return "invalid VADisplay"
	case StatusInvalidConfig:
		return "invalid VAConfigID"
	case StatusInvalidContext:
		return "invalid VAContextID"
	case StatusInvalidSurface:
		return "invalid VASurfaceID"
	case StatusAttrNotSupported:
		return "attribute not supported"
	case StatusMaxNumExceeded:
		return "list argument exceeds maximum number"
	case StatusUnsupportedProfile:
		return "the requested VAProfile is not supported"
	case StatusUnsupportedEntrypoint:
		return "the requested VAEntryPoint is not supported"
	case StatusUnsupportedRTFormat:
		return "the requested RT Format is not supported"
	case StatusInvalidParameter:
		return "invalid parameter"
	case StatusResolutionNotSupported:
		return "resolution not supported"
	case StatusUnimplemented:
		return "the requested function is not implemented"
	}
	return fmt.Sprintf("unknown status 0x%08x", uint32(s))
}

// ErrStatus is returned when a driver call reports a non-success status.
type ErrStatus struct {
	Call   string
	Status Status
}

func (e ErrStatus) Error() string {
	return fmt.Sprintf("%s: %s", e.Call, e.Status)
}

// CheckStatus converts the status of the driver call into an error.
func CheckStatus(status Status, call string) error {
	if status == StatusSuccess {
		return nil
	}
	return errors.WithStack(ErrStatus{Call: call, Status: status})
}
