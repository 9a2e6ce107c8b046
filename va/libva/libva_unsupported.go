//go:build !linux || !(amd64 || arm64)

package libva

import (
	"fmt"

	"github.com/xaionaro-go/vacontext/va"
)

const DefaultDevice = ""

type Driver struct {
	va.Driver
	VersionMajor int
	VersionMinor int
}

func Open(device string) (*Driver, error) {
	return nil, fmt.Errorf("libva is supported only on linux/amd64 and linux/arm64")
}

func (d *Driver) Close() error {
	return fmt.Errorf("libva is supported only on linux/amd64 and linux/arm64")
}
