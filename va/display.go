package va

import (
	"context"
	"io"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/xsync"
)

// Display is a driver connection shared by all the contexts created on it.
// It owns the exclusive lock which must be held during every driver call.
//
// Display is only borrowed by the context machinery: it is never opened or
// closed by it.
type Display struct {
	driver Driver
	locker xsync.Mutex
	closer io.Closer
}

// NewDisplay wraps a driver connection. The optional closer is invoked
// on Close (e.g. to terminate the native display).
func NewDisplay(driver Driver, closer io.Closer) *Display {
	return &Display{
		driver: driver,
		closer: closer,
	}
}

// Driver returns the raw driver; it must only be used inside Do.
func (d *Display) Driver() Driver {
	return d.driver
}

// Do calls fn with the display locked; the lock is released on every
// exit path of fn, including panics.
func (d *Display) Do(
	ctx context.Context,
	fn func(Driver),
) {
	d.locker.Do(xsync.WithNoLogging(ctx, true), func() {
		fn(d.driver)
	})
}

// DoStatus is a shorthand for a single driver call returning a status.
func (d *Display) DoStatus(
	ctx context.Context,
	call string,
	fn func(Driver) Status,
) error {
	var status Status
	d.Do(ctx, func(drv Driver) {
		status = fn(drv)
	})
	if err := CheckStatus(status, call); err != nil {
		logger.Debugf(ctx, "%s failed: %v", call, status)
		return err
	}
	return nil
}

// Close closes the native display (if a closer was given) with the
// display locked.
func (d *Display) Close() error {
	if d.closer == nil {
		return nil
	}
	return xsync.DoR1(xsync.WithNoLogging(context.TODO(), true), &d.locker, d.closer.Close)
}
