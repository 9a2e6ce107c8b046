package manager

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/vacontext"
	"github.com/xaionaro-go/vacontext/va"
	"github.com/xaionaro-go/vacontext/va/vafake"
)

func TestFactory(t *testing.T) {
	ctx := testCtx(t)
	drv := newDriver()
	f := NewFactory(va.NewDisplay(drv, nil))

	c0, err := f.NewContext(ctx, encodeDescriptor())
	require.NoError(t, err)
	c1, err := f.NewContext(ctx, vacontext.Descriptor{
		Profile:    vacontext.ProfileHEVCMain,
		EntryPoint: vacontext.EntryPointVLD,
		Width:      1280,
		Height:     720,
		RefFrames:  16,
	})
	require.NoError(t, err)
	require.Equal(t, 2, f.ContextCount())
	require.Equal(t, 20, c1.GetSurfaceCount())

	require.NoError(t, c0.Close(ctx))
	require.Equal(t, 1, f.ContextCount())

	require.NoError(t, f.Close())
	require.Zero(t, f.ContextCount())
	requireNoLeaks(t, drv)
	require.Equal(t, va.InvalidID, c1.GetID())

	_, err = f.NewContext(ctx, encodeDescriptor())
	require.ErrorIs(t, err, vacontext.ErrClosed)
}

func TestFactoryCreateFailure(t *testing.T) {
	ctx := testCtx(t)
	drv := newDriver()
	f := NewFactory(va.NewDisplay(drv, nil))

	d := encodeDescriptor()
	d.Profile = vacontext.ProfileVP9Profile0
	_, err := f.NewContext(ctx, d)
	require.Error(t, err)
	require.Zero(t, f.ContextCount())
	requireNoLeaks(t, drv)
}

type blockingDriver struct {
	*vafake.Driver
	entered chan struct{}
	proceed chan struct{}
}

func (d *blockingDriver) CreateContext(
	config va.ID,
	width, height int,
	flag int32,
	renderTargets []va.ID,
) (va.ID, va.Status) {
	close(d.entered)
	<-d.proceed
	return d.Driver.CreateContext(config, width, height, flag, renderTargets)
}

func TestFactoryCloseDuringNewContext(t *testing.T) {
	ctx := testCtx(t)
	drv := &blockingDriver{
		Driver:  newDriver(),
		entered: make(chan struct{}),
		proceed: make(chan struct{}),
	}
	f := NewFactory(va.NewDisplay(drv, nil))

	errCh := make(chan error, 1)
	go func() {
		_, err := f.NewContext(ctx, encodeDescriptor())
		errCh <- err
	}()

	<-drv.entered
	require.NoError(t, f.Close())
	close(drv.proceed)

	require.ErrorIs(t, <-errCh, vacontext.ErrClosed)
	require.Zero(t, f.ContextCount())
	requireNoLeaks(t, drv.Driver)
}
