package manager

import (
	"context"
	"testing"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/vacontext"
	"github.com/xaionaro-go/vacontext/overlay"
	"github.com/xaionaro-go/vacontext/surface"
	"github.com/xaionaro-go/vacontext/va"
	"github.com/xaionaro-go/vacontext/va/vafake"
)

func testCtx(t *testing.T) context.Context {
	l := logrus.Default().WithLevel(logger.LevelTrace)
	ctx := logger.CtxWithLogger(context.Background(), l)
	t.Cleanup(func() { belt.Flush(ctx) })
	return ctx
}

func newDriver() *vafake.Driver {
	encode := vafake.Capability{
		va.ConfigAttribRTFormat:       va.RTFormatYUV420,
		va.ConfigAttribRateControl:    va.RCCBR | va.RCVBR | va.RCNone,
		va.ConfigAttribEncMaxRefFrames: 4,
	}
	decode := vafake.Capability{
		va.ConfigAttribRTFormat: va.RTFormatYUV420 | va.RTFormatYUV420_10,
	}
	drv := vafake.New()
	for _, profile := range []va.Profile{va.ProfileH264Main, va.ProfileH264High, va.ProfileHEVCMain} {
		drv.SetCapability(profile, va.EntrypointEncSlice, encode)
		drv.SetCapability(profile, va.EntrypointVLD, decode)
	}
	return drv
}

func encodeDescriptor() vacontext.Descriptor {
	return vacontext.Descriptor{
		Profile:     vacontext.ProfileH264High,
		EntryPoint:  vacontext.EntryPointSliceEncode,
		Width:       1920,
		Height:      1080,
		RefFrames:   2,
		RateControl: vacontext.RateControlCBR,
	}
}

func requireNoLeaks(t *testing.T, drv *vafake.Driver) {
	require.Zero(t, drv.LiveContexts(), drv.String())
	require.Zero(t, drv.LiveConfigs(), drv.String())
	require.Zero(t, drv.LiveSurfaces(), drv.String())
}

func TestNewEncode(t *testing.T) {
	ctx := testCtx(t)
	drv := newDriver()

	m, err := New(ctx, va.NewDisplay(drv, nil), encodeDescriptor())
	require.NoError(t, err)

	require.Equal(t, 6, m.GetSurfaceCount())
	require.NotEqual(t, va.InvalidID, m.GetID())
	require.NotEqual(t, va.InvalidID, m.ConfigID())
	require.Equal(t, encodeDescriptor(), m.GetDescriptor())

	renderTargets, ok := drv.ContextRenderTargets(m.GetID())
	require.True(t, ok)
	require.Equal(t, m.SurfaceIDs(), renderTargets)

	attribs, ok := drv.ConfigAttribs(m.ConfigID())
	require.True(t, ok)
	require.Contains(t, attribs, va.ConfigAttrib{Type: va.ConfigAttribRateControl, Value: va.RCCBR})

	for _, id := range m.SurfaceIDs() {
		w, h, ok := drv.SurfaceSize(id)
		require.True(t, ok)
		require.Equal(t, uint(1920), w)
		require.Equal(t, uint(1080), h)
	}

	require.NoError(t, m.Close(ctx))
	requireNoLeaks(t, drv)
	require.Equal(t, va.InvalidID, m.GetID())

	// idempotent
	require.NoError(t, m.Close(ctx))
}

func TestNewUnsupportedRateControl(t *testing.T) {
	ctx := testCtx(t)
	drv := vafake.New().SetCapability(va.ProfileH264High, va.EntrypointEncSlice, vafake.Capability{
		va.ConfigAttribRTFormat:    va.RTFormatYUV420,
		va.ConfigAttribRateControl: va.RCVBR,
	})

	_, err := New(ctx, va.NewDisplay(drv, nil), encodeDescriptor())
	var errRC vacontext.ErrUnsupportedRateControl
	require.ErrorAs(t, err, &errRC)
	require.Equal(t, vacontext.RateControlCBR, errRC.Mode)
	require.Zero(t, drv.Calls(vafake.CallCreateConfig))
	require.Zero(t, drv.Calls(vafake.CallCreateContext))
	requireNoLeaks(t, drv)
}

func TestNewUnsupportedPixelFormat(t *testing.T) {
	ctx := testCtx(t)
	drv := vafake.New().SetCapability(va.ProfileHEVCMain10, va.EntrypointVLD, vafake.Capability{
		va.ConfigAttribRTFormat: va.RTFormatYUV420_10,
	})

	_, err := New(ctx, va.NewDisplay(drv, nil), vacontext.Descriptor{
		Profile:    vacontext.ProfileHEVCMain10,
		EntryPoint: vacontext.EntryPointVLD,
		Width:      3840,
		Height:     2160,
	})
	var errFmt vacontext.ErrUnsupportedPixelFormat
	require.ErrorAs(t, err, &errFmt)
	requireNoLeaks(t, drv)
}

func TestNewInvalidDescriptor(t *testing.T) {
	ctx := testCtx(t)
	drv := newDriver()

	d := encodeDescriptor()
	d.Width = 0
	_, err := New(ctx, va.NewDisplay(drv, nil), d)
	var errInvalid vacontext.ErrInvalidDescriptor
	require.ErrorAs(t, err, &errInvalid)
	require.Zero(t, drv.Calls(vafake.CallCreateSurfaces))
}

func TestNewFailuresLeakNothing(t *testing.T) {
	for _, tc := range []struct {
		Call      string
		SkipCalls int
	}{
		{Call: vafake.CallCreateSurfaces, SkipCalls: 0},
		{Call: vafake.CallCreateSurfaces, SkipCalls: 3},
		{Call: vafake.CallGetConfigAttributes},
		{Call: vafake.CallCreateConfig},
		{Call: vafake.CallCreateContext},
	} {
		t.Run(tc.Call, func(t *testing.T) {
			ctx := testCtx(t)
			drv := newDriver().FailOn(tc.Call, va.StatusAllocationFailed, tc.SkipCalls)

			m, err := New(ctx, va.NewDisplay(drv, nil), encodeDescriptor())
			require.Error(t, err)
			require.Nil(t, m)

			var errStatus va.ErrStatus
			require.ErrorAs(t, err, &errStatus)
			require.Equal(t, tc.Call+"()", errStatus.Call)
			requireNoLeaks(t, drv)
		})
	}
}

func TestResetNoop(t *testing.T) {
	ctx := testCtx(t)
	drv := newDriver()

	m, err := New(ctx, va.NewDisplay(drv, nil), encodeDescriptor())
	require.NoError(t, err)
	defer m.Close(ctx)

	contextID, configID, surfaceIDs := m.GetID(), m.ConfigID(), m.SurfaceIDs()
	require.NoError(t, m.Reset(ctx, encodeDescriptor()))

	require.Equal(t, contextID, m.GetID())
	require.Equal(t, configID, m.ConfigID())
	require.Equal(t, surfaceIDs, m.SurfaceIDs())
	require.Equal(t, 1, drv.Calls(vafake.CallCreateConfig))
	require.Equal(t, 1, drv.Calls(vafake.CallCreateContext))
	require.Zero(t, drv.Calls(vafake.CallDestroySurfaces))
}

func TestResetSize(t *testing.T) {
	ctx := testCtx(t)
	drv := newDriver()

	m, err := New(ctx, va.NewDisplay(drv, nil), encodeDescriptor())
	require.NoError(t, err)
	defer m.Close(ctx)

	configID, oldSurfaceIDs := m.ConfigID(), m.SurfaceIDs()

	d := encodeDescriptor()
	d.Width, d.Height = 1280, 720
	require.NoError(t, m.Reset(ctx, d))

	require.Equal(t, configID, m.ConfigID())
	require.Equal(t, 1, drv.Calls(vafake.CallCreateConfig))
	require.Equal(t, 2, drv.Calls(vafake.CallCreateContext))
	require.Equal(t, 1, drv.LiveContexts())
	require.Equal(t, 6, drv.LiveSurfaces())
	require.Equal(t, 6, m.GetSurfaceCount())

	newSurfaceIDs := m.SurfaceIDs()
	for _, id := range oldSurfaceIDs {
		require.NotContains(t, newSurfaceIDs, id)
	}
	for _, id := range newSurfaceIDs {
		w, h, ok := drv.SurfaceSize(id)
		require.True(t, ok)
		require.Equal(t, uint(1280), w)
		require.Equal(t, uint(720), h)
	}
	renderTargets, ok := drv.ContextRenderTargets(m.GetID())
	require.True(t, ok)
	require.Equal(t, newSurfaceIDs, renderTargets)
	require.Equal(t, d, m.GetDescriptor())
}

func TestResetRefFrames(t *testing.T) {
	ctx := testCtx(t)
	drv := newDriver()

	m, err := New(ctx, va.NewDisplay(drv, nil), encodeDescriptor())
	require.NoError(t, err)
	defer m.Close(ctx)

	d := encodeDescriptor()
	d.RefFrames = 4
	require.NoError(t, m.Reset(ctx, d))
	require.Equal(t, 8, m.GetSurfaceCount())
	require.Equal(t, 8, drv.LiveSurfaces())
}

func TestResetProfile(t *testing.T) {
	ctx := testCtx(t)
	drv := newDriver()

	m, err := New(ctx, va.NewDisplay(drv, nil), encodeDescriptor())
	require.NoError(t, err)
	defer m.Close(ctx)

	configID, surfaceIDs := m.ConfigID(), m.SurfaceIDs()

	d := encodeDescriptor()
	d.Profile = vacontext.ProfileH264Main
	require.NoError(t, m.Reset(ctx, d))

	require.Equal(t, surfaceIDs, m.SurfaceIDs())
	require.NotEqual(t, configID, m.ConfigID())
	require.Equal(t, 2, drv.Calls(vafake.CallCreateConfig))
	require.Equal(t, 1, drv.LiveConfigs())
	require.Equal(t, 1, drv.LiveContexts())
	require.Zero(t, drv.Calls(vafake.CallDestroySurfaces))
}

func TestResetRateControl(t *testing.T) {
	ctx := testCtx(t)
	drv := newDriver()

	m, err := New(ctx, va.NewDisplay(drv, nil), encodeDescriptor())
	require.NoError(t, err)
	defer m.Close(ctx)

	d := encodeDescriptor()
	d.RateControl = vacontext.RateControlVBR
	require.NoError(t, m.Reset(ctx, d))
	attribs, ok := drv.ConfigAttribs(m.ConfigID())
	require.True(t, ok)
	require.Contains(t, attribs, va.ConfigAttrib{Type: va.ConfigAttribRateControl, Value: va.RCVBR})
	require.Equal(t, 2, drv.Calls(vafake.CallCreateConfig))
}

func TestResetRateControlIgnoredForDecode(t *testing.T) {
	ctx := testCtx(t)
	drv := newDriver()

	d := vacontext.Descriptor{
		Profile:    vacontext.ProfileHEVCMain,
		EntryPoint: vacontext.EntryPointVLD,
		Width:      1920,
		Height:     1080,
	}
	m, err := New(ctx, va.NewDisplay(drv, nil), d)
	require.NoError(t, err)
	defer m.Close(ctx)

	d.RateControl = vacontext.RateControlVBR
	require.NoError(t, m.Reset(ctx, d))
	require.Equal(t, 1, drv.Calls(vafake.CallCreateConfig))
	require.Equal(t, 1, drv.Calls(vafake.CallCreateContext))
}

func TestResetFailureRecovers(t *testing.T) {
	ctx := testCtx(t)
	drv := newDriver()

	m, err := New(ctx, va.NewDisplay(drv, nil), encodeDescriptor())
	require.NoError(t, err)
	defer m.Close(ctx)

	d := encodeDescriptor()
	d.Profile = vacontext.ProfileH264Main
	drv.FailOn(vafake.CallCreateContext, va.StatusAllocationFailed, 0)
	require.Error(t, m.Reset(ctx, d))
	require.Equal(t, va.InvalidID, m.GetID())
	require.Equal(t, va.InvalidID, m.ConfigID())
	require.Zero(t, drv.LiveConfigs())
	require.Equal(t, d, m.GetDescriptor())

	drv.ClearFailures()
	require.NoError(t, m.Reset(ctx, d))
	require.NotEqual(t, va.InvalidID, m.GetID())
	require.Equal(t, 1, drv.LiveConfigs())
	require.Equal(t, 1, drv.LiveContexts())
}

func TestSurfaceProxy(t *testing.T) {
	ctx := testCtx(t)
	drv := newDriver()

	m, err := New(ctx, va.NewDisplay(drv, nil), encodeDescriptor())
	require.NoError(t, err)
	defer m.Close(ctx)

	var proxies []vacontext.SurfaceProxy
	for i := 0; i < 6; i++ {
		proxy, err := m.GetSurfaceProxy(ctx)
		require.NoError(t, err)
		require.Contains(t, m.SurfaceIDs(), proxy.SurfaceID())
		proxies = append(proxies, proxy)
	}
	require.Zero(t, m.GetSurfaceCount())

	_, err = m.GetSurfaceProxy(ctx)
	require.ErrorIs(t, err, vacontext.ErrNoSurfaceAvailable)

	proxies[0].Release(ctx)
	require.Equal(t, 1, m.GetSurfaceCount())
	proxies[0].Release(ctx)
	require.Equal(t, 1, m.GetSurfaceCount())

	proxy, err := m.GetSurfaceProxy(ctx)
	require.NoError(t, err)
	require.Equal(t, proxies[0].SurfaceID(), proxy.SurfaceID())
}

func TestSurfaceParent(t *testing.T) {
	ctx := testCtx(t)
	drv := newDriver()

	m, err := New(ctx, va.NewDisplay(drv, nil), encodeDescriptor())
	require.NoError(t, err)

	proxy, err := m.GetSurfaceProxy(ctx)
	require.NoError(t, err)
	s := proxy.(*surface.Proxy).Surface()

	parent, ok := ParentOf(s)
	require.True(t, ok)
	require.Same(t, m, parent)

	require.NoError(t, m.Close(ctx))
	_, ok = ParentOf(s)
	require.False(t, ok)
	_, ok = Lookup(m.ref)
	require.False(t, ok)

	_, err = m.GetSurfaceProxy(ctx)
	require.ErrorIs(t, err, vacontext.ErrClosed)
	require.ErrorIs(t, m.Reset(ctx, encodeDescriptor()), vacontext.ErrClosed)
}

func TestGetAttribute(t *testing.T) {
	ctx := testCtx(t)
	drv := newDriver()

	m, err := New(ctx, va.NewDisplay(drv, nil), encodeDescriptor())
	require.NoError(t, err)
	defer m.Close(ctx)

	v, err := m.GetAttribute(ctx, va.ConfigAttribEncMaxRefFrames)
	require.NoError(t, err)
	require.Equal(t, uint32(4), v)

	_, err = m.GetAttribute(ctx, va.ConfigAttribEncMaxSlices)
	var errNS vacontext.ErrAttributeNotSupported
	require.ErrorAs(t, err, &errNS)
	require.Equal(t, va.ConfigAttribEncMaxSlices, errNS.Type)
}

func TestOverlayOption(t *testing.T) {
	ctx := testCtx(t)
	drv := newDriver()

	o := overlay.New(ctx)
	m, err := New(ctx, va.NewDisplay(drv, nil), encodeDescriptor(), OptionOverlay{Overlay: o})
	require.NoError(t, err)
	require.Same(t, o, m.Overlay())

	ids := m.SurfaceIDs()
	require.NoError(t, o.SetComposition(ctx, ids[0], []overlay.Layer{{Width: 100, Height: 50, GlobalAlpha: 1}}))

	d := encodeDescriptor()
	d.Width = 1280
	require.NoError(t, m.Reset(ctx, d))
	require.Empty(t, o.Composition(ctx, ids[0]))

	require.NoError(t, m.Close(ctx))
	require.Error(t, o.Reset(ctx))
}

func TestResetSurfaceFailureRecovers(t *testing.T) {
	ctx := testCtx(t)
	drv := newDriver()

	m, err := New(ctx, va.NewDisplay(drv, nil), encodeDescriptor())
	require.NoError(t, err)
	configID := m.ConfigID()

	d := encodeDescriptor()
	d.Width, d.Height = 1280, 720
	drv.FailOn(vafake.CallCreateSurfaces, va.StatusAllocationFailed, 2)
	err = m.Reset(ctx, d)
	var errStatus va.ErrStatus
	require.ErrorAs(t, err, &errStatus)
	require.Equal(t, vafake.CallCreateSurfaces+"()", errStatus.Call)
	require.Equal(t, va.InvalidID, m.GetID())
	require.Zero(t, drv.LiveContexts())
	require.Equal(t, d, m.GetDescriptor())

	drv.ClearFailures()
	require.NoError(t, m.Reset(ctx, d))
	require.Equal(t, 6, m.GetSurfaceCount())
	require.Equal(t, 6, drv.LiveSurfaces())
	require.Equal(t, 1, drv.LiveContexts())
	require.Equal(t, configID, m.ConfigID())
	renderTargets, ok := drv.ContextRenderTargets(m.GetID())
	require.True(t, ok)
	require.Equal(t, m.SurfaceIDs(), renderTargets)

	require.NoError(t, m.Close(ctx))
	requireNoLeaks(t, drv)
}

func TestGetAttributeRateControl(t *testing.T) {
	ctx := testCtx(t)
	drv := newDriver()

	m, err := New(ctx, va.NewDisplay(drv, nil), encodeDescriptor())
	require.NoError(t, err)
	defer m.Close(ctx)

	v, err := m.GetAttribute(ctx, va.ConfigAttribRateControl)
	require.NoError(t, err)
	require.NotZero(t, v&va.RCCBR)
	require.NotEqual(t, va.AttribNotSupported, v)
}

func TestNewUnknownRateControl(t *testing.T) {
	ctx := testCtx(t)
	drv := newDriver()

	d := encodeDescriptor()
	d.RateControl = vacontext.RateControl(99)
	_, err := New(ctx, va.NewDisplay(drv, nil), d)
	var errInvalid vacontext.ErrInvalidDescriptor
	require.ErrorAs(t, err, &errInvalid)
	require.Zero(t, drv.Calls(vafake.CallCreateConfig))
	requireNoLeaks(t, drv)
}

func TestSurfaceProxyOutlivesReset(t *testing.T) {
	ctx := testCtx(t)
	drv := newDriver()

	m, err := New(ctx, va.NewDisplay(drv, nil), encodeDescriptor())
	require.NoError(t, err)

	proxy, err := m.GetSurfaceProxy(ctx)
	require.NoError(t, err)
	heldID := proxy.SurfaceID()

	d := encodeDescriptor()
	d.Width = 1280
	require.NoError(t, m.Reset(ctx, d))

	require.Equal(t, heldID, proxy.SurfaceID())
	w, _, ok := drv.SurfaceSize(heldID)
	require.True(t, ok)
	require.Equal(t, uint(1920), w)
	require.NotContains(t, m.SurfaceIDs(), heldID)
	require.Equal(t, 7, drv.LiveSurfaces())
	require.Equal(t, 6, m.GetSurfaceCount())

	proxy.Release(ctx)
	require.Equal(t, 6, drv.LiveSurfaces())
	require.Equal(t, 6, m.GetSurfaceCount())

	require.NoError(t, m.Close(ctx))
	requireNoLeaks(t, drv)
}

func TestOverlaySharedBetweenContexts(t *testing.T) {
	ctx := testCtx(t)
	drv := newDriver()
	display := va.NewDisplay(drv, nil)

	o := overlay.New(ctx)
	m0, err := New(ctx, display, encodeDescriptor(), OptionOverlay{Overlay: o})
	require.NoError(t, err)
	m1, err := New(ctx, display, encodeDescriptor(), OptionOverlay{Overlay: o})
	require.NoError(t, err)
	require.Equal(t, 2, o.Owners())

	require.NoError(t, m0.Close(ctx))
	d := encodeDescriptor()
	d.Width = 1280
	require.NoError(t, m1.Reset(ctx, d))

	require.NoError(t, m1.Close(ctx))
	require.Error(t, o.Reset(ctx))
	requireNoLeaks(t, drv)
}
