package overlay

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/vacontext/va"
)

func TestOverlayLifecycle(t *testing.T) {
	ctx := context.Background()
	o := New(ctx)

	require.NoError(t, o.SetComposition(ctx, va.ID(1), []Layer{{Width: 10, Height: 10, GlobalAlpha: 1}}))
	require.Len(t, o.Composition(ctx, va.ID(1)), 1)

	require.NoError(t, o.Reset(ctx))
	require.Empty(t, o.Composition(ctx, va.ID(1)))
	require.Equal(t, 1, o.ResetCount())

	o.Finalize(ctx)
	require.Error(t, o.Reset(ctx))
	require.Error(t, o.SetComposition(ctx, va.ID(1), []Layer{{}}))

	o.Init(ctx)
	require.NoError(t, o.Reset(ctx))
}

func TestOverlaySharedOwners(t *testing.T) {
	ctx := context.Background()
	o := New(ctx)
	o.Attach(ctx)
	o.Attach(ctx)
	require.Equal(t, 2, o.Owners())

	require.NoError(t, o.Destroy(ctx))
	require.Equal(t, 1, o.Owners())
	require.NoError(t, o.Reset(ctx))

	require.NoError(t, o.Destroy(ctx))
	require.Zero(t, o.Owners())
	require.Error(t, o.Reset(ctx))

	o.Attach(ctx)
	require.NoError(t, o.Reset(ctx))
}
