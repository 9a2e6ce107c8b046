package internal

import (
	"context"
	"runtime"

	"github.com/facebookincubator/go-belt/tool/logger"
)

// SetFinalizer calls the callback when obj becomes unreachable, unless
// ClearFinalizer is called before that.
func SetFinalizer[T any](
	ctx context.Context,
	obj *T,
	callback func(in *T),
) {
	runtime.SetFinalizer(obj, func(obj *T) {
		logger.Tracef(ctx, "finalizing %T", obj)
		callback(obj)
	})
}

func ClearFinalizer[T any](obj *T) {
	runtime.SetFinalizer(obj, nil)
}
