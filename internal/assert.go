package internal

import (
	"context"
	"fmt"

	"github.com/facebookincubator/go-belt/tool/logger"
)

// Assert panics through the logger of the context if an invariant of the
// resource bookkeeping does not hold.
func Assert(
	ctx context.Context,
	mustBeTrue bool,
	details ...any,
) {
	if mustBeTrue {
		return
	}

	if len(details) == 0 {
		logger.Panic(ctx, "invariant violated")
		return
	}

	logger.Panic(ctx, "invariant violated: "+fmt.Sprint(details...))
}
