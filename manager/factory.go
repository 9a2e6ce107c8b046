package manager

import (
	"context"
	"fmt"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/hashicorp/go-multierror"
	"github.com/xaionaro-go/vacontext"
	"github.com/xaionaro-go/vacontext/va"
	"github.com/xaionaro-go/xsync"
)

// Factory creates contexts on a display and closes the ones left open
// when it is closed itself. The display is borrowed: closing the factory
// does not close it.
type Factory struct {
	Display *va.Display

	locker   xsync.Mutex
	contexts map[*Manager]struct{}
	isClosed bool
}

var _ vacontext.Factory = (*Factory)(nil)

func NewFactory(display *va.Display) *Factory {
	return &Factory{
		Display:  display,
		contexts: map[*Manager]struct{}{},
	}
}

func (f *Factory) NewContext(
	ctx context.Context,
	descriptor vacontext.Descriptor,
	opts ...vacontext.Option,
) (_ret vacontext.Context, _err error) {
	logger.Debugf(ctx, "NewContext(ctx, %s, %#+v)", descriptor, opts)
	defer func() { logger.Debugf(ctx, "/NewContext(ctx, %s, %#+v): %v", descriptor, opts, _err) }()

	if xsync.DoR1(ctx, &f.locker, func() bool { return f.isClosed }) {
		return nil, vacontext.ErrClosed
	}

	m, err := New(ctx, f.Display, descriptor, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create a context for %s: %w", descriptor, err)
	}

	isRegistered := xsync.DoR1(ctx, &f.locker, func() bool {
		if f.isClosed {
			return false
		}
		f.contexts[m] = struct{}{}
		return true
	})
	if !isRegistered {
		if err := m.Close(ctx); err != nil {
			logger.Errorf(ctx, "unable to close the context created during the factory closure: %v", err)
		}
		return nil, vacontext.ErrClosed
	}
	return &factoryContext{Manager: m, factory: f}, nil
}

// ContextCount returns the amount of open contexts created by the factory.
func (f *Factory) ContextCount() int {
	return xsync.DoR1(context.TODO(), &f.locker, func() int {
		return len(f.contexts)
	})
}

func (f *Factory) forget(ctx context.Context, m *Manager) {
	f.locker.Do(ctx, func() {
		delete(f.contexts, m)
	})
}

// Close closes all the contexts created by the factory.
func (f *Factory) Close() error {
	ctx := context.TODO()
	contexts := xsync.DoR1(ctx, &f.locker, func() []*Manager {
		f.isClosed = true
		result := make([]*Manager, 0, len(f.contexts))
		for m := range f.contexts {
			result = append(result, m)
		}
		f.contexts = map[*Manager]struct{}{}
		return result
	})

	var result *multierror.Error
	for _, m := range contexts {
		if err := m.Close(ctx); err != nil {
			result = multierror.Append(result, fmt.Errorf("unable to close the context %s: %w", m.GetDescriptor(), err))
		}
	}
	return result.ErrorOrNil()
}

type factoryContext struct {
	*Manager
	factory *Factory
}

func (c *factoryContext) Close(ctx context.Context) error {
	defer c.factory.forget(ctx, c.Manager)
	return c.Manager.Close(ctx)
}
