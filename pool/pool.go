// Package pool provides a capacity-bounded pool of pre-allocated objects.
//
// Objects are registered once (AddObject) and then circulate between the
// free list and their users; the pool never allocates on Acquire.
package pool

import (
	"context"
	"fmt"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/xsync"
)

// FormatEncoded marks pools of surfaces whose pixel layout is opaque
// (owned by the driver).
const FormatEncoded = "encoded"

// Format describes the objects kept in a pool.
type Format struct {
	Name   string
	Width  uint
	Height uint
}

func (f Format) String() string {
	return fmt.Sprintf("%s:%dx%d", f.Name, f.Width, f.Height)
}

type Pool[T comparable] struct {
	locker   xsync.Mutex
	format   Format
	capacity int
	objects  map[T]bool // value: true if the object is acquired
	free     []T
	isClosed bool
}

func New[T comparable](format Format) *Pool[T] {
	return &Pool[T]{
		format:  format,
		objects: map[T]bool{},
	}
}

func (p *Pool[T]) Format() Format {
	return p.format
}

// SetCapacity sets the maximal amount of objects the pool may hold.
func (p *Pool[T]) SetCapacity(ctx context.Context, capacity int) {
	p.locker.Do(xsync.WithNoLogging(ctx, true), func() {
		p.capacity = capacity
	})
}

func (p *Pool[T]) Capacity() int {
	return xsync.DoR1(xsync.WithNoLogging(context.TODO(), true), &p.locker, func() int {
		return p.capacity
	})
}

// AddObject registers a new object as available.
func (p *Pool[T]) AddObject(ctx context.Context, obj T) error {
	return xsync.DoR1(xsync.WithNoLogging(ctx, true), &p.locker, func() error {
		switch {
		case p.isClosed:
			return fmt.Errorf("the pool is closed")
		case len(p.objects) >= p.capacity:
			return fmt.Errorf("the pool is full: capacity is %d", p.capacity)
		}
		if _, ok := p.objects[obj]; ok {
			return fmt.Errorf("object %v is already in the pool", obj)
		}
		p.objects[obj] = false
		p.free = append(p.free, obj)
		return nil
	})
}

// Acquire takes a free object; it never blocks and returns false if
// there is none.
func (p *Pool[T]) Acquire(ctx context.Context) (T, bool) {
	return xsync.DoR2(xsync.WithNoLogging(ctx, true), &p.locker, func() (T, bool) {
		var zeroValue T
		if p.isClosed || len(p.free) == 0 {
			return zeroValue, false
		}
		obj := p.free[0]
		p.free = p.free[1:]
		p.objects[obj] = true
		return obj, true
	})
}

// Release returns an acquired object to the free list. Objects released
// into a closed pool (or not acquired from it) are dropped.
func (p *Pool[T]) Release(ctx context.Context, obj T) bool {
	return xsync.DoR1(xsync.WithNoLogging(ctx, true), &p.locker, func() bool {
		if p.isClosed {
			logger.Tracef(ctx, "releasing %v into a closed pool", obj)
			return false
		}
		acquired, ok := p.objects[obj]
		if !ok || !acquired {
			logger.Debugf(ctx, "object %v is not acquired from the pool", obj)
			return false
		}
		p.objects[obj] = false
		p.free = append(p.free, obj)
		return true
	})
}

// Size returns the amount of free objects.
func (p *Pool[T]) Size() int {
	return xsync.DoR1(xsync.WithNoLogging(context.TODO(), true), &p.locker, func() int {
		return len(p.free)
	})
}

// Close forgets all the objects and returns the ones which were acquired
// at that moment; the pool is unusable afterwards.
func (p *Pool[T]) Close(ctx context.Context) []T {
	return xsync.DoR1(xsync.WithNoLogging(ctx, true), &p.locker, func() []T {
		var acquired []T
		for obj, isAcquired := range p.objects {
			if isAcquired {
				acquired = append(acquired, obj)
			}
		}
		p.isClosed = true
		p.objects = nil
		p.free = nil
		return acquired
	})
}
