package core

import "errors"

// ErrNilCallback is returned when subscribing a nil callback.
var ErrNilCallback = errors.New("nil callback")

// Disposable is anything that can be torn down once.
type Disposable interface {
	Dispose()
}

// Channel is a synchronous in-process publish/subscribe primitive.
// It is not safe for concurrent use; callers run it on the hub goroutine.
//
// Subscriptions are identified by their handle, not by the callback, since
// funcs are not comparable. Subscribing the same func twice yields two
// subscriptions, each disposed on its own.
type Channel[T any] struct {
	nextID uint64
	subs   map[uint64]func(T)
}

// Subscription is the handle returned by Channel.Subscribe.
type Subscription[T any] struct {
	ch *Channel[T]
	id uint64
}

// Subscribe registers fn and returns its handle. A nil fn fails with ErrNilCallback.
func (c *Channel[T]) Subscribe(fn func(T)) (*Subscription[T], error) {
	if fn == nil {
		return nil, ErrNilCallback
	}
	if c.subs == nil {
		c.subs = make(map[uint64]func(T))
	}
	c.nextID++
	c.subs[c.nextID] = fn
	return &Subscription[T]{ch: c, id: c.nextID}, nil
}

// Dispatch invokes every current subscriber with v. Order is unspecified.
func (c *Channel[T]) Dispatch(v T) {
	for _, fn := range c.subs {
		fn(v)
	}
}

// Len reports the number of active subscriptions.
func (c *Channel[T]) Len() int {
	return len(c.subs)
}

// Dispose removes the subscription. Calling it again does nothing.
func (s *Subscription[T]) Dispose() {
	if s == nil || s.ch == nil {
		return
	}
	delete(s.ch.subs, s.id)
	s.ch = nil
}

// Disposers tears down a group of subscriptions through one hook.
type Disposers []Disposable

// Add appends d to the group.
func (d *Disposers) Add(items ...Disposable) {
	*d = append(*d, items...)
}

// Dispose disposes every member and empties the group.
func (d *Disposers) Dispose() {
	for _, item := range *d {
		item.Dispose()
	}
	*d = nil
}

// listen subscribes fn to c and records the subscription in d.
// It panics on a nil callback, which only a programming error can produce.
func listen[T any](d *Disposers, c *Channel[T], fn func(T)) {
	sub, err := c.Subscribe(fn)
	if err != nil {
		panic(err)
	}
	d.Add(sub)
}
