package core

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

type task struct {
	fn     func() error
	result chan error
}

// Hub runs every room mutation on a single goroutine.
// Tasks execute in submission order; work deferred by a task runs after it
// finishes and before the next task starts.
type Hub struct {
	tasks    chan *task
	deferred []func()
	done     chan struct{}
	log      *zerolog.Logger
}

// NewHub creates a hub. Call Run to start processing.
func NewHub(logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Hub{
		tasks: make(chan *task, 64),
		done:  make(chan struct{}),
		log:   logger,
	}
}

// Run processes tasks until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	h.log.Debug().Msg("hub started")
	for {
		select {
		case <-ctx.Done():
			h.log.Debug().Msg("hub stopped")
			return
		case t := <-h.tasks:
			err := h.exec(t.fn)
			h.flush()
			t.result <- err
		}
	}
}

// Do runs fn on the hub goroutine and waits for it.
// It must not be called from inside another hub task.
func (h *Hub) Do(ctx context.Context, fn func() error) error {
	t := &task{fn: fn, result: make(chan error, 1)}
	select {
	case h.tasks <- t:
	case <-ctx.Done():
		return ctx.Err()
	case <-h.done:
		return ErrHubStopped
	}

	select {
	case err := <-t.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-h.done:
		return ErrHubStopped
	}
}

// Defer schedules fn after the running task. It must be called from a hub task.
func (h *Hub) Defer(fn func()) {
	h.deferred = append(h.deferred, fn)
}

func (h *Hub) flush() {
	for len(h.deferred) > 0 {
		batch := h.deferred
		h.deferred = nil
		for _, fn := range batch {
			if err := h.exec(func() error { fn(); return nil }); err != nil {
				h.log.Error().Err(err).Msg("deferred task failed")
			}
		}
	}
}

func (h *Hub) exec(fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			h.log.Error().Interface("panic", p).Msg("hub task panicked")
			err = fmt.Errorf("hub task panicked: %v", p)
		}
	}()
	return fn()
}
