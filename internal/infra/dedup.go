// Package infra provides shared infrastructure components for the wiki client.
package infra

import (
	"context"
	"sync"
)

// RequestDeduplicator coalesces identical in-flight calls. When several
// goroutines ask for the same key at once, fn runs once and every waiter
// receives its result.
type RequestDeduplicator[T any] struct {
	mu       sync.Mutex
	inflight map[string]*inflightCall[T]
}

type inflightCall[T any] struct {
	done    chan struct{}
	result  T
	err     error
	waiters int
}

// NewRequestDeduplicator creates an empty deduplicator
func NewRequestDeduplicator[T any]() *RequestDeduplicator[T] {
	return &RequestDeduplicator[T]{
		inflight: make(map[string]*inflightCall[T]),
	}
}

// Do executes fn unless a call with the same key is already running, in
// which case it waits for that call. shared is true when the result came
// from another caller's fn. A waiter whose ctx ends stops waiting; the
// running call is not interrupted.
//
// fn must not call Do with the same key on the same goroutine.
func (d *RequestDeduplicator[T]) Do(ctx context.Context, key string, fn func() (T, error)) (result T, shared bool, err error) {
	d.mu.Lock()
	if call, ok := d.inflight[key]; ok {
		call.waiters++
		d.mu.Unlock()

		select {
		case <-call.done:
			return call.result, true, call.err
		case <-ctx.Done():
			var zero T
			return zero, false, ctx.Err()
		}
	}

	call := &inflightCall[T]{
		done:    make(chan struct{}),
		waiters: 1,
	}
	d.inflight[key] = call
	d.mu.Unlock()

	call.result, call.err = fn()
	close(call.done)

	d.mu.Lock()
	delete(d.inflight, key)
	d.mu.Unlock()

	return call.result, false, call.err
}

// Stats returns the number of keys currently in flight
func (d *RequestDeduplicator[T]) Stats() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.inflight)
}
