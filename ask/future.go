// Package ask implements the thin Future/Promise-based request-response
// layer spec.md §1 calls out as an external collaborator over the untyped
// core ("the typed Behavior DSL and Ask future machinery... thin wrappers
// over the untyped core"). It is grounded on the teacher's own
// Future[T]/Promise[T] interfaces in internal/baselib/actor/interface.go,
// concretely implemented here over a channel and lnd's fn.Result[T].
package ask

import (
	"context"
	"sync"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// Future represents the result of an in-flight Ask, mirroring the teacher's
// Future[T] contract exactly.
type Future[T any] interface {
	// Await blocks until the result is available or ctx is cancelled.
	Await(ctx context.Context) fn.Result[T]

	// ThenApply returns a new Future that transforms this one's result
	// once available, without mutating the receiver.
	ThenApply(ctx context.Context, f func(T) T) Future[T]

	// OnComplete registers a callback invoked once the result is ready,
	// or with a context-error Result if ctx is cancelled first.
	OnComplete(ctx context.Context, f func(fn.Result[T]))
}

// Promise is the producer side of a Future, mirroring the teacher's
// Promise[T] contract exactly.
type Promise[T any] interface {
	// Future returns the associated Future.
	Future() Future[T]

	// Complete sets the result. Returns true if this call won the race
	// to complete it first, false if it was already completed.
	Complete(result fn.Result[T]) bool
}

type promise[T any] struct {
	mu        sync.Mutex
	done      chan struct{}
	result    fn.Result[T]
	completed bool
}

// NewPromise constructs an uncompleted Promise.
func NewPromise[T any]() Promise[T] {
	return &promise[T]{done: make(chan struct{})}
}

// Future implements Promise.
func (p *promise[T]) Future() Future[T] { return (*future[T])(p) }

// Complete implements Promise.
func (p *promise[T]) Complete(result fn.Result[T]) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.completed {
		return false
	}

	p.completed = true
	p.result = result
	close(p.done)

	return true
}

type future[T any] promise[T]

func (f *future[T]) Await(ctx context.Context) fn.Result[T] {
	select {
	case <-f.done:
		f.mu.Lock()
		defer f.mu.Unlock()

		return f.result

	case <-ctx.Done():
		return fn.Err[T](ctx.Err())
	}
}

func (f *future[T]) ThenApply(ctx context.Context, mapFn func(T) T) Future[T] {
	next := NewPromise[T]()

	go func() {
		result := f.Await(ctx)

		val, err := result.Unpack()
		if err != nil {
			next.Complete(fn.Err[T](err))

			return
		}

		next.Complete(fn.Ok(mapFn(val)))
	}()

	return next.Future()
}

func (f *future[T]) OnComplete(ctx context.Context, cb func(fn.Result[T])) {
	go cb(f.Await(ctx))
}
