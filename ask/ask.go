package ask

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lightningnetwork/lnd/fn/v2"
)

// Ask sends one request through send (which must stamp the given
// correlation ID into the outgoing message so the responder can address its
// reply) and awaits a typed response via store, honoring ctx and an
// optional per-call timeout. It is the Go realization of spec.md §9's "ask
// and request_with_sender" note: a thin wrapper that never touches
// scheduler internals directly, built entirely from CorrelationStore and a
// caller-supplied send closure.
//
// If timeout is zero, only ctx governs how long Ask waits.
func Ask[R any](
	ctx context.Context,
	store *CorrelationStore,
	send func(correlationID uuid.UUID) error,
	timeout time.Duration,
) (R, error) {
	var zero R

	promise := NewPromise[R]()

	id := store.Register(func(v any) {
		switch value := v.(type) {
		case fn.Result[R]:
			promise.Complete(value)
		case error:
			promise.Complete(fn.Err[R](value))
		default:
			promise.Complete(fn.Err[R](errors.New("ask: responder completed with unexpected type")))
		}
	})

	if err := send(id); err != nil {
		store.Drop(id, err)

		return zero, Error{Kind: SendFailed, Err: err}
	}

	askCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		askCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	result := promise.Future().Await(askCtx)

	val, err := result.Unpack()
	if err == nil {
		return val, nil
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		store.Drop(id, err)

		return zero, Error{Kind: Timeout, Err: err}

	case errors.Is(err, context.Canceled):
		store.Drop(id, err)

		return zero, Error{Kind: ResponseAwaitCancelled, Err: err}

	default:
		var askErr Error
		if errors.As(err, &askErr) {
			return zero, askErr
		}

		return zero, Error{Kind: ResponderDropped, Err: err}
	}
}
