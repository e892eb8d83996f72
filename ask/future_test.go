package ask

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromise_CompleteUnblocksAwait(t *testing.T) {
	p := NewPromise[int]()

	done := make(chan fn.Result[int], 1)
	go func() { done <- p.Future().Await(context.Background()) }()

	time.Sleep(10 * time.Millisecond)
	ok := p.Complete(fn.Ok(42))
	assert.True(t, ok)

	select {
	case result := <-done:
		val, err := result.Unpack()
		require.NoError(t, err)
		assert.Equal(t, 42, val)
	case <-time.After(time.Second):
		t.Fatal("Await did not unblock after Complete")
	}
}

func TestPromise_CompleteOnlyWinsOnce(t *testing.T) {
	p := NewPromise[int]()

	var wg sync.WaitGroup
	results := make([]bool, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = p.Complete(fn.Ok(i))
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, won := range results {
		if won {
			wins++
		}
	}
	assert.Equal(t, 1, wins)
}

func TestFuture_AwaitRespectsContextCancellation(t *testing.T) {
	p := NewPromise[int]()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	result := p.Future().Await(ctx)
	_, err := result.Unpack()
	assert.Error(t, err)
}

func TestFuture_ThenApplyTransformsResult(t *testing.T) {
	p := NewPromise[int]()
	chained := p.Future().ThenApply(context.Background(), func(v int) int { return v * 2 })

	require.True(t, p.Complete(fn.Ok(21)))

	val, err := chained.Await(context.Background()).Unpack()
	require.NoError(t, err)
	assert.Equal(t, 42, val)
}

func TestFuture_OnCompleteInvokesCallback(t *testing.T) {
	p := NewPromise[int]()

	received := make(chan fn.Result[int], 1)
	p.Future().OnComplete(context.Background(), func(r fn.Result[int]) { received <- r })

	require.True(t, p.Complete(fn.Ok(7)))

	select {
	case r := <-received:
		val, err := r.Unpack()
		require.NoError(t, err)
		assert.Equal(t, 7, val)
	case <-time.After(time.Second):
		t.Fatal("OnComplete callback was never invoked")
	}
}
