package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func coordinators() map[string]func() Coordinator {
	return map[string]func() Coordinator{
		"mutex":     func() Coordinator { return NewReadyQueueCoordinator() },
		"lock-free": func() Coordinator { return NewLockFreeCoordinator() },
	}
}

func TestCoordinator_DedupBeforeDrain(t *testing.T) {
	for name, build := range coordinators() {
		t.Run(name, func(t *testing.T) {
			c := build()

			idx := MailboxIndex{Slot: 1}
			c.RegisterReady(idx)
			c.RegisterReady(idx)
			c.RegisterReady(idx)

			out := c.DrainReadyCycle(10, nil)
			assert.Equal(t, []MailboxIndex{idx}, out)

			// After a drain, a fresh RegisterReady must surface again.
			c.RegisterReady(idx)
			out = c.DrainReadyCycle(10, nil)
			assert.Equal(t, []MailboxIndex{idx}, out)
		})
	}
}

func TestCoordinator_FIFOOrder(t *testing.T) {
	for name, build := range coordinators() {
		t.Run(name, func(t *testing.T) {
			c := build()

			for _, n := range []int{1, 2, 1, 3} {
				c.RegisterReady(MailboxIndex{Slot: n})
			}

			out := c.DrainReadyCycle(10, nil)
			require.Len(t, out, 3)

			slots := make([]int, len(out))
			for i, idx := range out {
				slots[i] = idx.Slot
			}
			assert.Equal(t, []int{1, 2, 3}, slots)
		})
	}
}

func TestCoordinator_UnregisterSkipsStaleEntry(t *testing.T) {
	for name, build := range coordinators() {
		t.Run(name, func(t *testing.T) {
			c := build()

			idx := MailboxIndex{Slot: 5}
			c.RegisterReady(idx)
			c.Unregister(idx)

			out := c.DrainReadyCycle(10, nil)
			assert.Empty(t, out)
		})
	}
}

func TestCoordinator_HandleInvokeResult(t *testing.T) {
	for name, build := range coordinators() {
		t.Run(name, func(t *testing.T) {
			c := build()
			idx := MailboxIndex{Slot: 0}

			c.RegisterReady(idx)
			c.DrainReadyCycle(10, nil)

			c.HandleInvokeResult(idx, Completed{ReadyHint: true})
			out := c.DrainReadyCycle(10, nil)
			assert.Equal(t, []MailboxIndex{idx}, out)

			c.HandleInvokeResult(idx, Completed{ReadyHint: false})
			out = c.DrainReadyCycle(10, nil)
			assert.Empty(t, out)

			c.RegisterReady(idx)
			c.DrainReadyCycle(10, nil)
			c.HandleInvokeResult(idx, Stopped{})
			out = c.DrainReadyCycle(10, nil)
			assert.Empty(t, out)
		})
	}
}

func TestCoordinator_WaitUnblocksOnRegister(t *testing.T) {
	for name, build := range coordinators() {
		t.Run(name, func(t *testing.T) {
			c := build()

			done := make(chan error, 1)
			go func() {
				done <- c.Wait(context.Background())
			}()

			time.Sleep(10 * time.Millisecond)
			c.RegisterReady(MailboxIndex{Slot: 1})

			select {
			case err := <-done:
				assert.NoError(t, err)
			case <-time.After(time.Second):
				t.Fatal("Wait did not unblock after RegisterReady")
			}
		})
	}
}

func TestCoordinator_WaitRespectsContextCancellation(t *testing.T) {
	for name, build := range coordinators() {
		t.Run(name, func(t *testing.T) {
			c := build()

			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer cancel()

			err := c.Wait(ctx)
			assert.Error(t, err)
		})
	}
}

// TestCoordinator_DedupFIFOProperty exercises spec.md §8 invariant 1 and
// scenario 5 together: an arbitrary sequence of register_ready calls with
// duplicates, drained in one cycle, must dedup (each index appears at most
// once per drain) and preserve first-seen order (FIFO).
func TestCoordinator_DedupFIFOProperty(t *testing.T) {
	for name, build := range coordinators() {
		t.Run(name, func(t *testing.T) {
			rapid.Check(t, func(rt *rapid.T) {
				c := build()

				n := rapid.IntRange(1, 50).Draw(rt, "n")
				slots := make([]int, n)
				for i := range slots {
					slots[i] = rapid.IntRange(0, 9).Draw(rt, "slot")
				}

				var firstSeen []int
				seen := make(map[int]bool)
				for _, s := range slots {
					if !seen[s] {
						seen[s] = true
						firstSeen = append(firstSeen, s)
					}
					c.RegisterReady(MailboxIndex{Slot: s})
				}

				out := c.DrainReadyCycle(len(slots)+1, nil)

				gotSlots := make([]int, len(out))
				for i, idx := range out {
					gotSlots[i] = idx.Slot
				}

				require.Equal(rt, firstSeen, gotSlots)

				// A further drain before any re-registration yields nothing.
				again := c.DrainReadyCycle(len(slots)+1, nil)
				require.Empty(rt, again)
			})
		})
	}
}
