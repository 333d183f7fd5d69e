package thread

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestFairnessOrder asserts the scheduler dispatches ready threads in strict
// FIFO order, and that each yield requeues at the tail: three threads each
// running two passes should interleave as A0 B0 C0 A1 B1 C1.
func TestFairnessOrder(t *testing.T) {
	s := New(WithPreemptionInterval(0))

	var mu sync.Mutex
	var order []string

	record := func(tag string) {
		mu.Lock()
		order = append(order, tag)
		mu.Unlock()
	}

	for _, name := range []string{"A", "B", "C"} {
		name := name
		_, err := s.Create(name, func(self *Thread) {
			record(name + "0")
			self.Yield()
			record(name + "1")
		})
		require.NoError(t, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Run(ctx))

	require.Equal(t, []string{"A0", "B0", "C0", "A1", "B1", "C1"}, order)
}

// TestWaitJoinsOnExit verifies that a thread blocked in Wait does not resume
// until its target has actually finished.
func TestWaitJoinsOnExit(t *testing.T) {
	s := New(WithPreemptionInterval(0))

	var mu sync.Mutex
	var order []string
	record := func(tag string) {
		mu.Lock()
		order = append(order, tag)
		mu.Unlock()
	}

	worker, err := s.Create("worker", func(self *Thread) {
		self.Yield()
		self.Yield()
		record("worker-done")
	})
	require.NoError(t, err)

	_, err = s.Create("joiner", func(self *Thread) {
		record("joiner-start")
		self.Wait(worker)
		record("joiner-resumed")
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Run(ctx))

	require.Len(t, order, 3)
	require.Equal(t, "joiner-start", order[0])
	require.Equal(t, "worker-done", order[1])
	require.Equal(t, "joiner-resumed", order[2])
}

// TestWaitOnFinishedReturnsImmediately checks the degenerate case: waiting on
// an already-finished thread never blocks the caller.
func TestWaitOnFinishedReturnsImmediately(t *testing.T) {
	s := New(WithPreemptionInterval(0))

	quick, err := s.Create("quick", func(self *Thread) {})
	require.NoError(t, err)

	done := make(chan struct{})
	_, err = s.Create("late", func(self *Thread) {
		self.Yield()
		self.Yield()
		self.Wait(quick)
		close(done)
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Run(ctx))

	select {
	case <-done:
	default:
		t.Fatal("late thread never observed quick as finished")
	}
}

func TestSleepOrdersAfterDuration(t *testing.T) {
	s := New(WithPreemptionInterval(0))

	var mu sync.Mutex
	var order []string
	record := func(tag string) {
		mu.Lock()
		order = append(order, tag)
		mu.Unlock()
	}

	_, err := s.Create("sleeper", func(self *Thread) {
		self.Sleep(30 * time.Millisecond)
		record("sleeper-woke")
	})
	require.NoError(t, err)

	_, err = s.Create("runner", func(self *Thread) {
		record("runner-ran")
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Run(ctx))

	require.Equal(t, []string{"runner-ran", "sleeper-woke"}, order)
}

func TestCreateValidation(t *testing.T) {
	s := New(WithStackNameLimit(4))

	_, err := s.Create("ok", nil)
	require.ErrorIs(t, err, ErrNilEntry)

	_, err = s.Create("toolong", func(self *Thread) {})
	require.ErrorIs(t, err, ErrNameTooLong)

	_, err = s.Create("ok", func(self *Thread) {})
	require.NoError(t, err)
}

func TestCreateAfterRunRejected(t *testing.T) {
	s := New(WithPreemptionInterval(0))
	_, err := s.Create("main", func(self *Thread) {
		_, err := s.Create("late", func(self *Thread) {})
		require.ErrorIs(t, err, ErrAlreadyRunning)
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Run(ctx))

	_, err = s.Create("after", func(self *Thread) {})
	require.ErrorIs(t, err, ErrAlreadyRunning)
}

func TestStatsReflectsQueues(t *testing.T) {
	s := New(WithPreemptionInterval(0))
	gate := make(chan struct{})
	_, err := s.Create("holder", func(self *Thread) {
		<-gate
	})
	require.NoError(t, err)

	go func() {
		time.Sleep(20 * time.Millisecond)
		stats := s.Stats()
		require.True(t, stats.Running)
		close(gate)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Run(ctx))

	require.Equal(t, 1, s.Stats().Finished)
}
