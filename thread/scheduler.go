package thread

import (
	"context"
	"runtime"
	"sync"
	"time"
)

// Scheduler is the single user-space manager that dispatches a set of
// cooperatively-scheduled Threads, one at a time, in strict ready-queue
// order. The zero value is not usable; construct one with New.
type Scheduler struct {
	opts schedulerOptions

	mu      sync.Mutex
	ready   []*Thread
	waiting map[*Thread]struct{}
	current *Thread
	nextID  int
	started bool
	done    int

	wake chan struct{}
}

// New constructs a Scheduler ready to accept threads via Create.
func New(opts ...Option) *Scheduler {
	return &Scheduler{
		opts:    newSchedulerOptions(opts),
		waiting: make(map[*Thread]struct{}),
		wake:    make(chan struct{}, 1),
	}
}

func (s *Scheduler) notify() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// loop is the scheduler's main dispatch algorithm: pop the head of ready,
// switch to it, and act on why it handed control back. It holds s.mu for
// every queue mutation and releases it for exactly the duration a user
// thread is actually running — the same way the original runtime masked its
// preemption signal only across scheduler-internal bookkeeping.
func (s *Scheduler) loop(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.mu.Lock()
		if len(s.ready) == 0 && len(s.waiting) == 0 {
			s.mu.Unlock()
			return nil
		}
		if len(s.ready) == 0 {
			s.mu.Unlock()
			select {
			case <-s.wake:
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}

		current := s.ready[0]
		s.ready = s.ready[1:]

		if current.waitingFor != nil {
			target := current.waitingFor
			if target.loc != locFinished {
				// Join target hasn't finished: requeue at tail and try the
				// next ready thread instead of busy-looping on this one.
				current.loc = locReady
				s.ready = append(s.ready, current)
				s.mu.Unlock()
				runtime.Gosched()
				continue
			}
			current.waitingFor = nil
		}

		current.loc = locRunning
		s.current = current
		s.mu.Unlock()

		current.resumeCh <- struct{}{}
		info := <-current.doneCh

		s.mu.Lock()
		s.current = nil
		switch info.reason {
		case reasonFinish:
			current.loc = locFinished
			s.done++
			s.logger().Debug().Str("thread", current.name).Log("thread finished")
		case reasonSleep:
			current.loc = locWaiting
			s.waiting[current] = struct{}{}
			t := current
			time.AfterFunc(info.sleep, func() {
				s.mu.Lock()
				delete(s.waiting, t)
				if t.loc == locWaiting {
					t.loc = locReady
					s.ready = append(s.ready, t)
				}
				s.mu.Unlock()
				s.notify()
			})
		case reasonWaitOn, reasonYield:
			current.loc = locReady
			s.ready = append(s.ready, current)
		}
		s.mu.Unlock()
	}
}
