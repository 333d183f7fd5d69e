package thread

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/oscores/oscore/internal/telemetry"
)

// location tracks which queue (if any) a Thread currently occupies. It plays
// the role the original runtime's TCB state field played, minus the states
// that goroutines make moot (there is no "stopped, context saved" state: the
// goroutine's own stack IS the saved context).
type location int

const (
	locReady location = iota
	locRunning
	locWaiting
	locFinished
)

func (l location) String() string {
	switch l {
	case locReady:
		return "ready"
	case locRunning:
		return "running"
	case locWaiting:
		return "waiting"
	case locFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// suspendReason tags why a running Thread handed control back to the
// scheduler. Yield and WaitOn both land the thread back on ready and the
// scheduler handles them identically; the join condition that gates a
// waiting thread's next dispatch is carried by its waitingFor field.
type suspendReason int

const (
	reasonYield suspendReason = iota
	reasonWaitOn
	reasonSleep
	reasonFinish
)

type suspendInfo struct {
	reason suspendReason
	sleep  time.Duration
}

// Thread is a single user-space thread of execution, scheduled cooperatively
// by its owning Scheduler.
type Thread struct {
	id   int
	name string
	sch  *Scheduler

	fn func(*Thread)

	loc        location
	waitingFor *Thread

	resumeCh chan struct{}
	doneCh   chan suspendInfo

	preempt preemptFlag
}

// ID returns the thread's scheduler-assigned identity, stable for the life
// of the thread.
func (t *Thread) ID() int { return t.id }

// Name returns the name the thread was created with.
func (t *Thread) Name() string { return t.name }

// Yield voluntarily relinquishes the CPU, generalizing the original
// runtime's explicit yield syscall. The caller resumes once every thread
// ahead of it in ready order has had a turn.
func (t *Thread) Yield() {
	t.suspend(suspendInfo{reason: reasonYield})
}

// Sleep relinquishes the CPU for at least d, generalizing the original
// runtime's timer-queue sleep. A zero or negative d behaves like Yield.
func (t *Thread) Sleep(d time.Duration) {
	if d <= 0 {
		t.Yield()
		return
	}
	t.suspend(suspendInfo{reason: reasonSleep, sleep: d})
}

// Wait blocks the caller until target has exited. Waiting on an
// already-finished thread, or on itself, returns immediately.
func (t *Thread) Wait(target *Thread) {
	if target == nil || target == t {
		return
	}
	t.sch.mu.Lock()
	finished := target.loc == locFinished
	t.sch.mu.Unlock()
	if finished {
		return
	}
	t.waitingFor = target
	t.suspend(suspendInfo{reason: reasonWaitOn})
	t.waitingFor = nil
}

// Exit terminates the calling thread immediately; it never returns. Any code
// after an Exit call is unreachable, mirroring the original runtime's
// longjmp-to-scheduler exit path.
func (t *Thread) Exit() {
	t.sch.logger().Debug().Str("thread", t.name).Log("thread exiting")
	t.doneCh <- suspendInfo{reason: reasonFinish}
	<-t.resumeCh // never resumed; goroutine parks here forever
	panic("thread: resumed after exit")
}

// CheckPreempt reports whether the scheduler has requested that this thread
// yield at its next convenient checkpoint, and clears the request. It
// generalizes the original runtime's signal-delivered preemption: because Go
// gives library code no safe way to interrupt an arbitrary running
// goroutine, preemption here is cooperative — long-running entry functions
// should poll CheckPreempt and call Yield when it returns true.
func (t *Thread) CheckPreempt() bool {
	return t.preempt.consume()
}

func (t *Thread) suspend(info suspendInfo) {
	t.doneCh <- info
	<-t.resumeCh
}

// run is the body of the goroutine backing a Thread. It blocks until the
// scheduler performs the first switch-in, then runs the entry function to
// completion, translating a normal return into an implicit Exit.
func (t *Thread) run() {
	<-t.resumeCh
	func() {
		defer func() {
			if r := recover(); r != nil {
				t.sch.logger().Err().Str("thread", t.name).Any("panic", r).Log("thread entry panicked")
			}
		}()
		t.fn(t)
	}()
	t.doneCh <- suspendInfo{reason: reasonFinish}
	<-t.resumeCh
}

// preemptFlag is a tiny mutex-guarded flag, set by the scheduler's
// preemption ticker and cleared by the owning thread's CheckPreempt.
type preemptFlag struct {
	mu  sync.Mutex
	set bool
}

func (p *preemptFlag) raise() {
	p.mu.Lock()
	p.set = true
	p.mu.Unlock()
}

func (p *preemptFlag) consume() bool {
	p.mu.Lock()
	v := p.set
	p.set = false
	p.mu.Unlock()
	return v
}

func (s *Scheduler) logger() *telemetry.Logger { return s.opts.logger }

// Create registers a new thread with entry point fn, scheduling it to run
// after every thread already on the ready queue. It returns ErrNilEntry if
// fn is nil, ErrNameTooLong if name exceeds the scheduler's configured
// bound, and ErrAlreadyRunning if the scheduler's Run loop has already
// started (the original runtime disallows thread creation after the manager
// has begun dispatching, since the static TCB table is sized at init).
func (s *Scheduler) Create(name string, fn func(*Thread)) (*Thread, error) {
	if fn == nil {
		return nil, ErrNilEntry
	}
	if s.opts.nameLimit > 0 && len([]rune(name)) > s.opts.nameLimit {
		return nil, fmt.Errorf("%w: %q", ErrNameTooLong, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil, ErrAlreadyRunning
	}

	s.nextID++
	t := &Thread{
		id:       s.nextID,
		name:     name,
		sch:      s,
		fn:       fn,
		loc:      locReady,
		resumeCh: make(chan struct{}),
		doneCh:   make(chan suspendInfo),
	}
	s.ready = append(s.ready, t)
	go t.run()
	s.logger().Debug().Str("thread", name).Int("id", t.id).Log("thread created")
	return t, nil
}

// Run starts the scheduler loop and blocks until every created thread has
// exited, or ctx is cancelled. It must be called exactly once per
// Scheduler.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.started = true
	s.mu.Unlock()

	if s.opts.preemptInterval > 0 {
		ticker := time.NewTicker(s.opts.preemptInterval)
		defer ticker.Stop()
		stop := make(chan struct{})
		defer close(stop)
		go func() {
			for {
				select {
				case <-ticker.C:
					s.mu.Lock()
					if s.current != nil {
						s.current.preempt.raise()
					}
					s.mu.Unlock()
				case <-stop:
					return
				}
			}
		}()
	}

	return s.loop(ctx)
}
