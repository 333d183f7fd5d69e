package thread

import (
	"time"

	"github.com/oscores/oscore/internal/telemetry"
)

// defaultNameLimit mirrors the bounded-name invariant from the original
// runtime's fixed-size TCB name buffer.
const defaultNameLimit = 16

// defaultPreemptionInterval mirrors the original runtime's 10ms process CPU
// clock period.
const defaultPreemptionInterval = 10 * time.Millisecond

type schedulerOptions struct {
	nameLimit       int
	preemptInterval time.Duration
	logger          *telemetry.Logger
}

// Option configures a Scheduler, in the same closure-over-interface shape as
// an eventloop.LoopOption.
type Option interface {
	applyScheduler(*schedulerOptions)
}

type optionFunc struct {
	fn func(*schedulerOptions)
}

func (o *optionFunc) applyScheduler(c *schedulerOptions) { o.fn(c) }

// WithStackNameLimit generalizes the bounded-name invariant: Create returns
// ErrNameTooLong for any name longer than n runes. n <= 0 disables the
// check.
func WithStackNameLimit(n int) Option {
	return &optionFunc{func(c *schedulerOptions) { c.nameLimit = n }}
}

// WithPreemptionInterval generalizes the fixed 10ms preemption period.
func WithPreemptionInterval(d time.Duration) Option {
	return &optionFunc{func(c *schedulerOptions) { c.preemptInterval = d }}
}

// WithLogger attaches a structured logger for thread lifecycle events
// (create, exit, finish, entry panic); Yield, Sleep, and Wait are not
// logged. The zero value logs nothing.
func WithLogger(l *telemetry.Logger) Option {
	return &optionFunc{func(c *schedulerOptions) { c.logger = l }}
}

func newSchedulerOptions(opts []Option) schedulerOptions {
	c := schedulerOptions{
		nameLimit:       defaultNameLimit,
		preemptInterval: defaultPreemptionInterval,
		logger:          telemetry.Discard(),
	}
	for _, o := range opts {
		o.applyScheduler(&c)
	}
	if c.logger == nil {
		c.logger = telemetry.Discard()
	}
	return c
}
