package pager

import "github.com/oscores/oscore/internal/telemetry"

const defaultPageSize = 4096

type config struct {
	pageSize int
	mmu      MMU
	pmem     []byte
	logger   *telemetry.Logger
}

// Option configures a Pager at construction time.
type Option interface {
	applyPager(*config)
}

type optionFunc struct{ fn func(*config) }

func (o *optionFunc) applyPager(c *config) { o.fn(c) }

// WithMMU supplies the host collaborator. Required: New returns an error if
// omitted.
func WithMMU(m MMU) Option {
	return &optionFunc{func(c *config) { c.mmu = m }}
}

// WithPageSize overrides the default page size (4096 bytes). Must evenly
// divide the physical memory region; New validates this.
func WithPageSize(n int) Option {
	return &optionFunc{func(c *config) { c.pageSize = n }}
}

// WithPhysMem injects a pre-allocated physical memory slice instead of
// letting New allocate one, so tests can assert on its contents directly
// rather than only through Syslog. Its length must equal
// nframes*pageSize.
func WithPhysMem(b []byte) Option {
	return &optionFunc{func(c *config) { c.pmem = b }}
}

// WithLogger attaches a structured logger for fault, eviction, and
// exhaustion events. The zero value logs nothing.
func WithLogger(l *telemetry.Logger) Option {
	return &optionFunc{func(c *config) { c.logger = l }}
}

func newConfig(opts []Option) config {
	c := config{
		pageSize: defaultPageSize,
		logger:   telemetry.Discard(),
	}
	for _, o := range opts {
		o.applyPager(&c)
	}
	if c.logger == nil {
		c.logger = telemetry.Discard()
	}
	return c
}
