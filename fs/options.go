package fs

import "github.com/oscores/oscore/internal/telemetry"

const defaultBlockSize = 512

type config struct {
	blockSize int
	logger    *telemetry.Logger
}

// Option configures Format.
type Option interface {
	applyFormat(*config)
}

type optionFunc struct{ fn func(*config) }

func (o *optionFunc) applyFormat(c *config) { o.fn(c) }

// WithBlockSize overrides the default block size (512 bytes). Must be at
// least MinBlockSize.
func WithBlockSize(n int) Option {
	return &optionFunc{func(c *config) { c.blockSize = n }}
}

// WithLogger attaches a structured logger. Only Format logs an event; the
// other operations log nothing. The zero value logs nothing.
func WithLogger(l *telemetry.Logger) Option {
	return &optionFunc{func(c *config) { c.logger = l }}
}

func newConfig(opts []Option) config {
	c := config{
		blockSize: defaultBlockSize,
		logger:    telemetry.Discard(),
	}
	for _, o := range opts {
		o.applyFormat(&c)
	}
	if c.logger == nil {
		c.logger = telemetry.Discard()
	}
	return c
}
