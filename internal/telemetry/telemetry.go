// Package telemetry provides the shared logging construction used by the
// thread, pager, and fs packages. It exists so each core hands down a shared
// *Logger rather than reinventing a logger, the same way sql/log
// wires logrus into the sql package once, centrally.
package telemetry

import (
	"io"
	"os"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Event is the concrete logiface event type used throughout this module.
type Event = stumpy.Event

// Logger is the shared leveled, structured logger type.
type Logger = logiface.Logger[*Event]

// New builds a Logger writing newline-delimited JSON events to w at the
// given minimum level. A nil w defaults to os.Stderr.
func New(w io.Writer, level logiface.Level) *Logger {
	if w == nil {
		w = os.Stderr
	}
	return stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(w)),
		stumpy.L.WithLevel(level),
	)
}

// Discard returns a Logger that drops every event. Used as the default when
// callers don't supply one via WithLogger, and in tests that don't care
// about log output.
func Discard() *Logger {
	return stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(io.Discard)),
		stumpy.L.WithLevel(logiface.LevelDisabled),
	)
}

// Fields is a small helper for attaching a batch of key/value pairs to a
// single log event without each call site repeating the builder chain.
type Fields map[string]any

// Apply writes f onto b in an unspecified order, so call sites can do
// logger.Debug().Call(fields.Apply).Log("message").
func (f Fields) Apply(b *logiface.Builder[*Event]) {
	for k, v := range f {
		b.Any(k, v)
	}
}
