package platform

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/aretw0/tagvault/pkg/core"
	"github.com/aretw0/tagvault/pkg/presence"
)

// options holds the wiring that does not come from Config.
type options struct {
	logger      *slog.Logger
	tracer      trace.Tracer
	clock       presence.Clock
	eventBuffer int
	mutation    func(core.Document) error
}

// Option defines a functional option for building a Runtime.
type Option func(*options)

// defaultOptions returns the default wiring.
func defaultOptions() *options {
	return &options{
		eventBuffer: 100,
	}
}

// WithLogger sets the logger handed to every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithTracer overrides the global tracer provider for vault and loop spans.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		o.tracer = t
	}
}

// WithClock injects the clock of the presence detector (useful for testing).
func WithClock(c presence.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithEventBuffer sets the size of the loop event channel.
// Zero means default (100).
func WithEventBuffer(size int) Option {
	return func(o *options) {
		if size > 0 {
			o.eventBuffer = size
		}
	}
}

// WithMutation replaces the counter increment configured by Config.Counter.
func WithMutation(fn func(core.Document) error) Option {
	return func(o *options) {
		o.mutation = fn
	}
}
