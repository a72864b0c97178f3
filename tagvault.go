package tagvault

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/aretw0/tagvault/internal/platform"
	"github.com/aretw0/tagvault/pkg/core"
	"github.com/aretw0/tagvault/pkg/presence"
	"github.com/aretw0/tagvault/pkg/vault"
)

// --- Types ---

// Config is the file and environment configuration.
type Config = platform.Config

// Runtime is a control loop wired to one reader.
type Runtime = platform.Runtime

// --- Configuration ---

// Option defines a functional option for building a Runtime or a Vault.
type Option = platform.Option

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return platform.DefaultConfig()
}

// LoadConfig reads a YAML config file and applies TAGVAULT_* environment overrides.
// An empty path loads the defaults.
func LoadConfig(path string) (Config, error) {
	return platform.LoadConfig(path)
}

// WithLogger sets the logger handed to every component.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithTracer overrides the global tracer provider.
func WithTracer(t trace.Tracer) Option {
	return platform.WithTracer(t)
}

// WithClock injects the clock of the presence detector.
func WithClock(c presence.Clock) Option {
	return platform.WithClock(c)
}

// WithEventBuffer sets the size of the loop event channel.
func WithEventBuffer(size int) Option {
	return platform.WithEventBuffer(size)
}

// WithMutation replaces the configured counter increment.
func WithMutation(fn func(core.Document) error) Option {
	return platform.WithMutation(fn)
}

// --- Factory ---

// New wires a control loop to reader.
func New(reader core.Reader, cfg Config, opts ...Option) (*Runtime, error) {
	return platform.New(reader, cfg, opts...)
}

// NewVault builds the document engine alone, for one-shot reads and writes.
func NewVault(reader core.Reader, cfg Config, opts ...Option) (*vault.Vault, error) {
	return platform.NewVault(reader, cfg, opts...)
}
