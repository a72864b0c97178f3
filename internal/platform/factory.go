package platform

import (
	"github.com/aretw0/tagvault/pkg/core"
	"github.com/aretw0/tagvault/pkg/loop"
	"github.com/aretw0/tagvault/pkg/presence"
	"github.com/aretw0/tagvault/pkg/session"
	"github.com/aretw0/tagvault/pkg/vault"
)

// Runtime is a control loop wired to one reader.
type Runtime struct {
	Config   Config
	Vault    *vault.Vault
	Detector *presence.Detector
	Loop     *loop.Loop
	Events   <-chan core.Event
}

// NewVault builds the document engine for reader from cfg.
//
//	v, err := platform.NewVault(reader, cfg, platform.WithLogger(logger))
func NewVault(reader core.Reader, cfg Config, opts ...Option) (*vault.Vault, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return newVault(reader, cfg, o)
}

func newVault(reader core.Reader, cfg Config, o *options) (*vault.Vault, error) {
	key, keyType, err := cfg.SessionKey()
	if err != nil {
		return nil, err
	}
	c, err := cfg.DocumentCodec()
	if err != nil {
		return nil, err
	}

	sm := session.New(reader,
		session.WithKey(key),
		session.WithKeyType(keyType),
		session.WithLogger(o.logger),
	)
	vopts := []vault.Option{vault.WithCodec(c), vault.WithLogger(o.logger)}
	if o.tracer != nil {
		vopts = append(vopts, vault.WithTracer(o.tracer))
	}
	return vault.New(sm, vopts...), nil
}

// New wires session, vault, presence detector and control loop for reader.
func New(reader core.Reader, cfg Config, opts ...Option) (*Runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	v, err := newVault(reader, cfg, o)
	if err != nil {
		return nil, err
	}

	dopts := []presence.Option{
		presence.WithPollInterval(cfg.PollInterval),
		presence.WithLogger(o.logger),
	}
	if o.clock != nil {
		dopts = append(dopts, presence.WithClock(o.clock))
	}
	detector := presence.New(reader, dopts...)

	settings, err := cfg.Settings()
	if err != nil {
		return nil, err
	}

	mutation := loop.Mutation(o.mutation)
	if mutation == nil && cfg.Counter != "" {
		mutation = CounterMutation(cfg.Counter)
	}

	events := make(chan core.Event, o.eventBuffer)
	lopts := []loop.Option{
		loop.WithSettings(settings),
		loop.WithMutation(mutation),
		loop.WithEvents(events),
		loop.WithLogger(o.logger),
	}
	if cfg.Version != 0 {
		lopts = append(lopts, loop.WithCompatCheck(VersionCheck(cfg.Version)))
	}
	if o.tracer != nil {
		lopts = append(lopts, loop.WithTracer(o.tracer))
	}

	l, err := loop.New(v, detector, lopts...)
	if err != nil {
		return nil, err
	}

	return &Runtime{
		Config:   cfg,
		Vault:    v,
		Detector: detector,
		Loop:     l,
		Events:   events,
	}, nil
}
