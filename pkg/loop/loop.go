// Package loop drives a vault from tag presence: it loads the document of each tag
// presented, applies a mutation, writes it back and waits for the tag to leave.
//
// A document just written is kept for a short resume window so that the same tag
// presented again can skip the read.
package loop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/aretw0/tagvault/pkg/core"
	"github.com/aretw0/tagvault/pkg/presence"
	"github.com/aretw0/tagvault/pkg/vault"
)

const tracerName = "github.com/aretw0/tagvault/pkg/loop"

// DefaultResumeWindow is how long a written document waits for its tag to come back.
const DefaultResumeWindow = 10 * time.Second

// State is a control loop state.
type State int

const (
	WaitPresent State = iota
	Handle
	WaitAbsent
)

func (s State) String() string {
	switch s {
	case WaitPresent:
		return "WAIT_PRESENT"
	case Handle:
		return "HANDLE"
	case WaitAbsent:
		return "WAIT_ABSENT"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Mutation changes the document of the tag being handled before it is written back.
type Mutation func(doc core.Document) error

// CompatCheck rejects documents another application wrote. A non-nil error makes
// the loop start over from the starter document.
type CompatCheck func(doc core.Document) error

// Settings are the parts of the configuration that can change while the loop runs.
type Settings struct {
	ResetUIDs    []string
	Starter      core.Document
	ResumeWindow time.Duration
}

// Loop is the presence driven control loop. Step and Run must be called from a single
// goroutine; Apply and State may be called from any.
type Loop struct {
	vault    *vault.Vault
	detector *presence.Detector
	mutate   Mutation
	compat   CompatCheck
	events   chan<- core.Event
	logger   *slog.Logger
	tracer   trace.Tracer

	resume *resumeCache

	// current tag, set in WaitPresent for Handle
	uid core.UID

	mu        sync.Mutex
	settings  Settings
	reset     *resetSet
	state     State
	resetMode bool
	counters  counters
}

type counters struct {
	cycles   int
	resumes  int
	writes   int
	failures int
	dropped  int
}

// Option defines a functional option for configuring a Loop.
type Option func(*Loop)

// WithSettings sets the initial reset patterns, starter document and resume window.
func WithSettings(s Settings) Option {
	return func(l *Loop) {
		l.settings = s
	}
}

// WithMutation sets the change applied to every document before it is written.
func WithMutation(m Mutation) Option {
	return func(l *Loop) {
		l.mutate = m
	}
}

// WithCompatCheck sets the check a loaded document must pass to be kept.
func WithCompatCheck(c CompatCheck) Option {
	return func(l *Loop) {
		l.compat = c
	}
}

// WithEvents publishes one event per transition on ch. Sends never block: events are
// dropped when ch is full.
func WithEvents(ch chan<- core.Event) Option {
	return func(l *Loop) {
		l.events = ch
	}
}

// WithLogger sets the logger for the loop.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		l.logger = logger
	}
}

// WithTracer sets the tracer used for handle spans.
func WithTracer(t trace.Tracer) Option {
	return func(l *Loop) {
		l.tracer = t
	}
}

// New creates a Loop in WaitPresent with an empty resume cache.
func New(v *vault.Vault, d *presence.Detector, opts ...Option) (*Loop, error) {
	l := &Loop{
		vault:    v,
		detector: d,
		resume:   newResumeCache(),
		state:    WaitPresent,
		settings: Settings{ResumeWindow: DefaultResumeWindow},
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.tracer == nil {
		l.tracer = otel.Tracer(tracerName)
	}
	if err := l.Apply(l.settings); err != nil {
		return nil, err
	}
	return l, nil
}

// Apply replaces the settings. It takes effect from the next transition; a cycle in
// progress finishes with the settings it started with.
func (l *Loop) Apply(s Settings) error {
	reset, err := newResetSet(s.ResetUIDs)
	if err != nil {
		return err
	}
	if s.Starter == nil {
		s.Starter = core.Document{}
	}
	s.Starter = s.Starter.Clone()
	s.ResetUIDs = reset.Patterns()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.settings = s
	l.reset = reset
	return nil
}

func (l *Loop) current() (Settings, *resetSet) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.settings, l.reset
}

// Current returns the state the next Step starts from.
func (l *Loop) Current() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *Loop) setState(s State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = s
}

// Run steps the loop until ctx is cancelled. Tag content and tag I/O never stop it.
func (l *Loop) Run(ctx context.Context) error {
	if l.logger != nil {
		l.logger.Info("control loop started", "state", l.Current().String())
	}
	for {
		if err := l.Step(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				if l.logger != nil {
					l.logger.Info("control loop stopped")
				}
				return nil
			}
			return err
		}
	}
}

// Step performs one transition and returns only when ctx ends the wait it is in.
func (l *Loop) Step(ctx context.Context) error {
	switch state := l.Current(); state {
	case WaitPresent:
		return l.waitPresent(ctx)
	case Handle:
		l.setState(l.handle(ctx, l.uid))
		return nil
	case WaitAbsent:
		return l.waitAbsent(ctx)
	default:
		return fmt.Errorf("unknown loop state %v", state)
	}
}

func (l *Loop) waitPresent(ctx context.Context) error {
	settings, _ := l.current()

	var timeout time.Duration
	_, pending := l.resume.Peek()
	if pending {
		timeout = settings.ResumeWindow
	}

	uid, err := l.detector.AwaitPresence(ctx, timeout)
	if errors.Is(err, presence.ErrTimeout) {
		l.resume.Discard()
		l.emit(core.EventResumeAbandoned, nil, nil)
		return nil
	}
	if err != nil {
		return err
	}

	l.uid = uid
	l.emit(core.EventPresent, uid, nil)
	l.setState(Handle)
	return nil
}

func (l *Loop) waitAbsent(ctx context.Context) error {
	if err := l.detector.AwaitAbsence(ctx); err != nil {
		return err
	}
	l.emit(core.EventAbsent, l.uid, nil)
	l.uid = nil

	settings, _ := l.current()
	l.resume.Arm(settings.ResumeWindow)
	l.setState(WaitPresent)
	return nil
}

// handle runs one cycle on uid and returns the state to continue from.
func (l *Loop) handle(ctx context.Context, uid core.UID) (next State) {
	ctx, span := l.tracer.Start(ctx, "handle", trace.WithAttributes(attribute.String("tag.uid", uid.String())))
	defer func() {
		span.SetAttributes(attribute.String("loop.next", next.String()))
		span.End()
	}()

	l.mu.Lock()
	l.counters.cycles++
	l.mu.Unlock()

	settings, reset := l.current()

	if err := l.vault.Select(uid); err != nil {
		return l.abort(uid, err)
	}

	if reset.Match(uid) {
		l.mu.Lock()
		l.resetMode = true
		l.mu.Unlock()
		l.resume.Discard()
		l.emit(core.EventReset, uid, nil)
		return WaitAbsent
	}

	doc, err := l.document(ctx, uid, settings)
	if err != nil {
		return l.abort(uid, err)
	}

	if l.mutate != nil {
		if err := l.mutate(doc); err != nil {
			l.vault.Release()
			l.emit(core.EventAborted, uid, fmt.Errorf("mutation: %w", err))
			l.fail()
			return WaitAbsent
		}
	}

	if err := l.vault.Write(ctx, uid, doc, true); err != nil {
		l.resume.Discard()
		l.emit(core.EventWriteFailed, uid, err)
		l.fail()
		return WaitAbsent
	}

	l.resume.Store(uid, doc)
	l.mu.Lock()
	l.counters.writes++
	l.mu.Unlock()
	l.emit(core.EventWritten, uid, nil)
	return WaitAbsent
}

// document picks the document to mutate: the starter in reset mode, the cached one on
// resume, otherwise the one on the tag. The resume entry is consumed whatever the path.
func (l *Loop) document(ctx context.Context, uid core.UID, settings Settings) (core.Document, error) {
	entry, cached := l.resume.Take()

	l.mu.Lock()
	resetMode := l.resetMode
	l.mu.Unlock()

	switch {
	case resetMode:
		l.emit(core.EventDefaulted, uid, nil)
		return settings.Starter.Clone(), nil
	case cached && entry.UID.Equal(uid):
		l.mu.Lock()
		l.counters.resumes++
		l.mu.Unlock()
		l.emit(core.EventResumed, uid, nil)
		return entry.Doc, nil
	case cached:
		l.emit(core.EventResumeFailed, uid, nil)
	}

	doc, err := l.vault.Read(ctx, uid, false)
	if err == nil && l.compat != nil {
		if cerr := l.compat(doc); cerr != nil {
			err = fmt.Errorf("%w: %w", core.ErrJSONIncompatible, cerr)
		}
	}

	switch {
	case err == nil:
		l.emit(core.EventLoaded, uid, nil)
		return doc, nil
	case errors.Is(err, core.ErrReadIncomplete), core.IsFatal(err):
		return nil, err
	case errors.Is(err, core.ErrBankMissing), errors.Is(err, core.ErrJSONInvalid), errors.Is(err, core.ErrJSONIncompatible):
		l.emit(core.EventDefaulted, uid, err)
		return settings.Starter.Clone(), nil
	default:
		return nil, err
	}
}

// abort ends a cycle without touching the tag. A read cut short by the tag leaving
// goes straight back to WaitPresent. Every other failure waits for absence first:
// a tag that refused selection or authentication is idle again, not halted, and
// would be isolated again on the next poll.
func (l *Loop) abort(uid core.UID, err error) State {
	l.vault.Release()
	l.emit(core.EventAborted, uid, err)
	l.fail()
	if errors.Is(err, core.ErrReadIncomplete) && !core.IsFatal(err) {
		return WaitPresent
	}
	return WaitAbsent
}

func (l *Loop) fail() {
	l.mu.Lock()
	l.counters.failures++
	l.mu.Unlock()
}

func (l *Loop) emit(t core.EventType, uid core.UID, err error) {
	ev := core.NewEvent(t, uid, err)
	if l.logger != nil {
		attrs := []any{"event", string(t)}
		if uid != nil {
			attrs = append(attrs, "uid", uid.String())
		}
		if err != nil {
			attrs = append(attrs, "error", err, "fatal", core.IsFatal(err))
			l.logger.Warn("loop event", attrs...)
		} else {
			l.logger.Debug("loop event", attrs...)
		}
	}
	if l.events == nil {
		return
	}
	select {
	case l.events <- ev:
	default:
		l.mu.Lock()
		l.counters.dropped++
		l.mu.Unlock()
	}
}
