// Package presence turns the noisy "is a tag answering" signal of a reader into
// stable presence and absence transitions.
package presence

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aretw0/tagvault/pkg/core"
)

// ErrTimeout is returned by AwaitPresence when its timeout elapses.
var ErrTimeout = errors.New("presence: timed out waiting for a tag")

// AbsenceThreshold is the number of consecutive failed polls that declare a tag gone.
const AbsenceThreshold = 2

// Detector polls a reader. It is not safe for concurrent use.
type Detector struct {
	reader       core.Reader
	clock        Clock
	pollInterval time.Duration
	logger       *slog.Logger
}

// Option defines a functional option for configuring a Detector.
type Option func(*Detector)

// WithClock injects the clock used for timeouts and poll pacing.
func WithClock(c Clock) Option {
	return func(d *Detector) {
		d.clock = c
	}
}

// WithPollInterval sleeps between polls. Zero (the default) polls back to back,
// leaving pacing to the latency of the reader.
func WithPollInterval(interval time.Duration) Option {
	return func(d *Detector) {
		d.pollInterval = interval
	}
}

// WithLogger sets the logger for the detector.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Detector) {
		d.logger = logger
	}
}

// New creates a Detector polling reader.
func New(reader core.Reader, opts ...Option) *Detector {
	d := &Detector{
		reader: reader,
		clock:  RealClock{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// IsPresent issues one idle request and reports whether a tag answered.
func (d *Detector) IsPresent() bool {
	return d.reader.RequestIdle() == nil
}

// Present polls once and isolates a tag. It returns nil when no tag could be isolated.
func (d *Detector) Present() core.UID {
	if !d.IsPresent() {
		return nil
	}
	uid, err := d.reader.Anticollision()
	if err != nil || len(uid) == 0 {
		return nil
	}
	return uid
}

// AwaitPresence polls until a tag is isolated and returns its UID.
// A zero timeout waits without bound; otherwise ErrTimeout is returned once it elapses.
// Cancelling ctx stops the wait with ctx.Err().
func (d *Detector) AwaitPresence(ctx context.Context, timeout time.Duration) (core.UID, error) {
	started := d.clock.Now()
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if timeout > 0 && d.clock.Now().Sub(started) >= timeout {
			return nil, ErrTimeout
		}
		if uid := d.Present(); uid != nil {
			return uid, nil
		}
		d.pause()
	}
}

// AwaitAbsence polls until AbsenceThreshold consecutive polls fail. Any successful
// poll resets the count, so a single misread is never taken for a removal.
//
// There is no timeout: a tag left in the field blocks the caller indefinitely.
// ctx only exists to stop the process.
func (d *Detector) AwaitAbsence(ctx context.Context) error {
	misses := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsPresent() {
			misses = 0
		} else {
			misses++
			if misses >= AbsenceThreshold {
				return nil
			}
			if d.logger != nil {
				d.logger.Debug("tag missed a poll", "misses", misses)
			}
		}
		// misses are counted one poll interval apart, never back to back
		d.pause()
	}
}

func (d *Detector) pause() {
	if d.pollInterval > 0 {
		d.clock.Sleep(d.pollInterval)
	}
}
