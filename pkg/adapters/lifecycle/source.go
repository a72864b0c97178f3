// Package lifecycle exposes control loop events as a lifecycle.Source.
package lifecycle

import (
	"context"
	"fmt"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/tagvault/pkg/core"
)

// CycleEvent is a control loop event numbered by the tag presentation it belongs to.
type CycleEvent struct {
	core.Event
	// Cycle counts PRESENT events seen by the source, starting at 1.
	// Events before the first presentation, such as RESUME_ABANDONED, carry 0.
	Cycle int
	Fatal bool
}

// String renders the event as "#<cycle> <TYPE> <uid>[: error]".
func (e CycleEvent) String() string {
	s := fmt.Sprintf("#%d %s", e.Cycle, e.Event.String())
	if e.Fatal {
		s += " (fatal)"
	}
	return s
}

// SourceOption configures the event source.
type SourceOption func(*cycleSource)

// WithTypes forwards only the given event types. Cycles are still counted on every
// PRESENT event, forwarded or not.
func WithTypes(types ...core.EventType) SourceOption {
	return func(s *cycleSource) {
		if len(types) == 0 {
			return
		}
		s.only = make(map[core.EventType]bool, len(types))
		for _, t := range types {
			s.only[t] = true
		}
	}
}

type cycleSource struct {
	events <-chan core.Event
	out    chan lifecycle.Event
	only   map[core.EventType]bool
	cycle  int
}

// NewSource creates a lifecycle.Source over the event channel of a control loop.
func NewSource(events <-chan core.Event, opts ...SourceOption) lifecycle.Source {
	s := &cycleSource{
		events: events,
		out:    make(chan lifecycle.Event),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *cycleSource) Events() <-chan lifecycle.Event {
	return s.out
}

func (s *cycleSource) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-s.events:
				if !ok {
					return nil
				}
				ce, forward := s.number(e)
				if !forward {
					continue
				}
				select {
				case s.out <- ce:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return nil
}

func (s *cycleSource) number(e core.Event) (CycleEvent, bool) {
	if e.Type == core.EventPresent {
		s.cycle++
	}
	ce := CycleEvent{Event: e, Cycle: s.cycle, Fatal: e.Err != nil && core.IsFatal(e.Err)}
	if s.only != nil && !s.only[e.Type] {
		return ce, false
	}
	return ce, true
}
