package presence

import "time"

// Clock abstracts the time operations of polling so tests can run timeouts
// deterministically.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// Sleep pauses the caller for at least d.
	Sleep(d time.Duration)
}

// RealClock is the Clock backed by the time package.
type RealClock struct{}

func (RealClock) Now() time.Time        { return time.Now() }
func (RealClock) Sleep(d time.Duration) { time.Sleep(d) }

// FakeClock is a Clock whose time only moves on Sleep or Advance.
// It is meant for single goroutine tests.
type FakeClock struct {
	current time.Time
}

// NewFakeClock returns a FakeClock starting at initial.
func NewFakeClock(initial time.Time) *FakeClock {
	return &FakeClock{current: initial}
}

func (c *FakeClock) Now() time.Time { return c.current }

// Sleep advances the fake time by d without blocking.
func (c *FakeClock) Sleep(d time.Duration) { c.current = c.current.Add(d) }

// Advance moves the fake time forward by d.
func (c *FakeClock) Advance(d time.Duration) { c.current = c.current.Add(d) }
