package loop_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/aretw0/tagvault/pkg/adapters/codec"
	"github.com/aretw0/tagvault/pkg/adapters/sim"
	"github.com/aretw0/tagvault/pkg/core"
	"github.com/aretw0/tagvault/pkg/layout"
	"github.com/aretw0/tagvault/pkg/loop"
	"github.com/aretw0/tagvault/pkg/presence"
	"github.com/aretw0/tagvault/pkg/session"
	"github.com/aretw0/tagvault/pkg/vault"
)

var (
	uidA     = core.UID{0x3d, 0x65, 0x6f, 0x52}
	uidB     = core.UID{0x3d, 0x14, 0x8d, 0x52}
	uidReset = core.UID{0xaa, 0xbb, 0xcc, 0xdd}

	starter = core.Document{"version": float64(1), "counter": float64(0)}
)

type harness struct {
	loop   *loop.Loop
	reader *sim.Reader
	clock  *presence.FakeClock
	events chan core.Event
	seen   []core.Document
}

func newHarness(t *testing.T, vopts []vault.Option, opts ...loop.Option) *harness {
	t.Helper()
	h := &harness{
		reader: sim.NewReader(),
		clock:  presence.NewFakeClock(time.Unix(0, 0)),
		events: make(chan core.Event, 128),
	}
	d := presence.New(h.reader, presence.WithClock(h.clock), presence.WithPollInterval(100*time.Millisecond))
	v := vault.New(session.New(h.reader), vopts...)

	base := []loop.Option{
		loop.WithEvents(h.events),
		loop.WithSettings(loop.Settings{
			ResetUIDs:    []string{uidReset.String()},
			Starter:      starter,
			ResumeWindow: 10 * time.Second,
		}),
		loop.WithCompatCheck(func(doc core.Document) error {
			if v, ok := codec.Int(doc["version"]); !ok || v != 1 {
				return fmt.Errorf("version %v", doc["version"])
			}
			return nil
		}),
		loop.WithMutation(func(doc core.Document) error {
			h.seen = append(h.seen, doc.Clone())
			return codec.Increment(doc, "counter")
		}),
	}
	l, err := loop.New(v, d, append(base, opts...)...)
	require.NoError(t, err)
	h.loop = l
	return h
}

// step runs one transition and checks where the loop ended up.
func (h *harness) step(t *testing.T, want loop.State) {
	t.Helper()
	require.NoError(t, h.loop.Step(context.Background()))
	require.Equal(t, want, h.loop.Current())
}

// cycle presents whatever is in the field and runs through to WaitPresent.
func (h *harness) cycle(t *testing.T) {
	t.Helper()
	h.step(t, loop.Handle)
	h.step(t, loop.WaitAbsent)
	h.step(t, loop.WaitPresent)
}

// represent takes the tag out of the field and puts it back.
func (h *harness) represent() {
	h.reader.Place(h.reader.Remove())
}

func (h *harness) drain() []core.EventType {
	var out []core.EventType
	for {
		select {
		case ev := <-h.events:
			out = append(out, ev.Type)
		default:
			return out
		}
	}
}

func preload(t *testing.T, tag *sim.Tag, data []byte) {
	t.Helper()
	for i, idx := range layout.BankBlocks(0, len(data)) {
		var b core.Block
		copy(b[:], data[i*layout.BlockSize:])
		tag.SetBlock(idx, b)
	}
	tag.SetBlock(layout.LedgerIndex, layout.CommitLedger(0, len(data)).Block())
}

func readBack(t *testing.T, tag *sim.Tag) core.Document {
	t.Helper()
	r := sim.NewReader()
	r.Place(tag)
	doc, err := vault.New(session.New(r)).Read(context.Background(), tag.UID(), true)
	require.NoError(t, err)
	return doc
}

func TestBlankTag(t *testing.T) {
	h := newHarness(t, nil)
	tag := sim.NewBlankTag(uidA)
	h.reader.Place(tag)

	h.cycle(t)

	assert.Equal(t, []core.EventType{
		core.EventPresent, core.EventDefaulted, core.EventWritten, core.EventAbsent,
	}, h.drain())
	assert.Equal(t, float64(1), readBack(t, tag)["counter"])
	assert.Equal(t, starter, h.seen[0])
}

func TestLoad(t *testing.T) {
	h := newHarness(t, nil)
	tag := sim.NewBlankTag(uidA)
	preload(t, tag, []byte(`{"version":1,"counter":41}`))
	h.reader.Place(tag)

	h.cycle(t)

	assert.Equal(t, []core.EventType{
		core.EventPresent, core.EventLoaded, core.EventWritten, core.EventAbsent,
	}, h.drain())
	assert.Equal(t, float64(42), readBack(t, tag)["counter"])
}

func TestResume(t *testing.T) {
	t.Run("Same Tag Skips Read", func(t *testing.T) {
		h := newHarness(t, nil)
		tag := sim.NewBlankTag(uidA)
		h.reader.Place(tag)
		h.cycle(t)
		h.drain()

		h.represent()
		h.reader.ResetStats()
		h.cycle(t)

		assert.Equal(t, []core.EventType{
			core.EventPresent, core.EventResumed, core.EventWritten, core.EventAbsent,
		}, h.drain())
		assert.Equal(t, []int{layout.LedgerIndex}, h.reader.Stats().Reads, "only the write reads the ledger")
		assert.Equal(t, core.Document{"version": float64(1), "counter": int64(1)}, h.seen[1], "cached document reused unchanged")
		assert.Equal(t, float64(2), readBack(t, tag)["counter"])

		state := h.loop.State().(loop.LoopState)
		assert.Equal(t, 1, state.Resumes)
		assert.Equal(t, uidA.String(), state.ResumeUID)
	})

	t.Run("Other Tag Loads", func(t *testing.T) {
		h := newHarness(t, nil)
		h.reader.Place(sim.NewBlankTag(uidA))
		h.cycle(t)
		h.drain()

		other := sim.NewBlankTag(uidB)
		preload(t, other, []byte(`{"version":1,"counter":7}`))
		h.reader.Remove()
		h.reader.Place(other)
		h.cycle(t)

		assert.Equal(t, []core.EventType{
			core.EventPresent, core.EventResumeFailed, core.EventLoaded, core.EventWritten, core.EventAbsent,
		}, h.drain())
		assert.Equal(t, float64(8), readBack(t, other)["counter"])
		assert.Equal(t, uidB.String(), h.loop.State().(loop.LoopState).ResumeUID)
	})

	t.Run("Window Elapses", func(t *testing.T) {
		h := newHarness(t, nil)
		tag := sim.NewBlankTag(uidA)
		h.reader.Place(tag)
		h.cycle(t)
		h.drain()

		// the halted tag stays silent, so the window runs out
		start := h.clock.Now()
		h.step(t, loop.WaitPresent)
		assert.Equal(t, 10*time.Second, h.clock.Now().Sub(start))
		assert.Equal(t, []core.EventType{core.EventResumeAbandoned}, h.drain())
		assert.Empty(t, h.loop.State().(loop.LoopState).ResumeUID)

		h.represent()
		h.reader.ResetStats()
		h.cycle(t)
		assert.Equal(t, []core.EventType{
			core.EventPresent, core.EventLoaded, core.EventWritten, core.EventAbsent,
		}, h.drain())
		assert.Contains(t, h.reader.Stats().Reads, layout.RealIndex(0), "bank read after the window")
	})

	t.Run("Disabled", func(t *testing.T) {
		h := newHarness(t, nil)
		require.NoError(t, h.loop.Apply(loop.Settings{Starter: starter}))
		h.reader.Place(sim.NewBlankTag(uidA))
		h.cycle(t)
		h.drain()

		assert.Empty(t, h.loop.State().(loop.LoopState).ResumeUID)
		h.represent()
		h.cycle(t)
		assert.Equal(t, []core.EventType{
			core.EventPresent, core.EventLoaded, core.EventWritten, core.EventAbsent,
		}, h.drain())
	})
}

func TestResetTag(t *testing.T) {
	h := newHarness(t, nil)

	tagA := sim.NewBlankTag(uidA)
	preload(t, tagA, []byte(`{"version":1,"counter":5}`))
	reset := sim.NewBlankTag(uidReset)
	preload(t, reset, []byte(`{"version":1,"counter":99}`))

	h.reader.Place(reset)
	h.step(t, loop.Handle)
	h.step(t, loop.WaitAbsent)

	stats := h.reader.Stats()
	assert.Empty(t, stats.Reads, "reset tags are never read")
	assert.Empty(t, stats.Writes, "reset tags are never written")
	assert.True(t, h.loop.State().(loop.LoopState).ResetMode)

	h.reader.Remove()
	h.step(t, loop.WaitPresent)
	assert.Equal(t, []core.EventType{core.EventPresent, core.EventReset, core.EventAbsent}, h.drain())

	// from now on every tag starts over from the starter document
	h.reader.Place(tagA)
	h.reader.ResetStats()
	h.cycle(t)
	assert.Equal(t, []core.EventType{
		core.EventPresent, core.EventDefaulted, core.EventWritten, core.EventAbsent,
	}, h.drain())
	assert.Equal(t, []int{layout.LedgerIndex}, h.reader.Stats().Reads)
	assert.Equal(t, starter, h.seen[0])
	assert.Equal(t, float64(1), readBack(t, tagA)["counter"])
}

func TestFallbackToStarter(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		err  error
	}{
		{"Invalid", []byte("not json at all"), core.ErrJSONInvalid},
		{"Incompatible", []byte(`{"version":2,"counter":9}`), core.ErrJSONIncompatible},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, nil)
			tag := sim.NewBlankTag(uidA)
			preload(t, tag, tc.data)
			h.reader.Place(tag)

			h.step(t, loop.Handle)
			h.step(t, loop.WaitAbsent)
			<-h.events
			ev := <-h.events
			assert.Equal(t, core.EventDefaulted, ev.Type)
			assert.ErrorIs(t, ev.Err, tc.err)

			assert.Equal(t, core.Document{"version": float64(1), "counter": float64(1)}, readBack(t, tag))
		})
	}
}

func TestAbort(t *testing.T) {
	t.Run("Removed Mid Read", func(t *testing.T) {
		h := newHarness(t, nil)
		tag := sim.NewBlankTag(uidA)
		preload(t, tag, []byte(`{"version":1,"counter":3,"filler":"The Quick Brown Fox Jumped over the Lazy Dog."}`))
		h.reader.Place(tag)

		h.step(t, loop.Handle)
		h.reader.RemoveAfter(2)
		h.step(t, loop.WaitPresent)

		events := h.drain()
		require.Len(t, events, 2)
		assert.Equal(t, core.EventAborted, events[1])
		assert.Empty(t, h.reader.Stats().Writes)
		assert.Empty(t, h.seen, "no mutation on an aborted cycle")
		assert.Equal(t, float64(3), readBack(t, tag)["counter"])
		assert.Equal(t, 1, h.loop.State().(loop.LoopState).Failures)
	})

	t.Run("Selection Failure", func(t *testing.T) {
		h := newHarness(t, nil)
		h.reader.Place(sim.NewBlankTag(uidA))
		h.step(t, loop.Handle)
		h.reader.Remove()
		h.step(t, loop.WaitAbsent)
		h.step(t, loop.WaitPresent)

		assert.Equal(t, []core.EventType{core.EventPresent, core.EventAborted, core.EventAbsent}, h.drain())
		assert.Empty(t, h.seen)
	})

	t.Run("Wrong Key Waits For Absence", func(t *testing.T) {
		h := newHarness(t, nil)
		tag := sim.NewBlankTag(uidA)
		wrong := core.Key{1, 2, 3, 4, 5, 6}
		for sector := 0; sector < layout.NumBlocks/4; sector++ {
			tag.SetKeys(sector, wrong, wrong)
		}
		h.reader.Place(tag)

		h.step(t, loop.Handle)
		h.step(t, loop.WaitAbsent)

		// the tag stays in the field: the loop must not isolate it again
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		assert.ErrorIs(t, h.loop.Step(ctx), context.DeadlineExceeded)
		assert.Equal(t, loop.WaitAbsent, h.loop.Current())
		assert.Equal(t, []core.EventType{core.EventPresent, core.EventAborted}, h.drain())
		assert.Equal(t, 1, h.reader.Stats().Selects)

		h.reader.Remove()
		h.step(t, loop.WaitPresent)
		h.reader.Place(tag)
		h.step(t, loop.Handle)
		h.step(t, loop.WaitAbsent)

		assert.Equal(t, []core.EventType{core.EventAbsent, core.EventPresent, core.EventAborted}, h.drain())
		assert.Equal(t, 2, h.reader.Stats().Selects)
		assert.Empty(t, h.reader.Stats().Writes)
		assert.Empty(t, h.seen)
		assert.Equal(t, 2, h.loop.State().(loop.LoopState).Failures)
	})

	t.Run("Mutation Failure", func(t *testing.T) {
		h := newHarness(t, nil, loop.WithMutation(func(core.Document) error {
			return fmt.Errorf("out of credit")
		}))
		h.reader.Place(sim.NewBlankTag(uidA))
		h.cycle(t)

		assert.Equal(t, []core.EventType{
			core.EventPresent, core.EventDefaulted, core.EventAborted, core.EventAbsent,
		}, h.drain())
		assert.Empty(t, h.reader.Stats().Writes)
	})
}

func TestWriteFailureDiscardsCache(t *testing.T) {
	h := newHarness(t, nil)
	tag := sim.NewBlankTag(uidA)
	h.reader.Place(tag)
	h.cycle(t)
	h.drain()
	before := readBack(t, tag)

	h.represent()
	h.step(t, loop.Handle)
	// the write reads the ledger, then the tag is gone
	h.reader.RemoveAfter(1)
	h.step(t, loop.WaitAbsent)

	events := h.drain()
	require.Len(t, events, 3)
	assert.Equal(t, core.EventWriteFailed, events[2])
	assert.Empty(t, h.loop.State().(loop.LoopState).ResumeUID)

	h.step(t, loop.WaitPresent)
	assert.Equal(t, before, readBack(t, tag))

	h.reader.Place(tag)
	h.cycle(t)
	assert.Equal(t, []core.EventType{
		core.EventAbsent, core.EventPresent, core.EventLoaded, core.EventWritten, core.EventAbsent,
	}, h.drain())
}

func TestSpans(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	tracer := tp.Tracer("test")

	h := newHarness(t, []vault.Option{vault.WithTracer(tracer)}, loop.WithTracer(tracer))
	h.reader.Place(sim.NewBlankTag(uidA))
	h.cycle(t)

	spans := rec.Ended()
	require.Len(t, spans, 3)
	assert.Equal(t, "vault.read", spans[0].Name())
	assert.Equal(t, "vault.write", spans[1].Name())
	handle := spans[2]
	assert.Equal(t, "handle", handle.Name())
	assert.Equal(t, handle.SpanContext().SpanID(), spans[0].Parent().SpanID())
	assert.Equal(t, handle.SpanContext().SpanID(), spans[1].Parent().SpanID())
}

func TestRun(t *testing.T) {
	h := newHarness(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, h.loop.Run(ctx))
	assert.Equal(t, loop.WaitPresent, h.loop.Current())
}

func TestApply(t *testing.T) {
	h := newHarness(t, nil)
	assert.Error(t, h.loop.Apply(loop.Settings{ResetUIDs: []string{"[ab"}}))

	require.NoError(t, h.loop.Apply(loop.Settings{ResetUIDs: []string{"3D65*"}, ResumeWindow: time.Second}))
	state := h.loop.State().(loop.LoopState)
	assert.Equal(t, []string{"3d65*"}, state.ResetUIDs)
	assert.Equal(t, "1s", state.ResumeWindow)

	h.reader.Place(sim.NewBlankTag(uidA))
	h.step(t, loop.Handle)
	h.step(t, loop.WaitAbsent)
	assert.Equal(t, []core.EventType{core.EventPresent, core.EventReset}, h.drain())
}

func TestDroppedEvents(t *testing.T) {
	events := make(chan core.Event)
	h := newHarness(t, nil, loop.WithEvents(events))
	h.reader.Place(sim.NewBlankTag(uidA))
	h.cycle(t)

	state := h.loop.State().(loop.LoopState)
	assert.Equal(t, 4, state.Dropped)
	assert.Equal(t, 1, state.Writes)
	assert.Equal(t, "control-loop", h.loop.ComponentType())
}
