// Package vault stores one document per tag across rotating banks, committing each
// write with a single ledger block update.
package vault

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/aretw0/tagvault/pkg/adapters/codec"
	"github.com/aretw0/tagvault/pkg/core"
	"github.com/aretw0/tagvault/pkg/layout"
	"github.com/aretw0/tagvault/pkg/session"
)

const tracerName = "github.com/aretw0/tagvault/pkg/vault"

// Vault reads and writes documents on the tag held by a session manager.
// It shares the single-caller contract of session.Manager.
type Vault struct {
	session *session.Manager
	codec   core.Codec
	logger  *slog.Logger
	tracer  trace.Tracer

	mu    sync.Mutex
	stats stats
}

type stats struct {
	lastUID    core.UID
	lastLedger layout.Ledger
	reads      int
	writes     int
	failures   int
}

// Option defines a functional option for configuring a Vault.
type Option func(*Vault)

// WithCodec sets the document encoding. Defaults to non-strict JSON.
func WithCodec(c core.Codec) Option {
	return func(v *Vault) {
		v.codec = c
	}
}

// WithLogger sets the logger for the vault.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Vault) {
		v.logger = logger
	}
}

// WithTracer sets the tracer used for read and write spans.
// Defaults to the global tracer provider.
func WithTracer(t trace.Tracer) Option {
	return func(v *Vault) {
		v.tracer = t
	}
}

// New creates a Vault on top of an existing session manager.
func New(sm *session.Manager, opts ...Option) *Vault {
	v := &Vault{
		session: sm,
		codec:   codec.NewJSON(false),
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.tracer == nil {
		v.tracer = otel.Tracer(tracerName)
	}
	return v
}

// Codec returns the document encoding in use.
func (v *Vault) Codec() core.Codec {
	return v.codec
}

// Select opens a session on uid. It is a no-op when uid is already selected.
func (v *Vault) Select(uid core.UID) error {
	return v.session.Select(uid)
}

// Release ends the session on the selected tag, if any.
func (v *Vault) Release() {
	v.session.Release()
}

// Read loads the document recorded by the ledger of uid.
//
// A ledger without an active bank yields ErrBankMissing and undecodable bank content
// yields ErrJSONInvalid. Any block failure after selection is reported as
// ErrReadIncomplete with the driver cause attached.
func (v *Vault) Read(ctx context.Context, uid core.UID, unselect bool) (doc core.Document, err error) {
	_, span := v.tracer.Start(ctx, "vault.read", trace.WithAttributes(attribute.String("tag.uid", uid.String())))
	defer func() { v.finish(span, err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := v.session.Select(uid); err != nil {
		return nil, err
	}
	if unselect {
		defer v.session.Release()
	}

	ledger, err := v.readLedger()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrReadIncomplete, err)
	}
	v.remember(uid, ledger)

	bank := ledger.ActiveBank()
	if bank == layout.NoBank {
		return nil, core.ErrBankMissing
	}
	length := ledger.Length(bank)
	span.SetAttributes(attribute.Int("tag.bank", bank), attribute.Int("tag.length", length))
	if ledger.Degraded() && v.logger != nil {
		v.logger.Warn("ledger records more than one bank", "uid", uid.String(), "ledger", ledger.String(), "active", bank)
	}
	if length > layout.BankCapacity {
		return nil, fmt.Errorf("%w: ledger length %d exceeds bank capacity", core.ErrJSONInvalid, length)
	}

	buf := make([]byte, 0, layout.BlocksFor(length)*layout.BlockSize)
	for _, idx := range layout.BankBlocks(bank, length) {
		b, err := v.session.ReadBlock(idx)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", core.ErrReadIncomplete, err)
		}
		buf = append(buf, b[:]...)
	}

	doc, err = v.codec.Decode(buf[:length])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrJSONInvalid, err)
	}

	v.mu.Lock()
	v.stats.reads++
	v.mu.Unlock()
	if v.logger != nil {
		v.logger.Debug("document read", "uid", uid.String(), "bank", bank, "length", length)
	}
	return doc, nil
}

// Write stores doc in the bank after the active one and then commits it by rewriting
// the ledger. Until the ledger block is written the previous document stays
// authoritative, so a failure before that point leaves the tag as it was.
//
// An interruption during the ledger block write itself can leave the ledger
// inconsistent; there is no second ledger to fall back on.
func (v *Vault) Write(ctx context.Context, uid core.UID, doc core.Document, unselect bool) (err error) {
	_, span := v.tracer.Start(ctx, "vault.write", trace.WithAttributes(attribute.String("tag.uid", uid.String())))
	defer func() { v.finish(span, err) }()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := v.session.Select(uid); err != nil {
		return err
	}
	if unselect {
		defer v.session.Release()
	}

	ledger, err := v.readLedger()
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrWriteIncomplete, err)
	}
	v.remember(uid, ledger)
	target := layout.NextBank(ledger.ActiveBank())

	data, err := v.codec.Encode(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	switch {
	case len(data) == 0:
		return core.ErrDocumentEmpty
	case len(data) > layout.BankCapacity || len(data) > layout.MaxLedgerLength:
		return fmt.Errorf("%w: %d bytes, capacity %d", core.ErrDocumentTooLarge, len(data), layout.BankCapacity)
	}
	span.SetAttributes(attribute.Int("tag.bank", target), attribute.Int("tag.length", len(data)))

	for i, idx := range layout.BankBlocks(target, len(data)) {
		var b core.Block
		copy(b[:], data[i*layout.BlockSize:])
		if err := v.session.WriteBlock(idx, b); err != nil {
			return fmt.Errorf("%w: %w", core.ErrWriteIncomplete, err)
		}
	}

	// commit point
	next := layout.CommitLedger(target, len(data))
	if err := v.session.WriteBlock(layout.LedgerIndex, next.Block()); err != nil {
		return fmt.Errorf("%w: ledger: %w", core.ErrWriteIncomplete, err)
	}

	v.remember(uid, next)
	v.mu.Lock()
	v.stats.writes++
	v.mu.Unlock()
	if v.logger != nil {
		v.logger.Debug("document written", "uid", uid.String(), "bank", target, "length", len(data))
	}
	return nil
}

// Ledger returns the ledger of uid without touching the banks.
func (v *Vault) Ledger(ctx context.Context, uid core.UID) (layout.Ledger, error) {
	if err := ctx.Err(); err != nil {
		return layout.Ledger{}, err
	}
	if err := v.session.Select(uid); err != nil {
		return layout.Ledger{}, err
	}
	ledger, err := v.readLedger()
	if err != nil {
		return layout.Ledger{}, err
	}
	v.remember(uid, ledger)
	return ledger, nil
}

// Format commits an empty ledger, leaving the tag blank. Bank content is not erased.
func (v *Vault) Format(ctx context.Context, uid core.UID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := v.session.Select(uid); err != nil {
		return err
	}
	var blank layout.Ledger
	if err := v.session.WriteBlock(layout.LedgerIndex, blank.Block()); err != nil {
		return fmt.Errorf("%w: ledger: %w", core.ErrWriteIncomplete, err)
	}
	v.remember(uid, blank)
	if v.logger != nil {
		v.logger.Info("tag formatted", "uid", uid.String())
	}
	return nil
}

func (v *Vault) readLedger() (layout.Ledger, error) {
	b, err := v.session.ReadBlock(layout.LedgerIndex)
	if err != nil {
		return layout.Ledger{}, fmt.Errorf("ledger: %w", err)
	}
	return layout.DecodeLedger(b), nil
}

func (v *Vault) remember(uid core.UID, l layout.Ledger) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stats.lastUID = append(core.UID(nil), uid...)
	v.stats.lastLedger = l
}

func (v *Vault) finish(span trace.Span, err error) {
	if err != nil {
		v.mu.Lock()
		v.stats.failures++
		v.mu.Unlock()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("error.fatal", core.IsFatal(err)))
	}
	span.End()
}
