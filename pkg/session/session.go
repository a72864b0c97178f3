// Package session owns the tag currently selected on the reader and serializes
// select, authenticate, read and write against it.
package session

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/tagvault/pkg/core"
)

// Manager holds at most one selected tag. It is not safe for concurrent use: the
// reader and its antenna belong to a single caller.
type Manager struct {
	reader   core.Reader
	key      core.Key
	keyType  core.KeyType
	logger   *slog.Logger
	selected core.UID
}

// Option defines a functional option for configuring a Manager.
type Option func(*Manager)

// WithKey sets the shared sector key. Defaults to core.DefaultKey.
func WithKey(key core.Key) Option {
	return func(m *Manager) {
		m.key = key
	}
}

// WithKeyType selects key A or key B authentication. Defaults to key A.
func WithKeyType(kt core.KeyType) Option {
	return func(m *Manager) {
		m.keyType = kt
	}
}

// WithLogger sets the logger for the manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// New creates a Manager driving reader.
func New(reader core.Reader, opts ...Option) *Manager {
	m := &Manager{
		reader:  reader,
		key:     core.DefaultKey,
		keyType: core.KeyA,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Selected returns the UID of the selected tag.
func (m *Manager) Selected() (core.UID, bool) {
	return m.selected, m.selected != nil
}

// Select makes uid the selected tag. Selecting the tag already selected is a no-op;
// selecting another releases the current session first.
func (m *Manager) Select(uid core.UID) error {
	if m.selected != nil {
		if m.selected.Equal(uid) {
			return nil
		}
		m.Release()
	}
	if err := m.reader.SelectTag(uid); err != nil {
		return fmt.Errorf("%w: %s: %w", core.ErrSelection, uid, err)
	}
	m.selected = append(core.UID(nil), uid...)
	if m.logger != nil {
		m.logger.Debug("tag selected", "uid", uid.String())
	}
	return nil
}

// Release forgets the selected tag, halts it and drops the crypto context.
// A halted tag stops answering idle requests until it leaves the field.
func (m *Manager) Release() {
	uid := m.selected
	m.selected = nil
	if err := m.reader.HaltTag(); err != nil && m.logger != nil {
		m.logger.Debug("halt failed", "uid", uid.String(), "error", err)
	}
	m.reader.StopAuthentication()
}

// ReadBlock authenticates and reads one physical block of the selected tag.
func (m *Manager) ReadBlock(index int) (core.Block, error) {
	if err := m.authenticate(index); err != nil {
		return core.Block{}, err
	}
	b, err := m.reader.ReadBlock(index)
	if err != nil {
		return core.Block{}, fmt.Errorf("read block %d: %w", index, err)
	}
	return b, nil
}

// WriteBlock authenticates and writes one physical block of the selected tag.
func (m *Manager) WriteBlock(index int, data core.Block) error {
	if err := m.authenticate(index); err != nil {
		return err
	}
	if err := m.reader.WriteBlock(index, data); err != nil {
		return fmt.Errorf("write block %d: %w", index, err)
	}
	return nil
}

// authenticate runs before every block operation. Authentication results are never
// reused across blocks, so no crypto state can go stale between operations.
func (m *Manager) authenticate(index int) error {
	if m.selected == nil {
		return core.ErrNotSelected
	}
	if err := m.reader.Authenticate(m.keyType, index, m.key, m.selected); err != nil {
		return fmt.Errorf("%w: block %d: %w", core.ErrAuthentication, index, err)
	}
	return nil
}
