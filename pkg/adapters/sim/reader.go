package sim

import (
	"errors"
	"fmt"
	"sync"

	"github.com/aretw0/tagvault/pkg/core"
	"github.com/aretw0/tagvault/pkg/layout"
)

var (
	// ErrNoTag is returned when no tag answers.
	ErrNoTag = errors.New("sim: no tag in field")
	// ErrNotAuthenticated is returned for block access outside the authenticated sector.
	ErrNotAuthenticated = errors.New("sim: sector not authenticated")
	// ErrReadOnly is returned when writing the manufacturer block.
	ErrReadOnly = errors.New("sim: block is read-only")
)

// Stats counts the commands a Reader received.
type Stats struct {
	Requests       int
	Anticollisions int
	Selects        int
	Auths          int
	Halts          int
	Reads          []int // physical indices, in order
	Writes         []int
}

var _ core.Reader = (*Reader)(nil)

// Reader simulates a reader with at most one tag in its field.
// It is safe for concurrent use so a test or a console can move tags in and out of
// the field while a control loop polls it.
type Reader struct {
	mu         sync.Mutex
	tag        *Tag
	halted     bool
	selected   bool
	authSector int
	script     []bool
	opsLeft    int
	stats      Stats
}

// NewReader returns a Reader with an empty field.
func NewReader() *Reader {
	return &Reader{authSector: -1, opsLeft: -1}
}

// Place moves tag into the field. A tag entering the field is idle, never halted.
func (r *Reader) Place(tag *Tag) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tag = tag
	r.halted = false
	r.selected = false
	r.authSector = -1
}

// Remove takes the tag out of the field and returns it.
func (r *Reader) Remove() *Tag {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeLocked()
}

func (r *Reader) removeLocked() *Tag {
	t := r.tag
	r.tag = nil
	r.halted = false
	r.selected = false
	r.authSector = -1
	r.opsLeft = -1
	return t
}

// Tag returns the tag in the field, if any.
func (r *Reader) Tag() *Tag {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tag
}

// Script forces the results of the next idle requests (true answers OK), simulating
// a noisy antenna. Scripted results are consumed before the field state is consulted.
func (r *Reader) Script(results ...bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.script = append(r.script, results...)
}

// RemoveAfter lets the next n block operations succeed, then pulls the tag out of
// the field, simulating a removal in the middle of a multi-block transfer.
func (r *Reader) RemoveAfter(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opsLeft = n
}

// Stats returns a copy of the command counters.
func (r *Reader) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.stats
	s.Reads = append([]int(nil), r.stats.Reads...)
	s.Writes = append([]int(nil), r.stats.Writes...)
	return s
}

// ResetStats zeroes the command counters.
func (r *Reader) ResetStats() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats = Stats{}
}

func (r *Reader) answering() bool {
	return r.tag != nil && !r.halted
}

func (r *Reader) RequestIdle() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.Requests++
	if len(r.script) > 0 {
		ok := r.script[0]
		r.script = r.script[1:]
		if !ok {
			return ErrNoTag
		}
		return nil
	}
	if !r.answering() {
		return ErrNoTag
	}
	return nil
}

func (r *Reader) Anticollision() (core.UID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.Anticollisions++
	if !r.answering() {
		return nil, ErrNoTag
	}
	return r.tag.UID(), nil
}

// SelectTag selects the tag in the field by UID, waking it if halted.
func (r *Reader) SelectTag(uid core.UID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.Selects++
	if r.tag == nil {
		return ErrNoTag
	}
	if !r.tag.uid.Equal(uid) {
		return fmt.Errorf("sim: uid %s not in field", uid)
	}
	// a select by UID reaches a halted tag, which an idle request never does
	r.halted = false
	r.selected = true
	r.authSector = -1
	return nil
}

func (r *Reader) Authenticate(keyType core.KeyType, block int, key core.Key, uid core.UID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.Auths++
	if r.tag == nil || !r.selected {
		return ErrNoTag
	}
	if block < 0 || block >= layout.NumBlocks {
		return fmt.Errorf("sim: block %d out of range", block)
	}
	if !r.tag.uid.Equal(uid) || r.tag.key(keyType, block) != key {
		// a failed authentication drops the tag back to idle
		r.selected = false
		r.authSector = -1
		return fmt.Errorf("sim: authentication of block %d refused", block)
	}
	r.authSector = block / 4
	return nil
}

// access checks that block can be used and accounts for a pending removal.
func (r *Reader) access(block int) error {
	if r.tag == nil {
		return ErrNoTag
	}
	if r.opsLeft == 0 {
		r.removeLocked()
		return ErrNoTag
	}
	if !r.selected || r.authSector != block/4 {
		return ErrNotAuthenticated
	}
	if r.opsLeft > 0 {
		r.opsLeft--
	}
	return nil
}

func (r *Reader) ReadBlock(block int) (core.Block, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.access(block); err != nil {
		return core.Block{}, err
	}
	r.stats.Reads = append(r.stats.Reads, block)
	return r.tag.blocks[block], nil
}

func (r *Reader) WriteBlock(block int, data core.Block) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.access(block); err != nil {
		return err
	}
	if block == 0 {
		return ErrReadOnly
	}
	r.stats.Writes = append(r.stats.Writes, block)
	r.tag.blocks[block] = data
	return nil
}

func (r *Reader) HaltTag() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.Halts++
	if r.tag == nil {
		return ErrNoTag
	}
	if r.selected {
		r.halted = true
	}
	r.selected = false
	return nil
}

func (r *Reader) StopAuthentication() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.authSector = -1
}
