// Package core holds the domain types shared by every layer of tagvault.
package core

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"time"
)

// BlockSize is the number of bytes in one addressable tag block.
const BlockSize = 16

// Block is the raw content of one tag block.
type Block [BlockSize]byte

// UID is the identifier a tag broadcasts during anticollision (4 to 10 bytes).
// It is a session key, not a credential.
type UID []byte

// ParseUID decodes a hex string (e.g. "3de57a52f0") into a UID.
func ParseUID(s string) (UID, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid uid %q: %w", s, err)
	}
	if len(b) < 4 || len(b) > 10 {
		return nil, fmt.Errorf("invalid uid %q: length %d out of range [4,10]", s, len(b))
	}
	return UID(b), nil
}

// String returns the lowercase hex form of the UID.
func (u UID) String() string {
	return hex.EncodeToString(u)
}

// Equal reports whether both UIDs carry the same bytes.
func (u UID) Equal(other UID) bool {
	return bytes.Equal(u, other)
}

// KeyType selects which sector key authenticates a block.
type KeyType byte

const (
	KeyA KeyType = 0x60
	KeyB KeyType = 0x61
)

// Key is a 6-byte sector key.
type Key [6]byte

// DefaultKey is the factory transport key of blank tags.
var DefaultKey = Key{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// ParseKey decodes a 12 character hex string into a Key.
func ParseKey(s string) (Key, error) {
	var k Key
	b, err := hex.DecodeString(s)
	if err != nil {
		return k, fmt.Errorf("invalid key: %w", err)
	}
	if len(b) != len(k) {
		return k, fmt.Errorf("invalid key: expected %d bytes, got %d", len(k), len(b))
	}
	copy(k[:], b)
	return k, nil
}

// Document is the structured value stored on a tag.
type Document map[string]any

// Clone returns a deep copy of the nested maps and slices of d.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case Document:
		return val.Clone()
	case map[string]any:
		m := make(map[string]any, len(val))
		for k, inner := range val {
			m[k] = cloneValue(inner)
		}
		return m
	case []any:
		l := make([]any, len(val))
		for i, inner := range val {
			l[i] = cloneValue(inner)
		}
		return l
	default:
		return v
	}
}

// EventType represents the outcome of one control loop transition.
type EventType string

const (
	EventPresent         EventType = "PRESENT"
	EventResumed         EventType = "RESUMED"
	EventResumeFailed    EventType = "RESUME_FAILED"
	EventResumeAbandoned EventType = "RESUME_ABANDONED"
	EventLoaded          EventType = "LOADED"
	EventDefaulted       EventType = "DEFAULTED"
	EventReset           EventType = "RESET"
	EventWritten         EventType = "WRITTEN"
	EventWriteFailed     EventType = "WRITE_FAILED"
	EventAborted         EventType = "ABORTED"
	EventAbsent          EventType = "ABSENT"
)

// Event represents a transition of the control loop.
type Event struct {
	Type      EventType
	UID       UID
	Err       error
	Timestamp int64 // Unix timestamp
}

// NewEvent stamps an event with the current time.
func NewEvent(t EventType, uid UID, err error) Event {
	return Event{Type: t, UID: uid, Err: err, Timestamp: time.Now().Unix()}
}

// String implements fmt.Stringer.
func (e Event) String() string {
	s := string(e.Type)
	if len(e.UID) > 0 {
		s += " " + e.UID.String()
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}
