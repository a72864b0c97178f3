package loop

import (
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/aretw0/tagvault/pkg/core"
)

const resumeKey = "resume"

// resumeEntry is the last document written and the tag it was written to.
type resumeEntry struct {
	UID core.UID
	Doc core.Document
}

// resumeCache holds at most one entry. The entry is stored without expiry when a write
// succeeds and armed with the resume window once the tag is gone, so the window runs
// from the removal and not from the write.
type resumeCache struct {
	c *cache.Cache
}

func newResumeCache() *resumeCache {
	// no janitor: expired entries are dropped on access
	return &resumeCache{c: cache.New(cache.NoExpiration, 0)}
}

func (r *resumeCache) Store(uid core.UID, doc core.Document) {
	r.c.Set(resumeKey, resumeEntry{UID: append(core.UID(nil), uid...), Doc: doc.Clone()}, cache.NoExpiration)
}

// Arm starts the expiry of a stored entry. A window of zero disables resuming.
func (r *resumeCache) Arm(window time.Duration) {
	e, ok := r.Peek()
	if !ok {
		return
	}
	if window <= 0 {
		r.Discard()
		return
	}
	r.c.Set(resumeKey, e, window)
}

func (r *resumeCache) Peek() (resumeEntry, bool) {
	v, ok := r.c.Get(resumeKey)
	if !ok {
		return resumeEntry{}, false
	}
	return v.(resumeEntry), true
}

// Take returns the entry and discards it.
func (r *resumeCache) Take() (resumeEntry, bool) {
	e, ok := r.Peek()
	r.Discard()
	return e, ok
}

func (r *resumeCache) Discard() {
	r.c.Delete(resumeKey)
}
