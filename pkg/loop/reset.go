package loop

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/tagvault/pkg/core"
)

// resetSet matches tag UIDs against glob patterns over their lowercase hex form,
// e.g. "3d656f52" or "3d*52".
type resetSet struct {
	patterns []string
}

func newResetSet(patterns []string) (*resetSet, error) {
	s := &resetSet{patterns: make([]string, 0, len(patterns))}
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid reset pattern %q", p)
		}
		s.patterns = append(s.patterns, p)
	}
	return s, nil
}

// ValidateResetUIDs checks reset patterns without building a loop.
func ValidateResetUIDs(patterns []string) error {
	_, err := newResetSet(patterns)
	return err
}

// Match reports whether uid is a reset tag.
func (s *resetSet) Match(uid core.UID) bool {
	name := uid.String()
	for _, p := range s.patterns {
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
	}
	return false
}

func (s *resetSet) Patterns() []string {
	return append([]string(nil), s.patterns...)
}
