package loop

import (
	"github.com/aretw0/introspection"
)

// LoopState is the observable state of a Loop.
type LoopState struct {
	State        string   `json:"state"`
	ResetMode    bool     `json:"reset_mode"`
	ResetUIDs    []string `json:"reset_uids"`
	ResumeWindow string   `json:"resume_window"`
	ResumeUID    string   `json:"resume_uid,omitempty"`
	Cycles       int      `json:"cycles"`
	Resumes      int      `json:"resumes"`
	Writes       int      `json:"writes"`
	Failures     int      `json:"failures"`
	Dropped      int      `json:"dropped_events"`
	Vault        any      `json:"vault"`
}

// State implements introspection.Introspectable.
func (l *Loop) State() any {
	l.mu.Lock()
	s := LoopState{
		State:        l.state.String(),
		ResetMode:    l.resetMode,
		ResetUIDs:    append([]string(nil), l.settings.ResetUIDs...),
		ResumeWindow: l.settings.ResumeWindow.String(),
		Cycles:       l.counters.cycles,
		Resumes:      l.counters.resumes,
		Writes:       l.counters.writes,
		Failures:     l.counters.failures,
		Dropped:      l.counters.dropped,
	}
	l.mu.Unlock()

	if e, ok := l.resume.Peek(); ok {
		s.ResumeUID = e.UID.String()
	}
	s.Vault = l.vault.State()
	return s
}

// ComponentType implements introspection.Component.
func (l *Loop) ComponentType() string {
	return "control-loop"
}

var _ introspection.Introspectable = (*Loop)(nil)
var _ introspection.Component = (*Loop)(nil)
