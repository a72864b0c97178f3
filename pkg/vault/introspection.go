package vault

import (
	"github.com/aretw0/introspection"

	"github.com/aretw0/tagvault/pkg/layout"
)

// State is the observable state of a Vault.
type State struct {
	Codec      string `json:"codec"`
	LastUID    string `json:"last_uid,omitempty"`
	Ledger     []int  `json:"ledger"`
	ActiveBank int    `json:"active_bank"`
	Degraded   bool   `json:"degraded"`
	Reads      int    `json:"reads"`
	Writes     int    `json:"writes"`
	Failures   int    `json:"failures"`
}

// State implements introspection.Introspectable.
func (v *Vault) State() any {
	v.mu.Lock()
	defer v.mu.Unlock()

	s := State{
		Codec:      v.codec.Name(),
		Ledger:     v.stats.lastLedger.Lengths(),
		ActiveBank: layout.NoBank,
		Reads:      v.stats.reads,
		Writes:     v.stats.writes,
		Failures:   v.stats.failures,
	}
	if v.stats.lastUID != nil {
		s.LastUID = v.stats.lastUID.String()
		s.ActiveBank = v.stats.lastLedger.ActiveBank()
		s.Degraded = v.stats.lastLedger.Degraded()
	}
	return s
}

// ComponentType implements introspection.Component.
func (v *Vault) ComponentType() string {
	return "vault"
}

var _ introspection.Introspectable = (*Vault)(nil)
var _ introspection.Component = (*Vault)(nil)
