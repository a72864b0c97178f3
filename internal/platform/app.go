package platform

import (
	"fmt"

	"github.com/aretw0/tagvault/pkg/adapters/codec"
	"github.com/aretw0/tagvault/pkg/core"
	"github.com/aretw0/tagvault/pkg/loop"
)

// VersionCheck accepts documents whose "version" field equals version.
func VersionCheck(version int64) loop.CompatCheck {
	return func(doc core.Document) error {
		raw, ok := doc["version"]
		if !ok {
			return fmt.Errorf("document has no version")
		}
		v, ok := codec.Int(raw)
		if !ok || v != version {
			return fmt.Errorf("document version %v, want %d", raw, version)
		}
		return nil
	}
}

// CounterMutation increments the integer field on every presentation.
func CounterMutation(field string) loop.Mutation {
	return func(doc core.Document) error {
		return codec.Increment(doc, field)
	}
}
