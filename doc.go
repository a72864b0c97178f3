// Package tagvault is the Composition Root for tagvault.
//
// tagvault keeps one small structured document on a 1K contactless tag and survives
// the tag being pulled away at any instant. The tag is split into three banks; every
// write goes to the bank after the active one and becomes visible only when the
// ledger block is rewritten, so an interrupted write leaves the previous document in
// place.
//
// Around the engine runs a control loop: wait for a tag, load its document (or start
// from a starter document), apply a mutation, write it back, wait for the tag to leave.
// A document just written is remembered for a short resume window, so presenting the
// same tag again skips the read.
//
// Packages:
//
//   - pkg/layout: block addressing, bank allocation and the length ledger.
//   - pkg/session: select, authenticate and release against a core.Reader.
//   - pkg/vault: the document engine (Read, Write, Ledger, Format).
//   - pkg/presence: debounced presence and absence detection.
//   - pkg/loop: the resume-aware control loop.
//   - pkg/adapters/sim: an in-memory reader and tags for tests and simulation.
//
// Usage:
//
//	cfg, err := tagvault.LoadConfig("tagvault.yaml")
//	rt, err := tagvault.New(reader, cfg, tagvault.WithLogger(logger))
//	go rt.Loop.Run(ctx)
//	for ev := range rt.Events {
//		fmt.Println(ev)
//	}
package tagvault
