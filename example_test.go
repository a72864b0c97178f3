package tagvault_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/tagvault"
	"github.com/aretw0/tagvault/pkg/adapters/sim"
	"github.com/aretw0/tagvault/pkg/core"
)

// ExampleNewVault writes a document to a simulated tag and reads it back.
func ExampleNewVault() {
	uid := core.UID{0x3d, 0xe5, 0x7a, 0x52}
	reader := sim.NewReader()
	reader.Place(sim.NewBlankTag(uid))

	v, err := tagvault.NewVault(reader, tagvault.DefaultConfig())
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	if err := v.Write(ctx, uid, core.Document{"owner": "gopher"}, false); err != nil {
		log.Fatal(err)
	}
	doc, err := v.Read(ctx, uid, true)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(doc["owner"])
	// Output:
	// gopher
}

// ExampleNew runs one presentation through the control loop.
func ExampleNew() {
	uid := core.UID{0x3d, 0xe5, 0x7a, 0x52}
	reader := sim.NewReader()
	reader.Place(sim.NewBlankTag(uid))

	rt, err := tagvault.New(reader, tagvault.DefaultConfig())
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := rt.Loop.Step(ctx); err != nil {
			log.Fatal(err)
		}
	}
	for len(rt.Events) > 0 {
		fmt.Println(<-rt.Events)
	}
	// Output:
	// PRESENT 3de57a52
	// DEFAULTED 3de57a52: ledger has no active bank
	// WRITTEN 3de57a52
	// ABSENT 3de57a52
}
