package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tagvault/pkg/core"
)

func TestConstants(t *testing.T) {
	assert.Equal(t, 48, DataBlocks)
	assert.Equal(t, 45, SafeBlocks)
	assert.Equal(t, 15, BlocksPerBank)
	assert.Equal(t, 240, BankCapacity)
}

func TestRealIndex_SkipsReservedAndTrailers(t *testing.T) {
	seen := make(map[int]int)
	for safe := 0; safe < SafeBlocks; safe++ {
		phys := RealIndex(safe)
		assert.NotContains(t, []int{0, 1, 2}, phys, "safe %d", safe)
		assert.NotEqual(t, 3, phys%4, "safe %d maps to trailer %d", safe, phys)
		assert.Less(t, phys, NumBlocks)
		assert.Equal(t, ClassData, Classify(phys))

		if prev, dup := seen[phys]; dup {
			t.Fatalf("safe %d and %d both map to %d", prev, safe, phys)
		}
		seen[phys] = safe
	}
	assert.Len(t, seen, SafeBlocks)
}

func TestRealIndex_KnownValues(t *testing.T) {
	cases := map[int]int{
		0:  4,
		1:  5,
		2:  6,
		3:  8,
		14: 22,
		15: 24,
		44: 62,
	}
	for safe, want := range cases {
		assert.Equal(t, want, RealIndex(safe), "safe %d", safe)
	}
}

func TestRealIndex_PanicsOutOfRange(t *testing.T) {
	assert.Panics(t, func() { RealIndex(-1) })
	assert.Panics(t, func() { RealIndex(SafeBlocks) })
}

func TestClassify(t *testing.T) {
	assert.Equal(t, ClassManufacturer, Classify(0))
	assert.Equal(t, ClassLedger, Classify(1))
	assert.Equal(t, ClassFutureReserved, Classify(2))
	assert.Equal(t, ClassAuthTrailer, Classify(3))
	assert.Equal(t, ClassAuthTrailer, Classify(63))
	assert.Equal(t, ClassData, Classify(4))
	assert.Equal(t, "trailer", ClassAuthTrailer.String())
}

func TestBankBlocks(t *testing.T) {
	assert.Empty(t, BankBlocks(0, 0))
	assert.Equal(t, []int{4}, BankBlocks(0, 1))
	assert.Equal(t, []int{4, 5}, BankBlocks(0, 17))
	assert.Equal(t, []int{24, 25, 26}, BankBlocks(1, 48))
	assert.Len(t, BankBlocks(2, BankCapacity), BlocksPerBank)
	assert.Panics(t, func() { BankBlocks(0, BankCapacity+1) })

	// banks partition the safe blocks
	all := make(map[int]bool)
	for bank := 0; bank < NumBanks; bank++ {
		for _, b := range BankBlocks(bank, BankCapacity) {
			require.False(t, all[b], "block %d in two banks", b)
			all[b] = true
		}
	}
	assert.Len(t, all, SafeBlocks)
}

func TestNextBank(t *testing.T) {
	assert.Equal(t, 0, NextBank(NoBank))
	assert.Equal(t, 1, NextBank(0))
	assert.Equal(t, 2, NextBank(1))
	assert.Equal(t, 0, NextBank(2))
	for active := 0; active < NumBanks; active++ {
		assert.NotEqual(t, active, NextBank(active))
	}
}

func TestLedger(t *testing.T) {
	t.Run("Blank", func(t *testing.T) {
		var l Ledger
		assert.Equal(t, NoBank, l.ActiveBank())
		assert.True(t, l.Blank())
		assert.False(t, l.Degraded())
	})

	t.Run("Lowest Nonzero Wins", func(t *testing.T) {
		assert.Equal(t, 1, Ledger{0, 30, 0}.ActiveBank())
		assert.Equal(t, 2, Ledger{0, 0, 1}.ActiveBank())

		degraded := Ledger{0, 12, 40}
		assert.Equal(t, 1, degraded.ActiveBank())
		assert.True(t, degraded.Degraded())
		assert.Equal(t, 12, degraded.Length(1))
	})

	t.Run("Block Round Trip", func(t *testing.T) {
		l := CommitLedger(2, 200)
		assert.Equal(t, Ledger{0, 0, 200}, l)

		b := l.Block()
		assert.Equal(t, byte(200), b[2])
		for i := NumBanks; i < core.BlockSize; i++ {
			assert.Zero(t, b[i])
		}
		assert.Equal(t, l, DecodeLedger(b))
	})

	t.Run("Ignores Trailing Bytes", func(t *testing.T) {
		b := core.Block{5, 0, 0, 0xaa, 0xbb}
		assert.Equal(t, Ledger{5, 0, 0}, DecodeLedger(b))
	})

	t.Run("String", func(t *testing.T) {
		assert.Equal(t, "[25 0 0]", Ledger{25, 0, 0}.String())
		assert.Equal(t, []int{0, 7, 9}, Ledger{0, 7, 9}.Lengths())
	})
}
