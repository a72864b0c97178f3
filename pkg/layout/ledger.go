package layout

import (
	"fmt"

	"github.com/aretw0/tagvault/pkg/core"
)

// Ledger records the payload length of each bank. It is the only authority on which
// bank holds valid data; bytes of any other bank may be stale.
type Ledger [NumBanks]byte

// DecodeLedger extracts the ledger from the ledger block. Trailing bytes are ignored.
func DecodeLedger(b core.Block) Ledger {
	var l Ledger
	copy(l[:], b[:NumBanks])
	return l
}

// CommitLedger returns the ledger that makes bank the only active bank.
func CommitLedger(bank, length int) Ledger {
	var l Ledger
	l[bank] = byte(length)
	return l
}

// Block encodes the ledger into a block, zero filling the remainder.
func (l Ledger) Block() core.Block {
	var b core.Block
	copy(b[:], l[:])
	return b
}

// ActiveBank returns the lowest bank with a nonzero length, or NoBank.
//
// Several nonzero entries only arise from an interrupted commit; the lowest one wins
// and the state is reported by Degraded.
func (l Ledger) ActiveBank() int {
	for bank, length := range l {
		if length != 0 {
			return bank
		}
	}
	return NoBank
}

// Length returns the payload length recorded for bank.
func (l Ledger) Length(bank int) int {
	return int(l[bank])
}

// Degraded reports whether more than one bank claims data.
func (l Ledger) Degraded() bool {
	n := 0
	for _, length := range l {
		if length != 0 {
			n++
		}
	}
	return n > 1
}

// Blank reports whether no bank holds data.
func (l Ledger) Blank() bool {
	return l.ActiveBank() == NoBank
}

// Lengths returns the recorded lengths as ints, in bank order.
func (l Ledger) Lengths() []int {
	out := make([]int, NumBanks)
	for i, length := range l {
		out[i] = int(length)
	}
	return out
}

func (l Ledger) String() string {
	return fmt.Sprint(l.Lengths())
}
