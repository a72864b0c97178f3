// Package layout maps the logical storage of a 1K tag onto its physical blocks.
//
// Physical layout:
//
//	block 0          manufacturer block, never written
//	block 1          ledger: first NumBanks bytes hold the payload length of each bank
//	block 2          reserved for future use
//	block n%4 == 3   sector trailers (keys and access bits), never data
//	all others       45 safe blocks, split into NumBanks banks of BlocksPerBank blocks
package layout

import (
	"fmt"

	"github.com/aretw0/tagvault/pkg/core"
)

const (
	// BlockSize is the number of bytes per block.
	BlockSize = core.BlockSize
	// NumBlocks is the number of physical blocks in a 1K tag.
	NumBlocks = 64
	// NumBanks is the number of banks used in rotation.
	NumBanks = 3
	// ReservedBlocks is the number of data blocks kept out of the banks (0, 1 and 2).
	ReservedBlocks = 3
	// DataBlocks is the number of non-trailer blocks.
	DataBlocks = (NumBlocks / 4) * 3
	// SafeBlocks is the number of blocks available to banks.
	SafeBlocks = DataBlocks - ReservedBlocks
	// BlocksPerBank is the number of safe blocks allocated to each bank.
	BlocksPerBank = SafeBlocks / NumBanks
	// BankCapacity is the largest payload a bank can hold.
	BankCapacity = BlocksPerBank * BlockSize
	// MaxLedgerLength is the largest length a ledger entry can record.
	MaxLedgerLength = 255
	// LedgerIndex is the physical index of the ledger block.
	LedgerIndex = 1
	// NoBank is returned when no bank holds data.
	NoBank = -1
)

// BlockClass classifies a physical block index.
type BlockClass int

const (
	ClassData BlockClass = iota
	ClassManufacturer
	ClassLedger
	ClassFutureReserved
	ClassAuthTrailer
)

func (c BlockClass) String() string {
	switch c {
	case ClassData:
		return "data"
	case ClassManufacturer:
		return "manufacturer"
	case ClassLedger:
		return "ledger"
	case ClassFutureReserved:
		return "reserved"
	case ClassAuthTrailer:
		return "trailer"
	default:
		return fmt.Sprintf("BlockClass(%d)", int(c))
	}
}

// Classify returns the class of a physical block index.
func Classify(physical int) BlockClass {
	switch {
	case physical%4 == 3:
		return ClassAuthTrailer
	case physical == 0:
		return ClassManufacturer
	case physical == LedgerIndex:
		return ClassLedger
	case physical == 2:
		return ClassFutureReserved
	default:
		return ClassData
	}
}

// RealIndex translates a safe index in [0, SafeBlocks) to its physical block index,
// skipping the reserved blocks and one trailer per three data blocks.
// Any other input is a programming error and panics.
func RealIndex(safe int) int {
	if safe < 0 || safe >= SafeBlocks {
		panic(fmt.Sprintf("layout: safe index %d out of range [0,%d)", safe, SafeBlocks))
	}
	safe += ReservedBlocks
	return (safe/3)*4 + safe%3
}

// BankStart returns the first safe index of bank.
func BankStart(bank int) int {
	if bank < 0 || bank >= NumBanks {
		panic(fmt.Sprintf("layout: bank %d out of range [0,%d)", bank, NumBanks))
	}
	return bank * BlocksPerBank
}

// BlocksFor returns the number of blocks needed to hold length bytes.
func BlocksFor(length int) int {
	return (length + BlockSize - 1) / BlockSize
}

// BankBlocks returns the physical indices holding the first length bytes of bank.
func BankBlocks(bank, length int) []int {
	if length < 0 || length > BankCapacity {
		panic(fmt.Sprintf("layout: length %d out of range [0,%d]", length, BankCapacity))
	}
	start := BankStart(bank)
	n := BlocksFor(length)
	out := make([]int, n)
	for i := 0; i < n; i++ {
		out[i] = RealIndex(start + i)
	}
	return out
}

// NextBank returns the bank to target after active: the one after it, round robin,
// or bank 0 when no bank is active. It never returns the active bank.
func NextBank(active int) int {
	if active == NoBank {
		return 0
	}
	return (active + 1) % NumBanks
}
