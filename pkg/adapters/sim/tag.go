// Package sim simulates a contactless reader and 1K tags in memory, for tests and for
// running the control loop without hardware.
package sim

import (
	"fmt"

	"github.com/aretw0/tagvault/pkg/core"
	"github.com/aretw0/tagvault/pkg/layout"
)

// ImageSize is the size of a raw tag dump.
const ImageSize = layout.NumBlocks * layout.BlockSize

// defaultAccessBits are the transport configuration access bits (FF 07 80) and GPB (69).
var defaultAccessBits = [4]byte{0xff, 0x07, 0x80, 0x69}

// Tag is a simulated 1K tag.
type Tag struct {
	uid    core.UID
	blocks [layout.NumBlocks]core.Block
}

// NewBlankTag returns a factory-fresh tag: manufacturer block carrying uid, every
// sector trailer set to the default key, every other block zero.
func NewBlankTag(uid core.UID) *Tag {
	t := &Tag{uid: append(core.UID(nil), uid...)}
	copy(t.blocks[0][:], uid)
	if len(uid) == 4 {
		t.blocks[0][4] = bcc(uid)
	}
	for sector := 0; sector < layout.NumBlocks/4; sector++ {
		t.SetKeys(sector, core.DefaultKey, core.DefaultKey)
	}
	return t
}

// UID returns the tag identifier.
func (t *Tag) UID() core.UID {
	return append(core.UID(nil), t.uid...)
}

// Block returns the content of physical block i.
func (t *Tag) Block(i int) core.Block {
	return t.blocks[i]
}

// SetBlock overwrites physical block i, bypassing authentication.
func (t *Tag) SetBlock(i int, b core.Block) {
	t.blocks[i] = b
}

// SetKeys rewrites the trailer of sector with the given keys and default access bits.
func (t *Tag) SetKeys(sector int, keyA, keyB core.Key) {
	var trailer core.Block
	copy(trailer[0:6], keyA[:])
	copy(trailer[6:10], defaultAccessBits[:])
	copy(trailer[10:16], keyB[:])
	t.blocks[sector*4+3] = trailer
}

func (t *Tag) key(kt core.KeyType, block int) core.Key {
	trailer := t.blocks[(block/4)*4+3]
	var k core.Key
	if kt == core.KeyB {
		copy(k[:], trailer[10:16])
	} else {
		copy(k[:], trailer[0:6])
	}
	return k
}

// MarshalBinary returns the raw 1024 byte dump of the tag.
func (t *Tag) MarshalBinary() ([]byte, error) {
	out := make([]byte, 0, ImageSize)
	for _, b := range t.blocks {
		out = append(out, b[:]...)
	}
	return out, nil
}

// UnmarshalBinary loads a raw dump. The UID is taken from the manufacturer block:
// four bytes when followed by a matching check byte, seven otherwise.
func (t *Tag) UnmarshalBinary(data []byte) error {
	if len(data) != ImageSize {
		return fmt.Errorf("invalid tag image: expected %d bytes, got %d", ImageSize, len(data))
	}
	for i := range t.blocks {
		copy(t.blocks[i][:], data[i*layout.BlockSize:])
	}
	m := t.blocks[0]
	if bcc(core.UID(m[:4])) == m[4] {
		t.uid = append(core.UID(nil), m[:4]...)
	} else {
		t.uid = append(core.UID(nil), m[:7]...)
	}
	return nil
}

func bcc(uid core.UID) byte {
	var x byte
	for _, b := range uid[:4] {
		x ^= b
	}
	return x
}
