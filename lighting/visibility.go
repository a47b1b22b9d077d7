package lighting

import (
	"github.com/achilleasa/lightbake/types"
	"github.com/bits-and-blooms/bitset"
)

// A visibility cell with one bit per visibility query.
type VisibilityCell struct {
	Bounds types.Box
	Data   []byte
}

// A ray traced while evaluating visibility.
type DebugVisibilityRay struct {
	Start, End types.Vec4
	Hit        bool
}

// Solver output for a precomputed visibility task.
type VisibilityResult struct {
	TaskGuid  types.Guid
	Cells     []VisibilityCell
	DebugRays []DebugVisibilityRay
}

// Pack the first numBits bits of bs into bytes. Bit i lands in byte i/8 at
// position i%8.
func PackBits(bs *bitset.BitSet, numBits uint) []byte {
	out := make([]byte, (numBits+7)/8)
	for i, ok := bs.NextSet(0); ok && i < numBits; i, ok = bs.NextSet(i + 1) {
		out[i/8] |= 1 << (i % 8)
	}
	return out
}

// Unpack visibility bytes into a bitset.
func UnpackBits(data []byte) *bitset.BitSet {
	bs := bitset.New(uint(len(data)) * 8)
	for byteIndex, b := range data {
		for bit := uint(0); bit < 8; bit++ {
			if b&(1<<bit) != 0 {
				bs.Set(uint(byteIndex)*8 + bit)
			}
		}
	}
	return bs
}
