package types

import (
	"fmt"

	"github.com/google/uuid"
)

// Namespace for guids derived from asset names.
var guidNamespace = uuid.MustParse("6c1a2f7e-0b5d-4c8e-9a53-7f2d0e4b1c90")

// A 128-bit identifier stored as four 32-bit words.
type Guid struct {
	A, B, C, D uint32
}

// Parse a guid from its textual form. Both the dashed uuid form and 32 hex
// digits are accepted. The uuid bytes map to words A-D in big-endian order so
// "00000000-0000-0000-0000-000000000001" yields D == 1.
func ParseGuid(s string) (Guid, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return Guid{}, fmt.Errorf("guid: could not parse %q: %w", s, err)
	}
	return guidFromBytes(u), nil
}

// Parse a guid and panic if it is malformed.
func MustParseGuid(s string) Guid {
	g, err := ParseGuid(s)
	if err != nil {
		panic(err)
	}
	return g
}

// Derive a stable guid from a name.
func GuidFromName(name string) Guid {
	return guidFromBytes(uuid.NewSHA1(guidNamespace, []byte(name)))
}

func guidFromBytes(b uuid.UUID) Guid {
	word := func(i int) uint32 {
		return uint32(b[i])<<24 | uint32(b[i+1])<<16 | uint32(b[i+2])<<8 | uint32(b[i+3])
	}
	return Guid{A: word(0), B: word(4), C: word(8), D: word(12)}
}

// Format guid as 32 upper-case hex digits.
func (g Guid) String() string {
	return fmt.Sprintf("%08X%08X%08X%08X", g.A, g.B, g.C, g.D)
}

// Returns true if all words are zero.
func (g Guid) IsZero() bool {
	return g == Guid{}
}

// Compare two guids word by word. Returns -1, 0 or 1.
func (g Guid) Compare(other Guid) int {
	a := [4]uint32{g.A, g.B, g.C, g.D}
	b := [4]uint32{other.A, other.B, other.C, other.D}
	for i := range a {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	return 0
}

// Get a 32-bit hash of the guid.
func (g Guid) Hash() uint32 {
	return g.A ^ g.B ^ g.C ^ g.D
}
