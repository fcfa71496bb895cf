package blockchain

import (
	"strings"

	"abi-decoder/internal/domain/entity"

	"github.com/ethereum/go-ethereum/crypto"
)

// KeccakHasher implements service.Hasher with go-ethereum's Keccak-256
type KeccakHasher struct{}

// NewKeccakHasher creates a new Keccak-256 hasher
func NewKeccakHasher() *KeccakHasher {
	return &KeccakHasher{}
}

// Keccak256Hex returns the 0x-prefixed hex digest of s
func (KeccakHasher) Keccak256Hex(s string) string {
	return crypto.Keccak256Hash([]byte(s)).Hex()
}

// TypeString returns the canonical type of p. Only the exact type "tuple"
// is expanded; array suffixes are returned verbatim.
func TypeString(p entity.Parameter) string {
	if p.Type != entity.TupleType {
		return p.Type
	}
	parts := make([]string, len(p.Components))
	for i, c := range p.Components {
		parts[i] = TypeString(c)
	}
	return "(" + strings.Join(parts, ",") + ")"
}

// Signature builds name(type1,type2,...) with tuples fully expanded
func Signature(name string, inputs []entity.Parameter) string {
	parts := make([]string, len(inputs))
	for i, in := range inputs {
		parts[i] = TypeString(in)
	}
	return name + "(" + strings.Join(parts, ",") + ")"
}

// ShallowSignature builds name(type1,type2,...) from the raw type strings
// without expanding tuple components. Removal keys are derived this way.
func ShallowSignature(name string, inputs []entity.Parameter) string {
	parts := make([]string, len(inputs))
	for i, in := range inputs {
		parts[i] = in.Type
	}
	return name + "(" + strings.Join(parts, ",") + ")"
}
