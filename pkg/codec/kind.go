package codec

import (
	"fmt"
	"strings"
)

// Kind identifies how a field is laid out on the wire.
type Kind uint8

const (
	Invalid Kind = iota
	U8
	U16
	U32
	U64
	I8
	I16
	I32
	I64
	// Bytes is a fixed-length byte array; its length lives on the Field.
	Bytes
	// Struct is a nested record described by another Schema.
	Struct
)

var kindNames = [...]string{
	Invalid: "invalid",
	U8:      "u8",
	U16:     "u16",
	U32:     "u32",
	U64:     "u64",
	I8:      "i8",
	I16:     "i16",
	I32:     "i32",
	I64:     "i64",
	Bytes:   "bytes",
	Struct:  "struct",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind maps a kind name such as "u64" back to its Kind.
func ParseKind(name string) (Kind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for k, n := range kindNames {
		if Kind(k) != Invalid && n == name {
			return Kind(k), nil
		}
	}
	return Invalid, fmt.Errorf("unknown kind %q", name)
}

// Width returns the encoded size of an integer kind, or 0 for kinds whose
// size depends on the field (Bytes, Struct) and for Invalid.
func (k Kind) Width() int {
	switch k {
	case U8, I8:
		return 1
	case U16, I16:
		return 2
	case U32, I32:
		return 4
	case U64, I64:
		return 8
	default:
		return 0
	}
}

// Integer reports whether k is one of the fixed-width integer kinds.
func (k Kind) Integer() bool {
	return k.Width() > 0
}

// Signed reports whether k is a two's-complement integer kind.
func (k Kind) Signed() bool {
	return k >= I8 && k <= I64
}

func (k Kind) bits() uint {
	return uint(k.Width()) * 8
}

// maxUnsigned is the largest magnitude representable by k in the positive direction.
func (k Kind) maxUnsigned() uint64 {
	if k.Signed() {
		return 1<<(k.bits()-1) - 1
	}
	if k == U64 {
		return ^uint64(0)
	}
	return 1<<k.bits() - 1
}

// maxNegative is the largest magnitude representable by k in the negative direction.
func (k Kind) maxNegative() uint64 {
	if !k.Signed() {
		return 0
	}
	return 1 << (k.bits() - 1)
}
