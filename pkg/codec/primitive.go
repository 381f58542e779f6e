package codec

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DecodePrimitive reads one integer of the given kind starting at offset.
// Unsigned kinds decode to uint8..uint64 and signed kinds to int8..int64.
// The number of bytes consumed is always kind.Width().
func DecodePrimitive(kind Kind, data []byte, offset int) (any, int, error) {
	w := kind.Width()
	if w == 0 {
		return nil, 0, fmt.Errorf("%w: %s is not an integer kind", ErrInvalidField, kind)
	}
	if offset < 0 || offset > len(data) || w > len(data)-offset {
		return nil, 0, &TruncatedInputError{Offset: offset, Need: w, Have: remaining(data, offset)}
	}

	b := data[offset : offset+w]
	switch kind {
	case U8:
		return b[0], w, nil
	case U16:
		return binary.LittleEndian.Uint16(b), w, nil
	case U32:
		return binary.LittleEndian.Uint32(b), w, nil
	case U64:
		return binary.LittleEndian.Uint64(b), w, nil
	case I8:
		return int8(b[0]), w, nil
	case I16:
		return int16(binary.LittleEndian.Uint16(b)), w, nil
	case I32:
		return int32(binary.LittleEndian.Uint32(b)), w, nil
	default: // I64
		return int64(binary.LittleEndian.Uint64(b)), w, nil
	}
}

// EncodePrimitive writes value as exactly kind.Width() little-endian bytes.
//
// Any Go integer type is accepted, as are json.Number and integral floats so
// that values parsed from JSON or the command line can be passed straight in.
func EncodePrimitive(kind Kind, value any) ([]byte, error) {
	w := kind.Width()
	if w == 0 {
		return nil, fmt.Errorf("%w: %s is not an integer kind", ErrInvalidField, kind)
	}
	return appendPrimitive(make([]byte, 0, w), kind, value)
}

func appendPrimitive(dst []byte, kind Kind, value any) ([]byte, error) {
	n, ok := toInteger(value)
	if !ok {
		return nil, &TypeMismatchError{Kind: kind, Value: value}
	}
	if !n.fits(kind) {
		return nil, &ValueOutOfRangeError{Kind: kind, Value: value}
	}

	u := n.abs
	if n.neg {
		u = -u
	}
	switch kind.Width() {
	case 1:
		return append(dst, byte(u)), nil
	case 2:
		return binary.LittleEndian.AppendUint16(dst, uint16(u)), nil
	case 4:
		return binary.LittleEndian.AppendUint32(dst, uint32(u)), nil
	default:
		return binary.LittleEndian.AppendUint64(dst, u), nil
	}
}

func decodeBytes(data []byte, offset, size int) ([]byte, int, error) {
	if offset < 0 || offset > len(data) || size > len(data)-offset {
		return nil, 0, &TruncatedInputError{Offset: offset, Need: size, Have: remaining(data, offset)}
	}
	out := make([]byte, size)
	copy(out, data[offset:offset+size])
	return out, size, nil
}

// appendBytes accepts a []byte, a hex string (optionally 0x-prefixed) or a
// slice of byte-sized numbers as produced by JSON decoding.
func appendBytes(dst []byte, size int, value any) ([]byte, error) {
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		decoded, err := hex.DecodeString(strings.TrimPrefix(v, "0x"))
		if err != nil {
			return nil, &TypeMismatchError{Kind: Bytes, Value: value}
		}
		b = decoded
	case []any:
		b = make([]byte, 0, len(v))
		for _, elem := range v {
			enc, err := appendPrimitive(b, U8, elem)
			if err != nil {
				return nil, &TypeMismatchError{Kind: Bytes, Value: value}
			}
			b = enc
		}
	default:
		return nil, &TypeMismatchError{Kind: Bytes, Value: value}
	}
	if len(b) != size {
		return nil, &ValueOutOfRangeError{Kind: Bytes, Value: value, Size: size}
	}
	return append(dst, b...), nil
}

func remaining(data []byte, offset int) int {
	if offset < 0 || offset > len(data) {
		return 0
	}
	return len(data) - offset
}

// integer is a sign and magnitude view of any accepted numeric input.
// overflow marks magnitudes beyond 64 bits.
type integer struct {
	neg      bool
	abs      uint64
	overflow bool
}

func (n integer) fits(kind Kind) bool {
	if n.overflow {
		return false
	}
	if n.neg {
		return n.abs <= kind.maxNegative()
	}
	return n.abs <= kind.maxUnsigned()
}

func fromSigned(v int64) integer {
	if v < 0 {
		// -(v+1) avoids overflowing on math.MinInt64.
		return integer{neg: true, abs: uint64(-(v + 1)) + 1}
	}
	return integer{abs: uint64(v)}
}

func toInteger(value any) (integer, bool) {
	switch v := value.(type) {
	case int:
		return fromSigned(int64(v)), true
	case int8:
		return fromSigned(int64(v)), true
	case int16:
		return fromSigned(int64(v)), true
	case int32:
		return fromSigned(int64(v)), true
	case int64:
		return fromSigned(v), true
	case uint:
		return integer{abs: uint64(v)}, true
	case uint8:
		return integer{abs: uint64(v)}, true
	case uint16:
		return integer{abs: uint64(v)}, true
	case uint32:
		return integer{abs: uint64(v)}, true
	case uint64:
		return integer{abs: v}, true
	case uintptr:
		return integer{abs: uint64(v)}, true
	case float32:
		return fromFloat(float64(v))
	case float64:
		return fromFloat(v)
	case json.Number:
		return fromDecimal(string(v))
	default:
		return integer{}, false
	}
}

func fromFloat(f float64) (integer, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return integer{}, false
	}
	n := integer{neg: f < 0}
	abs := math.Abs(f)
	if abs >= 1<<64 {
		n.overflow = true
		return n, true
	}
	n.abs = uint64(abs)
	return n, true
}

// fromDecimal parses an integer literal without losing precision above 2^53.
func fromDecimal(s string) (integer, bool) {
	s = strings.TrimSpace(s)
	digits, neg := strings.CutPrefix(s, "-")
	if !neg {
		digits = strings.TrimPrefix(s, "+")
	}

	u, err := strconv.ParseUint(digits, 10, 64)
	if err == nil {
		return integer{neg: neg && u != 0, abs: u}, true
	}
	if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
		return integer{neg: neg, overflow: true}, true
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return integer{}, false
	}
	return fromFloat(f)
}
