package codec

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"iter"
)

// Values supplies field values to the encoder by name.
type Values interface {
	Get(name string) (any, bool)
}

// Map is the plain map form of Values.
type Map map[string]any

// Get returns the value stored under name.
func (m Map) Get(name string) (any, bool) {
	v, ok := m[name]
	return v, ok
}

// Record is the result of decoding a schema: field values in wire order plus
// the number of bytes consumed. A Record can be fed back to Encode.
type Record struct {
	names    []string
	values   map[string]any
	consumed int
}

func newRecord(n int) *Record {
	return &Record{
		names:  make([]string, 0, n),
		values: make(map[string]any, n),
	}
}

func (r *Record) append(name string, v any) {
	r.names = append(r.names, name)
	r.values[name] = v
}

// Get returns the decoded value of a field. Nested records are *Record.
func (r *Record) Get(name string) (any, bool) {
	if r == nil {
		return nil, false
	}
	v, ok := r.values[name]
	return v, ok
}

// Len returns the number of fields.
func (r *Record) Len() int {
	if r == nil {
		return 0
	}
	return len(r.names)
}

// Consumed returns how many bytes the record occupied in its source buffer.
func (r *Record) Consumed() int { return r.consumed }

// Names returns the field names in wire order.
func (r *Record) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// All iterates over fields in wire order.
func (r *Record) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		if r == nil {
			return
		}
		for _, name := range r.names {
			if !yield(name, r.values[name]) {
				return
			}
		}
	}
}

// Map flattens the record into plain maps, converting nested records too.
func (r *Record) Map() map[string]any {
	if r == nil {
		return nil
	}
	out := make(map[string]any, len(r.names))
	for name, v := range r.All() {
		if nested, ok := v.(*Record); ok {
			v = nested.Map()
		}
		out[name] = v
	}
	return out
}

// MarshalJSON writes the record as an object whose keys keep wire order.
// Byte arrays are rendered as 0x-prefixed hex so they can be encoded again.
func (r *Record) MarshalJSON() ([]byte, error) {
	if r == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range r.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		var val []byte
		switch v := r.values[name].(type) {
		case []byte:
			val, err = json.Marshal("0x" + hex.EncodeToString(v))
		default:
			val, err = json.Marshal(v)
		}
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// String renders the record as {name: value, ...} in wire order.
func (r *Record) String() string {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, name := range r.names {
		if i > 0 {
			b.WriteString(", ")
		}
		switch v := r.values[name].(type) {
		case []byte:
			fmt.Fprintf(&b, "%s: 0x%x", name, v)
		default:
			fmt.Fprintf(&b, "%s: %v", name, v)
		}
	}
	b.WriteByte('}')
	return b.String()
}

// DecodeRecord decodes s from data starting at offset. It returns the record
// and the number of bytes consumed, or an error naming the field that failed.
func DecodeRecord(s *Schema, data []byte, offset int) (*Record, int, error) {
	rec := newRecord(s.Len())
	pos := offset

	for _, f := range s.fields {
		v, n, err := decodeField(f, data, pos)
		if err != nil {
			return nil, 0, withField(err, f.Name)
		}
		rec.append(f.Name, v)
		pos += n
	}

	rec.consumed = pos - offset
	return rec, rec.consumed, nil
}

func decodeField(f Field, data []byte, offset int) (any, int, error) {
	switch f.Kind {
	case Bytes:
		return decodeBytes(data, offset, f.Size)
	case Struct:
		return DecodeRecord(f.Schema, data, offset)
	default:
		return DecodePrimitive(f.Kind, data, offset)
	}
}

// EncodeRecord encodes values in the order declared by s. Keys not in the
// schema are ignored.
func EncodeRecord(s *Schema, values Values) ([]byte, error) {
	return appendRecord(make([]byte, 0, s.Size()), s, values)
}

func appendRecord(dst []byte, s *Schema, values Values) ([]byte, error) {
	if values == nil {
		values = Map(nil)
	}

	var err error
	for _, f := range s.fields {
		v, ok := values.Get(f.Name)
		if !ok {
			return nil, &MissingFieldError{Field: f.Name}
		}
		dst, err = appendField(dst, f, v)
		if err != nil {
			return nil, withField(err, f.Name)
		}
	}
	return dst, nil
}

func appendField(dst []byte, f Field, v any) ([]byte, error) {
	switch f.Kind {
	case Bytes:
		return appendBytes(dst, f.Size, v)
	case Struct:
		nested, ok := asValues(v)
		if !ok {
			return nil, &TypeMismatchError{Kind: Struct, Value: v}
		}
		return appendRecord(dst, f.Schema, nested)
	default:
		return appendPrimitive(dst, f.Kind, v)
	}
}

func asValues(v any) (Values, bool) {
	switch nv := v.(type) {
	case *Record:
		return nv, nv != nil
	case Values:
		return nv, nv != nil
	case map[string]any:
		return Map(nv), true
	default:
		return nil, false
	}
}
