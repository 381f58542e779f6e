package codec

import (
	"fmt"
	"iter"
	"math"
	"strings"
)

// Field describes one slot of a record layout.
type Field struct {
	Name   string
	Kind   Kind
	Size   int     // length of a Bytes field
	Schema *Schema // layout of a Struct field
}

// NewField describes an integer field.
func NewField(name string, kind Kind) Field {
	return Field{Name: name, Kind: kind}
}

// BytesField describes a fixed-length byte array such as a 32-byte public key.
func BytesField(name string, size int) Field {
	return Field{Name: name, Kind: Bytes, Size: size}
}

// StructField describes a nested record laid out by s.
func StructField(name string, s *Schema) Field {
	return Field{Name: name, Kind: Struct, Schema: s}
}

// Width returns the number of bytes the field always occupies.
func (f Field) Width() int {
	switch f.Kind {
	case Bytes:
		return f.Size
	case Struct:
		return f.Schema.Size()
	default:
		return f.Kind.Width()
	}
}

// TypeName renders the field kind the way layout tables spell it.
func (f Field) TypeName() string {
	switch f.Kind {
	case Bytes:
		return fmt.Sprintf("bytes[%d]", f.Size)
	case Struct:
		return f.Schema.Name()
	default:
		return f.Kind.String()
	}
}

// Schema is an ordered, immutable list of fields. It is safe for concurrent use.
type Schema struct {
	name   string
	fields []Field
	index  map[string]int
	size   int
}

// MaxSize bounds the total width of a schema.
const MaxSize = math.MaxInt32

// NewSchema builds a schema from fields in wire order.
func NewSchema(name string, fields ...Field) (*Schema, error) {
	s := &Schema{
		name:   name,
		fields: make([]Field, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	copy(s.fields, fields)

	for i, f := range s.fields {
		if err := validateField(name, i, f); err != nil {
			return nil, err
		}
		if _, dup := s.index[f.Name]; dup {
			return nil, &DuplicateFieldNameError{Schema: name, Name: f.Name}
		}
		s.index[f.Name] = i
		if f.Width() > MaxSize-s.size {
			return nil, &InvalidFieldError{Schema: name, Index: i,
				Reason: fmt.Sprintf("field %q grows the schema beyond %d bytes", f.Name, MaxSize)}
		}
		s.size += f.Width()
	}

	return s, nil
}

// MustSchema is like NewSchema but panics on error. It is meant for
// package-level layout tables.
func MustSchema(name string, fields ...Field) *Schema {
	s, err := NewSchema(name, fields...)
	if err != nil {
		panic(err)
	}
	return s
}

func validateField(schema string, i int, f Field) error {
	invalid := func(format string, args ...any) error {
		return &InvalidFieldError{Schema: schema, Index: i, Reason: fmt.Sprintf(format, args...)}
	}

	if f.Name == "" {
		return invalid("empty name")
	}
	if strings.Contains(f.Name, ".") {
		return invalid("name %q must not contain '.'", f.Name)
	}

	switch {
	case f.Kind.Integer():
	case f.Kind == Bytes:
		if f.Size <= 0 || f.Size > MaxSize {
			return invalid("bytes field %q needs a size between 1 and %d, got %d", f.Name, MaxSize, f.Size)
		}
	case f.Kind == Struct:
		if f.Schema == nil {
			return invalid("struct field %q has no schema", f.Name)
		}
	default:
		return invalid("field %q has unsupported kind %s", f.Name, f.Kind)
	}
	return nil
}

// Name returns the schema name.
func (s *Schema) Name() string { return s.name }

// Len returns the number of fields.
func (s *Schema) Len() int { return len(s.fields) }

// Size returns the fixed encoded size of a record in bytes.
func (s *Schema) Size() int { return s.size }

// Field returns the i-th field in wire order.
func (s *Schema) Field(i int) Field { return s.fields[i] }

// Fields iterates over fields in wire order.
func (s *Schema) Fields() iter.Seq2[int, Field] {
	return func(yield func(int, Field) bool) {
		for i, f := range s.fields {
			if !yield(i, f) {
				return
			}
		}
	}
}

// Index returns the position of the named field. It never affects wire order.
func (s *Schema) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// String renders the layout, e.g. "join_quiz{bet:u64,fee:u64}".
func (s *Schema) String() string {
	var b strings.Builder
	b.WriteString(s.name)
	b.WriteByte('{')
	for i, f := range s.fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(f.Name)
		b.WriteByte(':')
		if f.Kind == Struct {
			b.WriteString(f.Schema.String())
		} else {
			b.WriteString(f.TypeName())
		}
	}
	b.WriteByte('}')
	return b.String()
}
