package codec

import (
	"errors"
	"fmt"
)

var (
	// ErrTruncatedInput indicates the buffer ended inside a field.
	ErrTruncatedInput = errors.New("truncated input")

	// ErrValueOutOfRange indicates an encode value does not fit its field kind.
	ErrValueOutOfRange = errors.New("value out of range")

	// ErrTypeMismatch indicates an encode value has no representation for its field kind.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrMissingField indicates an encode input lacks a schema field.
	ErrMissingField = errors.New("missing field")

	// ErrDuplicateFieldName indicates a schema declares the same field name twice.
	ErrDuplicateFieldName = errors.New("duplicate field name")

	// ErrInvalidField indicates a malformed field descriptor.
	ErrInvalidField = errors.New("invalid field")

	// ErrTrailingBytes indicates a strict decode left bytes unread.
	ErrTrailingBytes = errors.New("trailing bytes")
)

// TruncatedInputError reports a field that could not be read in full.
type TruncatedInputError struct {
	Field  string // dotted path, empty for a bare primitive decode
	Offset int    // where the field starts
	Need   int    // bytes the field requires
	Have   int    // bytes left in the buffer at Offset
}

func (e *TruncatedInputError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("truncated input at offset %d: need %d bytes, have %d", e.Offset, e.Need, e.Have)
	}
	return fmt.Sprintf("truncated input at field %q offset %d: need %d bytes, have %d",
		e.Field, e.Offset, e.Need, e.Have)
}

func (e *TruncatedInputError) Is(target error) bool { return target == ErrTruncatedInput }

// ValueOutOfRangeError reports a value that cannot be represented by its kind.
type ValueOutOfRangeError struct {
	Field string
	Kind  Kind
	Value any
	Size  int // expected length for Bytes fields
}

func (e *ValueOutOfRangeError) Error() string {
	target := e.Kind.String()
	if e.Kind == Bytes {
		target = fmt.Sprintf("bytes[%d]", e.Size)
	}
	if e.Field == "" {
		return fmt.Sprintf("value %v out of range for %s", e.Value, target)
	}
	return fmt.Sprintf("value %v out of range for field %q (%s)", e.Value, e.Field, target)
}

func (e *ValueOutOfRangeError) Is(target error) bool { return target == ErrValueOutOfRange }

// TypeMismatchError reports a value of a Go type the field kind cannot take.
type TypeMismatchError struct {
	Field string
	Kind  Kind
	Value any
}

func (e *TypeMismatchError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("cannot encode %T as %s", e.Value, e.Kind)
	}
	return fmt.Sprintf("cannot encode %T as %s for field %q", e.Value, e.Kind, e.Field)
}

func (e *TypeMismatchError) Is(target error) bool { return target == ErrTypeMismatch }

// MissingFieldError reports a schema field absent from the encode input.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing field %q", e.Field)
}

func (e *MissingFieldError) Is(target error) bool { return target == ErrMissingField }

// DuplicateFieldNameError reports a repeated field name at schema construction.
type DuplicateFieldNameError struct {
	Schema string
	Name   string
}

func (e *DuplicateFieldNameError) Error() string {
	return fmt.Sprintf("schema %q: duplicate field name %q", e.Schema, e.Name)
}

func (e *DuplicateFieldNameError) Is(target error) bool { return target == ErrDuplicateFieldName }

// InvalidFieldError reports a malformed field descriptor at schema construction.
type InvalidFieldError struct {
	Schema string
	Index  int
	Reason string
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("schema %q: field %d: %s", e.Schema, e.Index, e.Reason)
}

func (e *InvalidFieldError) Is(target error) bool { return target == ErrInvalidField }

// TrailingBytesError reports bytes left over after a strict decode.
type TrailingBytesError struct {
	Consumed int
	Length   int
}

func (e *TrailingBytesError) Error() string {
	return fmt.Sprintf("trailing bytes: consumed %d of %d", e.Consumed, e.Length)
}

func (e *TrailingBytesError) Is(target error) bool { return target == ErrTrailingBytes }

// withField prefixes the field path of a codec error with name. Errors are
// allocated per call, so updating them in place is safe.
func withField(err error, name string) error {
	switch e := err.(type) {
	case *TruncatedInputError:
		e.Field = joinPath(name, e.Field)
	case *ValueOutOfRangeError:
		e.Field = joinPath(name, e.Field)
	case *TypeMismatchError:
		e.Field = joinPath(name, e.Field)
	case *MissingFieldError:
		e.Field = joinPath(name, e.Field)
	}
	return err
}

func joinPath(parent, child string) string {
	if child == "" {
		return parent
	}
	return parent + "." + child
}
