package codec

// Mode selects how a Driver treats bytes left after the last field.
type Mode int

const (
	// Lenient ignores trailing bytes; Record.Consumed reports where decoding stopped.
	Lenient Mode = iota
	// Strict fails with a TrailingBytesError unless the whole buffer was consumed.
	Strict
)

func (m Mode) String() string {
	if m == Strict {
		return "strict"
	}
	return "lenient"
}

// Driver decodes whole buffers and encodes whole records against a schema.
// It holds no state besides its mode and is safe for concurrent use.
type Driver struct {
	mode Mode
}

// NewDriver creates a driver in the given mode.
func NewDriver(mode Mode) *Driver {
	return &Driver{mode: mode}
}

// Mode returns the trailing-bytes mode.
func (d *Driver) Mode() Mode { return d.mode }

// Decode decodes s from the start of data.
func (d *Driver) Decode(s *Schema, data []byte) (*Record, error) {
	rec, n, err := DecodeRecord(s, data, 0)
	if err != nil {
		return nil, err
	}
	if d.mode == Strict && n != len(data) {
		return nil, &TrailingBytesError{Consumed: n, Length: len(data)}
	}
	return rec, nil
}

// Encode encodes values against s.
func (d *Driver) Encode(s *Schema, values Values) ([]byte, error) {
	return EncodeRecord(s, values)
}

var (
	lenient = NewDriver(Lenient)
	strict  = NewDriver(Strict)
)

// Decode decodes s from data, ignoring trailing bytes.
func Decode(s *Schema, data []byte) (*Record, error) {
	return lenient.Decode(s, data)
}

// DecodeStrict decodes s from data and rejects trailing bytes.
func DecodeStrict(s *Schema, data []byte) (*Record, error) {
	return strict.Decode(s, data)
}

// Encode encodes values against s.
func Encode(s *Schema, values Values) ([]byte, error) {
	return lenient.Encode(s, values)
}
