package api

import (
	"time"

	"github.com/ssargent/borshkit/pkg/codec"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Port   int
	Bind   string
	APIKey string
	// Strict is the trailing-bytes mode used when a request does not set ?strict.
	Strict bool
	// MaxInputSize caps request bodies in bytes.
	MaxInputSize int64
}

// FieldInfo describes one field of a schema layout.
type FieldInfo struct {
	Name   string      `json:"name"`
	Type   string      `json:"type"`
	Offset int         `json:"offset"`
	Width  int         `json:"width"`
	Fields []FieldInfo `json:"fields,omitempty"`
}

// SchemaInfo describes a registered schema.
type SchemaInfo struct {
	Name   string      `json:"name"`
	Size   int         `json:"size"`
	Fields []FieldInfo `json:"fields"`
}

// DecodeResponse is returned by the decode endpoint.
type DecodeResponse struct {
	Schema   string        `json:"schema"`
	Consumed int           `json:"consumed"`
	Record   *codec.Record `json:"record"`
}

// EncodeResponse is returned by the encode endpoint.
type EncodeResponse struct {
	Schema string `json:"schema"`
	Hex    string `json:"hex"`
	Size   int    `json:"size"`
}

// StoredResponse is returned after a payload has been stored.
type StoredResponse struct {
	ID     string `json:"id"`
	Schema string `json:"schema"`
	Size   int    `json:"size"`
}

// RecordResponse is a stored payload together with its decoded record.
type RecordResponse struct {
	ID        string        `json:"id"`
	Schema    string        `json:"schema"`
	CreatedAt time.Time     `json:"created_at"`
	Hex       string        `json:"hex"`
	Record    *codec.Record `json:"record"`
}

// DescribeSchema flattens a schema into its JSON description.
func DescribeSchema(s *codec.Schema) SchemaInfo {
	return SchemaInfo{Name: s.Name(), Size: s.Size(), Fields: describeFields(s, 0)}
}

func describeFields(s *codec.Schema, base int) []FieldInfo {
	out := make([]FieldInfo, 0, s.Len())
	offset := base
	for _, f := range s.Fields() {
		info := FieldInfo{Name: f.Name, Type: f.TypeName(), Offset: offset, Width: f.Width()}
		if f.Schema != nil {
			info.Fields = describeFields(f.Schema, offset)
		}
		out = append(out, info)
		offset += f.Width()
	}
	return out
}
