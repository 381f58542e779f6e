// Package registry holds the named schemas a borshkit process knows about.
//
// Schemas come from two places: the built-in layouts of the quiz program
// (see Builtins) and the layout tables of the YAML configuration. Nested
// fields reference other definitions by name; the registry resolves them in
// dependency order and rejects unknown names and reference cycles. Once built,
// a Registry is read-only and safe for concurrent use.
package registry

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/ssargent/borshkit/pkg/codec"
)

var (
	// ErrUnknownSchema indicates a lookup or nested reference to an undefined schema.
	ErrUnknownSchema = errors.New("unknown schema")
	// ErrDuplicateSchema indicates two definitions share a name.
	ErrDuplicateSchema = errors.New("duplicate schema")
	// ErrSchemaCycle indicates definitions that nest each other.
	ErrSchemaCycle = errors.New("schema reference cycle")
	// ErrInvalidDefinition indicates a field type the registry cannot interpret.
	ErrInvalidDefinition = errors.New("invalid schema definition")
)

// FieldDef is one row of a layout table.
type FieldDef struct {
	Name string `yaml:"name" json:"name"`
	// Type is u8..u64, i8..i64, bytes, bytes[N], struct, or the name of
	// another definition.
	Type   string `yaml:"type" json:"type"`
	Size   int    `yaml:"size,omitempty" json:"size,omitempty"`
	Schema string `yaml:"schema,omitempty" json:"schema,omitempty"`
}

// Definition is a named layout table.
type Definition struct {
	Name   string     `yaml:"name" json:"name"`
	Fields []FieldDef `yaml:"fields" json:"fields"`
}

// Registry maps schema names to built schemas.
type Registry struct {
	schemas map[string]*codec.Schema
	names   []string
}

// New builds a registry from definitions. Definitions may appear in any order.
func New(defs ...Definition) (*Registry, error) {
	b := &builder{
		defs:  make(map[string]Definition, len(defs)),
		built: make(map[string]*codec.Schema, len(defs)),
		state: make(map[string]visitState, len(defs)),
	}
	for _, def := range defs {
		if def.Name == "" {
			return nil, fmt.Errorf("%w: definition without a name", ErrInvalidDefinition)
		}
		if _, dup := b.defs[def.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateSchema, def.Name)
		}
		b.defs[def.Name] = def
		b.order = append(b.order, def.Name)
	}

	for _, name := range b.order {
		if _, err := b.build(name, nil); err != nil {
			return nil, err
		}
	}

	names := slices.Clone(b.order)
	slices.Sort(names)
	return &Registry{schemas: b.built, names: names}, nil
}

// Default builds a registry of the built-in layouts followed by defs.
func Default(defs ...Definition) (*Registry, error) {
	return New(append(Builtins(), defs...)...)
}

// Lookup returns the schema registered under name.
func (r *Registry) Lookup(name string) (*codec.Schema, error) {
	s, ok := r.schemas[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSchema, name)
	}
	return s, nil
}

// Names returns the registered schema names in sorted order.
func (r *Registry) Names() []string {
	return slices.Clone(r.names)
}

// Len returns the number of registered schemas.
func (r *Registry) Len() int {
	return len(r.names)
}

type visitState uint8

const (
	unvisited visitState = iota
	visiting
	done
)

type builder struct {
	defs  map[string]Definition
	order []string
	built map[string]*codec.Schema
	state map[string]visitState
}

// build resolves name depth-first so nested schemas exist before their parents.
func (b *builder) build(name string, path []string) (*codec.Schema, error) {
	switch b.state[name] {
	case done:
		return b.built[name], nil
	case visiting:
		return nil, fmt.Errorf("%w: %s", ErrSchemaCycle, strings.Join(append(path, name), " -> "))
	}

	def, ok := b.defs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSchema, name)
	}

	b.state[name] = visiting
	path = append(path, name)

	fields := make([]codec.Field, 0, len(def.Fields))
	for _, fd := range def.Fields {
		f, err := b.field(fd, path)
		if err != nil {
			return nil, fmt.Errorf("schema %q field %q: %w", name, fd.Name, err)
		}
		fields = append(fields, f)
	}

	s, err := codec.NewSchema(name, fields...)
	if err != nil {
		return nil, err
	}

	b.state[name] = done
	b.built[name] = s
	return s, nil
}

var bytesType = regexp.MustCompile(`^bytes\[(\d+)\]$`)

func (b *builder) field(fd FieldDef, path []string) (codec.Field, error) {
	typ := strings.ToLower(strings.TrimSpace(fd.Type))

	if m := bytesType.FindStringSubmatch(typ); m != nil {
		size, err := strconv.Atoi(m[1])
		if err != nil {
			return codec.Field{}, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
		}
		return codec.BytesField(fd.Name, size), nil
	}

	switch typ {
	case "bytes":
		return codec.BytesField(fd.Name, fd.Size), nil
	case "struct":
		if fd.Schema == "" {
			return codec.Field{}, fmt.Errorf("%w: struct field needs a schema", ErrInvalidDefinition)
		}
		return b.nested(fd.Name, fd.Schema, path)
	}

	if kind, err := codec.ParseKind(typ); err == nil && kind.Integer() {
		return codec.NewField(fd.Name, kind), nil
	}

	// Any other type names a definition.
	if _, ok := b.defs[fd.Type]; ok {
		return b.nested(fd.Name, fd.Type, path)
	}
	return codec.Field{}, fmt.Errorf("%w: type %q", ErrUnknownSchema, fd.Type)
}

func (b *builder) nested(field, schema string, path []string) (codec.Field, error) {
	s, err := b.build(schema, path)
	if err != nil {
		return codec.Field{}, err
	}
	return codec.StructField(field, s), nil
}
