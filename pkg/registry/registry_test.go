package registry

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/borshkit/pkg/codec"
)

func TestDefault_Builtins(t *testing.T) {
	reg, err := Default()
	require.NoError(t, err)

	assert.Equal(t, []string{JoinQuiz, JoinQuizInstruction, PayloadHeader, ScoreEntry}, reg.Names())
	assert.Equal(t, 4, reg.Len())

	sizes := map[string]int{
		JoinQuiz:            16,
		JoinQuizInstruction: 17,
		ScoreEntry:          40,
		PayloadHeader:       16,
	}
	for name, size := range sizes {
		s, err := reg.Lookup(name)
		require.NoError(t, err)
		assert.Equal(t, size, s.Size(), name)
	}
}

func TestDefault_DecodesQuizInstruction(t *testing.T) {
	reg, err := Default()
	require.NoError(t, err)

	s, err := reg.Lookup(JoinQuizInstruction)
	require.NoError(t, err)

	data, err := hex.DecodeString("01" + "00e1f505000000001027000000000000")
	require.NoError(t, err)

	rec, err := codec.DecodeStrict(s, data)
	require.NoError(t, err)

	tag, _ := rec.Get("instruction")
	assert.Equal(t, InstructionJoinQuiz, tag)
	assert.Equal(t, "{instruction: 1, data: {bet: 100000000, fee: 10000}}", rec.String())
}

func TestNew_ResolvesOutOfOrderReferences(t *testing.T) {
	reg, err := New(
		Definition{Name: "outer", Fields: []FieldDef{
			{Name: "id", Type: "u32"},
			{Name: "inner", Type: "inner"},
			{Name: "again", Type: "struct", Schema: "inner"},
		}},
		Definition{Name: "inner", Fields: []FieldDef{
			{Name: "key", Type: "bytes", Size: 4},
			{Name: "delta", Type: "I16"},
		}},
	)
	require.NoError(t, err)

	outer, err := reg.Lookup("outer")
	require.NoError(t, err)
	inner, err := reg.Lookup("inner")
	require.NoError(t, err)

	assert.Equal(t, 6, inner.Size())
	assert.Equal(t, 4+6+6, outer.Size())
	assert.Same(t, inner, outer.Field(1).Schema, "nested schemas are shared, not rebuilt")
	assert.Equal(t, "outer{id:u32,inner:inner{key:bytes[4],delta:i16},again:inner{key:bytes[4],delta:i16}}", outer.String())
}

func TestNew_Errors(t *testing.T) {
	testCases := []struct {
		name   string
		defs   []Definition
		target error
	}{
		{
			name:   "unnamed definition",
			defs:   []Definition{{Fields: []FieldDef{{Name: "a", Type: "u8"}}}},
			target: ErrInvalidDefinition,
		},
		{
			name: "duplicate definition",
			defs: []Definition{
				{Name: "a", Fields: []FieldDef{{Name: "x", Type: "u8"}}},
				{Name: "a", Fields: []FieldDef{{Name: "y", Type: "u8"}}},
			},
			target: ErrDuplicateSchema,
		},
		{
			name:   "unknown type",
			defs:   []Definition{{Name: "a", Fields: []FieldDef{{Name: "x", Type: "u128"}}}},
			target: ErrUnknownSchema,
		},
		{
			name:   "struct without schema",
			defs:   []Definition{{Name: "a", Fields: []FieldDef{{Name: "x", Type: "struct"}}}},
			target: ErrInvalidDefinition,
		},
		{
			name:   "struct with unknown schema",
			defs:   []Definition{{Name: "a", Fields: []FieldDef{{Name: "x", Type: "struct", Schema: "b"}}}},
			target: ErrUnknownSchema,
		},
		{
			name:   "self reference",
			defs:   []Definition{{Name: "node", Fields: []FieldDef{{Name: "next", Type: "node"}}}},
			target: ErrSchemaCycle,
		},
		{
			name: "indirect cycle",
			defs: []Definition{
				{Name: "a", Fields: []FieldDef{{Name: "b", Type: "b"}}},
				{Name: "b", Fields: []FieldDef{{Name: "c", Type: "c"}}},
				{Name: "c", Fields: []FieldDef{{Name: "a", Type: "a"}}},
			},
			target: ErrSchemaCycle,
		},
		{
			name:   "duplicate field",
			defs:   []Definition{{Name: "a", Fields: []FieldDef{{Name: "x", Type: "u8"}, {Name: "x", Type: "u16"}}}},
			target: codec.ErrDuplicateFieldName,
		},
		{
			name:   "bytes without size",
			defs:   []Definition{{Name: "a", Fields: []FieldDef{{Name: "x", Type: "bytes"}}}},
			target: codec.ErrInvalidField,
		},
		{
			name:   "bytes array of max int",
			defs:   []Definition{{Name: "a", Fields: []FieldDef{{Name: "x", Type: "bytes[9223372036854775807]"}}}},
			target: codec.ErrInvalidField,
		},
		{
			name:   "bytes size beyond int",
			defs:   []Definition{{Name: "a", Fields: []FieldDef{{Name: "x", Type: "bytes[99999999999999999999]"}}}},
			target: ErrInvalidDefinition,
		},
		{
			name: "nested width beyond the size bound",
			defs: []Definition{
				{Name: "blob", Fields: []FieldDef{{Name: "data", Type: "bytes[2147483647]"}}},
				{Name: "pair", Fields: []FieldDef{{Name: "a", Type: "blob"}, {Name: "b", Type: "blob"}}},
			},
			target: codec.ErrInvalidField,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			reg, err := New(tc.defs...)
			assert.Nil(t, reg)
			assert.ErrorIs(t, err, tc.target)
		})
	}
}

func TestNew_CycleMessageShowsPath(t *testing.T) {
	_, err := New(
		Definition{Name: "a", Fields: []FieldDef{{Name: "b", Type: "b"}}},
		Definition{Name: "b", Fields: []FieldDef{{Name: "a", Type: "a"}}},
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a -> b -> a")
}

func TestLookup_Unknown(t *testing.T) {
	reg, err := Default()
	require.NoError(t, err)

	_, err = reg.Lookup("nope")
	assert.ErrorIs(t, err, ErrUnknownSchema)
}

func TestDefault_RejectsShadowingBuiltins(t *testing.T) {
	_, err := Default(Definition{Name: JoinQuiz, Fields: []FieldDef{{Name: "bet", Type: "u32"}}})
	assert.ErrorIs(t, err, ErrDuplicateSchema)
}
