package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kioco/OAP/pkg/common"
	"github.com/kioco/OAP/pkg/util"
)

func TestGenerateValidation(t *testing.T) {
	_, err := Generate(&SortSpec{Keys: []string{"a"}})
	assert.ErrorIs(t, err, ErrEmptySchema)

	_, err = Generate(&SortSpec{
		Schema: []ColumnDef{{Name: "a", LTyp: common.IntegerType()}},
	})
	assert.ErrorIs(t, err, ErrEmptyKeys)

	_, err = Generate(&SortSpec{
		Keys:   []string{"missing"},
		Schema: []ColumnDef{{Name: "a", LTyp: common.IntegerType()}},
	})
	assert.ErrorContains(t, err, "can't find sort key missing")

	_, err = Generate(&SortSpec{
		Keys: []string{"a"},
		Schema: []ColumnDef{
			{Name: "a", LTyp: common.IntegerType()},
			{Name: "a", LTyp: common.BigintType()},
		},
	})
	assert.ErrorContains(t, err, "ambiguous")

	// bool can be carried but not sorted on
	_, err = Generate(&SortSpec{
		Keys: []string{"flag"},
		Schema: []ColumnDef{
			{Name: "flag", LTyp: common.BooleanType()},
		},
	})
	assert.ErrorContains(t, err, "unsupported sort key type")
}

func TestGenerateStrategy(t *testing.T) {
	// one key, one column: in place
	prog, err := Generate(&SortSpec{
		Keys:      []string{"a"},
		Ascending: true,
		Schema:    []ColumnDef{{Name: "a", LTyp: common.IntegerType()}},
	})
	require.NoError(t, err)
	assert.Equal(t, ST_INPLACE, prog.Strategy)
	assert.True(t, prog.Radix)

	// payload column forces the permutation path
	prog, err = Generate(&SortSpec{
		Keys:      []string{"a"},
		Ascending: true,
		Schema: []ColumnDef{
			{Name: "a", LTyp: common.IntegerType()},
			{Name: "b", LTyp: common.VarcharType()},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, ST_INDEXED, prog.Strategy)
	assert.True(t, prog.Radix)

	// multiple keys stay on the comparator
	prog, err = Generate(twoKeySpec())
	require.NoError(t, err)
	assert.Equal(t, ST_INDEXED, prog.Strategy)
	assert.False(t, prog.Radix)

	// descending never uses the radix path
	prog, err = Generate(&SortSpec{
		Keys:      []string{"a"},
		Ascending: false,
		Schema:    []ColumnDef{{Name: "a", LTyp: common.BigintType()}},
	})
	require.NoError(t, err)
	assert.False(t, prog.Radix)
	assert.True(t, prog.Keys[0].Desc)

	// varchar key has no order-preserving word encoding
	prog, err = Generate(&SortSpec{
		Keys:      []string{"s"},
		Ascending: true,
		Schema:    []ColumnDef{{Name: "s", LTyp: common.VarcharType()}},
	})
	require.NoError(t, err)
	assert.False(t, prog.Radix)
}

func TestProgramSerializeRoundTrip(t *testing.T) {
	spec := twoKeySpec()
	spec.NullsFirst = true
	prog, err := Generate(spec)
	require.NoError(t, err)

	serial := &util.BufferSerialize{}
	require.NoError(t, prog.Serialize(serial))

	got, err := DeserializeProgram(util.NewBufferDeserialize(serial.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, prog.Strategy, got.Strategy)
	assert.Equal(t, prog.NullsFirst, got.NullsFirst)
	assert.Equal(t, prog.Ascending, got.Ascending)
	assert.Equal(t, prog.Radix, got.Radix)
	assert.Equal(t, prog.Keys, got.Keys)
	require.Equal(t, len(prog.Schema), len(got.Schema))
	for i := range prog.Schema {
		assert.Equal(t, prog.Schema[i].Name, got.Schema[i].Name)
		assert.True(t, prog.Schema[i].LTyp.Equal(got.Schema[i].LTyp))
	}
}

func TestProgramExplain(t *testing.T) {
	prog, err := Generate(twoKeySpec())
	require.NoError(t, err)
	out := prog.Explain()
	assert.Contains(t, out, "Sorter[indexed]")
	assert.Contains(t, out, "pdqsort")
	assert.Contains(t, out, "asc nulls_last")
}
