package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kioco/OAP/pkg/common"
)

func twoKeySpec() *SortSpec {
	return &SortSpec{
		Keys:      []string{"a", "b"},
		Ascending: true,
		Schema: []ColumnDef{
			{Name: "a", LTyp: common.IntegerType()},
			{Name: "b", LTyp: common.VarcharType()},
		},
	}
}

func TestBuildSignatureDeterministic(t *testing.T) {
	spec := twoKeySpec()
	s1 := BuildSignature(spec)
	s2 := BuildSignature(spec.Copy())
	assert.Equal(t, s1.Desc, s2.Desc)
	assert.Equal(t, s1.Hex, s2.Hex)
	assert.Len(t, s1.Hex, 16)
}

func TestBuildSignatureKeyOrderMatters(t *testing.T) {
	spec := twoKeySpec()
	permuted := spec.Copy()
	permuted.Keys = []string{"b", "a"}
	assert.NotEqual(t, BuildSignature(spec).Desc, BuildSignature(permuted).Desc)
}

func TestBuildSignatureFlags(t *testing.T) {
	spec := twoKeySpec()
	base := BuildSignature(spec)

	desc := spec.Copy()
	desc.Ascending = false
	assert.NotEqual(t, base.Desc, BuildSignature(desc).Desc)

	nf := spec.Copy()
	nf.NullsFirst = true
	assert.NotEqual(t, base.Desc, BuildSignature(nf).Desc)
}

func TestBuildSignatureSchemaMatters(t *testing.T) {
	spec := twoKeySpec()
	wider := spec.Copy()
	wider.Schema = append(wider.Schema,
		ColumnDef{Name: "c", LTyp: common.DoubleType()})
	assert.NotEqual(t, BuildSignature(spec).Desc, BuildSignature(wider).Desc)

	retyped := spec.Copy()
	retyped.Schema[0].LTyp = common.BigintType()
	assert.NotEqual(t, BuildSignature(spec).Desc, BuildSignature(retyped).Desc)
}
