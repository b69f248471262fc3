package codegen

import (
	clone "github.com/huandu/go-clone"

	"github.com/kioco/OAP/pkg/common"
)

type ColumnDef struct {
	Name string
	LTyp common.LType
}

// SortSpec describes one sort request: the ordered key column names, the
// ordering flags applied to every key, and the full output schema.
// The kernel factory copies it before deriving anything, so callers may
// reuse or mutate their own SortSpec afterwards.
type SortSpec struct {
	Keys       []string
	NullsFirst bool
	Ascending  bool
	Schema     []ColumnDef
}

func (spec *SortSpec) Copy() *SortSpec {
	return clone.Clone(spec).(*SortSpec)
}

// ColumnIndex resolves a column name against the schema. The second value
// counts occurrences: 0 means absent, more than 1 means ambiguous.
func (spec *SortSpec) ColumnIndex(name string) (int, int) {
	idx := -1
	cnt := 0
	for i, col := range spec.Schema {
		if col.Name == name {
			if idx < 0 {
				idx = i
			}
			cnt++
		}
	}
	return idx, cnt
}
