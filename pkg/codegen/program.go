package codegen

import (
	"errors"
	"fmt"

	"github.com/xlab/treeprint"

	"github.com/kioco/OAP/pkg/common"
	"github.com/kioco/OAP/pkg/util"
)

type Strategy int

const (
	ST_INDEXED Strategy = iota
	ST_INPLACE
)

func (st Strategy) String() string {
	switch st {
	case ST_INDEXED:
		return "indexed"
	case ST_INPLACE:
		return "inplace"
	default:
		panic("usp")
	}
}

// FactoryName is the symbol the loader resolves to instantiate kernel
// instances for this strategy.
func (st Strategy) FactoryName() string {
	switch st {
	case ST_INDEXED:
		return "sorter_indexed"
	case ST_INPLACE:
		return "sorter_inplace"
	default:
		panic("usp")
	}
}

// KeyOp is one step of the composite comparator: the schema column it
// reads, the physical type deciding the compare routine, and the
// direction. The first non-equal key decides; ties past the last key
// are left unspecified.
type KeyOp struct {
	Col  int
	PTyp common.PhyType
	Desc bool
}

// Program is the specialized sort operator emitted by Generate. Pure
// data: the compile step binds it to per-type function tables, the
// artifact store persists it byte for byte.
type Program struct {
	Strategy   Strategy
	Schema     []ColumnDef
	Keys       []KeyOp
	NullsFirst bool
	Ascending  bool
	Radix      bool
}

var (
	ErrEmptySchema = errors.New("sort spec has no schema")
	ErrEmptyKeys   = errors.New("sort spec has no keys")
)

func supportedKeyType(pt common.PhyType) bool {
	switch pt {
	case common.INT32, common.INT64, common.UINT64,
		common.FLOAT, common.DOUBLE,
		common.VARCHAR, common.DATE, common.DECIMAL, common.INT128:
		return true
	default:
		return false
	}
}

func supportedColumnType(pt common.PhyType) bool {
	return supportedKeyType(pt) || pt == common.BOOL
}

// radixEligible reports types with an order-preserving uint64 encoding.
// DATE, DECIMAL and INT128 are wider than a radix word and stay on the
// comparison path.
func radixEligible(pt common.PhyType) bool {
	switch pt {
	case common.INT32, common.INT64, common.UINT64, common.FLOAT, common.DOUBLE:
		return true
	default:
		return false
	}
}

// Generate specializes a sort operator to the spec. Pure function of
// its inputs: no I/O, no shared state. A malformed spec fails here,
// before anything is persisted.
func Generate(spec *SortSpec) (*Program, error) {
	if len(spec.Schema) == 0 {
		return nil, ErrEmptySchema
	}
	if len(spec.Keys) == 0 {
		return nil, ErrEmptyKeys
	}
	prog := &Program{
		Schema:     spec.Schema,
		NullsFirst: spec.NullsFirst,
		Ascending:  spec.Ascending,
	}
	for _, col := range spec.Schema {
		if !supportedColumnType(col.LTyp.GetInternalType()) {
			return nil, fmt.Errorf("unsupported column type %s of %s",
				col.LTyp.GetInternalType(), col.Name)
		}
	}
	for _, key := range spec.Keys {
		idx, cnt := spec.ColumnIndex(key)
		if cnt == 0 {
			return nil, fmt.Errorf("can't find sort key %s in schema", key)
		}
		if cnt > 1 {
			return nil, fmt.Errorf("sort key %s is ambiguous in schema", key)
		}
		pt := spec.Schema[idx].LTyp.GetInternalType()
		if !supportedKeyType(pt) {
			return nil, fmt.Errorf("unsupported sort key type %s of %s", pt, key)
		}
		prog.Keys = append(prog.Keys, KeyOp{
			Col:  idx,
			PTyp: pt,
			Desc: !spec.Ascending,
		})
	}
	if len(spec.Keys) == 1 && len(spec.Schema) == 1 {
		prog.Strategy = ST_INPLACE
	} else {
		prog.Strategy = ST_INDEXED
	}
	prog.Radix = len(prog.Keys) == 1 &&
		spec.Ascending &&
		radixEligible(prog.Keys[0].PTyp)
	return prog, nil
}

func (prog *Program) Serialize(serial util.Serialize) error {
	err := util.Write[int32](int32(prog.Strategy), serial)
	if err != nil {
		return err
	}
	flags := uint8(0)
	if prog.NullsFirst {
		flags |= 1
	}
	if prog.Ascending {
		flags |= 2
	}
	if prog.Radix {
		flags |= 4
	}
	err = util.Write[uint8](flags, serial)
	if err != nil {
		return err
	}
	err = util.Write[uint32](uint32(len(prog.Schema)), serial)
	if err != nil {
		return err
	}
	for _, col := range prog.Schema {
		err = util.WriteString(col.Name, serial)
		if err != nil {
			return err
		}
		err = col.LTyp.Serialize(serial)
		if err != nil {
			return err
		}
	}
	err = util.Write[uint32](uint32(len(prog.Keys)), serial)
	if err != nil {
		return err
	}
	for _, key := range prog.Keys {
		err = util.Write[int32](int32(key.Col), serial)
		if err != nil {
			return err
		}
		err = util.Write[int32](int32(key.PTyp), serial)
		if err != nil {
			return err
		}
		desc := uint8(0)
		if key.Desc {
			desc = 1
		}
		err = util.Write[uint8](desc, serial)
		if err != nil {
			return err
		}
	}
	return nil
}

func DeserializeProgram(deserial util.Deserialize) (*Program, error) {
	prog := &Program{}
	strategy := int32(0)
	err := util.Read[int32](&strategy, deserial)
	if err != nil {
		return nil, err
	}
	prog.Strategy = Strategy(strategy)
	flags := uint8(0)
	err = util.Read[uint8](&flags, deserial)
	if err != nil {
		return nil, err
	}
	prog.NullsFirst = flags&1 != 0
	prog.Ascending = flags&2 != 0
	prog.Radix = flags&4 != 0
	colCnt := uint32(0)
	err = util.Read[uint32](&colCnt, deserial)
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < colCnt; i++ {
		name, err := util.ReadString(deserial)
		if err != nil {
			return nil, err
		}
		lTyp, err := common.DeserializeLType(deserial)
		if err != nil {
			return nil, err
		}
		prog.Schema = append(prog.Schema, ColumnDef{Name: name, LTyp: lTyp})
	}
	keyCnt := uint32(0)
	err = util.Read[uint32](&keyCnt, deserial)
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < keyCnt; i++ {
		col := int32(0)
		err = util.Read[int32](&col, deserial)
		if err != nil {
			return nil, err
		}
		pTyp := int32(0)
		err = util.Read[int32](&pTyp, deserial)
		if err != nil {
			return nil, err
		}
		desc := uint8(0)
		err = util.Read[uint8](&desc, deserial)
		if err != nil {
			return nil, err
		}
		prog.Keys = append(prog.Keys, KeyOp{
			Col:  int(col),
			PTyp: common.PhyType(pTyp),
			Desc: desc != 0,
		})
	}
	return prog, nil
}

func (prog *Program) Print(tree treeprint.Tree) {
	order := "asc"
	if !prog.Ascending {
		order = "desc"
	}
	nulls := "nulls_last"
	if prog.NullsFirst {
		nulls = "nulls_first"
	}
	alg := "pdqsort"
	if prog.Radix {
		alg = "radix"
	}
	tree.AddMetaNode("order", fmt.Sprintf("%s %s", order, nulls))
	tree.AddMetaNode("algo", alg)
	keys := tree.AddBranch("keys")
	for _, key := range prog.Keys {
		keys.AddNode(fmt.Sprintf("#%d %s %s",
			key.Col, prog.Schema[key.Col].Name, key.PTyp))
	}
	schema := tree.AddBranch("schema")
	for _, col := range prog.Schema {
		schema.AddNode(fmt.Sprintf("%s %s", col.Name, col.LTyp))
	}
}

func (prog *Program) Explain() string {
	tree := treeprint.NewWithRoot(fmt.Sprintf("Sorter[%s]", prog.Strategy))
	prog.Print(tree)
	return tree.String()
}
