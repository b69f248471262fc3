package sorter

import (
	"errors"
	"fmt"

	"github.com/kioco/OAP/pkg/chunk"
	"github.com/kioco/OAP/pkg/codegen"
	"github.com/kioco/OAP/pkg/common"
)

// kernel instance states: accumulate batches, sort once, hand the
// sorted array to exactly one result iterator.
type kernelState int

const (
	SS_ACCUM kernelState = iota
	SS_SORTED
	SS_SCAN
)

// ArrayItemIndex identifies one row inside the accumulated batches
// without copying it: the indirection unit of the indexed kernel.
type ArrayItemIndex struct {
	BatchId uint32
	RowId   uint32
}

var (
	ErrNotAccumulating = errors.New("sort kernel is past accumulation")
	ErrAlreadyScanning = errors.New("result iterator already taken")
	ErrExhausted       = errors.New("result iterator exhausted")
	ErrNilBatch        = errors.New("nil batch")
)

func init() {
	codegen.RegisterFactory("sorter_indexed", newIndexedSorter)
	codegen.RegisterFactory("sorter_inplace", newInplaceSorter)
	for _, ops := range allTypeOps() {
		codegen.RegisterTypeOps(ops)
	}
}

func castOps(colOps []codegen.TypeOps) ([]*typeOps, error) {
	ops := make([]*typeOps, len(colOps))
	for i, o := range colOps {
		concrete, ok := o.(*typeOps)
		if !ok {
			return nil, fmt.Errorf("foreign type table for %s", o.PhyTyp())
		}
		ops[i] = concrete
	}
	return ops, nil
}

func schemaTypes(prog *codegen.Program) []common.LType {
	types := make([]common.LType, len(prog.Schema))
	for i, col := range prog.Schema {
		types[i] = col.LTyp
	}
	return types
}

// checkBatch validates one incoming batch against the program schema.
// Prior accumulated state stays untouched when it fails.
func checkBatch(prog *codegen.Program, input *chunk.Chunk) error {
	if input == nil {
		return ErrNilBatch
	}
	if input.ColumnCount() != len(prog.Schema) {
		return fmt.Errorf("batch has %d columns, schema has %d",
			input.ColumnCount(), len(prog.Schema))
	}
	for i, col := range prog.Schema {
		if input.Data[i].Typ().GetInternalType() != col.LTyp.GetInternalType() {
			return fmt.Errorf("batch column %d is %s, schema wants %s",
				i, input.Data[i].Typ(), col.LTyp)
		}
	}
	return nil
}
