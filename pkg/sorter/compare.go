package sorter

import (
	"github.com/kioco/OAP/pkg/chunk"
	"github.com/kioco/OAP/pkg/codegen"
)

// keyComparator is the composite comparator: one ordered key list
// consumed by a single short-circuit routine. The first non-equal key
// decides; ties past the last key are left in unspecified order.
type keyComparator struct {
	_keys []codegen.KeyOp
	_ops  []*typeOps
	// per key, the accumulated column vectors indexed by batch id
	_cols [][]*chunk.Vector
}

func newKeyComparator(keys []codegen.KeyOp, ops []*typeOps, batches []*chunk.Chunk) *keyComparator {
	cmp := &keyComparator{
		_keys: keys,
		_ops:  ops,
		_cols: make([][]*chunk.Vector, len(keys)),
	}
	for i, key := range keys {
		cmp._cols[i] = make([]*chunk.Vector, len(batches))
		for b, batch := range batches {
			cmp._cols[i][b] = batch.Data[key.Col]
		}
	}
	return cmp
}

func (cmp *keyComparator) less(l, r *ArrayItemIndex) bool {
	for i := range cmp._keys {
		ops := cmp._ops[i]
		lPtr := rowPtr(cmp._cols[i][l.BatchId], int(l.RowId), ops._size)
		rPtr := rowPtr(cmp._cols[i][r.BatchId], int(r.RowId), ops._size)
		c := ops._compare(lPtr, rPtr)
		if c == 0 {
			continue
		}
		if cmp._keys[i].Desc {
			return c > 0
		}
		return c < 0
	}
	return false
}
