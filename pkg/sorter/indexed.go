package sorter

import (
	"github.com/kioco/OAP/pkg/chunk"
	"github.com/kioco/OAP/pkg/codegen"
	"github.com/kioco/OAP/pkg/common"
	"github.com/kioco/OAP/pkg/util"
)

// indexedSorter is the general-case kernel: accumulation retains copies
// of the input columns, the sort pass produces only a permutation of
// ArrayItemIndex, and the iterator dereferences it into fresh output
// batches. Null placement is decided on the first key column only.
type indexedSorter struct {
	_state    kernelState
	_prog     *codegen.Program
	_colOps   []*typeOps
	_keyOps   []*typeOps
	_types    []common.LType
	_batchCap int

	_batches  []*chunk.Chunk
	_items    int
	_nulls    int
	_sorted   []ArrayItemIndex
	_released bool
}

func newIndexedSorter(prog *codegen.Program, colOps []codegen.TypeOps, batchCap int) (codegen.SortKernel, error) {
	ops, err := castOps(colOps)
	if err != nil {
		return nil, err
	}
	keyOps := make([]*typeOps, len(prog.Keys))
	for i, key := range prog.Keys {
		keyOps[i] = ops[key.Col]
	}
	return &indexedSorter{
		_prog:     prog,
		_colOps:   ops,
		_keyOps:   keyOps,
		_types:    schemaTypes(prog),
		_batchCap: batchCap,
	}, nil
}

func (srt *indexedSorter) Evaluate(input *chunk.Chunk) error {
	if srt._state != SS_ACCUM {
		return ErrNotAccumulating
	}
	err := checkBatch(srt._prog, input)
	if err != nil {
		return err
	}
	card := input.Card()
	if card == 0 {
		return nil
	}
	batch := &chunk.Chunk{}
	batch.Init(srt._types, card)
	for j := range srt._colOps {
		copyColumn(input.Data[j], batch.Data[j], card, srt._colOps[j])
	}
	batch.SetCard(card)
	srt._batches = append(srt._batches, batch)
	srt._items += card

	firstKey := batch.Data[srt._prog.Keys[0].Col]
	for row := 0; row < card; row++ {
		if !firstKey.Mask.RowIsValid(uint64(row)) {
			srt._nulls++
		}
	}
	return nil
}

// copyColumn detaches one input column from the caller's batch. Flat
// vectors take the typed path; anything else goes value by value.
func copyColumn(src *chunk.Vector, dst *chunk.Vector, card int, ops *typeOps) {
	if src.PhyFormat().IsFlat() {
		for row := 0; row < card; row++ {
			if !src.Mask.RowIsValid(uint64(row)) {
				dst.Mask.SetInvalid(uint64(row))
				continue
			}
			ops._gather(src, row, dst, row)
		}
		return
	}
	for row := 0; row < card; row++ {
		val := src.GetValue(row)
		dst.SetValue(row, val)
	}
}

// Finish partitions first-key nulls into their region and sorts the
// rest. Runs once; a second call is a no-op.
func (srt *indexedSorter) Finish() error {
	if srt._state != SS_ACCUM {
		return nil
	}
	nullIdx := make([]ArrayItemIndex, 0, srt._nulls)
	valIdx := make([]ArrayItemIndex, 0, srt._items-srt._nulls)
	firstKey := srt._prog.Keys[0].Col
	for b, batch := range srt._batches {
		mask := batch.Data[firstKey].Mask
		for row := 0; row < batch.Card(); row++ {
			idx := ArrayItemIndex{BatchId: uint32(b), RowId: uint32(row)}
			if mask.RowIsValid(uint64(row)) {
				valIdx = append(valIdx, idx)
			} else {
				nullIdx = append(nullIdx, idx)
			}
		}
	}

	if srt._prog.Radix {
		srt.radixSort(valIdx)
	} else {
		cmp := newKeyComparator(srt._prog.Keys, srt._keyOps, srt._batches)
		pdqsort(valIdx, cmp.less)
	}

	if srt._prog.NullsFirst {
		srt._sorted = append(nullIdx, valIdx...)
	} else {
		srt._sorted = append(valIdx, nullIdx...)
	}
	util.AssertFunc(len(srt._sorted) == srt._items)
	srt._state = SS_SORTED
	return nil
}

func (srt *indexedSorter) radixSort(valIdx []ArrayItemIndex) {
	key := srt._prog.Keys[0]
	ops := srt._keyOps[0]
	entries := make([]radixEntry, len(valIdx))
	for i, idx := range valIdx {
		vec := srt._batches[idx.BatchId].Data[key.Col]
		entries[i] = radixEntry{
			_key: ops._encode(rowPtr(vec, int(idx.RowId), ops._size)),
			_idx: idx,
		}
	}
	radixSortLSD(entries)
	for i := range entries {
		valIdx[i] = entries[i]._idx
	}
}

func (srt *indexedSorter) MakeResultIterator() (codegen.ResultIterator, error) {
	if srt._state == SS_ACCUM {
		err := srt.Finish()
		if err != nil {
			return nil, err
		}
	}
	if srt._state != SS_SORTED {
		return nil, ErrAlreadyScanning
	}
	srt._state = SS_SCAN
	return newResultIterator(srt, srt._types, srt._batchCap, srt._items), nil
}

func (srt *indexedSorter) materialize(out *chunk.Chunk, offset int, cnt int) {
	for i := 0; i < cnt; i++ {
		idx := srt._sorted[offset+i]
		batch := srt._batches[idx.BatchId]
		row := int(idx.RowId)
		for j, ops := range srt._colOps {
			src := batch.Data[j]
			if !src.Mask.RowIsValid(uint64(row)) {
				out.Data[j].Mask.SetInvalid(uint64(i))
				continue
			}
			ops._gather(src, row, out.Data[j], i)
		}
	}
	out.SetCard(cnt)
}

func (srt *indexedSorter) release() {
	if srt._released {
		return
	}
	srt._released = true
	for j, ops := range srt._colOps {
		if ops._freeRaw == nil {
			continue
		}
		for _, batch := range srt._batches {
			vec := batch.Data[j]
			for row := 0; row < batch.Card(); row++ {
				if vec.Mask.RowIsValid(uint64(row)) {
					ops._freeRaw(rowPtr(vec, row, ops._size))
				}
			}
		}
	}
	srt._batches = nil
	srt._sorted = nil
}

func (srt *indexedSorter) Close() {
	srt.release()
}

var _ codegen.SortKernel = (*indexedSorter)(nil)
var _ resultSource = (*indexedSorter)(nil)
