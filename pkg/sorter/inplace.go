package sorter

import (
	"unsafe"

	"github.com/kioco/OAP/pkg/chunk"
	"github.com/kioco/OAP/pkg/codegen"
	"github.com/kioco/OAP/pkg/common"
	"github.com/kioco/OAP/pkg/util"
)

// inplaceSorter handles the single-key single-column shape: accumulated
// values are concatenated into one contiguous buffer and the sort acts
// on the values themselves, no index indirection. Nulls never enter the
// buffer; the iterator re-emits them as a region at the configured end.
type inplaceSorter struct {
	_state    kernelState
	_prog     *codegen.Program
	_ops      *typeOps
	_types    []common.LType
	_batchCap int

	_buf      []byte
	_cap      int // values the buffer can hold
	_vals     int // non-null values accumulated
	_nulls    int
	_released bool
}

func newInplaceSorter(prog *codegen.Program, colOps []codegen.TypeOps, batchCap int) (codegen.SortKernel, error) {
	ops, err := castOps(colOps)
	if err != nil {
		return nil, err
	}
	util.AssertFunc(len(ops) == 1 && len(prog.Keys) == 1)
	return &inplaceSorter{
		_prog:     prog,
		_ops:      ops[0],
		_types:    schemaTypes(prog),
		_batchCap: batchCap,
	}, nil
}

func (srt *inplaceSorter) valPtr(pos int) unsafe.Pointer {
	return util.PointerAdd(util.BytesSliceToPointer(srt._buf), pos*srt._ops._size)
}

func (srt *inplaceSorter) reserve(extra int) {
	need := srt._vals + extra
	if need <= srt._cap {
		return
	}
	newCap := int(util.NextPowerOfTwo(uint64(need)))
	if newCap < util.DefaultVectorSize {
		newCap = util.DefaultVectorSize
	}
	grown := util.GAlloc.Alloc(newCap * srt._ops._size)
	copy(grown, srt._buf[:srt._vals*srt._ops._size])
	if srt._buf != nil {
		util.GAlloc.Free(srt._buf)
	}
	srt._buf = grown
	srt._cap = newCap
}

func (srt *inplaceSorter) Evaluate(input *chunk.Chunk) error {
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
	src := input.Data[0]
	var tmp *chunk.Vector
	if !src.PhyFormat().IsFlat() {
		tmp = chunk.NewFlatVector(src.Typ(), card)
		copyColumn(src, tmp, card, srt._ops)
		src = tmp
	}
	srt.reserve(card)
	for row := 0; row < card; row++ {
		if !src.Mask.RowIsValid(uint64(row)) {
			srt._nulls++
			continue
		}
		srt._ops._copyRaw(src, row, srt.valPtr(srt._vals))
		srt._vals++
	}
	if tmp != nil && srt._ops._freeRaw != nil {
		for row := 0; row < card; row++ {
			if tmp.Mask.RowIsValid(uint64(row)) {
				srt._ops._freeRaw(rowPtr(tmp, row, srt._ops._size))
			}
		}
	}
	return nil
}

func (srt *inplaceSorter) Finish() error {
	if srt._state != SS_ACCUM {
		return nil
	}
	if srt._prog.Radix {
		srt.radixSort()
	} else {
		sortBufferValues(srt._ops._ptyp, util.BytesSliceToPointer(srt._buf),
			srt._vals, srt._ops, srt._prog.Keys[0].Desc)
	}
	srt._state = SS_SORTED
	return nil
}

func (srt *inplaceSorter) radixSort() {
	if srt._vals <= 1 {
		return
	}
	entries := make([]radixEntry, srt._vals)
	for i := 0; i < srt._vals; i++ {
		entries[i] = radixEntry{
			_key: srt._ops._encode(srt.valPtr(i)),
			_idx: ArrayItemIndex{RowId: uint32(i)},
		}
	}
	radixSortLSD(entries)
	// apply the permutation through a scratch buffer
	size := srt._ops._size
	scratch := util.GAlloc.Alloc(srt._vals * size)
	base := util.BytesSliceToPointer(scratch)
	for i, ent := range entries {
		util.PointerCopy(util.PointerAdd(base, i*size),
			srt.valPtr(int(ent._idx.RowId)), size)
	}
	copy(srt._buf[:srt._vals*size], scratch)
	util.GAlloc.Free(scratch)
}

func sortBufferValues(pt common.PhyType, base unsafe.Pointer, count int, ops *typeOps, desc bool) {
	if count <= 1 {
		return
	}
	less := func(l, r unsafe.Pointer) bool {
		c := ops._compare(l, r)
		if desc {
			return c > 0
		}
		return c < 0
	}
	switch pt {
	case common.INT32:
		sortTyped[int32](base, count, less)
	case common.INT64:
		sortTyped[int64](base, count, less)
	case common.UINT64:
		sortTyped[uint64](base, count, less)
	case common.FLOAT:
		sortTyped[float32](base, count, less)
	case common.DOUBLE:
		sortTyped[float64](base, count, less)
	case common.BOOL:
		sortTyped[bool](base, count, less)
	case common.VARCHAR:
		sortTyped[common.String](base, count, less)
	case common.DATE:
		sortTyped[common.Date](base, count, less)
	case common.DECIMAL:
		sortTyped[common.Decimal](base, count, less)
	case common.INT128:
		sortTyped[common.Hugeint](base, count, less)
	default:
		panic("usp")
	}
}

func sortTyped[T any](base unsafe.Pointer, count int, less func(l, r unsafe.Pointer) bool) {
	s := util.PointerToSlice[T](base, count)
	pdqsort(s, func(a, b *T) bool {
		return less(unsafe.Pointer(a), unsafe.Pointer(b))
	})
}

func (srt *inplaceSorter) MakeResultIterator() (codegen.ResultIterator, error) {
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
	total := srt._vals + srt._nulls
	return newResultIterator(srt, srt._types, srt._batchCap, total), nil
}

func (srt *inplaceSorter) materialize(out *chunk.Chunk, offset int, cnt int) {
	vec := out.Data[0]
	for i := 0; i < cnt; i++ {
		row := offset + i
		if srt._prog.NullsFirst {
			if row < srt._nulls {
				vec.Mask.SetInvalid(uint64(i))
				continue
			}
			srt._ops._scatterRaw(srt.valPtr(row-srt._nulls), vec, i)
		} else {
			if row >= srt._vals {
				vec.Mask.SetInvalid(uint64(i))
				continue
			}
			srt._ops._scatterRaw(srt.valPtr(row), vec, i)
		}
	}
	out.SetCard(cnt)
}

func (srt *inplaceSorter) release() {
	if srt._released {
		return
	}
	srt._released = true
	if srt._ops._freeRaw != nil {
		for i := 0; i < srt._vals; i++ {
			srt._ops._freeRaw(srt.valPtr(i))
		}
	}
	if srt._buf != nil {
		util.GAlloc.Free(srt._buf)
		srt._buf = nil
	}
	srt._vals = 0
	srt._cap = 0
}

func (srt *inplaceSorter) Close() {
	srt.release()
}

var _ codegen.SortKernel = (*inplaceSorter)(nil)
var _ resultSource = (*inplaceSorter)(nil)
