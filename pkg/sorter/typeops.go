package sorter

import (
	"bytes"
	"math"
	"unsafe"

	"github.com/kioco/OAP/pkg/chunk"
	"github.com/kioco/OAP/pkg/common"
	"github.com/kioco/OAP/pkg/util"
)

// typeOps is the function table one physical type contributes to a
// compiled kernel: compare two rows, move a value between vectors, move
// a value between a vector and the in-place buffer, and (for radix
// eligible types) fold a value into an order-preserving uint64.
// Stateless, one shared instance per type.
type typeOps struct {
	_ptyp common.PhyType
	_size int

	_compare    func(l, r unsafe.Pointer) int
	_gather     func(src *chunk.Vector, srcRow int, dst *chunk.Vector, dstRow int)
	_copyRaw    func(src *chunk.Vector, srcRow int, dst unsafe.Pointer)
	_scatterRaw func(src unsafe.Pointer, dst *chunk.Vector, dstRow int)
	_encode     func(p unsafe.Pointer) uint64
	_freeRaw    func(p unsafe.Pointer)
}

func (ops *typeOps) PhyTyp() common.PhyType {
	return ops._ptyp
}

// rowPtr addresses one value inside a flat vector.
func rowPtr(vec *chunk.Vector, row int, size int) unsafe.Pointer {
	return util.PointerAdd(util.BytesSliceToPointer(vec.Data), row*size)
}

func fixedOps[T any](pt common.PhyType, cmp func(a, b *T) int) *typeOps {
	var zero T
	ops := &typeOps{
		_ptyp: pt,
		_size: int(unsafe.Sizeof(zero)),
	}
	ops._compare = func(l, r unsafe.Pointer) int {
		return cmp((*T)(l), (*T)(r))
	}
	ops._gather = func(src *chunk.Vector, srcRow int, dst *chunk.Vector, dstRow int) {
		sl := chunk.GetSliceInPhyFormatFlat[T](src)
		dl := chunk.GetSliceInPhyFormatFlat[T](dst)
		dl[dstRow] = sl[srcRow]
		dst.Mask.SetValid(uint64(dstRow))
	}
	ops._copyRaw = func(src *chunk.Vector, srcRow int, dst unsafe.Pointer) {
		sl := chunk.GetSliceInPhyFormatFlat[T](src)
		util.Store[T](sl[srcRow], dst)
	}
	ops._scatterRaw = func(src unsafe.Pointer, dst *chunk.Vector, dstRow int) {
		dl := chunk.GetSliceInPhyFormatFlat[T](dst)
		dl[dstRow] = util.Load[T](src)
		dst.Mask.SetValid(uint64(dstRow))
	}
	return ops
}

func cmpNumber[T int32 | int64 | uint64](a, b *T) int {
	if *a < *b {
		return -1
	}
	if *a > *b {
		return 1
	}
	return 0
}

// NaN compares greater than every number so the radix float encoding
// and the comparison path agree on totals.
func cmpFloat[T float32 | float64](a, b *T) int {
	if util.GreaterFloat(*a, *b) {
		return 1
	}
	if util.GreaterFloat(*b, *a) {
		return -1
	}
	return 0
}

func cmpBool(a, b *bool) int {
	if *a == *b {
		return 0
	}
	if !*a {
		return -1
	}
	return 1
}

func cmpString(a, b *common.String) int {
	return bytes.Compare(a.DataSlice(), b.DataSlice())
}

func cmpDate(a, b *common.Date) int {
	if a.Equal(b) {
		return 0
	}
	if a.Less(b) {
		return -1
	}
	return 1
}

func cmpDecimal(a, b *common.Decimal) int {
	if a.Equal(b) {
		return 0
	}
	if a.Less(a, b) {
		return -1
	}
	return 1
}

func cmpHugeint(a, b *common.Hugeint) int {
	if a.Less(a, b) {
		return -1
	}
	if a.Greater(a, b) {
		return 1
	}
	return 0
}

func dupString(s common.String) common.String {
	if s.Len == 0 {
		return common.String{}
	}
	dst := util.CMalloc(s.Len)
	util.PointerCopy(dst, s.Data, s.Len)
	return common.String{Len: s.Len, Data: dst}
}

func varcharOps() *typeOps {
	ops := fixedOps[common.String](common.VARCHAR, cmpString)
	// string payloads are copied out of the caller's batch; the kernel
	// owns them until release
	ops._gather = func(src *chunk.Vector, srcRow int, dst *chunk.Vector, dstRow int) {
		sl := chunk.GetSliceInPhyFormatFlat[common.String](src)
		dl := chunk.GetSliceInPhyFormatFlat[common.String](dst)
		dl[dstRow] = dupString(sl[srcRow])
		dst.Mask.SetValid(uint64(dstRow))
	}
	ops._copyRaw = func(src *chunk.Vector, srcRow int, dst unsafe.Pointer) {
		sl := chunk.GetSliceInPhyFormatFlat[common.String](src)
		util.Store[common.String](dupString(sl[srcRow]), dst)
	}
	ops._scatterRaw = func(src unsafe.Pointer, dst *chunk.Vector, dstRow int) {
		dl := chunk.GetSliceInPhyFormatFlat[common.String](dst)
		dl[dstRow] = dupString(util.Load[common.String](src))
		dst.Mask.SetValid(uint64(dstRow))
	}
	ops._freeRaw = func(p unsafe.Pointer) {
		s := (*common.String)(p)
		if s.Data != nil {
			util.CFree(s.Data)
			s.Data = nil
			s.Len = 0
		}
	}
	return ops
}

var (
	gInt32Enc  util.Int32Encoder
	gInt64Enc  util.Int64Encoder
	gUint64Enc util.Uint64Encoder
)

// The byte-comparable encoders write big-endian with the sign bit
// flipped; swapping back yields an order-preserving uint64 radix key.
func encodeKeyInt32(p unsafe.Pointer) uint64 {
	var buf [4]byte
	bp := unsafe.Pointer(&buf[0])
	v := util.Load[int32](p)
	gInt32Enc.EncodeData(bp, &v)
	return uint64(util.BSWAP32(util.Load[uint32](bp)))
}

func encodeKeyInt64(p unsafe.Pointer) uint64 {
	var buf [8]byte
	bp := unsafe.Pointer(&buf[0])
	v := util.Load[int64](p)
	gInt64Enc.EncodeData(bp, &v)
	return util.BSWAP64(util.Load[uint64](bp))
}

func encodeKeyUint64(p unsafe.Pointer) uint64 {
	var buf [8]byte
	bp := unsafe.Pointer(&buf[0])
	v := util.Load[uint64](p)
	gUint64Enc.EncodeData(bp, &v)
	return util.BSWAP64(util.Load[uint64](bp))
}

func encodeKeyFloat32(p unsafe.Pointer) uint64 {
	v := util.Load[float32](p)
	// every NaN maps to the top key, above +Inf, matching cmpFloat
	if math.IsNaN(float64(v)) {
		return uint64(^uint32(0))
	}
	bits := math.Float32bits(v)
	if bits&(1<<31) != 0 {
		bits = ^bits
	} else {
		bits |= 1 << 31
	}
	return uint64(bits)
}

func encodeKeyFloat64(p unsafe.Pointer) uint64 {
	v := util.Load[float64](p)
	if math.IsNaN(v) {
		return ^uint64(0)
	}
	bits := math.Float64bits(v)
	if bits&(1<<63) != 0 {
		bits = ^bits
	} else {
		bits |= 1 << 63
	}
	return bits
}

func allTypeOps() []*typeOps {
	i32 := fixedOps[int32](common.INT32, cmpNumber[int32])
	i32._encode = encodeKeyInt32
	i64 := fixedOps[int64](common.INT64, cmpNumber[int64])
	i64._encode = encodeKeyInt64
	u64 := fixedOps[uint64](common.UINT64, cmpNumber[uint64])
	u64._encode = encodeKeyUint64
	f32 := fixedOps[float32](common.FLOAT, cmpFloat[float32])
	f32._encode = encodeKeyFloat32
	f64 := fixedOps[float64](common.DOUBLE, cmpFloat[float64])
	f64._encode = encodeKeyFloat64
	return []*typeOps{
		i32, i64, u64, f32, f64,
		fixedOps[bool](common.BOOL, cmpBool),
		fixedOps[common.Date](common.DATE, cmpDate),
		fixedOps[common.Decimal](common.DECIMAL, cmpDecimal),
		fixedOps[common.Hugeint](common.INT128, cmpHugeint),
		varcharOps(),
	}
}
