package chunk

import (
	"unsafe"

	"github.com/kioco/OAP/pkg/common"
	"github.com/kioco/OAP/pkg/util"
)

func NewVector(lTyp common.LType, initData bool, cap int) *Vector {
	vec := &Vector{
		_PhyFormat: PF_FLAT,
		_Typ:       lTyp,
		Mask:       &util.Bitmap{},
	}
	if initData {
		vec.Init(cap)
	}
	return vec
}

func NewVector2(lTyp common.LType, cap int) *Vector {
	return NewVector(lTyp, true, cap)
}

func NewFlatVector(lTyp common.LType, cap int) *Vector {
	return NewVector2(lTyp, cap)
}

func NewConstVector(lTyp common.LType) *Vector {
	vec := NewVector2(lTyp, util.DefaultVectorSize)
	vec.SetPhyFormat(PF_CONST)
	return vec
}

func NewEmptyVector(typ common.LType, pf PhyFormat, cap int) *Vector {
	var vec *Vector
	switch pf {
	case PF_FLAT:
		vec = NewFlatVector(typ, cap)
	case PF_CONST:
		vec = NewConstVector(typ)
	default:
		panic("usp")
	}
	return vec
}

func WriteToStorage(
	src *Vector,
	count int,
	ptr unsafe.Pointer,
) {
	if count == 0 {
		return
	}

	var vdata UnifiedFormat
	src.ToUnifiedFormat(count, &vdata)

	switch src.Typ().GetInternalType() {
	case common.BOOL:
		SaveLoop[bool](&vdata, count, ptr, BoolScatterOp{})
	case common.INT32:
		SaveLoop[int32](&vdata, count, ptr, Int32ScatterOp{})
	case common.DECIMAL:
		SaveLoop[common.Decimal](&vdata, count, ptr, DecimalScatterOp{})
	case common.DATE:
		SaveLoop[common.Date](&vdata, count, ptr, DateScatterOp{})
	case common.INT64:
		SaveLoop[int64](&vdata, count, ptr, Int64ScatterOp{})
	case common.UINT64:
		SaveLoop[uint64](&vdata, count, ptr, Uint64ScatterOp{})
	case common.FLOAT:
		SaveLoop[float32](&vdata, count, ptr, Float32ScatterOp{})
	case common.DOUBLE:
		SaveLoop[float64](&vdata, count, ptr, Float64ScatterOp{})
	case common.INT128:
		SaveLoop[common.Hugeint](&vdata, count, ptr, HugeintScatterOp{})
	default:
		panic("usp")
	}
}

func SaveLoop[T any](
	vdata *UnifiedFormat,
	count int,
	ptr unsafe.Pointer,
	nVal ScatterOp[T],
) {
	inSlice := GetSliceInPhyFormatUnifiedFormat[T](vdata)
	resSlice := util.PointerToSlice[T](ptr, count)
	for i := 0; i < count; i++ {
		idx := vdata.Sel.GetIndex(i)
		if !vdata.Mask.RowIsValid(uint64(idx)) {
			resSlice[i] = nVal.NullValue()
		} else {
			resSlice[i] = inSlice[idx]
		}
	}
}

func ReadFromStorage(
	ptr unsafe.Pointer,
	count int,
	res *Vector,
) {
	res.SetPhyFormat(PF_FLAT)
	switch res.Typ().GetInternalType() {
	case common.BOOL:
		ReadLoop[bool](ptr, count, res)
	case common.INT32:
		ReadLoop[int32](ptr, count, res)
	case common.DECIMAL:
		ReadLoop[common.Decimal](ptr, count, res)
	case common.DATE:
		ReadLoop[common.Date](ptr, count, res)
	case common.INT64:
		ReadLoop[int64](ptr, count, res)
	case common.UINT64:
		ReadLoop[uint64](ptr, count, res)
	case common.FLOAT:
		ReadLoop[float32](ptr, count, res)
	case common.DOUBLE:
		ReadLoop[float64](ptr, count, res)
	case common.INT128:
		ReadLoop[common.Hugeint](ptr, count, res)
	default:
		panic("usp")
	}
}

func ReadLoop[T any](
	src unsafe.Pointer,
	count int,
	res *Vector,
) {
	srcSlice := util.PointerToSlice[T](src, count)
	resSlice := GetSliceInPhyFormatFlat[T](res)

	for i := 0; i < count; i++ {
		resSlice[i] = srcSlice[i]
	}
}
