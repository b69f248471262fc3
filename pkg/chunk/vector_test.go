package chunk

import (
	"math/rand/v2"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kioco/OAP/pkg/common"
	"github.com/kioco/OAP/pkg/util"
)

func runSerial(
	t *testing.T,
	name string,
	run func(t *testing.T, fname string) error) error {
	tempFile, err := os.CreateTemp("", name)
	if err != nil {
		return err
	}
	defer func(name string) {
		_ = os.Remove(name)
	}(tempFile.Name())
	fname := tempFile.Name()
	_ = tempFile.Close()
	if run != nil {
		return run(t, fname)
	}
	return nil
}

func fillRandom[T any](vec *Vector, cnt int, nullRatio float32, op ScatterOp[T]) {
	var data []T
	if vec.PhyFormat().IsConst() {
		data = GetSliceInPhyFormatConst[T](vec)
	} else {
		data = GetSliceInPhyFormatFlat[T](vec)
	}
	for i := 0; i < cnt; i++ {
		if rand.Float32() < nullRatio {
			if vec.PhyFormat().IsConst() {
				SetNullInPhyFormatConst(vec, true)
			} else {
				SetNullInPhyFormatFlat(vec, uint64(i), true)
			}
		} else {
			data[i] = op.RandValue()
		}
	}
}

func randomVector(typ common.LType, pf PhyFormat, nullRatio float32) *Vector {
	vec := NewEmptyVector(typ, pf, util.DefaultVectorSize)
	cnt := util.DefaultVectorSize
	if pf.IsConst() {
		cnt = 1
	}
	switch typ.GetInternalType() {
	case common.BOOL:
		fillRandom[bool](vec, cnt, nullRatio, BoolScatterOp{})
	case common.INT32:
		fillRandom[int32](vec, cnt, nullRatio, Int32ScatterOp{})
	case common.INT64:
		fillRandom[int64](vec, cnt, nullRatio, Int64ScatterOp{})
	case common.UINT64:
		fillRandom[uint64](vec, cnt, nullRatio, Uint64ScatterOp{})
	case common.FLOAT:
		fillRandom[float32](vec, cnt, nullRatio, Float32ScatterOp{})
	case common.DOUBLE:
		fillRandom[float64](vec, cnt, nullRatio, Float64ScatterOp{})
	case common.DECIMAL:
		fillRandom[common.Decimal](vec, cnt, nullRatio, DecimalScatterOp{})
	case common.DATE:
		fillRandom[common.Date](vec, cnt, nullRatio, DateScatterOp{})
	case common.INT128:
		fillRandom[common.Hugeint](vec, cnt, nullRatio, HugeintScatterOp{})
	case common.VARCHAR:
		fillRandom[common.String](vec, cnt, nullRatio, StringScatterOp{})
	default:
		panic("usp")
	}
	return vec
}

func isSameVector(a, b *Vector, count int) bool {
	for i := 0; i < count; i++ {
		aVal := a.GetValue(i)
		bVal := b.GetValue(i)
		if aVal.IsNull != bVal.IsNull {
			return false
		}
		if !aVal.IsNull && aVal.String() != bVal.String() {
			return false
		}
	}
	return true
}

func isSameChunk(a, b *Chunk, count int) bool {
	if a.ColumnCount() != b.ColumnCount() {
		return false
	}
	for i := 0; i < a.ColumnCount(); i++ {
		if !isSameVector(a.Data[i], b.Data[i], count) {
			return false
		}
	}
	return true
}

func Test_randomVector(t *testing.T) {
	typs := []common.LType{
		common.BooleanType(),
		common.IntegerType(),
		common.BigintType(),
		common.UbigintType(),
		common.FloatType(),
		common.DoubleType(),
		common.DecimalType(common.DecimalMaxWidthInt64, 2),
		common.DateType(),
		common.HugeintType(),
		common.VarcharType(),
	}
	pfs := []PhyFormat{
		PF_FLAT,
		PF_CONST,
	}
	for _, typ := range typs {
		for _, pf := range pfs {
			vec := randomVector(typ, pf, 0.2)
			assert.NotNil(t, vec)
			assert.Equal(t, pf, vec.PhyFormat())
			for i := 0; i < util.DefaultVectorSize; i++ {
				val := vec.GetValue(i)
				assert.NotNil(t, val)
				_ = val.String()
			}
		}
	}
}

func Test_getSetValue(t *testing.T) {
	type args struct {
		typ common.LType
		val *Value
	}
	kases := []args{
		{
			typ: common.IntegerType(),
			val: &Value{Typ: common.IntegerType(), I64: -42},
		},
		{
			typ: common.BigintType(),
			val: &Value{Typ: common.BigintType(), I64: 1 << 40},
		},
		{
			typ: common.UbigintType(),
			val: &Value{Typ: common.UbigintType(), U64: 1 << 63},
		},
		{
			typ: common.DoubleType(),
			val: &Value{Typ: common.DoubleType(), F64: 3.25},
		},
		{
			typ: common.FloatType(),
			val: &Value{Typ: common.FloatType(), F64: 0.5},
		},
		{
			typ: common.VarcharType(),
			val: &Value{Typ: common.VarcharType(), Str: "helloworld"},
		},
		{
			typ: common.DateType(),
			val: &Value{Typ: common.DateType(), I64: 2024, I64_1: 9, I64_2: 8},
		},
		{
			typ: common.DecimalType(common.DecimalMaxWidthInt64, 2),
			val: &Value{Typ: common.DecimalType(common.DecimalMaxWidthInt64, 2), I64: 199, I64_1: 25},
		},
		{
			typ: common.BooleanType(),
			val: &Value{Typ: common.BooleanType(), Bool: true},
		},
		{
			typ: common.HugeintType(),
			val: &Value{Typ: common.HugeintType(), I64: 3, I64_1: 7},
		},
	}
	for _, kase := range kases {
		vec := NewFlatVector(kase.typ, util.DefaultVectorSize)
		want := kase.val.String()
		vec.SetValue(3, kase.val)
		got := vec.GetValue(3)
		assert.False(t, got.IsNull, kase.typ.String())
		assert.Equal(t, want, got.String(), kase.typ.String())

		null := &Value{Typ: kase.typ, IsNull: true}
		vec.SetValue(5, null)
		got = vec.GetValue(5)
		assert.True(t, got.IsNull, kase.typ.String())
	}
}

func Test_flatVectorConstructors(t *testing.T) {
	iVec := NewIntegerFlatVector([]int32{3, 1, 2}, util.DefaultVectorSize)
	assert.Equal(t, "1", iVec.GetValue(1).String())
	assert.False(t, HasNull(iVec, 3))

	uVec := NewUbigintFlatVector([]uint64{1 << 63, 42}, util.DefaultVectorSize)
	assert.Equal(t, "42", uVec.GetValue(1).String())

	vVec := NewVarcharFlatVector([]string{"hello", "a long string over prefix"}, util.DefaultVectorSize)
	assert.Equal(t, "hello", vVec.GetValue(0).String())
	assert.Equal(t, "a long string over prefix", vVec.GetValue(1).String())

	iVec.Mask.SetInvalid(2)
	assert.True(t, HasNull(iVec, 3))

	cVec := NewConstVector(common.IntegerType())
	SetNullInPhyFormatConst(cVec, true)
	assert.True(t, HasNull(cVec, 1))
}

func Test_flattenConst(t *testing.T) {
	vec := NewConstVector(common.IntegerType())
	data := GetSliceInPhyFormatConst[int32](vec)
	data[0] = 7
	vec.Flatten(util.DefaultVectorSize)
	assert.True(t, vec.PhyFormat().IsFlat())
	flat := GetSliceInPhyFormatFlat[int32](vec)
	for i := 0; i < util.DefaultVectorSize; i++ {
		assert.True(t, vec.Mask.RowIsValid(uint64(i)))
		assert.Equal(t, int32(7), flat[i])
	}

	nullVec := NewConstVector(common.VarcharType())
	SetNullInPhyFormatConst(nullVec, true)
	nullVec.Flatten(util.DefaultVectorSize)
	assert.True(t, nullVec.PhyFormat().IsFlat())
	for i := 0; i < util.DefaultVectorSize; i++ {
		assert.False(t, nullVec.Mask.RowIsValid(uint64(i)))
	}
}

func Test_vectorSerialize(t *testing.T) {
	type args struct {
		typ  common.LType
		pf   PhyFormat
		vec  *Vector
		read *Vector
	}
	typs := []common.LType{
		common.IntegerType(),
		common.UbigintType(),
		common.DoubleType(),
		common.DateType(),
		common.DecimalType(common.DecimalMaxWidthInt64, 2),
		common.HugeintType(),
		common.VarcharType(),
	}
	pfs := []PhyFormat{
		PF_FLAT,
		PF_CONST,
	}
	kases := make([]args, 0)
	for _, typ := range typs {
		for _, pf := range pfs {
			vec := randomVector(typ, pf, 0.2)
			kases = append(kases, args{
				typ:  typ,
				pf:   pf,
				vec:  vec,
				read: NewEmptyVector(typ, pf, util.DefaultVectorSize),
			})
		}
	}
	run := func(t *testing.T, fname string) error {
		serial, err := util.NewFileSerialize(fname)
		assert.NoError(t, err, fname)
		assert.NotNil(t, serial)
		for _, kase := range kases {
			err = kase.vec.Serialize(util.DefaultVectorSize, serial)
			if err != nil {
				return err
			}
		}
		_ = serial.Close()

		deserial, err := util.NewFileDeserialize(fname)
		assert.NoError(t, err, fname)
		assert.NotNil(t, deserial)

		for _, kase := range kases {
			err = kase.read.Deserialize(util.DefaultVectorSize, deserial)
			if err != nil {
				return err
			}
			same0 := isSameVector(kase.vec, kase.vec, util.DefaultVectorSize)
			assert.True(t, same0, "self equal self")
			same := isSameVector(kase.vec, kase.read, util.DefaultVectorSize)
			assert.Truef(t, same, "type %s phy_format %s", kase.typ.String(), kase.pf.String())
		}

		_ = deserial.Close()
		return nil
	}
	err := runSerial(t, "serial-vector", run)
	assert.NoError(t, err)
}

func Test_chunkSerialize(t *testing.T) {
	type args struct {
		pf   PhyFormat
		src  *Chunk
		read *Chunk
	}
	typs := []common.LType{
		common.IntegerType(),
		common.DecimalType(common.DecimalMaxWidthInt64, 2),
		common.VarcharType(),
	}
	pfs := []PhyFormat{
		PF_FLAT,
		PF_CONST,
	}
	kases := make([]args, 0)
	for _, pf := range pfs {
		srcChunk := &Chunk{}
		srcChunk.Init(typs, util.DefaultVectorSize)
		for i, typ := range typs {
			srcChunk.Data[i] = randomVector(typ, pf, 0.2)
		}
		srcChunk.SetCard(util.DefaultVectorSize)

		kases = append(kases, args{
			pf:   pf,
			src:  srcChunk,
			read: &Chunk{},
		})
	}
	run := func(t *testing.T, fname string) error {
		serial, err := util.NewFileSerialize(fname)
		assert.NoError(t, err, fname)
		assert.NotNil(t, serial)
		for _, kase := range kases {
			err = kase.src.Serialize(serial)
			if err != nil {
				return err
			}
		}
		_ = serial.Close()

		deserial, err := util.NewFileDeserialize(fname)
		assert.NoError(t, err, fname)
		assert.NotNil(t, deserial)

		for _, kase := range kases {
			read := kase.read
			err = read.Deserialize(deserial)
			if err != nil {
				return err
			}
			assert.Equal(t, kase.src.Card(), read.Card())
			same := isSameChunk(kase.src, read, util.DefaultVectorSize)
			assert.Truef(t, same, "phy_format %s", kase.pf.String())
		}

		_ = deserial.Close()
		return nil
	}
	err := runSerial(t, "serial-chunk", run)
	assert.NoError(t, err)
}
