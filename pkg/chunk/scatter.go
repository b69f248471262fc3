package chunk

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/govalues/decimal"

	"github.com/kioco/OAP/pkg/common"
	"github.com/kioco/OAP/pkg/util"
)

type ScatterOp[T any] interface {
	NullValue() T
	RandValue() T
}

type BoolScatterOp struct {
}

func (scatter BoolScatterOp) NullValue() bool {
	return false
}

func (scatter BoolScatterOp) RandValue() bool {
	return rand.Uint32()%2 == 0
}

type Int32ScatterOp struct {
}

func (scatter Int32ScatterOp) NullValue() int32 {
	return 0
}

func (scatter Int32ScatterOp) RandValue() int32 {
	return rand.Int32()
}

type HugeintScatterOp struct {
}

func (scatter HugeintScatterOp) NullValue() common.Hugeint {
	return common.Hugeint{
		Lower: 0,
		Upper: math.MinInt64,
	}
}

func (scatter HugeintScatterOp) RandValue() common.Hugeint {
	return common.Hugeint{
		Lower: rand.Uint64(),
		Upper: rand.Int64N(1 << 20),
	}
}

type Uint64ScatterOp struct {
}

func (scatter Uint64ScatterOp) NullValue() uint64 {
	return 0
}

func (scatter Uint64ScatterOp) RandValue() uint64 {
	return rand.Uint64()
}

type Int64ScatterOp struct {
}

func (scatter Int64ScatterOp) NullValue() int64 {
	return 0
}

func (scatter Int64ScatterOp) RandValue() int64 {
	return rand.Int64()
}

type Float32ScatterOp struct {
}

func (scatter Float32ScatterOp) NullValue() float32 {
	return 0
}

func (scatter Float32ScatterOp) RandValue() float32 {
	return rand.Float32()
}

type Float64ScatterOp struct {
}

func (scatter Float64ScatterOp) NullValue() float64 {
	return 0
}

func (scatter Float64ScatterOp) RandValue() float64 {
	return rand.Float64()
}

type StringScatterOp struct {
}

func (scatter StringScatterOp) NullValue() common.String {
	return common.String{Data: nil}
}

func (scatter StringScatterOp) RandValue() common.String {
	start := 32
	end := 126
	l := int(rand.UintN(1024))
	if l == 0 {
		return common.String{}
	} else {
		data := util.CMalloc(l)
		ret := common.String{
			Data: data,
			Len:  l,
		}
		dSlice := ret.DataSlice()
		for i := 0; i < l; i++ {
			j := rand.UintN(uint(end-start) + 1)
			dSlice[i] = byte(j + ' ')
		}
		return ret
	}
}

type DecimalScatterOp struct {
}

func (scatter DecimalScatterOp) NullValue() common.Decimal {
	zero := decimal.Zero
	return common.Decimal{Decimal: zero}
}

func (scatter DecimalScatterOp) RandValue() common.Decimal {
	return common.Decimal{
		Decimal: decimal.MustNew(rand.Int64N(1000000), 2),
	}
}

type DateScatterOp struct {
}

func (scatter DateScatterOp) NullValue() common.Date {
	return common.Date{Year: 1970, Month: 1, Day: 1}
}

func (scatter DateScatterOp) RandValue() common.Date {
	now := time.Now().Unix()
	diff := rand.Int64N(24 * 3600)
	t := time.Unix(now+diff, 0)
	y, m, d := t.Date()
	return common.Date{
		Year:  int32(y),
		Month: int32(m),
		Day:   int32(d),
	}
}
