package scan

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kioco/OAP/pkg/chunk"
	"github.com/kioco/OAP/pkg/common"
	"github.com/kioco/OAP/pkg/util"
)

// Feeder reads an external data source into columnar batches. Read
// fills at most maxCnt rows; a zero-card output marks the end of the
// source. Feeders are single-pass and not safe for concurrent use.
type Feeder interface {
	Types() []common.LType
	Read(output *chunk.Chunk, maxCnt int) error
	Close() error
}

// NewFeeder opens the file in the named format. cols picks source
// columns by index; nil reads them all in schema order.
func NewFeeder(format, path string, types []common.LType, cols []int) (Feeder, error) {
	if cols == nil {
		cols = make([]int, len(types))
		for i := range cols {
			cols[i] = i
		}
	} else {
		cols = util.CopyTo(cols)
	}
	if len(cols) != len(types) {
		return nil, fmt.Errorf("feeder has %d columns but %d types", len(cols), len(types))
	}
	switch strings.ToLower(format) {
	case "parquet":
		return newParquetFeeder(path, types, cols)
	case "csv":
		return newCsvFeeder(path, types, cols, ',')
	default:
		return nil, fmt.Errorf("unknown data format %s", format)
	}
}

func fieldToValue(field string, lTyp common.LType) (*chunk.Value, error) {
	var err error
	val := &chunk.Value{
		Typ: lTyp,
	}
	if len(field) == 0 && lTyp.Id != common.LTID_VARCHAR {
		val.IsNull = true
		return val, nil
	}
	switch lTyp.Id {
	case common.LTID_DATE:
		d, err := time.Parse(time.DateOnly, field)
		if err != nil {
			return nil, err
		}
		val.I64 = int64(d.Year())
		val.I64_1 = int64(d.Month())
		val.I64_2 = int64(d.Day())
	case common.LTID_INTEGER, common.LTID_BIGINT:
		val.I64, err = strconv.ParseInt(field, 10, 64)
		if err != nil {
			return nil, err
		}
	case common.LTID_UBIGINT:
		val.U64, err = strconv.ParseUint(field, 10, 64)
		if err != nil {
			return nil, err
		}
	case common.LTID_FLOAT, common.LTID_DOUBLE:
		val.F64, err = strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, err
		}
	case common.LTID_DECIMAL:
		val.Str = field
	case common.LTID_VARCHAR:
		val.Str = field
	default:
		panic("usp")
	}
	return val, nil
}

func parquetFieldToValue(field any, lTyp common.LType) (*chunk.Value, error) {
	val := &chunk.Value{
		Typ: lTyp,
	}
	if field == nil {
		val.IsNull = true
		return val, nil
	}
	switch lTyp.Id {
	case common.LTID_DATE:
		days, ok := field.(int32)
		if !ok {
			panic("usp")
		}
		d := time.Date(1970, 1, int(1+days), 0, 0, 0, 0, time.UTC)
		val.I64 = int64(d.Year())
		val.I64_1 = int64(d.Month())
		val.I64_2 = int64(d.Day())
	case common.LTID_INTEGER, common.LTID_BIGINT:
		switch fVal := field.(type) {
		case int32:
			val.I64 = int64(fVal)
		case int64:
			val.I64 = fVal
		default:
			panic("usp")
		}
	case common.LTID_UBIGINT:
		switch fVal := field.(type) {
		case int32:
			val.U64 = uint64(fVal)
		case int64:
			val.U64 = uint64(fVal)
		default:
			panic("usp")
		}
	case common.LTID_FLOAT:
		switch fVal := field.(type) {
		case float32:
			val.F64 = float64(fVal)
		case float64:
			val.F64 = fVal
		default:
			panic("usp")
		}
	case common.LTID_DOUBLE:
		switch fVal := field.(type) {
		case float32:
			val.F64 = float64(fVal)
		case float64:
			val.F64 = fVal
		default:
			panic("usp")
		}
	case common.LTID_VARCHAR:
		s, ok := field.(string)
		if !ok {
			panic("usp")
		}
		val.Str = s
	case common.LTID_DECIMAL:
		p10 := int64(1)
		for i := 0; i < lTyp.Scale; i++ {
			p10 *= 10
		}
		switch v := field.(type) {
		case int32:
			val.I64 = int64(v) / p10
			val.I64_1 = int64(v) % p10
		case int64:
			val.I64 = v / p10
			val.I64_1 = v % p10
		default:
			panic("usp")
		}
	default:
		panic("usp")
	}
	return val, nil
}
