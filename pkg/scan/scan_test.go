package scan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kioco/OAP/pkg/chunk"
	"github.com/kioco/OAP/pkg/common"
)

func writeCsv(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(lines), 0644))
	return path
}

func TestCsvFeeder(t *testing.T) {
	path := writeCsv(t, "3,pear\n1,apple\n2,fig\n")
	types := []common.LType{common.IntegerType(), common.VarcharType()}
	feeder, err := NewFeeder("csv", path, types, nil)
	require.NoError(t, err)
	defer feeder.Close()

	out := &chunk.Chunk{}
	out.Init(types, 16)
	require.NoError(t, feeder.Read(out, 16))
	require.Equal(t, 3, out.Card())
	assert.Equal(t, int64(3), out.Data[0].GetValue(0).I64)
	assert.Equal(t, "pear", out.Data[1].GetValue(0).Str)
	assert.Equal(t, int64(2), out.Data[0].GetValue(2).I64)

	// drained
	out.Reset()
	require.NoError(t, feeder.Read(out, 16))
	assert.Equal(t, 0, out.Card())
}

func TestCsvFeederBatches(t *testing.T) {
	lines := ""
	for i := 0; i < 7; i++ {
		lines += "1,x\n"
	}
	path := writeCsv(t, lines)
	types := []common.LType{common.IntegerType(), common.VarcharType()}
	feeder, err := NewFeeder("csv", path, types, nil)
	require.NoError(t, err)
	defer feeder.Close()

	got := 0
	for {
		out := &chunk.Chunk{}
		out.Init(types, 3)
		require.NoError(t, feeder.Read(out, 3))
		if out.Card() == 0 {
			break
		}
		assert.LessOrEqual(t, out.Card(), 3)
		got += out.Card()
	}
	assert.Equal(t, 7, got)
}

func TestCsvFeederColumnPick(t *testing.T) {
	path := writeCsv(t, "a,1,x\nb,2,y\n")
	types := []common.LType{common.IntegerType()}
	feeder, err := NewFeeder("csv", path, types, []int{1})
	require.NoError(t, err)
	defer feeder.Close()

	out := &chunk.Chunk{}
	out.Init(types, 16)
	require.NoError(t, feeder.Read(out, 16))
	require.Equal(t, 2, out.Card())
	assert.Equal(t, int64(1), out.Data[0].GetValue(0).I64)
	assert.Equal(t, int64(2), out.Data[0].GetValue(1).I64)
}

func TestCsvFeederShortLine(t *testing.T) {
	// csv.Reader enforces rectangular input; a short record is an error
	path := writeCsv(t, "1,a\n2\n")
	types := []common.LType{common.IntegerType(), common.VarcharType()}
	feeder, err := NewFeeder("csv", path, types, nil)
	require.NoError(t, err)
	defer feeder.Close()

	out := &chunk.Chunk{}
	out.Init(types, 16)
	assert.Error(t, feeder.Read(out, 16))
}

func TestNewFeederErrors(t *testing.T) {
	types := []common.LType{common.IntegerType()}
	_, err := NewFeeder("orc", "x", types, nil)
	assert.ErrorContains(t, err, "unknown data format")

	_, err = NewFeeder("csv", "x", types, []int{0, 1})
	assert.ErrorContains(t, err, "columns")

	_, err = NewFeeder("csv", filepath.Join(t.TempDir(), "absent.csv"), types, nil)
	assert.Error(t, err)
}

func TestFieldToValue(t *testing.T) {
	val, err := fieldToValue("2024-03-15", common.DateType())
	require.NoError(t, err)
	assert.Equal(t, int64(2024), val.I64)
	assert.Equal(t, int64(3), val.I64_1)
	assert.Equal(t, int64(15), val.I64_2)

	val, err = fieldToValue("12345678901", common.BigintType())
	require.NoError(t, err)
	assert.Equal(t, int64(12345678901), val.I64)

	val, err = fieldToValue("3.25", common.DoubleType())
	require.NoError(t, err)
	assert.Equal(t, 3.25, val.F64)

	val, err = fieldToValue("18446744073709551615", common.UbigintType())
	require.NoError(t, err)
	assert.Equal(t, uint64(18446744073709551615), val.U64)

	// empty numeric field reads as null
	val, err = fieldToValue("", common.IntegerType())
	require.NoError(t, err)
	assert.True(t, val.IsNull)

	// empty varchar is the empty string, not null
	val, err = fieldToValue("", common.VarcharType())
	require.NoError(t, err)
	assert.False(t, val.IsNull)

	_, err = fieldToValue("abc", common.IntegerType())
	assert.Error(t, err)
}
