package scan

import (
	"errors"
	"fmt"
	"io"

	pqLocal "github.com/xitongsys/parquet-go-source/local"
	pqReader "github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/source"

	"github.com/kioco/OAP/pkg/chunk"
	"github.com/kioco/OAP/pkg/common"
)

// parquetFeeder pulls counted slices per column. Column reads run in
// parallel streams inside the file, so each batch cross-checks the row
// counts before any value lands in a vector.
type parquetFeeder struct {
	_file   source.ParquetFile
	_reader *pqReader.ParquetReader
	_types  []common.LType
	_cols   []int
}

func newParquetFeeder(path string, types []common.LType, cols []int) (*parquetFeeder, error) {
	file, err := pqLocal.NewLocalFileReader(path)
	if err != nil {
		return nil, err
	}
	reader, err := pqReader.NewParquetColumnReader(file, 1)
	if err != nil {
		file.Close()
		return nil, err
	}
	return &parquetFeeder{
		_file:   file,
		_reader: reader,
		_types:  types,
		_cols:   cols,
	}, nil
}

func (feeder *parquetFeeder) Types() []common.LType {
	return feeder._types
}

func (feeder *parquetFeeder) Read(output *chunk.Chunk, maxCnt int) error {
	rowCont := -1
	var err error
	var values []interface{}

	for j, idx := range feeder._cols {
		values, _, _, err = feeder._reader.ReadColumnByIndex(int64(idx), int64(maxCnt))
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}

		if rowCont < 0 {
			rowCont = len(values)
		} else if len(values) != rowCont {
			return fmt.Errorf("column %d has different count of values %d with previous columns %d",
				idx, len(values), rowCont)
		}

		vec := output.Data[j]
		for i := 0; i < len(values); i++ {
			val, err := parquetFieldToValue(values[i], vec.Typ())
			if err != nil {
				return err
			}
			vec.SetValue(i, val)
		}
	}
	if rowCont < 0 {
		rowCont = 0
	}
	output.SetCard(rowCont)
	return nil
}

func (feeder *parquetFeeder) Close() error {
	feeder._reader.ReadStop()
	return feeder._file.Close()
}
