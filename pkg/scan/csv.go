package scan

import (
	"encoding/csv"
	"errors"
	"io"
	"os"

	"github.com/kioco/OAP/pkg/chunk"
	"github.com/kioco/OAP/pkg/common"
)

type csvFeeder struct {
	_file   *os.File
	_reader *csv.Reader
	_types  []common.LType
	_cols   []int
}

func newCsvFeeder(path string, types []common.LType, cols []int, comma rune) (*csvFeeder, error) {
	file, err := os.OpenFile(path, os.O_RDONLY, 0755)
	if err != nil {
		return nil, err
	}
	reader := csv.NewReader(file)
	reader.Comma = comma
	return &csvFeeder{
		_file:   file,
		_reader: reader,
		_types:  types,
		_cols:   cols,
	}, nil
}

func (feeder *csvFeeder) Types() []common.LType {
	return feeder._types
}

func (feeder *csvFeeder) Read(output *chunk.Chunk, maxCnt int) error {
	rowCont := 0
	for i := 0; i < maxCnt; i++ {
		line, err := feeder._reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		for j, idx := range feeder._cols {
			if idx >= len(line) {
				return errors.New("no enough fields in the line")
			}
			field := line[idx]
			vec := output.Data[j]
			val, err := fieldToValue(field, vec.Typ())
			if err != nil {
				return err
			}
			vec.SetValue(i, val)
		}
		rowCont++
	}
	output.SetCard(rowCont)
	return nil
}

func (feeder *csvFeeder) Close() error {
	feeder._reader = nil
	return feeder._file.Close()
}
