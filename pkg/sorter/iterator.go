package sorter

import (
	"github.com/kioco/OAP/pkg/chunk"
	"github.com/kioco/OAP/pkg/common"
)

type resultSource interface {
	materialize(out *chunk.Chunk, offset int, cnt int)
	release()
}

// ResultIterator drains a sorted kernel in bounded batches. The cursor
// only moves forward; the final batch may be short.
type ResultIterator struct {
	_source   resultSource
	_types    []common.LType
	_batchCap int
	_total    int
	_offset   int
	_closed   bool
}

func newResultIterator(source resultSource, types []common.LType, batchCap, total int) *ResultIterator {
	return &ResultIterator{
		_source:   source,
		_types:    types,
		_batchCap: batchCap,
		_total:    total,
	}
}

func (iter *ResultIterator) HasNext() bool {
	return iter._offset < iter._total
}

// Next fills out with the next at-most-batchCap sorted rows. The chunk
// is initialized on first use and reset after that, so one chunk can be
// reused across calls.
func (iter *ResultIterator) Next(out *chunk.Chunk) error {
	if out == nil {
		return ErrNilBatch
	}
	if !iter.HasNext() {
		return ErrExhausted
	}
	if len(out.Data) == 0 {
		out.Init(iter._types, iter._batchCap)
	} else {
		out.Reset()
	}
	cnt := iter._batchCap
	if remaining := iter._total - iter._offset; remaining < cnt {
		cnt = remaining
	}
	iter._source.materialize(out, iter._offset, cnt)
	iter._offset += cnt
	return nil
}

// Close releases the accumulated column data and the sorted array.
func (iter *ResultIterator) Close() {
	if iter._closed {
		return
	}
	iter._closed = true
	iter._source.release()
}
