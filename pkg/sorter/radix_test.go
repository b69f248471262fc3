package sorter

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRadixSortLSDRandom(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	entries := make([]radixEntry, 10000)
	for i := range entries {
		entries[i] = radixEntry{
			_key: rnd.Uint64(),
			_idx: ArrayItemIndex{RowId: uint32(i)},
		}
	}
	radixSortLSD(entries)
	for i := 1; i < len(entries); i++ {
		assert.LessOrEqual(t, entries[i-1]._key, entries[i]._key)
	}
}

func TestRadixSortLSDStable(t *testing.T) {
	rnd := rand.New(rand.NewSource(8))
	entries := make([]radixEntry, 5000)
	for i := range entries {
		// few distinct keys force ties
		entries[i] = radixEntry{
			_key: uint64(rnd.Intn(16)),
			_idx: ArrayItemIndex{RowId: uint32(i)},
		}
	}
	radixSortLSD(entries)
	for i := 1; i < len(entries); i++ {
		prev, cur := entries[i-1], entries[i]
		assert.LessOrEqual(t, prev._key, cur._key)
		if prev._key == cur._key {
			assert.Less(t, prev._idx.RowId, cur._idx.RowId)
		}
	}
}

func TestRadixSortLSDSmall(t *testing.T) {
	radixSortLSD(nil)
	single := []radixEntry{{_key: 3}}
	radixSortLSD(single)
	assert.Equal(t, uint64(3), single[0]._key)
}

func TestEncodeKeysPreserveOrder(t *testing.T) {
	i32s := []int32{-2147483648, -5, -1, 0, 1, 5, 2147483647}
	for i := 1; i < len(i32s); i++ {
		l, r := i32s[i-1], i32s[i]
		assert.Less(t, encodeKeyInt32(ptrOf(&l)), encodeKeyInt32(ptrOf(&r)))
	}
	f64s := []float64{-1e300, -1.5, -0.0, 1.5, 1e300}
	for i := 1; i < len(f64s); i++ {
		l, r := f64s[i-1], f64s[i]
		assert.Less(t, encodeKeyFloat64(ptrOf(&l)), encodeKeyFloat64(ptrOf(&r)))
	}
}
