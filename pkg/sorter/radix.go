package sorter

const valuesPerRadix = 256

// radixEntry pairs an order-preserving encoded key with the row it came
// from: the batch/row reference on the indexed path, a buffer position
// on the in-place path.
type radixEntry struct {
	_key uint64
	_idx ArrayItemIndex
}

// radixSortLSD runs a least-significant-digit counting sort, one byte
// per pass. Bytes constant across all keys skip their pass. Stable, so
// ties keep encounter order.
func radixSortLSD(entries []radixEntry) {
	n := len(entries)
	if n <= 1 {
		return
	}
	tmp := make([]radixEntry, n)
	src, dst := entries, tmp
	swapped := false
	var counts [valuesPerRadix]int
	for pass := 0; pass < 8; pass++ {
		shift := uint(pass * 8)
		for i := range counts {
			counts[i] = 0
		}
		for i := 0; i < n; i++ {
			counts[uint8(src[i]._key>>shift)]++
		}
		if counts[uint8(src[0]._key>>shift)] == n {
			continue
		}
		total := 0
		for i := 0; i < valuesPerRadix; i++ {
			c := counts[i]
			counts[i] = total
			total += c
		}
		for i := 0; i < n; i++ {
			b := uint8(src[i]._key >> shift)
			dst[counts[b]] = src[i]
			counts[b]++
		}
		src, dst = dst, src
		swapped = !swapped
	}
	if swapped {
		copy(entries, src)
	}
}
