package sorter

// Pattern-defeating quicksort over a slice with a caller comparator.
// Insertion sort below the threshold, median-of-3 (pseudomedian of 9 on
// large ranges) pivot selection, and element shuffling on highly
// unbalanced partitions to break adversarial patterns.

const (
	insertionSortThreshold    = 24
	nintherThreshold          = 128
	partialInsertionSortLimit = 8
)

func pdqsort[T any](data []T, less func(a, b *T) bool) {
	if len(data) < 2 {
		return
	}
	pdqsortLoop(data, 0, len(data), less, true)
}

func pdqsortLoop[T any](data []T, begin, end int, less func(a, b *T) bool, leftMost bool) {
	for {
		size := end - begin
		if size < insertionSortThreshold {
			if leftMost {
				insertSortRange(data, begin, end, less)
			} else {
				unguardedInsertSort(data, begin, end, less)
			}
			return
		}

		// median of 3, pseudomedian of 9 on big partitions
		s2 := size / 2
		if size > nintherThreshold {
			sort3(data, begin, begin+s2, end-1, less)
			sort3(data, begin+1, begin+s2-1, end-2, less)
			sort3(data, begin+2, begin+s2+1, end-3, less)
			sort3(data, begin+s2-1, begin+s2, begin+s2+1, less)
		} else {
			sort3(data, begin+s2, begin, end-1, less)
		}

		// the element before a non-leftmost partition is >= everything
		// in it; equal pivots go left in one pass
		if !leftMost && !less(&data[begin-1], &data[begin]) {
			begin = partitionLeft(data, begin, end, less) + 1
			continue
		}

		pivotPos, alreadyPartitioned := partitionRight(data, begin, end, less)

		lSize := pivotPos - begin
		rSize := end - (pivotPos + 1)
		highlyUnbalanced := lSize < size/8 || rSize < size/8
		if highlyUnbalanced {
			if lSize > insertionSortThreshold {
				data[begin], data[begin+lSize/4] = data[begin+lSize/4], data[begin]
				data[pivotPos-1], data[pivotPos-lSize/4] = data[pivotPos-lSize/4], data[pivotPos-1]
				if lSize > nintherThreshold {
					data[begin+1], data[begin+lSize/4+1] = data[begin+lSize/4+1], data[begin+1]
					data[begin+2], data[begin+lSize/4+2] = data[begin+lSize/4+2], data[begin+2]
					data[pivotPos-2], data[pivotPos-(lSize/4+1)] = data[pivotPos-(lSize/4+1)], data[pivotPos-2]
					data[pivotPos-3], data[pivotPos-(lSize/4+2)] = data[pivotPos-(lSize/4+2)], data[pivotPos-3]
				}
			}
			if rSize > insertionSortThreshold {
				data[pivotPos+1], data[pivotPos+rSize/4+1] = data[pivotPos+rSize/4+1], data[pivotPos+1]
				data[end-1], data[end-rSize/4] = data[end-rSize/4], data[end-1]
				if rSize > nintherThreshold {
					data[pivotPos+2], data[pivotPos+rSize/4+2] = data[pivotPos+rSize/4+2], data[pivotPos+2]
					data[pivotPos+3], data[pivotPos+rSize/4+3] = data[pivotPos+rSize/4+3], data[pivotPos+3]
					data[end-2], data[end-(1+rSize/4)] = data[end-(1+rSize/4)], data[end-2]
					data[end-3], data[end-(2+rSize/4)] = data[end-(2+rSize/4)], data[end-3]
				}
			}
		} else if alreadyPartitioned &&
			partialInsertionSort(data, begin, pivotPos, less) &&
			partialInsertionSort(data, pivotPos+1, end, less) {
			return
		}

		pdqsortLoop(data, begin, pivotPos, less, leftMost)
		begin = pivotPos + 1
		leftMost = false
	}
}

// partitionRight moves elements < pivot left of the returned position.
// The second result reports an input that was already partitioned.
func partitionRight[T any](data []T, begin, end int, less func(a, b *T) bool) (int, bool) {
	pivot := data[begin]
	first := begin
	last := end
	for {
		first++
		if !less(&data[first], &pivot) {
			break
		}
	}
	if first-1 == begin {
		for first < last {
			last--
			if less(&data[last], &pivot) {
				break
			}
		}
	} else {
		for {
			last--
			if less(&data[last], &pivot) {
				break
			}
		}
	}

	alreadyPartitioned := first >= last
	for first < last {
		data[first], data[last] = data[last], data[first]
		for {
			first++
			if !less(&data[first], &pivot) {
				break
			}
		}
		for {
			last--
			if less(&data[last], &pivot) {
				break
			}
		}
	}

	pivotPos := first - 1
	data[begin] = data[pivotPos]
	data[pivotPos] = pivot
	return pivotPos, alreadyPartitioned
}

// partitionLeft is partitionRight's mirror for ranges full of elements
// equal to the pivot.
func partitionLeft[T any](data []T, begin, end int, less func(a, b *T) bool) int {
	pivot := data[begin]
	first := begin
	last := end
	for {
		last--
		if !less(&pivot, &data[last]) {
			break
		}
	}
	if last+1 == end {
		for first < last {
			first++
			if less(&pivot, &data[first]) {
				break
			}
		}
	} else {
		for {
			first++
			if less(&pivot, &data[first]) {
				break
			}
		}
	}

	for first < last {
		data[first], data[last] = data[last], data[first]
		for {
			last--
			if !less(&pivot, &data[last]) {
				break
			}
		}
		for {
			first++
			if less(&pivot, &data[first]) {
				break
			}
		}
	}

	pivotPos := last
	data[begin] = data[pivotPos]
	data[pivotPos] = pivot
	return pivotPos
}

func insertSortRange[T any](data []T, begin, end int, less func(a, b *T) bool) {
	if begin == end {
		return
	}
	for cur := begin + 1; cur != end; cur++ {
		sift := cur
		sift1 := cur - 1
		if less(&data[sift], &data[sift1]) {
			tmp := data[sift]
			for {
				data[sift] = data[sift1]
				sift--
				if sift == begin {
					break
				}
				sift1--
				if !less(&tmp, &data[sift1]) {
					break
				}
			}
			data[sift] = tmp
		}
	}
}

// unguardedInsertSort assumes data[begin-1] is a lower bound for the
// range, so the inner walk needs no begin check.
func unguardedInsertSort[T any](data []T, begin, end int, less func(a, b *T) bool) {
	if begin == end {
		return
	}
	for cur := begin + 1; cur != end; cur++ {
		sift := cur
		sift1 := cur - 1
		if less(&data[sift], &data[sift1]) {
			tmp := data[sift]
			for {
				data[sift] = data[sift1]
				sift--
				sift1--
				if !less(&tmp, &data[sift1]) {
					break
				}
			}
			data[sift] = tmp
		}
	}
}

// partialInsertionSort bails once it has moved more than the limit,
// reporting whether the range ended up sorted.
func partialInsertionSort[T any](data []T, begin, end int, less func(a, b *T) bool) bool {
	if begin == end {
		return true
	}
	limit := 0
	for cur := begin + 1; cur != end; cur++ {
		sift := cur
		sift1 := cur - 1
		if less(&data[sift], &data[sift1]) {
			tmp := data[sift]
			for {
				data[sift] = data[sift1]
				sift--
				if sift == begin {
					break
				}
				sift1--
				if !less(&tmp, &data[sift1]) {
					break
				}
			}
			data[sift] = tmp
			limit += cur - sift
		}
		if limit > partialInsertionSortLimit {
			return false
		}
	}
	return true
}

func sort2[T any](data []T, a, b int, less func(x, y *T) bool) {
	if less(&data[b], &data[a]) {
		data[a], data[b] = data[b], data[a]
	}
}

// sorts data[a], data[b], data[c]
func sort3[T any](data []T, a, b, c int, less func(x, y *T) bool) {
	sort2(data, a, b, less)
	sort2(data, b, c, less)
	sort2(data, a, b, less)
}
