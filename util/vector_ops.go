package util

import "sort"

// sum the vector
func VectorSum(data []uint32) uint64 {
	sum := uint64(0)
	for _, d := range data {
		sum += uint64(d)
	}
	return sum
}

// TopN returns the indices of the n largest values, largest first.
// Ties keep the lower index first.
func TopN(data []float64, n int) []int {
	idx := make([]int, len(data))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return data[idx[i]] > data[idx[j]]
	})
	if n < 0 {
		n = 0
	}
	if n > len(idx) {
		n = len(idx)
	}
	return idx[:n]
}
