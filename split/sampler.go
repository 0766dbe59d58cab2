package split

import (
	"fmt"
	"math/rand"
)

// Counts computes the exact category sizes for n records split at a
// trainFactor:testFactor ratio. trainCount is floor(n*p) with
// p = trainFactor/(trainFactor+testFactor); integer arithmetic keeps it
// exact for any n.
func Counts(n, trainFactor, testFactor int) (trainCount, testCount int, err error) {
	if trainFactor <= 0 || testFactor <= 0 {
		return 0, 0, fmt.Errorf("split factors must be positive, got %d:%d", trainFactor, testFactor)
	}
	if n < 0 {
		return 0, 0, fmt.Errorf("negative record count %d", n)
	}
	trainCount = n * trainFactor / (trainFactor + testFactor)
	return trainCount, n - trainCount, nil
}

// SampleIndices selects k indices uniformly without replacement from
// [0, n) using the supplied generator, returned as a membership set.
// The generator is passed in explicitly: identical generator state yields
// an identical selection, and that determinism is the contract downstream
// propagation rests on.
func SampleIndices(rng *rand.Rand, n, k int) map[int]struct{} {
	if k > n {
		k = n
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	// Partial Fisher-Yates: after k swaps, idx[:k] is a uniform sample.
	for i := 0; i < k; i++ {
		j := i + rng.Intn(n-i)
		idx[i], idx[j] = idx[j], idx[i]
	}
	selected := make(map[int]struct{}, k)
	for _, v := range idx[:k] {
		selected[v] = struct{}{}
	}
	return selected
}
