package search

import "math"

// maxReductionDepth/maxReductionIndex bound the precomputed late-move
// reduction table; requests beyond either bound clamp to the table's edge.
const (
	maxReductionDepth = 64
	maxReductionIndex = 64
)

// lmrTable[depth][moveIndex] is round(log(depth)*log(moveIndex)/2), per
// §4.H's move loop -- computed once at package init since math.Log isn't a
// compile-time constant.
var lmrTable [maxReductionDepth + 1][maxReductionIndex + 1]int

func init() {
	for d := 1; d <= maxReductionDepth; d++ {
		for i := 1; i <= maxReductionIndex; i++ {
			r := math.Log(float64(d)) * math.Log(float64(i)) / 2
			lmrTable[d][i] = int(math.Round(r))
		}
	}
}

func baseReduction(depth, moveIndex int) int {
	if depth > maxReductionDepth {
		depth = maxReductionDepth
	}
	if moveIndex > maxReductionIndex {
		moveIndex = maxReductionIndex
	}
	if depth < 1 || moveIndex < 1 {
		return 0
	}
	return lmrTable[depth][moveIndex]
}
