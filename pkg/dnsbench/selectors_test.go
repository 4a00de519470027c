package dnsbench

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func elements(n int) []int {
	e := make([]int, n)
	for i := range e {
		e[i] = i
	}
	return e
}

func TestWeightedDistribution(t *testing.T) {
	rnd := rand.New(rand.NewPCG(1, 2))

	picks := WeightedDistribution(elements(100), 250, rnd)

	require.Len(t, picks, 250)
	counts := make(map[int]int)
	for _, p := range picks {
		counts[p]++
	}
	for v, c := range counts {
		assert.LessOrEqual(t, c, MaxWeightedRepeat, "element %d", v)
	}
}

func TestWeightedDistribution_capped(t *testing.T) {
	rnd := rand.New(rand.NewPCG(1, 2))

	picks := WeightedDistribution(elements(4), 100, rnd)

	assert.Len(t, picks, 4*MaxWeightedRepeat)
	assert.Empty(t, WeightedDistribution(elements(0), 10, rnd))
}

func TestChunkSelect(t *testing.T) {
	rnd := rand.New(rand.NewPCG(1, 2))
	e := elements(10)

	chunk := ChunkSelect(e, 4, rnd)

	require.Len(t, chunk, 4)
	for i := 1; i < len(chunk); i++ {
		assert.Equal(t, chunk[i-1]+1, chunk[i])
	}
	assert.Equal(t, e, ChunkSelect(e, 20, rnd))
}

func TestRandomSelect(t *testing.T) {
	rnd := rand.New(rand.NewPCG(1, 2))
	e := elements(10)

	picks := RandomSelect(e, 5, rnd)

	require.Len(t, picks, 5)
	seen := make(map[int]bool)
	for _, p := range picks {
		assert.False(t, seen[p])
		seen[p] = true
	}
	assert.ElementsMatch(t, e, RandomSelect(e, 20, rnd))
	assert.Equal(t, elements(10), e, "input is not modified")
}

func TestSelect(t *testing.T) {
	records := testRecords("a.", "b.", "c.", "d.")

	for _, mode := range SelectModes {
		t.Run(mode, func(t *testing.T) {
			got, err := Select(mode, records, 2, nil)
			require.NoError(t, err)
			assert.Len(t, got, 2)
		})
	}

	_, err := Select("bogus", records, 2, nil)
	assert.Error(t, err)
}

func TestSelect_nonPositiveCount(t *testing.T) {
	records := testRecords("a.", "b.", "c.", "d.")

	for _, mode := range SelectModes {
		for _, count := range []int{0, -1} {
			t.Run(mode, func(t *testing.T) {
				assert.NotPanics(t, func() {
					got, err := Select(mode, records, count, nil)
					require.NoError(t, err)
					assert.Empty(t, got)
				})
			})
		}
	}
}
