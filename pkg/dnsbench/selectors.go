package dnsbench

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// Test record selection algorithms.
const (
	SelectAutomatic = "automatic"
	SelectWeighted  = "weighted"
	SelectRandom    = "random"
	SelectChunk     = "chunk"
)

// SelectModes lists the supported selection algorithms.
var SelectModes = []string{SelectAutomatic, SelectWeighted, SelectRandom, SelectChunk}

// Select picks count records using the given selection algorithm. Automatic selection uses the weighted
// distribution.
func Select(mode string, records []TestRecord, count int, rnd *rand.Rand) ([]TestRecord, error) {
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	switch mode {
	case SelectAutomatic, SelectWeighted, "":
		return WeightedDistribution(records, count, rnd), nil
	case SelectRandom:
		return RandomSelect(records, count, rnd), nil
	case SelectChunk:
		return ChunkSelect(records, count, rnd), nil
	default:
		return nil, fmt.Errorf("unknown select mode %q", mode)
	}
}

// weightedExponent mimics the observed popularity of real-world DNS requests.
const weightedExponent = -0.408506

// WeightedDistribution returns maximum elements picked with a bias towards the beginning of elements,
// never picking a single element more than MaxWeightedRepeat times.
func WeightedDistribution[T any](elements []T, maximum int, rnd *rand.Rand) []T {
	total := len(elements)
	if total == 0 || maximum <= 0 {
		return nil
	}
	maximum = min(maximum, total*MaxWeightedRepeat)

	findY := func(x float64) float64 {
		return float64(total) * math.Pow(x, weightedExponent)
	}
	offset := findY(float64(total))

	picks := make([]T, 0, maximum)
	picked := make(map[int]int)
	for attempts := 0; len(picks) < maximum && attempts < maximum*1000; attempts++ {
		x := rnd.Float64() * float64(total)
		if x == 0 {
			continue
		}
		index := int(math.Abs(findY(x) - offset))
		if index < total && picked[index] < MaxWeightedRepeat {
			picks = append(picks, elements[index])
			picked[index]++
		}
	}
	// the tail of long lists is rarely hit, fill the rest in order
	for i := 0; len(picks) < maximum; i = (i + 1) % total {
		if picked[i] < MaxWeightedRepeat {
			picks = append(picks, elements[i])
			picked[i]++
		}
	}
	return picks
}

// ChunkSelect returns a random contiguous chunk of count elements.
func ChunkSelect[T any](elements []T, count int, rnd *rand.Rand) []T {
	if count <= 0 {
		return nil
	}
	if len(elements) <= count {
		return elements
	}
	start := rnd.IntN(len(elements) - count + 1)
	return elements[start : start+count]
}

// RandomSelect returns count distinct elements in random order.
func RandomSelect[T any](elements []T, count int, rnd *rand.Rand) []T {
	if count <= 0 {
		return nil
	}
	shuffled := make([]T, len(elements))
	copy(shuffled, elements)
	rnd.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	if count < len(shuffled) {
		shuffled = shuffled[:count]
	}
	return shuffled
}
