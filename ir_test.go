package yoloprep

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makePairs(n int) []Pair {
	pairs := make([]Pair, n)
	for i := range pairs {
		pairs[i] = Pair{Image: fmt.Sprintf("img%03d.jpg", i), Label: fmt.Sprintf("img%03d.txt", i)}
	}
	return pairs
}

func TestSplitPairsCounts(t *testing.T) {
	for _, n := range []int{0, 1, 2, 7, 10, 100, 333} {
		for _, ratio := range []float64{0.1, 0.5, 0.85, 0.9, 0.99} {
			pairs := makePairs(n)
			train, val := SplitPairs(pairs, ratio, rand.New(rand.NewSource(1)))

			wantTrain := int(float64(n) * ratio)
			assert.Len(t, train, wantTrain, "n=%d ratio=%v", n, ratio)
			assert.Len(t, val, n-wantTrain, "n=%d ratio=%v", n, ratio)

			// Every pair lands in exactly one subset.
			seen := make(map[Pair]int, n)
			for _, p := range append(append([]Pair{}, train...), val...) {
				seen[p]++
			}
			require.Len(t, seen, n)
			for p, count := range seen {
				assert.Equal(t, 1, count, "pair %v", p)
			}
		}
	}
}

func TestSplitPairsDeterministicWithSeed(t *testing.T) {
	pairs := makePairs(50)

	train1, val1 := SplitPairs(pairs, 0.8, rand.New(rand.NewSource(42)))
	train2, val2 := SplitPairs(pairs, 0.8, rand.New(rand.NewSource(42)))
	assert.Equal(t, train1, train2)
	assert.Equal(t, val1, val2)

	// The input is left untouched.
	assert.Equal(t, makePairs(50), pairs)
}

func TestSplitPairsMatchesShuffle(t *testing.T) {
	pairs := makePairs(20)

	expected := makePairs(20)
	rng := rand.New(rand.NewSource(7))
	rng.Shuffle(len(expected), func(i, j int) { expected[i], expected[j] = expected[j], expected[i] })

	train, val := SplitPairs(pairs, 0.75, rand.New(rand.NewSource(7)))
	assert.Equal(t, expected[:15], train)
	assert.Equal(t, expected[15:], val)
}

func TestNewRand(t *testing.T) {
	a := NewRand(3).Int63()
	b := NewRand(3).Int63()
	assert.Equal(t, a, b)
	assert.NotNil(t, NewRand(0))
}

func TestLabelIndex(t *testing.T) {
	names := []string{"POTHOLE", " manhole "}
	assert.Equal(t, 0, labelIndex("pothole", names))
	assert.Equal(t, 0, labelIndex("Pothole", names))
	assert.Equal(t, 1, labelIndex("manhole", names))
	assert.Equal(t, -1, labelIndex("crack", names))
	assert.Equal(t, -1, labelIndex("pothole", nil))
}

func TestAnnotationSize(t *testing.T) {
	a := Annotation{Coords: [4]float64{10, 20, 50, 80}}
	assert.Equal(t, 40.0, a.Width())
	assert.Equal(t, 60.0, a.Height())
}
