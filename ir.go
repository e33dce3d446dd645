package yoloprep

// The intermediate annotation metadata representation.

import (
	"math/rand"
	"strings"
	"time"
)

// Annotation is the intermediate representation of an object label.
type Annotation struct {
	Coords [4]float64 // Absolute x1, y1, x2, y2 offsets from the top-left corner.
	Label  string
}

// Width is the object width from a.Coords.
func (a Annotation) Width() float64 {
	return a.Coords[2] - a.Coords[0]
}

// Height is the object height from a.Coords.
func (a Annotation) Height() float64 {
	return a.Coords[3] - a.Coords[1]
}

// AnnotatedFile is the intermediate representation of file metadata.
type AnnotatedFile struct {
	Annotations []Annotation // The annotations, in document order.
	FilePath    string       // The annotated file.
	Width       int          // The image width in pixels.
	Height      int          // The image height in pixels.
}

// labelIndex returns the index of label in labelNames, ignoring case and surrounding space, or
// -1 if it is not listed.
func labelIndex(label string, labelNames []string) int {
	label = strings.TrimSpace(label)
	for i, name := range labelNames {
		if strings.EqualFold(label, strings.TrimSpace(name)) {
			return i
		}
	}
	return -1
}

// Pair associates an image with its label or annotation file by a shared stem.
type Pair struct {
	Image string
	Label string
}

// NewRand returns a random source seeded with seed, or with the current time if seed is zero.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// SplitPairs shuffles a copy of pairs with rng and cuts it at int(len(pairs)*ratio). The first
// part is the training set, the rest the validation set. Every pair lands in exactly one of them.
func SplitPairs(pairs []Pair, ratio float64, rng *rand.Rand) (train, val []Pair) {
	shuffled := make([]Pair, len(pairs))
	copy(shuffled, pairs)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	cut := int(float64(len(shuffled)) * ratio)
	if cut < 0 {
		cut = 0
	} else if cut > len(shuffled) {
		cut = len(shuffled)
	}

	return shuffled[:cut], shuffled[cut:]
}
