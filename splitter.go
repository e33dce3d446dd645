package yoloprep

import (
	"log"
	"math/rand"
	"path/filepath"

	"github.com/pkg/errors"
)

// ErrAlreadySplit is returned by SplitDataset when the root already contains images/train.
var ErrAlreadySplit = errors.New("dataset looks already split")

// SplitResult holds the number of samples assigned to each subset.
type SplitResult struct {
	Train int
	Val   int
}

// SplitDataset splits a flat dataset at root, with images under root/images and same-stem .txt
// labels under root/labels, into the train/val layout below root. Files are copied, not moved.
//
// Images without a label are ignored. If root/images/train already exists nothing is touched and
// ErrAlreadySplit is returned.
func SplitDataset(root string, ratio float64, rng *rand.Rand) (SplitResult, error) {
	layout := Layout{Root: root}
	if dirExists(layout.ImageDir(Train)) {
		return SplitResult{}, ErrAlreadySplit
	}

	images, err := filesByExtInDir(filepath.Join(root, "images"), "")
	if err != nil {
		return SplitResult{}, err
	}

	pairs := make([]Pair, 0, len(images))
	for _, img := range images {
		label := filepath.Join(root, "labels", stem(img)+".txt")
		if fileExists(label) {
			pairs = append(pairs, Pair{Image: img, Label: label})
		}
	}
	log.Printf("Found %d labelled images out of %d", len(pairs), len(images))

	if err := layout.MakeDirs(); err != nil {
		return SplitResult{}, err
	}

	train, val := SplitPairs(pairs, ratio, rng)
	for _, subset := range []struct {
		name  Subset
		pairs []Pair
	}{{Train, train}, {Val, val}} {
		for _, p := range subset.pairs {
			if err := copyPair(layout, subset.name, p); err != nil {
				return SplitResult{}, err
			}
		}
	}

	return SplitResult{Train: len(train), Val: len(val)}, nil
}

// copyPair copies the image and label of p into subset s of layout.
func copyPair(layout Layout, s Subset, p Pair) error {
	if err := copyFile(p.Image, layout.ImagePath(s, p.Image)); err != nil {
		return err
	}
	return copyFile(p.Label, filepath.Join(layout.LabelDir(s), filepath.Base(p.Label)))
}
