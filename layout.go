package yoloprep

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Subset is the partition a sample is assigned to.
type Subset string

// The dataset subsets.
const (
	Train Subset = "train"
	Val   Subset = "val"
)

// Subsets lists all subsets in output order.
var Subsets = []Subset{Train, Val}

// Layout is the YOLO dataset directory structure under Root:
//
//	<root>/images/{train,val}/
//	<root>/labels/{train,val}/
type Layout struct {
	Root string
}

// ImageDir is the directory holding the images of subset s.
func (l Layout) ImageDir(s Subset) string {
	return filepath.Join(l.Root, "images", string(s))
}

// LabelDir is the directory holding the label files of subset s.
func (l Layout) LabelDir(s Subset) string {
	return filepath.Join(l.Root, "labels", string(s))
}

// LabelPath is the label file for the image at imagePath in subset s.
func (l Layout) LabelPath(s Subset, imagePath string) string {
	return filepath.Join(l.LabelDir(s), stem(imagePath)+".txt")
}

// ImagePath is the destination of the image at imagePath in subset s.
func (l Layout) ImagePath(s Subset, imagePath string) string {
	return filepath.Join(l.ImageDir(s), filepath.Base(imagePath))
}

// MakeDirs creates the image and label directories of all subsets.
func (l Layout) MakeDirs() error {
	for _, s := range Subsets {
		for _, dir := range []string{l.ImageDir(s), l.LabelDir(s)} {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return errors.Wrapf(err, "cannot create directory %q", dir)
			}
		}
	}
	return nil
}
