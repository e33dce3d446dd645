// Splits a labelled dataset with images/ and labels/ folders into train and val subsets.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sensorable/yoloprep"
)

var (
	rootDirPath string  // The dataset root containing images/ and labels/.
	ratio       float64 // The fraction of samples for the training set.
	seed        int64   // The random seed for the split (0 seeds from the clock).
)

func init() {
	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Usage of %s:\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}

	flag.StringVar(&rootDirPath, "root", "data", "The root `path` containing images/ and labels/")
	flag.Float64Var(&ratio, "ratio", 0.85, "The train split `ratio`")
	flag.Int64Var(&seed, "seed", 0, "The random seed for the split (0 picks a new one each run)")

	flag.Parse()

	if ratio <= 0 || ratio >= 1 {
		log.Print("Invalid -ratio, must be in (0.0, 1.0): ", ratio)
		flag.Usage()
		os.Exit(1)
	}
	rootDirPath = filepath.Clean(rootDirPath)
}

func main() {
	result, err := yoloprep.SplitDataset(rootDirPath, ratio, yoloprep.NewRand(seed))
	if errors.Cause(err) == yoloprep.ErrAlreadySplit {
		log.Print("Looks already split. Nothing to do.")
		return
	} else if err != nil {
		log.Fatal("Failed to split the dataset: ", err)
	}

	log.Printf("Split %d train and %d val samples.", result.Train, result.Val)
}
