// Converts Pascal VOC XML annotations to YOLO labels and splits the result into train and val
// subsets.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sensorable/yoloprep"
)

var (
	imageDirPath      string     // The input directory with the images.
	annotationDirPath string     // The input directory with the VOC XML files.
	outDirPath        string     // The output dataset root.
	splitRatio        float64    // The fraction of samples for the training set.
	onlyLabels        stringList // The class names to keep (empty keeps all).
	copyImages        bool       // Copy images instead of linking them.
	seed              int64      // The random seed for the split (0 seeds from the clock).

	classIDs                bool   // Number classes by their position in -only.
	imageResizeLonger       int    // The target length for the longer side of the images.
	imageDownsamplingFilter string // The algorithm to use when downsampling.
	imageUpsamplingFilter   string // The algorithm to use when upsampling.
	imageJPEGQuality        int    // The JPEG quality for resized images.
	tfRecordDirPath         string // The output directory for TFRecord files.
)

// stringList collects comma-separated values from one or more occurrences of a flag.
type stringList []string

func (l *stringList) String() string {
	return strings.Join(*l, ",")
}

func (l *stringList) Set(v string) error {
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			*l = append(*l, s)
		}
	}
	return nil
}

func init() {
	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Usage of %s:\n", filepath.Base(os.Args[0]))
		_, _ = fmt.Fprintln(os.Stderr, "  -images <dir> -ann <dir> [-out <dir>] [-split <ratio>]"+
			" [-only <name>[,...] [name ...]] [-copy]")
		_, _ = fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
	}

	flag.StringVar(&imageDirPath, "images", imageDirPath, "The `path` to the folder with images")
	flag.StringVar(&annotationDirPath, "ann", annotationDirPath,
		"The `path` to the folder with VOC XML annotations")
	flag.StringVar(&outDirPath, "out", "data",
		"The output root `path` (images/ and labels/ are created below it)")
	flag.Float64Var(&splitRatio, "split", 0.85, "The train split `ratio` (the rest goes to val)")
	flag.Var(&onlyLabels, "only",
		"Comma-separated class `names` to keep, ignoring case (e.g. -only pothole); names given as"+
			" trailing arguments are added too")
	flag.BoolVar(&copyImages, "copy", copyImages, "Copy images instead of symlinking them")
	flag.Int64Var(&seed, "seed", 0, "The random seed for the split (0 picks a new one each run)")

	flag.BoolVar(&classIDs, "class-ids", classIDs,
		"Number classes by their position in -only instead of mapping all objects to class 0")
	flag.IntVar(&imageResizeLonger, "resize-longer", imageResizeLonger,
		"Resize output images so that the longer side has this `length` (implies -copy)")
	flag.StringVar(&imageDownsamplingFilter, "downsample-filter", "box",
		"The filter to use when downsampling an image {nearest, box, linear, gaussian, lanczos}")
	flag.StringVar(&imageUpsamplingFilter, "upsample-filter", "linear",
		"The filter to use when upsampling an image {nearest, box, linear, gaussian, lanczos}")
	flag.IntVar(&imageJPEGQuality, "jpeg-quality", 90,
		"The quality to use when encoding resized JPEGs [1, 100]")
	flag.StringVar(&tfRecordDirPath, "tfrecord", tfRecordDirPath,
		"Also write train.record, val.record and label_map.pbtxt to this `path`")
}

// parseWithTrailingNames parses args with fs. Non-flag arguments are accepted after -only has
// been given and are added to only, so "-only pothole crack -copy" keeps both names and still
// sets -copy.
func parseWithTrailingNames(fs *flag.FlagSet, args []string, only *stringList) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	for fs.NArg() > 0 {
		rest := fs.Args()
		if len(*only) == 0 {
			return fmt.Errorf("unexpected arguments: %s", strings.Join(rest, " "))
		}

		i := 0
		for ; i < len(rest) && (!strings.HasPrefix(rest[i], "-") || rest[i] == "-"); i++ {
			_ = only.Set(rest[i])
		}
		if err := fs.Parse(rest[i:]); err != nil {
			return err
		}
	}
	return nil
}

// parseFlags parses and validates the command line, exiting on invalid input.
func parseFlags() {
	printUsageAndExit := func(msg ...interface{}) {
		log.Print(msg...)
		flag.Usage()
		os.Exit(1)
	}

	// flag.CommandLine exits on parse errors itself.
	if err := parseWithTrailingNames(flag.CommandLine, os.Args[1:], &onlyLabels); err != nil {
		printUsageAndExit(err)
	}

	if imageDirPath == "" || annotationDirPath == "" {
		printUsageAndExit("Missing -images or -ann argument")
	}
	if splitRatio <= 0 || splitRatio >= 1 {
		printUsageAndExit("Invalid -split, must be in (0.0, 1.0): ", splitRatio)
	}
	if imageResizeLonger < 0 {
		printUsageAndExit("Invalid value for -resize-longer")
	}
	if imageJPEGQuality < 1 || imageJPEGQuality > 100 {
		imageJPEGQuality = 92
		log.Print("Invalid JPEG quality, setting it to ", imageJPEGQuality)
	}
	if classIDs && len(onlyLabels) == 0 {
		log.Print("-class-ids has no effect without -only, all objects map to class 0")
	}

	imageDirPath = filepath.Clean(imageDirPath)
	annotationDirPath = filepath.Clean(annotationDirPath)
	outDirPath = filepath.Clean(outDirPath)
	if tfRecordDirPath != "" {
		tfRecordDirPath = filepath.Clean(tfRecordDirPath)
	}
}

func main() {
	parseFlags()

	result, err := yoloprep.ConvertVOCToYOLO(yoloprep.ConvertOptions{
		ImageDir:         imageDirPath,
		AnnotationDir:    annotationDirPath,
		OutDir:           outDirPath,
		Split:            splitRatio,
		Only:             onlyLabels,
		Copy:             copyImages,
		ClassIDs:         classIDs,
		ResizeLonger:     imageResizeLonger,
		DownsampleFilter: imageDownsamplingFilter,
		UpsampleFilter:   imageUpsamplingFilter,
		JPEGQuality:      imageJPEGQuality,
		TFRecordDir:      tfRecordDirPath,
		Rand:             yoloprep.NewRand(seed),
	})
	if errors.Cause(err) == yoloprep.ErrNoAnnotations {
		log.Fatalf("No XML files found under %s", annotationDirPath)
	} else if err != nil {
		log.Fatal("Conversion failed: ", err)
	}

	log.Printf("Wrote %d train and %d val samples, skipped %d without objects",
		result.Train, result.Val, result.Skipped)
	log.Print("Done. YOLO dataset at: ", result.OutDir)
}
