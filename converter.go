package yoloprep

import (
	"log"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// ErrNoAnnotations is returned by ConvertVOCToYOLO when the annotation directory does not exist
// or holds no XML files.
var ErrNoAnnotations = errors.New("no XML files found")

// ConvertOptions configures ConvertVOCToYOLO.
type ConvertOptions struct {
	ImageDir      string   // The input directory with the images.
	AnnotationDir string   // The input directory with the VOC XML files.
	OutDir        string   // The dataset root to create the YOLO layout in.
	Split         float64  // The fraction of samples assigned to the training set.
	Only          []string // Class names to keep, ignoring case (empty keeps all).
	Copy          bool     // Copy images instead of linking them.

	ClassIDs     bool   // Number classes by their position in Only instead of using 0 for all.
	ResizeLonger     int    // Resize images so that their longer side has this length (0 disables).
	DownsampleFilter string // The resampling filter when shrinking ("box" if empty).
	UpsampleFilter   string // The resampling filter when enlarging ("linear" if empty).
	JPEGQuality      int    // The JPEG quality when re-encoding resized images.
	TFRecordDir      string // Also export each subset as a TFRecord file to this directory.

	Rand *rand.Rand // The random source for the split; seeded from the clock if nil.
}

// ConvertResult summarises a conversion.
type ConvertResult struct {
	Train   int    // Samples written to the training set.
	Val     int    // Samples written to the validation set.
	Skipped int    // Pairs without any (selected) objects.
	OutDir  string // The absolute dataset root.
}

// progressInterval is the number of pairs between progress log lines.
const progressInterval = 100

// ConvertVOCToYOLO matches the images in opts.ImageDir to the VOC annotations in
// opts.AnnotationDir by stem, splits the pairs into train and val and writes a YOLO dataset to
// opts.OutDir.
//
// Images without any (selected) objects get neither a label file nor an image in the output.
// Processing stops at the first annotation that cannot be parsed.
func ConvertVOCToYOLO(opts ConvertOptions) (ConvertResult, error) {
	xmls, err := filesByExtInDir(opts.AnnotationDir, ".xml")
	if (err == nil && len(xmls) == 0) || os.IsNotExist(errors.Cause(err)) {
		return ConvertResult{}, errors.Wrapf(ErrNoAnnotations, "under %q", opts.AnnotationDir)
	} else if err != nil {
		return ConvertResult{}, err
	}
	images, err := filesByExtInDir(opts.ImageDir, "")
	if err != nil {
		return ConvertResult{}, err
	}

	var resizer *imageResizer
	if opts.ResizeLonger > 0 {
		resizer, err = newImageResizer(opts.ResizeLonger, opts.DownsampleFilter, opts.UpsampleFilter,
			opts.JPEGQuality)
		if err != nil {
			return ConvertResult{}, err
		}
	}

	layout := Layout{Root: opts.OutDir}
	if err := layout.MakeDirs(); err != nil {
		return ConvertResult{}, err
	}

	// Match XML to image by stem.
	xmlByStem := indexByStem(xmls)
	pairs := make([]Pair, 0, len(images))
	for _, img := range images {
		if xml, ok := xmlByStem[stem(img)]; ok {
			pairs = append(pairs, Pair{Image: img, Label: xml})
		}
	}
	log.Printf("Matched %d of %d images to %d annotations", len(pairs), len(images), len(xmls))

	rng := opts.Rand
	if rng == nil {
		rng = NewRand(0)
	}
	train, val := SplitPairs(pairs, opts.Split, rng)

	c := converter{opts: opts, layout: layout, classID: SingleClass, resizer: resizer}
	if opts.ClassIDs && len(opts.Only) > 0 {
		c.classID = AllowListClasses(opts.Only)
	}
	if opts.TFRecordDir != "" {
		if err := os.MkdirAll(opts.TFRecordDir, 0755); err != nil {
			return ConvertResult{}, errors.Wrapf(err, "cannot create directory %q", opts.TFRecordDir)
		}
		c.exporter = NewTFRecordExporter(c.classID)
	}

	result := ConvertResult{}
	for _, subset := range []struct {
		name  Subset
		pairs []Pair
		count *int
	}{{Train, train, &result.Train}, {Val, val, &result.Val}} {
		n, err := c.convertSubset(subset.name, subset.pairs)
		if err != nil {
			return ConvertResult{}, err
		}
		*subset.count = n
		result.Skipped += len(subset.pairs) - n
	}

	if c.exporter != nil {
		labelMapPath := filepath.Join(opts.TFRecordDir, "label_map.pbtxt")
		if err := c.exporter.WriteLabelMap(labelMapPath); err != nil {
			return ConvertResult{}, err
		}
	}

	if result.OutDir, err = filepath.Abs(opts.OutDir); err != nil {
		result.OutDir = opts.OutDir
	}
	return result, nil
}

// converter holds the per-run state of ConvertVOCToYOLO.
type converter struct {
	opts     ConvertOptions
	layout   Layout
	classID  ClassIDFn
	resizer  *imageResizer
	exporter *TFRecordExporter
}

// convertSubset converts all pairs of subset s and returns the number of samples written.
func (c *converter) convertSubset(s Subset, pairs []Pair) (int, error) {
	log.Printf("Converting %d %s pairs", len(pairs), s)

	var converted []AnnotatedFile
	for i, p := range pairs {
		fileData, ok, err := c.convertPair(s, p)
		if err != nil {
			return 0, err
		}
		if ok {
			converted = append(converted, fileData)
		}
		if (i+1)%progressInterval == 0 {
			log.Printf("%s: %d/%d pairs", s, i+1, len(pairs))
		}
	}

	if c.exporter != nil {
		recordPath := filepath.Join(c.opts.TFRecordDir, string(s)+".record")
		if err := c.exporter.WriteTFRecord(recordPath, converted); err != nil {
			return 0, err
		}
		log.Printf("Wrote %d examples to %s", len(converted), recordPath)
	}

	return len(converted), nil
}

// convertPair writes the label file and the image for p into subset s. It reports false if the
// annotation has no selected objects, in which case nothing is written.
//
// The returned AnnotatedFile refers to the image in the output layout.
func (c *converter) convertPair(s Subset, p Pair) (AnnotatedFile, bool, error) {
	fileData, err := ReadVOC(p.Label, p.Image, c.opts.Only)
	if err != nil {
		return AnnotatedFile{}, false, err
	}
	if len(fileData.Annotations) == 0 {
		return AnnotatedFile{}, false, nil
	}

	if err := WriteYOLO(c.layout.LabelPath(s, p.Image), ToYOLO(fileData, c.classID)); err != nil {
		return AnnotatedFile{}, false, err
	}

	outImage := c.layout.ImagePath(s, p.Image)
	if err := c.materializeImage(p.Image, outImage); err != nil {
		return AnnotatedFile{}, false, err
	}

	fileData.FilePath = outImage
	return fileData, true, nil
}

// materializeImage places the image at src at dst by resizing, copying or linking it.
func (c *converter) materializeImage(src, dst string) error {
	switch {
	case c.resizer != nil:
		return c.resizer.resizeFile(src, dst)
	case c.opts.Copy:
		return copyFile(src, dst)
	default:
		return linkOrCopy(src, dst)
	}
}
