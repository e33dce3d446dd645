package yoloprep

// YOLO specific functionality.

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// YOLOBox is a single annotation line within a YOLO label file. The center and size are
// fractions of the image width and height.
type YOLOBox struct {
	ClassID int
	CX      float64
	CY      float64
	W       float64
	H       float64
}

// YOLOAnnotatedFile defines the YOLO annotation structure for a single image.
type YOLOAnnotatedFile struct {
	Boxes    []YOLOBox
	FilePath string
}

// ClassIDFn assigns the numeric class id for a label.
type ClassIDFn func(label string) int

// SingleClass maps every label to class 0.
func SingleClass(string) int { return 0 }

// AllowListClasses returns a ClassIDFn that maps a label to its index in labelNames, ignoring
// case. Labels that are not listed map to 0.
func AllowListClasses(labelNames []string) ClassIDFn {
	return func(label string) int {
		if i := labelIndex(label, labelNames); i >= 0 {
			return i
		}
		return 0
	}
}

// VOCToYOLO converts the absolute corner coordinates of a on an image of the given size to a
// normalised center-size box with class id 0.
func VOCToYOLO(a Annotation, width, height int) YOLOBox {
	w := float64(width)
	h := float64(height)
	bw := a.Width()
	bh := a.Height()

	return YOLOBox{
		CX: (a.Coords[0] + bw/2) / w,
		CY: (a.Coords[1] + bh/2) / h,
		W:  bw / w,
		H:  bh / h,
	}
}

// ToVOC converts b back to absolute corner coordinates on an image of the given size.
func (b YOLOBox) ToVOC(width, height int) [4]float64 {
	w := float64(width)
	h := float64(height)
	bw := b.W * w
	bh := b.H * h
	x1 := b.CX*w - bw/2
	y1 := b.CY*h - bh/2

	return [4]float64{x1, y1, x1 + bw, y1 + bh}
}

// String formats b as a label line: the class id followed by four values with 6 decimals.
func (b YOLOBox) String() string {
	return fmt.Sprintf("%d %.6f %.6f %.6f %.6f", b.ClassID, b.CX, b.CY, b.W, b.H)
}

// ParseYOLOLine parses a single "class cx cy w h" label line.
func ParseYOLOLine(line string) (YOLOBox, error) {
	var b YOLOBox

	tokens := strings.Fields(line)
	if len(tokens) != 5 {
		return b, errors.Errorf("expected 5 tokens in %q", line)
	}

	var err error
	if b.ClassID, err = strconv.Atoi(tokens[0]); err != nil || b.ClassID < 0 {
		return b, errors.Errorf("unexpected class id in %q", line)
	}
	values := []*float64{&b.CX, &b.CY, &b.W, &b.H}
	for i, v := range values {
		if *v, err = strconv.ParseFloat(tokens[i+1], 64); err != nil {
			return b, errors.Wrapf(err, "unexpected values in %q", line)
		}
	}

	return b, nil
}

// ToYOLO converts the intermediate representation of one image to YOLO format, assigning class
// ids with classID.
func ToYOLO(fileData AnnotatedFile, classID ClassIDFn) YOLOAnnotatedFile {
	if classID == nil {
		classID = SingleClass
	}

	yoloFileData := YOLOAnnotatedFile{
		Boxes:    make([]YOLOBox, len(fileData.Annotations)),
		FilePath: fileData.FilePath,
	}
	for i, a := range fileData.Annotations {
		b := VOCToYOLO(a, fileData.Width, fileData.Height)
		b.ClassID = classID(a.Label)
		yoloFileData.Boxes[i] = b
	}

	return yoloFileData
}

// WriteYOLO writes one line per box to path. Lines are separated by newlines without a trailing
// newline.
func WriteYOLO(path string, data YOLOAnnotatedFile) error {
	lines := make([]string, len(data.Boxes))
	for i, b := range data.Boxes {
		lines[i] = b.String()
	}

	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0644); err != nil {
		return errors.Wrapf(err, "cannot write file %q", path)
	}
	return nil
}
