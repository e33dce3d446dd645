package yoloprep

// Pascal VOC specific functionality.

import (
	"encoding/xml"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// VOCBndBox is the corner-coordinate bounding box of a VOC object. Values are kept as text until
// converted so that missing elements can be told apart from zeros.
type VOCBndBox struct {
	XMin *string `xml:"xmin"`
	YMin *string `xml:"ymin"`
	XMax *string `xml:"xmax"`
	YMax *string `xml:"ymax"`
}

// VOCObject is a single object element within a VOC file.
type VOCObject struct {
	Name   *string    `xml:"name"`
	BndBox *VOCBndBox `xml:"bndbox"`
}

// VOCAnnotatedFile defines the VOC annotation structure for a single image.
type VOCAnnotatedFile struct {
	Size struct {
		Width  *string `xml:"width"`
		Height *string `xml:"height"`
	} `xml:"size"`
	Objects []VOCObject `xml:"object"`
}

// ReadVOC reads and parses the VOC annotation at xmlPath for the image at imagePath, keeping only
// objects named in labelNames (all objects if it is empty).
func ReadVOC(xmlPath, imagePath string, labelNames []string) (fileData AnnotatedFile, err error) {
	f, err := os.Open(xmlPath)
	if err != nil {
		return AnnotatedFile{}, errors.Wrapf(err, "cannot read file %q", xmlPath)
	}
	defer closeWithErrCheck(f, &err)

	fileData, err = ParseVOC(f, imagePath, labelNames)
	if err != nil {
		return AnnotatedFile{}, errors.Wrapf(err, "failed to parse VOC input from %q", xmlPath)
	}
	return fileData, nil
}

// ParseVOC decodes a VOC XML document from r into the intermediate representation. Object names
// are trimmed and lowercased. Objects whose name is not in labelNames (ignoring case) are skipped
// before their bounding box is read; an empty labelNames keeps every object.
//
// The image size is only validated when at least one object is kept.
func ParseVOC(r io.Reader, imagePath string, labelNames []string) (AnnotatedFile, error) {
	var vocData VOCAnnotatedFile
	if err := xml.NewDecoder(r).Decode(&vocData); err != nil {
		return AnnotatedFile{}, errors.Wrap(err, "malformed XML")
	}

	width, err := parseVOCInt(vocData.Size.Width, "size/width")
	if err != nil {
		return AnnotatedFile{}, err
	}
	height, err := parseVOCInt(vocData.Size.Height, "size/height")
	if err != nil {
		return AnnotatedFile{}, err
	}

	fileData := AnnotatedFile{
		Annotations: make([]Annotation, 0, len(vocData.Objects)),
		FilePath:    imagePath,
		Width:       width,
		Height:      height,
	}
	for i, obj := range vocData.Objects {
		if obj.Name == nil {
			return AnnotatedFile{}, errors.Errorf("object %d: missing name", i)
		}

		a := Annotation{Label: strings.ToLower(strings.TrimSpace(*obj.Name))}
		if len(labelNames) > 0 && labelIndex(a.Label, labelNames) < 0 {
			continue
		}
		if obj.BndBox == nil {
			return AnnotatedFile{}, errors.Errorf("object %d: missing bndbox", i)
		}

		fields := []struct {
			value *string
			name  string
		}{
			{obj.BndBox.XMin, "xmin"},
			{obj.BndBox.YMin, "ymin"},
			{obj.BndBox.XMax, "xmax"},
			{obj.BndBox.YMax, "ymax"},
		}
		for j, field := range fields {
			if a.Coords[j], err = parseVOCFloat(field.value, "bndbox/"+field.name); err != nil {
				return AnnotatedFile{}, errors.Wrapf(err, "object %d", i)
			}
		}

		fileData.Annotations = append(fileData.Annotations, a)
	}

	if len(fileData.Annotations) > 0 && (width <= 0 || height <= 0) {
		return AnnotatedFile{}, errors.Errorf("invalid image size %dx%d", width, height)
	}

	return fileData, nil
}

func parseVOCInt(text *string, path string) (int, error) {
	if text == nil {
		return 0, errors.Errorf("missing %s", path)
	}
	v, err := strconv.Atoi(strings.TrimSpace(*text))
	if err != nil {
		return 0, errors.Wrapf(err, "unexpected value in %s", path)
	}
	return v, nil
}

func parseVOCFloat(text *string, path string) (float64, error) {
	if text == nil {
		return 0, errors.Errorf("missing %s", path)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(*text), 64)
	if err != nil {
		return 0, errors.Wrapf(err, "unexpected value in %s", path)
	}
	return v, nil
}
