package yoloprep

// TFRecord object detection specific functionality.

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/golang/protobuf/proto"
	"github.com/pkg/errors"
	"github.com/ryszard/tfutils/go/example"
	"github.com/ryszard/tfutils/go/tfrecord"
	"github.com/ryszard/tfutils/proto/tensorflow/core/example" // package tensorflow
)

// TFFeatureMap maps feature names to their values. Values must be convertible to
// tensorflow.Feature.
type TFFeatureMap map[string]interface{}

// TFRecordExporter writes converted samples as TensorFlow object detection Examples.
//
// TFRecord class ids start at 1, so YOLO class id n is exported as n+1. The names recorded for
// each id are collected while writing and saved with WriteLabelMap.
type TFRecordExporter struct {
	classID ClassIDFn
	names   map[int32]string
}

// NewTFRecordExporter returns an exporter assigning class ids with classID.
func NewTFRecordExporter(classID ClassIDFn) *TFRecordExporter {
	if classID == nil {
		classID = SingleClass
	}
	return &TFRecordExporter{classID: classID, names: make(map[int32]string)}
}

// toTFRecord converts the intermediate representation for a single file to the TFRecord feature
// map. fileData.FilePath must point to the encoded image to embed; the box coordinates are
// normalised by fileData.Width and fileData.Height.
func (e *TFRecordExporter) toTFRecord(fileData AnnotatedFile) (TFFeatureMap, error) {
	// Get the encoded image size, which differs from the annotated size after resizing.
	img, format, err := decodeImageConfig(fileData.FilePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode the image metadata")
	}

	imgData, err := os.ReadFile(fileData.FilePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read the image")
	}

	f := make(TFFeatureMap, 16)
	f["image/height"] = img.Height
	f["image/width"] = img.Width
	f["image/filename"] = fileData.FilePath
	f["image/source_id"] = stem(fileData.FilePath)
	f["image/encoded"] = imgData
	f["image/format"] = format

	numLabels := len(fileData.Annotations)
	xmins := make([]float32, numLabels)
	ymins := make([]float32, numLabels)
	xmaxs := make([]float32, numLabels)
	ymaxs := make([]float32, numLabels)
	classes := make([]string, numLabels)
	classIDs := make([]int64, numLabels)
	w := float64(fileData.Width)
	h := float64(fileData.Height)
	for i, a := range fileData.Annotations {
		xmins[i] = float32(a.Coords[0] / w)
		ymins[i] = float32(a.Coords[1] / h)
		xmaxs[i] = float32(a.Coords[2] / w)
		ymaxs[i] = float32(a.Coords[3] / h)
		classes[i] = a.Label

		id := int32(e.classID(a.Label)) + 1
		if _, ok := e.names[id]; !ok {
			e.names[id] = a.Label
		}
		classIDs[i] = int64(id)
	}
	f["image/object/bbox/xmin"] = xmins
	f["image/object/bbox/ymin"] = ymins
	f["image/object/bbox/xmax"] = xmaxs
	f["image/object/bbox/ymax"] = ymaxs
	f["image/object/class/text"] = classes
	f["image/object/class/label"] = classIDs

	return f, nil
}

// WriteTFRecord converts data and writes it as one TFRecord file to recordFilePath.
func (e *TFRecordExporter) WriteTFRecord(recordFilePath string, data []AnnotatedFile) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("conversion to TensorFlow Example failed: %v", r)
		}
	}()

	file, err := os.Create(recordFilePath)
	if err != nil {
		return errors.Wrapf(err, "failed to create %q", recordFilePath)
	}
	defer closeWithErrCheck(file, &err)

	for _, fileData := range data {
		features, err := e.toTFRecord(fileData)
		if err != nil {
			return errors.Wrapf(err, "failed to convert %q", fileData.FilePath)
		}
		if err := writeTFRecordExample(file, example.New(features)); err != nil {
			return errors.Wrapf(err, "failed to write example for %q", fileData.FilePath)
		}
	}

	return nil
}

// writeTFRecordExample serialises the example and writes it as a TFRecord to w.
func writeTFRecordExample(w io.Writer, e *tensorflow.Example) error {
	enc, err := proto.Marshal(e)
	if err != nil {
		return err
	}

	return tfrecord.Write(w, enc)
}

// WriteLabelMap writes the class names seen so far to path in the prototxt StringIntLabelMap
// format, ordered by id.
func (e *TFRecordExporter) WriteLabelMap(path string) (err error) {
	ids := make([]int, 0, len(e.names))
	for id := range e.names {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)

	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create the label map file %q", path)
	}
	defer closeWithErrCheck(file, &err)

	for _, id := range ids {
		_, err := fmt.Fprintf(file, "item {\n  name: %q\n  id: %d\n}\n", e.names[int32(id)], id)
		if err != nil {
			return errors.Wrapf(err, "failed to write the label map %q", path)
		}
	}

	return nil
}
