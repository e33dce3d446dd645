package yoloprep

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVOC(t *testing.T) {
	doc := vocXML("road.jpg", 640, 480,
		vocObject{"Pothole", [4]float64{10, 20, 110, 220}},
		vocObject{"CRACK", [4]float64{0.5, 1.5, 2.5, 3.5}},
	)

	f, err := ParseVOC(strings.NewReader(doc), "images/road.jpg", nil)
	require.NoError(t, err)

	assert.Equal(t, "images/road.jpg", f.FilePath)
	assert.Equal(t, 640, f.Width)
	assert.Equal(t, 480, f.Height)
	require.Len(t, f.Annotations, 2)
	assert.Equal(t, Annotation{Coords: [4]float64{10, 20, 110, 220}, Label: "pothole"}, f.Annotations[0])
	assert.Equal(t, Annotation{Coords: [4]float64{0.5, 1.5, 2.5, 3.5}, Label: "crack"}, f.Annotations[1])
}

func TestParseVOCIgnoresPartBoxes(t *testing.T) {
	doc := `<annotation><size><width>10</width><height>10</height></size>
<object><name>person</name><bndbox><xmin>1</xmin><ymin>1</ymin><xmax>9</xmax><ymax>9</ymax></bndbox>
<part><name>head</name><bndbox><xmin>2</xmin><ymin>2</ymin><xmax>3</xmax><ymax>3</ymax></bndbox></part>
</object></annotation>`

	f, err := ParseVOC(strings.NewReader(doc), "a.jpg", nil)
	require.NoError(t, err)
	require.Len(t, f.Annotations, 1)
	assert.Equal(t, "person", f.Annotations[0].Label)
	assert.Equal(t, [4]float64{1, 1, 9, 9}, f.Annotations[0].Coords)
}

func TestParseVOCSkipsUnlistedObjects(t *testing.T) {
	// Unlisted objects are dropped before their box is read, so broken boxes do not matter.
	doc := `<annotation><size><width>100</width><height>50</height></size>
<object><name>Pothole</name><bndbox><xmin>10</xmin><ymin>5</ymin><xmax>30</xmax><ymax>25</ymax></bndbox></object>
<object><name>crack</name></object>
<object><name>CRACK</name><bndbox><xmin>wide</xmin></bndbox></object>
<object><name>pothole</name><bndbox><xmin>0</xmin><ymin>0</ymin><xmax>1</xmax><ymax>1</ymax></bndbox></object>
</annotation>`

	f, err := ParseVOC(strings.NewReader(doc), "a.jpg", []string{"POTHOLE"})
	require.NoError(t, err)
	require.Len(t, f.Annotations, 2)
	assert.Equal(t, Annotation{Coords: [4]float64{10, 5, 30, 25}, Label: "pothole"}, f.Annotations[0])
	assert.Equal(t, Annotation{Coords: [4]float64{0, 0, 1, 1}, Label: "pothole"}, f.Annotations[1])

	// Without an allow-list the broken boxes are errors.
	_, err = ParseVOC(strings.NewReader(doc), "a.jpg", nil)
	assert.Error(t, err)
}

func TestParseVOCZeroSizeWithoutObjects(t *testing.T) {
	f, err := ParseVOC(strings.NewReader(vocXML("a.jpg", 0, 0)), "a.jpg", nil)
	require.NoError(t, err)
	assert.Empty(t, f.Annotations)

	// All objects filtered out: nothing is divided by the size.
	doc := vocXML("a.jpg", 0, 0, vocObject{"crack", [4]float64{1, 1, 2, 2}})
	f, err = ParseVOC(strings.NewReader(doc), "a.jpg", []string{"pothole"})
	require.NoError(t, err)
	assert.Empty(t, f.Annotations)

	_, err = ParseVOC(strings.NewReader(doc), "a.jpg", nil)
	assert.Error(t, err)
}

func TestParseVOCNoObjects(t *testing.T) {
	f, err := ParseVOC(strings.NewReader(vocXML("a.jpg", 10, 20)), "a.jpg", nil)
	require.NoError(t, err)
	assert.Empty(t, f.Annotations)
}

func TestParseVOCErrors(t *testing.T) {
	cases := map[string]string{
		"malformed":     "<annotation><size>",
		"missing width": `<annotation><size><height>10</height></size></annotation>`,
		"missing size":  `<annotation></annotation>`,
		"float width":   `<annotation><size><width>10.5</width><height>10</height></size></annotation>`,
		"zero height": `<annotation><size><width>10</width><height>0</height></size>
<object><name>a</name><bndbox><xmin>1</xmin><ymin>1</ymin><xmax>2</xmax><ymax>2</ymax></bndbox></object></annotation>`,
		"missing name": `<annotation><size><width>10</width><height>10</height></size>
<object><bndbox><xmin>1</xmin><ymin>1</ymin><xmax>2</xmax><ymax>2</ymax></bndbox></object></annotation>`,
		"missing bndbox": `<annotation><size><width>10</width><height>10</height></size>
<object><name>a</name></object></annotation>`,
		"missing ymax": `<annotation><size><width>10</width><height>10</height></size>
<object><name>a</name><bndbox><xmin>1</xmin><ymin>1</ymin><xmax>2</xmax></bndbox></object></annotation>`,
		"bad xmin": `<annotation><size><width>10</width><height>10</height></size>
<object><name>a</name><bndbox><xmin>one</xmin><ymin>1</ymin><xmax>2</xmax><ymax>2</ymax></bndbox></object></annotation>`,
	}

	for name, doc := range cases {
		_, err := ParseVOC(strings.NewReader(doc), "a.jpg", nil)
		assert.Error(t, err, name)
	}
}

func TestReadVOC(t *testing.T) {
	dir := t.TempDir()
	xmlPath := filepath.Join(dir, "a.xml")
	writeFile(t, xmlPath, vocXML("a.jpg", 10, 10, vocObject{"a", [4]float64{1, 2, 3, 4}}))

	f, err := ReadVOC(xmlPath, "a.jpg", nil)
	require.NoError(t, err)
	assert.Len(t, f.Annotations, 1)

	_, err = ReadVOC(filepath.Join(dir, "missing.xml"), "a.jpg", nil)
	assert.Error(t, err)
}
