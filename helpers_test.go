package yoloprep

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// vocObject is a test fixture object: a class name and xmin, ymin, xmax, ymax.
type vocObject struct {
	name   string
	coords [4]float64
}

// vocXML renders a VOC annotation document for an image of the given size.
func vocXML(filename string, width, height int, objects ...vocObject) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<annotation>\n  <folder>images</folder>\n  <filename>%s</filename>\n", filename)
	fmt.Fprintf(&b, "  <size>\n    <width>%d</width>\n    <height>%d</height>\n    <depth>3</depth>\n  </size>\n",
		width, height)
	for _, o := range objects {
		fmt.Fprintf(&b, "  <object>\n    <name> %s </name>\n    <difficult>0</difficult>\n", o.name)
		fmt.Fprintf(&b, "    <bndbox>\n      <xmin>%g</xmin>\n      <ymin>%g</ymin>\n"+
			"      <xmax>%g</xmax>\n      <ymax>%g</ymax>\n    </bndbox>\n  </object>\n",
			o.coords[0], o.coords[1], o.coords[2], o.coords[3])
	}
	b.WriteString("</annotation>\n")
	return b.String()
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

// listDir returns the sorted names of the entries in dir.
func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}
