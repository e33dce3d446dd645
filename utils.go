package yoloprep

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// filesByExtInDir returns all regular files with file extension ext found directly in directory
// dirPath, sorted by name. Files with any extension are returned if ext is empty. Hidden files
// are ignored.
func filesByExtInDir(dirPath, ext string) ([]string, error) {
	dirInfo, err := os.Stat(dirPath)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read directory %q", dirPath)
	}
	if !dirInfo.IsDir() {
		return nil, errors.Errorf("cannot read directory %q: not a directory", dirPath)
	}

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to access %q", dirPath)
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		// Must be a regular file or a symlink and have the requested extension/suffix.
		mode := entry.Type()
		if (!mode.IsRegular() && mode&os.ModeSymlink == 0) || !strings.HasSuffix(name, ext) {
			continue
		}
		if strings.HasPrefix(name, ".") || filepath.Ext(name) == "" {
			continue
		}
		files = append(files, filepath.Join(dirPath, name))
	}
	sort.Strings(files)

	return files, nil
}

// stem returns the base name of path with its last extension stripped off.
func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// indexByStem maps the stems of the given file paths to the paths. Later paths win when two
// files share a stem.
func indexByStem(paths []string) map[string]string {
	index := make(map[string]string, len(paths))
	for _, p := range paths {
		index[stem(p)] = p
	}
	return index
}

// fileExists reports whether path names an existing regular file (symlinks are followed).
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// dirExists reports whether path names an existing directory.
func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// copyFile copies the contents of src to dst, overwriting dst. The permission bits and the
// modification time of src are carried over.
func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return errors.Wrapf(err, "cannot read file %q", src)
	}
	defer closeWithErrCheck(in, &err)

	info, err := in.Stat()
	if err != nil {
		return errors.Wrapf(err, "cannot stat %q", src)
	}

	// A stale symlink at dst would otherwise be followed and the copy written to its target.
	if linfo, lerr := os.Lstat(dst); lerr == nil && linfo.Mode()&os.ModeSymlink != 0 {
		if err := os.Remove(dst); err != nil {
			return errors.Wrapf(err, "cannot replace %q", dst)
		}
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return errors.Wrapf(err, "cannot create %q", dst)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return errors.Wrapf(err, "failed to copy %q to %q", src, dst)
	}
	if err := out.Close(); err != nil {
		return errors.Wrapf(err, "failed to write %q", dst)
	}

	if err := os.Chmod(dst, info.Mode().Perm()); err != nil {
		return errors.Wrapf(err, "cannot set mode of %q", dst)
	}
	if err := os.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
		return errors.Wrapf(err, "cannot set times of %q", dst)
	}

	return nil
}

// symlink creates newname as a symbolic link to oldname. Tests replace it to simulate platforms
// without symlink support.
var symlink = os.Symlink

// linkOrCopy links dst to the absolute path of src, replacing whatever is at dst. Any failure
// while linking falls back to a plain copy.
func linkOrCopy(src, dst string) error {
	err := func() error {
		abs, err := filepath.Abs(src)
		if err != nil {
			return err
		}
		if _, err := os.Lstat(dst); err == nil {
			if err := os.Remove(dst); err != nil {
				return err
			}
		}
		return symlink(abs, dst)
	}()
	if err == nil {
		return nil
	}

	log.Printf("Cannot link %q, copying instead: %v", dst, err)
	return copyFile(src, dst)
}

// closeWithErrCheck calls c.Close(). If it returns an error, and (*e == nil), e is set to that
// error.
func closeWithErrCheck(c io.Closer, e *error) {
	err := c.Close()
	if err != nil && *e == nil {
		*e = err
	}
}
