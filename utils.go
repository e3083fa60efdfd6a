package vocrecord

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// imageExtensions are the recognised image file extensions (lower case, with the dot).
var imageExtensions = []string{".png", ".jpg", ".jpeg"}

// ErrMissingInputDir is returned when a required input directory does not exist.
var ErrMissingInputDir = errors.New("missing input directory")

// requireDir returns an error wrapping ErrMissingInputDir unless dirPath is an existing directory.
func requireDir(dirPath string) error {
	dirInfo, err := os.Stat(dirPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %q", ErrMissingInputDir, dirPath)
		}
		return fmt.Errorf("cannot access directory %q: %w", dirPath, err)
	}
	if !dirInfo.IsDir() {
		return fmt.Errorf("%w: %q is not a directory", ErrMissingInputDir, dirPath)
	}
	return nil
}

// filesByExtInDir returns all regular files found directly in directory dirPath whose extension
// matches one of exts, compared case-insensitively. All files are returned if exts is empty. The
// result is sorted by path.
func filesByExtInDir(dirPath string, exts ...string) (files []string, err error) {
	if err := requireDir(dirPath); err != nil {
		return nil, err
	}
	dir, err := os.Open(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to access %q: %w", dirPath, err)
	}
	defer closeWithErrCheck(dir, &err)

	// Iterate over all files in dir.
	files = make([]string, 0, 100)
	var fileList []os.FileInfo
	for fileList, err = dir.Readdir(100); len(fileList) > 0; fileList, err = dir.Readdir(100) {
		for _, file := range fileList {
			name := file.Name()
			// Must be a regular file or a symlink and have one of the requested extensions.
			if (!file.Mode().IsRegular() && (file.Mode()&os.ModeSymlink == 0)) ||
				!hasExt(name, exts) {
				continue
			}
			files = append(files, filepath.Join(dirPath, name))
		}
	}
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to list %q: %w", dirPath, err)
	}

	sort.Strings(files)
	return files, nil
}

// hasExt reports whether name ends with one of exts, ignoring case.
func hasExt(name string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// splitPath splits the given file path into the dir name, the base name without extension and the
// extension (without the dot).
func splitPath(path string) (dir, baseNoExt, ext string, err error) {
	dir, file := filepath.Split(path)
	ext = filepath.Ext(file)
	if ext == "" {
		return "", "", "", fmt.Errorf("missing file extension in %q", path)
	}

	dir = strings.TrimSuffix(dir, string(os.PathSeparator))
	baseNoExt = file[0 : len(file)-len(ext)]
	ext = ext[1:]

	return dir, baseNoExt, ext, nil
}

// annotationPathFor returns the path of the annotation file for imagePath: the image's base name
// with the extension replaced by ".xml", located in annotationDir.
func annotationPathFor(imagePath, annotationDir string) (string, error) {
	_, baseNoExt, _, err := splitPath(imagePath)
	if err != nil {
		return "", err
	}
	return filepath.Join(annotationDir, baseNoExt+".xml"), nil
}

// fileExists reports whether path names an existing regular file (or a symlink to one).
func fileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// closeWithErrCheck calls c.Close(). If it returns an error, and (*e == nil), e is set to that
// error.
func closeWithErrCheck(c io.Closer, e *error) {
	err := c.Close()
	if err != nil && *e == nil {
		*e = err
	}
}
