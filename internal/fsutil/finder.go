package fsutil

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// ListFiles returns the regular files inside dir whose name ends with one of
// the given extensions, sorted by path. Subdirectories are only descended
// when recursive is set. Paths are returned as dir joined with the file
// name, in forward-slash form.
func ListFiles(dir string, extensions []string, recursive bool) ([]string, error) {
	if len(extensions) == 0 {
		panic("extensions must not be empty")
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if hasExtension(d.Name(), extensions) && isRegularFile(path, d) {
			files = append(files, ToSlash(path))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing files in %s: %w", dir, err)
	}

	slices.Sort(files)
	return files, nil
}

// isRegularFile follows symlinks the way a stat would.
func isRegularFile(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func hasExtension(name string, extensions []string) bool {
	for _, ext := range extensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}
