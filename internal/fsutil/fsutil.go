// Package fsutil provides the file system helpers used to normalize a
// configuration: directory probing, convention-based directory discovery
// and source file listing.
package fsutil

import (
	"os"
	"path/filepath"
	"strings"
)

// ToSlash returns the canonical forward-slash form of a path.
func ToSlash(p string) string {
	return strings.ReplaceAll(filepath.ToSlash(p), `\`, "/")
}

// Resolve joins a project-relative path onto root unless it is already
// absolute.
func Resolve(root, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(root, filepath.FromSlash(p))
}

// SameDir reports whether two configured directory paths refer to the same
// location, ignoring trailing slashes and redundant elements.
func SameDir(a, b string) bool {
	return filepath.Clean(filepath.FromSlash(a)) == filepath.Clean(filepath.FromSlash(b))
}

// WithTrailingSlash normalizes a directory path to forward slashes with
// exactly one trailing slash.
func WithTrailingSlash(p string) string {
	p = strings.TrimRight(ToSlash(p), "/")
	if p == "" {
		return "./"
	}
	return p + "/"
}

// IsDir reports whether p exists and is a directory.
func IsDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}
