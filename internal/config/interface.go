package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
)

// ErrNoConfig is returned when no configuration document can be located.
var ErrNoConfig = errors.New("no configuration document found")

// DefaultFileNames are tried, in order, when no document path is given.
var DefaultFileNames = []string{"assetgrid.hcl", ".gulpconfig.json", "assetgrid.json"}

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads the document at path and translates it into the
	// format-agnostic model.
	Load(ctx context.Context, path string) (*Document, error)
}

// Locate resolves the document path. An explicit path must exist; otherwise
// the default file names are tried inside dir.
func Locate(path, dir string) (string, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", err
		}
		return path, nil
	}
	for _, name := range DefaultFileNames {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", ErrNoConfig
}
