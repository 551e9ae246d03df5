package fsutil

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	ignore "github.com/sabhiram/go-gitignore"
	"github.com/specialistvlad/assetgrid/internal/ctxlog"
)

// IgnoreFileName is read from the project root to extend the discovery
// exclusion set.
const IgnoreFileName = ".assetgridignore"

// DefaultExclusions are directory names never descended into while
// discovering source directories.
var DefaultExclusions = []string{"node_modules", ".git", "src", "legacy", "integrations", "components", "images"}

// Discoverer finds directories that follow a naming convention below the
// project root.
type Discoverer struct {
	root       string
	exclusions []string
}

// NewDiscoverer creates a Discoverer for root. The exclusion set is the
// default one, then extra, then the lines of the root's ignore file.
func NewDiscoverer(root string, extra ...string) (*Discoverer, error) {
	exclusions := slices.Clone(DefaultExclusions)
	exclusions = append(exclusions, extra...)

	lines, err := readIgnoreFile(filepath.Join(root, IgnoreFileName))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading %s: %w", IgnoreFileName, err)
	}
	exclusions = append(exclusions, lines...)

	return &Discoverer{root: root, exclusions: exclusions}, nil
}

// Exclusions returns the exclusion patterns in effect.
func (d *Discoverer) Exclusions() []string {
	return slices.Clone(d.exclusions)
}

// Find walks searchRoot (the project root when empty) and returns every
// directory named name, relative to the project root in forward-slash form
// and sorted. Matched directories are not descended into.
//
// When name is itself one of the exclusion patterns, that pattern is
// lifted for this call only.
func (d *Discoverer) Find(ctx context.Context, name, searchRoot string) ([]string, error) {
	logger := ctxlog.FromContext(ctx).With("name", name)
	if searchRoot == "" {
		searchRoot = d.root
	}

	lines := make([]string, 0, len(d.exclusions))
	for _, pattern := range d.exclusions {
		if pattern == name || pattern == name+"/" {
			logger.Debug("Lifting exclusion for this search.", "pattern", pattern)
			continue
		}
		lines = append(lines, pattern)
	}
	matcher := ignore.CompileIgnoreLines(lines...)

	var results []string
	err := filepath.WalkDir(searchRoot, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if path == searchRoot {
				return err
			}
			logger.Warn("Skipping unreadable directory during discovery.", "path", path, "error", err)
			return filepath.SkipDir
		}
		if !entry.IsDir() || path == searchRoot {
			return nil
		}

		rel, relErr := filepath.Rel(d.root, path)
		if relErr != nil {
			return relErr
		}
		rel = ToSlash(rel)

		if entry.Name() == name {
			results = append(results, rel)
			return filepath.SkipDir
		}
		if matcher.MatchesPath(rel + "/") {
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discovering %q in %s: %w", name, searchRoot, err)
	}

	if len(results) == 0 {
		logger.Info(fmt.Sprintf("No directories found by the name '%s' in %s.", name, searchRoot))
		return []string{}, nil
	}

	slices.Sort(results)
	logger.Debug("Discovery complete.", "found", len(results))
	return results, nil
}

// readIgnoreFile reads a gitignore-style file and returns its lines.
func readIgnoreFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}
