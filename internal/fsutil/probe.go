package fsutil

import (
	"os"
	"slices"
)

// Prober checks configured source paths for existence and remembers every
// missing one exactly once, in first-seen order.
type Prober struct {
	root    string
	missing []string
	seen    map[string]struct{}
}

// NewProber creates a Prober resolving relative paths against root.
func NewProber(root string) *Prober {
	return &Prober{root: root, seen: make(map[string]struct{})}
}

// Exists reports whether src exists. A missing src is recorded for
// Missing; repeated misses of the same path are recorded once.
func (p *Prober) Exists(src string) bool {
	if _, err := os.Stat(Resolve(p.root, src)); err == nil {
		return true
	}
	if _, dup := p.seen[src]; !dup {
		p.seen[src] = struct{}{}
		p.missing = append(p.missing, src)
	}
	return false
}

// Missing returns the deduplicated list of paths that failed a check.
func (p *Prober) Missing() []string {
	return slices.Clone(p.missing)
}
