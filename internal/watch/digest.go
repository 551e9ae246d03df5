package watch

import (
	"crypto/sha256"
	"io"
	"os"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultDigestCacheSize bounds the number of file digests remembered.
const DefaultDigestCacheSize = 4096

// digests remembers the content hash of recently seen source files so that
// events which did not change a file's content (touch, chmod, editor
// save-without-change) do not trigger a rebuild.
type digests struct {
	cache *lru.Cache[string, [sha256.Size]byte]
}

func newDigests(size int) (*digests, error) {
	if size <= 0 {
		size = DefaultDigestCacheSize
	}
	cache, err := lru.New[string, [sha256.Size]byte](size)
	if err != nil {
		return nil, err
	}
	return &digests{cache: cache}, nil
}

// changed reports whether the file at path differs from the last time it
// was seen. Unreadable and unseen files count as changed.
func (d *digests) changed(path string) bool {
	sum, err := fileDigest(path)
	if err != nil {
		d.cache.Remove(path)
		return true
	}
	prev, ok := d.cache.Get(path)
	d.cache.Add(path, sum)
	return !ok || prev != sum
}

// prime records the current digest of path without reporting a change.
func (d *digests) prime(path string) {
	if sum, err := fileDigest(path); err == nil {
		d.cache.Add(path, sum)
	}
}

func fileDigest(path string) ([sha256.Size]byte, error) {
	var sum [sha256.Size]byte
	f, err := os.Open(path)
	if err != nil {
		return sum, err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return sum, err
	}
	copy(sum[:], h.Sum(nil))
	return sum, nil
}
