package watch

import (
	"context"
	"io/fs"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/specialistvlad/assetgrid/internal/ctxlog"
)

// Event is a file system change below a subscribed directory.
type Event struct {
	// Path is absolute.
	Path string
	Op   fsnotify.Op
}

// subscription is a recursive fsnotify watch over a set of directories.
// Directories created later below a watched one are added as they appear.
type subscription struct {
	watcher *fsnotify.Watcher
	mu      sync.Mutex
	dirs    map[string]bool
	events  chan Event
}

func newSubscription() (*subscription, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &subscription{
		watcher: w,
		dirs:    make(map[string]bool),
		events:  make(chan Event, 256),
	}, nil
}

// addRecursive watches dir and every directory below it.
func (s *subscription) addRecursive(ctx context.Context, dir string) error {
	logger := ctxlog.FromContext(ctx)
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == dir {
				return err
			}
			logger.Warn("Skipping unreadable directory.", "path", p, "error", err)
			return filepath.SkipDir
		}
		if !d.IsDir() {
			return nil
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.dirs[p] {
			return nil
		}
		if err := s.watcher.Add(p); err != nil {
			logger.Warn("Cannot watch directory.", "path", p, "error", err)
			return nil
		}
		s.dirs[p] = true
		return nil
	})
}

// watched returns the number of subscribed directories.
func (s *subscription) watched() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.dirs)
}

// loop forwards fsnotify events until ctx is done or the watcher closes.
func (s *subscription) loop(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)
	defer close(s.events)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Create) {
				if isDir, err := statDir(ev.Name); err == nil && isDir {
					if err := s.addRecursive(ctx, ev.Name); err != nil {
						logger.Warn("Cannot watch new directory.", "path", ev.Name, "error", err)
					}
				}
			}
			if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
				s.mu.Lock()
				delete(s.dirs, ev.Name)
				s.mu.Unlock()
			}
			select {
			case s.events <- Event{Path: ev.Name, Op: ev.Op}:
			case <-ctx.Done():
				return
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("File watcher error.", "error", err)
		}
	}
}

func (s *subscription) close() error {
	return s.watcher.Close()
}
