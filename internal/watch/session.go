package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/specialistvlad/assetgrid/internal/config"
	"github.com/specialistvlad/assetgrid/internal/ctxlog"
	"github.com/specialistvlad/assetgrid/internal/dag"
	"github.com/specialistvlad/assetgrid/internal/fsutil"
	"github.com/specialistvlad/assetgrid/internal/runner"
)

// Runner executes a selection of tasks. dag.Executor satisfies it.
type Runner interface {
	Run(ctx context.Context, targets ...string) (*dag.Report, error)
}

// Rebuild describes one finished run of a watch group.
type Rebuild struct {
	Group    string
	Class    config.AssetClass
	Tasks    []string
	Failed   []string
	Duration time.Duration
}

// Notifier is told about every finished rebuild.
type Notifier interface {
	Notify(ctx context.Context, r Rebuild)
}

// Option configures a Session.
type Option func(*Session)

// WithNotifier registers a notifier for finished rebuilds.
func WithNotifier(n Notifier) Option {
	return func(s *Session) { s.notifiers = append(s.notifiers, n) }
}

// WithDigestCacheSize changes the number of file digests remembered.
func WithDigestCacheSize(n int) Option {
	return func(s *Session) { s.digestSize = n }
}

// Session re-runs watch groups when their sources change.
type Session struct {
	root       string
	groups     []WatchGroup
	runner     Runner
	notifiers  []Notifier
	digestSize int
	digests    *digests

	mu      sync.Mutex
	states  map[string]*groupState
	stopped bool
	wg      sync.WaitGroup
}

// groupState serializes the runs of one group. gen identifies the live
// debounce timer; a timer from an older generation fires as a no-op.
type groupState struct {
	timer   *time.Timer
	gen     uint64
	running bool
	rerun   bool
}

// NewSession creates a session over groups rooted at the project root.
func NewSession(root string, groups []WatchGroup, r Runner, opts ...Option) (*Session, error) {
	s := &Session{
		root:   root,
		groups: groups,
		runner: r,
		states: make(map[string]*groupState, len(groups)),
	}
	for _, opt := range opts {
		opt(s)
	}
	d, err := newDigests(s.digestSize)
	if err != nil {
		return nil, fmt.Errorf("creating digest cache: %w", err)
	}
	s.digests = d
	for _, g := range groups {
		s.states[g.Name] = &groupState{}
	}
	return s, nil
}

// Groups returns the session's watch groups.
func (s *Session) Groups() []WatchGroup {
	return append([]WatchGroup(nil), s.groups...)
}

// Run subscribes to every group root and serves events until ctx is done.
// Task failures never end the session.
func (s *Session) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	sub, err := newSubscription()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer sub.close()

	announced := make(map[config.AssetClass]bool)
	for _, g := range s.groups {
		if !announced[g.Class] {
			announced[g.Class] = true
			logger.Info(fmt.Sprintf("Setting up tasks for: '%s'...", strings.ToUpper(string(g.Class))))
		}
		dir := fsutil.Resolve(s.root, g.Root)
		if err := sub.addRecursive(ctx, dir); err != nil {
			logger.Warn("Cannot watch group root.", "group", g.Name, "root", g.Root, "error", err)
			continue
		}
		s.prime(dir, g)
	}
	logger.Info("Watching for changes.", "groups", len(s.groups), "directories", sub.watched())

	go sub.loop(ctx)
	for ev := range sub.events {
		s.HandleEvent(ctx, ev)
	}

	s.stopTimers()
	s.wg.Wait()
	logger.Info("Watch session stopped.")
	return nil
}

// prime records the digests of the files a group watches.
func (s *Session) prime(dir string, g WatchGroup) {
	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if rel, ok := s.relative(p); ok && g.Matches(rel) {
			s.digests.prime(p)
		}
		return nil
	})
}

// HandleEvent schedules every group the event's path fires. Events that
// leave a file's content unchanged are dropped.
func (s *Session) HandleEvent(ctx context.Context, ev Event) {
	logger := ctxlog.FromContext(ctx)
	if ev.Op == fsnotify.Chmod {
		return
	}
	rel, ok := s.relative(ev.Path)
	if !ok {
		return
	}

	var matched []WatchGroup
	for _, g := range s.groups {
		if g.Matches(rel) {
			matched = append(matched, g)
		}
	}
	if len(matched) == 0 {
		return
	}
	if (ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create)) && !s.digests.changed(ev.Path) {
		logger.Debug("Content unchanged, ignoring event.", "path", rel)
		return
	}
	if ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename) {
		s.digests.changed(ev.Path)
	}

	for _, g := range matched {
		logger.Debug("Change detected.", "path", rel, "op", ev.Op.String(), "group", g.Name)
		s.schedule(ctx, g)
	}
}

func (s *Session) relative(abs string) (string, bool) {
	rel, err := filepath.Rel(s.root, abs)
	if err != nil {
		return "", false
	}
	return fsutil.ToSlash(rel), true
}

// schedule (re)starts the group's debounce timer.
func (s *Session) schedule(ctx context.Context, g WatchGroup) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.states[g.Name]
	if s.stopped {
		return
	}
	if st.timer != nil {
		st.timer.Stop()
	}
	st.gen++
	gen := st.gen
	st.timer = time.AfterFunc(g.Delay, func() { s.fire(ctx, g, gen) })
}

// fire starts a run of the group, or marks a rerun when one is in flight.
func (s *Session) fire(ctx context.Context, g WatchGroup, gen uint64) {
	s.mu.Lock()
	st := s.states[g.Name]
	if st.gen != gen {
		s.mu.Unlock()
		return
	}
	st.timer = nil
	if s.stopped || ctx.Err() != nil {
		s.mu.Unlock()
		return
	}
	if st.running {
		st.rerun = true
		s.mu.Unlock()
		return
	}
	st.running = true
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		for {
			s.rebuild(ctx, g)

			s.mu.Lock()
			if st.rerun && ctx.Err() == nil {
				st.rerun = false
				s.mu.Unlock()
				continue
			}
			st.running = false
			st.rerun = false
			s.mu.Unlock()
			return
		}
	}()
}

// rebuild runs the group's tasks once and notifies listeners.
func (s *Session) rebuild(ctx context.Context, g WatchGroup) {
	logger := ctxlog.FromContext(ctx).With("group", g.Name)
	logger.Info("Rebuilding.", "tasks", g.Tasks)
	start := time.Now()

	report, err := s.runner.Run(ctx, g.Tasks...)
	if err != nil {
		logger.Error("Rebuild could not start.", "error", err)
		return
	}

	r := Rebuild{Group: g.Name, Class: g.Class, Tasks: g.Tasks, Duration: time.Since(start)}
	for _, res := range report.Results {
		if res.Status != runner.StatusOK {
			r.Failed = append(r.Failed, res.Task)
		}
	}
	if err := report.Err(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("Rebuild finished with failures.", "failed", r.Failed)
	} else {
		logger.Info("Rebuild complete.", "duration", r.Duration)
	}
	for _, n := range s.notifiers {
		n.Notify(ctx, r)
	}
}

func (s *Session) stopTimers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for _, st := range s.states {
		if st.timer != nil {
			st.timer.Stop()
			st.timer = nil
		}
	}
}

// statDir reports whether p is a directory.
func statDir(p string) (bool, error) {
	info, err := os.Stat(p)
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}
