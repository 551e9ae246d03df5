package watch

import (
	"path"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/specialistvlad/assetgrid/internal/config"
	"github.com/specialistvlad/assetgrid/internal/fsutil"
	"github.com/specialistvlad/assetgrid/internal/plan"
	"github.com/specialistvlad/assetgrid/internal/registry"
)

// DefaultDebounce coalesces the bursts of events an editor save produces
// for groups without a configured delay.
const DefaultDebounce = 200 * time.Millisecond

// WatchGroup is a trigger and the tasks it re-runs.
type WatchGroup struct {
	Name  string
	Class config.AssetClass
	// Trigger is a project-relative glob, or an exact path when Exact is set.
	Trigger string
	Exact   bool
	// Root is the project-relative directory to subscribe to.
	Root  string
	Tasks []string
	Delay time.Duration
}

// Matches reports whether a project-relative, forward-slash path fires the
// group.
func (g WatchGroup) Matches(rel string) bool {
	if g.Exact {
		return rel == g.Trigger
	}
	ok, err := doublestar.Match(g.Trigger, rel)
	return err == nil && ok
}

// Plan computes the watch groups of p in class order css, js, img and then
// first-seen order. Membership is fixed here and never re-resolved.
func Plan(p *plan.BuildPlan) []WatchGroup {
	settings := p.Settings()
	styleDelay := settings.WatchDelay
	if styleDelay <= 0 {
		styleDelay = DefaultDebounce
	}

	var groups []WatchGroup
	for _, spec := range p.Specs(config.ClassCSS) {
		src := fsutil.WithTrailingSlash(spec.Src)
		groups = append(groups, WatchGroup{
			Name:    registry.TaskName(config.ClassCSS, spec.ID),
			Class:   config.ClassCSS,
			Trigger: trimDot(src) + "**/*.{scss,sass}",
			Root:    src,
			Tasks:   []string{registry.TaskName(config.ClassCSS, spec.ID)},
			Delay:   styleDelay,
		})
	}

	groups = append(groups, scriptGroups(p.Specs(config.ClassJS), settings.ScriptExtensions)...)

	for _, spec := range p.Specs(config.ClassImg) {
		src := fsutil.WithTrailingSlash(spec.Src)
		groups = append(groups, WatchGroup{
			Name:    registry.TaskName(config.ClassImg, spec.ID),
			Class:   config.ClassImg,
			Trigger: trimDot(src) + "**/*.{jpg,jpeg,png,gif,svg}",
			Root:    src,
			Tasks:   []string{registry.TaskName(config.ClassImg, spec.ID)},
			Delay:   DefaultDebounce,
		})
	}
	return groups
}

// scriptGroups builds one group per entry-mode script and one group per
// source directory of all-mode scripts. Entries naming the same directory
// share a group, however the path is spelled.
func scriptGroups(specs []plan.TaskSpec, extensions []string) []WatchGroup {
	var groups []WatchGroup
	byDir := make(map[string]int)
	for _, spec := range specs {
		name := registry.TaskName(config.ClassJS, spec.ID)
		if spec.Watch != config.WatchAll {
			groups = append(groups, WatchGroup{
				Name:    name,
				Class:   config.ClassJS,
				Trigger: fsutil.ToSlash(path.Clean(spec.Src)),
				Exact:   true,
				Root:    fsutil.WithTrailingSlash(path.Dir(fsutil.ToSlash(spec.Src))),
				Tasks:   []string{name},
				Delay:   DefaultDebounce,
			})
			continue
		}
		dir := fsutil.WithTrailingSlash(path.Clean(fsutil.ToSlash(spec.SourceDir)))
		if i, ok := byDir[dir]; ok {
			groups[i].Tasks = append(groups[i].Tasks, name)
			continue
		}
		byDir[dir] = len(groups)
		groups = append(groups, WatchGroup{
			Name:    "js:" + dir,
			Class:   config.ClassJS,
			Trigger: trimDot(dir) + "**/*" + extensionPattern(extensions),
			Root:    dir,
			Tasks:   []string{name},
			Delay:   DefaultDebounce,
		})
	}
	return groups
}

// extensionPattern renders the script extensions as a glob suffix.
func extensionPattern(extensions []string) string {
	switch len(extensions) {
	case 0:
		return ".js"
	case 1:
		return extensions[0]
	}
	return "{" + strings.Join(extensions, ",") + "}"
}

// trimDot drops the "./" a project-root src normalizes to, since event
// paths are matched without it.
func trimDot(dir string) string {
	if dir == "./" {
		return ""
	}
	return strings.TrimPrefix(dir, "./")
}
