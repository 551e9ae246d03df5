package transform

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/specialistvlad/assetgrid/internal/config"
	"github.com/specialistvlad/assetgrid/internal/fsutil"
	"github.com/specialistvlad/assetgrid/internal/plan"
	"github.com/specialistvlad/assetgrid/internal/runner"
)

// DefaultConcurrency bounds the tool processes one task runs at once.
const DefaultConcurrency = 4

// Suite builds the task functions of one plan. It satisfies
// registry.Handler.
type Suite struct {
	root        string
	settings    config.Settings
	commands    map[string]Command
	concurrency int
}

// NewSuite resolves the tool templates of p: document overrides first, then
// DefaultTemplates.
func NewSuite(p *plan.BuildPlan) *Suite {
	s := &Suite{
		root:        p.Root(),
		settings:    p.Settings(),
		commands:    make(map[string]Command, len(DefaultTemplates)),
		concurrency: DefaultConcurrency,
	}
	for name, tmpl := range DefaultTemplates {
		s.commands[name] = Command{Tool: name, Template: slices.Clone(tmpl)}
	}
	for _, name := range []string{ToolStyle, ToolScript, ToolLint, ToolPNG, ToolJPEG, ToolGIF, ToolSVG} {
		if t, ok := p.Tool(name); ok {
			s.commands[name] = Command{Tool: name, Template: t.Command}
		}
	}
	return s
}

// SetConcurrency changes the per-task tool concurrency.
func (s *Suite) SetConcurrency(n int) {
	if n > 0 {
		s.concurrency = n
	}
}

// Transform returns the function that builds spec.
func (s *Suite) Transform(spec plan.TaskSpec) runner.Func {
	switch spec.Class {
	case config.ClassCSS:
		return func(ctx context.Context) error { return s.compileStyles(ctx, spec) }
	case config.ClassJS:
		return func(ctx context.Context) error { return s.bundleScript(ctx, spec) }
	case config.ClassImg:
		return func(ctx context.Context) error { return s.optimizeImages(ctx, spec) }
	}
	return func(context.Context) error {
		return fmt.Errorf("no transform for asset class '%s'", spec.Class)
	}
}

// PreCheck returns the lint function gating spec.
func (s *Suite) PreCheck(spec plan.TaskSpec) runner.Func {
	return func(ctx context.Context) error { return s.lint(ctx, spec) }
}

func (s *Suite) command(tool string) Command {
	return s.commands[tool]
}

// abs resolves a project-relative path.
func (s *Suite) abs(p string) string {
	return fsutil.Resolve(s.root, p)
}

// sources lists the files below dir matching pattern, relative to dir and
// in forward-slash form.
func sources(dir, pattern string) ([]string, error) {
	files, err := doublestar.Glob(os.DirFS(dir), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("expanding %s in %s: %w", pattern, dir, err)
	}
	slices.Sort(files)
	return files, nil
}

// outputPath maps a source below the task's src onto its dest, swapping the
// extension.
func outputPath(destDir, rel, ext string) string {
	base := strings.TrimSuffix(rel, path.Ext(rel))
	return filepath.Join(destDir, filepath.FromSlash(base+ext))
}

func ensureDir(file string) error {
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	return nil
}
