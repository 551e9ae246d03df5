package transform

import (
	"context"
	"path/filepath"

	"github.com/specialistvlad/assetgrid/internal/config"
	"github.com/specialistvlad/assetgrid/internal/ctxlog"
	"github.com/specialistvlad/assetgrid/internal/fsutil"
	"github.com/specialistvlad/assetgrid/internal/plan"
)

// ScriptOutput is the artifact path of a script task.
func ScriptOutput(root string, spec plan.TaskSpec) string {
	return filepath.Join(fsutil.Resolve(root, spec.Dest), plan.Basename(spec.Src)+".min.js")
}

// bundleScript bundles one script entry into <dest>/<basename>.min.js.
func (s *Suite) bundleScript(ctx context.Context, spec plan.TaskSpec) error {
	out := ScriptOutput(s.root, spec)
	if err := ensureDir(out); err != nil {
		return err
	}
	minify := ""
	if s.settings.MinifyJS {
		minify = "--minify"
	}
	vars := Vars{
		"src":       s.abs(spec.Src),
		"out":       out,
		"dir":       filepath.Dir(out),
		"style":     "",
		"sourcemap": "",
		"minify":    minify,
	}
	if err := s.command(ToolScript).Run(ctx, s.root, vars); err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Debug("Script bundle complete.", "src", spec.Src, "out", out)
	return nil
}

// lintTarget is the single entry file, or the whole source directory when
// the script is watched as part of its directory.
func lintTarget(spec plan.TaskSpec) string {
	if spec.Watch == config.WatchAll && spec.SourceDir != "" {
		return spec.SourceDir
	}
	return spec.Src
}

// lint runs the linter over the script's lint target.
func (s *Suite) lint(ctx context.Context, spec plan.TaskSpec) error {
	target := s.abs(lintTarget(spec))
	vars := Vars{
		"src":       target,
		"out":       "",
		"dir":       target,
		"style":     "",
		"sourcemap": "",
		"minify":    "",
	}
	if err := s.command(ToolLint).Run(ctx, s.root, vars); err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Debug("Lint complete.", "target", lintTarget(spec))
	return nil
}
