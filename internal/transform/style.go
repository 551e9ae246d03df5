package transform

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/assetgrid/internal/ctxlog"
	"github.com/specialistvlad/assetgrid/internal/plan"
	"golang.org/x/sync/errgroup"
)

// StylePattern selects the style sources of a task.
const StylePattern = "**/*.{scss,sass}"

// compileStyles compiles every non-partial style source below spec.Src into
// dest, keeping the relative layout and writing .min.css files.
func (s *Suite) compileStyles(ctx context.Context, spec plan.TaskSpec) error {
	logger := ctxlog.FromContext(ctx).With("src", spec.Src)
	srcDir := s.abs(spec.Src)
	destDir := s.abs(spec.Dest)

	files, err := sources(srcDir, StylePattern)
	if err != nil {
		return err
	}

	style, sourcemap := "--style=expanded", "--no-source-map"
	if s.settings.MinifyCSS {
		style = "--style=compressed"
	}
	if s.settings.SourcemapCSS {
		sourcemap = "--embed-source-map"
	}

	cmd := s.command(ToolStyle)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	compiled := 0
	for _, rel := range files {
		if strings.HasPrefix(path.Base(rel), "_") {
			continue
		}
		compiled++
		src := filepath.Join(srcDir, filepath.FromSlash(rel))
		out := outputPath(destDir, rel, ".min.css")
		g.Go(func() error {
			if err := ensureDir(out); err != nil {
				return err
			}
			vars := Vars{
				"src":       src,
				"out":       out,
				"dir":       filepath.Dir(out),
				"style":     style,
				"sourcemap": sourcemap,
				"minify":    "",
			}
			if err := cmd.Run(gctx, s.root, vars); err != nil {
				return fmt.Errorf("compiling %s: %w", rel, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	logger.Debug("Style compile complete.", "files", compiled)
	return nil
}
