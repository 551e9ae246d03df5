package transform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/specialistvlad/assetgrid/internal/ctxlog"
	"github.com/specialistvlad/assetgrid/internal/plan"
	"golang.org/x/sync/errgroup"
)

// ImagePattern selects the image sources of a task.
const ImagePattern = "**/*.{jpg,jpeg,png,gif,svg}"

// imageTool maps an image extension to its tool name.
func imageTool(ext string) string {
	switch strings.ToLower(ext) {
	case ".png":
		return ToolPNG
	case ".jpg", ".jpeg":
		return ToolJPEG
	case ".gif":
		return ToolGIF
	case ".svg":
		return ToolSVG
	}
	return ""
}

// optimizeImages runs the matching optimizer over every image below
// spec.Src, writing into dest with the same relative layout. An image whose
// optimizer is not installed or configured as an empty command is copied.
func (s *Suite) optimizeImages(ctx context.Context, spec plan.TaskSpec) error {
	logger := ctxlog.FromContext(ctx).With("src", spec.Src)
	srcDir := s.abs(spec.Src)
	destDir := s.abs(spec.Dest)

	files, err := sources(srcDir, ImagePattern)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, rel := range files {
		src := filepath.Join(srcDir, filepath.FromSlash(rel))
		out := outputPath(destDir, rel, path.Ext(rel))
		cmd := s.command(imageTool(path.Ext(rel)))
		g.Go(func() error {
			if err := ensureDir(out); err != nil {
				return err
			}
			if len(cmd.Template) == 0 {
				return copyFile(src, out)
			}
			err := cmd.Run(gctx, s.root, Vars{
				"src":       src,
				"out":       out,
				"dir":       filepath.Dir(out),
				"style":     "",
				"sourcemap": "",
				"minify":    "",
			})
			if errors.Is(err, ErrToolNotFound) && s.isDefault(cmd) {
				logger.Debug("Optimizer not installed, copying image.", "tool", cmd.Tool, "file", rel)
				return copyFile(src, out)
			}
			if declined(cmd.Tool, err) {
				logger.Debug("Optimizer left image as is, copying.", "tool", cmd.Tool, "file", rel, "error", err)
				return copyFile(src, out)
			}
			if err != nil {
				return fmt.Errorf("optimizing %s: %w", rel, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	logger.Debug("Image optimization complete.", "files", len(files))
	return nil
}

// pngquant exit statuses for an image it refuses to rewrite: the result
// would not be smaller, or would fall below the quality floor. Nothing is
// written to the output in either case.
const (
	pngquantNotSmaller    = 98
	pngquantQualityTooLow = 99
)

// declined reports whether err is an optimizer refusing to rewrite an image
// rather than failing on it.
func declined(tool string, err error) bool {
	if tool != ToolPNG {
		return false
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return false
	}
	code := exitErr.ExitCode()
	return code == pngquantNotSmaller || code == pngquantQualityTooLow
}

// isDefault reports whether cmd is the built-in template of its tool.
func (s *Suite) isDefault(cmd Command) bool {
	def, ok := DefaultTemplates[cmd.Tool]
	return ok && slices.Equal(def, cmd.Template)
}

// copyFile copies src to dst unless both name the same file.
func copyFile(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return err
	}
	if dstInfo, err := os.Stat(dst); err == nil && os.SameFile(srcInfo, dstInfo) {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, srcInfo.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying %s: %w", src, err)
	}
	return out.Close()
}
