package transform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/specialistvlad/assetgrid/internal/ctxlog"
)

// ErrToolNotFound is returned when a tool's executable is not on PATH.
var ErrToolNotFound = errors.New("tool not found")

// Tool names used as keys for templates and `tool` blocks.
const (
	ToolStyle  = "css"
	ToolScript = "js"
	ToolLint   = "lint"
	ToolPNG    = "png"
	ToolJPEG   = "jpg"
	ToolGIF    = "gif"
	ToolSVG    = "svg"
)

// DefaultTemplates are used for every tool the document does not override.
var DefaultTemplates = map[string][]string{
	ToolStyle:  {"sass", "{style}", "{sourcemap}", "{src}", "{out}"},
	ToolScript: {"esbuild", "{src}", "--bundle", "{minify}", "--outfile={out}"},
	ToolLint:   {"eslint", "{src}"},
	ToolPNG:    {"pngquant", "--force", "--skip-if-larger", "--output", "{out}", "{src}"},
	ToolJPEG:   {"jpegtran", "-optimize", "-copy", "none", "-outfile", "{out}", "{src}"},
	ToolGIF:    {"gifsicle", "-O3", "{src}", "-o", "{out}"},
	ToolSVG:    {"svgo", "{src}", "-o", "{out}"},
}

// Vars are the placeholder values of one invocation.
type Vars map[string]string

// Command is an expandable tool invocation.
type Command struct {
	Tool     string
	Template []string
}

// Expand substitutes every {name} placeholder in the template. An argument
// that consisted of a single placeholder expanding to nothing is dropped.
func (c Command) Expand(vars Vars) []string {
	argv := make([]string, 0, len(c.Template))
	for _, arg := range c.Template {
		expanded := arg
		for name, value := range vars {
			expanded = strings.ReplaceAll(expanded, "{"+name+"}", value)
		}
		if expanded == "" && arg != "" {
			continue
		}
		argv = append(argv, expanded)
	}
	return argv
}

// Run expands and executes the command in dir. The tool's combined output
// is attached to the returned error.
func (c Command) Run(ctx context.Context, dir string, vars Vars) error {
	logger := ctxlog.FromContext(ctx).With("tool", c.Tool)
	argv := c.Expand(vars)
	if len(argv) == 0 {
		return fmt.Errorf("%s: empty command", c.Tool)
	}

	path, err := exec.LookPath(argv[0])
	if err != nil {
		return fmt.Errorf("%s: %w: %s", c.Tool, ErrToolNotFound, argv[0])
	}

	logger.Debug("Running tool.", "argv", argv, "dir", dir)
	cmd := exec.CommandContext(ctx, path, argv[1:]...)
	cmd.Dir = dir
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Run(); err != nil {
		out := strings.TrimSpace(output.String())
		if out == "" {
			return fmt.Errorf("%s: %w", argv[0], err)
		}
		return fmt.Errorf("%s: %w\n%s", argv[0], err, out)
	}
	logger.Debug("Tool complete.", "argv0", argv[0])
	return nil
}

// Available reports whether the command's executable can be found.
func (c Command) Available() bool {
	if len(c.Template) == 0 {
		return false
	}
	_, err := exec.LookPath(c.Template[0])
	return err == nil
}
