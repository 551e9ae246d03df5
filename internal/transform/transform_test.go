package transform

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/assetgrid/internal/config"
	"github.com/specialistvlad/assetgrid/internal/plan"
	"github.com/specialistvlad/assetgrid/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// copyTool copies {src} to {out} with the system shell.
var copyTool = []string{"/bin/sh", "-c", `cp "$0" "$1"`, "{src}", "{out}"}

type fixture struct {
	ctx   context.Context
	root  string
	plan  *plan.BuildPlan
	suite *Suite
}

func newFixture(t *testing.T, files map[string]string, configure func(doc *config.Document)) *fixture {
	t.Helper()
	ctx, _ := testutil.Context(t)
	root := testutil.Project(t, files)
	doc := config.NewDocument(root)
	configure(doc)
	p, err := plan.Normalize(ctx, doc)
	require.NoError(t, err)
	return &fixture{ctx: ctx, root: root, plan: p, suite: NewSuite(p)}
}

func (f *fixture) run(t *testing.T, class config.AssetClass, id string) error {
	t.Helper()
	spec, ok := f.plan.Spec(class, id)
	require.True(t, ok, "no %s spec %q", class, id)
	return f.suite.Transform(spec)(f.ctx)
}

func (f *fixture) read(t *testing.T, rel string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(f.root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(b)
}

func (f *fixture) exists(rel string) bool {
	_, err := os.Stat(filepath.Join(f.root, filepath.FromSlash(rel)))
	return err == nil
}

func TestCommand_Expand(t *testing.T) {
	cmd := Command{Tool: "js", Template: DefaultTemplates[ToolScript]}

	got := cmd.Expand(Vars{"src": "a.js", "out": "js/a.min.js", "minify": ""})

	assert.Equal(t, []string{"esbuild", "a.js", "--bundle", "--outfile=js/a.min.js"}, got)
}

func TestCommand_Run(t *testing.T) {
	ctx, _ := testutil.Context(t)

	t.Run("missing executable", func(t *testing.T) {
		cmd := Command{Tool: "css", Template: []string{"assetgrid-no-such-compiler", "{src}"}}
		err := cmd.Run(ctx, t.TempDir(), Vars{"src": "x"})
		assert.ErrorIs(t, err, ErrToolNotFound)
		assert.False(t, cmd.Available())
	})

	t.Run("failure carries tool output", func(t *testing.T) {
		cmd := Command{Tool: "lint", Template: []string{"/bin/sh", "-c", "echo 'no-undef: foo'; exit 3"}}
		err := cmd.Run(ctx, t.TempDir(), nil)
		require.Error(t, err)
		assert.ErrorContains(t, err, "exit status 3")
		assert.ErrorContains(t, err, "no-undef: foo")
	})
}

func TestStyles(t *testing.T) {
	t.Run("compiles non-partials keeping the layout", func(t *testing.T) {
		// --- Arrange ---
		f := newFixture(t, map[string]string{
			"sass/main.scss":       "main",
			"sass/_vars.scss":      "vars",
			"sass/pages/home.sass": "home",
			"sass/readme.txt":      "",
		}, func(doc *config.Document) {
			doc.Entries[config.ClassCSS] = []config.DirectoryTaskConfig{{Src: "sass/", Dest: "css/"}}
			doc.Tools[ToolStyle] = config.Tool{Name: ToolStyle, Command: copyTool}
		})

		// --- Act ---
		err := f.run(t, config.ClassCSS, "0")

		// --- Assert ---
		require.NoError(t, err)
		assert.Equal(t, "main", f.read(t, "css/main.min.css"))
		assert.Equal(t, "home", f.read(t, "css/pages/home.min.css"))
		assert.False(t, f.exists("css/_vars.min.css"), "partials are not compiled")
		assert.False(t, f.exists("css/readme.min.css"))
	})

	t.Run("settings select style and source map flags", func(t *testing.T) {
		f := newFixture(t, map[string]string{"sass/main.scss": ""}, func(doc *config.Document) {
			doc.Settings.MinifyCSS = true
			doc.Settings.SourcemapCSS = true
			doc.Entries[config.ClassCSS] = []config.DirectoryTaskConfig{{Src: "sass/", Dest: "css/"}}
			doc.Tools[ToolStyle] = config.Tool{Name: ToolStyle, Command: []string{
				"/bin/sh", "-c", `printf '%s %s' "$0" "$1" > "$2"`, "{style}", "{sourcemap}", "{out}",
			}}
		})

		require.NoError(t, f.run(t, config.ClassCSS, "0"))

		assert.Equal(t, "--style=compressed --embed-source-map", f.read(t, "css/main.min.css"))
	})

	t.Run("compiler failure is returned", func(t *testing.T) {
		f := newFixture(t, map[string]string{"sass/bad.scss": ""}, func(doc *config.Document) {
			doc.Entries[config.ClassCSS] = []config.DirectoryTaskConfig{{Src: "sass/", Dest: "css/"}}
			doc.Tools[ToolStyle] = config.Tool{Name: ToolStyle, Command: []string{"/bin/sh", "-c", "echo 'Error: expected \"}\"' >&2; exit 65"}}
		})

		err := f.run(t, config.ClassCSS, "0")

		assert.ErrorContains(t, err, "compiling bad.scss")
		assert.ErrorContains(t, err, `expected "}"`)
	})
}

func TestScripts(t *testing.T) {
	f := newFixture(t, map[string]string{
		"js_dev/app.js":   "app",
		"js_dev/admin.js": "admin",
	}, func(doc *config.Document) {
		doc.Entries[config.ClassJS] = []config.DirectoryTaskConfig{{Src: "js_dev/", Dest: "public/js/"}}
		doc.Tools[ToolScript] = config.Tool{Name: ToolScript, Command: copyTool}
	})

	require.NoError(t, f.run(t, config.ClassJS, "1:app"))

	assert.Equal(t, "app", f.read(t, "public/js/app.min.js"))
	assert.False(t, f.exists("public/js/admin.min.js"), "each script task builds only its own entry")
}

func TestLint(t *testing.T) {
	t.Run("target depends on watch mode", func(t *testing.T) {
		entry := plan.TaskSpec{Src: "js_dev/app.js", SourceDir: "js_dev/", Watch: config.WatchEntry}
		all := plan.TaskSpec{Src: "js_dev/app.js", SourceDir: "js_dev/", Watch: config.WatchAll}

		assert.Equal(t, "js_dev/app.js", lintTarget(entry))
		assert.Equal(t, "js_dev/", lintTarget(all))
	})

	t.Run("linter receives the target", func(t *testing.T) {
		f := newFixture(t, map[string]string{"js_dev/app.js": ""}, func(doc *config.Document) {
			doc.Settings.LintJS = true
			doc.Entries[config.ClassJS] = []config.DirectoryTaskConfig{{Src: "js_dev/", Dest: "js/", Watch: config.WatchAll}}
			doc.Tools[ToolLint] = config.Tool{Name: ToolLint, Command: []string{"/bin/sh", "-c", `echo "$0" > linted.txt`, "{src}"}}
		})
		spec, ok := f.plan.Spec(config.ClassJS, "0:app")
		require.True(t, ok)

		require.NoError(t, f.suite.PreCheck(spec)(f.ctx))

		assert.Equal(t, filepath.Join(f.root, "js_dev")+"\n", f.read(t, "linted.txt"))
	})

	t.Run("lint failure", func(t *testing.T) {
		f := newFixture(t, map[string]string{"js_dev/app.js": ""}, func(doc *config.Document) {
			doc.Settings.LintJS = true
			doc.Entries[config.ClassJS] = []config.DirectoryTaskConfig{{Src: "js_dev/", Dest: "js/"}}
			doc.Tools[ToolLint] = config.Tool{Name: ToolLint, Command: []string{"/bin/sh", "-c", "exit 1"}}
		})
		spec, _ := f.plan.Spec(config.ClassJS, "0:app")

		assert.ErrorContains(t, f.suite.PreCheck(spec)(f.ctx), "exit status 1")
	})
}

func TestImages(t *testing.T) {
	// --- Arrange ---
	t.Setenv("PATH", t.TempDir())
	f := newFixture(t, map[string]string{
		"images/logo.png":       "png",
		"images/icons/home.svg": "svg",
		"images/photo.jpg":      "jpg",
		"images/notes.txt":      "",
	}, func(doc *config.Document) {
		doc.Entries[config.ClassImg] = []config.DirectoryTaskConfig{{Src: "images/", Dest: "public/img/"}}
		doc.Tools[ToolPNG] = config.Tool{Name: ToolPNG}
		doc.Tools[ToolSVG] = config.Tool{Name: ToolSVG, Command: []string{
			"/bin/sh", "-c", `printf 'optimized' > "$0"`, "{out}",
		}}
	})

	// --- Act ---
	err := f.run(t, config.ClassImg, "0")

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, "png", f.read(t, "public/img/logo.png"), "an empty command copies")
	assert.Equal(t, "optimized", f.read(t, "public/img/icons/home.svg"))
	assert.Equal(t, "jpg", f.read(t, "public/img/photo.jpg"), "a missing default optimizer copies")
	assert.False(t, f.exists("public/img/notes.txt"))
}

// fakeTool installs an executable shell script named name in a fresh PATH.
func fakeTool(t *testing.T, name, script string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("#!/bin/sh\n"+script+"\n"), 0o755))
	t.Setenv("PATH", dir)
}

func TestImages_PNGNotSmaller(t *testing.T) {
	tests := []struct {
		name    string
		exit    string
		wantErr bool
	}{
		{name: "not smaller is copied", exit: "98"},
		{name: "below quality floor is copied", exit: "99"},
		{name: "other failures fail the task", exit: "1", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// --- Arrange ---
			fakeTool(t, "pngquant", "exit "+tc.exit)
			f := newFixture(t, map[string]string{"images/logo.png": "already small"}, func(doc *config.Document) {
				doc.Entries[config.ClassImg] = []config.DirectoryTaskConfig{{Src: "images/", Dest: "public/img/"}}
			})

			// --- Act ---
			err := f.run(t, config.ClassImg, "0")

			// --- Assert ---
			if tc.wantErr {
				assert.ErrorContains(t, err, "optimizing logo.png")
				assert.False(t, f.exists("public/img/logo.png"))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "already small", f.read(t, "public/img/logo.png"))
		})
	}
}

func TestImages_ConfiguredToolMissing(t *testing.T) {
	f := newFixture(t, map[string]string{"images/a.gif": ""}, func(doc *config.Document) {
		doc.Entries[config.ClassImg] = []config.DirectoryTaskConfig{{Src: "images/", Dest: "img/"}}
		doc.Tools[ToolGIF] = config.Tool{Name: ToolGIF, Command: []string{"assetgrid-no-such-gifsicle", "{src}"}}
	})

	err := f.run(t, config.ClassImg, "0")

	assert.ErrorIs(t, err, ErrToolNotFound)
}

func TestCopyFile_SameFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.png")
	require.NoError(t, os.WriteFile(p, []byte("data"), 0o644))

	require.NoError(t, copyFile(p, p))

	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "data", string(b))
}
