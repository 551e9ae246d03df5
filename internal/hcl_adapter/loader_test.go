package hcl_adapter

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/specialistvlad/assetgrid/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_HCL(t *testing.T) {
	// --- Arrange ---
	dir := t.TempDir()
	t.Setenv("ASSETGRID_TEST_OUT", "public")
	path := writeFile(t, dir, "assetgrid.hcl", `
		settings {
			smartFind  = true
			minifyCSS  = true
			lintJS     = true
			watchDelay = "250ms"
			exclude    = ["dist"]
		}

		css {
			src  = "webroot/sass/"
			dest = "${env.ASSETGRID_TEST_OUT}/css/"
		}

		js {
			src   = "webroot/js_dev/"
			dest  = "webroot/js/"
			watch = "all"
			id    = "main"
		}

		img {
			src  = "webroot/images/"
			dest = upper("out/")
		}

		tool "js" {
			command = ["esbuild", "{src}", "--bundle", "--outfile={out}"]
		}
	`)

	// --- Act ---
	doc, err := NewLoader().Load(context.Background(), path)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, dir, doc.Root)
	assert.Equal(t, path, doc.Path)

	assert.True(t, doc.Settings.SmartFind)
	assert.True(t, doc.Settings.MinifyCSS)
	assert.False(t, doc.Settings.MinifyJS)
	assert.True(t, doc.Settings.LintJS)
	assert.Equal(t, 250*time.Millisecond, doc.Settings.WatchDelay)
	assert.Equal(t, []string{"dist"}, doc.Settings.Exclude)
	assert.Equal(t, "sass", doc.Settings.StyleSourceDir, "unset settings keep their defaults")

	want := map[config.AssetClass][]config.DirectoryTaskConfig{
		config.ClassCSS: {{Src: "webroot/sass/", Dest: "public/css/"}},
		config.ClassJS:  {{Src: "webroot/js_dev/", Dest: "webroot/js/", Watch: config.WatchAll, ID: "main"}},
		config.ClassImg: {{Src: "webroot/images/", Dest: "OUT/"}},
	}
	if diff := cmp.Diff(want, doc.Entries); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"esbuild", "{src}", "--bundle", "--outfile={out}"}, doc.Tools["js"].Command)
}

func TestLoad_GulpconfigJSON(t *testing.T) {
	// --- Arrange ---
	dir := t.TempDir()
	path := writeFile(t, dir, ".gulpconfig.json", `{
		"settings": {
			"smartFind": false,
			"minifyCSS": true,
			"minifyJS": true,
			"sourcemapCSS": false,
			"lintJS": false
		},
		"css": [
			{"src": "webroot/sass/", "dest": "webroot/css/"}
		],
		"js": [
			{"src": "webroot/js_dev/", "dest": "webroot/js/", "watch": "entry", "id": 7},
			{"src": "webroot/js_dev/pages/", "dest": "webroot/js/pages/"}
		],
		"img": []
	}`)

	// --- Act ---
	doc, err := NewLoader().Load(context.Background(), path)

	// --- Assert ---
	require.NoError(t, err)
	assert.True(t, doc.Settings.MinifyJS)
	require.Len(t, doc.Entries[config.ClassJS], 2)
	assert.Equal(t, "7", doc.Entries[config.ClassJS][0].ID, "numeric ids are converted to strings")
	assert.Equal(t, config.WatchEntry, doc.Entries[config.ClassJS][0].Watch)
	assert.Equal(t, config.WatchUnset, doc.Entries[config.ClassJS][1].Watch)
	assert.Empty(t, doc.Entries[config.ClassImg])
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".env", "ASSETGRID_THEME=dark\n")
	path := writeFile(t, dir, "assetgrid.hcl", `
		css {
			src  = "themes/${env.ASSETGRID_THEME}/sass/"
			dest = "themes/${env.ASSETGRID_THEME}/css/"
		}
	`)

	doc, err := NewLoader().Load(context.Background(), path)

	require.NoError(t, err)
	require.Len(t, doc.Entries[config.ClassCSS], 1)
	assert.Equal(t, "themes/dark/sass/", doc.Entries[config.ClassCSS][0].Src)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{
			name:    "syntax error",
			file:    "assetgrid.hcl",
			content: "css {\n src = \"a/\"\n",
			wantErr: "failed to parse config file",
		},
		{
			name:    "unknown attribute",
			file:    "assetgrid.hcl",
			content: "css {\n src = \"a/\"\n dest = \"b/\"\n colour = \"red\"\n}\n",
			wantErr: "failed to decode config file",
		},
		{
			name:    "invalid watch mode",
			file:    "assetgrid.hcl",
			content: "js {\n src = \"a/\"\n dest = \"b/\"\n watch = \"sometimes\"\n}\n",
			wantErr: "invalid watch mode",
		},
		{
			name:    "invalid delay",
			file:    "assetgrid.hcl",
			content: "settings {\n watchDelay = \"soon\"\n}\n",
			wantErr: "settings.watchDelay",
		},
		{
			name:    "empty tool command",
			file:    "assetgrid.hcl",
			content: "tool \"css\" {\n command = []\n}\n",
			wantErr: "command must not be empty",
		},
		{
			name:    "malformed json",
			file:    "assetgrid.json",
			content: `{"css": [`,
			wantErr: "failed to parse config file",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), tc.file, tc.content)
			_, err := NewLoader().Load(context.Background(), path)
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}
