package plan

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/specialistvlad/assetgrid/internal/config"
	"github.com/specialistvlad/assetgrid/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDoc(root string, entries map[config.AssetClass][]config.DirectoryTaskConfig) *config.Document {
	doc := config.NewDocument(root)
	for class, e := range entries {
		doc.Entries[class] = e
	}
	return doc
}

func TestNormalize_PerFileExpansion(t *testing.T) {
	// --- Arrange ---
	ctx, _ := testutil.Context(t)
	root := testutil.Project(t, map[string]string{
		"webroot/other/x.js":      "",
		"webroot/js_dev/a.js":     "",
		"webroot/js_dev/b.js":     "",
		"webroot/js_dev/c.css":    "",
		"webroot/js_dev/lib/":     "",
		"webroot/js_dev/lib/d.js": "",
	})
	doc := newDoc(root, map[config.AssetClass][]config.DirectoryTaskConfig{
		config.ClassJS: {
			{Src: "webroot/other/", Dest: "webroot/js/other/"},
			{Src: "webroot/js_dev/", Dest: "webroot/js/", Watch: config.WatchAll},
		},
	})

	// --- Act ---
	p, err := Normalize(ctx, doc)

	// --- Assert ---
	require.NoError(t, err)
	want := []FileTaskConfig{
		{SourceFile: "webroot/other/x.js", Dest: "webroot/js/other/", Watch: config.WatchEntry, SourceDir: "webroot/other/", GroupIndex: 0, ID: "0:x"},
		{SourceFile: "webroot/js_dev/a.js", Dest: "webroot/js/", Watch: config.WatchAll, SourceDir: "webroot/js_dev/", GroupIndex: 1, ID: "1:a"},
		{SourceFile: "webroot/js_dev/b.js", Dest: "webroot/js/", Watch: config.WatchAll, SourceDir: "webroot/js_dev/", GroupIndex: 1, ID: "2:b"},
	}
	if diff := cmp.Diff(want, p.Files()); diff != "" {
		t.Errorf("file configs mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"0:x", "1:a", "2:b"}, p.IDs(config.ClassJS))
}

func TestNormalize_RecursiveExpansion(t *testing.T) {
	ctx, _ := testutil.Context(t)
	root := testutil.Project(t, map[string]string{
		"js_dev/a.js":     "",
		"js_dev/lib/b.js": "",
	})
	doc := newDoc(root, map[config.AssetClass][]config.DirectoryTaskConfig{
		config.ClassJS: {{Src: "js_dev/", Dest: "js/", Recursive: true}},
	})

	p, err := Normalize(ctx, doc)

	require.NoError(t, err)
	assert.Equal(t, []string{"0:a", "1:b"}, p.IDs(config.ClassJS))
	spec, ok := p.Spec(config.ClassJS, "1:b")
	require.True(t, ok)
	assert.Equal(t, "js_dev/lib/b.js", spec.Src)
}

func TestNormalize_PruningSafety(t *testing.T) {
	// --- Arrange ---
	ctx, logs := testutil.Context(t)
	root := testutil.Project(t, map[string]string{
		"webroot/sass/main.scss": "",
	})
	doc := newDoc(root, map[config.AssetClass][]config.DirectoryTaskConfig{
		config.ClassCSS: {
			{Src: "webroot/sass/", Dest: "webroot/css/"},
			{Src: "webroot/less/", Dest: "webroot/css/less/"},
		},
		config.ClassJS: {
			{Src: "webroot/less/", Dest: "webroot/js/"},
		},
		config.ClassImg: {
			{Src: "webroot/less/", Dest: "webroot/img/"},
			{Src: "webroot/pics/", Dest: "webroot/img/"},
		},
	})

	// --- Act ---
	p, err := Normalize(ctx, doc)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, []string{"0"}, p.IDs(config.ClassCSS))
	assert.Empty(t, p.Specs(config.ClassJS))
	assert.Empty(t, p.Specs(config.ClassImg))
	assert.Equal(t, []string{"webroot/less/", "webroot/pics/"}, p.Missing())
	assert.Equal(t, 1, logs.Count("Directory not found: 'webroot/less/'"))

	var missing []string
	for _, d := range p.Diagnostics() {
		if d.Kind == DiagMissingPath {
			missing = append(missing, d.Path)
		}
	}
	assert.Equal(t, []string{"webroot/less/", "webroot/pics/"}, missing)
}

func TestNormalize_Idempotent(t *testing.T) {
	ctx, _ := testutil.Context(t)
	root := testutil.Project(t, map[string]string{
		"a/sass/x.scss":   "",
		"b/sass/y.scss":   "",
		"a/js_dev/m.js":   "",
		"a/js_dev/n.js":   "",
		"c/images/p.png":  "",
		"node_modules/z/": "",
	})
	doc := newDoc(root, map[config.AssetClass][]config.DirectoryTaskConfig{
		config.ClassImg: {{Src: "c/images/", Dest: "c/images/"}},
	})
	doc.Settings.SmartFind = true

	first, err := Normalize(ctx, doc)
	require.NoError(t, err)
	second, err := Normalize(ctx, doc)
	require.NoError(t, err)

	for _, class := range config.Classes {
		assert.Equal(t, first.IDs(class), second.IDs(class), "class %s", class)
	}
	assert.Equal(t, first.AllSpecs(), second.AllSpecs())
	assert.Empty(t, doc.Entries[config.ClassCSS], "the document must not be mutated")
}

func TestNormalize_SmartFind(t *testing.T) {
	// --- Arrange ---
	ctx, _ := testutil.Context(t)
	root := testutil.Project(t, map[string]string{
		"webroot/sass/main.scss":            "",
		"themes/sass/theme.scss":            "",
		"webroot/js_dev/app.js":             "",
		"node_modules/pkg/sass/x.scss":      "",
		"webroot/components/sass/c.scss":    "",
		"webroot/js_dev/nested/js_dev/q.js": "",
	})
	doc := newDoc(root, map[config.AssetClass][]config.DirectoryTaskConfig{
		config.ClassCSS: {{Src: "webroot/sass", Dest: "public/css/", ID: "site"}},
	})
	doc.Settings.SmartFind = true

	// --- Act ---
	p, err := Normalize(ctx, doc)

	// --- Assert ---
	require.NoError(t, err)
	wantCSS := []config.DirectoryTaskConfig{
		{Src: "webroot/sass", Dest: "public/css/", ID: "site"},
		{Src: "themes/sass/", Dest: "themes/css/", ID: "1"},
	}
	if diff := cmp.Diff(wantCSS, p.Directories(config.ClassCSS)); diff != "" {
		t.Errorf("css directories mismatch (-want +got):\n%s", diff)
	}
	wantJS := []config.DirectoryTaskConfig{
		{Src: "webroot/js_dev/", Dest: "webroot/js/"},
	}
	if diff := cmp.Diff(wantJS, p.Directories(config.ClassJS)); diff != "" {
		t.Errorf("js directories mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"0:app"}, p.IDs(config.ClassJS))
}

func TestNormalize_SmartFindNothingFound(t *testing.T) {
	ctx, _ := testutil.Context(t)
	root := testutil.Project(t, map[string]string{"README.md": ""})
	doc := newDoc(root, nil)
	doc.Settings.SmartFind = true

	p, err := Normalize(ctx, doc)

	require.NoError(t, err)
	assert.Empty(t, p.AllSpecs())
	var kinds []DiagnosticKind
	for _, d := range p.Diagnostics() {
		kinds = append(kinds, d.Kind)
	}
	assert.Equal(t, []DiagnosticKind{DiagNoDirectories, DiagNoDirectories}, kinds)
}

func TestNormalize_Identifiers(t *testing.T) {
	ctx, _ := testutil.Context(t)
	root := testutil.Project(t, map[string]string{
		"s1/a.scss":       "",
		"s2/b.scss":       "",
		"s3/c.scss":       "",
		"js_dev/app.js":   "",
		"js_dev/admin.js": "",
		"img/logo.png":    "",
	})
	doc := newDoc(root, map[config.AssetClass][]config.DirectoryTaskConfig{
		config.ClassCSS: {
			{Src: "s1/", Dest: "out1/"},
			{Src: "s2/", Dest: "out2/", ID: "theme"},
			{Src: "s3/", Dest: "out3/", ID: "theme"},
		},
		config.ClassJS: {
			{Src: "js_dev/", Dest: "js/", ID: "site"},
		},
		config.ClassImg: {
			{Src: "img/", Dest: "img/"},
		},
	})

	p, err := Normalize(ctx, doc)

	require.NoError(t, err)
	assert.Equal(t, []string{"0", "theme"}, p.IDs(config.ClassCSS), "the later duplicate is dropped")
	assert.Equal(t, []string{"site:admin", "site:app"}, p.IDs(config.ClassJS))
	assert.Equal(t, []string{"0"}, p.IDs(config.ClassImg), "ids are unique per class only")

	var dups int
	for _, d := range p.Diagnostics() {
		if d.Kind == DiagDuplicateID {
			dups++
		}
	}
	assert.Equal(t, 1, dups)
}

func TestNormalize_PreCheckAndNoFiles(t *testing.T) {
	ctx, logs := testutil.Context(t)
	root := testutil.Project(t, map[string]string{
		"js_dev/app.js": "",
		"empty/":        "",
	})
	doc := newDoc(root, map[config.AssetClass][]config.DirectoryTaskConfig{
		config.ClassJS: {
			{Src: "js_dev/", Dest: "js/"},
			{Src: "empty/", Dest: "js/empty/"},
		},
	})
	doc.Settings.LintJS = true

	p, err := Normalize(ctx, doc)

	require.NoError(t, err)
	specs := p.Specs(config.ClassJS)
	require.Len(t, specs, 1)
	assert.True(t, specs[0].PreCheck)
	assert.Equal(t, "js_dev/", specs[0].SourceDir)
	assert.Contains(t, logs.String(), "No files found in directory 'empty/'.")
	assert.Len(t, p.Directories(config.ClassJS), 2, "an empty directory still shows in the snapshot")
}

func TestBuildPlan_Snapshot(t *testing.T) {
	ctx, _ := testutil.Context(t)
	root := testutil.Project(t, map[string]string{
		"sass/a.scss":  "",
		"js_dev/a.js":  "",
		"js_dev/b.js":  "",
		"images/x.png": "",
	})
	doc := newDoc(root, map[config.AssetClass][]config.DirectoryTaskConfig{
		config.ClassCSS: {{Src: "sass/", Dest: "css/"}},
		config.ClassJS:  {{Src: "js_dev/", Dest: "js/"}},
		config.ClassImg: {{Src: "images/", Dest: "images/"}},
	})

	p, err := Normalize(ctx, doc)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"css: sass/ => css/",
		"js: js_dev/ => js/",
		"img: images/ => images/",
	}, p.Snapshot())
}

func TestBasename(t *testing.T) {
	tests := map[string]string{
		"webroot/js_dev/app.js":     "app",
		`webroot\js_dev\app.min.js`: "app.min",
		"app":                       "app",
		".eslintrc":                 ".eslintrc",
	}
	for in, want := range tests {
		assert.Equal(t, want, Basename(in), in)
	}
}
