package hcl_adapter

import "github.com/hashicorp/hcl/v2"

// fileRoot is a struct used to decode all possible top-level blocks from a file.
type fileRoot struct {
	Settings *Settings `hcl:"settings,block"`
	CSS      []*Entry  `hcl:"css,block"`
	JS       []*Entry  `hcl:"js,block"`
	Img      []*Entry  `hcl:"img,block"`
	Tools    []*Tool   `hcl:"tool,block"`
	Remain   hcl.Body  `hcl:",remain"`
}

// Settings is the HCL schema of the `settings` block.
type Settings struct {
	SmartFind    *bool `hcl:"smartFind,optional"`
	MinifyCSS    *bool `hcl:"minifyCSS,optional"`
	MinifyJS     *bool `hcl:"minifyJS,optional"`
	SourcemapCSS *bool `hcl:"sourcemapCSS,optional"`
	LintJS       *bool `hcl:"lintJS,optional"`

	WatchDelay       *string  `hcl:"watchDelay,optional"`
	Exclude          []string `hcl:"exclude,optional"`
	StyleSourceDir   *string  `hcl:"styleSourceDir,optional"`
	StyleOutputDir   *string  `hcl:"styleOutputDir,optional"`
	ScriptSourceDir  *string  `hcl:"scriptSourceDir,optional"`
	ScriptOutputDir  *string  `hcl:"scriptOutputDir,optional"`
	ScriptExtensions []string `hcl:"scriptExtensions,optional"`
}

// Entry is the HCL schema of one `css`, `js` or `img` block.
type Entry struct {
	Src       string  `hcl:"src"`
	Dest      string  `hcl:"dest"`
	Watch     *string `hcl:"watch,optional"`
	ID        *string `hcl:"id,optional"`
	Recursive *bool   `hcl:"recursive,optional"`
}

// Tool is the HCL schema of a `tool "<name>"` block.
type Tool struct {
	Name    string   `hcl:"name,label"`
	Command []string `hcl:"command"`
}
