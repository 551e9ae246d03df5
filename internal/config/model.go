package config

import (
	"fmt"
	"time"
)

// AssetClass names one of the build domains handled uniformly by the
// orchestrator.
type AssetClass string

const (
	ClassCSS AssetClass = "css"
	ClassJS  AssetClass = "js"
	ClassImg AssetClass = "img"
)

// Classes lists every asset class in the order tasks are registered,
// planned and printed.
var Classes = []AssetClass{ClassCSS, ClassJS, ClassImg}

// ParseAssetClass validates a class name coming from the command line.
func ParseAssetClass(s string) (AssetClass, error) {
	for _, c := range Classes {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown asset class %q", s)
}

// WatchMode selects what triggers a script rebuild in watch mode.
type WatchMode string

const (
	// WatchUnset means the entry did not specify a mode.
	WatchUnset WatchMode = ""
	// WatchEntry rebuilds a script only when its own file changes.
	WatchEntry WatchMode = "entry"
	// WatchAll rebuilds every script of a directory when any script file
	// below it changes.
	WatchAll WatchMode = "all"
)

// ParseWatchMode validates the `watch` attribute of an entry.
func ParseWatchMode(s string) (WatchMode, error) {
	switch WatchMode(s) {
	case WatchUnset, WatchEntry, WatchAll:
		return WatchMode(s), nil
	}
	return "", fmt.Errorf("invalid watch mode %q: must be 'entry' or 'all'", s)
}

// Document is the unified, format-agnostic representation of one
// configuration file.
type Document struct {
	// Path is the file the document was read from.
	Path string
	// Root is the absolute project root; every src and dest is relative to it.
	Root     string
	Settings Settings
	// Entries holds the directory-level task configs of each class in
	// document order.
	Entries map[AssetClass][]DirectoryTaskConfig
	// Tools overrides the default external command of a transform, keyed by
	// tool name (css, js, lint, png, jpg, gif, svg).
	Tools map[string]Tool
}

// Settings holds the global flags of a document.
type Settings struct {
	SmartFind    bool
	MinifyCSS    bool
	MinifyJS     bool
	SourcemapCSS bool
	LintJS       bool

	// WatchDelay is the quiet period before a watch group rebuilds.
	WatchDelay time.Duration
	// Exclude adds gitignore-style patterns to the discovery exclusion set.
	Exclude []string

	StyleSourceDir   string
	StyleOutputDir   string
	ScriptSourceDir  string
	ScriptOutputDir  string
	ScriptExtensions []string
}

// DirectoryTaskConfig is one source to destination directory mapping.
type DirectoryTaskConfig struct {
	Src   string
	Dest  string
	Watch WatchMode
	// ID is empty unless the document set one explicitly.
	ID string
	// Recursive expands script files below Src at any depth.
	Recursive bool
}

// Tool is an external command template.
type Tool struct {
	Name    string
	Command []string
}

// DefaultSettings returns the settings used for anything a document does not
// specify.
func DefaultSettings() Settings {
	return Settings{
		WatchDelay:       500 * time.Millisecond,
		StyleSourceDir:   "sass",
		StyleOutputDir:   "css",
		ScriptSourceDir:  "js_dev",
		ScriptOutputDir:  "js",
		ScriptExtensions: []string{".js"},
	}
}

// NewDocument returns an empty document rooted at root.
func NewDocument(root string) *Document {
	return &Document{
		Root:     root,
		Settings: DefaultSettings(),
		Entries:  make(map[AssetClass][]DirectoryTaskConfig),
		Tools:    make(map[string]Tool),
	}
}
