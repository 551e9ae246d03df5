package plan

import (
	"slices"

	"github.com/specialistvlad/assetgrid/internal/config"
)

// FileTaskConfig is one script source file expanded from a directory entry.
type FileTaskConfig struct {
	SourceFile string
	Dest       string
	Watch      config.WatchMode
	// SourceDir is the Src of the originating directory entry.
	SourceDir string
	// GroupIndex is the position of the originating directory entry. It is
	// only meaningful within one process.
	GroupIndex int
	ID         string
}

// TaskSpec is the uniform description of one buildable unit.
type TaskSpec struct {
	Class config.AssetClass
	ID    string
	Src   string
	Dest  string
	// PreCheck is set when a lint task must run before the transform.
	PreCheck bool
	// Watch and SourceDir are only set for scripts.
	Watch     config.WatchMode
	SourceDir string
}

// DiagnosticKind classifies a non-fatal normalization problem.
type DiagnosticKind string

const (
	DiagMissingPath    DiagnosticKind = "missing_path"
	DiagNoFiles        DiagnosticKind = "no_files"
	DiagNoDirectories  DiagnosticKind = "no_directories"
	DiagDuplicateID    DiagnosticKind = "duplicate_id"
	DiagDiscoveryError DiagnosticKind = "discovery_error"
)

// Diagnostic records an entry that was omitted or a lookup that came back
// empty.
type Diagnostic struct {
	Kind    DiagnosticKind
	Class   config.AssetClass
	Path    string
	Message string
}

// BuildPlan is the immutable result of normalizing a document. All
// accessors return copies.
type BuildPlan struct {
	root        string
	settings    config.Settings
	tools       map[string]config.Tool
	dirs        map[config.AssetClass][]config.DirectoryTaskConfig
	files       []FileTaskConfig
	specs       map[config.AssetClass][]TaskSpec
	missing     []string
	diagnostics []Diagnostic
}

// Root returns the absolute project root.
func (p *BuildPlan) Root() string { return p.root }

// Settings returns the document settings.
func (p *BuildPlan) Settings() config.Settings {
	s := p.settings
	s.Exclude = slices.Clone(s.Exclude)
	s.ScriptExtensions = slices.Clone(s.ScriptExtensions)
	return s
}

// Tool returns the configured override for a tool, if any.
func (p *BuildPlan) Tool(name string) (config.Tool, bool) {
	t, ok := p.tools[name]
	if ok {
		t.Command = slices.Clone(t.Command)
	}
	return t, ok
}

// Directories returns the surviving directory entries of a class, with
// identifiers assigned for style and image entries.
func (p *BuildPlan) Directories(class config.AssetClass) []config.DirectoryTaskConfig {
	return slices.Clone(p.dirs[class])
}

// Files returns the expanded script file configs.
func (p *BuildPlan) Files() []FileTaskConfig {
	return slices.Clone(p.files)
}

// Specs returns the task specs of one class in registration order.
func (p *BuildPlan) Specs(class config.AssetClass) []TaskSpec {
	return slices.Clone(p.specs[class])
}

// AllSpecs returns the task specs of every class, class by class.
func (p *BuildPlan) AllSpecs() []TaskSpec {
	var all []TaskSpec
	for _, class := range config.Classes {
		all = append(all, p.specs[class]...)
	}
	return all
}

// Spec looks up a task spec by class and identifier.
func (p *BuildPlan) Spec(class config.AssetClass, id string) (TaskSpec, bool) {
	for _, s := range p.specs[class] {
		if s.ID == id {
			return s, true
		}
	}
	return TaskSpec{}, false
}

// Missing returns the deduplicated source paths that did not exist.
func (p *BuildPlan) Missing() []string {
	return slices.Clone(p.missing)
}

// Diagnostics returns every non-fatal problem found while normalizing.
func (p *BuildPlan) Diagnostics() []Diagnostic {
	return slices.Clone(p.diagnostics)
}

// IDs returns the task identifiers of a class in registration order.
func (p *BuildPlan) IDs(class config.AssetClass) []string {
	ids := make([]string, 0, len(p.specs[class]))
	for _, s := range p.specs[class] {
		ids = append(ids, s.ID)
	}
	return ids
}

// Snapshot renders the resolved source to destination mapping, one line per
// directory entry. Scripts are shown per directory, not per file.
func (p *BuildPlan) Snapshot() []string {
	lines := []string{}
	for _, class := range config.Classes {
		for _, d := range p.dirs[class] {
			lines = append(lines, string(class)+": "+d.Src+" => "+d.Dest)
		}
	}
	return lines
}
