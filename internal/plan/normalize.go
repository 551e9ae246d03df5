package plan

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/specialistvlad/assetgrid/internal/config"
	"github.com/specialistvlad/assetgrid/internal/ctxlog"
	"github.com/specialistvlad/assetgrid/internal/fsutil"
)

// discoveryRule maps a source directory convention to its output convention.
type discoveryRule struct {
	class  config.AssetClass
	source string
	output string
}

// Normalize expands a document into a BuildPlan: smart discovery, directory
// probing, per-file script expansion and identifier assignment. Nothing in
// it is fatal; omitted entries are reported through Diagnostics.
func Normalize(ctx context.Context, doc *config.Document) (*BuildPlan, error) {
	if doc == nil {
		return nil, errors.New("normalize: nil document")
	}
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Normalizing configuration.", "root", doc.Root)

	n := &normalizer{
		doc:    doc,
		prober: fsutil.NewProber(doc.Root),
		plan: &BuildPlan{
			root:     doc.Root,
			settings: doc.Settings,
			tools:    make(map[string]config.Tool, len(doc.Tools)),
			dirs:     make(map[config.AssetClass][]config.DirectoryTaskConfig),
			specs:    make(map[config.AssetClass][]TaskSpec),
		},
	}
	for name, tool := range doc.Tools {
		n.plan.tools[name] = config.Tool{Name: tool.Name, Command: slices.Clone(tool.Command)}
	}

	entries := make(map[config.AssetClass][]config.DirectoryTaskConfig, len(config.Classes))
	for _, class := range config.Classes {
		entries[class] = slices.Clone(doc.Entries[class])
	}

	if doc.Settings.SmartFind {
		n.discover(ctx, entries)
	}

	for _, class := range config.Classes {
		n.probe(ctx, class, entries[class])
	}

	n.expandScripts(ctx)
	n.assignIDs(ctx)
	n.buildSpecs()

	n.plan.missing = n.prober.Missing()
	for _, missing := range n.plan.missing {
		msg := fmt.Sprintf("Directory not found: '%s'", missing)
		logger.Warn(msg)
		n.diag(Diagnostic{Kind: DiagMissingPath, Path: missing, Message: msg})
	}

	logger.Debug("Normalization complete.",
		"css", len(n.plan.specs[config.ClassCSS]),
		"js", len(n.plan.specs[config.ClassJS]),
		"img", len(n.plan.specs[config.ClassImg]),
		"missing", len(n.plan.missing))
	return n.plan, nil
}

type normalizer struct {
	doc    *config.Document
	prober *fsutil.Prober
	plan   *BuildPlan
	// groupIndex maps a surviving script directory to its position in the
	// configured-plus-discovered list.
	groupIndex []int
}

func (n *normalizer) diag(d Diagnostic) {
	n.plan.diagnostics = append(n.plan.diagnostics, d)
}

// discover appends one entry per convention directory that is not already
// configured as a src of the same class.
func (n *normalizer) discover(ctx context.Context, entries map[config.AssetClass][]config.DirectoryTaskConfig) {
	logger := ctxlog.FromContext(ctx)
	s := n.doc.Settings

	d, err := fsutil.NewDiscoverer(n.doc.Root, s.Exclude...)
	if err != nil {
		logger.Warn("Smart discovery disabled.", "error", err)
		n.diag(Diagnostic{Kind: DiagDiscoveryError, Message: err.Error()})
		return
	}

	rules := []discoveryRule{
		{class: config.ClassCSS, source: s.StyleSourceDir, output: s.StyleOutputDir},
		{class: config.ClassJS, source: s.ScriptSourceDir, output: s.ScriptOutputDir},
	}
	for _, rule := range rules {
		found, err := d.Find(ctx, rule.source, "")
		if err != nil {
			logger.Warn("Directory discovery failed.", "class", rule.class, "error", err)
			n.diag(Diagnostic{Kind: DiagDiscoveryError, Class: rule.class, Message: err.Error()})
			continue
		}
		if len(found) == 0 {
			n.diag(Diagnostic{
				Kind:    DiagNoDirectories,
				Class:   rule.class,
				Path:    rule.source,
				Message: fmt.Sprintf("no directories found by the name '%s'", rule.source),
			})
			continue
		}
		for _, dir := range found {
			if configured(entries[rule.class], dir) {
				continue
			}
			entry := config.DirectoryTaskConfig{
				Src:  fsutil.WithTrailingSlash(dir),
				Dest: fsutil.WithTrailingSlash(outputDir(dir, rule.output)),
			}
			logger.Debug("Discovered source directory.", "class", rule.class, "src", entry.Src, "dest", entry.Dest)
			entries[rule.class] = append(entries[rule.class], entry)
		}
	}
}

// probe keeps the entries whose src exists.
func (n *normalizer) probe(ctx context.Context, class config.AssetClass, entries []config.DirectoryTaskConfig) {
	var kept []config.DirectoryTaskConfig
	for i, e := range entries {
		if !n.prober.Exists(e.Src) {
			continue
		}
		kept = append(kept, e)
		if class == config.ClassJS {
			n.groupIndex = append(n.groupIndex, i)
		}
	}
	ctxlog.FromContext(ctx).Debug("Probed directories.", "class", class, "kept", len(kept), "configured", len(entries))
	n.plan.dirs[class] = kept
}

// expandScripts replaces every script directory entry with one file config
// per script found inside it.
func (n *normalizer) expandScripts(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)
	extensions := n.doc.Settings.ScriptExtensions
	if len(extensions) == 0 {
		extensions = config.DefaultSettings().ScriptExtensions
	}

	for i, dir := range n.plan.dirs[config.ClassJS] {
		abs := fsutil.Resolve(n.doc.Root, dir.Src)
		files, err := fsutil.ListFiles(abs, extensions, dir.Recursive)
		if err != nil {
			logger.Warn("Cannot list script directory.", "src", dir.Src, "error", err)
			n.diag(Diagnostic{Kind: DiagNoFiles, Class: config.ClassJS, Path: dir.Src, Message: err.Error()})
			continue
		}
		if len(files) == 0 {
			logger.Info(fmt.Sprintf("No files found in directory '%s'.", dir.Src))
			n.diag(Diagnostic{
				Kind:    DiagNoFiles,
				Class:   config.ClassJS,
				Path:    dir.Src,
				Message: fmt.Sprintf("no files found in directory '%s'", dir.Src),
			})
			continue
		}

		watch := dir.Watch
		if watch == config.WatchUnset {
			watch = config.WatchEntry
		}
		for _, f := range files {
			rel, err := filepath.Rel(abs, filepath.FromSlash(f))
			if err != nil {
				continue
			}
			sourceFile := fsutil.WithTrailingSlash(dir.Src) + fsutil.ToSlash(rel)
			if !n.prober.Exists(sourceFile) {
				continue
			}
			fc := FileTaskConfig{
				SourceFile: sourceFile,
				Dest:       dir.Dest,
				Watch:      watch,
				SourceDir:  dir.Src,
				GroupIndex: n.groupIndex[i],
			}
			if dir.ID != "" {
				fc.ID = dir.ID + ":" + Basename(sourceFile)
			}
			n.plan.files = append(n.plan.files, fc)
		}
	}
}

// buildSpecs derives the task specs from the surviving entries.
func (n *normalizer) buildSpecs() {
	for _, class := range []config.AssetClass{config.ClassCSS, config.ClassImg} {
		for _, d := range n.plan.dirs[class] {
			n.plan.specs[class] = append(n.plan.specs[class], TaskSpec{
				Class: class,
				ID:    d.ID,
				Src:   d.Src,
				Dest:  d.Dest,
			})
		}
	}
	for _, f := range n.plan.files {
		n.plan.specs[config.ClassJS] = append(n.plan.specs[config.ClassJS], TaskSpec{
			Class:     config.ClassJS,
			ID:        f.ID,
			Src:       f.SourceFile,
			Dest:      f.Dest,
			PreCheck:  n.doc.Settings.LintJS,
			Watch:     f.Watch,
			SourceDir: f.SourceDir,
		})
	}
}

// configured reports whether dir is already a src in entries.
func configured(entries []config.DirectoryTaskConfig, dir string) bool {
	for _, e := range entries {
		if fsutil.SameDir(e.Src, dir) {
			return true
		}
	}
	return false
}

// outputDir swaps the discovered leaf segment for the output convention.
func outputDir(dir, output string) string {
	parent := path.Dir(dir)
	if parent == "." {
		return output
	}
	return parent + "/" + output
}

// Basename strips the directory and the last extension from a path.
func Basename(p string) string {
	base := path.Base(fsutil.ToSlash(p))
	if ext := path.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}
