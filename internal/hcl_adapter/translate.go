// This file contains the logic for translating the HCL schema structs into
// the format-agnostic configuration model defined in the config package.

package hcl_adapter

import (
	"context"
	"fmt"
	"time"

	"github.com/specialistvlad/assetgrid/internal/config"
	"github.com/specialistvlad/assetgrid/internal/ctxlog"
)

// translate converts a decoded file into a config.Document.
func (l *Loader) translate(ctx context.Context, fr *fileRoot, root string) (*config.Document, error) {
	logger := ctxlog.FromContext(ctx)
	doc := config.NewDocument(root)

	if fr.Settings != nil {
		if err := translateSettings(fr.Settings, &doc.Settings); err != nil {
			return nil, err
		}
	} else {
		logger.Debug("No settings block found, using defaults.")
	}

	blocks := map[config.AssetClass][]*Entry{
		config.ClassCSS: fr.CSS,
		config.ClassJS:  fr.JS,
		config.ClassImg: fr.Img,
	}
	for _, class := range config.Classes {
		for i, e := range blocks[class] {
			entry, err := translateEntry(e)
			if err != nil {
				return nil, fmt.Errorf("%s entry %d: %w", class, i, err)
			}
			doc.Entries[class] = append(doc.Entries[class], entry)
		}
	}

	for _, t := range fr.Tools {
		if len(t.Command) == 0 && !imageTools[t.Name] {
			return nil, fmt.Errorf("tool %q: command must not be empty", t.Name)
		}
		if _, exists := doc.Tools[t.Name]; exists {
			logger.Warn("Duplicate tool definition found, it will be overwritten.", "tool", t.Name)
		}
		doc.Tools[t.Name] = config.Tool{Name: t.Name, Command: t.Command}
	}

	return doc, nil
}

// imageTools may be configured with an empty command, which copies the
// images unchanged.
var imageTools = map[string]bool{"png": true, "jpg": true, "gif": true, "svg": true}

func translateSettings(s *Settings, out *config.Settings) error {
	setBool(&out.SmartFind, s.SmartFind)
	setBool(&out.MinifyCSS, s.MinifyCSS)
	setBool(&out.MinifyJS, s.MinifyJS)
	setBool(&out.SourcemapCSS, s.SourcemapCSS)
	setBool(&out.LintJS, s.LintJS)

	if s.WatchDelay != nil {
		d, err := time.ParseDuration(*s.WatchDelay)
		if err != nil {
			return fmt.Errorf("settings.watchDelay: %w", err)
		}
		if d < 0 {
			return fmt.Errorf("settings.watchDelay must not be negative, got %s", d)
		}
		out.WatchDelay = d
	}

	out.Exclude = append(out.Exclude, s.Exclude...)
	setString(&out.StyleSourceDir, s.StyleSourceDir)
	setString(&out.StyleOutputDir, s.StyleOutputDir)
	setString(&out.ScriptSourceDir, s.ScriptSourceDir)
	setString(&out.ScriptOutputDir, s.ScriptOutputDir)
	if len(s.ScriptExtensions) > 0 {
		out.ScriptExtensions = s.ScriptExtensions
	}
	return nil
}

func translateEntry(e *Entry) (config.DirectoryTaskConfig, error) {
	entry := config.DirectoryTaskConfig{Src: e.Src, Dest: e.Dest}
	if e.Src == "" {
		return entry, fmt.Errorf("src must not be empty")
	}
	if e.Watch != nil {
		mode, err := config.ParseWatchMode(*e.Watch)
		if err != nil {
			return entry, err
		}
		entry.Watch = mode
	}
	if e.ID != nil {
		entry.ID = *e.ID
	}
	setBool(&entry.Recursive, e.Recursive)
	return entry, nil
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setString(dst *string, v *string) {
	if v != nil && *v != "" {
		*dst = *v
	}
}
