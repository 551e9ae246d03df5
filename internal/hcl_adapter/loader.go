package hcl_adapter

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/assetgrid/internal/config"
	"github.com/specialistvlad/assetgrid/internal/ctxlog"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses the document at path and translates it into the agnostic
// model. Files ending in .json are read with the HCL JSON syntax. The project
// root is the directory containing the document.
func (l *Loader) Load(ctx context.Context, path string) (*config.Document, error) {
	logger := ctxlog.FromContext(ctx).With("path", path)
	logger.Debug("HCL loader started.")

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving config path %s: %w", path, err)
	}
	root := filepath.Dir(absPath)

	parser := hclparse.NewParser()
	var file *hcl.File
	var diags hcl.Diagnostics
	if strings.EqualFold(filepath.Ext(absPath), ".json") {
		file, diags = parser.ParseJSONFile(absPath)
	} else {
		file, diags = parser.ParseHCLFile(absPath)
	}
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, diags)
	}

	evalCtx, err := buildEvalContext(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare evaluation context for %s: %w", path, err)
	}

	var fr fileRoot
	if diags := gohcl.DecodeBody(file.Body, evalCtx, &fr); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode config file %s: %w", path, diags)
	}

	doc, err := l.translate(ctx, &fr, root)
	if err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	doc.Path = absPath

	logger.Debug("HCL loading complete.",
		"css", len(doc.Entries[config.ClassCSS]),
		"js", len(doc.Entries[config.ClassJS]),
		"img", len(doc.Entries[config.ClassImg]),
		"tools", len(doc.Tools))
	return doc, nil
}
