package plan

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/specialistvlad/assetgrid/internal/config"
	"github.com/specialistvlad/assetgrid/internal/ctxlog"
)

// assignIDs gives every surviving entry without an explicit identifier a
// positional one: "<i>:<basename>" for script files, "<i>" otherwise.
// Identifiers are unique per class; a later entry reusing an identifier is
// dropped.
func (n *normalizer) assignIDs(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)

	for _, class := range []config.AssetClass{config.ClassCSS, config.ClassImg} {
		seen := make(map[string]struct{})
		var kept []config.DirectoryTaskConfig
		for i, d := range n.plan.dirs[class] {
			if d.ID == "" {
				d.ID = strconv.Itoa(i)
			}
			if _, dup := seen[d.ID]; dup {
				n.duplicate(logger, class, d.ID, d.Src)
				continue
			}
			seen[d.ID] = struct{}{}
			kept = append(kept, d)
		}
		n.plan.dirs[class] = kept
	}

	seen := make(map[string]struct{})
	var kept []FileTaskConfig
	for i, f := range n.plan.files {
		if f.ID == "" {
			f.ID = strconv.Itoa(i) + ":" + Basename(f.SourceFile)
		}
		if _, dup := seen[f.ID]; dup {
			n.duplicate(logger, config.ClassJS, f.ID, f.SourceFile)
			continue
		}
		seen[f.ID] = struct{}{}
		kept = append(kept, f)
	}
	n.plan.files = kept
}

func (n *normalizer) duplicate(logger *slog.Logger, class config.AssetClass, id, src string) {
	msg := fmt.Sprintf("duplicate %s task id %q, entry for '%s' skipped", class, id, src)
	logger.Warn(msg)
	n.diag(Diagnostic{Kind: DiagDuplicateID, Class: class, Path: src, Message: msg})
}
