package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/specialistvlad/assetgrid/internal/dag"
	"github.com/specialistvlad/assetgrid/internal/runner"
)

var (
	okMark   = color.New(color.FgGreen).SprintFunc()
	skipMark = color.New(color.FgYellow).SprintFunc()
)

// Build runs the named tasks or aggregates once. Every task runs to
// completion or is skipped; the returned error is non-nil when any of them
// failed.
func (a *App) Build(ctx context.Context, targets ...string) (*dag.Report, error) {
	ctx = a.Context(ctx)
	if len(targets) == 0 {
		targets = []string{"build"}
	}
	a.logger.Info("Starting build.", "targets", targets)
	start := time.Now()

	report, err := a.executor.Run(ctx, targets...)
	if err != nil {
		return nil, fmt.Errorf("failed to schedule build: %w", err)
	}
	a.printSummary(report)

	if err := report.Err(); err != nil {
		a.logger.Error("Build finished with failures.", "failed", len(report.Failed()), "skipped", len(report.Skipped()))
		return report, err
	}
	a.logger.Info("Build finished.", "tasks", len(report.Results), "duration", time.Since(start).Round(time.Millisecond))
	return report, nil
}

func (a *App) printSummary(report *dag.Report) {
	for _, res := range report.Results {
		switch res.Status {
		case runner.StatusOK:
			fmt.Fprintf(a.outW, "%s %s (%s)\n", okMark("✔"), res.Task, res.Duration.Round(time.Millisecond))
		case runner.StatusSkipped:
			fmt.Fprintf(a.outW, "%s %s: %v\n", skipMark("-"), res.Task, res.Err)
		default:
			fmt.Fprintln(a.outW, runner.FormatFailure(res.Task, res.Err))
		}
	}
}

// Snapshot writes the resolved source to destination mapping as a JSON
// array.
func (a *App) Snapshot(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(a.plan.Snapshot()); err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return nil
}
