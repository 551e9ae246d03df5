package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/assetgrid/internal/app"
	"github.com/specialistvlad/assetgrid/internal/config"
	"github.com/specialistvlad/assetgrid/internal/livereload"
	"github.com/spf13/cobra"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

type options struct {
	configPath     string
	logFormat      string
	logLevel       string
	logFile        string
	workers        int
	liveReloadPort int
}

// Execute parses args and runs the selected command. Usage errors are
// returned as an ExitError with code 2, command failures with code 1.
func Execute(ctx context.Context, args []string, outW io.Writer, loader config.Loader) error {
	slog.Debug("CLI parser started.")
	root := NewRootCommand(outW, loader)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	return &ExitError{Code: 2, Message: err.Error()}
}

// NewRootCommand builds the command tree. Running it without a subcommand
// starts watch mode.
func NewRootCommand(outW io.Writer, loader config.Loader) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "assetgrid",
		Short: "Build and watch front-end assets",
		Long: `AssetGrid compiles stylesheets, bundles scripts and optimizes images
described by a configuration document (assetgrid.hcl or .gulpconfig.json).

Without a subcommand it performs watch mode.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, outW, loader, opts)
		},
	}
	root.SetOut(outW)
	root.SetErr(outW)

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "Path to the configuration document. Defaults to assetgrid.hcl or .gulpconfig.json in the working directory.")
	pf.StringVar(&opts.logFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")
	pf.StringVar(&opts.logLevel, "log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	pf.StringVar(&opts.logFile, "log-file", "", "Also write logs to this rotating file.")
	pf.IntVar(&opts.workers, "workers", 0, "Number of concurrent workers for the executor. 0 selects the default.")
	pf.IntVar(&opts.liveReloadPort, "livereload-port", 0, "Port for the live-reload server in watch mode. 0 is disabled.")

	root.AddCommand(
		&cobra.Command{
			Use:   "build [task...]",
			Short: "Build every asset once, or only the named tasks and aggregates",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runBuild(cmd, outW, loader, opts, args...)
			},
		},
		&cobra.Command{
			Use:   "watch",
			Short: "Build on change until interrupted",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runWatch(cmd, outW, loader, opts)
			},
		},
		&cobra.Command{
			Use:   "snapshot",
			Short: "Print the resolved source to destination mapping as JSON",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := newApp(outW, loader, opts)
				if err != nil {
					return err
				}
				defer a.Close()
				return a.Snapshot(outW)
			},
		},
		&cobra.Command{
			Use:   "tasks",
			Short: "List registered tasks, what they run before, and the aggregates",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := newApp(outW, loader, opts)
				if err != nil {
					return err
				}
				defer a.Close()
				g, err := a.TaskGraph()
				if err != nil {
					return &ExitError{Code: 1, Message: err.Error()}
				}
				for _, t := range a.Registry().Tasks() {
					line := t.Name + "\t" + t.Kind.String()
					if dependents, err := g.Dependents(t.Name); err == nil && len(dependents) > 0 {
						line += "\tbefore " + strings.Join(dependents, ", ")
					}
					fmt.Fprintln(outW, line)
				}
				for _, name := range a.Registry().Aggregates() {
					fmt.Fprintf(outW, "%s\taggregate\n", name)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "listen URL",
			Short: "Print live-reload events from a running watch session",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := livereload.Listen(cmd.Context(), args[0], outW); err != nil {
					return &ExitError{Code: 1, Message: err.Error()}
				}
				return nil
			},
		},
	)

	for _, target := range []string{"all", "css", "js", "img"} {
		root.AddCommand(&cobra.Command{
			Use:   target,
			Short: fmt.Sprintf("Run the '%s' aggregate once", target),
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runBuild(cmd, outW, loader, opts, target)
			},
		})
	}

	return root
}

// newApp validates the flags and constructs the application. Invalid flag
// values are usage errors; a missing or broken document is a failure.
func newApp(outW io.Writer, loader config.Loader, opts *options) (*app.App, error) {
	cfg, err := app.NewConfig(app.Config{
		ConfigPath:     opts.configPath,
		LogFormat:      opts.logFormat,
		LogLevel:       opts.logLevel,
		LogFile:        opts.logFile,
		Workers:        opts.workers,
		LiveReloadPort: opts.liveReloadPort,
	})
	if err != nil {
		return nil, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("CLI parameter validation complete.")

	a, err := app.NewApp(outW, cfg, loader)
	if err != nil {
		return nil, &ExitError{Code: 1, Message: err.Error()}
	}
	return a, nil
}

func runBuild(cmd *cobra.Command, outW io.Writer, loader config.Loader, opts *options, targets ...string) error {
	a, err := newApp(outW, loader, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.Build(cmd.Context(), targets...); err != nil {
		return &ExitError{Code: 1, Message: err.Error()}
	}
	return nil
}

func runWatch(cmd *cobra.Command, outW io.Writer, loader config.Loader, opts *options) error {
	a, err := newApp(outW, loader, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Watch(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
		return &ExitError{Code: 1, Message: err.Error()}
	}
	return nil
}
