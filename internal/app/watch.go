package app

import (
	"context"
	"fmt"

	"github.com/specialistvlad/assetgrid/internal/livereload"
	"github.com/specialistvlad/assetgrid/internal/watch"
)

// Watch prints the snapshot, then re-runs watch groups as their sources
// change until ctx is done. Task failures never end the session.
func (a *App) Watch(ctx context.Context) error {
	ctx = a.Context(ctx)
	if err := a.Snapshot(a.outW); err != nil {
		return err
	}

	groups := watch.Plan(a.plan)
	if len(groups) == 0 {
		a.logger.Warn("Nothing to watch.")
	}

	var opts []watch.Option
	if a.config.LiveReloadPort > 0 {
		srv := livereload.NewServer(fmt.Sprintf(":%d", a.config.LiveReloadPort))
		if err := srv.Start(ctx); err != nil {
			return err
		}
		defer srv.Shutdown(context.WithoutCancel(ctx))
		opts = append(opts, watch.WithNotifier(srv))
	}

	session, err := watch.NewSession(a.plan.Root(), groups, a.executor, opts...)
	if err != nil {
		return fmt.Errorf("failed to create watch session: %w", err)
	}
	return session.Run(ctx)
}
