package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	menusync "github.com/unkn0wn-root/menusync"
	"github.com/unkn0wn-root/menusync/reconcile"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Reconcile on a fixed interval until interrupted",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := handleSignals(cmd.Context())
		defer cancel()
		return withApp(ctx, func(ctx context.Context, a *app) error {
			interval := a.cfg.Sync.Interval
			a.log.Info("sync loop started", menusync.Fields{"interval": interval.String()})

			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				pass(ctx, a)
				select {
				case <-ctx.Done():
					a.log.Info("sync loop stopped", nil)
					return nil
				case <-ticker.C:
				}
			}
		})
	},
}

// pass runs one reconciliation. Failures are logged; the loop keeps going.
func pass(ctx context.Context, a *app) {
	rep, err := a.engine.Run(ctx)
	switch {
	case errors.Is(err, reconcile.ErrPassInProgress):
		a.log.Info("pass skipped, another one is running", nil)
	case errors.Is(err, context.Canceled):
	case err != nil:
		a.log.Error("pass aborted", menusync.Fields{"error": err})
	default:
		a.log.Info("pass done", menusync.Fields{
			"created":  rep.Created.Total(),
			"updated":  rep.Updated.Total(),
			"deleted":  rep.Deleted.Total(),
			"failed":   len(rep.Errors),
			"duration": rep.Duration.String(),
		})
	}
}
