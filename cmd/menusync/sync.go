package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	menusync "github.com/unkn0wn-root/menusync"
	"github.com/unkn0wn-root/menusync/config"
	"github.com/unkn0wn-root/menusync/reconcile"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one reconciliation pass and exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := handleSignals(cmd.Context())
		defer cancel()
		return withApp(ctx, func(ctx context.Context, a *app) error {
			rep, err := a.engine.Run(ctx)
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), rep)
			return rep.Err()
		})
	},
}

// withApp loads the config, wires the app and tears it down after f.
func withApp(ctx context.Context, f func(context.Context, *app) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	a, err := build(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if cerr := a.Close(closeCtx); cerr != nil {
			a.log.Warn("shutdown", menusync.Fields{"error": cerr})
		}
	}()
	return f(ctx, a)
}

func printReport(w io.Writer, r *reconcile.Report) {
	row := func(name string, c reconcile.Counts) {
		fmt.Fprintf(w, "%-9s menus=%d submenus=%d dishes=%d\n", name, c.Menus, c.Submenus, c.Dishes)
	}
	row("created", r.Created)
	row("updated", r.Updated)
	row("deleted", r.Deleted)
	fmt.Fprintf(w, "discounts=%d skipped=%d invalidations=%d errors=%d took=%s\n",
		r.DiscountsSet, r.Skipped, r.Invalidations, len(r.Errors), r.Duration.Round(time.Millisecond))
	for _, err := range r.Errors {
		fmt.Fprintf(w, "  error: %v\n", err)
	}
}
