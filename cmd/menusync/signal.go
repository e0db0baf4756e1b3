package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// handleSignals cancels the returned context on SIGINT or SIGTERM.
func handleSignals(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}
