// Command sla-sweep auto-approves content whose review window has elapsed.
// It runs one sweep and exits, for deployments that schedule the sweep with
// an external cron job. Overlapping runs are safe: every approval is a
// conditional update.
//
// Exit codes: 0 = success, 1 = error or at least one failed item.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/heartmarshall/contentflow-backend/internal/app"
)

func main() {
	timeout := flag.Duration("timeout", 5*time.Minute, "maximum duration of the sweep")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunSweep(ctx, *timeout); err != nil {
		slog.Error("sla sweep failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
