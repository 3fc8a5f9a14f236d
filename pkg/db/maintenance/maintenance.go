// Package maintenance runs startup housekeeping on the persistence layer.
package maintenance

import (
	"context"
	"log/slog"
	"time"

	"orbitcmd/pkg/store"
)

// Run executes all maintenance tasks. It blocks until completion. Failures
// are logged, never returned: housekeeping must not stop the service from
// starting.
func Run(ctx context.Context, s store.Store, retention time.Duration) {
	slog.Info("Starting store maintenance...")

	if err := pruneHistory(ctx, s, retention); err != nil {
		slog.Error("Command history pruning failed", "error", err)
	} else {
		slog.Info("Command history pruning completed")
	}
}

// pruneHistory drops command records older than the retention window.
func pruneHistory(ctx context.Context, s store.Store, retention time.Duration) error {
	if retention <= 0 {
		return nil
	}

	dropped, err := s.PruneCommands(ctx, retention)
	if err != nil {
		return err
	}
	if dropped > 0 {
		slog.Info("Pruned old commands", "dropped", dropped, "retention", retention)
	}
	return nil
}
