package store

import (
	"context"
	"errors"
	"time"

	"orbitcmd/pkg/model"
)

// ErrUnavailable marks any failure to read or write the shared record.
// Callers map it to a 500; the engine skips the tick and retries.
var ErrUnavailable = errors.New("telemetry store unavailable")

// TelemetryStore handles the single shared telemetry record.
//
// All mutation goes through Update, the single-writer boundary: fn runs
// under the store lock on the current record and the result is persisted
// atomically, so the command handler and the propagation loop can never
// interleave partial writes.
type TelemetryStore interface {
	// Telemetry returns a snapshot of the current record.
	Telemetry(ctx context.Context) (*model.Telemetry, error)
	// Update applies fn to the record and persists the result, returning
	// the updated snapshot. An error from fn aborts the update unchanged
	// and is returned as-is.
	Update(ctx context.Context, fn func(*model.Telemetry) error) (*model.Telemetry, error)
	// Bootstrap creates the default record if none exists yet. It reports
	// whether a fresh record was written.
	Bootstrap(ctx context.Context) (bool, error)
}

// CommandStore handles accepted-command history.
type CommandStore interface {
	RecordCommand(ctx context.Context, cmd *model.Command) error
	// RecentCommands returns up to limit commands, newest first.
	RecentCommands(ctx context.Context, limit int) ([]*model.Command, error)
	// PruneCommands drops history entries older than the given age and
	// reports how many were removed.
	PruneCommands(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Store composes the persistence interfaces.
// Consumers should depend on specific sub-interfaces when possible.
type Store interface {
	TelemetryStore
	CommandStore

	// Close closes the store connection.
	Close() error
}
