package probe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"orbitcmd/pkg/store"
)

// StoreCheck verifies the telemetry record is readable. Nothing works
// without it, so this probe is critical.
func StoreCheck(s store.TelemetryStore) Probe {
	return Probe{
		Name:     "Telemetry Store",
		Critical: true,
		Check: func(ctx context.Context) error {
			_, err := s.Telemetry(ctx)
			return err
		},
	}
}

// HistoryCheck verifies command history reads work. The command feed
// degrades without it but the service still flies.
func HistoryCheck(s store.CommandStore) Probe {
	return Probe{
		Name: "Command History",
		Check: func(ctx context.Context) error {
			_, err := s.RecentCommands(ctx, 1)
			return err
		},
	}
}

// MirrorCheck verifies the feed mirror location is writable. The mirror is
// best-effort, so a failure here only warns.
func MirrorCheck(path string) Probe {
	return Probe{
		Name: "Feed Mirror",
		Check: func(ctx context.Context) error {
			if path == "" {
				return nil
			}
			dir := filepath.Dir(path)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("mirror directory not creatable: %w", err)
			}
			probeFile := filepath.Join(dir, ".probe")
			if err := os.WriteFile(probeFile, []byte("ok"), 0o644); err != nil {
				return fmt.Errorf("mirror directory not writable: %w", err)
			}
			return os.Remove(probeFile)
		},
	}
}

// AuditCheck verifies the burn audit log location is writable.
func AuditCheck(path string) Probe {
	return Probe{
		Name: "Audit Log",
		Check: func(ctx context.Context) error {
			if path == "" {
				return nil
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return fmt.Errorf("audit directory not creatable: %w", err)
			}
			f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
			if err != nil {
				return fmt.Errorf("audit log not appendable: %w", err)
			}
			return f.Close()
		},
	}
}
