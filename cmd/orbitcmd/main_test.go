package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"orbitcmd/pkg/config"
)

func TestRun(t *testing.T) {
	dir := t.TempDir()

	// Point every path into the temp dir so the test leaves no droppings.
	tempConfig := fmt.Sprintf(`
server:
    address: localhost:0  # 0 lets OS choose free port
store:
    backend: file
    file:
        path: %q
        commands_path: %q
engine:
    tick_interval: 50ms
feed:
    capacity: 100
    mirror_path: %q
log:
    server:
        path: %q
        level: "debug"
    requests:
        path: %q
        level: "info"
    audit:
        path: %q
`,
		filepath.Join(dir, "telemetry_data.json"),
		filepath.Join(dir, "commands.jsonl"),
		filepath.Join(dir, "angle_feed.json"),
		filepath.Join(dir, "logs", "test_server.log"),
		filepath.Join(dir, "logs", "test_requests.log"),
		filepath.Join(dir, "logs", "command_log.txt"),
	)

	cfgPath := filepath.Join(dir, "orbitcmd.yaml")
	if err := os.WriteFile(cfgPath, []byte(tempConfig), 0o644); err != nil {
		t.Fatalf("Failed to write temp config: %v", err)
	}

	// Create a context that cancels quickly to verify startup sequence
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	if err := run(ctx, cfgPath); err != nil {
		t.Fatalf("run() failed: %v", err)
	}

	// The engine had a few ticks; the record must exist on disk.
	if _, err := os.Stat(filepath.Join(dir, "telemetry_data.json")); err != nil {
		t.Errorf("telemetry record missing after run: %v", err)
	}
}

func TestInitStore_UnknownBackend(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Store.Backend = "redis"

	if _, _, err := initStore(cfg); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}
