package probe

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"orbitcmd/pkg/store"
)

func TestStoreCheck(t *testing.T) {
	dir := t.TempDir()
	s := store.NewFileStore(filepath.Join(dir, "telemetry_data.json"), filepath.Join(dir, "commands.jsonl"))

	// Before bootstrap the record does not exist
	p := StoreCheck(s)
	if err := p.Check(context.Background()); err == nil {
		t.Error("Expected store check to fail before bootstrap")
	}
	if !p.Critical {
		t.Error("Expected store check to be critical")
	}

	if _, err := s.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}
	if err := p.Check(context.Background()); err != nil {
		t.Errorf("Expected store check to pass after bootstrap, got %v", err)
	}
}

func TestHistoryCheck(t *testing.T) {
	dir := t.TempDir()
	s := store.NewFileStore(filepath.Join(dir, "telemetry_data.json"), filepath.Join(dir, "commands.jsonl"))

	p := HistoryCheck(s)
	// An empty history is healthy
	if err := p.Check(context.Background()); err != nil {
		t.Errorf("Expected history check to pass, got %v", err)
	}
	if p.Critical {
		t.Error("Expected history check to be non-critical")
	}
}

func TestMirrorCheck(t *testing.T) {
	dir := t.TempDir()

	// Writable location passes and leaves nothing behind
	p := MirrorCheck(filepath.Join(dir, "feed", "angle_feed.json"))
	if err := p.Check(context.Background()); err != nil {
		t.Errorf("Expected mirror check to pass, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "feed", ".probe")); !os.IsNotExist(err) {
		t.Error("Expected probe file to be cleaned up")
	}

	// A file blocking the directory path fails
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("Failed to create blocker: %v", err)
	}
	p = MirrorCheck(filepath.Join(blocker, "sub", "angle_feed.json"))
	if err := p.Check(context.Background()); err == nil {
		t.Error("Expected mirror check to fail on a blocked path")
	}

	// Disabled mirror always passes
	p = MirrorCheck("")
	if err := p.Check(context.Background()); err != nil {
		t.Errorf("Expected disabled mirror check to pass, got %v", err)
	}
}

func TestAuditCheck(t *testing.T) {
	dir := t.TempDir()

	p := AuditCheck(filepath.Join(dir, "logs", "command_log.txt"))
	if err := p.Check(context.Background()); err != nil {
		t.Errorf("Expected audit check to pass, got %v", err)
	}

	p = AuditCheck("")
	if err := p.Check(context.Background()); err != nil {
		t.Errorf("Expected disabled audit check to pass, got %v", err)
	}
}
