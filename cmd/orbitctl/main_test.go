package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestShortID(t *testing.T) {
	tests := []struct {
		id       string
		expected string
	}{
		{"9f1c2a3b-0000-4000-8000-000000000001", "9f1c2a3b"},
		{"plainid", "plainid"},
		{"", ""},
	}

	for _, tt := range tests {
		result := shortID(tt.id)
		if result != tt.expected {
			t.Errorf("shortID(%q) = %q, want %q", tt.id, result, tt.expected)
		}
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	if err := run([]string{"launch"}); err == nil {
		t.Fatal("expected error for unknown command")
	}
}

func TestServerAddr(t *testing.T) {
	if got := serverAddr("", "/nonexistent/orbitcmd.yaml"); got != "localhost:5000" {
		t.Errorf("serverAddr fallback: got %q, want localhost:5000", got)
	}
	if got := serverAddr("example.com:9000", "/nonexistent/orbitcmd.yaml"); got != "example.com:9000" {
		t.Errorf("serverAddr explicit: got %q, want example.com:9000", got)
	}

	path := filepath.Join(t.TempDir(), "orbitcmd.yaml")
	if err := os.WriteFile(path, []byte("server:\n    address: 10.1.2.3:8080\n"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if got := serverAddr("", path); got != "10.1.2.3:8080" {
		t.Errorf("serverAddr from config: got %q, want 10.1.2.3:8080", got)
	}
}
