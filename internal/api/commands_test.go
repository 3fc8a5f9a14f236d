package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"orbitcmd/pkg/model"
	"orbitcmd/pkg/store"
)

func setupCommandsHandler(t *testing.T, n int) *CommandsHandler {
	t.Helper()
	dir := t.TempDir()
	st := store.NewFileStore(
		filepath.Join(dir, "telemetry_data.json"),
		filepath.Join(dir, "commands.jsonl"),
	)
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		cmd := &model.Command{
			ID:         uuid.New().String(),
			DVX:        float64(i),
			DVY:        0,
			Duration:   10,
			ReceivedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := st.RecordCommand(context.Background(), cmd); err != nil {
			t.Fatalf("RecordCommand failed: %v", err)
		}
	}
	return NewCommandsHandler(st, 50)
}

func TestHandleCommands(t *testing.T) {
	handler := setupCommandsHandler(t, 5)

	req := httptest.NewRequest("GET", "/api/commands?limit=3", http.NoBody)
	w := httptest.NewRecorder()
	handler.HandleCommands(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("StatusCode: got %v, want %v", w.Code, http.StatusOK)
	}
	var cmds []*model.Command
	if err := json.NewDecoder(w.Body).Decode(&cmds); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
	if len(cmds) != 3 {
		t.Fatalf("count: got %d, want 3", len(cmds))
	}
	// Newest first: the last recorded command had dvx=4.
	if cmds[0].DVX != 4 {
		t.Errorf("first dvx: got %v, want 4", cmds[0].DVX)
	}
	if cmds[2].DVX != 2 {
		t.Errorf("last dvx: got %v, want 2", cmds[2].DVX)
	}
}

func TestHandleCommands_EmptyHistory(t *testing.T) {
	handler := setupCommandsHandler(t, 0)

	req := httptest.NewRequest("GET", "/api/commands", http.NoBody)
	w := httptest.NewRecorder()
	handler.HandleCommands(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("StatusCode: got %v, want %v", w.Code, http.StatusOK)
	}
	if got := strings.TrimSpace(w.Body.String()); got != "[]" {
		t.Errorf("empty history: got %q, want []", got)
	}
}

func TestHandleCommands_InvalidLimit(t *testing.T) {
	handler := setupCommandsHandler(t, 1)

	for _, limit := range []string{"0", "-1", "501", "ten", "1.5"} {
		t.Run(limit, func(t *testing.T) {
			req := httptest.NewRequest("GET", fmt.Sprintf("/api/commands?limit=%s", limit), http.NoBody)
			w := httptest.NewRecorder()
			handler.HandleCommands(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("StatusCode: got %v, want %v", w.Code, http.StatusBadRequest)
			}
			var resp errorResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode JSON: %v", err)
			}
			if resp.Error != "invalid_input" {
				t.Errorf("error code: got %q, want invalid_input", resp.Error)
			}
		})
	}
}
