package store

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"orbitcmd/pkg/logging"
	"orbitcmd/pkg/model"
)

// FileStore implements Store on a plain JSON document, the layout external
// visualization tooling reads directly off disk. Command history lives next
// to it as JSON lines.
//
// Writes go through a temp file and rename, so readers outside the process
// never observe a half-written document.
type FileStore struct {
	path    string
	cmdPath string
	mu      sync.Mutex
}

// NewFileStore creates a store backed by the document at path. Command
// history is kept at cmdPath.
func NewFileStore(path, cmdPath string) *FileStore {
	return &FileStore{path: path, cmdPath: cmdPath}
}

func (s *FileStore) Close() error {
	return nil
}

// --- Telemetry ---

func (s *FileStore) Telemetry(ctx context.Context) (*model.Telemetry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *FileStore) Update(ctx context.Context, fn func(*model.Telemetry) error) (*model.Telemetry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tel, err := s.load()
	if err != nil {
		return nil, err
	}
	if err := fn(tel); err != nil {
		return nil, err
	}
	if err := s.save(tel); err != nil {
		return nil, err
	}
	return tel, nil
}

func (s *FileStore) Bootstrap(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, unavailable("check record", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return false, unavailable("create data dir", err)
	}
	if err := s.save(model.Default()); err != nil {
		return false, err
	}
	return true, nil
}

func (s *FileStore) load() (*model.Telemetry, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, unavailable("read record", err)
	}
	var tel model.Telemetry
	if err := json.Unmarshal(raw, &tel); err != nil {
		return nil, unavailable("parse record", err)
	}
	return &tel, nil
}

func (s *FileStore) save(tel *model.Telemetry) error {
	// Indented output keeps the document diffable and matches what the
	// external consumers already expect.
	data, err := json.MarshalIndent(tel, "", "  ")
	if err != nil {
		return unavailable("encode record", err)
	}
	if err := atomicWrite(s.path, data); err != nil {
		return unavailable("write record", err)
	}
	logging.TraceDefault("Telemetry document written", "path", s.path, "bytes", len(data))
	return nil
}

// atomicWrite lands data at path via a sibling temp file and rename.
func atomicWrite(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// --- Commands ---

func (s *FileStore) RecordCommand(ctx context.Context, cmd *model.Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *cmd
	if c.ReceivedAt.IsZero() {
		c.ReceivedAt = time.Now()
	}
	line, err := json.Marshal(&c)
	if err != nil {
		return unavailable("encode command", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.cmdPath), 0o755); err != nil {
		return unavailable("create data dir", err)
	}
	f, err := os.OpenFile(s.cmdPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return unavailable("open command log", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "%s\n", line); err != nil {
		return unavailable("append command", err)
	}
	return nil
}

func (s *FileStore) RecentCommands(ctx context.Context, limit int) ([]*model.Command, error) {
	if limit <= 0 {
		limit = 50
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.readCommands()
	if err != nil {
		return nil, err
	}

	// Newest first, file order is append order.
	var results []*model.Command
	for i := len(all) - 1; i >= 0 && len(results) < limit; i-- {
		results = append(results, all[i])
	}
	return results, nil
}

func (s *FileStore) PruneCommands(ctx context.Context, olderThan time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.readCommands()
	if err != nil {
		return 0, err
	}
	if len(all) == 0 {
		return 0, nil
	}

	deadline := time.Now().Add(-olderThan)
	var buf bytes.Buffer
	var kept int64
	for _, c := range all {
		if c.ReceivedAt.Before(deadline) {
			continue
		}
		line, err := json.Marshal(c)
		if err != nil {
			return 0, unavailable("encode command", err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
		kept++
	}

	dropped := int64(len(all)) - kept
	if dropped == 0 {
		return 0, nil
	}
	if err := atomicWrite(s.cmdPath, buf.Bytes()); err != nil {
		return 0, unavailable("rewrite command log", err)
	}
	return dropped, nil
}

func (s *FileStore) readCommands() ([]*model.Command, error) {
	f, err := os.Open(s.cmdPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, unavailable("open command log", err)
	}
	defer f.Close()

	var all []*model.Command
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var c model.Command
		if err := json.Unmarshal(line, &c); err != nil {
			// One bad line must not take out the whole history.
			continue
		}
		all = append(all, &c)
	}
	if err := scanner.Err(); err != nil {
		return nil, unavailable("read command log", err)
	}
	return all, nil
}
