// Package tasklog provides JSONL and SQLite TaskLog store adapters,
// grounded on the teacher's core/dispatch/logging/jsonl.go and sqlite.go.
package tasklog

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"sync"

	coretasklog "github.com/kilianp07/fleetctl/core/tasklog"
)

// JSONLStore appends one JSON object per line to a flat file.
type JSONLStore struct {
	path string
	mu   sync.Mutex
}

// NewJSONLStore opens (creating if necessary) the file at path.
func NewJSONLStore(path string) (*JSONLStore, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}
	if cerr := f.Close(); cerr != nil {
		return nil, cerr
	}
	return &JSONLStore{path: path}, nil
}

// Append writes rec as one JSON line.
func (s *JSONLStore) Append(ctx context.Context, rec coretasklog.Record) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return json.NewEncoder(f).Encode(rec)
}

// Query scans the file, applying q's filters.
func (s *JSONLStore) Query(ctx context.Context, q coretasklog.Query) ([]coretasklog.Record, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var res []coretasklog.Record
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var r coretasklog.Record
		if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
			continue
		}
		if !matches(r, q) {
			continue
		}
		res = append(res, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close is a no-op; the file is opened and closed per call.
func (s *JSONLStore) Close() error { return nil }

func matches(r coretasklog.Record, q coretasklog.Query) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.TaskID != "" && r.TaskID != q.TaskID {
		return false
	}
	if q.FleetName != "" && r.FleetName != q.FleetName {
		return false
	}
	return true
}

var _ coretasklog.Store = (*JSONLStore)(nil)
