// Package tasklog defines the optional dispatch/auction log sink consumed
// by the Dispatcher (§6 "optional dispatch-log sink" via config.Logging),
// grounded on the teacher's core/dispatch/logging/store.go LogRecord/
// LogQuery/LogStore split, narrowed from an EV flexibility-signal record to
// one terminal TaskStatus transition per record.
package tasklog

import (
	"context"
	"time"
)

// Record captures one task's terminal outcome for later audit/query.
type Record struct {
	Timestamp  time.Time `json:"timestamp"`
	TaskID     string    `json:"task_id"`
	TaskType   string    `json:"task_type"`
	FleetName  string    `json:"fleet_name"`
	State      string    `json:"state"`
	Cost       float64   `json:"cost"`
	UserTask   bool      `json:"user_task"`
}

// Query filters Records returned by Store.Query.
type Query struct {
	Start     time.Time
	End       time.Time
	TaskID    string
	FleetName string
}

// Store persists Records and supports querying them back, mirroring the
// teacher's LogStore interface narrowed to this domain's Record/Query.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// NopStore discards every record, used when no backend is configured.
type NopStore struct{}

func (NopStore) Append(context.Context, Record) error      { return nil }
func (NopStore) Query(context.Context, Query) ([]Record, error) { return nil, nil }
func (NopStore) Close() error                              { return nil }

var _ Store = NopStore{}
