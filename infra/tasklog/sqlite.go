package tasklog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	coretasklog "github.com/kilianp07/fleetctl/core/tasklog"
)

// SQLiteStore persists Records to a SQLite database, grounded on the
// teacher's core/dispatch/logging/sqlite.go.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS task_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ts INTEGER,
		task_id TEXT,
		task_type TEXT,
		fleet_name TEXT,
		state TEXT,
		cost REAL,
		user_task INTEGER
	);`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Append inserts rec as a new row.
func (s *SQLiteStore) Append(ctx context.Context, rec coretasklog.Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO task_logs (ts, task_id, task_type, fleet_name, state, cost, user_task) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.Timestamp.Unix(), rec.TaskID, rec.TaskType, rec.FleetName, rec.State, rec.Cost, boolToInt(rec.UserTask))
	return err
}

// Query returns rows matching q.
func (s *SQLiteStore) Query(ctx context.Context, q coretasklog.Query) ([]coretasklog.Record, error) {
	query := `SELECT ts, task_id, task_type, fleet_name, state, cost, user_task FROM task_logs WHERE 1=1`
	var args []any
	if !q.Start.IsZero() {
		query += ` AND ts >= ?`
		args = append(args, q.Start.Unix())
	}
	if !q.End.IsZero() {
		query += ` AND ts <= ?`
		args = append(args, q.End.Unix())
	}
	if q.TaskID != "" {
		query += ` AND task_id = ?`
		args = append(args, q.TaskID)
	}
	if q.FleetName != "" {
		query += ` AND fleet_name = ?`
		args = append(args, q.FleetName)
	}
	query += ` ORDER BY ts`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var res []coretasklog.Record
	for rows.Next() {
		var r coretasklog.Record
		var ts int64
		var userTask int
		if err := rows.Scan(&ts, &r.TaskID, &r.TaskType, &r.FleetName, &r.State, &r.Cost, &userTask); err != nil {
			return nil, err
		}
		r.Timestamp = time.Unix(ts, 0)
		r.UserTask = userTask != 0
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ coretasklog.Store = (*SQLiteStore)(nil)
