package tasklog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coretasklog "github.com/kilianp07/fleetctl/core/tasklog"
)

func TestJSONLStore_AppendQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.jsonl")
	store, err := NewJSONLStore(path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	now := time.Now()
	rec := coretasklog.Record{
		Timestamp: now,
		TaskID:    "Delivery0",
		TaskType:  "Delivery",
		FleetName: "fleet-a",
		State:     "Completed",
		UserTask:  true,
	}
	require.NoError(t, store.Append(context.Background(), rec))

	out, err := store.Query(context.Background(), coretasklog.Query{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, rec.TaskID, out[0].TaskID)
	assert.Equal(t, rec.FleetName, out[0].FleetName)
}

func TestJSONLStore_QueryFiltersByFleet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.jsonl")
	store, err := NewJSONLStore(path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	require.NoError(t, store.Append(ctx, coretasklog.Record{TaskID: "Loop1", FleetName: "fleet-a"}))
	require.NoError(t, store.Append(ctx, coretasklog.Record{TaskID: "Loop2", FleetName: "fleet-b"}))

	out, err := store.Query(ctx, coretasklog.Query{FleetName: "fleet-b"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Loop2", out[0].TaskID)
}
