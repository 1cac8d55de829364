package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ShayCichocki/maestro/pkg/models"
)

// tempDBPath returns a path to a temp database file.
func tempDBPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test.db")
}

// setupTestDB creates a new temporary database for testing.
func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(tempDBPath(t))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.Migrate(); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return db
}

func sampleTrace(worker, taskID string, status models.TaskStatus) *models.ExecutionTrace {
	start := time.Now().UTC().Add(-2 * time.Second)
	return &models.ExecutionTrace{
		WorkerName: worker,
		TaskID:     taskID,
		StartTime:  start,
		EndTime:    start.Add(time.Second),
		Status:     status,
		TokensUsed: 120,
		Cost:       0.0042,
	}
}

func TestOpen(t *testing.T) {
	path := tempDBPath(t)
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	if db.Path() != path {
		t.Errorf("Path() = %q, want %q", db.Path(), path)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("database file does not exist at %s", path)
	}
}

func TestOpen_CreatesParentDirectories(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "a", "b", "c")
	path := filepath.Join(nested, "test.db")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(nested); os.IsNotExist(err) {
		t.Errorf("parent directories not created: %s", nested)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	if err := db.Migrate(); err != nil {
		t.Fatalf("second Migrate failed: %v", err)
	}
}

func TestRecordAndQueryTraces(t *testing.T) {
	db := setupTestDB(t)

	if err := db.Record(sampleTrace("claude", "task-1", models.TaskStatusComplete)); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	failed := sampleTrace("ollama", "task-1", models.TaskStatusFailed)
	failed.Error = "model unreachable"
	if err := db.Record(failed); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	traces, err := db.TracesForTask("task-1")
	if err != nil {
		t.Fatalf("TracesForTask failed: %v", err)
	}
	if len(traces) != 2 {
		t.Fatalf("expected 2 traces, got %d", len(traces))
	}

	if traces[0].WorkerName != "claude" || traces[0].Status != models.TaskStatusComplete {
		t.Errorf("first trace wrong: %+v", traces[0])
	}
	if traces[0].TokensUsed != 120 {
		t.Errorf("expected 120 tokens, got %d", traces[0].TokensUsed)
	}
	if traces[1].Error != "model unreachable" {
		t.Errorf("expected error persisted, got %q", traces[1].Error)
	}
	if traces[0].Duration() != time.Second {
		t.Errorf("expected 1s duration round-trip, got %s", traces[0].Duration())
	}
}

func TestRecentTracesNewestFirst(t *testing.T) {
	db := setupTestDB(t)

	for _, id := range []string{"t1", "t2", "t3"} {
		if err := db.Record(sampleTrace("claude", id, models.TaskStatusComplete)); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	traces, err := db.RecentTraces(2)
	if err != nil {
		t.Fatalf("RecentTraces failed: %v", err)
	}
	if len(traces) != 2 {
		t.Fatalf("expected 2 traces, got %d", len(traces))
	}
	if traces[0].TaskID != "t3" || traces[1].TaskID != "t2" {
		t.Errorf("expected newest first, got %s then %s", traces[0].TaskID, traces[1].TaskID)
	}
}

func TestPurgeOldTraces(t *testing.T) {
	db := setupTestDB(t)

	old := sampleTrace("claude", "ancient", models.TaskStatusComplete)
	old.StartTime = time.Now().UTC().Add(-48 * time.Hour)
	old.EndTime = old.StartTime.Add(time.Second)
	if err := db.Record(old); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := db.Record(sampleTrace("claude", "fresh", models.TaskStatusComplete)); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	deleted, err := db.PurgeOldTraces(24 * time.Hour)
	if err != nil {
		t.Fatalf("PurgeOldTraces failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 trace purged, got %d", deleted)
	}

	count, err := db.TraceCount()
	if err != nil {
		t.Fatalf("TraceCount failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 trace remaining, got %d", count)
	}
}
