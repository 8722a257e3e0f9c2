package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := New(context.Background(), filepath.Join(t.TempDir(), "history", "runs.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return db
}

func TestNewIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	for i := 0; i < 2; i++ {
		db, err := New(context.Background(), path)
		if err != nil {
			t.Fatalf("New() #%d error = %v", i+1, err)
		}
		if db.Path() != path {
			t.Errorf("Path() = %q", db.Path())
		}
		if err := db.Close(); err != nil {
			t.Fatal(err)
		}
	}
}

func TestRunLifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	start := time.Unix(1_700_000_000, 0)

	if err := db.BeginRun(ctx, "run-1", "host-a", start); err != nil {
		t.Fatalf("BeginRun() error = %v", err)
	}
	if err := db.BeginRun(ctx, "run-2", "host-a", start.Add(time.Hour)); err != nil {
		t.Fatalf("BeginRun() error = %v", err)
	}

	outcome := FileOutcome{
		RunID: "run-1", Profile: "800", SourcePath: "/store/a.jpg",
		Destination: "/thumbs/a.jpg", Size: 100, Status: "success", Duration: 1500 * time.Millisecond,
	}
	if err := db.RecordFile(ctx, outcome); err != nil {
		t.Fatalf("RecordFile() error = %v", err)
	}
	if err := db.FinishRun(ctx, "run-1", start.Add(time.Minute), "completed", 1, 100, 0); err != nil {
		t.Fatalf("FinishRun() error = %v", err)
	}

	runs, err := db.RecentRuns(ctx, 10)
	if err != nil {
		t.Fatalf("RecentRuns() error = %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("RecentRuns() returned %d runs, want 2", len(runs))
	}
	if runs[0].ID != "run-2" || runs[0].Outcome != OutcomeRunning || !runs[0].EndedAt.IsZero() {
		t.Errorf("newest run = %+v", runs[0])
	}
	finished := runs[1]
	if finished.Outcome != "completed" || finished.FilesProcessed != 1 || finished.BytesProcessed != 100 {
		t.Errorf("finished run = %+v", finished)
	}
	if !finished.EndedAt.Equal(start.Add(time.Minute)) {
		t.Errorf("EndedAt = %v", finished.EndedAt)
	}

	limited, err := db.RecentRuns(ctx, 1)
	if err != nil || len(limited) != 1 {
		t.Errorf("RecentRuns(1) = %d runs, err %v", len(limited), err)
	}
}

func TestRecordFileRequiresRun(t *testing.T) {
	db := newTestDB(t)
	err := db.RecordFile(context.Background(), FileOutcome{RunID: "missing", Profile: "800", SourcePath: "/a", Destination: "/b", Status: "error"})
	if err == nil {
		t.Error("RecordFile() for unknown run error = nil, want foreign key failure")
	}
}

func TestFailedPaths(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	start := time.Unix(1_700_000_000, 0)

	record := func(run, path, status, msg string) {
		t.Helper()
		if err := db.RecordFile(ctx, FileOutcome{
			RunID: run, Profile: "800", SourcePath: path, Destination: "/t" + path, Status: status, Error: msg,
		}); err != nil {
			t.Fatalf("RecordFile() error = %v", err)
		}
	}

	for i, run := range []string{"r1", "r2", "r3"} {
		if err := db.BeginRun(ctx, run, "h", start.Add(time.Duration(i)*time.Hour)); err != nil {
			t.Fatal(err)
		}
		record(run, "/store/bad.tif", "error", "decode failed #"+run)
	}
	record("r1", "/store/flaky.jpg", "error", "nfs")
	record("r2", "/store/flaky.jpg", "success", "")
	record("r1", "/store/once.jpg", "error", "boom")

	tests := []struct {
		min  int
		want []string
	}{
		{1, []string{"/store/bad.tif", "/store/once.jpg"}},
		{2, []string{"/store/bad.tif"}},
		{4, nil},
	}
	for _, tt := range tests {
		got, err := db.FailedPaths(ctx, tt.min)
		if err != nil {
			t.Fatalf("FailedPaths(%d) error = %v", tt.min, err)
		}
		var paths []string
		for _, p := range got {
			paths = append(paths, p.SourcePath)
		}
		if len(paths) != len(tt.want) {
			t.Fatalf("FailedPaths(%d) = %v, want %v", tt.min, paths, tt.want)
		}
		for i := range paths {
			if paths[i] != tt.want[i] {
				t.Errorf("FailedPaths(%d)[%d] = %q, want %q", tt.min, i, paths[i], tt.want[i])
			}
		}
		if tt.min == 2 && (got[0].Failures != 3 || got[0].LastError != "decode failed #r3") {
			t.Errorf("bad.tif summary = %+v", got[0])
		}
	}
}
