package history_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/banksean/jct/history"
)

func TestRecordAndRetrieveRuns(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "jct-history.db")
	ctx := context.Background()

	rec, err := history.Open(ctx, dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rec.Close()

	run := history.Run{
		WorkspaceID:      "ws-1",
		StartedAt:        time.Now().Truncate(time.Millisecond),
		Duration:         250 * time.Millisecond,
		Success:          true,
		FailOnWarnings:   false,
		OutputTranscript: "1 warning",
		DiagnosticCount:  1,
	}
	if err := rec.Record(ctx, run); err != nil {
		t.Fatalf("Record: %v", err)
	}

	got, err := rec.RunsForWorkspace(ctx, "ws-1")
	if err != nil {
		t.Fatalf("RunsForWorkspace: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d runs, want 1", len(got))
	}
	if got[0].WorkspaceID != run.WorkspaceID || got[0].DiagnosticCount != run.DiagnosticCount {
		t.Fatalf("got %+v", got[0])
	}
	if !got[0].Success {
		t.Fatal("expected Success to round-trip as true")
	}
}

func TestRunsForUnknownWorkspaceIsEmpty(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "jct-history-empty.db")
	rec, err := history.Open(context.Background(), dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer rec.Close()

	got, err := rec.RunsForWorkspace(context.Background(), "nope")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("got %d runs, want 0", len(got))
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "jct-history-reopen.db")
	ctx := context.Background()

	rec1, err := history.Open(ctx, dbPath)
	if err != nil {
		t.Fatal(err)
	}
	rec1.Close()

	rec2, err := history.Open(ctx, dbPath)
	if err != nil {
		t.Fatalf("reopening an already-migrated database: %v", err)
	}
	defer rec2.Close()
}
