package diagnostics_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/banksean/jct/diagnostics"
)

func TestReportAppendsInCallOrderPerGoroutine(t *testing.T) {
	l := diagnostics.New("jct-test")
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		l.Report(ctx, diagnostics.Diagnostic{Kind: diagnostics.KindNote, Code: "note" + string(rune('0'+i))})
	}

	snap := l.Snapshot()
	if len(snap) != 5 {
		t.Fatalf("got %d diagnostics, want 5", len(snap))
	}
	for i, d := range snap {
		want := "note" + string(rune('0'+i))
		if d.Code != want {
			t.Fatalf("snap[%d].Code = %q, want %q (order not preserved)", i, d.Code, want)
		}
	}
}

func TestReportIsSafeForConcurrentProducers(t *testing.T) {
	l := diagnostics.New("jct-test-concurrent")
	ctx := context.Background()

	const producers = 16
	const perProducer = 50

	var wg sync.WaitGroup
	wg.Add(producers)
	for p := 0; p < producers; p++ {
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				l.Report(ctx, diagnostics.Diagnostic{Kind: diagnostics.KindWarning, Code: "w"})
			}
		}()
	}
	wg.Wait()

	if got := l.Len(); got != producers*perProducer {
		t.Fatalf("got %d diagnostics, want %d", got, producers*perProducer)
	}
	if got := len(l.Snapshot()); got != producers*perProducer {
		t.Fatalf("snapshot length %d, want %d", got, producers*perProducer)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	l := diagnostics.New("jct-test-snapshot")
	l.Report(context.Background(), diagnostics.Diagnostic{Kind: diagnostics.KindError, Code: "e1"})

	snap := l.Snapshot()
	l.Report(context.Background(), diagnostics.Diagnostic{Kind: diagnostics.KindError, Code: "e2"})

	if len(snap) != 1 {
		t.Fatalf("expected the earlier snapshot to stay at length 1, got %d", len(snap))
	}
}

func TestSnapshotMatchesReportedFieldsExactly(t *testing.T) {
	l := diagnostics.New("jct-test-fields")
	want := diagnostics.Diagnostic{
		Kind:      diagnostics.KindWarning,
		Code:      "compiler.warn.deprecated",
		SourceURI: "file:///Hello.java",
		Line:      3,
		Column:    5,
	}
	l.Report(context.Background(), want)

	snap := l.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("got %d diagnostics, want 1", len(snap))
	}
	if diff := cmp.Diff(want, snap[0].Diagnostic, cmpopts.IgnoreFields(diagnostics.Diagnostic{}, "Message")); diff != "" {
		t.Fatalf("reported diagnostic mismatch (-want +got):\n%s", diff)
	}
}

func TestGoroutineIDIsPopulatedAndConstantPerGoroutine(t *testing.T) {
	l := diagnostics.New("jct-test-goroutine-id")
	ctx := context.Background()

	const workers = 4
	const perWorker = 10

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				l.Report(ctx, diagnostics.Diagnostic{Kind: diagnostics.KindNote, Code: "g"})
			}
		}()
	}
	wg.Wait()

	snap := l.Snapshot()
	if len(snap) != workers*perWorker {
		t.Fatalf("got %d diagnostics, want %d", len(snap), workers*perWorker)
	}

	byGoroutine := map[int64]int{}
	for _, d := range snap {
		if d.GoroutineID == 0 {
			t.Fatal("expected a nonzero goroutine id")
		}
		byGoroutine[d.GoroutineID]++
	}
	if len(byGoroutine) != workers {
		t.Fatalf("got %d distinct goroutine ids, want %d", len(byGoroutine), workers)
	}
	for id, count := range byGoroutine {
		if count != perWorker {
			t.Fatalf("goroutine %d reported %d diagnostics, want %d", id, count, perWorker)
		}
	}
}

func TestNilMessageStaysNilInSnapshot(t *testing.T) {
	l := diagnostics.New("jct-test-message")
	l.Report(context.Background(), diagnostics.Diagnostic{Kind: diagnostics.KindNote, Code: "note.no.message"})
	snap := l.Snapshot()
	if snap[0].Message != nil {
		t.Fatal("expected a nil message function to remain nil")
	}
}
