package inprocess_test

import (
	"context"
	"io"
	"testing"

	"github.com/banksean/jct/diagnostics"
	"github.com/banksean/jct/fileobject"
	"github.com/banksean/jct/filemanager"
	"github.com/banksean/jct/group"
	"github.com/banksean/jct/inprocess"
	"github.com/banksean/jct/location"
	"github.com/banksean/jct/pathroot"
)

func TestProviderRecordsCallsAndReplaysOutcome(t *testing.T) {
	p := &inprocess.Provider{
		Releases: []string{"17", "21"},
		Outcome:  true,
	}

	if got := p.SupportedReleases(); len(got) != 2 {
		t.Fatalf("SupportedReleases = %v", got)
	}

	repo := group.NewRepository()
	root := pathroot.NewInMemory("test")
	if err := repo.AddPath(context.Background(), location.ClassOutput, root); err != nil {
		t.Fatal(err)
	}
	fm := filemanager.New(repo)
	defer fm.Close()

	listener := diagnostics.New("test")
	task, err := p.GetTask(io.Discard, fm, listener, []string{"-g"}, nil, nil)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if !task.Run(context.Background()) {
		t.Fatal("expected scripted Outcome=true")
	}

	calls := p.Calls()
	if len(calls) != 2 {
		t.Fatalf("got %d calls, want 2: %+v", len(calls), calls)
	}
	if calls[0].Method != "SupportedReleases" || calls[1].Method != "GetTask" {
		t.Fatalf("unexpected call order: %+v", calls)
	}
}

func TestProviderWritesScriptedOutputs(t *testing.T) {
	p := &inprocess.Provider{
		Outcome: true,
		Outputs: []inprocess.ClassResult{
			{BinaryName: "com.example.Hello", Contents: []byte("classbytes")},
		},
	}

	repo := group.NewRepository()
	root := pathroot.NewInMemory("test")
	if err := repo.AddPath(context.Background(), location.ClassOutput, root); err != nil {
		t.Fatal(err)
	}
	fm := filemanager.New(repo)
	defer fm.Close()

	listener := diagnostics.New("test")
	task, err := p.GetTask(io.Discard, fm, listener, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !task.Run(context.Background()) {
		t.Fatal("expected success")
	}

	fo, ok, err := fm.GetJavaFileForInput(context.Background(), location.ClassOutput, "com.example.Hello", fileobject.KindClass)
	if err != nil || !ok {
		t.Fatalf("GetJavaFileForInput: ok=%v err=%v", ok, err)
	}
	data, err := fo.ReadAllBytes()
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "classbytes" {
		t.Fatalf("got %q", data)
	}
}

func TestProviderReplaysDiagnostics(t *testing.T) {
	p := &inprocess.Provider{
		Outcome: false,
		Diagnostics: []diagnostics.Diagnostic{
			{Kind: diagnostics.KindError, Code: "compiler.err.cant.resolve", Message: func(string) string { return "cannot find symbol" }},
		},
	}

	repo := group.NewRepository()
	fm := filemanager.New(repo)
	defer fm.Close()
	listener := diagnostics.New("test")

	task, err := p.GetTask(io.Discard, fm, listener, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if task.Run(context.Background()) {
		t.Fatal("expected scripted Outcome=false")
	}
	if listener.Len() != 1 {
		t.Fatalf("got %d diagnostics, want 1", listener.Len())
	}
}
