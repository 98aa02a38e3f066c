package jct_test

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"testing"

	"golang.org/x/text/encoding"
	"golang.org/x/text/language"

	jct "github.com/banksean/jct"
	"github.com/banksean/jct/diagnostics"
	"github.com/banksean/jct/fileobject"
	"github.com/banksean/jct/filemanager"
	"github.com/banksean/jct/inprocess"
	"github.com/banksean/jct/location"
)

// TestScenarioSyntaxErrorDiagnosticCarriesPosition covers S2: a failed
// compile reports a diagnostic whose source URI, line, and column survive
// unchanged from provider to CompileRecord.
func TestScenarioSyntaxErrorDiagnosticCarriesPosition(t *testing.T) {
	ctx := context.Background()
	ws := jct.NewWorkspace("scenario-s2")
	defer ws.Close(ctx)

	src, err := ws.CreatePackage(location.SourcePath, jct.RootVariantInMemory)
	if err != nil {
		t.Fatalf("CreatePackage: %v", err)
	}
	file, err := src.CreateFile("Broken.java")
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	if err := file.WithContentsString("class Broken {"); err != nil {
		t.Fatalf("WithContentsString: %v", err)
	}

	provider := &inprocess.Provider{
		Outcome: false,
		Diagnostics: []diagnostics.Diagnostic{
			{
				Kind:      diagnostics.KindError,
				Code:      "compiler.err.expected",
				SourceURI: "mem:///scenario-s2-SOURCE_PATH/Broken.java",
				Line:      1,
				Column:    15,
				Message:   func(string) string { return "'}' expected" },
			},
		},
	}

	record, err := jct.Compile(ctx, ws, provider, jct.CompileOptions{})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if record.Success {
		t.Fatal("expected Success=false for a syntax-error compile")
	}
	if len(record.Diagnostics) != 1 {
		t.Fatalf("got %d diagnostics, want 1", len(record.Diagnostics))
	}

	got := record.Diagnostics[0]
	if got.Kind != diagnostics.KindError {
		t.Fatalf("Kind = %v, want KindError", got.Kind)
	}
	if got.SourceURI != "mem:///scenario-s2-SOURCE_PATH/Broken.java" {
		t.Fatalf("SourceURI = %q", got.SourceURI)
	}
	if got.Line != 1 || got.Column != 15 {
		t.Fatalf("Line/Column = %d/%d, want 1/15", got.Line, got.Column)
	}
	if got.Timestamp.IsZero() {
		t.Fatal("expected a nonzero capture timestamp")
	}
}

// TestScenarioModuleSourceCompileWritesModuleInfoAndPackageClass covers S3:
// compiling a module-source package produces both a module-info class and
// its package's class in class-output.
func TestScenarioModuleSourceCompileWritesModuleInfoAndPackageClass(t *testing.T) {
	ctx := context.Background()
	ws := jct.NewWorkspace("scenario-s3")
	defer ws.Close(ctx)

	mod, err := ws.CreateModule(location.ModuleSourcePath, "scenario.mod", jct.RootVariantInMemory)
	if err != nil {
		t.Fatalf("CreateModule: %v", err)
	}
	descriptor, err := mod.CreateFile("module-info.java")
	if err != nil {
		t.Fatalf("CreateFile(module-info.java): %v", err)
	}
	if err := descriptor.WithContentsString("module scenario.mod {}"); err != nil {
		t.Fatalf("WithContentsString: %v", err)
	}
	pkgDir, err := mod.CreateDirectory("com", "example")
	if err != nil {
		t.Fatalf("CreateDirectory: %v", err)
	}
	src, err := pkgDir.CreateFile("Greeter.java")
	if err != nil {
		t.Fatalf("CreateFile(Greeter.java): %v", err)
	}
	if err := src.WithContentsString("package com.example; class Greeter {}"); err != nil {
		t.Fatalf("WithContentsString: %v", err)
	}

	provider := &inprocess.Provider{
		Outcome: true,
		Outputs: []inprocess.ClassResult{
			{BinaryName: "scenario.mod.module-info", Contents: []byte("module-info-bytes")},
			{BinaryName: "scenario.mod.com.example.Greeter", Contents: []byte("greeter-bytes")},
		},
	}

	record, err := jct.Compile(ctx, ws, provider, jct.CompileOptions{})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !record.Success {
		t.Fatal("expected success")
	}

	moduleInfo, ok, err := record.FileManager.GetJavaFileForInput(ctx, location.ClassOutput, "scenario.mod.module-info", fileobject.KindClass)
	if err != nil || !ok {
		t.Fatalf("GetJavaFileForInput(module-info): ok=%v err=%v", ok, err)
	}
	if data, err := moduleInfo.ReadAllBytes(); err != nil || string(data) != "module-info-bytes" {
		t.Fatalf("module-info contents = %q, err=%v", data, err)
	}

	pkgClass, ok, err := record.FileManager.GetJavaFileForInput(ctx, location.ClassOutput, "scenario.mod.com.example.Greeter", fileobject.KindClass)
	if err != nil || !ok {
		t.Fatalf("GetJavaFileForInput(Greeter): ok=%v err=%v", ok, err)
	}
	if data, err := pkgClass.ReadAllBytes(); err != nil || string(data) != "greeter-bytes" {
		t.Fatalf("Greeter contents = %q, err=%v", data, err)
	}

	g, ok := ws.Group(location.ClassOutput)
	if !ok {
		t.Fatal("expected a materialised CLASS_OUTPUT group")
	}
	entries, err := g.List(ctx, "", []fileobject.Kind{fileobject.KindClass}, true)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d class-output entries, want 2 (module-info + package class): %+v", len(entries), entries)
	}
}

// TestScenarioAnnotationProcessorRoundWritesServiceFile covers S4: an
// annotation-processing round writing a META-INF/services registration is
// visible in class-output under its literal path.
func TestScenarioAnnotationProcessorRoundWritesServiceFile(t *testing.T) {
	ctx := context.Background()
	ws := jct.NewWorkspace("scenario-s4")
	defer ws.Close(ctx)

	src, err := ws.CreatePackage(location.SourcePath, jct.RootVariantInMemory)
	if err != nil {
		t.Fatalf("CreatePackage: %v", err)
	}
	file, err := src.CreateFile("Processed.java")
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	if err := file.WithContentsString("class Processed {}"); err != nil {
		t.Fatalf("WithContentsString: %v", err)
	}

	provider := &inprocess.Provider{Outcome: true}
	record, err := jct.Compile(ctx, ws, provider, jct.CompileOptions{})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !record.Success {
		t.Fatal("expected success")
	}

	// A real annotation processor writes its service registration through
	// Filer.createResource, which lands on the file manager the same way
	// this fake round does: a plain package/relative-name pair, not a
	// binary name.
	registration, err := record.FileManager.GetFileForOutput(ctx, location.ClassOutput, "META-INF/services", "com.example.Processor", nil)
	if err != nil {
		t.Fatalf("GetFileForOutput: %v", err)
	}
	if err := registration.WriteAllBytes([]byte("com.example.ProcessorImpl\n")); err != nil {
		t.Fatalf("WriteAllBytes: %v", err)
	}

	g, ok := ws.Group(location.ClassOutput)
	if !ok {
		t.Fatal("expected a materialised CLASS_OUTPUT group")
	}
	entries, err := g.List(ctx, "", []fileobject.Kind{fileobject.KindOther}, true)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var found *fileobject.FileObject
	for _, e := range entries {
		if e.Name() == "META-INF/services/com.example.Processor" {
			found = e
			break
		}
	}
	if found == nil {
		t.Fatalf("expected META-INF/services registration among class-output entries: %+v", entries)
	}
	data, err := found.ReadAllBytes()
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "com.example.ProcessorImpl\n" {
		t.Fatalf("got %q", data)
	}
}

// TestScenarioWorkspaceCloseRemovesTempDiskRoot covers the rest of S5: a
// temp-disk-backed package's directory is actually removed from disk once
// the owning workspace closes, not merely rejected for further use.
func TestScenarioWorkspaceCloseRemovesTempDiskRoot(t *testing.T) {
	ctx := context.Background()
	ws := jct.NewWorkspace("scenario-s5")

	src, err := ws.CreatePackage(location.SourcePath, jct.RootVariantTempDisk)
	if err != nil {
		t.Fatalf("CreatePackage: %v", err)
	}
	if _, err := src.CreateFile("Hello.java"); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}

	g, ok := ws.Group(location.SourcePath)
	if !ok {
		t.Fatal("expected a materialised SOURCE_PATH group")
	}
	containers := g.Containers()
	if len(containers) != 1 {
		t.Fatalf("got %d containers, want 1", len(containers))
	}
	dir := containers[0].Describe()
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("expected temp directory to exist before Close: %v", err)
	}

	if err := ws.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("expected temp directory %s to be removed after Close, stat err = %v", dir, err)
	}
}

// TestScenarioConcurrentDiagnosticsFromMultipleWorkersKeepThreadIdentity
// covers S6: K>=2 concurrent compiler workers each report a fixed share of
// N total diagnostics, and every diagnostic from a given worker carries
// that worker's constant captured goroutine identity.
func TestScenarioConcurrentDiagnosticsFromMultipleWorkersKeepThreadIdentity(t *testing.T) {
	ctx := context.Background()
	ws := jct.NewWorkspace("scenario-s6")
	defer ws.Close(ctx)

	const workers = 4
	const perWorker = 25

	provider := &concurrentWorkerProvider{workers: workers, perWorker: perWorker}
	record, err := jct.Compile(ctx, ws, provider, jct.CompileOptions{})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !record.Success {
		t.Fatal("expected success")
	}
	if len(record.Diagnostics) != workers*perWorker {
		t.Fatalf("got %d diagnostics, want %d", len(record.Diagnostics), workers*perWorker)
	}

	byGoroutine := map[int64]int{}
	for _, d := range record.Diagnostics {
		if d.GoroutineID == 0 {
			t.Fatal("expected a nonzero goroutine id")
		}
		byGoroutine[d.GoroutineID]++
	}
	if len(byGoroutine) != workers {
		t.Fatalf("got %d distinct worker goroutine ids, want %d", len(byGoroutine), workers)
	}
	for id, count := range byGoroutine {
		if count != perWorker {
			t.Fatalf("goroutine %d reported %d diagnostics, want %d", id, count, perWorker)
		}
	}
}

// concurrentWorkerProvider fakes a compiler whose task reports diagnostics
// from K independent worker goroutines, each reporting a fixed share of the
// total and nothing else, so every diagnostic that goroutine reports
// carries the same captured goroutine identity.
type concurrentWorkerProvider struct {
	workers   int
	perWorker int
}

func (p *concurrentWorkerProvider) CreateFileManager(listener *diagnostics.Listener, locale *language.Tag, charset encoding.Encoding) (jct.StandardFileManagerSeed, error) {
	return jct.StandardFileManagerSeed{}, nil
}

func (p *concurrentWorkerProvider) SupportedReleases() []string { return []string{"21"} }

func (p *concurrentWorkerProvider) GetTask(out io.Writer, fm *filemanager.FileManager, listener *diagnostics.Listener, options, classNames []string, units []*fileobject.FileObject) (jct.CompileTask, error) {
	return &concurrentWorkerTask{listener: listener, workers: p.workers, perWorker: p.perWorker}, nil
}

type concurrentWorkerTask struct {
	listener  *diagnostics.Listener
	workers   int
	perWorker int
}

func (t *concurrentWorkerTask) Run(ctx context.Context) bool {
	var wg sync.WaitGroup
	wg.Add(t.workers)
	for w := 0; w < t.workers; w++ {
		w := w
		go func() {
			defer wg.Done()
			for i := 0; i < t.perWorker; i++ {
				t.listener.Report(ctx, diagnostics.Diagnostic{
					Kind: diagnostics.KindNote,
					Code: fmt.Sprintf("worker-%d-note-%d", w, i),
				})
			}
		}()
	}
	wg.Wait()
	return true
}
