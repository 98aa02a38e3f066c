package jct

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/text/encoding"
	"golang.org/x/text/language"

	"github.com/banksean/jct/diagnostics"
	"github.com/banksean/jct/fileobject"
	"github.com/banksean/jct/filemanager"
	"github.com/banksean/jct/group"
	"github.com/banksean/jct/history"
	"github.com/banksean/jct/location"
	"github.com/banksean/jct/pathroot"
)

// CompileOptions configures one compile() call.
type CompileOptions struct {
	// Options are passed through to the provider unchanged (spec §6,
	// "semantics are provider-specific; the core treats them opaquely").
	Options []string
	// ClassNames names specific classes to process, e.g. for annotation
	// processing runs with no new sources.
	ClassNames []string
	// FailOnWarnings is echoed back on the CompileRecord; the harness
	// itself never inspects diagnostic kinds to decide pass/fail — that
	// judgment belongs to the caller's assertions.
	FailOnWarnings bool
	// InheritHostClasspath, if true, attaches the current process's
	// CLASSPATH entries (colon/semicolon separated, per os.PathListSeparator)
	// as additional wrapping roots on location.ClassPath before compiling.
	InheritHostClasspath bool
	Locale               *language.Tag
	Charset              encoding.Encoding
	// Recorder, if set, persists a history.Run summarizing this call once
	// the compile task finishes running (spec §4.12). Recording failures are
	// logged, not returned: a broken history database should never fail a
	// compile.
	Recorder *history.Recorder
}

// CompileRecord is the result of one compile() call (spec §4.9 step 5).
type CompileRecord struct {
	Success          bool
	FailOnWarnings   bool
	OutputTranscript string
	Units            []*fileobject.FileObject
	Diagnostics      []diagnostics.TracedDiagnostic
	FileManager      *filemanager.FileManager
}

// Compile materialises a file manager over w's configured locations, hands
// it to compiler, and returns the compilation record. The file manager
// outlives this call; w owns it and closes it when w.Close runs (spec
// §4.9).
func Compile(ctx context.Context, w *Workspace, compiler CompilerProvider, opts CompileOptions) (*CompileRecord, error) {
	if err := w.checkOpen(); err != nil {
		return nil, err
	}

	for _, loc := range []location.Location{location.SourceOutput, location.ClassOutput, location.NativeHeaderOutput} {
		if !w.repo.HasLocation(loc) {
			if _, err := w.CreatePackage(loc, RootVariantInMemory); err != nil {
				return nil, err
			}
		}
	}

	if opts.InheritHostClasspath {
		if err := inheritHostClasspath(w); err != nil {
			return nil, err
		}
	}

	listener := diagnostics.New("jct.compile")

	seed, err := compiler.CreateFileManager(listener, opts.Locale, opts.Charset)
	if err != nil {
		return nil, &CompilerError{Message: "creating file manager", Cause: err}
	}
	for _, root := range seed.roots() {
		w.slab.Acquire(root)
	}

	fm := filemanager.New(w.repo)
	w.fileManager = fm

	units, err := gatherCompilationUnits(ctx, w.repo)
	if err != nil {
		return nil, err
	}

	var transcript bytes.Buffer
	fm.Seal()
	task, err := compiler.GetTask(&transcript, fm, listener, opts.Options, opts.ClassNames, units)
	if err != nil {
		return nil, &CompilerError{Message: "building compile task", Cause: err}
	}

	startedAt := time.Now()
	success := task.Run(ctx)
	duration := time.Since(startedAt)
	snapshot := listener.Snapshot()

	if opts.Recorder != nil {
		run := history.Run{
			WorkspaceID:      w.instanceID,
			StartedAt:        startedAt,
			Duration:         duration,
			Success:          success,
			FailOnWarnings:   opts.FailOnWarnings,
			OutputTranscript: transcript.String(),
			DiagnosticCount:  len(snapshot),
		}
		if err := opts.Recorder.Record(ctx, run); err != nil {
			slog.ErrorContext(ctx, "jct.Compile: recording compile run", "error", err)
		}
	}

	return &CompileRecord{
		Success:          success,
		FailOnWarnings:   opts.FailOnWarnings,
		OutputTranscript: transcript.String(),
		Units:            units,
		Diagnostics:      snapshot,
		FileManager:      fm,
	}, nil
}

// roots is a seam for StandardFileManagerSeed to surface any path roots a
// provider constructed itself (none of the providers this module ships
// currently do; the method exists so a future provider can hand the
// workspace ownership of roots it materialises).
func (s StandardFileManagerSeed) roots() []pathroot.PathRoot { return nil }

func gatherCompilationUnits(ctx context.Context, repo *group.Repository) ([]*fileobject.FileObject, error) {
	var units []*fileobject.FileObject

	for _, loc := range []location.Location{location.SourcePath} {
		g, ok := repo.Group(loc)
		if !ok {
			continue
		}
		found, err := g.List(ctx, "", []fileobject.Kind{fileobject.KindSource}, true)
		if err != nil {
			return nil, err
		}
		units = append(units, found...)
	}

	for _, ref := range repo.ListLocationForModules(location.ModuleSourcePath) {
		g, ok := repo.GroupForModule(ref)
		if !ok {
			continue
		}
		found, err := g.List(ctx, "", []fileobject.Kind{fileobject.KindSource}, true)
		if err != nil {
			return nil, err
		}
		units = append(units, found...)
	}

	return units, nil
}

// inheritHostClasspath attaches the running process's CLASSPATH entries as
// wrapping roots, letting a compile() call see the host runtime's
// classpath the way spec §4.9 step 2 describes. Entries that don't exist
// on disk are skipped rather than failing the whole call — a stale
// CLASSPATH entry is common and shouldn't block every test that inherits
// it.
func inheritHostClasspath(w *Workspace) error {
	cp := os.Getenv("CLASSPATH")
	if cp == "" {
		return nil
	}
	for _, entry := range filepath.SplitList(cp) {
		if entry == "" {
			continue
		}
		if _, err := os.Stat(entry); err != nil {
			continue
		}
		if err := w.AddPath(location.ClassPath, entry); err != nil {
			return err
		}
	}
	return nil
}
