// Package inprocess provides a fake jct.CompilerProvider used only by this
// module's own tests: it never compiles anything, just records every call
// it receives and plays back a canned CompileTask result, in a
// fakeable-interface-plus-recorder style.
package inprocess

import (
	"context"
	"fmt"
	"io"
	"sync"

	"golang.org/x/text/encoding"
	"golang.org/x/text/language"

	jct "github.com/banksean/jct"
	"github.com/banksean/jct/diagnostics"
	"github.com/banksean/jct/fileobject"
	"github.com/banksean/jct/filemanager"
	"github.com/banksean/jct/location"
)

// ClassResult is a fake class file the Provider writes to
// location.ClassOutput when a compile it fakes succeeds.
type ClassResult struct {
	BinaryName string
	Contents   []byte
}

// Call records a single invocation of the provider for later assertions.
type Call struct {
	Method     string
	Options    []string
	ClassNames []string
	UnitNames  []string
}

// Provider is a fake CompilerProvider. Zero value is usable; set Releases,
// Outcome, Diagnostics and Outputs before handing it to a Workspace's
// Compile call to script the fake's behavior.
type Provider struct {
	// Releases is returned by SupportedReleases.
	Releases []string
	// Outcome is returned by the CompileTask this provider's GetTask
	// builds.
	Outcome bool
	// Diagnostics are replayed into the listener during Run.
	Diagnostics []diagnostics.Diagnostic
	// Outputs are written to the file manager's class-output location
	// during Run, keyed by binary name.
	Outputs []ClassResult
	// Transcript is copied to the task's out writer during Run.
	Transcript string

	mu    sync.Mutex
	calls []Call
}

var _ jct.CompilerProvider = (*Provider)(nil)

// Calls returns a snapshot of every recorded invocation, in call order.
func (p *Provider) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Call, len(p.calls))
	copy(out, p.calls)
	return out
}

func (p *Provider) record(c Call) {
	p.mu.Lock()
	p.calls = append(p.calls, c)
	p.mu.Unlock()
}

// CreateFileManager records the call and always succeeds, echoing back an
// empty seed since this fake never owns any path roots of its own.
func (p *Provider) CreateFileManager(listener *diagnostics.Listener, locale *language.Tag, charset encoding.Encoding) (jct.StandardFileManagerSeed, error) {
	p.record(Call{Method: "CreateFileManager"})
	return jct.StandardFileManagerSeed{Locale: locale, Charset: charset}, nil
}

// SupportedReleases returns the scripted release list.
func (p *Provider) SupportedReleases() []string {
	p.record(Call{Method: "SupportedReleases"})
	return p.Releases
}

// GetTask records the call's arguments and returns a task that replays the
// scripted diagnostics/outputs/outcome when run.
func (p *Provider) GetTask(out io.Writer, fm *filemanager.FileManager, listener *diagnostics.Listener, options []string, classNames []string, units []*fileobject.FileObject) (jct.CompileTask, error) {
	unitNames := make([]string, len(units))
	for i, u := range units {
		unitNames[i] = u.Name()
	}
	p.record(Call{Method: "GetTask", Options: options, ClassNames: classNames, UnitNames: unitNames})

	return &fakeTask{provider: p, out: out, fm: fm, listener: listener}, nil
}

type fakeTask struct {
	provider *Provider
	out      io.Writer
	fm       *filemanager.FileManager
	listener *diagnostics.Listener
}

// Run replays the provider's scripted diagnostics and outputs, then
// returns the scripted outcome. It never touches ctx: the fake has no
// asynchronous work.
func (t *fakeTask) Run(ctx context.Context) bool {
	if t.out != nil && t.provider.Transcript != "" {
		fmt.Fprint(t.out, t.provider.Transcript)
	}
	for _, d := range t.provider.Diagnostics {
		t.listener.Report(ctx, d)
	}
	for _, o := range t.provider.Outputs {
		fo, err := t.fm.GetJavaFileForOutput(ctx, location.ClassOutput, o.BinaryName, fileobject.KindClass, nil)
		if err != nil {
			fmt.Fprintf(t.out, "jct/inprocess: writing fake output %s: %v\n", o.BinaryName, err)
			return false
		}
		if err := fo.WriteAllBytes(o.Contents); err != nil {
			fmt.Fprintf(t.out, "jct/inprocess: writing fake output %s: %v\n", o.BinaryName, err)
			return false
		}
	}
	return t.provider.Outcome
}
