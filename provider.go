package jct

import (
	"context"
	"io"

	"golang.org/x/text/encoding"
	"golang.org/x/text/language"

	"github.com/banksean/jct/diagnostics"
	"github.com/banksean/jct/fileobject"
	"github.com/banksean/jct/filemanager"
)

// StandardFileManagerSeed is what CreateFileManager hands back. It carries
// no path roots (its roots method always returns nil): every provider this
// module ships returns a seed holding only the requested locale and
// charset, and the workspace supplies its own roots via
// AddPath/CreatePackage/CreateModule.
type StandardFileManagerSeed struct {
	// Locale and Charset echo back what the caller asked for, so callers
	// that built the seed from a provider response can confirm the
	// provider actually honored the request.
	Locale  *language.Tag
	Charset encoding.Encoding
}

// CompileTask is the runnable handle returned by CompilerProvider.GetTask.
// Run executes the compilation and returns its overall success, matching
// the single-boolean return the compilation façade packages into a
// CompileRecord (spec §4.9 step 4).
type CompileTask interface {
	Run(ctx context.Context) bool
}

// CompilerProvider is the injected dependency a Workspace compiles
// against. Two implementations ship with this module: jct/rpcprovider
// (forwards to a compiler service in a different process) and
// jct/inprocess (a fake used by this module's own tests).
type CompilerProvider interface {
	CreateFileManager(listener *diagnostics.Listener, locale *language.Tag, charset encoding.Encoding) (StandardFileManagerSeed, error)
	GetTask(out io.Writer, fm *filemanager.FileManager, listener *diagnostics.Listener, options []string, classNames []string, units []*fileobject.FileObject) (CompileTask, error)
	SupportedReleases() []string
}
