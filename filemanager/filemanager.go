// Package filemanager implements the compiler service's file-manager
// capability (spec §4.5) by dispatching every operation onto a
// group.Repository.
package filemanager

import (
	"context"
	"path"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/banksean/jct/fileobject"
	"github.com/banksean/jct/group"
	"github.com/banksean/jct/jcterr"
	"github.com/banksean/jct/location"
)

// FileManager dispatches every operation onto a group.Repository. It
// carries two independent states beyond the repository's own: "sealed",
// set once the owning workspace hands it to a compiler provider, and
// "closed", entered when the owning workspace closes it (spec §4.11). The
// sealed flag is only recorded: neither the file manager nor the
// repository reads it, so mutating repository calls are not rejected
// after Seal.
type FileManager struct {
	repo *group.Repository

	sealed atomic.Bool
	mu     sync.Mutex
	closed bool
}

// New wraps repo as a file manager. The repository is expected to already
// be populated via Workspace.AddPath/AddPathForModule calls made before the
// file manager is sealed for a compile.
func New(repo *group.Repository) *FileManager {
	return &FileManager{repo: repo}
}

// Seal sets the file manager's "sealed" flag, called before the file manager
// is handed to the compiler provider. Nothing consults the flag: the
// repository's location map can still be mutated afterwards, and reads
// still take the repository's mutex.
func (fm *FileManager) Seal() { fm.sealed.Store(true) }

// Close transitions the file manager to closed; every operation performed
// afterwards fails with jcterr.ErrFileManagerClosed. The owning workspace,
// not the file manager itself, closes the underlying repository's groups.
func (fm *FileManager) Close() {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	fm.closed = true
}

func (fm *FileManager) checkOpen() error {
	fm.mu.Lock()
	closed := fm.closed
	fm.mu.Unlock()
	if closed {
		return jcterr.ErrFileManagerClosed
	}
	return nil
}

func relPath(pkg, relname string) string {
	dir := strings.ReplaceAll(pkg, ".", "/")
	if dir == "" {
		return relname
	}
	return path.Join(dir, relname)
}

// GetFileForInput resolves (pkg, relname) against loc's containers,
// returning the first hit.
func (fm *FileManager) GetFileForInput(ctx context.Context, loc location.Location, pkg, relname string) (*fileobject.FileObject, bool, error) {
	if err := fm.checkOpen(); err != nil {
		return nil, false, err
	}
	g, ok := fm.repo.Group(loc)
	if !ok {
		return nil, false, nil
	}
	return g.Find(ctx, relPath(pkg, relname))
}

// GetFileForOutput resolves relative to the first container of loc's
// output group, creating the file object even if the path does not yet
// exist. sibling is accepted for API compatibility with providers that pass
// a hint file alongside the same package, but is not otherwise consulted:
// this harness's output groups are single-rooted per location.
func (fm *FileManager) GetFileForOutput(ctx context.Context, loc location.Location, pkg, relname string, sibling *fileobject.FileObject) (*fileobject.FileObject, error) {
	if err := fm.checkOpen(); err != nil {
		return nil, err
	}
	if !loc.Output() {
		return nil, &jcterr.IllegalOperationError{Location: loc.Name(), Operation: "get-file-for-output"}
	}
	g, ok := fm.repo.Group(loc)
	if !ok {
		return nil, &jcterr.IllegalOperationError{Location: loc.Name(), Operation: "get-file-for-output"}
	}
	containers := g.Containers()
	if len(containers) == 0 {
		return nil, &jcterr.IllegalOperationError{Location: loc.Name(), Operation: "get-file-for-output"}
	}
	return containers[0].OutputFileObject(relPath(pkg, relname))
}

// GetJavaFileForInput is GetFileForInput with a binary-name-to-path
// conversion in place of an explicit package/relative-name pair.
func (fm *FileManager) GetJavaFileForInput(ctx context.Context, loc location.Location, binaryName string, kind fileobject.Kind) (*fileobject.FileObject, bool, error) {
	if err := fm.checkOpen(); err != nil {
		return nil, false, err
	}
	g, ok := fm.repo.Group(loc)
	if !ok {
		return nil, false, nil
	}
	return g.Find(ctx, fileobject.BinaryNameToPath(binaryName, kind))
}

// GetJavaFileForOutput is GetFileForOutput with a binary-name-to-path
// conversion.
func (fm *FileManager) GetJavaFileForOutput(ctx context.Context, loc location.Location, binaryName string, kind fileobject.Kind, sibling *fileobject.FileObject) (*fileobject.FileObject, error) {
	if err := fm.checkOpen(); err != nil {
		return nil, err
	}
	if !loc.Output() {
		return nil, &jcterr.IllegalOperationError{Location: loc.Name(), Operation: "get-java-file-for-output"}
	}
	g, ok := fm.repo.Group(loc)
	if !ok {
		return nil, &jcterr.IllegalOperationError{Location: loc.Name(), Operation: "get-java-file-for-output"}
	}
	containers := g.Containers()
	if len(containers) == 0 {
		return nil, &jcterr.IllegalOperationError{Location: loc.Name(), Operation: "get-java-file-for-output"}
	}
	return containers[0].OutputFileObject(fileobject.BinaryNameToPath(binaryName, kind))
}

// List is the union over loc's containers.
func (fm *FileManager) List(ctx context.Context, loc location.Location, pkg string, kinds []fileobject.Kind, recurse bool) ([]*fileobject.FileObject, error) {
	if err := fm.checkOpen(); err != nil {
		return nil, err
	}
	g, ok := fm.repo.Group(loc)
	if !ok {
		return nil, nil
	}
	return g.List(ctx, pkg, kinds, recurse)
}

// InferBinaryName asks loc's first claiming container for fo's binary name.
func (fm *FileManager) InferBinaryName(loc location.Location, fo *fileobject.FileObject) (string, bool) {
	g, ok := fm.repo.Group(loc)
	if !ok {
		return "", false
	}
	return g.InferBinaryName(fo)
}

// GetClassLoader returns the lazy class loader of loc's materialised
// package group, or nil if loc has no such group.
func (fm *FileManager) GetClassLoader(loc location.Location) (*group.ClassLoader, error) {
	g, ok := fm.repo.Group(loc)
	if !ok {
		return nil, nil
	}
	return g.ClassLoader()
}

// IsSameFile compares two file objects by URI equality.
func (fm *FileManager) IsSameFile(a, b *fileobject.FileObject) bool {
	return a.Equal(b)
}

// HasLocation reports whether loc has been materialised.
func (fm *FileManager) HasLocation(loc location.Location) bool {
	return fm.repo.HasLocation(loc)
}

// Contains reports whether fo was produced by one of loc's containers, by
// checking whether loc's infer-binary-name would claim it.
func (fm *FileManager) Contains(loc location.Location, fo *fileobject.FileObject) bool {
	_, ok := fm.InferBinaryName(loc, fo)
	return ok
}

// ListLocationForModules yields the (location, module-name) references
// known for a module-oriented location.
func (fm *FileManager) ListLocationForModules(loc location.Location) []location.ModuleRef {
	return fm.repo.ListLocationForModules(loc)
}
