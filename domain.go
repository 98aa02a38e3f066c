package jct

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/goombaio/namegenerator"

	"github.com/banksean/jct/container"
	"github.com/banksean/jct/fileobject"
	"github.com/banksean/jct/filemanager"
	"github.com/banksean/jct/group"
	"github.com/banksean/jct/jcterr"
	"github.com/banksean/jct/location"
	"github.com/banksean/jct/pathroot"
)

// Workspace is the lifecycle container a test builds up with packages and
// modules, then compiles against a CompilerProvider (spec §4.6). Every
// path root it creates is owned by its Slab and released together on
// Close; roots attached via AddPath are not.
type Workspace struct {
	instanceID string
	slab       pathroot.Slab
	repo       *group.Repository
	closed     atomic.Bool

	fileManager *filemanager.FileManager
}

// NewWorkspace creates an empty workspace. instanceID seeds the synthetic
// URIs of any in-memory roots it creates.
func NewWorkspace(instanceID string) *Workspace {
	return &Workspace{instanceID: instanceID, repo: group.NewRepository()}
}

// NewAutoWorkspace creates an empty workspace with a generated, human
// readable instance ID, for callers (demos, ad hoc scripts) that don't need
// a caller-chosen identity for the workspace's synthetic URIs.
func NewAutoWorkspace() *Workspace {
	seed := time.Now().UTC().UnixNano()
	return NewWorkspace(namegenerator.NewNameGenerator(seed).Generate())
}

func (w *Workspace) checkOpen() error {
	if w.closed.Load() {
		return ErrWorkspaceClosed
	}
	return nil
}

// RootVariant selects the backing storage for a workspace-owned root.
type RootVariant int

const (
	// RootVariantTempDisk backs a package/module with a real temp
	// directory, removed on Close.
	RootVariantTempDisk RootVariant = iota
	// RootVariantInMemory backs a package/module with a dedicated
	// afero.MemMapFs instance, discarded on Close.
	RootVariantInMemory
)

// DirectoryHandle is the path-wrapper directory protocol (spec §6): a
// handle rooted at a managed directory, with operations to populate it.
type DirectoryHandle struct {
	root pathroot.PathRoot
	rel  string
}

func newDirectoryHandle(root pathroot.PathRoot) *DirectoryHandle {
	return &DirectoryHandle{root: root, rel: ""}
}

// CreateDirectory creates (and descends into) a subdirectory named by the
// given path segments, each of which must be non-empty and free of path
// separators and "..".
func (h *DirectoryHandle) CreateDirectory(segments ...string) (*DirectoryHandle, error) {
	rel := h.rel
	for _, seg := range segments {
		if err := validateSegment(seg); err != nil {
			return nil, err
		}
		rel = filepath.ToSlash(filepath.Join(rel, seg))
	}
	if err := h.root.FS().MkdirAll(rel, 0o755); err != nil {
		return nil, err
	}
	return &DirectoryHandle{root: h.root, rel: rel}, nil
}

// FileHandle is returned by CreateFile; callers chain WithContents onto it
// to actually write the file.
type FileHandle struct {
	root pathroot.PathRoot
	rel  string
}

// CreateFile names a file under this directory without writing it yet.
// Call WithContents to populate it.
func (h *DirectoryHandle) CreateFile(segments ...string) (*FileHandle, error) {
	rel := h.rel
	for _, seg := range segments {
		if err := validateSegment(seg); err != nil {
			return nil, err
		}
		rel = filepath.ToSlash(filepath.Join(rel, seg))
	}
	return &FileHandle{root: h.root, rel: rel}, nil
}

// WithContents writes data to the file atomically: write to a sibling
// temp name, then rename over the final path.
func (f *FileHandle) WithContents(data []byte) error {
	fs := f.root.FS()
	if err := fs.MkdirAll(filepath.ToSlash(filepath.Dir(f.rel)), 0o755); err != nil {
		return err
	}
	tmp := f.rel + ".tmp"
	w, err := fs.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return renameViaCopy(fs, tmp, f.rel)
}

// WithContentsString is a convenience wrapper around WithContents.
func (f *FileHandle) WithContentsString(contents string) error {
	return f.WithContents([]byte(contents))
}

// WithContentsLines joins lines with "\n" and writes the result.
func (f *FileHandle) WithContentsLines(lines []string) error {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return f.WithContentsString(out)
}

// renameViaCopy implements the write-to-temp-then-rename dance against the
// fileobject.FS abstraction, which has no native Rename: copy then remove
// the temp name, which is atomic enough for this harness's single-writer
// assumption (spec §6, "writes atomically").
func renameViaCopy(fs fileobject.FS, tmp, final string) error {
	r, err := fs.Open(tmp)
	if err != nil {
		return err
	}
	data, err := io.ReadAll(r)
	r.Close()
	if err != nil {
		return err
	}
	w, err := fs.Create(final)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return fs.Remove(tmp)
}

// CopyContentsFrom copies a host directory tree rooted at hostPath into
// this directory, preserving relative structure.
func (h *DirectoryHandle) CopyContentsFrom(hostPath string) error {
	return filepath.Walk(hostPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(hostPath, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}
		dst := filepath.ToSlash(filepath.Join(h.rel, rel))
		if info.IsDir() {
			return h.root.FS().MkdirAll(dst, 0o755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		w, err := h.root.FS().Create(dst)
		if err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			w.Close()
			return err
		}
		return w.Close()
	})
}

func validateSegment(seg string) error {
	if seg == "" {
		return &jcterr.IllegalNameError{Name: seg, Reason: "empty path segment"}
	}
	if seg == "." || seg == ".." {
		return &jcterr.IllegalNameError{Name: seg, Reason: "traversal segment"}
	}
	for _, r := range seg {
		if r == '/' || r == '\\' {
			return &jcterr.IllegalNameError{Name: seg, Reason: "path separator in segment"}
		}
	}
	return nil
}

func (w *Workspace) newRoot(name string, variant RootVariant) (pathroot.PathRoot, error) {
	switch variant {
	case RootVariantInMemory:
		return pathroot.NewInMemory(w.instanceID + "-" + name), nil
	default:
		return pathroot.NewTempDisk("", w.instanceID+"-"+name)
	}
}

// CreatePackage creates a new workspace-owned directory root, attaches it
// to loc, and returns a handle for populating it (spec §4.6,
// "create-package").
func (w *Workspace) CreatePackage(loc location.Location, variant RootVariant) (*DirectoryHandle, error) {
	if err := w.checkOpen(); err != nil {
		return nil, err
	}
	root, err := w.newRoot(loc.Name(), variant)
	if err != nil {
		return nil, err
	}
	w.slab.Acquire(root)
	if err := w.repo.AddPath(context.Background(), loc, root); err != nil {
		return nil, err
	}
	return newDirectoryHandle(root), nil
}

// CreateModule creates a new workspace-owned directory root and attaches
// it to the (location, name) module reference (spec §4.6,
// "create-module").
func (w *Workspace) CreateModule(loc location.Location, name string, variant RootVariant) (*DirectoryHandle, error) {
	if err := w.checkOpen(); err != nil {
		return nil, err
	}
	root, err := w.newRoot(loc.Name()+"-"+name, variant)
	if err != nil {
		return nil, err
	}
	w.slab.Acquire(root)
	w.repo.AddPathForModule(location.NewModuleRef(loc, name), root)
	return newDirectoryHandle(root), nil
}

// AddPath attaches an externally owned, wrapping path root at externalPath
// to loc. The root is not deleted on Close (spec §4.6, "add-path").
func (w *Workspace) AddPath(loc location.Location, externalPath string) error {
	if err := w.checkOpen(); err != nil {
		return err
	}
	root := pathroot.NewWrapping(externalPath)
	return w.repo.AddPath(context.Background(), loc, root)
}

// AddContainer attaches an already-constructed container directly to loc,
// for callers that need archive or registry containers (spec §4.2) rather
// than a plain directory.
func (w *Workspace) AddContainer(loc location.Location, c container.Container) error {
	if err := w.checkOpen(); err != nil {
		return err
	}
	g, ok := w.repo.Group(loc)
	if !ok {
		return &jcterr.IllegalOperationError{Location: loc.String(), Operation: "add-container"}
	}
	g.AddContainer(c)
	return nil
}

// Group exposes the underlying container group at loc, for tools (such as
// treeprint) that need to list or diff a location's contents directly
// rather than through the file manager.
func (w *Workspace) Group(loc location.Location) (group.Group, bool) {
	return w.repo.Group(loc)
}

// Close closes every workspace-owned root in reverse insertion order,
// closes the file manager if one was materialised, and aggregates any
// individual failures into a WorkspaceCloseError (spec §4.6, "close").
func (w *Workspace) Close(ctx context.Context) error {
	if !w.closed.CompareAndSwap(false, true) {
		return nil
	}
	if w.fileManager != nil {
		w.fileManager.Close()
	}
	var causes []error
	if err := w.repo.Close(ctx); err != nil {
		causes = append(causes, err)
	}
	if err := w.slab.CloseAll(ctx); err != nil {
		causes = append(causes, err)
	}
	return jcterr.NewAggregateError("workspace close", causes)
}
