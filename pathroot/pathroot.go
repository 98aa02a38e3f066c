// Package pathroot implements the three owned-handle variants onto a
// filesystem subtree described in spec §3 ("Path root"): a non-owning
// wrapper around an existing directory, an owned temporary directory on
// disk, and an owned in-memory filesystem. Directory containers observe but
// never own a PathRoot; ownership and release live with whichever Workspace
// created it (spec §9, "arena-style ownership"). The exception is the
// read-only in-memory root that an archive or registry container builds for
// its own contents, which that container closes.
package pathroot

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/banksean/jct/fileobject"
	"github.com/banksean/jct/jcterr"
	"github.com/spf13/afero"
)

// Variant distinguishes the three PathRoot implementations.
type Variant int

const (
	VariantWrapping Variant = iota
	VariantTempDisk
	VariantInMemory
)

func (v Variant) String() string {
	switch v {
	case VariantWrapping:
		return "wrapping"
	case VariantTempDisk:
		return "temp-disk"
	case VariantInMemory:
		return "in-memory"
	default:
		return "unknown"
	}
}

// PathRoot is an owned handle to a filesystem subtree. Exactly one of the
// three variants backs any given instance; see spec §3's "at most one
// lifecycle owner per path root" invariant, which is not checked at
// runtime: each root is closed by the one caller that constructed it.
type PathRoot interface {
	// FS returns the filesystem capability containers and file objects
	// should use to read/write relative to this root.
	FS() fileobject.FS
	// DisplayRoot returns the root's logical path, used to build file
	// object URIs and diagnostic messages. For in-memory roots this is a
	// synthetic "memfs:<instance>" path, never a real filesystem path.
	DisplayRoot() string
	// Writable reports whether new files may be created under this root.
	// Wrapping roots over a caller-supplied directory and temp/in-memory
	// roots created by the workspace are all writable; it is the
	// container/group layer that decides whether a given location should
	// expose that capability.
	Writable() bool
	// Variant reports which of the three PathRoot kinds this is.
	Variant() Variant
	// ResourceURL resolves rel to a URL a class loader could use to load
	// resources from this root. Returns UnsupportedPathForClassLoaderError
	// for roots with no meaningful URL form.
	ResourceURL(rel string) (*url.URL, error)
	// Close releases the root. Wrapping roots are a no-op (non-owning);
	// temp-disk roots recursively delete their directory; in-memory roots
	// drop their filesystem instance.
	Close() error
}

// wrappingRoot is a non-owning view of a path the caller already owns.
type wrappingRoot struct {
	path string
}

// NewWrapping wraps an externally owned directory. It is never deleted on
// Close — see Workspace.AddPath in the root package.
func NewWrapping(path string) PathRoot {
	return &wrappingRoot{path: path}
}

func (w *wrappingRoot) FS() fileobject.FS      { return newOSFS(w.path) }
func (w *wrappingRoot) DisplayRoot() string    { return w.path }
func (w *wrappingRoot) Writable() bool         { return true }
func (w *wrappingRoot) Variant() Variant       { return VariantWrapping }
func (w *wrappingRoot) Close() error           { return nil }
func (w *wrappingRoot) ResourceURL(rel string) (*url.URL, error) {
	return fileResourceURL(w.path, rel)
}

// tempDiskRoot is an owned temporary directory, recursively deleted on
// Close.
type tempDiskRoot struct {
	path string
}

// NewTempDisk creates a fresh temporary directory under baseDir (the OS
// default temp directory if empty), named "jct-" plus the sanitized name
// plus the random suffix os.MkdirTemp adds.
func NewTempDisk(baseDir, name string) (PathRoot, error) {
	dir, err := os.MkdirTemp(baseDir, "jct-"+sanitizeName(name)+"-")
	if err != nil {
		return nil, fmt.Errorf("jct: creating temp-disk root: %w", err)
	}
	return &tempDiskRoot{path: dir}, nil
}

func (t *tempDiskRoot) FS() fileobject.FS      { return newOSFS(t.path) }
func (t *tempDiskRoot) DisplayRoot() string    { return t.path }
func (t *tempDiskRoot) Writable() bool         { return true }
func (t *tempDiskRoot) Variant() Variant       { return VariantTempDisk }
func (t *tempDiskRoot) ResourceURL(rel string) (*url.URL, error) {
	return fileResourceURL(t.path, rel)
}

// Close recursively removes the temp directory. Transient failures (common
// on network filesystems and under antivirus scanners on some platforms)
// get one retry after a short pause before the error is surfaced.
func (t *tempDiskRoot) Close() error {
	err := os.RemoveAll(t.path)
	if err == nil {
		return nil
	}
	time.Sleep(50 * time.Millisecond)
	if retryErr := os.RemoveAll(t.path); retryErr == nil {
		return nil
	}
	return fmt.Errorf("jct: removing temp-disk root %s: %w", t.path, err)
}

// inMemoryRoot is a RAM-backed filesystem instance, released on Close.
type inMemoryRoot struct {
	instanceID string
	fs         afero.Fs
	readOnly   bool
}

// NewInMemory creates a fresh in-memory filesystem. instanceID must be
// unique within the process for the lifetime of the root; it appears in
// the root's synthetic memfs: URIs.
func NewInMemory(instanceID string) PathRoot {
	return &inMemoryRoot{instanceID: instanceID, fs: afero.NewMemMapFs()}
}

func (m *inMemoryRoot) FS() fileobject.FS   { return newAferoFS(m.fs) }
func (m *inMemoryRoot) DisplayRoot() string { return "memfs:" + m.instanceID }
func (m *inMemoryRoot) Writable() bool      { return !m.readOnly }
func (m *inMemoryRoot) Variant() Variant    { return VariantInMemory }

func (m *inMemoryRoot) ResourceURL(rel string) (*url.URL, error) {
	return nil, &jcterr.UnsupportedPathForClassLoaderError{PathRootDescription: m.DisplayRoot()}
}

// Close drops the in-memory filesystem. afero's MemMapFs holds no external
// resources, so this simply releases the reference.
func (m *inMemoryRoot) Close() error {
	m.fs = afero.NewMemMapFs()
	return nil
}

// NewPrepopulatedReadOnly wraps an already-populated afero.Fs (typically
// built by unpacking an archive or flattening an OCI image's layers) as a
// read-only in-memory PathRoot. Used by the archive and registry container
// variants, which mount their backing store once at construction time.
func NewPrepopulatedReadOnly(instanceID string, fs afero.Fs) PathRoot {
	return &inMemoryRoot{instanceID: instanceID, fs: afero.NewReadOnlyFs(fs), readOnly: true}
}

// scopedRoot rebases an existing, externally owned PathRoot under a
// relative prefix — used to turn one module-source-path root into a
// distinct PathRoot per discovered module subdirectory (spec §4.8) without
// giving the module its own lifecycle: Close is a no-op, since the parent
// root (and the workspace that owns it) is the sole owner.
type scopedRoot struct {
	parent PathRoot
	prefix string
}

// NewScoped rebases parent under prefix (a "/"-separated relative path).
// The returned PathRoot is never itself owning; closing it does nothing.
func NewScoped(parent PathRoot, prefix string) PathRoot {
	return &scopedRoot{parent: parent, prefix: filepath.ToSlash(prefix)}
}

func (s *scopedRoot) FS() fileobject.FS {
	return newScopedFS(s.parent.FS(), s.prefix)
}

func (s *scopedRoot) DisplayRoot() string {
	return filepath.ToSlash(filepath.Join(s.parent.DisplayRoot(), s.prefix))
}

func (s *scopedRoot) Writable() bool    { return s.parent.Writable() }
func (s *scopedRoot) Variant() Variant  { return s.parent.Variant() }
func (s *scopedRoot) Close() error      { return nil }

func (s *scopedRoot) ResourceURL(rel string) (*url.URL, error) {
	return s.parent.ResourceURL(filepath.ToSlash(filepath.Join(s.prefix, rel)))
}

func fileResourceURL(root, rel string) (*url.URL, error) {
	full := filepath.ToSlash(filepath.Join(root, filepath.FromSlash(rel)))
	if !filepath.IsAbs(root) {
		return nil, &jcterr.UnsupportedPathForClassLoaderError{PathRootDescription: root}
	}
	return &url.URL{Scheme: "file", Path: full}, nil
}

func sanitizeName(name string) string {
	if name == "" {
		return "root"
	}
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			out = append(out, r)
		default:
			out = append(out, '-')
		}
	}
	return string(out)
}
