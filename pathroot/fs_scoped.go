package pathroot

import (
	"os"
	"path/filepath"

	"github.com/banksean/jct/fileobject"
)

// scopedFS rebases every path passed to it under a fixed prefix before
// delegating to the underlying FS, giving a subdirectory of an existing
// root its own fileobject.FS without copying anything.
type scopedFS struct {
	inner  fileobject.FS
	prefix string
}

func newScopedFS(inner fileobject.FS, prefix string) fileobject.FS {
	return &scopedFS{inner: inner, prefix: prefix}
}

func (s *scopedFS) rebase(name string) string {
	return filepath.ToSlash(filepath.Join(s.prefix, name))
}

func (s *scopedFS) Open(name string) (fileobject.File, error) {
	return s.inner.Open(s.rebase(name))
}

func (s *scopedFS) Create(name string) (fileobject.File, error) {
	return s.inner.Create(s.rebase(name))
}

func (s *scopedFS) MkdirAll(path string, perm os.FileMode) error {
	return s.inner.MkdirAll(s.rebase(path), perm)
}

func (s *scopedFS) Stat(name string) (os.FileInfo, error) {
	return s.inner.Stat(s.rebase(name))
}

func (s *scopedFS) Remove(name string) error {
	return s.inner.Remove(s.rebase(name))
}
