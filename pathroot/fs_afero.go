package pathroot

import (
	"os"

	"github.com/banksean/jct/fileobject"
	"github.com/spf13/afero"
)

// aferoFS adapts an afero.Fs (used for the in-memory "RAM-disk" variant) to
// fileobject.FS.
type aferoFS struct {
	fs afero.Fs
}

func newAferoFS(fs afero.Fs) *aferoFS {
	return &aferoFS{fs: fs}
}

func (a *aferoFS) Open(name string) (fileobject.File, error) {
	return a.fs.Open(name)
}

func (a *aferoFS) Create(name string) (fileobject.File, error) {
	return a.fs.Create(name)
}

func (a *aferoFS) MkdirAll(path string, perm os.FileMode) error {
	return a.fs.MkdirAll(path, perm)
}

func (a *aferoFS) Stat(name string) (os.FileInfo, error) {
	return a.fs.Stat(name)
}

func (a *aferoFS) Remove(name string) error {
	return a.fs.Remove(name)
}
