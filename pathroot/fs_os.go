package pathroot

import (
	"os"
	"path/filepath"

	"github.com/banksean/jct/fileobject"
)

// osFS adapts a directory on the real filesystem to fileobject.FS, with all
// paths resolved relative to root.
type osFS struct {
	root string
}

func newOSFS(root string) *osFS {
	return &osFS{root: root}
}

func (o *osFS) resolve(name string) string {
	return filepath.Join(o.root, filepath.FromSlash(name))
}

func (o *osFS) Open(name string) (fileobject.File, error) {
	return os.Open(o.resolve(name))
}

func (o *osFS) Create(name string) (fileobject.File, error) {
	return os.Create(o.resolve(name))
}

func (o *osFS) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(o.resolve(path), perm)
}

func (o *osFS) Stat(name string) (os.FileInfo, error) {
	return os.Stat(o.resolve(name))
}

func (o *osFS) Remove(name string) error {
	return os.Remove(o.resolve(name))
}
