package container

import (
	"context"
	"net/url"
	"os"
	"path"

	"github.com/banksean/jct/fileobject"
	"github.com/banksean/jct/location"
	"github.com/banksean/jct/pathroot"
)

// directoryContainer presents a plain directory tree, rooted at a
// pathroot.PathRoot, as a Container.
type directoryContainer struct {
	root     pathroot.PathRoot
	location location.Location
}

func newDirectoryContainer(root pathroot.PathRoot, loc location.Location) *directoryContainer {
	return &directoryContainer{root: root, location: loc}
}

func (d *directoryContainer) Writable() bool   { return d.root.Writable() }
func (d *directoryContainer) Describe() string { return d.root.DisplayRoot() }
func (d *directoryContainer) Close() error     { return nil }

func (d *directoryContainer) Find(ctx context.Context, rel string) (*fileobject.FileObject, bool, error) {
	if err := validateRelativeName(rel); err != nil {
		return nil, false, err
	}
	fs := d.root.FS()
	info, err := fs.Stat(rel)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if info.IsDir() {
		return nil, false, nil
	}
	return fileobject.New(fs, d.root.DisplayRoot(), rel, d.location, d.root.Writable()), true, nil
}

func (d *directoryContainer) List(ctx context.Context, pkg string, kinds []fileobject.Kind, recurse bool) ([]*fileobject.FileObject, error) {
	if len(kinds) == 0 {
		return nil, nil
	}
	dir := packageToDir(pkg)
	fs := d.root.FS()
	entries, err := readDirNames(fs, dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	wanted := make(map[fileobject.Kind]bool, len(kinds))
	for _, k := range kinds {
		wanted[k] = true
	}

	var out []*fileobject.FileObject
	for _, e := range entries {
		rel := path.Join(dir, e.Name())
		if e.IsDir() {
			if recurse {
				sub, err := d.List(ctx, dirToPackage(rel), kinds, true)
				if err != nil {
					return nil, err
				}
				out = append(out, sub...)
			}
			continue
		}
		if !wanted[fileobject.KindOf(rel)] {
			continue
		}
		out = append(out, fileobject.New(fs, d.root.DisplayRoot(), rel, d.location, d.root.Writable()))
	}
	return out, nil
}

func (d *directoryContainer) GetResourceURL(rel string) (*url.URL, error) {
	return d.root.ResourceURL(rel)
}

// OutputFileObject builds a writable file object at rel without requiring
// it to already exist, per spec §4.5's get-file-for-output.
func (d *directoryContainer) OutputFileObject(rel string) (*fileobject.FileObject, error) {
	if err := validateRelativeName(rel); err != nil {
		return nil, err
	}
	return fileobject.New(d.root.FS(), d.root.DisplayRoot(), rel, d.location, d.root.Writable()), nil
}

// InferBinaryName claims fo only when it is rooted here: fo's URI must be
// the one this container's root gives its relative name. When it is, the
// binary name is derived from fo's relative path; otherwise it reports
// ("", false) so the caller can try the next container.
func (d *directoryContainer) InferBinaryName(fo *fileobject.FileObject) (string, bool) {
	if fo == nil {
		return "", false
	}
	mine := fileobject.New(d.root.FS(), d.root.DisplayRoot(), fo.Name(), d.location, d.root.Writable())
	if !mine.Equal(fo) {
		return "", false
	}
	return fileobject.PathToBinaryName(fo.Name(), fo.Kind()), true
}

func (d *directoryContainer) GetClassBytes(ctx context.Context, binaryName string) ([]byte, bool, error) {
	rel := fileobject.BinaryNameToPath(binaryName, fileobject.KindClass)
	fo, ok, err := d.Find(ctx, rel)
	if err != nil || !ok {
		return nil, ok, err
	}
	data, err := fo.ReadAllBytes()
	if err != nil {
		return nil, true, err
	}
	return data, true, nil
}

// readDirNames opens dir and reads every entry via File.Readdir, working
// against both the real-filesystem and in-memory FS backends.
func readDirNames(fs fileobject.FS, dir string) ([]os.FileInfo, error) {
	f, err := fs.Open(dir)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.Readdir(-1)
}
