package container

import (
	"archive/zip"
	"fmt"
	"io"
	"net/url"

	"github.com/banksean/jct/fileobject"
	"github.com/banksean/jct/jcterr"
	"github.com/banksean/jct/location"
	"github.com/banksean/jct/pathroot"
	"github.com/spf13/afero"
)

// archiveContainer presents a jar/zip file's entries as a read-only
// directory tree. The archive is fully decompressed into an in-memory
// filesystem at construction time rather than read entry-by-entry, since
// archive/zip's reader is not safely shareable across the concurrent reads a
// package group performs; the ecosystem provides nothing closer to a
// zip-as-filesystem adapter than this, so the standard library does the
// unpacking and a prepopulated pathroot.PathRoot does the serving.
type archiveContainer struct {
	*directoryContainer
	archivePath string
}

// NewArchive opens archivePath as a zip (jar) file and mounts its contents
// as a read-only Container at loc. instanceID must be unique within the
// process; it becomes part of the in-memory root's display path, and so of
// the URIs of the file objects this container hands out.
func NewArchive(instanceID, archivePath string, loc location.Location) (Container, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("jct: opening archive %s: %w", archivePath, err)
	}
	defer r.Close()

	mem := afero.NewMemMapFs()
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			if err := mem.MkdirAll(f.Name, 0o750); err != nil {
				return nil, fmt.Errorf("jct: unpacking archive %s: %w", archivePath, err)
			}
			continue
		}
		if err := copyZipEntry(mem, f); err != nil {
			return nil, fmt.Errorf("jct: unpacking archive %s: %w", archivePath, err)
		}
	}

	root := pathroot.NewPrepopulatedReadOnly(instanceID, mem)
	return &archiveContainer{
		directoryContainer: newDirectoryContainer(root, loc),
		archivePath:        archivePath,
	}, nil
}

func copyZipEntry(dst afero.Fs, f *zip.File) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := dst.Create(f.Name)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, rc)
	return err
}

// Writable always reports false: archive containers never accept writes.
func (a *archiveContainer) Writable() bool { return false }

func (a *archiveContainer) Describe() string {
	return "archive:" + a.archivePath
}

// GetResourceURL reports unsupported for archive-backed entries; there is no
// meaningful file: URL for a path inside an in-memory unpacked jar.
func (a *archiveContainer) GetResourceURL(rel string) (*url.URL, error) {
	return a.directoryContainer.GetResourceURL(rel)
}

// OutputFileObject always fails: archive containers never accept writes.
func (a *archiveContainer) OutputFileObject(rel string) (*fileobject.FileObject, error) {
	return nil, &jcterr.WriteDeniedError{Path: "archive:" + a.archivePath + "/" + rel}
}

// Find and List are inherited unmodified from directoryContainer: once
// unpacked, an archive is indistinguishable from any other read-only
// directory tree.
var _ Container = (*archiveContainer)(nil)

// Close releases the unpacked in-memory tree. The archive file on disk
// itself was only ever opened transiently during NewArchive and is already
// closed by then.
func (a *archiveContainer) Close() error {
	return a.directoryContainer.root.Close()
}
