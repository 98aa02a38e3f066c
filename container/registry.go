package container

import (
	"archive/tar"
	"fmt"
	"io"
	"net/url"

	"github.com/banksean/jct/fileobject"
	"github.com/banksean/jct/jcterr"
	"github.com/banksean/jct/location"
	"github.com/banksean/jct/pathroot"
	"github.com/google/go-containerregistry/pkg/crane"
	"github.com/spf13/afero"
)

// registryContainer mounts the flattened filesystem of a pinned OCI image
// as a read-only Container, used for PLATFORM_CLASS_PATH entries that point
// at a released JDK's bootstrap classes rather than anything on local disk.
type registryContainer struct {
	*directoryContainer
	reference string
}

// NewRegistry pulls reference (e.g. "docker.io/library/eclipse-temurin:21")
// via crane, flattens every layer into a single read-only in-memory
// filesystem, and mounts it as a Container at loc. Layers are applied in
// order, so later layers correctly shadow files from earlier ones.
func NewRegistry(instanceID, reference string, loc location.Location) (Container, error) {
	img, err := crane.Pull(reference)
	if err != nil {
		return nil, fmt.Errorf("jct: pulling registry image %s: %w", reference, err)
	}
	layers, err := img.Layers()
	if err != nil {
		return nil, fmt.Errorf("jct: reading layers of %s: %w", reference, err)
	}

	mem := afero.NewMemMapFs()
	for _, layer := range layers {
		if err := applyLayer(mem, layer); err != nil {
			return nil, fmt.Errorf("jct: applying layer of %s: %w", reference, err)
		}
	}

	root := pathroot.NewPrepopulatedReadOnly(instanceID, mem)
	return &registryContainer{
		directoryContainer: newDirectoryContainer(root, loc),
		reference:          reference,
	}, nil
}

// applyLayer extracts layer's uncompressed tar stream onto dst, matching
// OCI's whiteout convention (a ".wh.<name>" entry deletes <name> from
// earlier layers).
func applyLayer(dst afero.Fs, layer interface {
	Uncompressed() (io.ReadCloser, error)
}) error {
	rc, err := layer.Uncompressed()
	if err != nil {
		return err
	}
	defer rc.Close()

	tr := tar.NewReader(rc)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if name, whiteout := whiteoutTarget(hdr.Name); whiteout {
			_ = dst.RemoveAll(name)
			continue
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := dst.MkdirAll(hdr.Name, 0o750); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeLayerFile(dst, hdr.Name, tr); err != nil {
				return err
			}
		}
	}
}

func writeLayerFile(dst afero.Fs, name string, r io.Reader) error {
	out, err := dst.Create(name)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, r)
	return err
}

func whiteoutTarget(name string) (string, bool) {
	const prefix = ".wh."
	dir, base := splitLast(name)
	if len(base) < len(prefix) || base[:len(prefix)] != prefix {
		return "", false
	}
	return dir + base[len(prefix):], true
}

func splitLast(name string) (dir, base string) {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '/' {
			return name[:i+1], name[i+1:]
		}
	}
	return "", name
}

func (r *registryContainer) Writable() bool { return false }

func (r *registryContainer) Describe() string {
	return "registry:" + r.reference
}

func (r *registryContainer) GetResourceURL(rel string) (*url.URL, error) {
	return r.directoryContainer.GetResourceURL(rel)
}

// OutputFileObject always fails: registry containers never accept writes.
func (r *registryContainer) OutputFileObject(rel string) (*fileobject.FileObject, error) {
	return nil, &jcterr.WriteDeniedError{Path: "registry:" + r.reference + "/" + rel}
}

func (r *registryContainer) Close() error {
	return r.directoryContainer.root.Close()
}

var _ Container = (*registryContainer)(nil)
