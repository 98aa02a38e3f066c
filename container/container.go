// Package container presents one source of class/resource entries — a
// directory, a mounted archive, or an OCI registry layer set — uniformly,
// as described in spec §4.2.
package container

import (
	"context"
	"net/url"
	"path"
	"strings"

	"github.com/banksean/jct/fileobject"
	"github.com/banksean/jct/jcterr"
	"github.com/banksean/jct/location"
	"github.com/banksean/jct/pathroot"
)

// Container is a read, and optionally write, source of files rooted at a
// single path root.
type Container interface {
	// Find resolves rel (package-relative, using "/" separators) to a file
	// object if it exists in this container.
	Find(ctx context.Context, rel string) (*fileobject.FileObject, bool, error)
	// List returns every file object under pkg (a "."-separated package
	// name, "" for the unnamed package) whose kind is in kinds. If recurse
	// is false, only the immediate contents of pkg are considered.
	List(ctx context.Context, pkg string, kinds []fileobject.Kind, recurse bool) ([]*fileobject.FileObject, error)
	// GetResourceURL resolves rel to a URL, used by the package group's
	// class loader.
	GetResourceURL(rel string) (*url.URL, error)
	// InferBinaryName returns the binary name fo would have if it is
	// rooted inside this container, and whether fo is in fact rooted here.
	InferBinaryName(fo *fileobject.FileObject) (string, bool)
	// GetClassBytes returns the raw bytes of binaryName's class file, if
	// present in this container.
	GetClassBytes(ctx context.Context, binaryName string) ([]byte, bool, error)
	// OutputFileObject returns a file object for rel that may be opened for
	// writing regardless of whether rel already exists, for containers that
	// accept writes. Read-only containers (archive, registry) always fail
	// with jcterr.WriteDeniedError.
	OutputFileObject(rel string) (*fileobject.FileObject, error)
	// Writable reports whether Find results from this container may be
	// opened for writing.
	Writable() bool
	// Describe returns a short, stable description for diagnostics and
	// the tree printer (the root's display path).
	Describe() string
	// Close releases resources the container itself opened. Directory
	// containers leave their PathRoot alone, since the workspace owns it;
	// archive and registry containers close the in-memory root they built
	// for their own contents.
	Close() error
}

// packageToDir converts a "."-separated package name to a "/"-separated
// relative directory path.
func packageToDir(pkg string) string {
	if pkg == "" {
		return "."
	}
	return strings.ReplaceAll(pkg, ".", "/")
}

// dirToPackage is the inverse of packageToDir.
func dirToPackage(dir string) string {
	dir = strings.Trim(dir, "/")
	if dir == "" || dir == "." {
		return ""
	}
	return strings.ReplaceAll(dir, "/", ".")
}

// validateRelativeName enforces spec §4.2's "illegal-name" rule: no ".."
// segment, no absolute prefix.
func validateRelativeName(rel string) error {
	if path.IsAbs(rel) {
		return &jcterr.IllegalNameError{Name: rel, Reason: "must be relative"}
	}
	clean := path.Clean(rel)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return &jcterr.IllegalNameError{Name: rel, Reason: "must not escape the container root"}
	}
	return nil
}

// NewDirectory constructs a directory container rooted at root, for the
// given location.
func NewDirectory(root pathroot.PathRoot, loc location.Location) Container {
	return newDirectoryContainer(root, loc)
}
