// Package fileobject adapts a single filesystem path to the compiler
// service's file-object capability: reading/writing bytes and characters,
// reporting a stable URI, and inferring the file's Kind.
package fileobject

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/banksean/jct/jcterr"
	"github.com/banksean/jct/location"
)

// FS is the minimal filesystem capability a path root must expose for a
// FileObject to operate against it. afero.Fs and the plain os package both
// satisfy the subset used here; pathroot.PathRoot implementations return
// one of these per root so a FileObject never needs to know whether it is
// backed by disk or an in-memory filesystem.
type FS interface {
	Open(name string) (File, error)
	Create(name string) (File, error)
	MkdirAll(path string, perm os.FileMode) error
	Stat(name string) (os.FileInfo, error)
	Remove(name string) error
}

// File is the subset of *os.File (and afero.File) a FileObject needs.
type File interface {
	io.ReadWriteCloser
	Stat() (os.FileInfo, error)
	Readdir(count int) ([]os.FileInfo, error)
}

// FileObject is a (location, path, derived-kind) triple, plus cached URI
// and display name, implementing the compiler service's file-object
// contract (spec §4.1).
type FileObject struct {
	fs       FS
	root     string
	rel      string
	location location.Location
	kind     Kind
	uri      string
	writable bool
}

// New constructs a FileObject rooted at fs, for the file at rel (relative
// to root, which is used only to build the display name and URI). writable
// must be false for read-only containers (archive, registry-backed).
func New(fs FS, root, rel string, loc location.Location, writable bool) *FileObject {
	rel = filepath.ToSlash(rel)
	return &FileObject{
		fs:       fs,
		root:     root,
		rel:      rel,
		location: loc,
		kind:     KindOf(rel),
		uri:      buildURI(root, rel),
		writable: writable,
	}
}

func buildURI(root, rel string) string {
	full := filepath.ToSlash(filepath.Join(root, rel))
	if !strings.HasPrefix(full, "/") {
		full = "/" + full
	}
	u := url.URL{Scheme: "file", Path: full}
	return u.String()
}

// Location returns the location this file object was resolved against.
func (f *FileObject) Location() location.Location { return f.location }

// Kind is pure, derived once from the path extension at construction time.
func (f *FileObject) Kind() Kind { return f.kind }

// URI returns the file object's absolute, stable URI.
func (f *FileObject) URI() string { return f.uri }

// Name returns the path relative to the container root, used for display
// purposes (diagnostics, tree printing).
func (f *FileObject) Name() string { return f.rel }

// binaryName derives the binary name from the relative path and the kind's
// extension, whichever container produced the file object.
func (f *FileObject) binaryName() string {
	return pathToBinaryName(f.rel, f.kind)
}

// OpenReadBytes returns a stream over the file's raw bytes.
func (f *FileObject) OpenReadBytes() (io.ReadCloser, error) {
	file, err := f.fs.Open(f.rel)
	if err != nil {
		return nil, err
	}
	if fi, statErr := file.Stat(); statErr == nil && fi.IsDir() {
		file.Close()
		return nil, &jcterr.NotARegularFileError{Path: f.uri}
	}
	return file, nil
}

// OpenReadChars decodes the file as UTF-8 text. If ignoreErrors is true,
// malformed sequences are replaced with the Unicode replacement character
// instead of raising an error.
func (f *FileObject) OpenReadChars(ignoreErrors bool) (io.RuneReader, error) {
	rc, err := f.OpenReadBytes()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	if !ignoreErrors && !utf8.Valid(raw) {
		return nil, fmt.Errorf("jct: malformed UTF-8 input in %s", f.uri)
	}
	return strings.NewReader(string(raw)), nil
}

// OpenWriteBytes creates all missing ancestor directories, then opens the
// file for writing raw bytes. Fails with WriteDeniedError if the file
// object is not writable.
func (f *FileObject) OpenWriteBytes() (io.WriteCloser, error) {
	if !f.writable {
		return nil, &jcterr.WriteDeniedError{Path: f.uri}
	}
	dir := filepath.Dir(f.rel)
	if dir != "." {
		if err := f.fs.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("jct: creating parent directories for %s: %w", f.uri, err)
		}
	}
	file, err := f.fs.Create(f.rel)
	if err != nil {
		return nil, err
	}
	return file, nil
}

// OpenWriteChars is OpenWriteBytes with a text encoder: malformed input is
// reported rather than silently substituted, per spec §4.1.
func (f *FileObject) OpenWriteChars() (io.StringWriter, io.Closer, error) {
	wc, err := f.OpenWriteBytes()
	if err != nil {
		return nil, nil, err
	}
	return &stringWriter{w: wc}, wc, nil
}

type stringWriter struct {
	w io.Writer
}

func (s *stringWriter) WriteString(str string) (int, error) {
	if !utf8.ValidString(str) {
		return 0, fmt.Errorf("jct: malformed UTF-8 output")
	}
	return s.w.Write([]byte(str))
}

// LastModified returns the file's modification time in milliseconds since
// epoch, or 0 if it cannot be determined.
func (f *FileObject) LastModified() int64 {
	fi, err := f.fs.Stat(f.rel)
	if err != nil {
		return 0
	}
	return fi.ModTime().UnixMilli()
}

// Delete removes the file, returning true iff it existed and was removed.
// IO errors are logged and swallowed, matching the best-effort cleanup
// policy in spec §7.
func (f *FileObject) Delete(ctx context.Context) bool {
	if !f.writable {
		return false
	}
	if _, err := f.fs.Stat(f.rel); err != nil {
		return false
	}
	if err := f.fs.Remove(f.rel); err != nil {
		slog.WarnContext(ctx, "FileObject.Delete", "uri", f.uri, "error", err)
		return false
	}
	return true
}

// NameCompatible reports whether the file's simple name equals
// simpleName+kind.Extension().
func (f *FileObject) NameCompatible(simpleName string, kind Kind) bool {
	base := filepath.Base(f.rel)
	return base == simpleName+kind.Extension()
}

// Equal compares file objects by URI, matching the compiler contract.
func (f *FileObject) Equal(other *FileObject) bool {
	if other == nil {
		return false
	}
	return f.uri == other.uri
}

// ReadAllBytes is a convenience used heavily by tests and the tree
// printer: it reads the whole file into memory.
func (f *FileObject) ReadAllBytes() ([]byte, error) {
	rc, err := f.OpenReadBytes()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// WriteAllBytes is the symmetric convenience for OpenWriteBytes.
func (f *FileObject) WriteAllBytes(data []byte) error {
	wc, err := f.OpenWriteBytes()
	if err != nil {
		return err
	}
	defer wc.Close()
	_, err = io.Copy(wc, bytes.NewReader(data))
	return err
}

// pathToBinaryName converts a container-relative path such as "a/b/C.class"
// into the binary name "a.b.C", stripping kind's extension. It is the
// inverse of BinaryNameToPath.
func pathToBinaryName(rel string, kind Kind) string {
	rel = strings.TrimSuffix(filepath.ToSlash(rel), kind.Extension())
	return strings.ReplaceAll(rel, "/", ".")
}

// BinaryNameToPath converts a binary name such as "a.b.C" plus a Kind into
// the path "a/b/C.class" a container would store it at.
func BinaryNameToPath(binaryName string, kind Kind) string {
	return strings.ReplaceAll(binaryName, ".", "/") + kind.Extension()
}

// PathToBinaryName is the exported form of pathToBinaryName, used by
// containers inferring a binary name from a resolved relative path.
func PathToBinaryName(rel string, kind Kind) string {
	return pathToBinaryName(rel, kind)
}
