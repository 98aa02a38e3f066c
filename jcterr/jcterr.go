// Package jcterr defines the error kinds shared across every layer of the
// harness (spec §7). It has no dependencies on the rest of the module so
// that file objects, containers, groups and the file manager can all raise
// and test for the same sentinels without an import cycle back to the
// top-level jct package.
package jcterr

import (
	"errors"
	"fmt"
)

// Sentinel errors for conditions that have no interesting payload beyond
// "this happened".
var (
	// ErrWorkspaceClosed is returned by any workspace operation performed
	// after Close.
	ErrWorkspaceClosed = errors.New("jct: workspace is closed")
	// ErrFileManagerClosed is returned by any file manager operation
	// performed after the owning workspace closed it.
	ErrFileManagerClosed = errors.New("jct: file manager is closed")
)

// IllegalNameError reports a rejected relative name — traversal, an
// absolute prefix, or an empty/separator-containing path segment.
type IllegalNameError struct {
	Name   string
	Reason string
}

func (e *IllegalNameError) Error() string {
	return fmt.Sprintf("jct: illegal name %q: %s", e.Name, e.Reason)
}

// WriteDeniedError reports a write attempted against a read-only container.
type WriteDeniedError struct {
	Path string
}

func (e *WriteDeniedError) Error() string {
	return fmt.Sprintf("jct: write denied for read-only path %q", e.Path)
}

// NotARegularFileError reports a read attempted against a directory or
// other non-regular file.
type NotARegularFileError struct {
	Path string
}

func (e *NotARegularFileError) Error() string {
	return fmt.Sprintf("jct: not a regular file: %q", e.Path)
}

// UnsupportedPathForClassLoaderError reports that a container's path root
// cannot produce a URL usable by a class loader (e.g. an in-memory root
// with no http(s)/file mapping a JVM class loader could resolve).
type UnsupportedPathForClassLoaderError struct {
	PathRootDescription string
}

func (e *UnsupportedPathForClassLoaderError) Error() string {
	return fmt.Sprintf("jct: path root unsupported for class loading: %s", e.PathRootDescription)
}

// ClassMissingError reports that no container in a location produced bytes
// for the requested binary name.
type ClassMissingError struct {
	BinaryName string
	Location   string
}

func (e *ClassMissingError) Error() string {
	return fmt.Sprintf("jct: class %q not found on location %s", e.BinaryName, e.Location)
}

// ClassLoadingFailedError reports that bytes were found but could not be
// turned into a loaded class (e.g. malformed class file).
type ClassLoadingFailedError struct {
	BinaryName string
	Location   string
	Cause      error
}

func (e *ClassLoadingFailedError) Error() string {
	return fmt.Sprintf("jct: failed to load class %q from location %s: %v", e.BinaryName, e.Location, e.Cause)
}

func (e *ClassLoadingFailedError) Unwrap() error { return e.Cause }

// IllegalOperationError reports a structural misuse of the file manager,
// such as a write to a location that isn't configured as an output.
type IllegalOperationError struct {
	Location  string
	Operation string
}

func (e *IllegalOperationError) Error() string {
	return fmt.Sprintf("jct: illegal operation %q on location %s", e.Operation, e.Location)
}

// AggregateError aggregates the per-resource failures encountered while
// releasing a scope (a container group or a workspace). It never masks the
// individual causes: every one is reachable via Unwrap.
type AggregateError struct {
	// Op names the scope being released, e.g. "group close" or
	// "workspace close".
	Op     string
	Causes []error
}

func (e *AggregateError) Error() string {
	if len(e.Causes) == 1 {
		return fmt.Sprintf("jct: %s failed: %v", e.Op, e.Causes[0])
	}
	return fmt.Sprintf("jct: %s failed with %d errors: %v", e.Op, len(e.Causes), errors.Join(e.Causes...))
}

func (e *AggregateError) Unwrap() []error { return e.Causes }

// NewAggregateError returns nil if causes is empty, and an *AggregateError
// otherwise — callers can unconditionally assign the result to an error
// return value.
func NewAggregateError(op string, causes []error) error {
	if len(causes) == 0 {
		return nil
	}
	return &AggregateError{Op: op, Causes: causes}
}

// CompilerError wraps a failure raised by the compilation façade itself,
// as opposed to a structural or IO error inside the harness.
type CompilerError struct {
	Message string
	Cause   error
}

func (e *CompilerError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("jct: compiler error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("jct: compiler error: %s", e.Message)
}

func (e *CompilerError) Unwrap() error { return e.Cause }
