package group

import (
	"context"
	"fmt"
	"net/url"

	"github.com/banksean/jct/container"
	"github.com/banksean/jct/jcterr"
)

// ClassLoader is the URL-based delegate class loader spec §4.3 attaches to
// every package group: its search path is the resource URLs of the group's
// containers, and load-class walks those containers in order asking each
// for the class's raw bytes.
type ClassLoader struct {
	urls       []*url.URL
	containers []container.Container
}

// newClassLoader builds a loader over containers. Construction fails, per
// spec §4.3, the moment any container's path root cannot produce a resource
// URL at all (root.ResourceURL("") returning
// unsupported-path-for-classloader) — in-memory workspace roots are the
// common case, so callers that only ever compile against ram-disk output
// should expect ClassLoader() to fail and treat it as optional.
func newClassLoader(containers []container.Container) (*ClassLoader, error) {
	urls := make([]*url.URL, 0, len(containers))
	for _, c := range containers {
		u, err := c.GetResourceURL("")
		if err != nil {
			return nil, fmt.Errorf("jct: building class loader over %s: %w", c.Describe(), err)
		}
		urls = append(urls, u)
	}
	return &ClassLoader{urls: urls, containers: containers}, nil
}

// URLs returns the loader's search path, in container insertion order.
func (cl *ClassLoader) URLs() []*url.URL {
	out := make([]*url.URL, len(cl.urls))
	copy(out, cl.urls)
	return out
}

// LoadClass walks the loader's containers asking each for binaryName's
// class bytes, returning the first hit. location is carried only for the
// error messages raised by class-missing and class-loading-failed.
func (cl *ClassLoader) LoadClass(ctx context.Context, binaryName, location string) ([]byte, error) {
	for _, c := range cl.containers {
		data, ok, err := c.GetClassBytes(ctx, binaryName)
		if err != nil {
			return nil, &jcterr.ClassLoadingFailedError{BinaryName: binaryName, Location: location, Cause: err}
		}
		if ok {
			return data, nil
		}
	}
	return nil, &jcterr.ClassMissingError{BinaryName: binaryName, Location: location}
}
