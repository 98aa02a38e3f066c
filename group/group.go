// Package group implements the three container-group variants and the
// location-keyed repository described in spec §4.3–§4.4: an append-only
// package group, a module-reference-keyed module group, and an output group
// that behaves as a package group until a write targets a specific module.
package group

import (
	"context"
	"strconv"
	"sync"

	"github.com/banksean/jct/container"
	"github.com/banksean/jct/fileobject"
	"github.com/banksean/jct/jcterr"
)

// Group is the capability every container-group variant exposes to the file
// manager (spec §4.5). ModuleGroup deliberately does not implement it: it
// has no single ordered container list of its own, only a map of inner
// package groups, so it exposes FindModule/Modules instead.
type Group interface {
	AddContainer(c container.Container)
	Find(ctx context.Context, rel string) (*fileobject.FileObject, bool, error)
	List(ctx context.Context, pkg string, kinds []fileobject.Kind, recurse bool) ([]*fileobject.FileObject, error)
	InferBinaryName(fo *fileobject.FileObject) (string, bool)
	ClassLoader() (*ClassLoader, error)
	Writable() bool
	Containers() []container.Container
	Close() error
}

// PackageGroup is an append-only ordered list of containers, the variant
// spec §4.3 describes for non-modular, non-output locations.
type PackageGroup struct {
	mu            sync.Mutex
	containers    []container.Container
	targetRelease int // 0 means no multi-release overlay is configured.

	classLoaderBuilt bool
	classLoader      *ClassLoader
	classLoaderErr   error
}

// NewPackageGroup constructs an empty package group.
func NewPackageGroup() *PackageGroup {
	return &PackageGroup{}
}

// WithTargetRelease configures the multi-release overlay preference (spec
// §4.3's "multi-release overlay"): reads prefer the highest-K
// META-INF/versions/K/... overlay with K <= release. release must be >= 8.
func (g *PackageGroup) WithTargetRelease(release int) *PackageGroup {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.targetRelease = release
	return g
}

func (g *PackageGroup) AddContainer(c container.Container) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.containers = append(g.containers, c)
}

func (g *PackageGroup) Containers() []container.Container {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]container.Container, len(g.containers))
	copy(out, g.containers)
	return out
}

// Find iterates containers in insertion order and returns the first hit,
// preferring a multi-release overlay over rel when one is configured and
// present.
func (g *PackageGroup) Find(ctx context.Context, rel string) (*fileobject.FileObject, bool, error) {
	for _, c := range g.Containers() {
		if g.targetRelease > 0 {
			if fo, ok, err := findOverlay(ctx, c, rel, g.targetRelease); err != nil {
				return nil, false, err
			} else if ok {
				return fo, true, nil
			}
		}
		fo, ok, err := c.Find(ctx, rel)
		if err != nil {
			return nil, false, err
		}
		if ok {
			return fo, true, nil
		}
	}
	return nil, false, nil
}

// List unions every container's listing, preserving insertion order and
// de-duplicating by URI, per spec §4.3.
func (g *PackageGroup) List(ctx context.Context, pkg string, kinds []fileobject.Kind, recurse bool) ([]*fileobject.FileObject, error) {
	seen := make(map[string]bool)
	var out []*fileobject.FileObject
	for _, c := range g.Containers() {
		entries, err := c.List(ctx, pkg, kinds, recurse)
		if err != nil {
			return nil, err
		}
		for _, fo := range entries {
			if seen[fo.URI()] {
				continue
			}
			seen[fo.URI()] = true
			out = append(out, fo)
		}
	}
	return out, nil
}

// InferBinaryName returns the first container's answer that claims fo.
func (g *PackageGroup) InferBinaryName(fo *fileobject.FileObject) (string, bool) {
	for _, c := range g.Containers() {
		if bn, ok := c.InferBinaryName(fo); ok {
			return bn, true
		}
	}
	return "", false
}

// ClassLoader lazily builds and caches the group's class loader. Every call
// after the first returns the same instance (or the same error); the group
// is append-only after construction in practice (addPath only ever extends
// a location before it's first used for compilation), so a single build is
// sufficient.
func (g *PackageGroup) ClassLoader() (*ClassLoader, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.classLoaderBuilt {
		return g.classLoader, g.classLoaderErr
	}
	containers := make([]container.Container, len(g.containers))
	copy(containers, g.containers)
	g.classLoader, g.classLoaderErr = newClassLoader(containers)
	g.classLoaderBuilt = true
	return g.classLoader, g.classLoaderErr
}

// Writable reports whether any container in the group accepts writes. The
// file manager further restricts get-file-for-output to the first
// container, but Writable here answers "could this location ever produce a
// writable file object".
func (g *PackageGroup) Writable() bool {
	for _, c := range g.Containers() {
		if c.Writable() {
			return true
		}
	}
	return false
}

// Close closes every container in insertion order, aggregating failures per
// spec §4.4 rather than stopping at the first one.
func (g *PackageGroup) Close() error {
	var causes []error
	for _, c := range g.Containers() {
		if err := c.Close(); err != nil {
			causes = append(causes, err)
		}
	}
	return jcterr.NewAggregateError("package group close", causes)
}

func findOverlay(ctx context.Context, c container.Container, rel string, release int) (*fileobject.FileObject, bool, error) {
	for k := release; k >= 8; k-- {
		overlayRel := overlayPath(k, rel)
		fo, ok, err := c.Find(ctx, overlayRel)
		if err != nil {
			return nil, false, err
		}
		if ok {
			return fo, true, nil
		}
	}
	return nil, false, nil
}

func overlayPath(release int, rel string) string {
	return "META-INF/versions/" + strconv.Itoa(release) + "/" + rel
}

var _ Group = (*PackageGroup)(nil)
