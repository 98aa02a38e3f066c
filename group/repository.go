package group

import (
	"context"
	"sync"

	"github.com/banksean/jct/container"
	"github.com/banksean/jct/jcterr"
	"github.com/banksean/jct/location"
	"github.com/banksean/jct/modules"
	"github.com/banksean/jct/pathroot"
	"golang.org/x/sync/errgroup"
)

// Repository maps location -> container group, materialising the right
// variant per spec §4.4: a module group for module-oriented locations, an
// output group for writable ones, and a plain package group otherwise.
type Repository struct {
	mu            sync.Mutex
	packageGroups map[location.Location]*PackageGroup
	outputGroups  map[location.Location]*OutputGroup
	moduleGroups  map[location.Location]*ModuleGroup
}

// NewRepository constructs an empty repository.
func NewRepository() *Repository {
	return &Repository{
		packageGroups: make(map[location.Location]*PackageGroup),
		outputGroups:  make(map[location.Location]*OutputGroup),
		moduleGroups:  make(map[location.Location]*ModuleGroup),
	}
}

// Group returns loc's materialised container group, for non-module-oriented
// locations. Module-oriented locations are addressed through ModuleGroupFor
// and GroupForModule instead, since they have no single flat container
// list.
func (r *Repository) Group(loc location.Location) (Group, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if loc.ModuleOriented() {
		return nil, false
	}
	if loc.OutputCompatible() {
		g, ok := r.outputGroups[loc]
		return g, ok
	}
	g, ok := r.packageGroups[loc]
	return g, ok
}

// ModuleGroupFor returns the materialised module group backing a
// module-oriented location, if one exists.
func (r *Repository) ModuleGroupFor(loc location.Location) (*ModuleGroup, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	mg, ok := r.moduleGroups[loc]
	return mg, ok
}

// GroupForModule returns the inner package group for a specific module
// reference, whether loc's backing group is a plain module group or an
// output group's per-module overlay.
func (r *Repository) GroupForModule(ref location.ModuleRef) (*PackageGroup, bool) {
	r.mu.Lock()
	outputGroup, isOutput := r.outputGroups[ref.Parent]
	moduleGroup, hasModuleGroup := r.moduleGroups[ref.Parent]
	r.mu.Unlock()

	if isOutput {
		return outputGroup.FindModule(ref.Module)
	}
	if hasModuleGroup {
		return moduleGroup.FindModule(ref.Module)
	}
	return nil, false
}

// ListLocationForModules yields every (location, module-name) reference
// known for loc, in stable order, per spec §4.5.
func (r *Repository) ListLocationForModules(loc location.Location) []location.ModuleRef {
	r.mu.Lock()
	mg, hasModuleGroup := r.moduleGroups[loc]
	og, isOutput := r.outputGroups[loc]
	r.mu.Unlock()

	var names []string
	switch {
	case hasModuleGroup:
		names = mg.Modules()
	case isOutput:
		names = og.ModuleNames()
	default:
		return nil
	}
	refs := make([]location.ModuleRef, len(names))
	for i, name := range names {
		refs[i] = location.NewModuleRef(loc, name)
	}
	return refs
}

// AddPath dispatches root into loc's materialised group, per spec §4.4:
//
//  1. module-oriented locations are scanned with the module discoverer, one
//     inner package group spawned per discovered module;
//  2. output locations get a directory container added to their flat
//     output group;
//  3. everything else gets a directory container added to a plain package
//     group.
//
// Use AddPathForModule instead when root is already known to belong to one
// specific module.
func (r *Repository) AddPath(ctx context.Context, loc location.Location, root pathroot.PathRoot) error {
	if loc.ModuleOriented() {
		return r.addModuleOrientedPath(ctx, loc, root)
	}
	c := container.NewDirectory(root, loc)
	if loc.OutputCompatible() {
		r.outputGroupFor(loc).AddContainer(c)
		return nil
	}
	r.packageGroupFor(loc).AddContainer(c)
	return nil
}

// AddPathForModule attaches root directly as ref.Module's single container,
// bypassing module discovery (spec §4.4 dispatch case 1).
func (r *Repository) AddPathForModule(ref location.ModuleRef, root pathroot.PathRoot) {
	c := container.NewDirectory(root, ref.Parent)
	r.mu.Lock()
	og, isOutput := r.outputGroups[ref.Parent]
	r.mu.Unlock()
	if isOutput {
		og.AddContainerForModule(ref.Module, c)
		return
	}
	r.moduleGroupFor(ref.Parent).AddContainer(ref.Module, c)
}

func (r *Repository) addModuleOrientedPath(ctx context.Context, loc location.Location, root pathroot.PathRoot) error {
	candidates := modules.Discover(ctx, root.FS(), ".")
	mg := r.moduleGroupFor(loc)
	for _, c := range candidates {
		scoped := pathroot.NewScoped(root, c.RootPath)
		mg.AddContainer(c.Name, container.NewDirectory(scoped, loc))
	}
	return nil
}

func (r *Repository) packageGroupFor(loc location.Location) *PackageGroup {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.packageGroups[loc]
	if !ok {
		g = NewPackageGroup()
		r.packageGroups[loc] = g
	}
	return g
}

func (r *Repository) outputGroupFor(loc location.Location) *OutputGroup {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.outputGroups[loc]
	if !ok {
		g = NewOutputGroup()
		r.outputGroups[loc] = g
	}
	return g
}

func (r *Repository) moduleGroupFor(loc location.Location) *ModuleGroup {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.moduleGroups[loc]
	if !ok {
		g = NewModuleGroup()
		r.moduleGroups[loc] = g
	}
	return g
}

// HasLocation reports whether loc has been materialised by a prior AddPath
// or AddPathForModule call.
func (r *Repository) HasLocation(loc location.Location) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.packageGroups[loc]; ok {
		return true
	}
	if _, ok := r.outputGroups[loc]; ok {
		return true
	}
	if _, ok := r.moduleGroups[loc]; ok {
		return true
	}
	return false
}

// Close closes every materialised group concurrently, aggregating every
// failure into a single group-close-failed error rather than stopping at
// the first one.
func (r *Repository) Close(ctx context.Context) error {
	r.mu.Lock()
	closers := make([]interface{ Close() error }, 0, len(r.packageGroups)+len(r.outputGroups)+len(r.moduleGroups))
	for _, g := range r.packageGroups {
		closers = append(closers, g)
	}
	for _, g := range r.outputGroups {
		closers = append(closers, g)
	}
	for _, g := range r.moduleGroups {
		closers = append(closers, g)
	}
	r.mu.Unlock()

	var mu sync.Mutex
	var causes []error
	eg, _ := errgroup.WithContext(ctx)
	for _, c := range closers {
		c := c
		eg.Go(func() error {
			if err := c.Close(); err != nil {
				mu.Lock()
				causes = append(causes, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = eg.Wait()
	return jcterr.NewAggregateError("group close", causes)
}
