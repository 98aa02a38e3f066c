package group

import (
	"sync"

	"github.com/banksean/jct/container"
	"github.com/banksean/jct/jcterr"
)

// OutputGroup behaves as a PackageGroup for non-modular output, and on
// first write that targets a specific module spawns an inner ModuleGroup
// keyed by that module — per spec §4.3, "the same location can therefore be
// observed simultaneously as both."
type OutputGroup struct {
	*PackageGroup

	mu      sync.Mutex
	modules *ModuleGroup
}

// NewOutputGroup constructs an empty output group.
func NewOutputGroup() *OutputGroup {
	return &OutputGroup{PackageGroup: NewPackageGroup()}
}

// ForModule returns the inner module group's package group for module,
// spawning the inner ModuleGroup on first call from any module.
func (o *OutputGroup) ForModule(module string) *PackageGroup {
	o.mu.Lock()
	if o.modules == nil {
		o.modules = NewModuleGroup()
	}
	modules := o.modules
	o.mu.Unlock()
	return modules.getOrCreate(module)
}

// AddContainerForModule attaches c to module's inner package group within
// this output group's module overlay.
func (o *OutputGroup) AddContainerForModule(module string, c container.Container) {
	o.mu.Lock()
	if o.modules == nil {
		o.modules = NewModuleGroup()
	}
	modules := o.modules
	o.mu.Unlock()
	modules.AddContainer(module, c)
}

// ModuleNames returns the modules observed via AddContainerForModule, in
// insertion order; empty if the output group was never used per-module.
func (o *OutputGroup) ModuleNames() []string {
	o.mu.Lock()
	modules := o.modules
	o.mu.Unlock()
	if modules == nil {
		return nil
	}
	return modules.Modules()
}

// FindModule looks up the inner per-module package group, if one exists.
func (o *OutputGroup) FindModule(module string) (*PackageGroup, bool) {
	o.mu.Lock()
	modules := o.modules
	o.mu.Unlock()
	if modules == nil {
		return nil, false
	}
	return modules.FindModule(module)
}

// Close closes both the flat package-group containers and any per-module
// overlay, aggregating every failure together.
func (o *OutputGroup) Close() error {
	var causes []error
	if err := o.PackageGroup.Close(); err != nil {
		causes = append(causes, err)
	}
	o.mu.Lock()
	modules := o.modules
	o.mu.Unlock()
	if modules != nil {
		if err := modules.Close(); err != nil {
			causes = append(causes, err)
		}
	}
	return jcterr.NewAggregateError("output group close", causes)
}

var _ Group = (*OutputGroup)(nil)
