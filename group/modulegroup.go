package group

import (
	"sync"

	"github.com/banksean/jct/container"
	"github.com/banksean/jct/jcterr"
)

// ModuleGroup maps a module name to its own package group, per spec §4.3:
// "a mapping from module reference to package group... find-module(name) is
// O(1)... iterates modules in stable (insertion) order."
type ModuleGroup struct {
	mu      sync.Mutex
	order   []string
	modules map[string]*PackageGroup
}

// NewModuleGroup constructs an empty module group.
func NewModuleGroup() *ModuleGroup {
	return &ModuleGroup{modules: make(map[string]*PackageGroup)}
}

// AddContainer adds c to module's inner package group, creating the inner
// group on first use.
func (m *ModuleGroup) AddContainer(module string, c container.Container) {
	m.getOrCreate(module).AddContainer(c)
}

// getOrCreate returns module's inner package group, creating it on first
// reference whether that reference is an AddContainer or a plain lookup
// (OutputGroup.ForModule uses this path to spawn the group before any
// container has been attached).
func (m *ModuleGroup) getOrCreate(module string) *PackageGroup {
	m.mu.Lock()
	defer m.mu.Unlock()
	pg, ok := m.modules[module]
	if !ok {
		pg = NewPackageGroup()
		m.modules[module] = pg
		m.order = append(m.order, module)
	}
	return pg
}

// FindModule is the O(1) lookup spec §4.3 requires.
func (m *ModuleGroup) FindModule(name string) (*PackageGroup, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pg, ok := m.modules[name]
	return pg, ok
}

// Modules returns every known module name in insertion order.
func (m *ModuleGroup) Modules() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Close closes every inner package group in insertion order, aggregating
// per-module failures.
func (m *ModuleGroup) Close() error {
	var causes []error
	for _, name := range m.Modules() {
		pg, _ := m.FindModule(name)
		if err := pg.Close(); err != nil {
			causes = append(causes, err)
		}
	}
	return jcterr.NewAggregateError("module group close", causes)
}
