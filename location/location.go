// Package location defines the symbolic locations the compiler service's
// file manager reasons about, and the module references that partition
// module-oriented locations.
package location

import "fmt"

// Location is a symbolic role in the compiler's view of the world, such as
// "where to read sources from" or "where to write classes to". Locations
// are values: two locations with the same name and traits compare equal.
type Location struct {
	name           string
	moduleOriented bool
	output         bool
}

// New constructs a Location with the given traits. Most callers want one of
// the predeclared standard locations below; New exists for providers that
// expose additional, provider-specific locations.
func New(name string, moduleOriented, output bool) Location {
	return Location{name: name, moduleOriented: moduleOriented, output: output}
}

// Name returns the location's symbolic name, e.g. "CLASS_OUTPUT".
func (l Location) Name() string { return l.name }

// ModuleOriented reports whether the location partitions its contents by
// module name.
func (l Location) ModuleOriented() bool { return l.moduleOriented }

// Output reports whether the location may be written to.
func (l Location) Output() bool { return l.output }

// OutputCompatible reports whether the location can ever be resolved
// through an output container group: either it is an output location, or
// it is module-oriented (module-source locations are queried the same way
// output-per-module locations are, even though they are not writable).
func (l Location) OutputCompatible() bool { return l.output || l.moduleOriented }

func (l Location) String() string {
	return l.name
}

// Standard locations, matching the roles a Java compiler service's file
// manager is expected to understand.
var (
	ClassPath            = New("CLASS_PATH", false, false)
	ClassOutput          = New("CLASS_OUTPUT", false, true)
	SourcePath           = New("SOURCE_PATH", false, false)
	SourceOutput         = New("SOURCE_OUTPUT", false, true)
	AnnotationProcessorPath = New("ANNOTATION_PROCESSOR_PATH", false, false)
	PlatformClassPath    = New("PLATFORM_CLASS_PATH", false, false)
	NativeHeaderOutput   = New("NATIVE_HEADER_OUTPUT", false, true)
	ModuleSourcePath     = New("MODULE_SOURCE_PATH", true, false)
	ModulePath           = New("MODULE_PATH", true, false)
	UpgradeModulePath    = New("UPGRADE_MODULE_PATH", true, false)
	SystemModules        = New("SYSTEM_MODULES", true, false)
	PatchModulePath      = New("PATCH_MODULE_PATH", true, false)
)

// ModuleRef identifies a single module inside a module-oriented parent
// location. Module references are values.
type ModuleRef struct {
	Parent Location
	Module string
}

// NewModuleRef constructs a module reference, panicking if parent is not
// module-oriented — this is a structural-programmer error, not a runtime
// condition a caller should need to recover from.
func NewModuleRef(parent Location, module string) ModuleRef {
	if !parent.ModuleOriented() {
		panic(fmt.Sprintf("location %s is not module-oriented", parent.Name()))
	}
	return ModuleRef{Parent: parent, Module: module}
}

func (m ModuleRef) String() string {
	return fmt.Sprintf("%s[%s]", m.Parent.Name(), m.Module)
}
