package location_test

import (
	"testing"

	"github.com/banksean/jct/location"
)

func TestStandardLocationTraits(t *testing.T) {
	cases := []struct {
		loc            location.Location
		moduleOriented bool
		output         bool
	}{
		{location.ClassPath, false, false},
		{location.ClassOutput, false, true},
		{location.SourcePath, false, false},
		{location.SourceOutput, false, true},
		{location.ModuleSourcePath, true, false},
		{location.ModulePath, true, false},
		{location.NativeHeaderOutput, false, true},
	}
	for _, c := range cases {
		if got := c.loc.ModuleOriented(); got != c.moduleOriented {
			t.Errorf("%s: ModuleOriented() = %v, want %v", c.loc, got, c.moduleOriented)
		}
		if got := c.loc.Output(); got != c.output {
			t.Errorf("%s: Output() = %v, want %v", c.loc, got, c.output)
		}
	}
}

func TestOutputCompatible(t *testing.T) {
	if !location.ClassOutput.OutputCompatible() {
		t.Error("CLASS_OUTPUT should be output-compatible")
	}
	if !location.ModuleSourcePath.OutputCompatible() {
		t.Error("MODULE_SOURCE_PATH should be output-compatible (module-oriented)")
	}
	if location.ClassPath.OutputCompatible() {
		t.Error("CLASS_PATH should not be output-compatible")
	}
}

func TestNewModuleRefPanicsOnNonModuleOrientedParent(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for non-module-oriented parent")
		}
	}()
	location.NewModuleRef(location.ClassPath, "mymod")
}

func TestModuleRefEquality(t *testing.T) {
	a := location.NewModuleRef(location.ModuleSourcePath, "foo")
	b := location.NewModuleRef(location.ModuleSourcePath, "foo")
	if a != b {
		t.Errorf("expected module refs to compare equal: %v != %v", a, b)
	}
}
