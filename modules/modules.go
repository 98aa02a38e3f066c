// Package modules implements the module discoverer from spec §4.8: given a
// directory, it yields the module candidates found either at its root or
// one level down in its immediate subdirectories.
package modules

import (
	"bufio"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"

	"github.com/banksean/jct/fileobject"
)

// Candidate is one discovered module: its declared name, the directory it
// roots, and the descriptor file it was parsed from.
type Candidate struct {
	Name       string
	RootPath   string
	Descriptor string
}

const moduleInfoBase = "module-info"

// moduleNamePattern extracts the name from "module a.b.c { ... }" (and
// "open module a.b.c { ... }"), the only part of a module descriptor this
// discoverer needs to understand.
var moduleNamePattern = regexp.MustCompile(`(?m)^\s*(?:open\s+)?module\s+([A-Za-z0-9_.]+)\s*\{`)

// Discover finds every module candidate rooted at or one level below dir,
// per spec §4.8's two-step algorithm. Descriptor parsing failures are
// logged and the candidate skipped; Discover itself never fails.
func Discover(ctx context.Context, fs fileobject.FS, dir string) []Candidate {
	if desc, ok := findDescriptor(fs, dir); ok {
		if c, ok := parseCandidate(ctx, fs, dir, desc); ok {
			return []Candidate{c}
		}
		return nil
	}

	entries, err := listDir(fs, dir)
	if err != nil {
		return nil
	}
	var out []Candidate
	for _, name := range entries {
		sub := filepath.ToSlash(filepath.Join(dir, name))
		if desc, ok := findDescriptor(fs, sub); ok {
			if c, ok := parseCandidate(ctx, fs, sub, desc); ok {
				out = append(out, c)
			}
		}
	}
	return out
}

// findDescriptor reports the descriptor path at dir, preferring the source
// form and accepting the compiled form equivalently (spec §4.8 step 3).
func findDescriptor(fs fileobject.FS, dir string) (string, bool) {
	for _, ext := range []string{fileobject.KindSource.Extension(), fileobject.KindClass.Extension()} {
		candidate := filepath.ToSlash(filepath.Join(dir, moduleInfoBase+ext))
		if fi, err := fs.Stat(candidate); err == nil && !fi.IsDir() {
			return candidate, true
		}
	}
	return "", false
}

func parseCandidate(ctx context.Context, fs fileobject.FS, dir, descriptor string) (Candidate, bool) {
	name, err := parseModuleName(fs, descriptor)
	if err != nil {
		slog.WarnContext(ctx, "modules.Discover: skipping unparsable descriptor", "descriptor", descriptor, "error", err)
		return Candidate{}, false
	}
	return Candidate{Name: name, RootPath: dir, Descriptor: descriptor}, true
}

// parseModuleName extracts the declared name from a module-info source
// file. Compiled module-info.class descriptors carry their name in the
// class file's Module attribute rather than as readable text; since this
// harness never needs to disassemble class files elsewhere, compiled
// descriptors fall back to the descriptor's directory name, which the
// actual javac module-path layout convention keeps in sync with the
// declared name.
func parseModuleName(fs fileobject.FS, descriptor string) (string, error) {
	if fileobject.KindOf(descriptor) == fileobject.KindClass {
		return filepath.Base(filepath.Dir(descriptor)), nil
	}
	f, err := fs.Open(descriptor)
	if err != nil {
		return "", err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	var text []byte
	for scanner.Scan() {
		text = append(text, scanner.Bytes()...)
		text = append(text, '\n')
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	m := moduleNamePattern.FindSubmatch(text)
	if m == nil {
		return "", os.ErrInvalid
	}
	return string(m[1]), nil
}

func listDir(fs fileobject.FS, dir string) ([]string, error) {
	f, err := fs.Open(dir)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	infos, err := f.Readdir(-1)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, fi := range infos {
		if fi.IsDir() {
			names = append(names, fi.Name())
		}
	}
	return names, nil
}
