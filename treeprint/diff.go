package treeprint

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/banksean/jct/fileobject"
	"github.com/banksean/jct/group"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// PathDiff reports a single relative path present in exactly one of the two
// listings being compared.
type PathDiff struct {
	Path    string
	OnlyIn  string // "before" or "after"
}

// DiffPaths compares the set of relative paths listed under pkg by before
// and after, returning entries present in only one side, sorted by path.
// This only diffs the tree shape; use DiffContents to compare a single
// file's text between two trees.
func DiffPaths(ctx context.Context, before, after group.Group, pkg string, kinds []fileobject.Kind) ([]PathDiff, error) {
	beforeEntries, err := before.List(ctx, pkg, kinds, true)
	if err != nil {
		return nil, fmt.Errorf("jct: listing before-tree: %w", err)
	}
	afterEntries, err := after.List(ctx, pkg, kinds, true)
	if err != nil {
		return nil, fmt.Errorf("jct: listing after-tree: %w", err)
	}

	beforeSet := pathSet(beforeEntries)
	afterSet := pathSet(afterEntries)

	var diffs []PathDiff
	for path := range beforeSet {
		if !afterSet[path] {
			diffs = append(diffs, PathDiff{Path: path, OnlyIn: "before"})
		}
	}
	for path := range afterSet {
		if !beforeSet[path] {
			diffs = append(diffs, PathDiff{Path: path, OnlyIn: "after"})
		}
	}
	sort.Slice(diffs, func(i, j int) bool { return diffs[i].Path < diffs[j].Path })
	return diffs, nil
}

func pathSet(entries []*fileobject.FileObject) map[string]bool {
	set := make(map[string]bool, len(entries))
	for _, fo := range entries {
		set[fo.Name()] = true
	}
	return set
}

// DiffContents renders a human-readable inline diff between two files'
// text contents, using go-diff's character-level diff: deleted runs are
// prefixed with "-", inserted runs with "+", and unchanged text is copied
// as is.
func DiffContents(before, after *fileobject.FileObject) (string, error) {
	beforeBytes, err := before.ReadAllBytes()
	if err != nil {
		return "", fmt.Errorf("jct: reading before-file %s: %w", before.URI(), err)
	}
	afterBytes, err := after.ReadAllBytes()
	if err != nil {
		return "", fmt.Errorf("jct: reading after-file %s: %w", after.URI(), err)
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(string(beforeBytes), string(afterBytes), true)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var b strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			fmt.Fprintf(&b, "+%s", d.Text)
		case diffmatchpatch.DiffDelete:
			fmt.Fprintf(&b, "-%s", d.Text)
		case diffmatchpatch.DiffEqual:
			b.WriteString(d.Text)
		}
	}
	return b.String(), nil
}
