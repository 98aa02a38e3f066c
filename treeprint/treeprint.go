// Package treeprint renders a container group's contents as a tree, for
// inspecting a workspace from tests or the demo CLI.
package treeprint

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/banksean/jct/fileobject"
	"github.com/banksean/jct/group"
	"golang.org/x/term"
)

// node is one entry in the rendered tree: a directory (children non-nil) or
// a leaf file object.
type node struct {
	name     string
	fo       *fileobject.FileObject
	children map[string]*node
}

func newDirNode(name string) *node {
	return &node{name: name, children: make(map[string]*node)}
}

// Build lists every file object under pkg (recursively) across g, and
// assembles them into a directory tree keyed by relative path segments.
func Build(ctx context.Context, g group.Group, pkg string, kinds []fileobject.Kind) (*node, error) {
	entries, err := g.List(ctx, pkg, kinds, true)
	if err != nil {
		return nil, err
	}
	root := newDirNode(".")
	for _, fo := range entries {
		insert(root, strings.Split(strings.Trim(fo.Name(), "/"), "/"), fo)
	}
	return root, nil
}

func insert(root *node, segments []string, fo *fileobject.FileObject) {
	cur := root
	for i, seg := range segments {
		if i == len(segments)-1 {
			cur.children[seg] = &node{name: seg, fo: fo}
			return
		}
		child, ok := cur.children[seg]
		if !ok {
			child = newDirNode(seg)
			cur.children[seg] = child
		}
		cur = child
	}
}

// Fprint writes root to w as a tree drawn with box-drawing characters,
// colorizing file leaves by kind when w is a terminal.
func Fprint(w io.Writer, root *node) {
	useColor := false
	if f, ok := w.(*os.File); ok {
		useColor = term.IsTerminal(int(f.Fd()))
	}
	fmt.Fprintln(w, root.name)
	printChildren(w, root, "", useColor)
}

func printChildren(w io.Writer, n *node, prefix string, useColor bool) {
	names := sortedNames(n.children)
	for i, name := range names {
		child := n.children[name]
		last := i == len(names)-1
		connector, childPrefix := "├── ", prefix+"│   "
		if last {
			connector, childPrefix = "└── ", prefix+"    "
		}
		label := name
		if useColor && child.fo != nil {
			label = colorize(name, child.fo.Kind())
		}
		fmt.Fprintln(w, prefix+connector+label)
		if child.children != nil {
			printChildren(w, child, childPrefix, useColor)
		}
	}
}

func colorize(name string, kind fileobject.Kind) string {
	const (
		colorSource = "\x1b[32m" // green
		colorClass  = "\x1b[36m" // cyan
		reset       = "\x1b[0m"
	)
	switch kind {
	case fileobject.KindSource:
		return colorSource + name + reset
	case fileobject.KindClass:
		return colorClass + name + reset
	default:
		return name
	}
}

func sortedNames(m map[string]*node) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
