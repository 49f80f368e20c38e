// Package pathtree renders the hierarchical view of record paths used for
// display and search. It is purely cosmetic: paths are flat strings in the
// database, and "/" is only a display convention.
package pathtree

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

type directory struct {
	subdirs map[string]*directory
	records map[string]string // leaf name -> full path
}

func newDirectory() *directory {
	return &directory{
		subdirs: make(map[string]*directory),
		records: make(map[string]string),
	}
}

// Tree is a hierarchical index over a set of record paths.
type Tree struct {
	root *directory
}

// Build folds flat record paths into a Tree, splitting on "/".
func Build(paths []string) *Tree {
	root := newDirectory()
	for _, path := range paths {
		parts := strings.Split(path, "/")
		dirs, leaf := parts[:len(parts)-1], parts[len(parts)-1]
		cur := root
		for _, d := range dirs {
			next, ok := cur.subdirs[d]
			if !ok {
				next = newDirectory()
				cur.subdirs[d] = next
			}
			cur = next
		}
		cur.records[leaf] = path
	}
	return &Tree{root: root}
}

// Render writes the tree using box-drawing characters, including only the
// parts that contain searchTerm. Matching is done against full record
// paths, so a search term may cross directory levels ("dir/record").
func (t *Tree) Render(w io.Writer, searchTerm string) {
	fmt.Fprintln(w, "╮")
	t.root.render(w, searchTerm, "")
}

// contains reports whether any record path below d matches the term.
func (d *directory) contains(searchTerm string) bool {
	for _, sub := range d.subdirs {
		if sub.contains(searchTerm) {
			return true
		}
	}
	for _, path := range d.records {
		if strings.Contains(path, searchTerm) {
			return true
		}
	}
	return false
}

func (d *directory) render(w io.Writer, searchTerm, prefix string) {
	if !d.contains(searchTerm) {
		return
	}

	names := sortedKeys(d.subdirs)
	// Drop subdirectories that the search filters out entirely, so the
	// last visible entry gets the closing branch glyph.
	visible := names[:0]
	for _, name := range names {
		if d.subdirs[name].contains(searchTerm) {
			visible = append(visible, name)
		}
	}
	leaves := make([]string, 0, len(d.records))
	for _, leaf := range sortedKeys(d.records) {
		if strings.Contains(d.records[leaf], searchTerm) {
			leaves = append(leaves, leaf)
		}
	}

	for i, name := range visible {
		last := i == len(visible)-1 && len(leaves) == 0
		branch, childPrefix := "├─┬", "│ "
		if last {
			branch, childPrefix = "╰─┬", "  "
		}
		fmt.Fprintf(w, "%s%s %s/\n", prefix, branch, name)
		d.subdirs[name].render(w, searchTerm, prefix+childPrefix)
	}
	for i, leaf := range leaves {
		branch := "├──"
		if i == len(leaves)-1 {
			branch = "╰──"
		}
		fmt.Fprintf(w, "%s%s %s\n", prefix, branch, leaf)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
