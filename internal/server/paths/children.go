package paths

import (
	"slices"
	"strings"
)

// Child is a direct child of a reference path.
type Child struct {
	Name string
	Path string
}

// DirectChildren returns the children exactly one segment below ref,
// derived from a flat list of candidate paths. Any number of descendants
// sharing a first segment collapse into one child; ref itself (including
// trailing-slash variants) is never returned. The result is sorted by name.
func DirectChildren(candidates []string, ref string) []Child {
	ref = Trim(ref)
	prefix := Prefix(ref)

	seen := make(map[string]struct{})
	var out []Child
	for _, c := range candidates {
		c = Trim(c)
		if c == ref || !strings.HasPrefix(c, prefix) {
			continue
		}
		name, _, _ := strings.Cut(c[len(prefix):], separator)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, Child{Name: name, Path: prefix + name})
	}

	slices.SortFunc(out, func(a, b Child) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// Descendants returns every distinct path in candidates strictly below ref,
// sorted lexicographically.
func Descendants(candidates []string, ref string) []string {
	var out []string
	for _, c := range candidates {
		if IsAncestor(ref, c) {
			out = append(out, Trim(c))
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// NearestDescendants returns the existing folders below ref that have no
// other existing folder between them and ref, sorted lexicographically.
//
// With complete path sets these are exactly the direct children. When an
// intermediate segment has no folder of its own (e.g. "/a" and "/a/b/c"
// without "/a/b"), the deeper folder is returned instead, so a walk that
// only follows these edges still visits every existing descendant once.
func NearestDescendants(existing []string, ref string) []string {
	ref = Trim(ref)
	desc := Descendants(existing, ref)

	set := make(map[string]struct{}, len(desc))
	for _, d := range desc {
		set[d] = struct{}{}
	}

	var out []string
	for _, d := range desc {
		nearest := true
		for a := Parent(d); a != ref && a != Root; a = Parent(a) {
			if _, ok := set[a]; ok {
				nearest = false
				break
			}
		}
		if nearest {
			out = append(out, d)
		}
	}
	return out
}
