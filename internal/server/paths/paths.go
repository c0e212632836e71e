// Package paths implements the materialized-path model of the namespace.
//
// A folder's position in the tree is encoded only in its path string, so
// ancestry, parents, depth and children are all derived from strings. No
// adjacency is stored anywhere.
package paths

import (
	"strings"
	"unicode"

	"github.com/dmitrijs2005/sparkdrive/internal/common"
)

const (
	Root      = common.RootPath
	separator = "/"
)

// Canonical validates p and returns its canonical form: absolute, duplicate
// separators collapsed, no trailing separator except for the root itself.
// Paths are case-sensitive and never resolved; "." and ".." segments are
// rejected rather than interpreted.
func Canonical(p string) (string, error) {
	if p == "" {
		return "", common.NewError(common.KindInvalidArgument, "path is empty")
	}
	if !strings.HasPrefix(p, separator) {
		return "", common.NewError(common.KindInvalidArgument, "path %q is not absolute", p)
	}
	for _, r := range p {
		if unicode.IsControl(r) {
			return "", common.NewError(common.KindInvalidArgument, "path %q contains control characters", p)
		}
	}

	segments := make([]string, 0, strings.Count(p, separator))
	for _, s := range strings.Split(p, separator) {
		switch s {
		case "":
			continue
		case ".", "..":
			return "", common.NewError(common.KindInvalidArgument, "path %q contains relative segment %q", p, s)
		}
		segments = append(segments, s)
	}
	return separator + strings.Join(segments, separator), nil
}

// Trim removes one trailing separator, keeping the root as "/".
func Trim(p string) string {
	if p == Root {
		return p
	}
	if t := strings.TrimSuffix(p, separator); t != "" {
		return t
	}
	return Root
}

// IsRoot reports whether p denotes the root folder.
func IsRoot(p string) bool {
	return Trim(p) == Root
}

// Equal compares two paths after trimming a trailing separator.
func Equal(a, b string) bool {
	return Trim(a) == Trim(b)
}

// Prefix returns the string every descendant of p starts with: p followed
// by exactly one separator. For the root it is "/" itself.
func Prefix(p string) string {
	p = Trim(p)
	if p == Root {
		return Root
	}
	return p + separator
}

// IsAncestor reports whether parent is a strict ancestor of child.
func IsAncestor(parent, child string) bool {
	child = Trim(child)
	if child == Trim(parent) {
		return false
	}
	return strings.HasPrefix(child, Prefix(parent))
}

// Parent returns the parent of p. The parent of the root is the root.
func Parent(p string) string {
	p = Trim(p)
	i := strings.LastIndex(p, separator)
	if i <= 0 {
		return Root
	}
	return p[:i]
}

// Base returns the last segment of p, or "" for the root.
func Base(p string) string {
	p = Trim(p)
	return p[strings.LastIndex(p, separator)+1:]
}

// Depth is the number of segments in p; the root has depth 0.
func Depth(p string) int {
	p = Trim(p)
	if p == Root {
		return 0
	}
	return strings.Count(p, separator)
}

// Join appends a single segment to dir.
func Join(dir, name string) string {
	return Prefix(dir) + name
}
