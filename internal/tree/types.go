// Package tree implements the attribute-path cursor that backs qflow's
// Path ID store (spec.md §3). A Cursor is a sequence of attribute labels,
// exactly as graft's own internal/utils/tree.Cursor models a sequence of
// YAML/JSON path components — here the sequence never resolves against a
// concrete document; it is purely the canonical shape that PathStore
// hash-conses into integer path ids.
package tree

import (
	"fmt"
	"strings"

	"github.com/qflowdev/qflow/internal/ansi"
)

// Cursor is an ordered sequence of attribute labels identifying a path
// through the hierarchical index, e.g. {context, screenArea, content}.
type Cursor struct {
	Nodes []string
}

// SyntaxError reports a malformed path literal.
type SyntaxError struct {
	Problem  string
	Position int
}

func (e SyntaxError) Error() string {
	return fmt.Sprintf("syntax error: %s at position %d", e.Problem, e.Position)
}

// NotAPrefixError is returned when a path is asked to be related to
// another path that it is not in fact a prefix of.
type NotAPrefixError struct {
	Prefix *Cursor
	Path   *Cursor
}

func (e NotAPrefixError) Error() string {
	return ansi.Sprintf("@c{%s} @R{is not a prefix of} @c{%s}", e.Prefix.String(), e.Path.String())
}

// UnreleasedPathError is a structural-invariant panic value: releasing a
// path id more times than it was retained (its reference count dropping
// below zero) is a caller bug, not a
// recoverable user-level error (spec.md §7: "structural invariants of
// the graph... do throw and terminate the cycle").
type UnreleasedPathError struct {
	Path     string
	RefCount int
}

func (e UnreleasedPathError) Error() string {
	return fmt.Sprintf("path %q released with %d outstanding reference(s)", e.Path, e.RefCount)
}

func join(nodes []string) string {
	return strings.Join(nodes, ".")
}
