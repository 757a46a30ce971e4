package qflow

import (
	"sync"

	"github.com/mitchellh/hashstructure"
)

// ExpressionStore hash-conses expressions by structural content
// (spec.md §4.B): store(e) returns the canonical instance, allocating a
// fresh id on first insert. Candidates are bucketed by a structural hash
// (mitchellh/hashstructure) and verified with Expression.Equal, the same
// "hash bucket then verify" two-phase pattern the teacher's cache keys
// follow.
type ExpressionStore struct {
	mu      sync.Mutex
	nextID  int64
	buckets map[uint64][]*Expression
}

// NewExpressionStore creates an empty store.
func NewExpressionStore() *ExpressionStore {
	return &ExpressionStore{buckets: make(map[uint64][]*Expression)}
}

// Store returns the canonical instance for e: either an existing
// structurally-equal expression, or e itself with a freshly-allocated Id.
func (s *ExpressionStore) Store(e *Expression) *Expression {
	h := structuralHash(e)

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, candidate := range s.buckets[h] {
		if candidate.Equal(e) {
			return candidate
		}
	}
	s.nextID++
	e.Id = s.nextID
	s.buckets[h] = append(s.buckets[h], e)
	return e
}

func structuralHash(e *Expression) uint64 {
	// Expression.Id is tagged hash:"ignore", so an expression hashes the
	// same whether or not it or any sub-expression has been stored,
	// matching Expression.Equal, which also ignores Id.
	h, err := hashstructure.Hash(e, nil)
	if err != nil {
		// hashstructure only fails on unsupported kinds (channels, funcs),
		// none of which Expression contains; treat as a structural bug.
		panic(err)
	}
	return h
}

// QueryComponentSelect is one selection clause extracted from a query
// expression by ExtractQueryComponents (spec.md §4.B).
type QueryComponentSelect struct {
	Path      []string
	Positive  bool
	Selection *Expression
}

// QueryComponentProject is one projection clause extracted from a query
// expression by ExtractQueryComponents.
type QueryComponentProject struct {
	Path        []string
	Destination []string
}

// ExtractQueryPath decomposes a `{a:{b:{…}}}`-shaped expression into its
// path prefix, terminal expression, and whether the terminal is itself a
// projector (spec.md §4.B). isProjection is true when the innermost
// non-AttributeValue node is a bare projector ("_").
func ExtractQueryPath(e *Expression) (path []string, terminal *Expression, isProjection bool) {
	cur := e
	for cur != nil && cur.Kind == ExprAttributeValue && len(cur.Attrs) == 1 {
		for attr, sub := range cur.Attrs {
			path = append(path, attr)
			cur = sub
		}
	}
	terminal = cur
	isProjection = cur != nil && cur.Kind == ExprProjector
	return path, terminal, isProjection
}

// ExtractQueryComponents yields ordered selection and projection clauses
// from a query expression, visiting the well-known attributes `context`,
// `param`, `content`, `children` first at every level; attribute names
// are used unchanged as path components (spec.md §4.B).
func ExtractQueryComponents(e *Expression) ([]QueryComponentSelect, []QueryComponentProject) {
	var selects []QueryComponentSelect
	var projects []QueryComponentProject

	if e == nil || e.Kind != ExprAttributeValue {
		return selects, projects
	}

	var walk func(prefix []string, node *Expression)
	walk = func(prefix []string, node *Expression) {
		if node == nil {
			return
		}
		switch node.Kind {
		case ExprProjector:
			dest := append([]string{}, prefix...)
			projects = append(projects, QueryComponentProject{Path: append([]string{}, prefix...), Destination: dest})
		case ExprAttributeValue:
			for _, attr := range rewriteTopLevelAttrs(node) {
				walk(append(append([]string{}, prefix...), attr.name), attr.expr)
			}
		case ExprNegation:
			selects = append(selects, QueryComponentSelect{Path: append([]string{}, prefix...), Positive: false, Selection: node.Operand})
		default:
			selects = append(selects, QueryComponentSelect{Path: append([]string{}, prefix...), Positive: true, Selection: node})
		}
	}
	walk(nil, e)
	return selects, projects
}

type namedAttr struct {
	name string
	expr *Expression
}

// rewriteTopLevelAttrs returns node's attributes with the well-known
// names `context`/`param`/`content`/`children` first, in that order,
// followed by the remaining attributes in map iteration order, which is
// not stable. Attribute names are returned as written.
func rewriteTopLevelAttrs(node *Expression) []namedAttr {
	order := []string{"context", "param", "content", "children"}
	seen := make(map[string]bool, len(node.Attrs))
	out := make([]namedAttr, 0, len(node.Attrs))
	for _, name := range order {
		if sub, ok := node.Attrs[name]; ok {
			out = append(out, namedAttr{name, sub})
			seen[name] = true
		}
	}
	for name, sub := range node.Attrs {
		if !seen[name] {
			out = append(out, namedAttr{name, sub})
		}
	}
	return out
}

// NormalizeQuery canonicalises a query expression under a fixed
// `{context: …}` wrapping when the query has no context/param/content/
// children top-level attribute (spec.md §4.B): a bare selection is
// implicitly a selection on the content's own context.
func NormalizeQuery(e *Expression) *Expression {
	if e == nil || e.Kind != ExprAttributeValue {
		return e
	}
	for _, top := range []string{"context", "param", "content", "children"} {
		if _, ok := e.Attrs[top]; ok {
			return e
		}
	}
	return &Expression{
		Kind:  ExprAttributeValue,
		Attrs: map[string]*Expression{"context": e},
	}
}
