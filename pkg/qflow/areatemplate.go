package qflow

import "github.com/qflowdev/qflow/pkg/qflow/funcnode"

// Template is a design-time area template (spec.md §3 "Area template"):
// a node in the tree of area archetypes from which runtime areas are
// instantiated.
type Template struct {
	ID       int
	Parent   int // -1 for the root template
	Children map[string]int
	Path     int // path id

	// Partner is the partner template id for intersection areas, or -1.
	Partner int

	Classes map[string]funcnode.Ref
	Exports map[int]funcnode.Ref

	// FunctionNodes are indexed slots shared across the template's areas.
	FunctionNodes []funcnode.Ref

	// ExpressionCache holds per-defun hash-consed compiled nodes, keyed by
	// (defun context, expression id). defun 0 means "not inside a defun."
	ExpressionCache map[CacheKey]funcnode.Ref

	Graph *funcnode.Graph

	// EmbeddingInReferred marks this template as embedded inside the
	// referred-to area of another template (existence/embedding semantics).
	EmbeddingInReferred bool
}

// CacheKey identifies one slot in a Template's ExpressionCache: an
// expression id compiled within a given defun context (0 outside any
// defun).
type CacheKey struct {
	Defun int
	Expr  int64
}

// NewTemplate creates an empty template owning its own function-node arena.
func NewTemplate(id, parent int) *Template {
	return &Template{
		ID:              id,
		Parent:          parent,
		Partner:         -1,
		Children:        make(map[string]int),
		Classes:         make(map[string]funcnode.Ref),
		Exports:         make(map[int]funcnode.Ref),
		ExpressionCache: make(map[CacheKey]funcnode.Ref),
		Graph:           funcnode.NewGraph(),
	}
}

// TemplateTree holds every Template indexed by id, so ancestor/descendant
// walks (getLevelDifference, getEmbedding) operate without needing
// pointer back-edges.
type TemplateTree struct {
	byID map[int]*Template
}

// NewTemplateTree creates an empty tree.
func NewTemplateTree() *TemplateTree {
	return &TemplateTree{byID: make(map[int]*Template)}
}

// Add registers t in the tree.
func (t *TemplateTree) Add(tmpl *Template) {
	t.byID[tmpl.ID] = tmpl
}

// Get looks up a template by id.
func (t *TemplateTree) Get(id int) *Template {
	return t.byID[id]
}

// GetLevelDifference returns the number of parent hops from a to b when
// b is an ancestor of a, or -1 if b is not an ancestor.
func (t *TemplateTree) GetLevelDifference(a, b int) int {
	hops := 0
	cur := a
	for cur != -1 {
		if cur == b {
			return hops
		}
		tmpl := t.byID[cur]
		if tmpl == nil {
			return -1
		}
		cur = tmpl.Parent
		hops++
	}
	return -1
}

// GetEmbedding walks upward from n until it finds a template that is not
// marked EmbeddingInReferred, returning the first non-embedded ancestor
// (or n itself if it is not embedded).
func (t *TemplateTree) GetEmbedding(n int) int {
	cur := n
	for {
		tmpl := t.byID[cur]
		if tmpl == nil || !tmpl.EmbeddingInReferred || tmpl.Parent == -1 {
			return cur
		}
		cur = tmpl.Parent
	}
}
