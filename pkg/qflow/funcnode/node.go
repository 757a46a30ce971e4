// Package funcnode implements the compiled function-node graph
// (spec.md §3, §4.C): the DAG of typed nodes a query expression compiles
// into. Per the design notes (spec.md §9 "Cyclic references"), nodes are
// arena-allocated and referenced by integer index so cycles (back-edges
// through defuns and Variant alternatives) are plain integers rather
// than language-level pointers that would need a cycle collector.
package funcnode

import "github.com/qflowdev/qflow/pkg/qflow/valuetype"

// Kind tags which variant a Node holds (spec.md §3 "Function node").
type Kind int

const (
	KindConst Kind = iota
	KindVariable
	KindAV
	KindVariant
	KindFunctionApplication
	KindBoolGate
	KindBoolMatch
	KindAreaSelection
	KindAreaProjection
	KindChildAreas
	KindOrderedSet
	KindWritable
	KindStorage
	KindParamStorage
	KindMessageQueue
	KindPointerStorage
	KindStub
	KindDefun
	KindDefunNode
	KindClassOfArea
)

// Ref is an arena index into a Graph's node table; NoRef (-1) denotes
// "no node."
type Ref int

const NoRef Ref = -1

// SingleQualifier is a runtime condition on a context attribute of a
// specific area template (spec.md §3 "Qualifier").
type SingleQualifier struct {
	Attribute  string
	Value      interface{}
	TargetArea int // area template id
	Function   Ref // function node computing the runtime value, if dynamic
}

// IsImpliedBy reports whether every atom of g1 appears in g2 — g2 is at
// least as specific as g1 (spec.md §3 "isImpliedBy").
func IsImpliedBy(g1, g2 []SingleQualifier) bool {
	for _, a := range g1 {
		found := false
		for _, b := range g2 {
			if a.Attribute == b.Attribute && a.TargetArea == b.TargetArea && a.Value == b.Value {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Node is one entry in the function-node graph. Every node carries
// LocalToArea (the highest template where it can be evaluated),
// LocalToDefun, ValueType, OrigExpr (debug provenance, an expression id),
// and StubCycleNr (the compilation-fixpoint cycle it was last touched in).
type Node struct {
	Kind Kind

	LocalToArea  int
	LocalToDefun int
	ValueType    *valuetype.ValueType
	OrigExpr     int64
	StubCycleNr  int

	// KindConst
	ConstValue       interface{}
	WontChangeValue  bool
	SuppressSet      map[string]bool

	// KindVariable
	VarDefunParam int

	// KindAV
	Attrs map[string]Ref

	// KindVariant
	Qualifiers   [][]SingleQualifier
	Alternatives []Ref

	// KindFunctionApplication
	Builtin string
	Args    []Ref

	// KindBoolGate
	Condition Ref
	Value     Ref

	// KindBoolMatch
	Query     Ref
	Selection Ref
	Data      Ref

	// KindAreaSelection
	Path       int // path id
	SelectionFn Ref

	// KindAreaProjection
	ExportID        int
	OnAllAreasOfCls bool

	// KindChildAreas
	ChildName string

	// KindOrderedSet
	Children []Ref

	// KindWritable
	InitialValue Ref
	PathInfo     *PathInfo

	// KindStub
	Resolution Ref

	// KindDefun / KindDefunNode
	Body      Ref
	FreeVars  []Ref
	ParamRefs []Ref

	// KindClassOfArea: Data field above is reused.
}

// PathInfo describes one qualified alternative feeding into buildQualifierNode
// (spec.md §4.D "qualifier simplification"): its qualifier terms, a
// priority used to order merge alternatives, and whether it is writable.
// The alternative's expression is not held here; BuildQualifierNode's
// buildAlt callback compiles it.
type PathInfo struct {
	Qualifiers []SingleQualifier
	Priority   int
	Writable   bool
}

// Graph is the arena owning a set of Nodes; templates and the global
// cache each own a Graph (spec.md §3 "Lifecycle": function nodes are
// owned by the template whose expressionCache produced them, globals by
// the global cache).
type Graph struct {
	nodes []Node
}

// NewGraph creates an empty arena.
func NewGraph() *Graph {
	return &Graph{}
}

// Add appends n to the arena and returns its Ref.
func (g *Graph) Add(n Node) Ref {
	g.nodes = append(g.nodes, n)
	return Ref(len(g.nodes) - 1)
}

// Get returns a pointer to the node at ref for in-place mutation (used
// by Stub resolution and checkTypeChange).
func (g *Graph) Get(ref Ref) *Node {
	if ref == NoRef {
		return nil
	}
	return &g.nodes[ref]
}

// Len returns the number of nodes currently in the arena.
func (g *Graph) Len() int {
	return len(g.nodes)
}
