package funcnode

import "github.com/qflowdev/qflow/pkg/qflow/valuetype"

// OutputChange is emitted by CheckTypeChange when a node's inferred type
// narrows in a way downstream consumers must react to (spec.md §6
// "Output signals").
type OutputChange struct {
	Kind     string // "valueTypeChange" or "nrOutputAreas"
	OrigType *valuetype.ValueType
	NewType  *valuetype.ValueType
	From, To int
}

// NewStub inserts a placeholder node carrying the previous node's value
// type (if any), to be resolved later in the same compilation cycle
// (spec.md §4.D step 1, §4.C "Stub nodes exist only transiently").
func (g *Graph) NewStub(prevType *valuetype.ValueType, cycleNr int) Ref {
	return g.Add(Node{
		Kind:        KindStub,
		ValueType:   prevType,
		StubCycleNr: cycleNr,
		Resolution:  NoRef,
	})
}

// ResolveStub replaces a Stub's resolution with resolved once the real
// node has been built. A Stub that is read again before being resolved
// (StubCycleNr == currentCycle && Resolution == NoRef) indicates a
// possible cycle (spec.md §8 "A Stub encountered while unresolved emits
// a 'possible cycle' warning and resolves to the later-completed node");
// the caller is responsible for emitting that warning, since only it
// knows the current cycle number.
func (g *Graph) ResolveStub(stub Ref, resolved Ref) {
	n := g.Get(stub)
	n.Resolution = resolved
}

// Resolve follows Stub indirections until it reaches a concrete node,
// returning NoRef if the chain is not yet fully resolved.
func (g *Graph) Resolve(ref Ref) Ref {
	for {
		n := g.Get(ref)
		if n == nil || n.Kind != KindStub {
			return ref
		}
		if n.Resolution == NoRef {
			return NoRef
		}
		ref = n.Resolution
	}
}

// CheckTypeChange compares a node's previously-cached value type against
// its freshly-recomputed one, returning a non-nil OutputChange exactly
// when the old type stopped subsuming the new one (spec.md §4.D step 1
// "emit valueTypeChange output-change signals if the inferred type
// stopped subsuming the new one").
func CheckTypeChange(oldType, newType *valuetype.ValueType) *OutputChange {
	if oldType == nil {
		return nil
	}
	if oldType.Subsumes(newType) {
		return nil
	}
	return &OutputChange{Kind: "valueTypeChange", OrigType: oldType, NewType: newType}
}

// WritableKey identifies a Writable's canonical slot: spec.md §4.C
// "Writables are unique per (template, path)."
type WritableKey struct {
	Template int
	Path     int
}

// WritableRegistry tracks the one canonical Writable node per
// (template, path), merging each new write's value type into the
// existing node instead of creating a duplicate (spec.md §4.C, §8
// property 3).
type WritableRegistry struct {
	graph    *Graph
	byKey    map[WritableKey]Ref
}

// NewWritableRegistry creates a registry backed by g.
func NewWritableRegistry(g *Graph) *WritableRegistry {
	return &WritableRegistry{graph: g, byKey: make(map[WritableKey]Ref)}
}

// BuildOrMerge returns the canonical Writable for key, creating it on
// first call and merging writeType into its ValueType (and its initial
// value's type, via initialType) on every call thereafter.
func (r *WritableRegistry) BuildOrMerge(key WritableKey, localToArea int, initial Ref, initialType, writeType *valuetype.ValueType, info *PathInfo) Ref {
	if ref, ok := r.byKey[key]; ok {
		n := r.graph.Get(ref)
		n.ValueType = valuetype.Merge(n.ValueType, writeType)
		return ref
	}
	vt := valuetype.Merge(initialType, writeType)
	ref := r.graph.Add(Node{
		Kind:         KindWritable,
		LocalToArea:  localToArea,
		ValueType:    vt,
		InitialValue: initial,
		PathInfo:     info,
	})
	r.byKey[key] = ref
	return ref
}

// DedupVariant removes adjacent alternatives in a Variant node that share
// an identical qualifier group and an identical expression id
// (spec.md §4.C "Variant nodes never contain two adjacent alternatives
// with the same qualifier group whose expression ids are equal — compile-
// time must dedup"; spec.md §8 property 2). An alternative's expression
// id is read from its node's OrigExpr.
func (g *Graph) DedupVariant(qualifiers [][]SingleQualifier, alternatives []Ref) ([][]SingleQualifier, []Ref) {
	if len(alternatives) < 2 {
		return qualifiers, alternatives
	}
	outQ := qualifiers[:1]
	outA := alternatives[:1]
	for i := 1; i < len(alternatives); i++ {
		prevAlt := g.Get(outA[len(outA)-1])
		curAlt := g.Get(alternatives[i])
		sameGroup := sameQualifierGroup(qualifiers[i-1], qualifiers[i])
		sameExpr := prevAlt != nil && curAlt != nil && prevAlt.OrigExpr == curAlt.OrigExpr
		if sameGroup && sameExpr {
			continue
		}
		outQ = append(outQ, qualifiers[i])
		outA = append(outA, alternatives[i])
	}
	return outQ, outA
}

func sameQualifierGroup(a, b []SingleQualifier) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
