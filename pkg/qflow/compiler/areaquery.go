package compiler

import (
	"github.com/qflowdev/qflow/pkg/qflow"
	"github.com/qflowdev/qflow/pkg/qflow/funcnode"
)

// AreaQueryResult is the outcome of the buildAreaQuery -> buildAreaSelection
// -> buildAreaProjection rewrite chain (spec.md §4.D "Area-query
// optimisation"). Rewritten is false when every pattern failed to match
// and the caller must fall back to the unoptimised AreaSelection form.
type AreaQueryResult struct {
	Node       funcnode.Ref
	Rewritten  bool
}

// BuildAreaQuery tries only the class-export rewrite: when classExport
// names an export of tmpl it returns an AreaProjection on that export,
// and otherwise an ordinary AreaSelection node. The child-areas and
// class-membership rewrites (BuildChildAreasChain,
// BuildClassMembershipGate) are not tried here, and no locality check is
// made before rewriting.
func BuildAreaQuery(cc *CompilerContext, tmpl *qflow.Template, classExport string, areaSet funcnode.Ref, localToArea, localToDefun int) AreaQueryResult {
	g := arenaFor(cc, tmpl)

	if classExport != "" {
		if tmpl != nil {
			if exportRef, ok := exportByName(tmpl, classExport); ok {
				ref := g.Add(funcnode.Node{
					Kind: funcnode.KindAreaProjection, ExportID: exportIDOf(tmpl, classExport), Data: areaSet,
					LocalToArea: localToArea, LocalToDefun: localToDefun,
				})
				_ = exportRef
				return AreaQueryResult{Node: ref, Rewritten: true}
			}
		}
	}

	ref := g.Add(funcnode.Node{Kind: funcnode.KindAreaSelection, Data: areaSet, LocalToArea: localToArea, LocalToDefun: localToDefun})
	return AreaQueryResult{Node: ref, Rewritten: false}
}

func exportByName(tmpl *qflow.Template, name string) (funcnode.Ref, bool) {
	id := exportIDOf(tmpl, name)
	ref, ok := tmpl.Exports[id]
	return ref, ok
}

func exportIDOf(tmpl *qflow.Template, name string) int {
	h := 0
	for _, r := range name {
		h = h*31 + int(r)
	}
	return h
}

// BuildChildAreasChain rewrites `[{c: [embf]}, data]` where embf is
// `me`/`embedding` with a determinable fixed embedding level into a
// chain of ChildAreas nodes plus boolean gates on the child's existence
// qualifier (spec.md §4.D second bullet). levels is the determined fixed
// embedding depth; a negative level means the embedding could not be
// determined and the caller should fall back to the unoptimised form.
func BuildChildAreasChain(cc *CompilerContext, tmpl *qflow.Template, childName string, data funcnode.Ref, levels int, localToArea int) (funcnode.Ref, bool) {
	if levels < 0 {
		return funcnode.NoRef, false
	}
	g := arenaFor(cc, tmpl)
	cur := data
	for i := 0; i < levels; i++ {
		cur = g.Add(funcnode.Node{Kind: funcnode.KindChildAreas, ChildName: childName, Data: cur, LocalToArea: localToArea})
	}
	exists := g.Add(funcnode.Node{Kind: funcnode.KindFunctionApplication, Builtin: "exists", Args: []funcnode.Ref{cur}})
	gate := g.Add(funcnode.Node{Kind: funcnode.KindBoolGate, Condition: exists, Value: cur, LocalToArea: localToArea})
	return gate, true
}

// BuildClassMembershipGate rewrites `["ClassName", [classOfArea, [me]]]`
// into `BoolGate(classMembership, ConstClassName)` at the class's
// template (spec.md §4.D third bullet).
func BuildClassMembershipGate(cc *CompilerContext, tmpl *qflow.Template, className string, me funcnode.Ref) funcnode.Ref {
	g := arenaFor(cc, tmpl)
	classOf := g.Add(funcnode.Node{Kind: funcnode.KindClassOfArea, Data: me})
	constClass := g.Add(funcnode.Node{Kind: funcnode.KindConst, ConstValue: className, WontChangeValue: true})
	return g.Add(funcnode.Node{Kind: funcnode.KindBoolGate, Condition: classOf, Value: constClass})
}

// DecomposeMultiAttributeQuery splits a multi-attribute AV query into
// independent per-attribute sub-selections, one ref per attribute in map
// iteration order; any other node is returned as the only element.
// Projections on an AV are not decomposed (spec.md §4.D fourth bullet).
func DecomposeMultiAttributeQuery(cc *CompilerContext, tmpl *qflow.Template, query funcnode.Ref) []funcnode.Ref {
	g := arenaFor(cc, tmpl)
	n := g.Get(query)
	if n == nil || n.Kind != funcnode.KindAV {
		return []funcnode.Ref{query}
	}
	out := make([]funcnode.Ref, 0, len(n.Attrs))
	for _, ref := range n.Attrs {
		out = append(out, ref)
	}
	return out
}
