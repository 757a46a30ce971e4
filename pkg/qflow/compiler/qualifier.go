package compiler

import (
	"github.com/qflowdev/qflow/pkg/qflow"
	"github.com/qflowdev/qflow/pkg/qflow/funcnode"
)

// PickQualifiedExpression prunes Variant alternatives that are
// impossible under the given knownTrue/knownFalse qualifier context
// (spec.md §4.D step 2 "pickQualifiedExpression"). Alternatives whose
// qualifier group is implied-false by knownFalse are dropped outright;
// an alternative implied-true by knownTrue short-circuits the whole
// Variant to that single alternative.
func PickQualifiedExpression(cc *CompilerContext, tmpl *qflow.Template, ref funcnode.Ref, knownTrue, knownFalse []funcnode.SingleQualifier, origin int) funcnode.Ref {
	g := arenaFor(cc, tmpl)
	n := g.Get(ref)
	if n == nil || n.Kind != funcnode.KindVariant {
		return ref
	}

	var keptQ [][]funcnode.SingleQualifier
	var keptA []funcnode.Ref
	for i, group := range n.Qualifiers {
		if funcnode.IsImpliedBy(group, knownFalse) {
			continue // impossible under this context
		}
		if funcnode.IsImpliedBy(group, knownTrue) {
			// This alternative is certain: collapse the Variant to it.
			return n.Alternatives[i]
		}
		keptQ = append(keptQ, group)
		keptA = append(keptA, n.Alternatives[i])
	}
	if len(keptA) == 0 {
		return g.Add(funcnode.Node{Kind: funcnode.KindOrderedSet, ValueType: n.ValueType})
	}
	if len(keptA) == 1 {
		return keptA[0]
	}
	keptQ, keptA = g.DedupVariant(keptQ, keptA)
	n.Qualifiers = keptQ
	n.Alternatives = keptA
	return ref
}

// BuildQualifier builds the conjunction of a qualifier group's atoms,
// short-circuiting any atom that is known true/false under the current
// context. It does not detect qualifier cycles itself: its only guard is
// cc.EnterExport, which panics when the same (pathStr, templateID) is
// entered too many times in one stub cycle. QualifierCycleFallback is a
// separate entry point and is not called from here.
func BuildQualifier(cc *CompilerContext, tmpl *qflow.Template, group []funcnode.SingleQualifier, knownTrue, knownFalse []funcnode.SingleQualifier, pathStr string, templateID int) []funcnode.SingleQualifier {
	release := cc.EnterExport(pathStr, templateID)
	defer release()

	out := make([]funcnode.SingleQualifier, 0, len(group))
	for _, atom := range group {
		if funcnode.IsImpliedBy([]funcnode.SingleQualifier{atom}, knownTrue) {
			continue // always true in this context: drop from the conjunction
		}
		if funcnode.IsImpliedBy([]funcnode.SingleQualifier{atom}, knownFalse) {
			return nil // always false: whole group is unsatisfiable
		}
		out = append(out, atom)
	}
	return out
}

// QualifierCycleFallback records a qualifier cycle via cc.WarnCycle and
// returns a new KindBoolMatch placeholder node standing in for the
// cyclic atom; no query-calc encoding or other field is set on the node.
func QualifierCycleFallback(cc *CompilerContext, tmpl *qflow.Template, pathStr string, templateID int) funcnode.Ref {
	cc.WarnCycle(pathStr, templateID)
	g := arenaFor(cc, tmpl)
	return g.Add(funcnode.Node{Kind: funcnode.KindBoolMatch})
}

// BuildQualifierNode processes a list of PathInfo values in priority
// order, building the merge node described in spec.md §4.D "Merge node"
// and "Qualifier simplification": adjacent alternatives sharing a
// qualifier group and expression id are fused; a later qualifier implied
// by an earlier, unmergeable one is dropped; knownFalseQualifiers
// accumulates across the pass.
func BuildQualifierNode(cc *CompilerContext, tmpl *qflow.Template, infos []*funcnode.PathInfo, buildAlt func(info *funcnode.PathInfo, knownFalse []funcnode.SingleQualifier) funcnode.Ref) funcnode.Ref {
	g := arenaFor(cc, tmpl)

	var qualifiers [][]funcnode.SingleQualifier
	var alternatives []funcnode.Ref
	var knownFalse []funcnode.SingleQualifier

	var lastGroup []funcnode.SingleQualifier
	var lastUnmergeable bool

	for _, info := range infos {
		group := info.Qualifiers
		alt := funcnode.NoRef

		// Rule 1: identical consecutive qualifier group whose alternative
		// has the same expression id -> drop the earlier one.
		if sameGroupAtoms(group, lastGroup) && len(alternatives) > 0 {
			alt = buildAlt(info, knownFalse)
			prev, cur := g.Get(alternatives[len(alternatives)-1]), g.Get(alt)
			if prev != nil && cur != nil && prev.OrigExpr == cur.OrigExpr {
				alternatives[len(alternatives)-1] = alt
				qualifiers[len(qualifiers)-1] = group
				lastGroup = group
				continue
			}
		}

		// Rule 2: later qualifier implied by an earlier, unmergeable one.
		if lastUnmergeable && funcnode.IsImpliedBy(group, lastGroup) {
			continue
		}

		if alt == funcnode.NoRef {
			alt = buildAlt(info, knownFalse)
		}
		qualifiers = append(qualifiers, group)
		alternatives = append(alternatives, alt)

		unmergeable := !info.Writable
		if unmergeable {
			knownFalse = append(knownFalse, group...)
		}
		lastGroup = group
		lastUnmergeable = unmergeable
	}

	if len(alternatives) == 1 {
		return alternatives[0]
	}
	qualifiers, alternatives = g.DedupVariant(qualifiers, alternatives)
	return g.Add(funcnode.Node{Kind: funcnode.KindVariant, Qualifiers: qualifiers, Alternatives: alternatives})
}

// ParseQualifierAtom decodes one qualifier atom given as YAML raw text
// of the form "attr=value" (spec.md GLOSSARY "Qualifier"; SPEC_FULL.md
// §5.5 "expression description input" is authored in YAML and walked
// into compiler structures), targeting areaTemplateID.
func ParseQualifierAtom(raw string, areaTemplateID int) (funcnode.SingleQualifier, bool) {
	attr, value, ok := splitQualifierAtom(raw)
	if !ok {
		return funcnode.SingleQualifier{}, false
	}
	return funcnode.SingleQualifier{Attribute: attr, Value: value, TargetArea: areaTemplateID, Function: funcnode.NoRef}, true
}

func sameGroupAtoms(a, b []funcnode.SingleQualifier) bool {
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
