package funcnode

import (
	"testing"

	"github.com/qflowdev/qflow/pkg/qflow/valuetype"
)

func TestStubResolvesToLaterNode(t *testing.T) {
	g := NewGraph()
	stub := g.NewStub(nil, 1)
	if g.Resolve(stub) != NoRef {
		t.Fatal("expected unresolved stub to resolve to NoRef")
	}
	real := g.Add(Node{Kind: KindConst, ConstValue: 5})
	g.ResolveStub(stub, real)
	if g.Resolve(stub) != real {
		t.Fatal("expected resolved stub to follow to the real node")
	}
}

func TestCheckTypeChangeOnlyWhenNotSubsumed(t *testing.T) {
	wide := &valuetype.ValueType{Caps: valuetype.Number | valuetype.String, Sizes: []valuetype.Range{{Min: 0, Max: 10}}}
	narrow := valuetype.New(valuetype.Number, 1)
	if c := CheckTypeChange(wide, narrow); c != nil {
		t.Fatalf("expected no change when old subsumes new, got %+v", c)
	}
	if c := CheckTypeChange(narrow, wide); c == nil {
		t.Fatal("expected a change when old no longer subsumes new")
	}
}

func TestWritableRegistryCanonicalizesByTemplateAndPath(t *testing.T) {
	g := NewGraph()
	reg := NewWritableRegistry(g)
	key := WritableKey{Template: 1, Path: 42}
	first := reg.BuildOrMerge(key, 1, NoRef, valuetype.New(valuetype.Number, 1), valuetype.New(valuetype.Number, 1), nil)
	second := reg.BuildOrMerge(key, 1, NoRef, valuetype.New(valuetype.Number, 1), valuetype.New(valuetype.String, 1), nil)
	if first != second {
		t.Fatal("expected the same canonical Writable ref for repeated builds")
	}
	n := g.Get(first)
	if !n.ValueType.Has(valuetype.String) || !n.ValueType.Has(valuetype.Number) {
		t.Fatalf("expected merged value type to carry both writes, got %s", n.ValueType)
	}
}

func TestDedupVariantDropsIdenticalAdjacentAlternatives(t *testing.T) {
	g := NewGraph()
	group := []SingleQualifier{{Attribute: "a", Value: true, TargetArea: 1}}
	a1 := g.Add(Node{Kind: KindConst, OrigExpr: 7})
	a2 := g.Add(Node{Kind: KindConst, OrigExpr: 7})
	a3 := g.Add(Node{Kind: KindConst, OrigExpr: 8})

	qs, alts := g.DedupVariant([][]SingleQualifier{group, group, group}, []Ref{a1, a2, a3})
	if len(alts) != 2 {
		t.Fatalf("expected duplicate adjacent alternative to be dropped, got %d alts", len(alts))
	}
	_ = qs
}

func TestIsImpliedBy(t *testing.T) {
	g1 := []SingleQualifier{{Attribute: "a", Value: true, TargetArea: 1}}
	g2 := []SingleQualifier{{Attribute: "a", Value: true, TargetArea: 1}, {Attribute: "b", Value: 2, TargetArea: 1}}
	if !IsImpliedBy(g1, g2) {
		t.Fatal("expected g1 to be implied by the more specific g2")
	}
	if IsImpliedBy(g2, g1) {
		t.Fatal("g2 should not be implied by the less specific g1")
	}
}
