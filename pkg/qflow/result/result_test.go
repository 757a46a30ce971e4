package result

import "testing"

type fakePathNode struct {
	registered map[int]bool
	values     map[int][]int64
}

func newFakePathNode() *fakePathNode {
	return &fakePathNode{registered: make(map[int]bool), values: make(map[int][]int64)}
}

func (p *fakePathNode) RegisterDataResult(pathID int, r *DataResult)   { p.registered[pathID] = true }
func (p *fakePathNode) UnregisterDataResult(pathID int, r *DataResult) { p.registered[pathID] = false }
func (p *fakePathNode) AllMatches(pathID int) []int64                  { return p.values[pathID] }
func (p *fakePathNode) AllMatchesAsObj(pathID int) map[int64]interface{} {
	out := make(map[int64]interface{})
	for _, id := range p.values[pathID] {
		out[id] = struct{}{}
	}
	return out
}

type fakeComposed struct {
	notified int
}

func (c *fakeComposed) SourceChanged(src Source) { c.notified++ }

func TestDataResultRegistersOnlyWhileActive(t *testing.T) {
	pn := newFakePathNode()
	d := NewDataResult(nil, pn, 7, 0, false)
	if pn.registered[7] {
		t.Fatal("expected no registration before any active composed child")
	}
	child := &fakeComposed{}
	d.AboutToAddActiveComposed(child)
	if !pn.registered[7] {
		t.Fatal("expected registration once a composed child is active")
	}
	d.ActiveComposedFuncRemoved(child)
	if pn.registered[7] {
		t.Fatal("expected unregistration once no composed children remain")
	}
}

func TestDataResultNotifiesComposedChildrenOnMatchChange(t *testing.T) {
	pn := newFakePathNode()
	d := NewDataResult(nil, pn, 7, 0, false)
	child := &fakeComposed{}
	d.AboutToAddActiveComposed(child)
	d.AddMatches([]int64{1, 2})
	if child.notified != 1 {
		t.Fatalf("expected one notification, got %d", child.notified)
	}
	if len(d.GetDominatedMatches()) != 2 {
		t.Fatalf("expected 2 dominated matches, got %v", d.GetDominatedMatches())
	}
}

func TestChainRefusesToReplaceNonReplaceableTerminalWhileActive(t *testing.T) {
	pn := newFakePathNode()
	d := NewDataResult(nil, pn, 7, 0, false)
	c := NewChain(d, nil)
	child := &fakeComposed{}
	c.AboutToAddActiveComposed(child)

	other := NewDataResult(nil, pn, 8, 0, true)
	if err := c.SetData(other); err == nil {
		t.Fatal("expected SetData to refuse replacing a non-replaceable active terminal source")
	}
}

func TestChainAllowsReplacingReplaceableTerminal(t *testing.T) {
	pn := newFakePathNode()
	d := NewDataResult(nil, pn, 7, 0, true)
	c := NewChain(d, nil)
	child := &fakeComposed{}
	c.AboutToAddActiveComposed(child)

	other := NewDataResult(nil, pn, 8, 0, true)
	if err := c.SetData(other); err != nil {
		t.Fatalf("expected SetData to succeed on a replaceable terminal, got %v", err)
	}
}
