package querycalc

import "testing"

type fakeResult struct {
	added   []int64
	removed []int64
}

func (r *fakeResult) AddMatches(ids []int64, source Node)    { r.added = append(r.added, ids...) }
func (r *fakeResult) RemoveMatches(ids []int64, source Node) { r.removed = append(r.removed, ids...) }
func (r *fakeResult) NotifyGeneratingProjsChanged(added, removed []GeneratingProj) {}

func TestRootRaisesAndEmitsOnce(t *testing.T) {
	idx := newFakeIndexer()
	idx.put(10, 1, "a")
	top := NewId(1, 10, idx)
	root := NewRootQueryCalcNode(idx, 5)
	res := &fakeResult{}
	root.RegisterResult(res)

	root.AssignQueryCalc(top, false, nil)
	top.AddDataElements([]int64{1})

	if len(res.added) != 1 || res.added[0] != 1 {
		t.Fatalf("expected root to raise and emit id 1 once, got %v", res.added)
	}
}

func TestRootRemoveOnlyAfterLastRaisedReferenceDrops(t *testing.T) {
	idx := newFakeIndexer()
	idx.put(10, 1, "a")
	idx.put(10, 2, "a")
	top := NewId(1, 10, idx)
	root := NewRootQueryCalcNode(idx, 5)
	res := &fakeResult{}
	root.RegisterResult(res)
	root.AssignQueryCalc(top, false, nil)

	top.AddDataElements([]int64{1, 2})
	root.RemoveMatches([]int64{1}, top)
	if len(res.removed) != 1 {
		t.Fatalf("expected one remove emitted, got %v", res.removed)
	}
}

func TestRootQueueDefersEmissionUntilFlush(t *testing.T) {
	idx := newFakeIndexer()
	idx.put(10, 1, "a")
	top := NewId(1, 10, idx)
	root := NewRootQueryCalcNode(idx, 5)
	res := &fakeResult{}
	root.RegisterResult(res)
	root.AssignQueryCalc(top, false, nil)

	root.Queue()
	top.AddDataElements([]int64{1})
	if len(res.added) != 0 {
		t.Fatalf("expected no emission while queued, got %v", res.added)
	}
	root.Flush()
	if len(res.added) != 1 || res.added[0] != 1 {
		t.Fatalf("expected flush to emit the accumulated match, got %v", res.added)
	}
}
