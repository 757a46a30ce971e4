package identity

import "testing"

type fakeIdxIdentity struct {
	parents    map[int64]int64
	compressed map[int64]int64
	added      map[int64][]int64
	addedIdent map[int64][]int64
	removed    []int64
}

func newFakeIdxIdentity() *fakeIdxIdentity {
	return &fakeIdxIdentity{
		parents:    make(map[int64]int64),
		compressed: make(map[int64]int64),
		added:      make(map[int64][]int64),
		addedIdent: make(map[int64][]int64),
	}
}

func (f *fakeIdxIdentity) AddIdentities(ids []int64, identities []int64, identificationID int) {
	f.added[int64(identificationID)] = append(f.added[int64(identificationID)], ids...)
	f.addedIdent[int64(identificationID)] = append(f.addedIdent[int64(identificationID)], identities...)
}
func (f *fakeIdxIdentity) RemoveIdentities(ids []int64, identificationID int) {
	f.removed = append(f.removed, ids...)
}
func (f *fakeIdxIdentity) RemoveAllIdentities(identificationID int) {}
func (f *fakeIdxIdentity) GetCompressedValue(id int64) int64 { return f.compressed[id] }
func (f *fakeIdxIdentity) GetParentID(id int64) (int64, bool) {
	p, ok := f.parents[id]
	return p, ok
}
func (f *fakeIdxIdentity) NeedKeyUpdateForQuery(pathID int) bool { return false }

func TestFixedIdentityAssignsConstantOnce(t *testing.T) {
	idx := newFakeIdxIdentity()
	r := NewFixedIdentityResult(idx, 1, 10, 42, false)
	atPath := func(id int64) bool { return true }

	r.AddMatches([]int64{5}, atPath)
	if got := idx.addedIdent[1]; len(got) != 1 || got[0] != 42 {
		t.Fatalf("expected identity 42 assigned once, got %v", got)
	}
}

func TestRaisedIdentifiedRetractsOnlyOnFinalRemoval(t *testing.T) {
	idx := newFakeIdxIdentity()
	idx.parents[1] = 100
	idx.parents[2] = 100
	r := NewFixedIdentityResult(idx, 1, 10, 42, false)
	atPath := func(id int64) bool { return id == 100 }

	r.AddMatches([]int64{1, 2}, atPath)
	if len(idx.addedIdent[1]) != 1 {
		t.Fatalf("expected one identity assignment for raised id 100, got %v", idx.addedIdent[1])
	}

	r.RemoveMatches([]int64{1}, atPath)
	if len(idx.removed) != 0 {
		t.Fatalf("expected no retraction while one raw match remains, got %v", idx.removed)
	}

	r.RemoveMatches([]int64{2}, atPath)
	if len(idx.removed) != 1 || idx.removed[0] != 100 {
		t.Fatalf("expected retraction on final removal, got %v", idx.removed)
	}
}

func TestIdentifyAtIdentifiedPathOnlyRejectsNonExactRaise(t *testing.T) {
	idx := newFakeIdxIdentity()
	idx.parents[1] = 100
	r := NewFixedIdentityResult(idx, 1, 10, 42, true)
	atPath := func(id int64) bool { return id == 999 }

	r.AddMatches([]int64{1}, atPath)
	if len(idx.addedIdent[1]) != 0 {
		t.Fatalf("expected no identity assigned when raise never reaches identified path, got %v", idx.addedIdent[1])
	}
}

func TestCompressedIdentityUsesNegatedCompressedValue(t *testing.T) {
	idx := newFakeIdxIdentity()
	idx.compressed[5] = 7
	r := NewCompressedIdentityResult(idx, 1, 10, false, nil)
	atPath := func(id int64) bool { return true }

	r.AddMatches([]int64{5}, atPath)
	if got := idx.addedIdent[1]; len(got) != 1 || got[0] != -7 {
		t.Fatalf("expected negated compressed value -7, got %v", got)
	}
}
