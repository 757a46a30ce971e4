package querycalc

type fakeIndexer struct {
	values map[int]map[int64]interface{}
	subs   map[int][]Subscriber
}

func newFakeIndexer() *fakeIndexer {
	return &fakeIndexer{values: make(map[int]map[int64]interface{}), subs: make(map[int][]Subscriber)}
}

func (f *fakeIndexer) GetAllMatches(pathID int) []int64 {
	var ids []int64
	for id := range f.values[pathID] {
		ids = append(ids, id)
	}
	return ids
}

func (f *fakeIndexer) GetAllMatchesAsObj(pathID int) map[int64]interface{} {
	return f.values[pathID]
}

func (f *fakeIndexer) FilterDataNodesAtPath(pathID int, ids []int64) []int64 {
	present, _, _ := f.FilterDataNodesAtPathWithDiff(pathID, ids)
	return present
}

func (f *fakeIndexer) FilterDataNodesAtPathWithDiff(pathID int, ids []int64) (present, justAdded, justRemoved []int64) {
	vals := f.values[pathID]
	for _, id := range ids {
		if _, ok := vals[id]; ok {
			present = append(present, id)
		}
	}
	return present, nil, nil
}

func (f *fakeIndexer) AddQueryCalcToPathNode(pathID int, sub Subscriber) {
	f.subs[pathID] = append(f.subs[pathID], sub)
}

func (f *fakeIndexer) RemoveQueryCalcFromPathNode(pathID int, sub Subscriber) {}

func (f *fakeIndexer) RaiseToPath(id int64, pathID int) int64          { return id }
func (f *fakeIndexer) RaiseExactlyToPath(id int64, pathID int) (int64, bool) { return id, true }
func (f *fakeIndexer) GetParentID(id int64) (int64, bool)              { return 0, false }
func (f *fakeIndexer) HasEntry(id int64) bool                          { return true }
func (f *fakeIndexer) GetPathID(id int64) int                          { return 0 }

func (f *fakeIndexer) put(pathID int, id int64, v interface{}) {
	if f.values[pathID] == nil {
		f.values[pathID] = make(map[int64]interface{})
	}
	f.values[pathID][id] = v
	for _, sub := range f.subs[pathID] {
		sub.AddMatches([]int64{id}, nil)
	}
}

type fakeParent struct {
	added   []int64
	removed []int64
}

func (p *fakeParent) AddMatches(ids []int64, source Node)    { p.added = append(p.added, ids...) }
func (p *fakeParent) RemoveMatches(ids []int64, source Node) { p.removed = append(p.removed, ids...) }
