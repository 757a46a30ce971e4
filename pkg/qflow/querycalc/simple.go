package querycalc

// Predicate is a constant filter over a data element's pulled value —
// equality against a value, or range containment (spec.md §4.E
// "Simple: terminal, pulls values from its path and filters by a
// constant predicate").
type Predicate struct {
	// Equals, when non-nil, requires the pulled value equal this value.
	Equals interface{}
	// RangeLow/RangeHigh, when HasRange is true, require the pulled
	// value to fall within [RangeLow, RangeHigh].
	HasRange           bool
	RangeLow, RangeHigh float64
}

func (p Predicate) matches(v interface{}) bool {
	if p.HasRange {
		f, ok := v.(float64)
		if !ok {
			return false
		}
		return f >= p.RangeLow && f <= p.RangeHigh
	}
	if p.Equals != nil {
		return v == p.Equals
	}
	return true
}

// Simple is a terminal query-calc node that pulls values from its path
// and filters by Predicate (spec.md §4.E).
type Simple struct {
	base
	indexer   Indexer
	predicate Predicate
	doNotIndex bool
}

// NewSimple registers a new Simple node at pathID against idx.
func NewSimple(id int64, pathID int, idx Indexer, pred Predicate) *Simple {
	s := &Simple{base: newBase(id, pathID), indexer: idx, predicate: pred}
	idx.AddQueryCalcToPathNode(pathID, s)
	return s
}

func (s *Simple) IsSelection() bool { return true }
func (s *Simple) IsProjection() bool { return false }
func (s *Simple) DoNotIndex() bool  { return s.doNotIndex }

func (s *Simple) AddToMatchPoints(int)      {}
func (s *Simple) RemoveFromMatchPoints(int) {}
func (s *Simple) SetMatchPoints([]int)      {}
func (s *Simple) UpdateKeys()               {}

// AddMatches is called by the indexer when ids are added at pathID;
// only ids whose pulled value satisfies Predicate are kept as matches.
func (s *Simple) AddMatches(ids []int64, source Node) {
	values := s.indexer.GetAllMatchesAsObj(s.pathID)
	var kept []int64
	for _, id := range ids {
		if s.predicate.matches(values[id]) {
			kept = append(kept, id)
		}
	}
	added := s.addLocal(kept)
	s.emitAdd(added, s)
}

func (s *Simple) RemoveMatches(ids []int64, source Node) {
	removed := s.removeLocal(ids)
	s.emitRemove(removed, s)
}

func (s *Simple) RemoveAllIndexerMatches() {
	ids := s.clearLocal()
	s.emitRemove(ids, s)
}

func (s *Simple) RefreshQuery(cycle int) {
	if s.lastCycle == cycle {
		return
	}
	s.lastCycle = cycle
	present, added, removed := s.indexer.FilterDataNodesAtPathWithDiff(s.pathID, nil)
	_ = present
	if len(added) > 0 {
		s.AddMatches(added, s)
	}
	if len(removed) > 0 {
		s.RemoveMatches(removed, s)
	}
}
