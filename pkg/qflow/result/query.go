package result

import "github.com/qflowdev/qflow/pkg/qflow/querycalc"

// QueryResult wraps a root query-calc node, exposing it as a Source so
// it can compose with further results up the chain (spec.md §4.G "a
// query result (wraps a root query-calc node)").
type QueryResult struct {
	base
	root   *querycalc.RootQueryCalcNode
	idx    Indexer
	pathID int
	matches map[int64]bool
}

// NewQueryResult wraps root, whose emitted (raised) matches live at
// pathID against idx.
func NewQueryResult(root *querycalc.RootQueryCalcNode, idx Indexer, pathID int) *QueryResult {
	return &QueryResult{base: newBase(), root: root, idx: idx, pathID: pathID, matches: make(map[int64]bool)}
}

// IsQueryComposed marks this result as query-backed so a DataResult
// data source does not double-register with the indexer on its behalf.
func (q *QueryResult) IsQueryComposed() bool { return true }

func (q *QueryResult) GetDominatedIndexer() Indexer { return q.idx }
func (q *QueryResult) GetDominatedProjPathID() int  { return q.pathID }
func (q *QueryResult) IsMatchTransparent() bool     { return false }
func (q *QueryResult) IsReplaceableTerminalResult() bool { return false }

func (q *QueryResult) GetDominatedMatches() []int64 {
	out := make([]int64, 0, len(q.matches))
	for id := range q.matches {
		out = append(out, id)
	}
	return out
}

func (q *QueryResult) GetDominatedMatchesAsObj() map[int64]interface{} {
	out := make(map[int64]interface{}, len(q.matches))
	for id := range q.matches {
		out[id] = struct{}{}
	}
	return out
}

func (q *QueryResult) FilterDominatedMatches(ids []int64) []int64 {
	var out []int64
	for _, id := range ids {
		if q.matches[id] {
			out = append(out, id)
		}
	}
	return out
}

func (q *QueryResult) FilterDominatedMatchesPositions(ids []int64) map[int64]int {
	out := make(map[int64]int)
	for pos, id := range ids {
		if q.matches[id] {
			out[id] = pos
		}
	}
	return out
}

// AddMatches/RemoveMatches implement querycalc.ResultNode, letting this
// result register directly on the root query-calc node.
func (q *QueryResult) AddMatches(ids []int64, source querycalc.Node) {
	for _, id := range ids {
		q.matches[id] = true
	}
	for c := range q.activeComposed {
		c.SourceChanged(q)
	}
}

func (q *QueryResult) RemoveMatches(ids []int64, source querycalc.Node) {
	for _, id := range ids {
		delete(q.matches, id)
	}
	for c := range q.activeComposed {
		c.SourceChanged(q)
	}
}

func (q *QueryResult) NotifyGeneratingProjsChanged(added, removed []querycalc.GeneratingProj) {
	for c := range q.activeComposed {
		c.SourceChanged(q)
	}
}
