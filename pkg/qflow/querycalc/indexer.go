// Package querycalc implements the query-calculation tree (spec.md §3,
// §4.E): the runtime tree mirroring a compiled query's structure,
// attached to indexer path nodes, propagating matches incrementally.
package querycalc

// Subscriber is the contract a query-calc node exposes to the indexer
// path node it is registered against (spec.md §6 "self supplying
// isSelection(), isProjection(), pathId, doNotIndex, addMatches,
// removeMatches, removeAllIndexerMatches, addToMatchPoints,
// removeFromMatchPoints, setMatchPoints, updateKeys").
type Subscriber interface {
	IsSelection() bool
	IsProjection() bool
	PathID() int
	DoNotIndex() bool

	AddMatches(ids []int64, source Node)
	RemoveMatches(ids []int64, source Node)
	RemoveAllIndexerMatches()

	AddToMatchPoints(pathID int)
	RemoveFromMatchPoints(pathID int)
	SetMatchPoints(pathIDs []int)
	UpdateKeys()
}

// Indexer is the slice of the external indexer's API (spec.md §6
// "Indexer API (consumed)") that query-calc nodes call directly.
type Indexer interface {
	GetAllMatches(pathID int) []int64
	GetAllMatchesAsObj(pathID int) map[int64]interface{}
	FilterDataNodesAtPath(pathID int, ids []int64) []int64
	FilterDataNodesAtPathWithDiff(pathID int, ids []int64) (present, justAdded, justRemoved []int64)

	AddQueryCalcToPathNode(pathID int, sub Subscriber)
	RemoveQueryCalcFromPathNode(pathID int, sub Subscriber)

	RaiseToPath(id int64, pathID int) int64
	RaiseExactlyToPath(id int64, pathID int) (int64, bool)
	GetParentID(id int64) (int64, bool)
	HasEntry(id int64) bool
	GetPathID(id int64) int
}

// Node is the interface every query-calculation tree variant implements
// (spec.md §4.E). Every node has an id, a MatchParent it reports to, and
// participates in the cycle-numbered refresh contract.
type Node interface {
	ID() int64
	MatchParent() MatchParent
	SetMatchParent(MatchParent)
	PathID() int

	// RefreshQuery re-pulls additions since the node's cached cycle
	// number and re-emits them to its match parent (spec.md §4.E
	// "Refresh contract").
	RefreshQuery(cycle int)

	// AddMatches/RemoveMatches are called by the indexer (for terminal
	// nodes) or by a child node (for non-terminal nodes) when ids are
	// added/removed at the registered path.
	AddMatches(ids []int64, source Node)
	RemoveMatches(ids []int64, source Node)
	RemoveAllIndexerMatches()

	// CurrentMatches returns the node's current match set.
	CurrentMatches() map[int64]bool
}

// MatchParent receives match deltas from a query-calc node: either the
// RootQueryCalcNode or another internal (Intersection/Union/Negation)
// node (spec.md §4.F).
type MatchParent interface {
	AddMatches(ids []int64, source Node)
	RemoveMatches(ids []int64, source Node)
}
