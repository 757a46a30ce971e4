// Package result implements the data-result / query-result composition
// chain (spec.md §4.G): a result is either a terminal data result, a
// query result wrapping a root query-calc node, or an identity result
// (package identity). Results chain through a single data source (two
// for identity) and propagate active-reference counts upward so a pure
// data result only registers with its indexer while it is actually
// demanded downstream.
package result

// Source is the contract every result exposes to whatever composes on
// top of it (spec.md §4.G "the downstream contract used by queries
// composed with this result").
type Source interface {
	GetDominatedIndexer() Indexer
	GetDominatedProjPathID() int
	GetDominatedMatches() []int64
	GetDominatedMatchesAsObj() map[int64]interface{}
	FilterDominatedMatches(ids []int64) []int64
	FilterDominatedMatchesPositions(ids []int64) map[int64]int

	// IsMatchTransparent reports whether this result's dominated matches
	// equal its content data's (e.g. an identity result is transparent:
	// it adds identity without changing which elements match).
	IsMatchTransparent() bool

	// IsReplaceableTerminalResult reports whether SetData may replace
	// this result as another's data source.
	IsReplaceableTerminalResult() bool

	AboutToAddActiveComposed(child Composed)
	ActiveComposedFuncRemoved(child Composed)
}

// Composed is a downstream consumer of a Source: anything that can be
// registered as an "active composed" child for reference counting.
type Composed interface {
	SourceChanged(src Source)
}

// Indexer is the minimal indexer surface a result needs beyond the
// querycalc.Indexer subset: order-star registration.
type Indexer interface {
	AddOrderStarFuncAtPath(pathID int, fn OrderStarFunc)
	RemoveOrderStarFuncAtPath(pathID int, fn OrderStarFunc)
}

// OrderStarFunc is a comparison function an indexer uses to produce
// ordered output at a path; composed order-star interest propagates
// down through the result chain so merge indexers can demand ordered
// output from their sources (spec.md §4.G "Order-star propagation").
type OrderStarFunc func(a, b int64) int

// base implements the active-reference counting and composed-child
// bookkeeping shared by every result variant.
type base struct {
	activeComposed map[Composed]bool
	orderStars     map[Composed]OrderStarFunc
}

func newBase() base {
	return base{activeComposed: make(map[Composed]bool), orderStars: make(map[Composed]OrderStarFunc)}
}

// IsActive reports whether at least one active composed result
// descends from this result (spec.md §4.G "active*").
func (b *base) IsActive() bool {
	return len(b.activeComposed) > 0
}

func (b *base) AboutToAddActiveComposed(child Composed) {
	b.activeComposed[child] = true
}

func (b *base) ActiveComposedFuncRemoved(child Composed) {
	delete(b.activeComposed, child)
}

// PropagateOrderStar registers fn as child's order-star interest and
// reports whether this is the first registration (so the caller can, in
// turn, propagate the demand to its own data source).
func (b *base) PropagateOrderStar(child Composed, fn OrderStarFunc) (first bool) {
	first = len(b.orderStars) == 0
	b.orderStars[child] = fn
	return first
}

// WithdrawOrderStar removes child's order-star interest, reporting
// whether no interest remains.
func (b *base) WithdrawOrderStar(child Composed) (empty bool) {
	delete(b.orderStars, child)
	return len(b.orderStars) == 0
}
