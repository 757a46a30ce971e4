package querycalc

// Projection is a non-terminal query-calc node that projects data at its
// path: its match set mirrors its selection child's, but it additionally
// exposes the projected path (MappedPathID) consumed by the root
// query-calc node's lowering logic (spec.md §4.E, §4.F).
type Projection struct {
	base
	selection    Node
	MappedPathID int
}

// NewProjection wraps selection as a Projection targeting mappedPathID.
func NewProjection(id int64, pathID int, selection Node, mappedPathID int) *Projection {
	n := &Projection{base: newBase(id, pathID), selection: selection, MappedPathID: mappedPathID}
	selection.SetMatchParent(n)
	return n
}

func (n *Projection) AddMatches(ids []int64, source Node) {
	added := n.addLocal(ids)
	n.emitAdd(added, n)
}

func (n *Projection) RemoveMatches(ids []int64, source Node) {
	removed := n.removeLocal(ids)
	n.emitRemove(removed, n)
}

func (n *Projection) RemoveAllIndexerMatches() {
	n.selection.RemoveAllIndexerMatches()
}

func (n *Projection) RefreshQuery(cycle int) {
	if n.lastCycle == cycle {
		return
	}
	n.lastCycle = cycle
	n.selection.RefreshQuery(cycle)
}

// True implements n(false): a query-calc node whose match set is always
// the full universe at its path (spec.md §4.E "True: implements n(false)").
type True struct {
	base
	indexer Indexer
}

// NewTrue creates a True node registered at pathID.
func NewTrue(id int64, pathID int, idx Indexer) *True {
	n := &True{base: newBase(id, pathID), indexer: idx}
	idx.AddQueryCalcToPathNode(pathID, n)
	for _, m := range idx.GetAllMatches(pathID) {
		n.matches[m] = true
	}
	return n
}

func (n *True) IsSelection() bool  { return true }
func (n *True) IsProjection() bool { return false }
func (n *True) DoNotIndex() bool   { return false }

func (n *True) AddToMatchPoints(int)      {}
func (n *True) RemoveFromMatchPoints(int) {}
func (n *True) SetMatchPoints([]int)      {}
func (n *True) UpdateKeys()               {}

func (n *True) AddMatches(ids []int64, source Node) {
	added := n.addLocal(ids)
	n.emitAdd(added, n)
}

func (n *True) RemoveMatches(ids []int64, source Node) {
	removed := n.removeLocal(ids)
	n.emitRemove(removed, n)
}

func (n *True) RemoveAllIndexerMatches() {
	ids := n.clearLocal()
	n.emitRemove(ids, n)
}

func (n *True) RefreshQuery(cycle int) {
	if n.lastCycle == cycle {
		return
	}
	n.lastCycle = cycle
}
