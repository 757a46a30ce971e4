package querycalc

// Id is a terminal query-calc node that matches a caller-supplied set of
// element ids (spec.md §4.E "Id: terminal, matches a caller-supplied set
// of element ids"). It tracks `matches` (ids confirmed present in the
// indexer) separately from `otherQueryIds` (ids queried for but not
// currently present in the indexer).
type Id struct {
	base
	indexer       Indexer
	otherQueryIds map[int64]bool
}

// NewId creates an Id node against idx at pathID.
func NewId(id int64, pathID int, idx Indexer) *Id {
	n := &Id{base: newBase(id, pathID), indexer: idx, otherQueryIds: make(map[int64]bool)}
	idx.AddQueryCalcToPathNode(pathID, n)
	return n
}

func (n *Id) IsSelection() bool  { return true }
func (n *Id) IsProjection() bool { return false }
func (n *Id) DoNotIndex() bool   { return false }

func (n *Id) AddToMatchPoints(int)      {}
func (n *Id) RemoveFromMatchPoints(int) {}
func (n *Id) SetMatchPoints([]int)      {}
func (n *Id) UpdateKeys()               {}

// AddDataElements adds a caller-supplied set of ids to the query. Ids
// the indexer currently has at pathID become `matches` immediately; the
// rest are tracked in otherQueryIds until RefreshQuery validates them.
func (n *Id) AddDataElements(ids []int64) {
	present, _, _ := n.indexer.FilterDataNodesAtPathWithDiff(n.pathID, ids)
	presentSet := make(map[int64]bool, len(present))
	for _, id := range present {
		presentSet[id] = true
	}
	var toAdd []int64
	for _, id := range ids {
		if presentSet[id] {
			toAdd = append(toAdd, id)
		} else {
			n.otherQueryIds[id] = true
		}
	}
	added := n.addLocal(toAdd)
	n.emitAdd(added, n)
}

// RemoveDataElements drops ids from the query, whether they were
// confirmed matches or still-pending otherQueryIds.
func (n *Id) RemoveDataElements(ids []int64) {
	for _, id := range ids {
		delete(n.otherQueryIds, id)
	}
	removed := n.removeLocal(ids)
	n.emitRemove(removed, n)
}

// RefreshQuery diffs the queried ids against the indexer's current
// contents: pending ids now present are promoted into matches, and
// matches no longer present move back to otherQueryIds (spec.md §4.E "on refreshQuery, diffs
// against its current match set, validates against the indexer via
// filterDataNodesAtPathWithDiff, updates its parent with an add/remove
// match delta").
func (n *Id) RefreshQuery(cycle int) {
	if n.lastCycle == cycle {
		return
	}
	n.lastCycle = cycle

	if len(n.otherQueryIds) == 0 && len(n.matches) == 0 {
		return
	}
	pending := make([]int64, 0, len(n.otherQueryIds)+len(n.matches))
	for id := range n.otherQueryIds {
		pending = append(pending, id)
	}
	for id := range n.matches {
		pending = append(pending, id)
	}
	present, _, _ := n.indexer.FilterDataNodesAtPathWithDiff(n.pathID, pending)
	presentSet := make(map[int64]bool, len(present))
	for _, id := range present {
		presentSet[id] = true
	}
	var newlyPresent, gone []int64
	for _, id := range pending {
		if presentSet[id] && n.otherQueryIds[id] {
			delete(n.otherQueryIds, id)
			newlyPresent = append(newlyPresent, id)
		} else if !presentSet[id] && n.matches[id] {
			n.otherQueryIds[id] = true
			gone = append(gone, id)
		}
	}
	removed := n.removeLocal(gone)
	n.emitRemove(removed, n)
	added := n.addLocal(newlyPresent)
	n.emitAdd(added, n)
}

// AddMatches is called by the indexer when ids appear at pathID; only
// ids already queried for (pending in otherQueryIds) become matches.
func (n *Id) AddMatches(ids []int64, source Node) {
	var toAdd []int64
	for _, id := range ids {
		if n.otherQueryIds[id] {
			delete(n.otherQueryIds, id)
			toAdd = append(toAdd, id)
		}
	}
	added := n.addLocal(toAdd)
	n.emitAdd(added, n)
}

func (n *Id) RemoveMatches(ids []int64, source Node) {
	removed := n.removeLocal(ids)
	for _, id := range removed {
		n.otherQueryIds[id] = true
	}
	n.emitRemove(removed, n)
}

func (n *Id) RemoveAllIndexerMatches() {
	ids := n.clearLocal()
	n.emitRemove(ids, n)
}
