package querycalc

// Intersection is a non-terminal query-calc node whose match set is the
// intersection of its sub-nodes' match sets (spec.md §4.E).
type Intersection struct {
	base
	children []Node
	// counts[id] is the number of children currently matching id; id is
	// a match of the Intersection once counts[id] == len(children).
	counts map[int64]int
}

// NewIntersection creates an Intersection over children, each of which
// has its MatchParent set to the new node.
func NewIntersection(id int64, pathID int, children []Node) *Intersection {
	n := &Intersection{base: newBase(id, pathID), children: children, counts: make(map[int64]int)}
	for _, c := range children {
		c.SetMatchParent(n)
	}
	return n
}

func (n *Intersection) AddMatches(ids []int64, source Node) {
	var toEmit []int64
	for _, id := range ids {
		n.counts[id]++
		if n.counts[id] == len(n.children) {
			n.matches[id] = true
			toEmit = append(toEmit, id)
		}
	}
	n.emitAdd(toEmit, n)
}

func (n *Intersection) RemoveMatches(ids []int64, source Node) {
	var toEmit []int64
	for _, id := range ids {
		if n.counts[id] == 0 {
			continue
		}
		wasFull := n.counts[id] == len(n.children)
		n.counts[id]--
		if n.counts[id] == 0 {
			delete(n.counts, id)
		}
		if wasFull && n.matches[id] {
			delete(n.matches, id)
			toEmit = append(toEmit, id)
		}
	}
	n.emitRemove(toEmit, n)
}

func (n *Intersection) RemoveAllIndexerMatches() {
	for _, c := range n.children {
		c.RemoveAllIndexerMatches()
	}
}

func (n *Intersection) RefreshQuery(cycle int) {
	if n.lastCycle == cycle {
		return
	}
	n.lastCycle = cycle
	for _, c := range n.children {
		c.RefreshQuery(cycle)
	}
}

// Union is a non-terminal query-calc node whose match set is the union
// of its sub-nodes' match sets.
type Union struct {
	base
	children []Node
	counts   map[int64]int
}

func NewUnion(id int64, pathID int, children []Node) *Union {
	n := &Union{base: newBase(id, pathID), children: children, counts: make(map[int64]int)}
	for _, c := range children {
		c.SetMatchParent(n)
	}
	return n
}

func (n *Union) AddMatches(ids []int64, source Node) {
	var toEmit []int64
	for _, id := range ids {
		first := n.counts[id] == 0
		n.counts[id]++
		if first {
			n.matches[id] = true
			toEmit = append(toEmit, id)
		}
	}
	n.emitAdd(toEmit, n)
}

func (n *Union) RemoveMatches(ids []int64, source Node) {
	var toEmit []int64
	for _, id := range ids {
		if n.counts[id] == 0 {
			continue
		}
		n.counts[id]--
		if n.counts[id] == 0 {
			delete(n.counts, id)
			delete(n.matches, id)
			toEmit = append(toEmit, id)
		}
	}
	n.emitRemove(toEmit, n)
}

func (n *Union) RemoveAllIndexerMatches() {
	for _, c := range n.children {
		c.RemoveAllIndexerMatches()
	}
}

func (n *Union) RefreshQuery(cycle int) {
	if n.lastCycle == cycle {
		return
	}
	n.lastCycle = cycle
	for _, c := range n.children {
		c.RefreshQuery(cycle)
	}
}

// Negation is a non-terminal query-calc node that matches every id in
// universe not matched by its single sub-node.
type Negation struct {
	base
	child    Node
	universe Indexer
}

// NewNegation creates a Negation of child, pulling its universe (every
// element at pathID) from universe.
func NewNegation(id int64, pathID int, child Node, universe Indexer) *Negation {
	n := &Negation{base: newBase(id, pathID), child: child, universe: universe}
	child.SetMatchParent(n)
	for _, u := range universe.GetAllMatches(pathID) {
		n.matches[u] = true
	}
	for m := range child.CurrentMatches() {
		delete(n.matches, m)
	}
	return n
}

func (n *Negation) AddMatches(ids []int64, source Node) {
	// ids now match the child, so they are removed from the negation.
	removed := n.removeLocal(ids)
	n.emitRemove(removed, n)
}

func (n *Negation) RemoveMatches(ids []int64, source Node) {
	// ids no longer match the child; any still in the universe return.
	universe := make(map[int64]bool)
	for _, u := range n.universe.GetAllMatches(n.pathID) {
		universe[u] = true
	}
	var toAdd []int64
	for _, id := range ids {
		if universe[id] {
			toAdd = append(toAdd, id)
		}
	}
	added := n.addLocal(toAdd)
	n.emitAdd(added, n)
}

func (n *Negation) RemoveAllIndexerMatches() {
	n.child.RemoveAllIndexerMatches()
	ids := n.clearLocal()
	n.emitRemove(ids, n)
}

func (n *Negation) RefreshQuery(cycle int) {
	if n.lastCycle == cycle {
		return
	}
	n.lastCycle = cycle
	n.child.RefreshQuery(cycle)
}
