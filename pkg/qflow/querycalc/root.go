package querycalc

// ResultNode is the contract a result node exposes to a RootQueryCalcNode
// (spec.md §4.F "Mediate addMatches/removeMatches between the top query-
// calc node and N registered result nodes").
type ResultNode interface {
	AddMatches(ids []int64, source Node)
	RemoveMatches(ids []int64, source Node)
	NotifyGeneratingProjsChanged(added, removed []GeneratingProj)
}

// GeneratingProj is one entry of spec.md §3's "Generating projection
// entry": a node in the query-calc tree that will emit into the merge
// indexer, with the path mapping it performs.
type GeneratingProj struct {
	QueryCalc     Node
	PathID        int
	Parent        int64
	ParentAttr    string
	MappedPathID  int
	Children      map[int64]bool
	Selections    map[int64]bool
}

// state is the root node's attachment state machine (spec.md §4.F
// "State machine").
type state int

const (
	stateDetached state = iota
	stateSelection
	stateProjectionSingle
	stateMultiProjection
)

// RootQueryCalcNode mediates between N result nodes and one top
// query-calc node, performing match raising/lowering and tracking
// generating projections (spec.md §4.F).
type RootQueryCalcNode struct {
	indexer         Indexer
	prefixProjPathID int
	top             Node
	results         []ResultNode
	st              state

	// raisedMatches: elementId -> count of raw matches currently raised
	// to that id (spec.md §4.F "Raising").
	raisedMatches map[int64]int

	// lowerMatchPoints are the registered lower match-point paths used
	// for projection-match lowering.
	lowerMatchPoints []int

	generatingProjs map[int64]GeneratingProj

	// suspendedRaisedMatches snapshots raisedMatches during a structural
	// refresh so late removal updates from the old structure still
	// resolve correctly (spec.md §4.F "Suspended raise table").
	suspendedRaisedMatches map[int64]int
	refreshing             bool

	queued       bool
	queuedAdd    map[int64]bool
}

// NewRootQueryCalcNode creates a detached root node against idx, scoped
// to the projection prefix path id.
func NewRootQueryCalcNode(idx Indexer, prefixProjPathID int) *RootQueryCalcNode {
	return &RootQueryCalcNode{
		indexer:          idx,
		prefixProjPathID: prefixProjPathID,
		raisedMatches:    make(map[int64]int),
		generatingProjs:  make(map[int64]GeneratingProj),
	}
}

// RegisterResult attaches a result node to this root node.
func (r *RootQueryCalcNode) RegisterResult(res ResultNode) {
	r.results = append(r.results, res)
}

// IsProjection reports whether the currently-attached top node is a
// projection (stateProjectionSingle or stateMultiProjection).
func (r *RootQueryCalcNode) IsProjection() bool {
	return r.st == stateProjectionSingle || r.st == stateMultiProjection
}

// AssignQueryCalc detaches any previously-assigned top node (clearing
// matches via RemoveAllIndexerMatches when it was a selection), assigns
// newTop, and reinitialises matching by copying its current match set
// and becoming its MatchParent (spec.md §4.F "Transitions").
func (r *RootQueryCalcNode) AssignQueryCalc(newTop Node, isProjection bool, lowerMatchPoints []int) {
	if r.top != nil && r.st == stateSelection {
		r.top.RemoveAllIndexerMatches()
	}
	r.top = newTop
	r.lowerMatchPoints = lowerMatchPoints
	if newTop == nil {
		r.st = stateDetached
		return
	}
	if isProjection {
		r.st = stateProjectionSingle
	} else {
		r.st = stateSelection
	}
	newTop.SetMatchParent(r)

	for id := range newTop.CurrentMatches() {
		r.AddMatches([]int64{id}, newTop)
	}
}

// AddMatches is called by the top query-calc node (source == r.top) when
// ids are added. Every incoming id is raised to the prefix path; the
// first arrival at a raised id emits an add to result nodes, subsequent
// arrivals only increment the count (spec.md §4.F "Raising").
func (r *RootQueryCalcNode) AddMatches(ids []int64, source Node) {
	var toEmit []int64
	for _, id := range ids {
		raised := r.indexer.RaiseToPath(id, r.prefixProjPathID)
		first := r.raisedMatches[raised] == 0
		r.raisedMatches[raised]++
		if first {
			toEmit = append(toEmit, raised)
		}
	}
	r.emit(toEmit, true)
}

// RemoveMatches is the symmetric operation to AddMatches: removal is
// only emitted once a raised id's count returns to zero.
func (r *RootQueryCalcNode) RemoveMatches(ids []int64, source Node) {
	var toEmit []int64
	for _, id := range ids {
		raised := r.indexer.RaiseToPath(id, r.prefixProjPathID)
		count, ok := r.raisedMatches[raised]
		if !ok || count == 0 {
			if r.refreshing {
				count = r.suspendedRaisedMatches[raised]
			} else {
				continue
			}
		}
		count--
		if count <= 0 {
			delete(r.raisedMatches, raised)
			toEmit = append(toEmit, raised)
		} else {
			r.raisedMatches[raised] = count
		}
	}
	r.emit(toEmit, false)
}

func (r *RootQueryCalcNode) emit(ids []int64, add bool) {
	if len(ids) == 0 {
		return
	}
	if r.queued {
		if add {
			for _, id := range ids {
				r.queuedAdd[id] = true
			}
		} else {
			for _, id := range ids {
				delete(r.queuedAdd, id)
			}
		}
		return
	}
	for _, res := range r.results {
		if add {
			res.AddMatches(ids, nil)
		} else {
			res.RemoveMatches(ids, nil)
		}
	}
}

// Queue suspends incremental emission to result nodes; incoming updates
// accumulate until Flush is called (spec.md §4.F "Queued all-match
// updates: when a result node is queued, incremental updates bypass it;
// at refresh end the full match set is pushed in one call").
func (r *RootQueryCalcNode) Queue() {
	r.queued = true
	r.queuedAdd = make(map[int64]bool)
}

// Flush pushes the accumulated full match set to result nodes in one call.
func (r *RootQueryCalcNode) Flush() {
	r.queued = false
	var ids []int64
	for id := range r.raisedMatches {
		ids = append(ids, id)
	}
	for _, res := range r.results {
		res.AddMatches(ids, nil)
	}
	r.queuedAdd = nil
}

// LowerSelectionMatches lowers a result's selection match set to every
// registered lower match point, returning the union of lowered sets —
// the projection-match input to the top query-calc node
// (spec.md §4.F "Lowering").
func (r *RootQueryCalcNode) LowerSelectionMatches(selectionMatches []int64) []int64 {
	seen := make(map[int64]bool)
	var out []int64
	for _, mp := range r.lowerMatchPoints {
		for _, id := range selectionMatches {
			lowered := r.lowerOne(id, mp)
			for _, l := range lowered {
				if !seen[l] {
					seen[l] = true
					out = append(out, l)
				}
			}
		}
	}
	if len(r.lowerMatchPoints) == 0 {
		return selectionMatches
	}
	return out
}

// lowerOne expands id to its descendants living at lowerPath. The
// reference indexer used by the in-memory implementation resolves this
// via GetAllMatches at lowerPath filtered by ancestry; the production
// contract is spec.md §4.A "lowerToProjMatchPoints".
func (r *RootQueryCalcNode) lowerOne(id int64, lowerPath int) []int64 {
	candidates := r.indexer.GetAllMatches(lowerPath)
	var out []int64
	for _, c := range candidates {
		cur := c
		for {
			if cur == id {
				out = append(out, c)
				break
			}
			parent, ok := r.indexer.GetParentID(cur)
			if !ok {
				break
			}
			cur = parent
		}
	}
	return out
}

// BeginRefresh snapshots raisedMatches before a structural refresh so
// late-arriving removals from the old query structure still resolve.
func (r *RootQueryCalcNode) BeginRefresh() {
	r.refreshing = true
	r.suspendedRaisedMatches = make(map[int64]int, len(r.raisedMatches))
	for k, v := range r.raisedMatches {
		r.suspendedRaisedMatches[k] = v
	}
}

// EndRefresh clears the suspended snapshot.
func (r *RootQueryCalcNode) EndRefresh() {
	r.refreshing = false
	r.suspendedRaisedMatches = nil
}

// NotifyModifiedGeneratingProjs diffs the previous generatingProjs set
// against current and notifies result nodes of additions/removals
// (spec.md §4.F "On structural refresh, diff against the previous set
// and notify result nodes of changes").
func (r *RootQueryCalcNode) NotifyModifiedGeneratingProjs(current map[int64]GeneratingProj) {
	var added, removed []GeneratingProj
	for id, gp := range current {
		if _, ok := r.generatingProjs[id]; !ok {
			added = append(added, gp)
		}
	}
	for id, gp := range r.generatingProjs {
		if _, ok := current[id]; !ok {
			removed = append(removed, gp)
		}
	}
	r.generatingProjs = current
	if len(current) > 1 {
		r.st = stateMultiProjection
	} else if len(current) == 1 && r.st == stateProjectionSingle {
		r.st = stateProjectionSingle
	}
	if len(added) == 0 && len(removed) == 0 {
		return
	}
	for _, res := range r.results {
		res.NotifyGeneratingProjsChanged(added, removed)
	}
}

// RefreshQuery runs the cycle-numbered refresh contract across the top
// node, wrapped in a suspended-raise snapshot (spec.md §4.E "Refresh
// contract", §4.F "Suspended raise table").
func (r *RootQueryCalcNode) RefreshQuery(cycle int) {
	if r.top == nil {
		return
	}
	r.BeginRefresh()
	r.top.RefreshQuery(cycle)
	r.NotifyModifiedGeneratingProjs(r.generatingProjs)
	r.EndRefresh()
}
