package result

// DataResult is a terminal result backed directly by an indexer path:
// an indexer, a path id, an identification id, and whether it may be
// replaced as another result's data source (spec.md §4.G "terminal
// data (indexer + path + identification id + replaceable flag)").
type DataResult struct {
	base
	indexer         Indexer
	pathID          int
	identificationID int
	replaceable     bool
	matches         map[int64]bool
	registered      bool

	pathNode pathNodeView
}

// pathNodeView is the slice of the indexer's path-node registration API
// a pure data result needs: it registers when its first non-query active
// composed child is added, and unregisters once it has no active
// composed child at all (spec.md §4.G).
type pathNodeView interface {
	RegisterDataResult(pathID int, r *DataResult)
	UnregisterDataResult(pathID int, r *DataResult)
	AllMatches(pathID int) []int64
	AllMatchesAsObj(pathID int) map[int64]interface{}
}

// NewDataResult creates a detached (unregistered) DataResult; it
// registers with pathNode lazily, once a non-query active composed
// child is added.
func NewDataResult(idx Indexer, pn pathNodeView, pathID, identificationID int, replaceable bool) *DataResult {
	return &DataResult{
		base:             newBase(),
		indexer:          idx,
		pathNode:         pn,
		pathID:           pathID,
		identificationID: identificationID,
		replaceable:      replaceable,
		matches:          make(map[int64]bool),
	}
}

func (d *DataResult) GetDominatedIndexer() Indexer   { return d.indexer }
func (d *DataResult) GetDominatedProjPathID() int    { return d.pathID }
func (d *DataResult) IsMatchTransparent() bool       { return true }
func (d *DataResult) IsReplaceableTerminalResult() bool { return d.replaceable }

func (d *DataResult) GetDominatedMatches() []int64 {
	if d.registered {
		out := make([]int64, 0, len(d.matches))
		for id := range d.matches {
			out = append(out, id)
		}
		return out
	}
	return d.pathNode.AllMatches(d.pathID)
}

func (d *DataResult) GetDominatedMatchesAsObj() map[int64]interface{} {
	return d.pathNode.AllMatchesAsObj(d.pathID)
}

func (d *DataResult) FilterDominatedMatches(ids []int64) []int64 {
	all := d.GetDominatedMatchesAsObj()
	var out []int64
	for _, id := range ids {
		if _, ok := all[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

func (d *DataResult) FilterDominatedMatchesPositions(ids []int64) map[int64]int {
	all := d.GetDominatedMatchesAsObj()
	out := make(map[int64]int)
	for pos, id := range ids {
		if _, ok := all[id]; ok {
			out[id] = pos
		}
	}
	return out
}

// isQuery reports whether a Composed child is itself query-backed
// (queries register directly to the indexer and do not require this
// result to mirror registration).
type isQuery interface {
	IsQueryComposed() bool
}

func (d *DataResult) AboutToAddActiveComposed(child Composed) {
	d.base.AboutToAddActiveComposed(child)
	if q, ok := child.(isQuery); ok && q.IsQueryComposed() {
		return
	}
	if !d.registered {
		d.pathNode.RegisterDataResult(d.pathID, d)
		d.registered = true
	}
}

func (d *DataResult) ActiveComposedFuncRemoved(child Composed) {
	d.base.ActiveComposedFuncRemoved(child)
	if d.IsActive() {
		return
	}
	if d.registered {
		d.pathNode.UnregisterDataResult(d.pathID, d)
		d.registered = false
	}
}

// AddMatches/RemoveMatches are invoked by the indexer when this
// result's registration is active.
func (d *DataResult) AddMatches(ids []int64) {
	for _, id := range ids {
		d.matches[id] = true
	}
	for c := range d.activeComposed {
		c.SourceChanged(d)
	}
}

func (d *DataResult) RemoveMatches(ids []int64) {
	for _, id := range ids {
		delete(d.matches, id)
	}
	for c := range d.activeComposed {
		c.SourceChanged(d)
	}
}

func (d *DataResult) RemoveAllMatches() {
	d.matches = make(map[int64]bool)
	for c := range d.activeComposed {
		c.SourceChanged(d)
	}
}
