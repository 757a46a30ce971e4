// Package identity implements the identity result and its monitor
// (spec.md §4.H): attaching identities to target data elements, either
// as a compile-time constant (fixed identity) or computed from another
// match set's values (compressed identity), with raising support for
// matches below the identified path.
package identity

// Indexer is the slice of the external indexer an identity result and
// its monitor need.
type Indexer interface {
	AddIdentities(ids []int64, identities []int64, identificationID int)
	RemoveIdentities(ids []int64, identificationID int)
	RemoveAllIdentities(identificationID int)
	GetCompressedValue(id int64) int64
	GetParentID(id int64) (int64, bool)
	NeedKeyUpdateForQuery(pathID int) bool
}

// KeySubscriber is implemented by whatever notifies a Monitor of key
// changes on the identification path (spec.md §4.H "The monitor
// subscribes to key updates on the identification path").
type KeySubscriber interface {
	Subscribe(pathID int, m *Monitor)
	Unsubscribe(pathID int, m *Monitor)
}

// Mode distinguishes fixed identity (a compile-time constant) from
// compressed identity (computed per match from the indexer).
type Mode int

const (
	ModeFixed Mode = iota
	ModeCompressed
)

// Result attaches identities to the data elements matched by its
// "identified" data source, using the "identification" data source's
// values to compute compressed identity when Mode is ModeCompressed
// (spec.md §4.H "Two data sources: identified ... identification").
type Result struct {
	idx               Indexer
	identificationID  int
	identifiedPathID  int
	mode              Mode
	fixedIdentity     int64

	identifyAtIdentifiedPathOnly bool

	// raisedIdentified counts, per raised-to-identified-path id, how
	// many raw sub-path matches currently contribute to it; the
	// identity is retracted only once the count returns to zero
	// (spec.md §4.H "raisedIdentified counts multi-raising so the
	// identity is retracted only on the final removal").
	raisedIdentified map[int64]int

	monitor *Monitor
}

// NewFixedIdentityResult creates a Result whose every matched id
// receives the constant identity.
func NewFixedIdentityResult(idx Indexer, identificationID, identifiedPathID int, identity int64, identifyAtIdentifiedPathOnly bool) *Result {
	return &Result{
		idx: idx, identificationID: identificationID, identifiedPathID: identifiedPathID,
		mode: ModeFixed, fixedIdentity: identity,
		identifyAtIdentifiedPathOnly: identifyAtIdentifiedPathOnly,
		raisedIdentified:             make(map[int64]int),
	}
}

// NewCompressedIdentityResult creates a Result that computes each
// match's identity from the indexer's compressed value of its
// identification-path value, negated to avoid collision with element-id
// identities (spec.md §4.H "the negated compressed value ... is used").
func NewCompressedIdentityResult(idx Indexer, identificationID, identifiedPathID int, identifyAtIdentifiedPathOnly bool, keys KeySubscriber) *Result {
	r := &Result{
		idx: idx, identificationID: identificationID, identifiedPathID: identifiedPathID,
		mode: ModeCompressed,
		identifyAtIdentifiedPathOnly: identifyAtIdentifiedPathOnly,
		raisedIdentified:             make(map[int64]int),
	}
	r.monitor = NewMonitor(idx, r, keys, identificationID)
	return r
}

func compressedIdentityFor(idx Indexer, id int64) int64 {
	return -idx.GetCompressedValue(id)
}

// raiseToIdentifiedPath walks id up the parent chain until it reaches
// identifiedPathID's element, returning (raisedID, ok). ok is false
// when identifyAtIdentifiedPathOnly is set and the walk does not land
// exactly at the identified path (spec.md §4.H).
func (r *Result) raiseToIdentifiedPath(id int64, atPath func(int64) bool) (int64, bool) {
	cur := id
	for {
		if atPath(cur) {
			return cur, true
		}
		parent, ok := r.idx.GetParentID(cur)
		if !ok {
			if r.identifyAtIdentifiedPathOnly {
				return 0, false
			}
			return cur, true
		}
		cur = parent
	}
}

// AddMatches identifies newly-matched ids, raising each to the
// identified path first and assigning identity only once per raised id
// (tracked via raisedIdentified), per spec.md §4.H.
func (r *Result) AddMatches(ids []int64, atIdentifiedPath func(int64) bool) {
	var toIdentify []int64
	var identities []int64
	for _, id := range ids {
		raised, ok := r.raiseToIdentifiedPath(id, atIdentifiedPath)
		if !ok {
			continue
		}
		first := r.raisedIdentified[raised] == 0
		r.raisedIdentified[raised]++
		if first {
			toIdentify = append(toIdentify, raised)
			identities = append(identities, r.identityFor(raised))
		}
	}
	if len(toIdentify) > 0 {
		r.idx.AddIdentities(toIdentify, identities, r.identificationID)
	}
}

// RemoveMatches is the symmetric operation: identity is retracted only
// on the final removal of a raised id's outstanding references.
func (r *Result) RemoveMatches(ids []int64, atIdentifiedPath func(int64) bool) {
	var toRemove []int64
	for _, id := range ids {
		raised, ok := r.raiseToIdentifiedPath(id, atIdentifiedPath)
		if !ok {
			continue
		}
		count := r.raisedIdentified[raised]
		if count == 0 {
			continue
		}
		count--
		if count <= 0 {
			delete(r.raisedIdentified, raised)
			toRemove = append(toRemove, raised)
		} else {
			r.raisedIdentified[raised] = count
		}
	}
	if len(toRemove) > 0 {
		r.idx.RemoveIdentities(toRemove, r.identificationID)
	}
}

func (r *Result) identityFor(id int64) int64 {
	if r.mode == ModeFixed {
		return r.fixedIdentity
	}
	return compressedIdentityFor(r.idx, id)
}

// UpdateCompressedValues recomputes and republishes (as a replacing
// add) the identity of every currently-raised id, in response to a key
// change reported by the Monitor (spec.md §4.H "calls
// updateCompressedValues which issues an add (replacing) on the
// identity indexer").
func (r *Result) UpdateCompressedValues(changed []int64) {
	if r.mode != ModeCompressed || len(changed) == 0 {
		return
	}
	changedSet := make(map[int64]bool, len(changed))
	for _, id := range changed {
		changedSet[id] = true
	}
	var ids, identities []int64
	for raised := range r.raisedIdentified {
		if !changedSet[raised] {
			continue
		}
		ids = append(ids, raised)
		identities = append(identities, compressedIdentityFor(r.idx, raised))
	}
	if len(ids) > 0 {
		r.idx.AddIdentities(ids, identities, r.identificationID)
	}
}

// Destroy unregisters the identification from the identity indexer,
// destroys the monitor, and removes path subscriptions (spec.md §4.H
// "Lifecycle").
func (r *Result) Destroy() {
	r.idx.RemoveAllIdentities(r.identificationID)
	if r.monitor != nil {
		r.monitor.Destroy()
	}
}
