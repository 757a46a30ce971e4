package identity

// Monitor subscribes to key updates on an identity Result's
// identification path and recomputes affected compressed identities on
// change (spec.md §4.H "The monitor subscribes to key updates on the
// identification path; on key change, it recomputes the affected
// compressed identities").
type Monitor struct {
	idx    Indexer
	owner  *Result
	keys   KeySubscriber
	pathID int
}

// NewMonitor subscribes to key updates on pathID via keys, delegating
// recomputation back to owner.
func NewMonitor(idx Indexer, owner *Result, keys KeySubscriber, pathID int) *Monitor {
	m := &Monitor{idx: idx, owner: owner, keys: keys, pathID: pathID}
	if keys != nil {
		keys.Subscribe(pathID, m)
	}
	return m
}

// OnKeyChange is invoked by the subscribed key-update source when
// values at the identification path change for the given ids.
func (m *Monitor) OnKeyChange(changed []int64) {
	m.owner.UpdateCompressedValues(changed)
}

// Destroy removes this monitor's path subscription.
func (m *Monitor) Destroy() {
	if m.keys != nil {
		m.keys.Unsubscribe(m.pathID, m)
	}
}
