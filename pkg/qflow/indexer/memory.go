// Package indexer provides a minimal in-memory implementation of the
// indexer interface query-calc nodes, identity results, and merge
// tables consume (spec.md §6 "Indexer API (consumed)"). spec.md §1
// treats the storage indexer as an external collaborator; this is the
// reference implementation used for tests and single-process
// deployments, built on internal/tree path cursors and plain maps
// guarded by a mutex (spec.md: no pack example ships an embeddable
// path/data-element store with this exact raise/filter/subscribe
// shape, so this is deliberately stdlib rather than forcing an
// unrelated storage engine into place).
package indexer

import (
	"sync"

	"github.com/qflowdev/qflow/internal/tree"
	"github.com/qflowdev/qflow/pkg/qflow/querycalc"
)

// element is one data element stored at a path.
type element struct {
	id       int64
	pathID   int
	parentID int64
	hasParent bool
	value    interface{}
}

// Memory is an in-memory reference indexer.
type Memory struct {
	mu sync.RWMutex

	paths *tree.PathStore

	elements map[int64]*element
	byPath   map[int][]int64

	subs map[int][]querycalc.Subscriber

	identities       map[int]map[int64]int64 // identificationID -> elementID -> identity
	compressedValues map[int64]int64

	nextElementID int64
}

// NewMemory creates an empty in-memory indexer.
func NewMemory() *Memory {
	return &Memory{
		paths:            tree.NewPathStore(),
		elements:         make(map[int64]*element),
		byPath:           make(map[int][]int64),
		subs:             make(map[int][]querycalc.Subscriber),
		identities:       make(map[int]map[int64]int64),
		compressedValues: make(map[int64]int64),
		nextElementID:    1,
	}
}

// Paths exposes the backing path store for callers that need to
// allocate/release path ids directly (compiler, CLI).
func (m *Memory) Paths() *tree.PathStore { return m.paths }

// AddElement inserts a data element under parentID (hasParent=false for
// a root element) at pathID, returning its newly-allocated id.
func (m *Memory) AddElement(pathID int, parentID int64, hasParent bool, value interface{}) int64 {
	m.mu.Lock()
	id := m.nextElementID
	m.nextElementID++
	m.elements[id] = &element{id: id, pathID: pathID, parentID: parentID, hasParent: hasParent, value: value}
	m.byPath[pathID] = append(m.byPath[pathID], id)
	subs := append([]querycalc.Subscriber{}, m.subs[pathID]...)
	m.mu.Unlock()

	for _, s := range subs {
		s.AddMatches([]int64{id}, nil)
	}
	return id
}

// RemoveElement removes a data element.
func (m *Memory) RemoveElement(id int64) {
	m.mu.Lock()
	el, ok := m.elements[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.elements, id)
	ids := m.byPath[el.pathID]
	for i, other := range ids {
		if other == id {
			m.byPath[el.pathID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	subs := append([]querycalc.Subscriber{}, m.subs[el.pathID]...)
	m.mu.Unlock()

	for _, s := range subs {
		s.RemoveMatches([]int64{id}, nil)
	}
}

// applyRemoteAdd/applyRemoteRemove register ids already assigned by a
// remote indexer process (arriving over a Notifier subscription)
// directly into byPath without allocating a new local id, then fan out
// to registered subscribers exactly as a local AddElement/RemoveElement
// would.
func (m *Memory) applyRemoteAdd(pathID int, ids []int64) {
	m.mu.Lock()
	var toEmit []int64
	for _, id := range ids {
		if _, exists := m.elements[id]; exists {
			continue
		}
		m.elements[id] = &element{id: id, pathID: pathID}
		m.byPath[pathID] = append(m.byPath[pathID], id)
		toEmit = append(toEmit, id)
	}
	subs := append([]querycalc.Subscriber{}, m.subs[pathID]...)
	m.mu.Unlock()

	if len(toEmit) == 0 {
		return
	}
	for _, s := range subs {
		s.AddMatches(toEmit, nil)
	}
}

func (m *Memory) applyRemoteRemove(pathID int, ids []int64) {
	m.mu.Lock()
	var toEmit []int64
	for _, id := range ids {
		if _, exists := m.elements[id]; !exists {
			continue
		}
		delete(m.elements, id)
		list := m.byPath[pathID]
		for i, other := range list {
			if other == id {
				m.byPath[pathID] = append(list[:i], list[i+1:]...)
				break
			}
		}
		toEmit = append(toEmit, id)
	}
	subs := append([]querycalc.Subscriber{}, m.subs[pathID]...)
	m.mu.Unlock()

	if len(toEmit) == 0 {
		return
	}
	for _, s := range subs {
		s.RemoveMatches(toEmit, nil)
	}
}

func (m *Memory) GetAllMatches(pathID int) []int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]int64, len(m.byPath[pathID]))
	copy(out, m.byPath[pathID])
	return out
}

func (m *Memory) GetAllMatchesAsObj(pathID int) map[int64]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[int64]interface{})
	for _, id := range m.byPath[pathID] {
		out[id] = m.elements[id].value
	}
	return out
}

func (m *Memory) FilterDataNodesAtPath(pathID int, ids []int64) []int64 {
	present, _, _ := m.FilterDataNodesAtPathWithDiff(pathID, ids)
	return present
}

func (m *Memory) FilterDataNodesAtPathWithDiff(pathID int, ids []int64) (present, justAdded, justRemoved []int64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, id := range ids {
		if el, ok := m.elements[id]; ok && el.pathID == pathID {
			present = append(present, id)
		}
	}
	return present, nil, nil
}

func (m *Memory) AddQueryCalcToPathNode(pathID int, sub querycalc.Subscriber) {
	m.mu.Lock()
	m.subs[pathID] = append(m.subs[pathID], sub)
	existing := append([]int64{}, m.byPath[pathID]...)
	m.mu.Unlock()
	if len(existing) > 0 {
		sub.AddMatches(existing, nil)
	}
}

func (m *Memory) RemoveQueryCalcFromPathNode(pathID int, sub querycalc.Subscriber) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.subs[pathID]
	for i, s := range list {
		if s == sub {
			m.subs[pathID] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

func (m *Memory) RaiseToPath(id int64, pathID int) int64 {
	raised, _ := m.RaiseExactlyToPath(id, pathID)
	return raised
}

// RaiseExactlyToPath walks id's parent chain until it finds an element
// at pathID, returning (id, true) on success. If no ancestor sits
// exactly at pathID, the walk stops at the root-most ancestor and
// returns that with ok=false (spec.md §6 "raiseToPath / raiseExactlyToPath").
func (m *Memory) RaiseExactlyToPath(id int64, pathID int) (int64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cur := id
	for {
		el, ok := m.elements[cur]
		if !ok {
			return cur, false
		}
		if el.pathID == pathID {
			return cur, true
		}
		if !el.hasParent {
			return cur, false
		}
		cur = el.parentID
	}
}

func (m *Memory) GetParentID(id int64) (int64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	el, ok := m.elements[id]
	if !ok || !el.hasParent {
		return 0, false
	}
	return el.parentID, true
}

func (m *Memory) HasEntry(id int64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.elements[id]
	return ok
}

func (m *Memory) GetPathID(id int64) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if el, ok := m.elements[id]; ok {
		return el.pathID
	}
	return m.paths.RootPathID()
}

// Identity subsystem (consumed by pkg/qflow/identity).

func (m *Memory) AddIdentities(ids []int64, identities []int64, identificationID int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.identities[identificationID] == nil {
		m.identities[identificationID] = make(map[int64]int64)
	}
	for i, id := range ids {
		m.identities[identificationID][id] = identities[i]
	}
}

func (m *Memory) RemoveIdentities(ids []int64, identificationID int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bucket := m.identities[identificationID]
	for _, id := range ids {
		delete(bucket, id)
	}
}

func (m *Memory) RemoveAllIdentities(identificationID int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.identities, identificationID)
}

func (m *Memory) HasIdentificationRequests(identificationID int) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.identities[identificationID]) > 0
}

func (m *Memory) GetAllIdentities(identificationID int) map[int64]int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[int64]int64, len(m.identities[identificationID]))
	for k, v := range m.identities[identificationID] {
		out[k] = v
	}
	return out
}

// SetCompressedValue records the compressed form of an element's value,
// used by compressed-identity results.
func (m *Memory) SetCompressedValue(id int64, compressed int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.compressedValues[id] = compressed
}

func (m *Memory) GetCompressedValue(id int64) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.compressedValues[id]
}

func (m *Memory) NeedKeyUpdateForQuery(pathID int) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subs[pathID]) > 0
}
