package merge

// mappedKey identifies one (sourceId, pathId, dominatingId) triple.
type mappedKey struct {
	sourceID     int64
	pathID       int
	dominatingID int64
}

// MappedDataElements assigns target data-element ids to
// (sourceId, pathId, dominatingId) triples, reusing positional slots
// per path; when targetEqualsDominating is set for a path, the
// dominating id is used directly as the target with no new allocation
// (spec.md §4.I "MappedDataElements").
type MappedDataElements struct {
	targets map[mappedKey]int64

	// bySource[sourceID][pathID] lists every target assigned for that
	// (sourceID, pathID) pair, preserving the positional slot order
	// targets were first requested in.
	bySource map[int64]map[int]([]int64)

	targetEqualsDominating map[int]bool
	nextTargetID           int64
}

// NewMappedDataElements creates an empty table. nextTargetID seeds the
// synthetic id allocator used when targetEqualsDominating is not set
// for a path.
func NewMappedDataElements(nextTargetID int64) *MappedDataElements {
	return &MappedDataElements{
		targets:                make(map[mappedKey]int64),
		bySource:               make(map[int64]map[int][]int64),
		targetEqualsDominating: make(map[int]bool),
		nextTargetID:           nextTargetID,
	}
}

// SetTargetEqualsDominating marks pathID so GetOrAssignTarget returns
// the dominating id directly rather than allocating a new target id.
func (m *MappedDataElements) SetTargetEqualsDominating(pathID int, eq bool) {
	m.targetEqualsDominating[pathID] = eq
}

// GetOrAssignTarget returns the target data-element id for
// (sourceID, pathID, dominatingID), allocating and recording a new one
// if this triple has not been seen before.
func (m *MappedDataElements) GetOrAssignTarget(sourceID int64, pathID int, dominatingID int64) int64 {
	key := mappedKey{sourceID, pathID, dominatingID}
	if id, ok := m.targets[key]; ok {
		return id
	}

	var target int64
	if m.targetEqualsDominating[pathID] {
		target = dominatingID
	} else {
		target = m.nextTargetID
		m.nextTargetID++
	}
	m.targets[key] = target

	if m.bySource[sourceID] == nil {
		m.bySource[sourceID] = make(map[int][]int64)
	}
	m.bySource[sourceID][pathID] = append(m.bySource[sourceID][pathID], target)
	return target
}

// RemoveTarget drops a previously-assigned (sourceID, pathID, dominatingID)
// mapping.
func (m *MappedDataElements) RemoveTarget(sourceID int64, pathID int, dominatingID int64) {
	key := mappedKey{sourceID, pathID, dominatingID}
	target, ok := m.targets[key]
	if !ok {
		return
	}
	delete(m.targets, key)
	slots := m.bySource[sourceID][pathID]
	for i, id := range slots {
		if id == target {
			m.bySource[sourceID][pathID] = append(slots[:i], slots[i+1:]...)
			break
		}
	}
}

// GetAllTargetIdsAtPath supports bulk lookup for path-propagated merges:
// it returns the target id assigned for each sourceID at pathID, falling
// back to the original source id when fallbackToSource is set and no
// mapping exists (spec.md §4.I "getAllTargetIdsAtPath").
func (m *MappedDataElements) GetAllTargetIdsAtPath(sourceIDs []int64, pathID int, fallbackToSource bool) []int64 {
	out := make([]int64, 0, len(sourceIDs))
	for _, sourceID := range sourceIDs {
		slots := m.bySource[sourceID][pathID]
		if len(slots) > 0 {
			out = append(out, slots...)
			continue
		}
		if fallbackToSource {
			out = append(out, sourceID)
		}
	}
	return out
}
