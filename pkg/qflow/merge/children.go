// Package merge implements the merge indexer's key-based child
// bookkeeping (spec.md §4.I): which child nodes merge under which
// dominating (parent) node, chosen by identity, and the positional
// assignment of target data-element ids for merged output — the Go
// analogue of mergeArrayByKey's "merge on key" grouping, generalised
// from a one-shot YAML array merge into an incrementally-maintained
// index.
package merge

// groupEntry is the per-(child,group) bucket entry: which parent it is
// currently filed under and what identity put it there.
type groupEntry struct {
	parentID int64
	identity int64
}

// parentCounters tracks, for one parent, how many children share its
// "own" identity versus how many are filed under each distinct
// identity value, maintaining spec.md §8 property 4's invariant.
type parentCounters struct {
	sameID   int
	children map[int64]int // identity -> count of children at that identity
}

// ChildrenByIdentity holds, at a merge indexer's prefix path node, the
// child nodes that should be merged under dominating nodes chosen by
// identity (spec.md §4.I).
type ChildrenByIdentity struct {
	// identities[identity][parentID] = set of (childID,groupID) pairs
	// filed under that identity for that parent.
	identities map[int64]map[int64]map[childGroupKey]bool

	// children[(childID,groupID)] = groupEntry: the reverse map used by
	// updateIdentity and removeChild to find a pair's current bucket in
	// O(1) without scanning identities.
	children map[childGroupKey]groupEntry

	// groups[groupID] = set of (childID, parentID) added by that group,
	// for removeGroup.
	groups map[int64]map[childGroupKey]bool

	parents map[int64]*parentCounters

	numChildren int
}

type childGroupKey struct {
	childID int64
	groupID int64
}

// NewChildrenByIdentity creates an empty table.
func NewChildrenByIdentity() *ChildrenByIdentity {
	return &ChildrenByIdentity{
		identities: make(map[int64]map[int64]map[childGroupKey]bool),
		children:   make(map[childGroupKey]groupEntry),
		groups:     make(map[int64]map[childGroupKey]bool),
		parents:    make(map[int64]*parentCounters),
	}
}

func (c *ChildrenByIdentity) parentCounter(parentID int64) *parentCounters {
	p, ok := c.parents[parentID]
	if !ok {
		p = &parentCounters{children: make(map[int64]int)}
		c.parents[parentID] = p
	}
	return p
}

// AddChild files (childID, groupID) under parentID at identity,
// updating the identities map, the children reverse-map, and the
// parents reference counter atomically (spec.md §4.I "addChild").
func (c *ChildrenByIdentity) AddChild(identity, parentID, childID, groupID int64) {
	key := childGroupKey{childID, groupID}
	if _, exists := c.children[key]; exists {
		c.RemoveChild(parentID, childID, groupID)
	}

	if c.identities[identity] == nil {
		c.identities[identity] = make(map[int64]map[childGroupKey]bool)
	}
	if c.identities[identity][parentID] == nil {
		c.identities[identity][parentID] = make(map[childGroupKey]bool)
	}
	c.identities[identity][parentID][key] = true
	c.children[key] = groupEntry{parentID: parentID, identity: identity}

	if c.groups[groupID] == nil {
		c.groups[groupID] = make(map[childGroupKey]bool)
	}
	c.groups[groupID][key] = true

	pc := c.parentCounter(parentID)
	if identity == parentID {
		pc.sameID++
	} else {
		pc.children[identity]++
	}
	c.numChildren++
}

// RemoveChild removes (childID, groupID) filed under parentID, deleting
// any inner maps that become empty (spec.md §4.I "removeChild").
func (c *ChildrenByIdentity) RemoveChild(parentID, childID, groupID int64) {
	key := childGroupKey{childID, groupID}
	entry, ok := c.children[key]
	if !ok {
		return
	}
	delete(c.children, key)
	c.numChildren--

	if byParent := c.identities[entry.identity]; byParent != nil {
		if set := byParent[entry.parentID]; set != nil {
			delete(set, key)
			if len(set) == 0 {
				delete(byParent, entry.parentID)
			}
		}
		if len(byParent) == 0 {
			delete(c.identities, entry.identity)
		}
	}

	if set := c.groups[groupID]; set != nil {
		delete(set, key)
		if len(set) == 0 {
			delete(c.groups, groupID)
		}
	}

	if pc, ok := c.parents[entry.parentID]; ok {
		if entry.identity == entry.parentID {
			pc.sameID--
		} else {
			pc.children[entry.identity]--
			if pc.children[entry.identity] <= 0 {
				delete(pc.children, entry.identity)
			}
		}
		if pc.sameID == 0 && len(pc.children) == 0 {
			delete(c.parents, entry.parentID)
		}
	}
}

// RemoveGroup removes every mapping registered by groupID, falling back
// to a wholesale clear when no other groups remain (spec.md §4.I
// "removeGroup").
func (c *ChildrenByIdentity) RemoveGroup(groupID int64) {
	keys := c.groups[groupID]
	if len(keys) == 0 {
		delete(c.groups, groupID)
		return
	}
	if len(c.groups) == 1 {
		c.identities = make(map[int64]map[int64]map[childGroupKey]bool)
		c.children = make(map[childGroupKey]groupEntry)
		c.parents = make(map[int64]*parentCounters)
		c.numChildren = 0
		delete(c.groups, groupID)
		return
	}
	for key := range keys {
		entry := c.children[key]
		c.RemoveChild(entry.parentID, key.childID, key.groupID)
	}
	delete(c.groups, groupID)
}

// IdentityUpdate is one (childId, groupId, oldIdentity) entry returned
// by UpdateIdentity for the merge indexer to act on.
type IdentityUpdate struct {
	ChildID      int64
	GroupID      int64
	OldIdentity  int64
}

// GroupFilter reports whether a (groupID)'s source indexer and
// identification id match the pair an UpdateIdentity call is targeting,
// so only matching groups' buckets are rewritten.
type GroupFilter func(groupID int64) bool

// UpdateIdentity handles a parent whose identity changed: it walks the
// parent's children list, rewrites the identity bucket for each
// (child, group) whose group passes filter, and returns the list of
// updates for the merge indexer to act on (spec.md §4.I
// "updateIdentity").
func (c *ChildrenByIdentity) UpdateIdentity(parentID, newIdentity int64, filter GroupFilter) []IdentityUpdate {
	var updates []IdentityUpdate
	var toMove []childGroupKey
	for key, entry := range c.children {
		if entry.parentID != parentID {
			continue
		}
		if filter != nil && !filter(key.groupID) {
			continue
		}
		if entry.identity == newIdentity {
			continue
		}
		toMove = append(toMove, key)
	}
	for _, key := range toMove {
		entry := c.children[key]
		updates = append(updates, IdentityUpdate{ChildID: key.childID, GroupID: key.groupID, OldIdentity: entry.identity})
		c.RemoveChild(entry.parentID, key.childID, key.groupID)
		c.AddChild(newIdentity, parentID, key.childID, key.groupID)
	}
	return updates
}

// NumChildren reports the number of distinct (childID, groupID) pairs
// currently filed, maintaining the invariant numChildren == len(children)
// (spec.md §8 property 4).
func (c *ChildrenByIdentity) NumChildren() int { return c.numChildren }

// ChildrenOf returns the child id of every (childID, groupID) pair filed
// under parentID at identity; group ids are not returned, so a child
// filed by several groups appears once per group.
func (c *ChildrenByIdentity) ChildrenOf(parentID, identity int64) []int64 {
	byParent := c.identities[identity]
	if byParent == nil {
		return nil
	}
	var out []int64
	for key := range byParent[parentID] {
		out = append(out, key.childID)
	}
	return out
}
