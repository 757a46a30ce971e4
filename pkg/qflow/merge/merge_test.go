package merge

import "testing"

func TestAddChildRemoveChildRoundTripRestoresEmptyState(t *testing.T) {
	c := NewChildrenByIdentity()
	c.AddChild(5, 100, 1, 1)
	c.AddChild(5, 100, 2, 1)
	c.AddChild(6, 100, 3, 1)

	if c.NumChildren() != 3 {
		t.Fatalf("expected 3 children, got %d", c.NumChildren())
	}

	c.RemoveChild(100, 1, 1)
	c.RemoveChild(100, 2, 1)
	c.RemoveChild(100, 3, 1)

	if c.NumChildren() != 0 {
		t.Fatalf("expected round trip to restore empty state, got %d children", c.NumChildren())
	}
	if len(c.identities) != 0 || len(c.children) != 0 || len(c.parents) != 0 {
		t.Fatalf("expected all inner maps empty after round trip")
	}
}

func TestRemoveGroupRemovesOnlyThatGroupsEntries(t *testing.T) {
	c := NewChildrenByIdentity()
	c.AddChild(5, 100, 1, 1)
	c.AddChild(5, 100, 2, 2)

	c.RemoveGroup(1)
	if c.NumChildren() != 1 {
		t.Fatalf("expected 1 child to remain after removing group 1, got %d", c.NumChildren())
	}
	if len(c.ChildrenOf(100, 5)) != 1 {
		t.Fatalf("expected child 2 still filed under identity 5, got %v", c.ChildrenOf(100, 5))
	}
}

func TestUpdateIdentityRewritesBucketAndReportsOldIdentity(t *testing.T) {
	c := NewChildrenByIdentity()
	c.AddChild(5, 100, 1, 1)

	updates := c.UpdateIdentity(100, 9, func(groupID int64) bool { return true })
	if len(updates) != 1 || updates[0].OldIdentity != 5 || updates[0].ChildID != 1 {
		t.Fatalf("expected one update reporting old identity 5, got %v", updates)
	}
	if len(c.ChildrenOf(100, 9)) != 1 {
		t.Fatalf("expected child now filed under new identity 9, got %v", c.ChildrenOf(100, 9))
	}
	if len(c.ChildrenOf(100, 5)) != 0 {
		t.Fatalf("expected old identity bucket emptied, got %v", c.ChildrenOf(100, 5))
	}
}

func TestMappedDataElementsTargetEqualsDominating(t *testing.T) {
	m := NewMappedDataElements(1000)
	m.SetTargetEqualsDominating(10, true)

	target := m.GetOrAssignTarget(1, 10, 55)
	if target != 55 {
		t.Fatalf("expected target to equal dominating id 55, got %d", target)
	}
}

func TestMappedDataElementsAllocatesAndReusesSlot(t *testing.T) {
	m := NewMappedDataElements(1000)

	first := m.GetOrAssignTarget(1, 10, 55)
	second := m.GetOrAssignTarget(1, 10, 55)
	if first != second {
		t.Fatalf("expected repeated lookup of the same triple to reuse the slot, got %d then %d", first, second)
	}

	third := m.GetOrAssignTarget(1, 10, 56)
	if third == first {
		t.Fatalf("expected a different dominating id to allocate a distinct target")
	}

	ids := m.GetAllTargetIdsAtPath([]int64{1}, 10, false)
	if len(ids) != 2 {
		t.Fatalf("expected 2 targets at path 10 for source 1, got %v", ids)
	}
}
