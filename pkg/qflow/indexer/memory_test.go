package indexer

import (
	"testing"

	"github.com/qflowdev/qflow/pkg/qflow/querycalc"
)

func TestMemoryNotifiesLateSubscriberOfExistingMatches(t *testing.T) {
	m := NewMemory()
	root := m.Paths().RootPathID()
	path := m.Paths().Allocate(root, "widgets")

	m.AddElement(path, 0, false, "a")
	m.AddElement(path, 0, false, "b")

	id := querycalc.NewId(1, path, m)
	if len(id.CurrentMatches()) != 0 {
		t.Fatalf("expected Id node to start empty until queried, got %v", id.CurrentMatches())
	}

	fromStore := m.GetAllMatches(path)
	id.AddDataElements(fromStore)
	if len(id.CurrentMatches()) != 2 {
		t.Fatalf("expected 2 matches after querying store contents, got %v", id.CurrentMatches())
	}
}

func TestMemoryRaiseToPathWalksParentChain(t *testing.T) {
	m := NewMemory()
	root := m.Paths().RootPathID()
	parentPath := m.Paths().Allocate(root, "area")
	childPath := m.Paths().Allocate(parentPath, "item")

	parentID := m.AddElement(parentPath, 0, false, "parent")
	childID := m.AddElement(childPath, parentID, true, "child")

	raised := m.RaiseToPath(childID, parentPath)
	if raised != parentID {
		t.Fatalf("expected raise to resolve to parent id %d, got %d", parentID, raised)
	}
}

func TestMemorySimpleNodeSeesNewElementsLive(t *testing.T) {
	m := NewMemory()
	root := m.Paths().RootPathID()
	path := m.Paths().Allocate(root, "widgets")

	s := querycalc.NewSimple(1, path, m, querycalc.Predicate{Equals: "x"})
	m.AddElement(path, 0, false, "x")
	m.AddElement(path, 0, false, "y")

	if len(s.CurrentMatches()) != 1 {
		t.Fatalf("expected exactly one live match for predicate, got %v", s.CurrentMatches())
	}
}
