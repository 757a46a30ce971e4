package diag

import "testing"

func TestDiffReportsNoChangeForIdenticalSnapshots(t *testing.T) {
	before := Snapshot{1: "alice", 2: "bob"}
	after := Snapshot{1: "alice", 2: "bob"}

	_, changed, err := Diff("widgets", before, after)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if changed {
		t.Fatalf("expected identical snapshots to report no change")
	}
}

func TestDiffReportsChangeWhenValueDiffers(t *testing.T) {
	before := Snapshot{1: "alice"}
	after := Snapshot{1: "alicia"}

	report, changed, err := Diff("widgets", before, after)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !changed {
		t.Fatalf("expected differing snapshots to report a change")
	}
	if report == "" {
		t.Fatalf("expected a non-empty human report when a change is found")
	}
}

func TestDiffReportsAddedAndRemovedElements(t *testing.T) {
	before := Snapshot{1: "alice"}
	after := Snapshot{1: "alice", 2: "bob"}

	_, changed, err := Diff("widgets", before, after)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !changed {
		t.Fatalf("expected an added element to count as a change")
	}
}
