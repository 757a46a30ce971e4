package querycalc

import (
	"strings"
	"testing"
)

func TestEncodeMatchDeltaProducesOneOpPerID(t *testing.T) {
	defs := EncodeMatchDelta([]int64{1, 2}, []int64{3})
	if len(defs) != 3 {
		t.Fatalf("expected 3 ops, got %d", len(defs))
	}
	if defs[0].Type != "replace" || defs[2].Type != "remove" {
		t.Fatalf("expected replace ops for adds and remove ops for removals, got %+v", defs)
	}
}

func TestParseMatchDeltaAcceptsEncodedOps(t *testing.T) {
	defs := EncodeMatchDelta([]int64{1}, []int64{2})
	if _, err := ParseMatchDelta(defs); err != nil {
		t.Fatalf("expected encoded ops to parse cleanly: %v", err)
	}
}

func TestRenderMatchDeltaProducesReadableYAML(t *testing.T) {
	out, err := RenderMatchDelta([]int64{42}, []int64{7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "/42") || !strings.Contains(out, "/7") {
		t.Fatalf("expected rendered delta to mention both ids, got %q", out)
	}
}

func TestRenderMatchDeltaEmptyBatchIsEmptySequence(t *testing.T) {
	out, err := RenderMatchDelta(nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "[]" {
		t.Fatalf("expected an empty sequence for an empty delta, got %q", out)
	}
}
