package compiler

import "testing"

func TestSplitQualifierAtomTrimsSpaces(t *testing.T) {
	attr, value, ok := splitQualifierAtom("  color  =  red  ")
	if !ok {
		t.Fatalf("expected a valid split")
	}
	if attr != "color" || value != "red" {
		t.Fatalf("expected attr=color value=red, got attr=%q value=%q", attr, value)
	}
}

func TestSplitQualifierAtomRejectsMissingEquals(t *testing.T) {
	if _, _, ok := splitQualifierAtom("no-equals-here"); ok {
		t.Fatalf("expected ok=false without an '=' byte")
	}
}

func TestSkipSpacesFindsFirstNonSpace(t *testing.T) {
	if i := skipSpaces("   x"); i != 3 {
		t.Fatalf("expected index 3, got %d", i)
	}
	if i := skipSpaces("x"); i != 0 {
		t.Fatalf("expected index 0 for no leading spaces, got %d", i)
	}
}
