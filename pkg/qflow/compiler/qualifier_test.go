package compiler

import (
	"testing"

	"github.com/qflowdev/qflow/pkg/qflow/funcnode"
)

func TestParseQualifierAtomDecodesAttrEqualsValue(t *testing.T) {
	q, ok := ParseQualifierAtom("color = red", 3)
	if !ok {
		t.Fatalf("expected a successful parse")
	}
	want := funcnode.SingleQualifier{Attribute: "color", Value: "red", TargetArea: 3, Function: funcnode.NoRef}
	if q != want {
		t.Fatalf("expected %+v, got %+v", want, q)
	}
}

func TestParseQualifierAtomRejectsMalformedText(t *testing.T) {
	if _, ok := ParseQualifierAtom("not-a-qualifier", 1); ok {
		t.Fatalf("expected parse to fail without '='")
	}
}
