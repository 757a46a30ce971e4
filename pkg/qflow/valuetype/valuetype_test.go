package valuetype

import "testing"

func TestValidateRejectsEmptySizes(t *testing.T) {
	v := &ValueType{Caps: Number}
	if err := v.Validate(); err == nil {
		t.Fatal("expected error for empty sizes")
	}
}

func TestValidateRejectsInvertedRange(t *testing.T) {
	v := &ValueType{Caps: Number, Sizes: []Range{{Min: 5, Max: 2}}}
	if err := v.Validate(); err == nil {
		t.Fatal("expected error for min > max")
	}
}

func TestMergeUnionsCapsAndAbsorbsAnyData(t *testing.T) {
	a := New(Number, 1)
	b := New(AnyData, 1)
	m := Merge(a, b)
	if !m.Has(AnyData) || m.Has(Number) {
		t.Fatalf("expected AnyData to absorb Number, got %s", m)
	}
}

func TestSubsumes(t *testing.T) {
	wide := &ValueType{Caps: Number | String, Sizes: []Range{{Min: 0, Max: 10}}}
	narrow := New(Number, 3)
	if !wide.Subsumes(narrow) {
		t.Fatal("expected wide to subsume narrow")
	}
	if narrow.Subsumes(wide) {
		t.Fatal("narrow should not subsume wide")
	}
}

func TestIsDataAndAreasDetectsMix(t *testing.T) {
	v := &ValueType{Caps: Number | Areas, Sizes: []Range{{Min: 1, Max: 1}}}
	if !v.IsDataAndAreas() {
		t.Fatal("expected mixed data+areas to be flagged")
	}
}

func TestApplyQuerySelectionIntersectsSizes(t *testing.T) {
	selection := &ValueType{Caps: Boolean, Sizes: []Range{{Min: 0, Max: 1}}}
	data := &ValueType{Caps: Number, Sizes: []Range{{Min: 0, Max: 100}}}
	result := selection.ApplyQuery(data)
	if !result.Has(Number) {
		t.Fatalf("expected selection to preserve qType caps, got %s", result)
	}
	if result.Sizes[0].Max != 1 {
		t.Fatalf("expected intersected size envelope, got %+v", result.Sizes[0])
	}
}

func TestApplyQueryProjectorDescendsObject(t *testing.T) {
	inner := New(String, 1)
	proj := &ValueType{Caps: Projector, Object: map[string]*ValueType{"name": inner}}
	data := &ValueType{Caps: Object, Object: map[string]*ValueType{"name": New(String, 1), "age": New(Number, 1)}}
	result := proj.ApplyQuery(data)
	if !result.Has(String) {
		t.Fatalf("expected projection onto name to yield String, got %s", result)
	}
}
