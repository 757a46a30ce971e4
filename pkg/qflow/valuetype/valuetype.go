// Package valuetype implements the value-type lattice (spec.md §3, §4.A):
// the sum of capabilities that describe the possible shape of any value
// flowing through the compiled function-node graph.
package valuetype

import "fmt"

// Capability is one bit of the value-type sum. A ValueType may hold
// several simultaneously (e.g. a node that sometimes yields a number and
// sometimes undef has both Number and Undef set).
type Capability uint16

const (
	Unknown Capability = 1 << iota
	Undef
	Boolean
	Number
	String
	Object
	Areas
	Defun
	Projector
	AnyData
	Remote
	DataSource
)

var orderedCaps = []struct {
	cap  Capability
	name string
}{
	{Unknown, "unknown"},
	{Undef, "undef"},
	{Boolean, "boolean"},
	{Number, "number"},
	{String, "string"},
	{Object, "object"},
	{Areas, "areas"},
	{Defun, "defun"},
	{Projector, "projector"},
	{AnyData, "anyData"},
	{Remote, "remote"},
	{DataSource, "dataSource"},
}

// Range is an inclusive integer size range; Max may be unbounded, in
// which case Unbounded is true and Max is ignored.
type Range struct {
	Min       int
	Max       int
	Unbounded bool
}

func (r Range) valid() bool {
	return r.Unbounded || r.Min <= r.Max
}

func (r Range) contains(o Range) bool {
	if r.Min > o.Min {
		return false
	}
	if r.Unbounded {
		return true
	}
	if o.Unbounded {
		return false
	}
	return r.Max >= o.Max
}

func unionRange(a, b Range) Range {
	r := Range{Min: a.Min}
	if b.Min < r.Min {
		r.Min = b.Min
	}
	if a.Unbounded || b.Unbounded {
		r.Unbounded = true
		return r
	}
	r.Max = a.Max
	if b.Max > r.Max {
		r.Max = b.Max
	}
	return r
}

// ValueType is the full descriptor: a capability set, a size range set,
// and (for Object and Areas capabilities) nested per-attribute/per-
// template type information.
type ValueType struct {
	Caps  Capability
	Sizes []Range

	// Object holds the per-attribute value type when Caps has Object set.
	Object map[string]*ValueType

	// AreaTemplates holds, for each template id present, the size ranges
	// of the area set at that template (Caps has Areas set).
	AreaTemplates map[string][]Range

	// Defun is the inferred return type of a defun body, when Caps has
	// Defun set.
	Defun *ValueType
}

// New builds a ValueType with a single capability and a single exact
// size (used pervasively for constants, where the node always yields
// exactly one value of one shape).
func New(cap Capability, size int) *ValueType {
	return &ValueType{Caps: cap, Sizes: []Range{{Min: size, Max: size}}}
}

// NewUndef returns the canonical empty-valued type: Undef, size 0.
func NewUndef() *ValueType {
	return &ValueType{Caps: Undef, Sizes: []Range{{Min: 0, Max: 0}}}
}

// Validate checks spec.md §8 property 1: Sizes is non-empty and every
// range has Min <= Max (or is explicitly unbounded).
func (v *ValueType) Validate() error {
	if len(v.Sizes) == 0 {
		return fmt.Errorf("valuetype: sizes must be non-empty")
	}
	for _, r := range v.Sizes {
		if !r.valid() {
			return fmt.Errorf("valuetype: invalid range min=%d max=%d", r.Min, r.Max)
		}
	}
	return nil
}

// Has reports whether cap is present among v's capabilities.
func (v *ValueType) Has(cap Capability) bool {
	return v.Caps&cap != 0
}

// IsNotData reports that the value can never carry ordinary scalar/object
// data — it is purely areas, a defun, or a projector.
func (v *ValueType) IsNotData() bool {
	data := Boolean | Number | String | Object | AnyData
	return v.Caps&data == 0
}

// IsStrictlyAreas reports that Areas is the only data-bearing capability.
func (v *ValueType) IsStrictlyAreas() bool {
	return v.Caps&Areas != 0 && v.IsNotData()
}

// IsDataAndAreas reports that both ordinary data and areas are possible
// simultaneously — the mixed-type case spec.md §7 flags as a type error
// ("data and areas mixed in one o()").
func (v *ValueType) IsDataAndAreas() bool {
	data := Boolean | Number | String | Object | AnyData
	return v.Caps&Areas != 0 && v.Caps&data != 0
}

// Merge returns the union of a and b: capabilities union, sizes union,
// AnyData absorbing any more specific data capability (spec.md §4.A).
func Merge(a, b *ValueType) *ValueType {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	out := &ValueType{Caps: a.Caps | b.Caps}
	if out.Caps&AnyData != 0 {
		out.Caps &^= Boolean | Number | String | Object
		out.Caps |= AnyData
	}
	out.Sizes = mergeSizes(a.Sizes, b.Sizes)

	if a.Object != nil || b.Object != nil {
		out.Object = make(map[string]*ValueType)
		for k, v := range a.Object {
			out.Object[k] = v
		}
		for k, v := range b.Object {
			if existing, ok := out.Object[k]; ok {
				out.Object[k] = Merge(existing, v)
			} else {
				out.Object[k] = v
			}
		}
	}
	if a.AreaTemplates != nil || b.AreaTemplates != nil {
		out.AreaTemplates = make(map[string][]Range)
		for k, v := range a.AreaTemplates {
			out.AreaTemplates[k] = v
		}
		for k, v := range b.AreaTemplates {
			if existing, ok := out.AreaTemplates[k]; ok {
				out.AreaTemplates[k] = mergeSizes(existing, v)
			} else {
				out.AreaTemplates[k] = v
			}
		}
	}
	if a.Defun != nil || b.Defun != nil {
		out.Defun = Merge(a.Defun, b.Defun)
	}
	return out
}

func mergeSizes(a, b []Range) []Range {
	if len(a) == 0 {
		return b
	}
	if len(b) == 0 {
		return a
	}
	// Coalesce into one range covering both sets; the lattice does not
	// need to track disjoint ranges precisely, only the envelope, which
	// keeps Validate/Subsumes cheap and total.
	r := a[0]
	for _, other := range a[1:] {
		r = unionRange(r, other)
	}
	for _, other := range b {
		r = unionRange(r, other)
	}
	return []Range{r}
}

// Subsumes reports whether every capability of b is present in a, and
// every one of b's size ranges is contained within a's envelope.
func (a *ValueType) Subsumes(b *ValueType) bool {
	if b == nil {
		return true
	}
	if a == nil {
		return b.Caps == 0
	}
	if a.Caps&b.Caps != b.Caps {
		return false
	}
	for _, br := range b.Sizes {
		contained := false
		for _, ar := range a.Sizes {
			if ar.contains(br) {
				contained = true
				break
			}
		}
		if !contained {
			return false
		}
	}
	for attr, bv := range b.Object {
		av, ok := a.Object[attr]
		if !ok || !av.Subsumes(bv) {
			return false
		}
	}
	return true
}

// Intersect returns the narrowest type compatible with both a and b:
// the capability intersection, and the intersection of the combined size
// envelopes.
func Intersect(a, b *ValueType) *ValueType {
	if a == nil || b == nil {
		return NewUndef()
	}
	caps := a.Caps & b.Caps
	if caps == 0 {
		return NewUndef()
	}
	out := &ValueType{Caps: caps}
	for _, ar := range a.Sizes {
		for _, br := range b.Sizes {
			if ir, ok := intersectRange(ar, br); ok {
				out.Sizes = append(out.Sizes, ir)
			}
		}
	}
	if len(out.Sizes) == 0 {
		out.Sizes = []Range{{Min: 0, Max: 0}}
	}
	return out
}

func intersectRange(a, b Range) (Range, bool) {
	r := Range{}
	if a.Min > b.Min {
		r.Min = a.Min
	} else {
		r.Min = b.Min
	}
	switch {
	case a.Unbounded && b.Unbounded:
		r.Unbounded = true
	case a.Unbounded:
		r.Max = b.Max
	case b.Unbounded:
		r.Max = a.Max
	default:
		if a.Max < b.Max {
			r.Max = a.Max
		} else {
			r.Max = b.Max
		}
	}
	if !r.Unbounded && r.Min > r.Max {
		return Range{}, false
	}
	return r, true
}

// AddAttribute returns a copy of v with attr mapped to attrType, setting
// the Object capability. Used by the compiler when building AV nodes
// attribute-by-attribute.
func (v *ValueType) AddAttribute(attr string, attrType *ValueType) *ValueType {
	out := &ValueType{Caps: v.Caps | Object, Sizes: v.Sizes}
	out.Object = make(map[string]*ValueType, len(v.Object)+1)
	for k, t := range v.Object {
		out.Object[k] = t
	}
	out.Object[attr] = attrType
	return out
}

// ApplyQuery computes the value type resulting from applying a (as a
// query) against qType (spec.md §4.A): when a has only projector paths,
// descend qType.Object along them; when a is a selection, return qType
// unchanged but with sizes intersected; fall back to AnyData when
// indeterminate.
func (a *ValueType) ApplyQuery(qType *ValueType) *ValueType {
	switch {
	case a.Has(Projector) && a.Object == nil:
		// A bare projector with no nested object shape: the query just
		// selects qType's own data, unprojected.
		return qType
	case a.Has(Projector) && a.Object != nil:
		result := &ValueType{}
		for attr, sub := range a.Object {
			if qAttr, ok := qType.Object[attr]; ok {
				result = Merge(result, sub.ApplyQuery(qAttr))
			}
		}
		if result.Caps == 0 {
			return New(AnyData, 0)
		}
		return result
	case a.IsDataAndAreas():
		return New(AnyData, 0)
	default:
		out := &ValueType{Caps: qType.Caps, Object: qType.Object, AreaTemplates: qType.AreaTemplates, Defun: qType.Defun}
		for _, ar := range a.Sizes {
			for _, br := range qType.Sizes {
				if ir, ok := intersectRange(ar, br); ok {
					out.Sizes = append(out.Sizes, ir)
				}
			}
		}
		if len(out.Sizes) == 0 {
			out.Sizes = []Range{{Min: 0, Max: 0}}
		}
		return out
	}
}

func (v *ValueType) String() string {
	if v == nil {
		return "undef"
	}
	s := ""
	for _, oc := range orderedCaps {
		if v.Caps&oc.cap != 0 {
			if s != "" {
				s += "|"
			}
			s += oc.name
		}
	}
	if s == "" {
		s = "undef"
	}
	return s
}
