package qflow

import (
	"fmt"

	"github.com/qflowdev/qflow/pkg/qflow/querycalc"
)

// queryCalcIDSeq hands out small sequential ids for query-calc nodes
// built by BuildSelectionNode; these ids are synthetic identifiers for
// logging purposes only, not persisted anywhere.
var queryCalcIDSeq int64

func nextQueryCalcID() int64 {
	queryCalcIDSeq++
	return queryCalcIDSeq
}

// ResolvePath allocates (or reuses) a path id for a dotted attribute
// path under the engine's path store, walking down from the store root.
func (e *Engine) ResolvePath(path []string) int {
	ps := e.Paths()
	id := ps.RootPathID()
	for _, label := range path {
		id = ps.Allocate(id, label)
	}
	return id
}

// predicateFromExpression converts a terminal selection expression (a
// literal string/number/boolean, a Range, or an unconstrained Null) into
// the constant predicate a querycalc.Simple node filters by (spec.md
// §4.E "Simple: terminal... filters by a constant predicate").
func predicateFromExpression(e *Expression) (querycalc.Predicate, error) {
	if e == nil {
		return querycalc.Predicate{}, nil
	}
	switch e.Kind {
	case ExprString:
		return querycalc.Predicate{Equals: e.Str}, nil
	case ExprNumber:
		return querycalc.Predicate{Equals: e.Num}, nil
	case ExprBoolean:
		return querycalc.Predicate{Equals: e.Bool}, nil
	case ExprNull:
		return querycalc.Predicate{}, nil
	case ExprRange:
		if e.RangeLow == nil || e.RangeHigh == nil || e.RangeLow.Kind != ExprNumber || e.RangeHigh.Kind != ExprNumber {
			return querycalc.Predicate{}, fmt.Errorf("qflow: range bounds must be numbers")
		}
		return querycalc.Predicate{HasRange: true, RangeLow: e.RangeLow.Num, RangeHigh: e.RangeHigh.Num}, nil
	default:
		return querycalc.Predicate{}, fmt.Errorf("qflow: expression kind %v cannot be used as a terminal predicate", e.Kind)
	}
}

// BuildSelectionNode builds the query-calculation node tree for a flat
// list of selection components gathered by ExtractQueryComponents: a
// Simple terminal per positive component, wrapped in a Negation for
// components marked !Positive, and combined by an Intersection when more
// than one component is present (spec.md §4.E/§4.F "selection,
// intersection, negation").
func (e *Engine) BuildSelectionNode(selects []QueryComponentSelect) (querycalc.Node, error) {
	if len(selects) == 0 {
		return nil, fmt.Errorf("qflow: query has no selection components")
	}

	children := make([]querycalc.Node, 0, len(selects))
	for _, sel := range selects {
		pathID := e.ResolvePath(sel.Path)
		pred, err := predicateFromExpression(sel.Selection)
		if err != nil {
			return nil, err
		}
		leaf := querycalc.NewSimple(nextQueryCalcID(), pathID, e.Memory, pred)
		var node querycalc.Node = leaf
		if !sel.Positive {
			node = querycalc.NewNegation(nextQueryCalcID(), pathID, leaf, e.Memory)
		}
		children = append(children, node)
	}

	if len(children) == 1 {
		return children[0], nil
	}
	return querycalc.NewIntersection(nextQueryCalcID(), children[0].PathID(), children), nil
}

// CompileQuery parses a YAML-authored expression (SPEC_FULL.md §5.5),
// extracts its selection/projection components, builds the matching
// query-calculation node tree, and registers it (along with any result
// nodes, attached before the tree is assigned so they observe the
// initial match set) under name.
func (e *Engine) CompileQuery(name string, yamlExpr []byte, results ...querycalc.ResultNode) (*querycalc.RootQueryCalcNode, error) {
	expr, err := ParseExpressionYAML(yamlExpr)
	if err != nil {
		return nil, err
	}
	expr = NormalizeQuery(expr)

	selects, projects := ExtractQueryComponents(expr)
	node, err := e.BuildSelectionNode(selects)
	if err != nil {
		return nil, err
	}

	prefixPathID := e.Paths().RootPathID()
	if len(projects) > 0 {
		prefixPathID = e.ResolvePath(projects[0].Destination)
	}

	root, err := e.RegisterQuery(name, prefixPathID)
	if err != nil {
		return nil, err
	}
	for _, res := range results {
		root.RegisterResult(res)
	}
	root.AssignQueryCalc(node, len(projects) > 0, nil)
	return root, nil
}
