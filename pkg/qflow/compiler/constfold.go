package compiler

import (
	"fmt"
	"math"

	"github.com/Knetic/govaluate"

	"github.com/qflowdev/qflow/pkg/qflow/funcnode"
	"github.com/qflowdev/qflow/pkg/qflow/valuetype"
)

// infixForms maps a builtin name to the govaluate infix template used to
// fold it at compile time when every argument is a Const (spec.md §4.D
// "Constant folding"). Argument values are bound positionally to the
// govaluate parameters arg0, arg1, ... that the forms name.
var infixForms = map[string]string{
	"plus":      "arg0 + arg1",
	"minus":     "arg0 - arg1",
	"uminus":    "-arg0",
	"mul":       "arg0 * arg1",
	"div":       "arg0 / arg1",
	"and":       "arg0 && arg1",
	"or":        "arg0 || arg1",
	"not":       "!arg0",
	"bool":      "arg0 ? true : false",
	"equal":     "arg0 == arg1",
	"notEqual":  "arg0 != arg1",
	"concat":    "arg0 + arg1",
	"concatStr": "arg0 + arg1",
}

// pureForeign lists builtins treated as pure (referentially transparent
// given constant args) even though they aren't in infixForms, per
// spec.md §4.D "foreign functions marked pure."
var pureForeign = map[string]bool{
	"sum": true, "first": true, "last": true, "merge": true, "mergeWrite": true, "pointer": true,
}

// CheckConstantResult evaluates a builtin application whose arguments
// are all Const nodes at compile time (spec.md §4.D "Constant folding",
// §8 property 7 "Constant folding is a refinement"). It returns
// (node, true) on success, or (nil, false) when the builtin isn't
// foldable or an argument isn't constant — the caller then falls back to
// an ordinary FunctionApplication node.
func CheckConstantResult(g *funcnode.Graph, builtin string, args []funcnode.Ref) (*funcnode.Node, bool) {
	values := make([]interface{}, len(args))
	for i, a := range args {
		n := g.Get(a)
		if n == nil || n.Kind != funcnode.KindConst || !n.WontChangeValue {
			return nil, false
		}
		values[i] = n.ConstValue
	}

	switch builtin {
	case "first", "last":
		return foldFirstLast(builtin, values)
	case "logb":
		return foldLogb(values)
	case "pow":
		return foldPow(values)
	}

	form, ok := infixForms[builtin]
	if !ok {
		if pureForeign[builtin] {
			return foldForeign(builtin, values)
		}
		return nil, false
	}

	expr, err := govaluate.NewEvaluableExpression(form)
	if err != nil {
		return nil, false
	}
	params := make(govaluate.MapParameters, len(values))
	for i, v := range values {
		params[fmt.Sprintf("arg%d", i)] = v
	}
	result, err := expr.Eval(params)
	if err != nil {
		return nil, false
	}
	return constNodeFor(result), true
}

func constNodeFor(result interface{}) *funcnode.Node {
	var vt *valuetype.ValueType
	switch result.(type) {
	case bool:
		vt = valuetype.New(valuetype.Boolean, 1)
	case float64, int:
		vt = valuetype.New(valuetype.Number, 1)
	case string:
		vt = valuetype.New(valuetype.String, 1)
	default:
		vt = valuetype.NewUndef()
	}
	return &funcnode.Node{Kind: funcnode.KindConst, ConstValue: result, WontChangeValue: true, ValueType: vt}
}

func foldFirstLast(builtin string, values []interface{}) (*funcnode.Node, bool) {
	if len(values) != 1 {
		return nil, false
	}
	os, ok := values[0].([]interface{})
	if !ok {
		return nil, false
	}
	if len(os) == 0 {
		return &funcnode.Node{Kind: funcnode.KindConst, ConstValue: nil, WontChangeValue: true, ValueType: valuetype.NewUndef()}, true
	}
	if builtin == "first" {
		return constNodeFor(os[0]), true
	}
	return constNodeFor(os[len(os)-1]), true
}

// foldLogb folds logb of a constant positive x and a constant base to
// log(x)/log(base) for any base; it does not rewrite the call to a
// log10/log2/ln builtin.
func foldLogb(values []interface{}) (*funcnode.Node, bool) {
	if len(values) != 2 {
		return nil, false
	}
	x, xok := values[0].(float64)
	base, bok := values[1].(float64)
	if !xok || !bok || x <= 0 {
		return nil, false
	}
	return constNodeFor(math.Log(x) / math.Log(base)), true
}

func foldPow(values []interface{}) (*funcnode.Node, bool) {
	if len(values) != 2 {
		return nil, false
	}
	base, bok := values[0].(float64)
	exp, eok := values[1].(float64)
	if !bok || !eok {
		return nil, false
	}
	return constNodeFor(math.Pow(base, exp)), true
}

func foldForeign(builtin string, values []interface{}) (*funcnode.Node, bool) {
	switch builtin {
	case "sum":
		total := 0.0
		for _, v := range values {
			if n, ok := v.(float64); ok {
				total += n
			} else {
				return nil, false
			}
		}
		return constNodeFor(total), true
	case "pointer":
		if len(values) != 1 {
			return nil, false
		}
		return constNodeFor(values[0]), true
	case "merge", "mergeWrite":
		// Folding a merge of constants just needs the last value to win,
		// matching later-priority-overrides-earlier merge semantics.
		if len(values) == 0 {
			return nil, false
		}
		return constNodeFor(values[len(values)-1]), true
	default:
		return nil, false
	}
}
