package compiler

import "github.com/qflowdev/qflow/pkg/qflow/funcnode"

// RemoveRedundantArguments strips identity elements per spec.md §4.D
// "Redundant-argument removal": and/or drop constant always-true/
// always-false operands; plus/mul drop constant 0/1 operands. When every
// operand would be dropped, the original list is returned unchanged. No
// other builtin is rewritten: minus, div, logb, pow and all others keep
// their arguments as given, and the builtin name is never changed. It
// returns the argument list BuildFunctionApplication should actually use.
func RemoveRedundantArguments(g *funcnode.Graph, builtin string, args []funcnode.Ref) []funcnode.Ref {
	switch builtin {
	case "and":
		return filterConstBool(g, args, true)
	case "or":
		return filterConstBool(g, args, false)
	case "plus":
		return filterConstNumber(g, args, 0)
	case "mul":
		return filterConstNumber(g, args, 1)
	default:
		return args
	}
}

func filterConstBool(g *funcnode.Graph, args []funcnode.Ref, identity bool) []funcnode.Ref {
	out := make([]funcnode.Ref, 0, len(args))
	for _, a := range args {
		n := g.Get(a)
		if n != nil && n.Kind == funcnode.KindConst && n.WontChangeValue {
			if b, ok := n.ConstValue.(bool); ok && b == identity {
				continue
			}
		}
		out = append(out, a)
	}
	if len(out) == 0 {
		return args
	}
	return out
}

func filterConstNumber(g *funcnode.Graph, args []funcnode.Ref, identity float64) []funcnode.Ref {
	out := make([]funcnode.Ref, 0, len(args))
	for _, a := range args {
		n := g.Get(a)
		if n != nil && n.Kind == funcnode.KindConst && n.WontChangeValue {
			if f, ok := n.ConstValue.(float64); ok && f == identity {
				continue
			}
		}
		out = append(out, a)
	}
	if len(out) == 0 {
		return args
	}
	return out
}
