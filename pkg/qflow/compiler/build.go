package compiler

import (
	"github.com/qflowdev/qflow/pkg/qflow"
	"github.com/qflowdev/qflow/pkg/qflow/funcnode"
	"github.com/qflowdev/qflow/pkg/qflow/valuetype"
)

// Writability, when non-nil, asks BuildSimpleFunctionNode to wrap (or
// update the existing) Writable at Path (spec.md §4.D step 3).
type Writability struct {
	Path         int
	InitialValue funcnode.Ref
	InitialType  *valuetype.ValueType
	Info         *funcnode.PathInfo
}

// BuildArgs bundles the parameters of spec.md §4.D's
// buildSimpleFunctionNode entry point.
type BuildArgs struct {
	Expr               *qflow.Expression
	Writability        *Writability
	Origin             int // template id the expression is requested from
	Defun              int // 0 means "not inside a defun"
	SuppressSet        map[string]bool
	KnownTrueQualifiers  []funcnode.SingleQualifier
	KnownFalseQualifiers []funcnode.SingleQualifier
	Context            int // template id evaluation actually happens in
}

// BuildSimpleFunctionNode is spec.md §4.D's entry point. It caches by
// (template, defun, expression id) when context == origin || defun == 0,
// inserting a Stub on cache miss to break cycles before recursing into
// expr.buildFunctionNode(), then resolving the stub and running
// CheckTypeChange against the node's previously-cached type.
func BuildSimpleFunctionNode(cc *CompilerContext, args BuildArgs) funcnode.Ref {
	tmpl := cc.Templates.Get(args.Context)
	if tmpl == nil {
		tmpl = cc.Templates.Get(args.Origin)
	}

	useCache := args.Context == args.Origin || args.Defun == 0
	var key cacheKeyLocal
	if useCache {
		key = cacheKeyLocal{Defun: args.Defun, Expr: args.Expr.Id}
		if tmpl != nil {
			if ref, ok := lookupCache(tmpl, key); ok {
				if !cacheOutdated(tmpl.Graph, ref, cc.CurrentCycle()) {
					return ref
				}
			}
		}
	}

	var prevType *valuetype.ValueType
	var stub funcnode.Ref = funcnode.NoRef
	if useCache && tmpl != nil {
		if ref, ok := lookupCache(tmpl, key); ok {
			prevType = tmpl.Graph.Get(ref).ValueType
		}
		stub = tmpl.Graph.NewStub(prevType, cc.CurrentCycle())
		storeCache(tmpl, key, stub)
	}

	built := buildFunctionNode(cc, tmpl, args)

	if useCache && tmpl != nil && stub != funcnode.NoRef {
		tmpl.Graph.ResolveStub(stub, built)
		storeCache(tmpl, key, built)
		newType := tmpl.Graph.Get(built).ValueType
		funcnode.CheckTypeChange(prevType, newType)
	}

	if cc.Optimize && containsQualified(tmpl, built) {
		built = PickQualifiedExpression(cc, tmpl, built, args.KnownTrueQualifiers, args.KnownFalseQualifiers, args.Origin)
	}

	if args.Writability != nil && tmpl != nil {
		reg := funcnode.NewWritableRegistry(tmpl.Graph)
		n := tmpl.Graph.Get(built)
		writeType := n.ValueType
		built = reg.BuildOrMerge(
			funcnode.WritableKey{Template: args.Origin, Path: args.Writability.Path},
			args.Origin,
			args.Writability.InitialValue,
			args.Writability.InitialType,
			writeType,
			args.Writability.Info,
		)
	}

	if tmpl != nil {
		n := tmpl.Graph.Get(built)
		n.OrigExpr = args.Expr.Id
	}

	return built
}

type cacheKeyLocal = qflow.CacheKey

func lookupCache(tmpl *qflow.Template, key cacheKeyLocal) (funcnode.Ref, bool) {
	ref, ok := tmpl.ExpressionCache[key]
	return ref, ok
}

func storeCache(tmpl *qflow.Template, key cacheKeyLocal, ref funcnode.Ref) {
	tmpl.ExpressionCache[key] = ref
}

// cacheOutdated reports whether a cached node's Stub chain hasn't
// resolved yet within the current cycle (the "on miss or outdated" of
// spec.md §4.D step 1).
func cacheOutdated(g *funcnode.Graph, ref funcnode.Ref, currentCycle int) bool {
	n := g.Get(ref)
	if n == nil {
		return true
	}
	if n.Kind == funcnode.KindStub {
		return n.StubCycleNr != currentCycle || n.Resolution == funcnode.NoRef
	}
	return false
}

func containsQualified(tmpl *qflow.Template, ref funcnode.Ref) bool {
	if tmpl == nil {
		return false
	}
	n := tmpl.Graph.Get(ref)
	return n != nil && n.Kind == funcnode.KindVariant
}

// buildFunctionNode dispatches on the expression's kind, implementing
// expr.buildFunctionNode() from spec.md §4.D step 1.2.
func buildFunctionNode(cc *CompilerContext, tmpl *qflow.Template, args BuildArgs) funcnode.Ref {
	e := args.Expr
	g := arenaFor(cc, tmpl)

	switch e.Kind {
	case qflow.ExprString:
		return g.Add(funcnode.Node{Kind: funcnode.KindConst, ConstValue: e.Str, WontChangeValue: true,
			ValueType: valuetype.New(valuetype.String, 1), OrigExpr: e.Id})
	case qflow.ExprNumber:
		return g.Add(funcnode.Node{Kind: funcnode.KindConst, ConstValue: e.Num, WontChangeValue: true,
			ValueType: valuetype.New(valuetype.Number, 1), OrigExpr: e.Id})
	case qflow.ExprBoolean:
		return g.Add(funcnode.Node{Kind: funcnode.KindConst, ConstValue: e.Bool, WontChangeValue: true,
			ValueType: valuetype.New(valuetype.Boolean, 1), OrigExpr: e.Id})
	case qflow.ExprNull, qflow.ExprUndefined:
		return g.Add(funcnode.Node{Kind: funcnode.KindConst, ConstValue: nil, WontChangeValue: true,
			ValueType: valuetype.NewUndef(), OrigExpr: e.Id})
	case qflow.ExprProjector:
		return g.Add(funcnode.Node{Kind: funcnode.KindAV, ValueType: &valuetype.ValueType{Caps: valuetype.Projector, Sizes: []valuetype.Range{{Min: 1, Max: 1}}}, OrigExpr: e.Id})
	case qflow.ExprAttributeValue:
		return buildAV(cc, tmpl, args, e)
	case qflow.ExprOrderedSet:
		return buildOrderedSet(cc, tmpl, args, e)
	case qflow.ExprNegation:
		return buildNegation(cc, tmpl, args, e)
	case qflow.ExprFunctionApplication, qflow.ExprJSFunctionApplication:
		return buildFunctionApplication(cc, tmpl, args, e)
	case qflow.ExprBuiltInFunction:
		return g.Add(funcnode.Node{Kind: funcnode.KindConst, ConstValue: e.Str, WontChangeValue: true,
			ValueType: &valuetype.ValueType{Caps: valuetype.Defun, Sizes: []valuetype.Range{{Min: 1, Max: 1}}}, OrigExpr: e.Id})
	case qflow.ExprQuery:
		return buildAV(cc, tmpl, args, e)
	case qflow.ExprRange:
		return g.Add(funcnode.Node{Kind: funcnode.KindConst,
			ValueType: &valuetype.ValueType{Caps: valuetype.Number, Sizes: []valuetype.Range{{Min: 0, Max: 2}}}, OrigExpr: e.Id})
	default:
		return g.Add(funcnode.Node{Kind: funcnode.KindConst, ValueType: valuetype.NewUndef(), OrigExpr: e.Id})
	}
}

func arenaFor(cc *CompilerContext, tmpl *qflow.Template) *funcnode.Graph {
	if tmpl != nil {
		return tmpl.Graph
	}
	return cc.Global
}

func buildAV(cc *CompilerContext, tmpl *qflow.Template, args BuildArgs, e *qflow.Expression) funcnode.Ref {
	g := arenaFor(cc, tmpl)
	attrs := make(map[string]funcnode.Ref, len(e.Attrs))
	vt := &valuetype.ValueType{Caps: valuetype.Object, Sizes: []valuetype.Range{{Min: 1, Max: 1}}}
	for attr, sub := range e.Attrs {
		childArgs := args
		childArgs.Expr = sub
		childArgs.Writability = nil
		ref := BuildSimpleFunctionNode(cc, childArgs)
		attrs[attr] = ref
		vt = vt.AddAttribute(attr, g.Get(ref).ValueType)
	}
	return g.Add(funcnode.Node{Kind: funcnode.KindAV, Attrs: attrs, ValueType: vt, OrigExpr: e.Id,
		LocalToArea: args.Origin, LocalToDefun: args.Defun})
}

func buildOrderedSet(cc *CompilerContext, tmpl *qflow.Template, args BuildArgs, e *qflow.Expression) funcnode.Ref {
	g := arenaFor(cc, tmpl)
	children := make([]funcnode.Ref, 0, len(e.Elements))
	vt := valuetype.NewUndef()
	for _, el := range e.Elements {
		childArgs := args
		childArgs.Expr = el
		childArgs.Writability = nil
		ref := BuildSimpleFunctionNode(cc, childArgs)
		children = append(children, ref)
		vt = valuetype.Merge(vt, g.Get(ref).ValueType)
	}
	vt.Sizes = []valuetype.Range{{Min: len(children), Max: len(children)}}
	return g.Add(funcnode.Node{Kind: funcnode.KindOrderedSet, Children: children, ValueType: vt, OrigExpr: e.Id})
}

func buildNegation(cc *CompilerContext, tmpl *qflow.Template, args BuildArgs, e *qflow.Expression) funcnode.Ref {
	g := arenaFor(cc, tmpl)
	childArgs := args
	childArgs.Expr = e.Operand
	childArgs.Writability = nil
	operand := BuildSimpleFunctionNode(cc, childArgs)
	return g.Add(funcnode.Node{Kind: funcnode.KindFunctionApplication, Builtin: "not", Args: []funcnode.Ref{operand},
		ValueType: valuetype.New(valuetype.Boolean, 1), OrigExpr: e.Id})
}

func buildFunctionApplication(cc *CompilerContext, tmpl *qflow.Template, args BuildArgs, e *qflow.Expression) funcnode.Ref {
	g := arenaFor(cc, tmpl)
	argRefs := make([]funcnode.Ref, 0, len(e.Args))
	for _, a := range e.Args {
		childArgs := args
		childArgs.Expr = a
		childArgs.Writability = nil
		argRefs = append(argRefs, BuildSimpleFunctionNode(cc, childArgs))
	}

	argRefs = RemoveRedundantArguments(g, e.Builtin, argRefs)

	if folded, ok := CheckConstantResult(g, e.Builtin, argRefs); ok {
		folded.OrigExpr = e.Id
		return g.Add(*folded)
	}

	resultType := inferApplicationType(g, e.Builtin, argRefs)
	return g.Add(funcnode.Node{Kind: funcnode.KindFunctionApplication, Builtin: e.Builtin, Args: argRefs,
		ValueType: resultType, OrigExpr: e.Id, LocalToArea: args.Origin, LocalToDefun: args.Defun})
}

func inferApplicationType(g *funcnode.Graph, builtin string, args []funcnode.Ref) *valuetype.ValueType {
	switch builtin {
	case "and", "or", "not", "equal", "notEqual", "bool":
		return valuetype.New(valuetype.Boolean, 1)
	case "plus", "minus", "mul", "div", "uminus", "sum", "logb", "log10", "log2", "ln", "pow", "exp":
		return valuetype.New(valuetype.Number, 1)
	case "concat", "concatStr":
		return valuetype.New(valuetype.String, 1)
	case "first", "last":
		if len(args) > 0 {
			n := g.Get(args[0])
			if n != nil {
				return n.ValueType
			}
		}
		return valuetype.NewUndef()
	case "merge", "mergeWrite":
		vt := valuetype.NewUndef()
		for _, a := range args {
			vt = valuetype.Merge(vt, g.Get(a).ValueType)
		}
		return vt
	default:
		return &valuetype.ValueType{Caps: valuetype.AnyData, Sizes: []valuetype.Range{{Min: 0, Max: 1, Unbounded: true}}}
	}
}
