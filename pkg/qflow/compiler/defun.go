package compiler

import (
	"github.com/qflowdev/qflow/pkg/qflow"
	"github.com/qflowdev/qflow/pkg/qflow/funcnode"
)

// BuildDefun compiles a defun body lazily: the Defun node just captures
// its free variables and an unevaluated body expression id; the body is
// only compiled when the defun is applied (spec.md §4.D "Defuns").
func BuildDefun(cc *CompilerContext, tmpl *qflow.Template, body *qflow.Expression, freeVars []funcnode.Ref, origin int) funcnode.Ref {
	g := arenaFor(cc, tmpl)
	return g.Add(funcnode.Node{
		Kind:        funcnode.KindDefun,
		FreeVars:    freeVars,
		LocalToArea: origin,
		OrigExpr:    body.Id,
	})
}

// ApplyDefun applies a defun node to constant arguments by rewriting the
// application as substitution of argument ids into the body, rather than
// an indirect call (spec.md §4.D "Applying a defun to constant arguments
// is rewritten by substituting argument ids into the body").
//
// buildBody compiles the defun's captured body expression with the
// given parameter bindings pushed onto cc's parameter stack; it is
// supplied by the caller since only it has the defun's original body
// expression and its origin template in scope.
func ApplyDefun(cc *CompilerContext, tmpl *qflow.Template, defunRef funcnode.Ref, argRefs []funcnode.Ref, buildBody func() funcnode.Ref) funcnode.Ref {
	g := arenaFor(cc, tmpl)
	n := g.Get(defunRef)
	if n == nil || n.Kind != funcnode.KindDefun {
		return funcnode.NoRef
	}

	allConst := true
	for _, a := range argRefs {
		an := g.Get(a)
		if an == nil || an.Kind != funcnode.KindConst {
			allConst = false
			break
		}
	}

	bindings := make(map[int]funcnode.Ref, len(argRefs))
	for i, a := range argRefs {
		bindings[i] = a
	}
	cc.PushParameters(bindings)
	defer cc.PopParameters()

	body := buildBody()

	if allConst {
		return body // substitution collapses straight to the folded body
	}

	return g.Add(funcnode.Node{
		Kind: funcnode.KindDefunNode,
		Body: body,
		Args: argRefs,
	})
}
