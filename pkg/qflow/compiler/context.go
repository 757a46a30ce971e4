// Package compiler implements spec.md §4.D: converting expression trees
// into function nodes per area template and defun context, with
// optimisation, cycle-guarded resolution, and qualifier simplification.
package compiler

import (
	"fmt"

	"github.com/qflowdev/qflow/internal/log"
	"github.com/qflowdev/qflow/pkg/qflow"
	"github.com/qflowdev/qflow/pkg/qflow/funcnode"
)

// exportStackDepthLimit is the "ten" of spec.md §5's "gEIStack"/"gEICnt"
// recursion guard: "when the same (pathStr, templateId) is entered ten
// times in one stub cycle, compilation throws."
const exportStackDepthLimit = 10

// exportKey identifies one entry on the per-cycle export recursion guard.
type exportKey struct {
	PathStr    string
	TemplateID int
}

// CompilerContext packages the module-level mutable state the source
// keeps as globals (gStubCycleNr, gParameterStack, gEIStack, gEICnt,
// exportPaths, pathToExportId, per-template caches) into one value
// passed explicitly through the compiler, per spec.md §9 "Global mutable
// state" — this preserves the observable semantics while making
// reentrancy explicit instead of relying on package-level globals.
type CompilerContext struct {
	Templates *qflow.TemplateTree
	Global    *funcnode.Graph

	Optimize bool

	stubCycleNr int
	exportCount map[exportKey]int

	// parameterStack holds the defun parameter bindings currently in
	// scope, innermost last.
	parameterStack []map[int]funcnode.Ref

	exportPaths    map[int]string
	pathToExportID map[string]int
	nextExportID   int

	cycleFallbacks []cycleFallback
}

type cycleFallback struct {
	PathStr    string
	TemplateID int
}

// NewCompilerContext creates a context for compiling against templates,
// with a fresh global function-node arena for template-independent nodes.
func NewCompilerContext(templates *qflow.TemplateTree) *CompilerContext {
	return &CompilerContext{
		Templates:      templates,
		Global:         funcnode.NewGraph(),
		Optimize:       true,
		exportCount:    make(map[exportKey]int),
		exportPaths:    make(map[int]string),
		pathToExportID: make(map[string]int),
	}
}

// NextStubCycle advances and returns the compilation-fixpoint cycle
// counter. Called before recursive builds that could revisit themselves
// (spec.md §4.D "Cycle handling").
func (c *CompilerContext) NextStubCycle() int {
	c.stubCycleNr++
	c.exportCount = make(map[exportKey]int)
	return c.stubCycleNr
}

// CurrentCycle returns the active stub cycle number.
func (c *CompilerContext) CurrentCycle() int {
	return c.stubCycleNr
}

// EnterExport increments the recursion guard for (pathStr, templateID)
// and panics with a StructuralInvariantError once the same key has been
// entered exportStackDepthLimit times within one stub cycle
// (spec.md §5 "gEIStack"/"gEICnt").
func (c *CompilerContext) EnterExport(pathStr string, templateID int) func() {
	key := exportKey{pathStr, templateID}
	c.exportCount[key]++
	if c.exportCount[key] >= exportStackDepthLimit {
		panic(qflow.StructuralInvariantError{
			Path:       pathStr,
			TemplateID: templateID,
			Detail:     fmt.Sprintf("export stack reached %d entries in one stub cycle", exportStackDepthLimit),
		})
	}
	return func() {
		c.exportCount[key]--
	}
}

// PushParameters pushes a defun's parameter bindings onto the
// parameter stack for the duration of compiling its body.
func (c *CompilerContext) PushParameters(bindings map[int]funcnode.Ref) {
	c.parameterStack = append(c.parameterStack, bindings)
}

// PopParameters pops the innermost defun's parameter bindings.
func (c *CompilerContext) PopParameters() {
	c.parameterStack = c.parameterStack[:len(c.parameterStack)-1]
}

// LookupParameter resolves a defun parameter index against the
// currently active (innermost) parameter scope.
func (c *CompilerContext) LookupParameter(idx int) (funcnode.Ref, bool) {
	if len(c.parameterStack) == 0 {
		return funcnode.NoRef, false
	}
	ref, ok := c.parameterStack[len(c.parameterStack)-1][idx]
	return ref, ok
}

// AllocateExportID assigns (or returns the existing) export id for path,
// used when a node is exported for remote query evaluation (spec.md
// GLOSSARY "Export id").
func (c *CompilerContext) AllocateExportID(path string) int {
	if id, ok := c.pathToExportID[path]; ok {
		return id
	}
	c.nextExportID++
	id := c.nextExportID
	c.pathToExportID[path] = id
	c.exportPaths[id] = path
	return id
}

// WarnCycle records a qualifier/export cycle, logged once per path via
// the shared log.WarnOnce dedup table (spec.md §7 "Cycle — ... warned-
// once and the offending alternative is dropped").
func (c *CompilerContext) WarnCycle(pathStr string, templateID int) {
	c.cycleFallbacks = append(c.cycleFallbacks, cycleFallback{pathStr, templateID})
	log.WarnOnce(fmt.Sprintf("cycle:%s:%d", pathStr, templateID),
		"possible cycle detected at path %q (template %d); falling back to query-on-function encoding", pathStr, templateID)
}
