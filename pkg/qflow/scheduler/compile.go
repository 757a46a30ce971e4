package scheduler

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// CompileDeduper collapses concurrent recompute requests for the same
// (template, expression) cache slot into one actual compile: two
// external edits landing in the same task-queue turn must not compile
// the same slot twice (spec.md §5.13).
type CompileDeduper struct {
	group singleflight.Group
}

// NewCompileDeduper creates an empty CompileDeduper.
func NewCompileDeduper() *CompileDeduper { return &CompileDeduper{} }

// slotKey identifies one (template, expression) compile slot.
func slotKey(templateID int, exprID int64) string {
	return fmt.Sprintf("%d:%d", templateID, exprID)
}

// Compile runs compile for (templateID, exprID) at most once among
// concurrent callers sharing that key; late callers block and receive
// the same result as the in-flight call.
func (d *CompileDeduper) Compile(templateID int, exprID int64, compile func() (interface{}, error)) (interface{}, error) {
	v, err, _ := d.group.Do(slotKey(templateID, exprID), compile)
	return v, err
}

// CompileIndependentAreaTemplates compiles each of templateIDs via
// compile, running them concurrently when the caller has already
// proven they share no qualifier state (spec.md §5.13 "provably share
// no qualifier state"). Each compile runs in its own goroutine; the
// first compile error (or cancellation of ctx) cancels the ctx handed
// to the remaining compiles, and that first error is returned once all
// of them have finished.
func CompileIndependentAreaTemplates(ctx context.Context, templateIDs []int, compile func(ctx context.Context, templateID int) error) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, id := range templateIDs {
		id := id
		g.Go(func() error {
			return compile(ctx, id)
		})
	}
	return g.Wait()
}
