package result

import "fmt"

// Chain composes a single upstream Source with downstream interest
// (spec.md §4.G "Results chain: each has a single data source (or two,
// for identity)"). It implements Composed so it can be the child a
// Source reports active-reference counts to, and re-exposes its
// source's downstream contract so further results can compose on top
// of it in turn.
type Chain struct {
	base
	source Source
	onChange func(Source)
}

// NewChain attaches to src, becoming one of its active composed
// children once at least one downstream Composed registers on this
// Chain (propagated transitively via AboutToAddActiveComposed).
func NewChain(src Source, onChange func(Source)) *Chain {
	return &Chain{base: newBase(), source: src, onChange: onChange}
}

func (c *Chain) SourceChanged(src Source) {
	if c.onChange != nil {
		c.onChange(src)
	}
	for child := range c.activeComposed {
		child.SourceChanged(c)
	}
}

func (c *Chain) AboutToAddActiveComposed(child Composed) {
	first := !c.IsActive()
	c.base.AboutToAddActiveComposed(child)
	if first {
		c.source.AboutToAddActiveComposed(c)
	}
}

func (c *Chain) ActiveComposedFuncRemoved(child Composed) {
	c.base.ActiveComposedFuncRemoved(child)
	if !c.IsActive() {
		c.source.ActiveComposedFuncRemoved(c)
	}
}

func (c *Chain) GetDominatedIndexer() Indexer                        { return c.source.GetDominatedIndexer() }
func (c *Chain) GetDominatedProjPathID() int                         { return c.source.GetDominatedProjPathID() }
func (c *Chain) GetDominatedMatches() []int64                        { return c.source.GetDominatedMatches() }
func (c *Chain) GetDominatedMatchesAsObj() map[int64]interface{}     { return c.source.GetDominatedMatchesAsObj() }
func (c *Chain) FilterDominatedMatches(ids []int64) []int64          { return c.source.FilterDominatedMatches(ids) }
func (c *Chain) FilterDominatedMatchesPositions(ids []int64) map[int64]int {
	return c.source.FilterDominatedMatchesPositions(ids)
}
func (c *Chain) IsMatchTransparent() bool        { return c.source.IsMatchTransparent() }
func (c *Chain) IsReplaceableTerminalResult() bool { return false }

// SetData rewires the chain onto a new source, refusing to replace a
// non-replaceable terminal data result out from under active consumers
// (spec.md §4.G "setData / setTerminalData: rewiring the chain; may
// replace a data result only if isReplaceableTerminalResult()").
func (c *Chain) SetData(newSource Source) error {
	if c.source != nil && !c.source.IsReplaceableTerminalResult() && c.IsActive() {
		if _, terminal := c.source.(*DataResult); terminal {
			return fmt.Errorf("result: cannot replace non-replaceable terminal data result while active")
		}
	}
	wasActive := c.IsActive()
	if wasActive {
		c.source.ActiveComposedFuncRemoved(c)
	}
	c.source = newSource
	if wasActive {
		c.source.AboutToAddActiveComposed(c)
	}
	c.SourceChanged(newSource)
	return nil
}

// SetTerminalData is SetData specialised for replacing the terminal
// DataResult at the root of the chain; it walks no further than the
// immediate source, matching the spec's narrower "replace a data
// result" contract.
func (c *Chain) SetTerminalData(newData *DataResult) error {
	if _, ok := c.source.(*DataResult); !ok {
		return fmt.Errorf("result: SetTerminalData called on a chain whose source is not terminal data")
	}
	return c.SetData(newData)
}

// PropagateOrderStarDemand registers fn as this chain's order-star interest
// and, on first registration, propagates the demand down to its
// source so a merge indexer further upstream can honour it
// (spec.md §4.G "Order-star propagation").
func (c *Chain) PropagateOrderStarDemand(child Composed, fn OrderStarFunc) {
	if first := c.base.PropagateOrderStar(child, fn); first {
		if os, ok := c.source.(orderStarSource); ok {
			os.PropagateOrderStarDemand(c, fn)
		}
	}
}

// WithdrawOrderStar is the inverse of PropagateOrderStarDemand.
func (c *Chain) WithdrawOrderStarDemand(child Composed) {
	if empty := c.base.WithdrawOrderStar(child); empty {
		if os, ok := c.source.(orderStarSource); ok {
			os.WithdrawOrderStarDemand(c)
		}
	}
}

type orderStarSource interface {
	PropagateOrderStarDemand(child Composed, fn OrderStarFunc)
	WithdrawOrderStarDemand(child Composed)
}
