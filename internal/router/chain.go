package router

import (
	"context"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/vyrodovalexey/meshrouter/internal/invoker"
)

// Router narrows the invokers a call may use.
type Router interface {
	// Route returns the invokers the call may use. It must not modify
	// the given slice or its elements.
	Route(ctx context.Context, invokers []*invoker.Invoker, inv *invoker.Invocation) []*invoker.Invoker
	// Kind names the router implementation.
	Kind() string
	// Compare orders routers of the same kind. A positive result means the
	// receiver runs after other.
	Compare(other Router) int
}

// Evaluator is implemented by routers that report their outcome.
type Evaluator interface {
	Evaluate(ctx context.Context, invokers []*invoker.Invoker, inv *invoker.Invocation) Result
}

// Step describes what one router of a chain did with a call.
type Step struct {
	Router   Router
	Outcome  string
	Invokers []*invoker.Invoker
}

// Chain applies an ordered list of routers, feeding each router the
// output of the previous one. The list can be replaced while calls are
// being routed.
type Chain struct {
	routers atomic.Pointer[[]Router]
}

// NewChain creates a Chain holding routers in sorted order.
func NewChain(routers ...Router) *Chain {
	c := &Chain{}
	c.SetRouters(routers)
	return c
}

// SetRouters replaces the routers of the chain. The slice is copied and
// sorted; nil entries are dropped.
func (c *Chain) SetRouters(routers []Router) {
	sorted := make([]Router, 0, len(routers))
	for _, r := range routers {
		if r != nil {
			sorted = append(sorted, r)
		}
	}
	SortRouters(sorted)
	c.routers.Store(&sorted)
}

// Routers returns the routers in application order.
func (c *Chain) Routers() []Router {
	p := c.routers.Load()
	if p == nil {
		return nil
	}
	return slices.Clone(*p)
}

// Len returns the number of routers.
func (c *Chain) Len() int {
	p := c.routers.Load()
	if p == nil {
		return 0
	}
	return len(*p)
}

// Route applies every router in order.
func (c *Chain) Route(ctx context.Context, invokers []*invoker.Invoker, inv *invoker.Invocation) []*invoker.Invoker {
	out, _ := c.Evaluate(ctx, invokers, inv)
	return out
}

// Evaluate applies every router in order and records a Step per router.
// Routers that do not implement Evaluator report the outcome "routed".
func (c *Chain) Evaluate(ctx context.Context, invokers []*invoker.Invoker, inv *invoker.Invocation) ([]*invoker.Invoker, []Step) {
	p := c.routers.Load()
	if p == nil {
		return invokers, nil
	}

	routers := *p
	steps := make([]Step, 0, len(routers))
	out := invokers
	for _, r := range routers {
		outcome := "routed"
		if ev, ok := r.(Evaluator); ok {
			res := ev.Evaluate(ctx, out, inv)
			out = res.Invokers
			outcome = res.Outcome.String()
		} else {
			out = r.Route(ctx, out, inv)
		}
		steps = append(steps, Step{Router: r, Outcome: outcome, Invokers: out})
	}
	return out, steps
}

// SortRouters sorts routers in place, stably, in application order.
func SortRouters(routers []Router) {
	slices.SortStableFunc(routers, compareRouters)
}

// compareRouters orders routers of the same kind with their own Compare.
// Across kinds the side whose Compare claims to be greater runs later; if
// both or neither claim it, the kind names decide.
func compareRouters(a, b Router) int {
	if a.Kind() == b.Kind() {
		return a.Compare(b)
	}

	aAfter := a.Compare(b) > 0
	bAfter := b.Compare(a) > 0
	switch {
	case aAfter && !bAfter:
		return 1
	case bAfter && !aAfter:
		return -1
	default:
		return strings.Compare(a.Kind(), b.Kind())
	}
}
