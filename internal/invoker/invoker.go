// Package invoker models the endpoints a consumer can call and the
// call being routed.
//
// An Invoker is an opaque handle to one provider endpoint, identified by
// its URL. An Invocation describes a single outgoing call: the consumer
// URL that issued it and the method being invoked. Both are immutable;
// routers that need a different endpoint address build a new Invoker
// with WithURL instead of mutating the one they were given.
package invoker

import (
	"fmt"

	"github.com/vyrodovalexey/meshrouter/internal/rpcurl"
)

// Invoker is a callable endpoint of a provider.
type Invoker struct {
	url *rpcurl.URL
}

// New creates an Invoker for the given endpoint URL.
func New(u *rpcurl.URL) *Invoker {
	return &Invoker{url: u}
}

// Parse creates an Invoker from a raw endpoint URL.
func Parse(raw string) (*Invoker, error) {
	u, err := rpcurl.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid invoker url: %w", err)
	}
	return New(u), nil
}

// URL returns the endpoint URL.
func (i *Invoker) URL() *rpcurl.URL {
	return i.url
}

// Address returns the endpoint network address.
func (i *Invoker) Address() string {
	if i.url == nil {
		return ""
	}
	return i.url.Address()
}

// WithAddress returns a copy of the invoker pointing at address.
// The receiver is left unchanged.
func (i *Invoker) WithAddress(address string) (*Invoker, error) {
	if i.url == nil {
		return nil, fmt.Errorf("invoker has no url")
	}
	u, err := i.url.WithAddress(address)
	if err != nil {
		return nil, err
	}
	return i.WithURL(u), nil
}

// WithURL returns a copy of the invoker with a different URL.
func (i *Invoker) WithURL(u *rpcurl.URL) *Invoker {
	return &Invoker{url: u}
}

// String implements fmt.Stringer.
func (i *Invoker) String() string {
	if i.url == nil {
		return "<nil>"
	}
	return i.url.FullString()
}

// Invocation is a single outgoing call.
type Invocation struct {
	Consumer *rpcurl.URL
	Method   string
}

// NewInvocation creates an Invocation.
func NewInvocation(consumer *rpcurl.URL, method string) *Invocation {
	return &Invocation{Consumer: consumer, Method: method}
}

// Path returns the service path of the call.
func (inv *Invocation) Path() string {
	if inv == nil || inv.Consumer == nil {
		return ""
	}
	return inv.Consumer.Path()
}

// Host returns the consumer host.
func (inv *Invocation) Host() string {
	if inv == nil || inv.Consumer == nil {
		return ""
	}
	return inv.Consumer.Host()
}

// ServiceKey returns the service key of the call.
func (inv *Invocation) ServiceKey() string {
	if inv == nil || inv.Consumer == nil {
		return ""
	}
	return inv.Consumer.ServiceKey()
}

// Copy returns a shallow copy of the slice. Invokers are immutable, so
// sharing the elements is safe.
func Copy(invokers []*Invoker) []*Invoker {
	if invokers == nil {
		return nil
	}
	out := make([]*Invoker, len(invokers))
	copy(out, invokers)
	return out
}

// Addresses returns the address of each invoker in order.
func Addresses(invokers []*Invoker) []string {
	out := make([]string, 0, len(invokers))
	for _, inv := range invokers {
		out = append(out, inv.Address())
	}
	return out
}
