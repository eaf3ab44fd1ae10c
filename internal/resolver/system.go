package resolver

import (
	"context"
	"net"
	"time"
)

// LookupFunc resolves a host name to its addresses.
type LookupFunc func(ctx context.Context, host string) ([]net.IPAddr, error)

// SystemResolver resolves mesh domains with the platform resolver and
// returns the first address, like a single-host lookup.
type SystemResolver struct {
	opts options
}

// NewSystemResolver creates a SystemResolver.
func NewSystemResolver(opts ...Option) *SystemResolver {
	o := newOptions(opts)
	if o.lookup == nil {
		o.lookup = net.DefaultResolver.LookupIPAddr
	}
	return &SystemResolver{opts: o}
}

// Resolve implements Resolver.
func (r *SystemResolver) Resolve(ctx context.Context, servicePath string) (string, bool) {
	domain := ServiceDomain(servicePath)

	ctx, cancel := r.opts.context(ctx)
	defer cancel()

	start := time.Now()
	addrs, err := r.opts.lookup(ctx, domain)

	var ip string
	if err == nil && len(addrs) > 0 {
		ip = addrs[0].IP.String()
	}
	return r.opts.finish(ctx, KindSystem, domain, start, ip, err)
}
