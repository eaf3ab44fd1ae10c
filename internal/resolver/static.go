package resolver

import (
	"context"
	"time"
)

// StaticResolver answers from a fixed table keyed by service path.
// Keys may also be given in their domain form (path + ".rpc").
type StaticResolver struct {
	hosts map[string]string
	opts  options
}

// NewStaticResolver creates a StaticResolver. The map is copied.
func NewStaticResolver(hosts map[string]string, opts ...Option) *StaticResolver {
	table := make(map[string]string, len(hosts))
	for k, v := range hosts {
		table[k] = v
	}
	return &StaticResolver{hosts: table, opts: newOptions(opts)}
}

// Resolve implements Resolver.
func (r *StaticResolver) Resolve(ctx context.Context, servicePath string) (string, bool) {
	domain := ServiceDomain(servicePath)
	start := time.Now()

	ip, found := r.hosts[servicePath]
	if !found {
		ip = r.hosts[domain]
	}
	return r.opts.finish(ctx, KindStatic, domain, start, ip, nil)
}
