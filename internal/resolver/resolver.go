package resolver

import (
	"context"
	"errors"
	"time"

	"github.com/vyrodovalexey/meshrouter/internal/observability"
	"github.com/vyrodovalexey/meshrouter/internal/util"
)

// DomainSuffix is appended to a service path to form its mesh domain.
const DomainSuffix = ".rpc"

// Resolver names used in logs and metrics.
const (
	KindSystem = "system"
	KindDNS    = "dns"
	KindStatic = "static"
)

var errNoAddress = errors.New("no address in answer")

// Resolver maps a service path to the IP address of its mesh sidecar.
//
// A failed lookup reports ok=false. Implementations log and count the
// failure themselves; callers only see whether a target exists.
type Resolver interface {
	Resolve(ctx context.Context, servicePath string) (ip string, ok bool)
}

// ServiceDomain returns the mesh domain of a service path.
func ServiceDomain(servicePath string) string {
	return servicePath + DomainSuffix
}

// Option configures a resolver.
type Option func(*options)

type options struct {
	timeout time.Duration
	logger  observability.Logger
	metrics *observability.Metrics
	lookup  LookupFunc
}

func newOptions(opts []Option) options {
	o := options{
		logger: observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithTimeout bounds a single lookup. Zero leaves the caller's context
// deadline as the only limit.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.timeout = timeout
	}
}

// WithLogger sets the logger used for failed lookups.
func WithLogger(logger observability.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics sets the metrics lookups are recorded on.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(o *options) {
		o.metrics = metrics
	}
}

// WithLookupFunc replaces the platform lookup used by SystemResolver.
func WithLookupFunc(fn LookupFunc) Option {
	return func(o *options) {
		o.lookup = fn
	}
}

func (o *options) context(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.timeout > 0 {
		return context.WithTimeout(ctx, o.timeout)
	}
	return context.WithCancel(ctx)
}

// finish records the lookup and turns its outcome into the (ip, ok) pair.
func (o *options) finish(ctx context.Context, kind, domain string, start time.Time, ip string, err error) (string, bool) {
	elapsed := time.Since(start)
	if err == nil && ip == "" {
		err = errNoAddress
	}
	o.metrics.RecordLookup(kind, err == nil, elapsed)

	if err != nil {
		o.logger.WithContext(ctx).Error("mesh address lookup failed",
			observability.String("resolver", kind),
			observability.String("domain", domain),
			observability.Duration("duration", elapsed),
			observability.Error(util.NewResolveError(domain, err)),
		)
		return "", false
	}

	o.logger.WithContext(ctx).Debug("mesh address resolved",
		observability.String("resolver", kind),
		observability.String("domain", domain),
		observability.String("ip", ip),
	)
	return ip, true
}
