package resolver

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/vyrodovalexey/meshrouter/internal/observability"
)

// KindBreaker names the breaker wrapper in logs.
const KindBreaker = "breaker"

// Breaker defaults.
const (
	DefaultBreakerFailures    = 5
	DefaultBreakerOpenTimeout = 30 * time.Second
)

var errLookupFailed = errors.New("mesh address lookup failed")

// BreakerResolver wraps a Resolver with one circuit breaker per mesh
// domain. After a run of consecutive failures the domain's breaker opens
// and lookups of that domain report ok=false without reaching the wrapped
// resolver until the open timeout passes. A single probe is then let
// through; its outcome closes or reopens the breaker.
type BreakerResolver struct {
	next        Resolver
	failures    uint32
	openTimeout time.Duration
	opts        options

	breakers sync.Map // domain -> *gobreaker.CircuitBreaker
}

// NewBreakerResolver wraps next. Non-positive arguments select
// DefaultBreakerFailures and DefaultBreakerOpenTimeout.
func NewBreakerResolver(next Resolver, failures int, openTimeout time.Duration, opts ...Option) *BreakerResolver {
	if failures <= 0 {
		failures = DefaultBreakerFailures
	}
	if openTimeout <= 0 {
		openTimeout = DefaultBreakerOpenTimeout
	}
	return &BreakerResolver{
		next:        next,
		failures:    safeIntToUint32(failures),
		openTimeout: openTimeout,
		opts:        newOptions(opts),
	}
}

// Resolve implements Resolver.
func (r *BreakerResolver) Resolve(ctx context.Context, servicePath string) (string, bool) {
	domain := ServiceDomain(servicePath)

	out, err := r.breaker(domain).Execute(func() (interface{}, error) {
		ip, ok := r.next.Resolve(ctx, servicePath)
		if !ok {
			return nil, errLookupFailed
		}
		return ip, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			r.opts.metrics.RecordBreakerRejection()
			r.opts.logger.WithContext(ctx).Debug("mesh address lookup skipped, breaker open",
				observability.String("resolver", KindBreaker),
				observability.String("domain", domain),
			)
		}
		return "", false
	}

	ip, _ := out.(string)
	return ip, true
}

// State returns the breaker state of a service's domain. Domains never
// looked up report closed.
func (r *BreakerResolver) State(servicePath string) gobreaker.State {
	if cb, ok := r.breakers.Load(ServiceDomain(servicePath)); ok {
		return cb.(*gobreaker.CircuitBreaker).State()
	}
	return gobreaker.StateClosed
}

func (r *BreakerResolver) breaker(domain string) *gobreaker.CircuitBreaker {
	if cb, ok := r.breakers.Load(domain); ok {
		return cb.(*gobreaker.CircuitBreaker)
	}

	cb, _ := r.breakers.LoadOrStore(domain, gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        domain,
		MaxRequests: 1,
		Timeout:     r.openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= r.failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			r.opts.logger.Info("mesh lookup breaker state changed",
				observability.String("resolver", KindBreaker),
				observability.String("domain", name),
				observability.String("from", from.String()),
				observability.String("to", to.String()),
			)
			r.opts.metrics.RecordBreakerStateChange(from.String(), to.String())
		},
	}))
	return cb.(*gobreaker.CircuitBreaker)
}

// safeIntToUint32 safely converts int to uint32.
func safeIntToUint32(n int) uint32 {
	if n < 0 {
		return 0
	}
	if n > int(^uint32(0)) {
		return ^uint32(0)
	}
	return uint32(n) //nolint:gosec // bounds checked above
}
