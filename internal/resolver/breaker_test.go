package resolver

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/meshrouter/internal/observability"
)

// countingResolver answers from a table that can change during a test.
type countingResolver struct {
	mu    sync.Mutex
	hosts map[string]string
	calls atomic.Int32
}

func (r *countingResolver) Resolve(_ context.Context, servicePath string) (string, bool) {
	r.calls.Add(1)
	r.mu.Lock()
	defer r.mu.Unlock()
	ip, ok := r.hosts[servicePath]
	return ip, ok
}

func (r *countingResolver) set(servicePath, ip string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hosts[servicePath] = ip
}

func (r *countingResolver) remove(servicePath string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.hosts, servicePath)
}

func TestNewBreakerResolver_Defaults(t *testing.T) {
	t.Parallel()

	r := NewBreakerResolver(&countingResolver{}, 0, 0)
	assert.Equal(t, uint32(DefaultBreakerFailures), r.failures)
	assert.Equal(t, DefaultBreakerOpenTimeout, r.openTimeout)
	assert.Equal(t, gobreaker.StateClosed, r.State("com.foo.BarService"))
}

func TestBreakerResolver_PassesThrough(t *testing.T) {
	t.Parallel()

	next := &countingResolver{hosts: map[string]string{"com.foo.BarService": "10.1.0.7"}}
	r := NewBreakerResolver(next, 2, time.Minute)

	for range 3 {
		ip, ok := r.Resolve(context.Background(), "com.foo.BarService")
		require.True(t, ok)
		assert.Equal(t, "10.1.0.7", ip)
	}
	assert.Equal(t, int32(3), next.calls.Load())
	assert.Equal(t, gobreaker.StateClosed, r.State("com.foo.BarService"))
}

func TestBreakerResolver_OpensAfterConsecutiveFailures(t *testing.T) {
	t.Parallel()

	logger, logs := newObservedLogger()
	metrics := observability.NewMetrics("test")
	next := &countingResolver{hosts: map[string]string{"com.foo.BazService": "10.1.0.9"}}
	r := NewBreakerResolver(next, 2, time.Minute, WithLogger(logger), WithMetrics(metrics))

	for range 2 {
		_, ok := r.Resolve(context.Background(), "com.foo.BarService")
		assert.False(t, ok)
	}
	assert.Equal(t, gobreaker.StateOpen, r.State("com.foo.BarService"))

	_, ok := r.Resolve(context.Background(), "com.foo.BarService")
	assert.False(t, ok)
	assert.Equal(t, int32(2), next.calls.Load(), "open breaker skips the lookup")

	ip, ok := r.Resolve(context.Background(), "com.foo.BazService")
	require.True(t, ok, "other domains are unaffected")
	assert.Equal(t, "10.1.0.9", ip)

	assert.Equal(t, 1, logs.FilterMessage("mesh lookup breaker state changed").Len())
	assert.Equal(t, 1, logs.FilterMessage("mesh address lookup skipped, breaker open").Len())

	count, err := testutil.GatherAndCount(metrics.Registry(), "test_resolver_breaker_state_changes_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count, "closed to open")
}

func TestBreakerResolver_SuccessResetsFailureRun(t *testing.T) {
	t.Parallel()

	next := &countingResolver{hosts: map[string]string{}}
	r := NewBreakerResolver(next, 2, time.Minute)

	_, ok := r.Resolve(context.Background(), "svc")
	assert.False(t, ok)

	next.set("svc", "10.1.0.7")
	_, ok = r.Resolve(context.Background(), "svc")
	assert.True(t, ok)

	next.remove("svc")
	_, ok = r.Resolve(context.Background(), "svc")
	assert.False(t, ok)

	assert.Equal(t, gobreaker.StateClosed, r.State("svc"))
}

func TestBreakerResolver_HalfOpenProbe(t *testing.T) {
	t.Parallel()

	next := &countingResolver{hosts: map[string]string{}}
	r := NewBreakerResolver(next, 1, 50*time.Millisecond)

	_, ok := r.Resolve(context.Background(), "svc")
	require.False(t, ok)
	require.Equal(t, gobreaker.StateOpen, r.State("svc"))

	next.set("svc", "10.1.0.7")
	time.Sleep(80 * time.Millisecond)

	ip, ok := r.Resolve(context.Background(), "svc")
	require.True(t, ok, "probe reaches the wrapped resolver")
	assert.Equal(t, "10.1.0.7", ip)
	assert.Equal(t, gobreaker.StateClosed, r.State("svc"))
}

func TestSafeIntToUint32(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint32(0), safeIntToUint32(-1))
	assert.Equal(t, uint32(7), safeIntToUint32(7))
}
