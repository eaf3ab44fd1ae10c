package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		namespace string
	}{
		{name: "with custom namespace", namespace: "custom"},
		{name: "with empty namespace uses default", namespace: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			metrics := NewMetrics(tt.namespace)

			require.NotNil(t, metrics)
			assert.NotNil(t, metrics.routeEvaluations)
			assert.NotNil(t, metrics.resolverLookups)
			assert.NotNil(t, metrics.resolverDuration)
			assert.NotNil(t, metrics.rulesLoaded)
			assert.NotNil(t, metrics.configReloads)
			assert.NotNil(t, metrics.Registry())
		})
	}
}

func TestMetrics_RecordRouteEvaluation(t *testing.T) {
	t.Parallel()

	metrics := NewMetrics("test")

	metrics.RecordRouteEvaluation("mesh", "matched")
	metrics.RecordRouteEvaluation("mesh", "matched")
	metrics.RecordRouteEvaluation("mesh", "pass_through")

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.routeEvaluations.WithLabelValues("mesh", "matched")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.routeEvaluations.WithLabelValues("mesh", "pass_through")))
}

func TestMetrics_RecordLookup(t *testing.T) {
	t.Parallel()

	metrics := NewMetrics("test")

	metrics.RecordLookup("system", true, 2*time.Millisecond)
	metrics.RecordLookup("system", false, time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.resolverLookups.WithLabelValues("system", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.resolverLookups.WithLabelValues("system", "failure")))
}

func TestMetrics_Breaker(t *testing.T) {
	t.Parallel()

	metrics := NewMetrics("test")

	metrics.RecordBreakerStateChange("closed", "open")
	metrics.RecordBreakerRejection()
	metrics.RecordBreakerRejection()

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.breakerChanges.WithLabelValues("closed", "open")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.breakerRejects))
}

func TestMetrics_Gauges(t *testing.T) {
	t.Parallel()

	metrics := NewMetrics("test")

	metrics.SetRulesLoaded(3)
	metrics.RecordConfigReload(true)
	metrics.RecordConfigReload(false)
	metrics.SetBuildInfo("1.0.0", "abc123")

	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.rulesLoaded))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.configReloads.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.configReloads.WithLabelValues("failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.buildInfo.WithLabelValues("1.0.0", "abc123")))
}

func TestMetrics_NilReceiver(t *testing.T) {
	t.Parallel()

	var metrics *Metrics

	assert.NotPanics(t, func() {
		metrics.RecordRouteEvaluation("mesh", "matched")
		metrics.RecordLookup("dns", false, time.Millisecond)
		metrics.RecordBreakerStateChange("open", "half-open")
		metrics.RecordBreakerRejection()
		metrics.SetRulesLoaded(1)
		metrics.RecordConfigReload(true)
		metrics.SetBuildInfo("dev", "unknown")
	})
}

func TestMetrics_Handler(t *testing.T) {
	t.Parallel()

	metrics := NewMetrics("test")
	metrics.RecordRouteEvaluation("mesh", "forced_empty")

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `test_router_evaluations_total{outcome="forced_empty",router="mesh"} 1`)
}
