// Package observability provides logging, metrics, and tracing
// functionality for the mesh router.
//
// This package implements the three pillars of observability:
// structured logging via zap, Prometheus metrics collection, and
// distributed tracing via OpenTelemetry with OTLP export.
//
// # Logging
//
// The Logger interface provides structured logging:
//
//	logger, err := observability.NewLogger(observability.LogConfig{
//	    Level:  "info",
//	    Format: "json",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
//	logger.Info("route evaluated",
//	    observability.String("service", "com.foo.BarService"),
//	    observability.String("outcome", "matched"),
//	)
//
// # Metrics
//
// Routing outcomes, resolver lookups and configuration reloads are
// recorded on a dedicated registry:
//
//	metrics := observability.NewMetrics("meshrouter")
//	http.Handle("/metrics", metrics.Handler())
//
// # Tracing
//
// OpenTelemetry distributed tracing with OTLP export:
//
//	tracer, err := observability.NewTracer(observability.TracerConfig{
//	    Enabled:      true,
//	    OTLPEndpoint: "localhost:4317",
//	    SamplingRate: 1.0,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tracer.Shutdown(ctx)
package observability
