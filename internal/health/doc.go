// Package health provides liveness and readiness endpoints for a running
// mesh router.
//
// Readiness is the aggregate of registered checks. A check reporting
// unhealthy turns the whole response unhealthy and the readiness handler
// answers 503; a degraded check keeps the status code at 200.
//
//	checker := health.NewChecker(version)
//	checker.RegisterCheck("rules", func() health.Check {
//	    return health.Check{Status: health.StatusHealthy}
//	})
//
//	mux := http.NewServeMux()
//	mux.HandleFunc("/healthz", checker.HealthHandler())
//	mux.HandleFunc("/readyz", checker.ReadinessHandler())
package health
