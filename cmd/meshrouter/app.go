package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/vyrodovalexey/meshrouter/internal/config"
	"github.com/vyrodovalexey/meshrouter/internal/health"
	"github.com/vyrodovalexey/meshrouter/internal/invoker"
	"github.com/vyrodovalexey/meshrouter/internal/netutil"
	"github.com/vyrodovalexey/meshrouter/internal/observability"
	"github.com/vyrodovalexey/meshrouter/internal/resolver"
	"github.com/vyrodovalexey/meshrouter/internal/router"
	"github.com/vyrodovalexey/meshrouter/internal/rpcurl"
)

const (
	providerProtocol = "dubbo"
	consumerProtocol = "consumer"
	shutdownTimeout  = 30 * time.Second
)

// application holds the wired components of a running mesh router.
type application struct {
	id       string
	config   *config.Config
	logger   observability.Logger
	metrics  *observability.Metrics
	tracer   *observability.Tracer
	resolver resolver.Resolver
	hosts    *netutil.HostSource
	chain    *router.Chain
	health   *health.Checker

	mu      sync.Mutex
	routers map[string]*router.MeshRouter

	lastReloadErr atomic.Pointer[error]
}

// newApplication builds every component from the configuration and
// installs the configured rules.
func newApplication(cfg *config.Config, logger observability.Logger) (*application, error) {
	id := uuid.NewString()
	logger = logger.With(observability.String("instance_id", id))

	metrics := observability.NewMetrics(observability.DefaultNamespace)
	metrics.SetBuildInfo(version, gitCommit)

	tracer, err := initTracer(cfg, id)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}

	res, err := buildResolver(cfg.Resolver, logger, metrics)
	if err != nil {
		_ = tracer.Shutdown(context.Background())
		return nil, err
	}

	app := &application{
		id:       id,
		config:   cfg,
		logger:   logger,
		metrics:  metrics,
		tracer:   tracer,
		resolver: res,
		hosts:    netutil.NewHostSource(cfg.LocalHost),
		chain:    router.NewChain(),
		health:   health.NewChecker(version),
		routers:  make(map[string]*router.MeshRouter),
	}

	if err := app.applyRules(cfg.Rules); err != nil {
		_ = tracer.Shutdown(context.Background())
		return nil, err
	}

	app.health.RegisterCheck("rules", health.RulesCheck(app.chain.Len))
	app.health.RegisterCheck("reload", health.ReloadCheck(app.lastReloadError))

	if _, err := app.hosts.Lookup(); err != nil {
		logger.Warn("local host lookup failed, using loopback",
			observability.String("template", app.hosts.Template()),
			observability.Error(err),
		)
	}

	return app, nil
}

// initTracer creates the tracer from the tracing section.
func initTracer(cfg *config.Config, instanceID string) (*observability.Tracer, error) {
	return observability.NewTracer(observability.TracerConfig{
		ServiceName:  cfg.Tracing.ServiceName,
		InstanceID:   instanceID,
		OTLPEndpoint: cfg.Tracing.Endpoint,
		SamplingRate: cfg.Tracing.SamplingRate,
		Enabled:      cfg.Tracing.Enabled,
	})
}

// buildResolver creates the resolver selected by the resolver section.
func buildResolver(
	cfg config.ResolverConfig,
	logger observability.Logger,
	metrics *observability.Metrics,
) (resolver.Resolver, error) {
	opts := []resolver.Option{
		resolver.WithLogger(logger),
		resolver.WithMetrics(metrics),
	}
	if d := cfg.Timeout.Duration(); d > 0 {
		opts = append(opts, resolver.WithTimeout(d))
	}

	var res resolver.Resolver
	switch cfg.Type {
	case "", config.ResolverSystem:
		res = resolver.NewSystemResolver(opts...)
	case config.ResolverDNS:
		res = resolver.NewDNSResolver(cfg.Nameserver, opts...)
	case config.ResolverStatic:
		res = resolver.NewStaticResolver(cfg.Hosts, opts...)
	default:
		return nil, fmt.Errorf("unknown resolver type %q", cfg.Type)
	}

	if cfg.Breaker.Enabled {
		res = resolver.NewBreakerResolver(res, cfg.Breaker.Failures, cfg.Breaker.OpenTimeout.Duration(),
			resolver.WithLogger(logger),
			resolver.WithMetrics(metrics),
		)
	}
	return res, nil
}

func (a *application) routerOptions(name string) []router.Option {
	return []router.Option{
		router.WithName(name),
		router.WithResolver(a.resolver),
		router.WithLocalHost(a.hosts.Host),
		router.WithLogger(a.logger),
		router.WithMetrics(a.metrics),
		router.WithTracer(a.tracer.Tracer()),
	}
}

// applyRules installs rules into the chain. Routers are matched by rule
// name: existing ones get the new rule, new names get a new router and
// names no longer present are dropped. A rule that fails to apply keeps
// its previous router if there was one.
func (a *application) applyRules(rules []config.RuleConfig) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	next := make(map[string]*router.MeshRouter, len(rules))
	ordered := make([]router.Router, 0, len(rules))
	var errs []error

	for i := range rules {
		rc := &rules[i]
		existing, known := a.routers[rc.Name]

		u, err := rc.ToURL()
		if err == nil {
			if known {
				err = existing.Update(u)
			} else {
				var created *router.MeshRouter
				created, err = router.NewMeshRouter(u, a.routerOptions(rc.Name)...)
				if err == nil {
					existing, known = created, true
				}
			}
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("rule %s: %w", rc.Name, err))
		}
		if known {
			next[rc.Name] = existing
			ordered = append(ordered, existing)
		}
	}

	a.routers = next
	a.chain.SetRouters(ordered)
	a.metrics.SetRulesLoaded(len(ordered))

	return errors.Join(errs...)
}

// reload is the configuration watcher callback.
func (a *application) reload(cfg *config.Config) {
	a.logger.Info("configuration changed, reloading rules",
		observability.Int("rules", len(cfg.Rules)),
	)

	// a.config stays the boot configuration: the resolver and host source
	// still run from it, so the warning repeats until a restart.
	if !reflect.DeepEqual(cfg.Resolver, a.config.Resolver) || cfg.LocalHost != a.config.LocalHost {
		a.logger.Warn("resolver and localHost changes take effect after a restart")
	}

	err := a.applyRules(cfg.Rules)
	a.metrics.RecordConfigReload(err == nil)
	a.setReloadError(err)
	if err != nil {
		a.logger.Error("failed to apply reloaded rules", observability.Error(err))
		return
	}

	a.logger.Info("rules reloaded", observability.Int("routers", a.chain.Len()))
}

// reloadFailed is the watcher error callback.
func (a *application) reloadFailed(err error) {
	a.metrics.RecordConfigReload(false)
	a.setReloadError(err)
}

func (a *application) setReloadError(err error) {
	if err == nil {
		a.lastReloadErr.Store(nil)
		return
	}
	a.lastReloadErr.Store(&err)
}

func (a *application) lastReloadError() error {
	if p := a.lastReloadErr.Load(); p != nil {
		return *p
	}
	return nil
}

// routerFor returns the router installed for a rule name.
func (a *application) routerFor(name string) (*router.MeshRouter, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	r, ok := a.routers[name]
	return r, ok
}

// evaluate routes one call through the chain and prints every step.
func (a *application) evaluate(ctx context.Context, service, method, addresses string, w io.Writer) error {
	invokers, err := parseInvokers(service, addresses)
	if err != nil {
		return err
	}

	consumer := rpcurl.New(consumerProtocol, a.hosts.Host(), 0, service, nil)
	inv := invoker.NewInvocation(consumer, method)

	result, steps := a.chain.Evaluate(ctx, invokers, inv)
	for _, step := range steps {
		fmt.Fprintf(w, "%s\t%s\t%s\n",
			routerName(step.Router), step.Outcome, strings.Join(invoker.Addresses(step.Invokers), ","))
	}
	fmt.Fprintf(w, "result\t%s\n", strings.Join(invoker.Addresses(result), ","))
	return nil
}

// parseInvokers builds provider invokers of a service from a comma
// separated host:port list.
func parseInvokers(service, addresses string) ([]*invoker.Invoker, error) {
	var invokers []*invoker.Invoker
	for _, addr := range strings.Split(addresses, ",") {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}

		host, portStr, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid invoker address %q: %w", addr, err)
		}
		port, err := strconv.Atoi(portStr)
		if err != nil || port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid invoker port in %q", addr)
		}

		invokers = append(invokers, invoker.New(rpcurl.New(providerProtocol, host, port, service, nil)))
	}
	return invokers, nil
}

func routerName(r router.Router) string {
	if named, ok := r.(interface{ Name() string }); ok && named.Name() != "" {
		return named.Name()
	}
	return r.Kind()
}

// httpHandler serves metrics and health endpoints.
func (a *application) httpHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(a.config.Metrics.Path, a.metrics.Handler())
	mux.HandleFunc("/healthz", a.health.HealthHandler())
	mux.HandleFunc("/readyz", a.health.ReadinessHandler())
	return mux
}

// serve keeps the router running until ctx is done: it serves metrics and
// health endpoints when enabled and reloads rules when the file changes.
func (a *application) serve(ctx context.Context, configPath string) error {
	var server *http.Server
	if a.config.Metrics.Enabled {
		listener, err := net.Listen("tcp", a.config.Metrics.Address)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", a.config.Metrics.Address, err)
		}
		server = startMetricsServer(listener, a.httpHandler(), a.logger)
		a.logger.Info("metrics server started",
			observability.String("address", listener.Addr().String()),
			observability.String("metrics_path", a.config.Metrics.Path),
		)
	}

	watcher, err := config.NewWatcher(configPath, a.reload,
		config.WithLogger(a.logger),
		config.WithErrorCallback(a.reloadFailed),
	)
	if err != nil {
		a.logger.Warn("failed to create config watcher", observability.Error(err))
	} else if err := watcher.Start(ctx); err != nil {
		a.logger.Warn("failed to start config watcher", observability.Error(err))
	}

	a.logger.Info("mesh router running", observability.Int("routers", a.chain.Len()))
	<-ctx.Done()
	a.logger.Info("received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if watcher != nil {
		_ = watcher.Stop()
	}
	if server != nil {
		if err := server.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("failed to stop metrics server", observability.Error(err))
		}
	}

	a.logger.Info("mesh router stopped")
	return nil
}

// startMetricsServer serves handler on listener in the background.
func startMetricsServer(listener net.Listener, handler http.Handler, logger observability.Logger) *http.Server {
	server := &http.Server{
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
	}

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", observability.Error(err))
		}
	}()

	return server
}

// shutdown flushes the tracer.
func (a *application) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.tracer.Shutdown(ctx); err != nil {
		a.logger.Error("failed to shutdown tracer", observability.Error(err))
	}
}
