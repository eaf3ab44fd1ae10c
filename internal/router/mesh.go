package router

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/meshrouter/internal/invoker"
	"github.com/vyrodovalexey/meshrouter/internal/netutil"
	"github.com/vyrodovalexey/meshrouter/internal/observability"
	"github.com/vyrodovalexey/meshrouter/internal/resolver"
	"github.com/vyrodovalexey/meshrouter/internal/rpcurl"
)

// KindMesh is the Kind of MeshRouter.
const KindMesh = "mesh"

const (
	tracerName = "github.com/vyrodovalexey/meshrouter/internal/router"
	spanName   = "mesh_router.route"
)

var errNilInvocation = errors.New("invocation is nil")

// Outcome tells how an evaluation ended.
type Outcome int

const (
	// OutcomePassThrough: input empty, host not matched, or redirect off.
	OutcomePassThrough Outcome = iota
	// OutcomeMatched: the first invoker was rewritten to the sidecar.
	OutcomeMatched
	// OutcomeFallbackOriginal: no sidecar found, input returned.
	OutcomeFallbackOriginal
	// OutcomeForcedEmpty: no sidecar found and the rule is forced.
	OutcomeForcedEmpty
	// OutcomeFailed: evaluation faulted and the input was returned.
	OutcomeFailed
)

// String returns the outcome name used in logs and metrics.
func (o Outcome) String() string {
	switch o {
	case OutcomePassThrough:
		return "pass_through"
	case OutcomeMatched:
		return "matched"
	case OutcomeFallbackOriginal:
		return "fallback_original"
	case OutcomeForcedEmpty:
		return "forced_empty"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is the outcome of one evaluation.
type Result struct {
	Invokers []*invoker.Invoker
	Outcome  Outcome
}

// MeshRouter redirects calls to a service mesh sidecar when the local host
// matches its rule.
type MeshRouter struct {
	name      string
	rule      atomic.Pointer[Rule]
	url       atomic.Pointer[rpcurl.URL]
	resolver  resolver.Resolver
	localHost func() string
	logger    observability.Logger
	metrics   *observability.Metrics
	tracer    trace.Tracer
}

// Option configures a MeshRouter.
type Option func(*MeshRouter)

// WithName sets the name used in logs and metrics. Defaults to KindMesh.
func WithName(name string) Option {
	return func(r *MeshRouter) {
		if name != "" {
			r.name = name
		}
	}
}

// WithResolver sets the sidecar resolver. Defaults to a SystemResolver.
func WithResolver(res resolver.Resolver) Option {
	return func(r *MeshRouter) {
		r.resolver = res
	}
}

// WithLocalHost sets the function returning the local host address.
// Defaults to netutil.LocalHost.
func WithLocalHost(fn func() string) Option {
	return func(r *MeshRouter) {
		if fn != nil {
			r.localHost = fn
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(r *MeshRouter) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics sets the metrics evaluations are counted on.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(r *MeshRouter) {
		r.metrics = metrics
	}
}

// WithTracer sets the tracer. Defaults to the global tracer provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(r *MeshRouter) {
		if tracer != nil {
			r.tracer = tracer
		}
	}
}

// NewMeshRouter creates a MeshRouter from a configuration URL.
// It fails with an InvalidRuleError when the URL carries no rule text.
func NewMeshRouter(u *rpcurl.URL, opts ...Option) (*MeshRouter, error) {
	r := &MeshRouter{
		name:      KindMesh,
		localHost: netutil.LocalHost,
		logger:    observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.tracer == nil {
		r.tracer = otel.Tracer(tracerName)
	}
	if r.resolver == nil {
		r.resolver = resolver.NewSystemResolver(
			resolver.WithLogger(r.logger),
			resolver.WithMetrics(r.metrics),
		)
	}

	if err := r.Update(u); err != nil {
		return nil, err
	}
	return r, nil
}

// Update parses the rule carried by u and installs it. On error the
// current rule stays in place.
func (r *MeshRouter) Update(u *rpcurl.URL) error {
	rule, err := RuleFromURL(u)
	if err != nil {
		return err
	}

	r.url.Store(u)
	r.rule.Store(rule)

	r.logger.Info("mesh rule installed",
		observability.String("router", r.name),
		observability.String("service", u.Path()),
		observability.String("host_pattern", rule.HostPattern),
		observability.Bool("redirect", rule.Redirect),
		observability.Int("priority", rule.Priority),
		observability.Bool("force", rule.Force),
		observability.String("mesh_port", rule.MeshPort),
	)
	return nil
}

// Name returns the router name.
func (r *MeshRouter) Name() string {
	return r.name
}

// Rule returns the installed rule.
func (r *MeshRouter) Rule() *Rule {
	return r.rule.Load()
}

// URL returns the configuration URL of the installed rule.
func (r *MeshRouter) URL() *rpcurl.URL {
	return r.url.Load()
}

// Kind implements Router.
func (r *MeshRouter) Kind() string {
	return KindMesh
}

// Priority returns the priority of the installed rule.
func (r *MeshRouter) Priority() int {
	return r.Rule().Priority
}

// Route implements Router.
func (r *MeshRouter) Route(ctx context.Context, invokers []*invoker.Invoker, inv *invoker.Invocation) []*invoker.Invoker {
	return r.Evaluate(ctx, invokers, inv).Invokers
}

// Evaluate routes one call and reports how the decision was made.
//
// The caller's slice and invokers are never modified. When the call is
// redirected the result holds a copy of the first invoker pointing at
// <sidecar ip>:<mesh port>. Any fault during evaluation is logged and the
// input is returned with OutcomeFailed.
func (r *MeshRouter) Evaluate(ctx context.Context, invokers []*invoker.Invoker, inv *invoker.Invocation) (res Result) {
	ctx, span := r.tracer.Start(ctx, spanName, trace.WithSpanKind(trace.SpanKindInternal))
	rule := r.Rule()

	defer func() {
		if p := recover(); p != nil {
			res = r.fail(ctx, span, rule, invokers, fmt.Errorf("panic: %v", p))
		}
		span.SetAttributes(
			attribute.String("mesh_router.name", r.name),
			attribute.String("mesh_router.outcome", res.Outcome.String()),
			attribute.Int("mesh_router.invokers.in", len(invokers)),
			attribute.Int("mesh_router.invokers.out", len(res.Invokers)),
		)
		span.End()
		r.metrics.RecordRouteEvaluation(r.name, res.Outcome.String())
	}()

	res, err := r.evaluate(ctx, span, rule, invokers, inv)
	if err != nil {
		return r.fail(ctx, span, rule, invokers, err)
	}
	return res
}

func (r *MeshRouter) evaluate(
	ctx context.Context,
	span trace.Span,
	rule *Rule,
	invokers []*invoker.Invoker,
	inv *invoker.Invocation,
) (Result, error) {
	if len(invokers) == 0 {
		return Result{Invokers: invokers, Outcome: OutcomePassThrough}, nil
	}

	localHost := r.localHost()
	span.SetAttributes(
		attribute.String("mesh_router.local_host", localHost),
		attribute.String("mesh_router.host_pattern", rule.HostPattern),
	)
	if !MatchGlob(rule.HostPattern, localHost) || !rule.Redirect {
		return Result{Invokers: invokers, Outcome: OutcomePassThrough}, nil
	}

	if inv == nil || inv.Consumer == nil {
		return Result{}, errNilInvocation
	}

	servicePath := inv.Path()
	span.SetAttributes(attribute.String("mesh_router.domain", resolver.ServiceDomain(servicePath)))

	if ip, ok := r.resolver.Resolve(ctx, servicePath); ok {
		target, err := invokers[0].WithAddress(net.JoinHostPort(ip, rule.MeshPort))
		if err != nil {
			return Result{}, fmt.Errorf("failed to rewrite invoker address: %w", err)
		}
		r.logger.WithContext(ctx).Debug("call redirected to mesh sidecar",
			observability.String("router", r.name),
			observability.String("service", servicePath),
			observability.String("from", invokers[0].Address()),
			observability.String("to", target.Address()),
		)
		return Result{Invokers: []*invoker.Invoker{target}, Outcome: OutcomeMatched}, nil
	}

	if rule.Force {
		r.logger.WithContext(ctx).Warn("route result is empty and force is set",
			observability.String("router", r.name),
			observability.String("consumer", localHost),
			observability.String("consumer_host", inv.Host()),
			observability.String("service", inv.ServiceKey()),
			observability.String("rule", rule.Text),
		)
		return Result{Invokers: []*invoker.Invoker{}, Outcome: OutcomeForcedEmpty}, nil
	}

	return Result{Invokers: invokers, Outcome: OutcomeFallbackOriginal}, nil
}

func (r *MeshRouter) fail(ctx context.Context, span trace.Span, rule *Rule, invokers []*invoker.Invoker, err error) Result {
	source := ""
	if rule != nil {
		source = rule.Source
	}
	r.logger.WithContext(ctx).Error("failed to execute mesh router rule",
		observability.String("router", r.name),
		observability.String("rule", source),
		observability.Strings("invokers", invoker.Addresses(invokers)),
		observability.Error(err),
	)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return Result{Invokers: invokers, Outcome: OutcomeFailed}
}

// Compare implements Router. A router of another kind always sorts before
// a MeshRouter; two MeshRouters order by priority, then by rule source.
func (r *MeshRouter) Compare(other Router) int {
	o, ok := other.(*MeshRouter)
	if !ok || o == nil {
		return 1
	}

	a, b := r.Rule(), o.Rule()
	switch {
	case a.Priority < b.Priority:
		return -1
	case a.Priority > b.Priority:
		return 1
	default:
		return strings.Compare(a.Source, b.Source)
	}
}
