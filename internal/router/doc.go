// Package router decides whether RPC calls are sent to a service mesh
// sidecar instead of a directly discovered provider.
//
// A MeshRouter is built from a configuration URL carrying a rule such as
//
//	route://0.0.0.0/com.foo.BarService?rule=host%3D10.0.0.*%3D%3Etrue&force=true&meshport=9090
//
// The rule "host=10.0.0.*=>true" reads: when the local host matches
// 10.0.0.*, redirect. For a matching host the router resolves
// <service path>.rpc and hands the call to <resolved ip>:<meshport>.
// When the sidecar cannot be resolved, a forced rule returns no invokers
// and an unforced rule returns the input unchanged.
//
// # Features
//
//   - Single-wildcard host globs (MatchGlob)
//   - Rule replacement at runtime through an atomic swap (Update)
//   - Tagged evaluation results (Evaluate)
//   - Deterministic ordering by priority and rule source (Compare)
//   - Chains of routers of mixed kinds (Chain)
//
// # Usage
//
//	u := rpcurl.MustParse("route://0.0.0.0/com.foo.BarService?rule=host%3D10.*%3D%3Etrue")
//	r, err := router.NewMeshRouter(u, router.WithResolver(res))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	chain := router.NewChain(r)
//	invokers = chain.Route(ctx, invokers, invocation)
package router
