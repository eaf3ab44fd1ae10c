// Package resolver maps service paths to mesh sidecar addresses.
//
// Every service reachable through the mesh is published under the name
//
//	<service path>.rpc
//
// so com.foo.BarService is looked up as com.foo.BarService.rpc. A
// Resolver performs exactly one lookup per call with no retry and no
// caching. A failed lookup is logged, counted, and reported as ok=false.
//
// Three implementations are provided:
//
//   - SystemResolver uses the platform resolver.
//   - DNSResolver queries a configured nameserver with github.com/miekg/dns.
//   - StaticResolver answers from a fixed table.
//
// BreakerResolver optionally wraps any of them with a per-domain circuit
// breaker (github.com/sony/gobreaker) so a domain that keeps failing is
// reported as unresolved without paying for another lookup.
package resolver
