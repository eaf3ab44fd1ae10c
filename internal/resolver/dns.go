package resolver

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/miekg/dns"
)

const defaultDNSPort = "53"

// DNSResolver queries one nameserver directly. It sends an A query and
// falls back to AAAA only when the A answer carries no address.
type DNSResolver struct {
	nameserver string
	client     *dns.Client
	opts       options
}

// NewDNSResolver creates a DNSResolver for nameserver (host or host:port,
// port 53 by default).
func NewDNSResolver(nameserver string, opts ...Option) *DNSResolver {
	o := newOptions(opts)
	return &DNSResolver{
		nameserver: nameserverAddr(nameserver),
		client: &dns.Client{
			Net:     "udp",
			Timeout: o.timeout,
		},
		opts: o,
	}
}

func nameserverAddr(ns string) string {
	if _, _, err := net.SplitHostPort(ns); err == nil {
		return ns
	}
	return net.JoinHostPort(ns, defaultDNSPort)
}

// Nameserver returns the host:port queries are sent to.
func (r *DNSResolver) Nameserver() string {
	return r.nameserver
}

// Resolve implements Resolver.
func (r *DNSResolver) Resolve(ctx context.Context, servicePath string) (string, bool) {
	domain := ServiceDomain(servicePath)

	ctx, cancel := r.opts.context(ctx)
	defer cancel()

	start := time.Now()
	ip, err := r.query(ctx, domain, dns.TypeA)
	if err == nil && ip == "" {
		ip, err = r.query(ctx, domain, dns.TypeAAAA)
	}
	return r.opts.finish(ctx, KindDNS, domain, start, ip, err)
}

func (r *DNSResolver) query(ctx context.Context, domain string, qtype uint16) (string, error) {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(domain), qtype)
	m.RecursionDesired = true

	in, _, err := r.client.ExchangeContext(ctx, m, r.nameserver)
	if err != nil {
		return "", fmt.Errorf("%s query to %s: %w", dns.TypeToString[qtype], r.nameserver, err)
	}
	if in.Rcode != dns.RcodeSuccess {
		return "", fmt.Errorf("%s query to %s: %s", dns.TypeToString[qtype], r.nameserver, dns.RcodeToString[in.Rcode])
	}

	for _, rr := range in.Answer {
		switch v := rr.(type) {
		case *dns.A:
			return v.A.String(), nil
		case *dns.AAAA:
			return v.AAAA.String(), nil
		}
	}
	return "", nil
}
