// Package rpcurl implements the configuration URL used to describe
// RPC endpoints and routing rules.
//
// A URL has the form
//
//	protocol://host:port/path?key=value&key=value
//
// Endpoints use it to carry their network address; routing rules use it
// to carry the rule text and its parameters. URL values are immutable:
// every "With" method returns a modified copy.
package rpcurl

import (
	"fmt"
	"net"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Well-known parameter keys.
const (
	InterfaceKey = "interface"
	GroupKey     = "group"
	VersionKey   = "version"
)

// URL is an immutable RPC configuration URL.
type URL struct {
	protocol string
	host     string
	port     int
	path     string
	params   map[string]string
}

// New creates a URL from its parts. The params map is copied.
func New(protocol, host string, port int, path string, params map[string]string) *URL {
	u := &URL{
		protocol: protocol,
		host:     host,
		port:     port,
		path:     strings.TrimPrefix(path, "/"),
		params:   make(map[string]string, len(params)),
	}
	for k, v := range params {
		u.params[k] = v
	}
	return u
}

// Parse parses a raw URL string.
func Parse(raw string) (*URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("empty url")
	}
	if !strings.Contains(raw, "://") {
		return nil, fmt.Errorf("url %q has no protocol", raw)
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse url %q: %w", raw, err)
	}

	port := 0
	if p := parsed.Port(); p != "" {
		port, err = parsePort(p)
		if err != nil {
			return nil, fmt.Errorf("failed to parse url %q: %w", raw, err)
		}
	}

	query, err := url.ParseQuery(parsed.RawQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to parse parameters of %q: %w", raw, err)
	}

	params := make(map[string]string, len(query))
	for k, values := range query {
		if len(values) > 0 {
			params[k] = values[0]
		}
	}

	return New(parsed.Scheme, parsed.Hostname(), port, parsed.Path, params), nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// static initialisation.
func MustParse(raw string) *URL {
	u, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return u
}

func parsePort(s string) (int, error) {
	port, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid port %q: %w", s, err)
	}
	if port < 0 || port > 65535 {
		return 0, fmt.Errorf("port %d out of range", port)
	}
	return port, nil
}

// Protocol returns the URL scheme.
func (u *URL) Protocol() string {
	return u.protocol
}

// Host returns the host part.
func (u *URL) Host() string {
	return u.host
}

// Port returns the port, or 0 when none was given.
func (u *URL) Port() int {
	return u.port
}

// Path returns the service path without a leading slash.
func (u *URL) Path() string {
	return u.path
}

// Address returns host:port, or only the host when the port is zero.
// IPv6 literals are bracketed.
func (u *URL) Address() string {
	if u.port == 0 {
		return u.host
	}
	return net.JoinHostPort(u.host, strconv.Itoa(u.port))
}

// Param returns the raw value of a parameter.
func (u *URL) Param(key string) string {
	return u.params[key]
}

// ParamDefault returns a parameter or def when it is missing or empty.
func (u *URL) ParamDefault(key, def string) string {
	if v := u.params[key]; v != "" {
		return v
	}
	return def
}

// ParamInt returns a parameter as int, or def when missing or malformed.
func (u *URL) ParamInt(key string, def int) int {
	v := u.params[key]
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return n
}

// ParamBool returns a parameter as bool, or def when missing or malformed.
func (u *URL) ParamBool(key string, def bool) bool {
	v := u.params[key]
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return b
}

// Params returns a copy of all parameters.
func (u *URL) Params() map[string]string {
	out := make(map[string]string, len(u.params))
	for k, v := range u.params {
		out[k] = v
	}
	return out
}

// ServiceKey returns group/interface:version, omitting empty parts.
// The interface defaults to the path.
func (u *URL) ServiceKey() string {
	iface := u.ParamDefault(InterfaceKey, u.path)
	if iface == "" {
		return ""
	}

	var sb strings.Builder
	if group := u.params[GroupKey]; group != "" {
		sb.WriteString(group)
		sb.WriteByte('/')
	}
	sb.WriteString(iface)
	if version := u.params[VersionKey]; version != "" {
		sb.WriteByte(':')
		sb.WriteString(version)
	}
	return sb.String()
}

// WithAddress returns a copy of the URL pointing at address (host:port).
func (u *URL) WithAddress(address string) (*URL, error) {
	host, portStr, err := net.SplitHostPort(address)
	if err != nil {
		return nil, fmt.Errorf("invalid address %q: %w", address, err)
	}
	port, err := parsePort(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid address %q: %w", address, err)
	}

	c := u.clone()
	c.host = host
	c.port = port
	return c, nil
}

// WithParam returns a copy of the URL with key set to value.
func (u *URL) WithParam(key, value string) *URL {
	c := u.clone()
	c.params[key] = value
	return c
}

func (u *URL) clone() *URL {
	return New(u.protocol, u.host, u.port, u.path, u.params)
}

// FullString renders the URL with all parameters in key order. Two URLs
// with the same parts always render to the same string.
func (u *URL) FullString() string {
	var sb strings.Builder
	sb.WriteString(u.protocol)
	sb.WriteString("://")
	sb.WriteString(u.Address())
	sb.WriteByte('/')
	sb.WriteString(u.path)

	if len(u.params) > 0 {
		keys := make([]string, 0, len(u.params))
		for k := range u.params {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		sb.WriteByte('?')
		for i, k := range keys {
			if i > 0 {
				sb.WriteByte('&')
			}
			sb.WriteString(url.QueryEscape(k))
			sb.WriteByte('=')
			sb.WriteString(url.QueryEscape(u.params[k]))
		}
	}

	return sb.String()
}

// String implements fmt.Stringer.
func (u *URL) String() string {
	return u.FullString()
}
