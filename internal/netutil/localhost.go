// Package netutil discovers the local host address of the process.
//
// The address is described by a go-sockaddr template, so operators can
// select an interface with expressions such as
//
//	{{ GetPrivateIP }}
//	{{ GetInterfaceIP "eth0" }}
//
// or pin a literal address.
package netutil

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/hashicorp/go-sockaddr/template"
)

const (
	// DefaultHostTemplate selects the first private address of the host.
	DefaultHostTemplate = "{{ GetPrivateIP }}"

	// LoopbackAddress is returned when no address can be discovered.
	LoopbackAddress = "127.0.0.1"
)

// ParseSingleIP renders tmpl and requires it to yield exactly one address.
func ParseSingleIP(tmpl string) (string, error) {
	out, err := template.Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("unable to parse address template %q: %w", tmpl, err)
	}

	out = strings.TrimSpace(out)
	if out == "" {
		return "", errors.New("no addresses found")
	}

	ips := strings.Fields(out)
	if len(ips) > 1 {
		return "", fmt.Errorf("multiple addresses found (%q)", out)
	}
	return ips[0], nil
}

// HostSource resolves a host template once and caches the result.
// It is safe for concurrent use.
type HostSource struct {
	tmpl string
	once sync.Once
	host string
	err  error
}

// NewHostSource creates a HostSource for tmpl. An empty template selects
// DefaultHostTemplate.
func NewHostSource(tmpl string) *HostSource {
	if strings.TrimSpace(tmpl) == "" {
		tmpl = DefaultHostTemplate
	}
	return &HostSource{tmpl: tmpl}
}

// Template returns the template the source renders.
func (s *HostSource) Template() string {
	return s.tmpl
}

// Lookup returns the resolved address or the error from the first attempt.
func (s *HostSource) Lookup() (string, error) {
	s.once.Do(func() {
		s.host, s.err = ParseSingleIP(s.tmpl)
	})
	return s.host, s.err
}

// Host returns the resolved address, or LoopbackAddress if resolution failed.
func (s *HostSource) Host() string {
	host, err := s.Lookup()
	if err != nil {
		return LoopbackAddress
	}
	return host
}

var defaultSource = NewHostSource(DefaultHostTemplate)

// LocalHost returns the private address of this host, falling back to
// LoopbackAddress. The lookup runs once per process.
func LocalHost() string {
	return defaultSource.Host()
}
