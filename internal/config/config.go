package config

import (
	"fmt"
	"strconv"

	"github.com/vyrodovalexey/meshrouter/internal/netutil"
	"github.com/vyrodovalexey/meshrouter/internal/rpcurl"
)

// Resolver types.
const (
	ResolverSystem = "system"
	ResolverDNS    = "dns"
	ResolverStatic = "static"
)

// Defaults.
const (
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "json"
	DefaultLogOutput      = "stdout"
	DefaultMetricsAddress = ":9464"
	DefaultMetricsPath    = "/metrics"
	DefaultSamplingRate   = 1.0

	// RuleProtocol and RuleHost form the URL of rules declared by service.
	RuleProtocol = "route"
	RuleHost     = "0.0.0.0"
)

// Config is the mesh router configuration file.
type Config struct {
	Logging   LoggingConfig  `yaml:"logging" json:"logging"`
	LocalHost string         `yaml:"localHost" json:"localHost"`
	Resolver  ResolverConfig `yaml:"resolver" json:"resolver"`
	Tracing   TracingConfig  `yaml:"tracing" json:"tracing"`
	Metrics   MetricsConfig  `yaml:"metrics" json:"metrics"`
	Rules     []RuleConfig   `yaml:"rules" json:"rules"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	Output string `yaml:"output" json:"output"`
}

// ResolverConfig selects how mesh domains are resolved.
type ResolverConfig struct {
	Type       string            `yaml:"type" json:"type"`
	Timeout    Duration          `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	Nameserver string            `yaml:"nameserver,omitempty" json:"nameserver,omitempty"`
	Hosts      map[string]string `yaml:"hosts,omitempty" json:"hosts,omitempty"`
	Breaker    BreakerConfig     `yaml:"breaker,omitempty" json:"breaker,omitempty"`
}

// BreakerConfig wraps the resolver with a per-domain circuit breaker.
// Zero values select the resolver package defaults.
type BreakerConfig struct {
	Enabled     bool     `yaml:"enabled" json:"enabled"`
	Failures    int      `yaml:"failures,omitempty" json:"failures,omitempty"`
	OpenTimeout Duration `yaml:"openTimeout,omitempty" json:"openTimeout,omitempty"`
}

// TracingConfig configures OpenTelemetry export.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	Endpoint     string  `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	SamplingRate float64 `yaml:"samplingRate" json:"samplingRate"`
	ServiceName  string  `yaml:"serviceName,omitempty" json:"serviceName,omitempty"`
}

// MetricsConfig configures the metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Address string `yaml:"address" json:"address"`
	Path    string `yaml:"path" json:"path"`
}

// RuleConfig declares one mesh routing rule, either as a full
// configuration URL or by its parts.
type RuleConfig struct {
	Name     string `yaml:"name" json:"name"`
	URL      string `yaml:"url,omitempty" json:"url,omitempty"`
	Service  string `yaml:"service,omitempty" json:"service,omitempty"`
	Rule     string `yaml:"rule,omitempty" json:"rule,omitempty"`
	Priority int    `yaml:"priority,omitempty" json:"priority,omitempty"`
	Force    bool   `yaml:"force,omitempty" json:"force,omitempty"`
	MeshPort string `yaml:"meshPort,omitempty" json:"meshPort,omitempty"`
}

// DefaultConfig returns a configuration with every default applied.
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
			Output: DefaultLogOutput,
		},
		LocalHost: netutil.DefaultHostTemplate,
		Resolver: ResolverConfig{
			Type: ResolverSystem,
		},
		Tracing: TracingConfig{
			SamplingRate: DefaultSamplingRate,
		},
		Metrics: MetricsConfig{
			Address: DefaultMetricsAddress,
			Path:    DefaultMetricsPath,
		},
	}
}

// ToURL returns the configuration URL of the rule.
func (r *RuleConfig) ToURL() (*rpcurl.URL, error) {
	if r.URL != "" {
		u, err := rpcurl.Parse(r.URL)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", r.Name, err)
		}
		return u, nil
	}

	params := map[string]string{
		"rule": r.Rule,
	}
	if r.Priority != 0 {
		params["priority"] = strconv.Itoa(r.Priority)
	}
	if r.Force {
		params["force"] = "true"
	}
	if r.MeshPort != "" {
		params["meshport"] = r.MeshPort
	}
	return rpcurl.New(RuleProtocol, RuleHost, 0, r.Service, params), nil
}
