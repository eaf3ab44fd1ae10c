package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vyrodovalexey/meshrouter/internal/util"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Path    string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// Is reports ValidationErrors as invalid configuration.
func (e ValidationErrors) Is(target error) bool {
	return target == util.ErrConfigInvalid
}

// HasErrors returns true if there are validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

var (
	validLogLevels  = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	validLogFormats = map[string]bool{"json": true, "console": true}
	validLogOutputs = map[string]bool{"stdout": true, "stderr": true}
	validResolvers  = map[string]bool{ResolverSystem: true, ResolverDNS: true, ResolverStatic: true}
)

// Validator validates mesh router configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

// ValidateConfig validates a configuration.
func ValidateConfig(config *Config) error {
	return NewValidator().Validate(config)
}

// Validate validates the configuration and returns every problem found.
func (v *Validator) Validate(config *Config) error {
	v.errors = make(ValidationErrors, 0)

	if config == nil {
		v.addError("", "configuration is nil")
		return v.errors
	}

	v.validateLogging(&config.Logging)
	if strings.TrimSpace(config.LocalHost) == "" {
		v.addError("localHost", "localHost is required")
	}
	v.validateResolver(&config.Resolver)
	v.validateTracing(&config.Tracing)
	v.validateMetrics(&config.Metrics)
	v.validateRules(config.Rules)

	if v.errors.HasErrors() {
		return v.errors
	}
	return nil
}

func (v *Validator) validateLogging(cfg *LoggingConfig) {
	if !validLogLevels[cfg.Level] {
		v.addError("logging.level", "level must be one of debug, info, warn, error")
	}
	if !validLogFormats[cfg.Format] {
		v.addError("logging.format", "format must be json or console")
	}
	if !validLogOutputs[cfg.Output] {
		v.addError("logging.output", "output must be stdout or stderr")
	}
}

func (v *Validator) validateResolver(cfg *ResolverConfig) {
	if !validResolvers[cfg.Type] {
		v.addError("resolver.type", fmt.Sprintf("unknown resolver type: %q", cfg.Type))
		return
	}
	if cfg.Timeout < 0 {
		v.addError("resolver.timeout", "timeout must not be negative")
	}
	if cfg.Breaker.Failures < 0 {
		v.addError("resolver.breaker.failures", "failures must not be negative")
	}
	if cfg.Breaker.OpenTimeout < 0 {
		v.addError("resolver.breaker.openTimeout", "openTimeout must not be negative")
	}

	switch cfg.Type {
	case ResolverDNS:
		if cfg.Nameserver == "" {
			v.addError("resolver.nameserver", "nameserver is required for the dns resolver")
		}
	case ResolverStatic:
		if len(cfg.Hosts) == 0 {
			v.addError("resolver.hosts", "hosts are required for the static resolver")
		}
		for service, ip := range cfg.Hosts {
			if strings.TrimSpace(ip) == "" {
				v.addError("resolver.hosts."+service, "address is empty")
			}
		}
	}
}

func (v *Validator) validateTracing(cfg *TracingConfig) {
	if cfg.SamplingRate < 0 || cfg.SamplingRate > 1 {
		v.addError("tracing.samplingRate", "samplingRate must be between 0 and 1")
	}
}

func (v *Validator) validateMetrics(cfg *MetricsConfig) {
	if !cfg.Enabled {
		return
	}
	if cfg.Address == "" {
		v.addError("metrics.address", "address is required when metrics are enabled")
	}
	if !strings.HasPrefix(cfg.Path, "/") {
		v.addError("metrics.path", "path must start with '/'")
	}
}

func (v *Validator) validateRules(rules []RuleConfig) {
	names := make(map[string]bool, len(rules))

	for i := range rules {
		rule := &rules[i]
		path := fmt.Sprintf("rules[%d]", i)

		switch {
		case rule.Name == "":
			v.addError(path+".name", "rule name is required")
		case names[rule.Name]:
			v.addError(path+".name", fmt.Sprintf("duplicate rule name: %s", rule.Name))
		default:
			names[rule.Name] = true
		}

		v.validateRule(rule, path)
	}
}

func (v *Validator) validateRule(rule *RuleConfig, path string) {
	if rule.URL != "" {
		if rule.Service != "" || rule.Rule != "" {
			v.addError(path, "url and service/rule are mutually exclusive")
			return
		}
		u, err := rule.ToURL()
		if err != nil {
			v.addError(path+".url", err.Error())
			return
		}
		if strings.TrimSpace(u.Param("rule")) == "" {
			v.addError(path+".url", "url has no rule parameter")
		}
		if port := u.Param("meshport"); port != "" {
			v.validateMeshPort(port, path+".url")
		}
		return
	}

	if rule.Service == "" {
		v.addError(path+".service", "service is required")
	}
	if strings.TrimSpace(rule.Rule) == "" {
		v.addError(path+".rule", "rule text is required")
	}
	if rule.MeshPort != "" {
		v.validateMeshPort(rule.MeshPort, path+".meshPort")
	}
}

func (v *Validator) validateMeshPort(port, path string) {
	n, err := strconv.Atoi(port)
	if err != nil || n < 1 || n > 65535 {
		v.addError(path, fmt.Sprintf("invalid mesh port %q", port))
	}
}

// addError adds a validation error.
func (v *Validator) addError(path, message string) {
	v.errors = append(v.errors, ValidationError{
		Path:    path,
		Message: message,
	})
}
