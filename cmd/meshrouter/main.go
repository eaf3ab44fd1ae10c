// Package main is the entry point for the mesh router.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/vyrodovalexey/meshrouter/internal/config"
	"github.com/vyrodovalexey/meshrouter/internal/observability"
)

// Version information (set at build time).
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

const defaultConfigPath = "configs/meshrouter.yaml"

// cliFlags holds command line flags.
type cliFlags struct {
	configPath  string
	logLevel    string
	logFormat   string
	showVersion bool
	service     string
	method      string
	invokers    string
	watch       bool
}

func main() {
	flags, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	if flags.showVersion {
		printVersion(os.Stdout)
		return
	}

	logger, err := initLogger(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, flags, logger, os.Stdout); err != nil {
		logger.Error("meshrouter failed", observability.Error(err))
		stop()
		os.Exit(1)
	}
}

// parseFlags parses command line flags. Environment variables provide the
// defaults of the config path and logging flags.
func parseFlags(args []string, output io.Writer) (cliFlags, error) {
	fs := flag.NewFlagSet("meshrouter", flag.ContinueOnError)
	fs.SetOutput(output)

	var f cliFlags
	fs.StringVar(&f.configPath, "config", getEnvOrDefault("MESHROUTER_CONFIG_PATH", defaultConfigPath),
		"Path to configuration file")
	fs.StringVar(&f.logLevel, "log-level", getEnvOrDefault("MESHROUTER_LOG_LEVEL", ""),
		"Log level (debug, info, warn, error); overrides the configuration file")
	fs.StringVar(&f.logFormat, "log-format", getEnvOrDefault("MESHROUTER_LOG_FORMAT", ""),
		"Log format (json, console); overrides the configuration file")
	fs.BoolVar(&f.showVersion, "version", false, "Show version information")
	fs.StringVar(&f.service, "service", "", "Service path to route, for example com.foo.BarService")
	fs.StringVar(&f.method, "method", "", "Method name of the routed call")
	fs.StringVar(&f.invokers, "invokers", "", "Comma separated provider addresses (host:port)")
	fs.BoolVar(&f.watch, "watch", false, "Keep running, serve metrics and reload rules on change")

	if err := fs.Parse(args); err != nil {
		return cliFlags{}, err
	}
	return f, nil
}

// printVersion prints version information.
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "meshrouter version %s\n", version)
	fmt.Fprintf(w, "  Build time: %s\n", buildTime)
	fmt.Fprintf(w, "  Git commit: %s\n", gitCommit)
}

// initLogger initializes the bootstrap logger from flags. The level and
// format fall back to the defaults until the configuration is loaded.
func initLogger(flags cliFlags) (observability.Logger, error) {
	cfg := observability.DefaultLogConfig()
	if flags.logLevel != "" {
		cfg.Level = flags.logLevel
	}
	if flags.logFormat != "" {
		cfg.Format = flags.logFormat
	}

	logger, err := observability.NewLogger(cfg)
	if err != nil {
		return nil, err
	}
	observability.SetGlobalLogger(logger)
	return logger, nil
}

// run loads the configuration and executes the selected mode.
func run(ctx context.Context, flags cliFlags, logger observability.Logger, stdout io.Writer) error {
	if flags.service == "" && !flags.watch {
		return errors.New("nothing to do: set -service to evaluate a call or -watch to keep running")
	}

	cfg, path, err := loadAndValidateConfig(flags.configPath, logger)
	if err != nil {
		return err
	}

	logger, err = configureLogger(cfg, flags, logger)
	if err != nil {
		return err
	}

	app, err := newApplication(cfg, logger)
	if err != nil {
		return err
	}
	defer app.shutdown()

	if flags.service != "" {
		if err := app.evaluate(ctx, flags.service, flags.method, flags.invokers, stdout); err != nil {
			return err
		}
	}

	if flags.watch {
		return app.serve(ctx, path)
	}
	return nil
}

// loadAndValidateConfig loads and validates the configuration file.
func loadAndValidateConfig(configPath string, logger observability.Logger) (*config.Config, string, error) {
	path, err := config.ResolveConfigPath(configPath)
	if err != nil {
		return nil, "", err
	}

	logger.Info("starting meshrouter",
		observability.String("version", version),
		observability.String("config", path),
	)

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, "", fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Info("configuration loaded",
		observability.String("resolver", cfg.Resolver.Type),
		observability.Int("rules", len(cfg.Rules)),
		observability.Bool("metrics", cfg.Metrics.Enabled),
		observability.Bool("tracing", cfg.Tracing.Enabled),
	)
	return cfg, path, nil
}

// configureLogger rebuilds the logger from the configuration file unless
// both level and format were given on the command line.
func configureLogger(cfg *config.Config, flags cliFlags, current observability.Logger) (observability.Logger, error) {
	logCfg := observability.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}
	if flags.logLevel != "" {
		logCfg.Level = flags.logLevel
	}
	if flags.logFormat != "" {
		logCfg.Format = flags.logFormat
	}

	logger, err := observability.NewLogger(logCfg)
	if err != nil {
		return current, fmt.Errorf("failed to configure logger: %w", err)
	}
	observability.SetGlobalLogger(logger)
	return logger, nil
}

// getEnvOrDefault returns the environment variable value or a default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
