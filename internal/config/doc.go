// Package config provides the mesh router configuration file: its types,
// YAML loading, validation and file watching for hot reload.
//
// # Features
//
//   - YAML configuration file loading with defaults for omitted fields
//   - Environment variable substitution with ${VAR:-default} syntax
//   - Validation that reports every problem at once
//   - File watching with debounce for rule hot reload
//
// # Configuration Loading
//
//	cfg, err := config.LoadConfig("meshrouter.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := config.ValidateConfig(cfg); err != nil {
//	    log.Fatal(err)
//	}
//
// # File Watching
//
//	watcher, err := config.NewWatcher(path, func(cfg *config.Config) {
//	    // install cfg.Rules
//	}, config.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := watcher.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer watcher.Stop()
package config
