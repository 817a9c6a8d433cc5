// Package logging provides a minimal logging interface and adapters for the
// agent kernel.
//
// The Logger interface defines the standard logging methods (Debug, Info,
// Warn, Error) with slog-style key/value arguments. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter and KernelLogger built on log/slog
//   - BoltAdapter built on github.com/felixgeelhaar/bolt
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	env := core.NewEnv(state, func(o *core.EnvOptions) { o.Logger = logger })
package logging
