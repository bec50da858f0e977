// Package logging provides structured logging using uber/zap.
//
// This package offers production-ready logging with two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Log Levels:
//   - Debug: Verbose debugging information
//   - Info: General informational messages
//   - Warn: Warning messages
//   - Error: Error messages
//   - Fatal: Fatal errors (exits process)
//
// Engine components accept a nil *Logger and substitute a no-op via OrNop,
// so library callers embedding the engine pay nothing for logging they did
// not configure.
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	logger.Info("module installed", zap.String("module", id))
//	logger.Error("commit failed", zap.Error(err))
package logging
