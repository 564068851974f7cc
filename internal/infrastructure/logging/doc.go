// Package logging provides structured logging using uber/zap.
//
// Two output modes:
//   - Debug builds: colored console output on stderr
//   - Release builds: JSON output for log collectors
//
// Example Usage:
//
//	logger, err := logging.ForMode(platform.Current(), cfg.Logging.Level, cfg.Logging.Development)
//	logger.Info("Registering capability", zap.String("id", "fs"))
//	logger.Error("Failed to open relay socket", zap.Error(err))
package logging
