// Package logging provides structured logging for the keypad controller.
//
// It wraps log/slog so every component logs through one handler carrying
// the service name and build version.
//
// Logging is configured via the logging section of the config file:
//
//	logging:
//	  level: "info"      # trace, debug, info, warn, error
//	  format: "text"     # json, text
//	  output: "stderr"   # stdout, stderr
//
// The --log-level flag overrides the configured level.
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Info("subscribed", "topic", topic)
package logging
