// Package logger provides a structured logging facility based on Zap.
//
// It offers a configured logger instance that supports development and
// production setups and integrates with the Fiber web framework.
//
// # Context Awareness
//
// WithRayID extracts the RayID from a Fiber context and attaches it to the
// log entry so all logs of one request can be correlated. WithRun does the
// same for a device reconciliation run.
//
// # Configuration
//
//   - Level: debug, info, warn, error
//   - Format: json or console
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info"})
//	log.Info("Server started")
//
//	l := logger.WithRayID(log, c)
//	l.Error("Handler failed", zap.Error(err))
package logger
