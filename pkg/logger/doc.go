// Package logger provides the leveled key=value text logger used by the PDP
// sidecar's entry point.
//
// # Logger Interface
//
// The Logger interface defines the contract for all logging implementations:
//
//	type Logger interface {
//	    Debug(msg string, fields ...interface{})
//	    Info(msg string, fields ...interface{})
//	    Warn(msg string, fields ...interface{})
//	    Error(msg string, fields ...interface{})
//	    SetLevel(level string)
//	    WithField(key string, value interface{}) Logger
//	    WithFields(fields map[string]interface{}) Logger
//	    With(fields ...Field) Logger
//	}
//
// # Log Levels
//
// Supported log levels in order of severity:
//   - DEBUG: Detailed information for debugging
//   - INFO: General informational messages
//   - WARN: Warning messages for potentially harmful situations
//   - ERROR: Error messages for serious problems
//
// # Structured Logging
//
// The variadic fields of the log methods are read as alternating key/value
// pairs; a trailing key without a value is dropped:
//
//	logger.Info("Processing request", "user_id", "123", "duration_ms", 145)
//
// # Contextual Logging
//
// WithField, WithFields and With return a new logger that carries extra
// fields on every line; the receiver is left unchanged:
//
//	requestLogger := logger.WithFields(map[string]interface{}{
//	    "request_id": "abc-123",
//	    "user_id":    "456",
//	})
//
//	// All logs from requestLogger will include request_id and user_id
//	requestLogger.Info("Starting processing")
//	requestLogger.Info("Processing complete", "items_processed", 10)
//
// # Simple Logger Implementation
//
// SimpleLogger writes one line per message through the standard library's
// log package (standard error, with its date and time prefix), formatted as
// "[LEVEL] msg key=value ...". It starts at the INFO level. Output is plain
// text only; field values are printed with %v and are not sanitized.
//
// # Configuration
//
// SetLevel accepts DEBUG, INFO, WARN (or WARNING) and ERROR in any case and
// ignores other values. GetLogLevel returns the LOG_LEVEL environment
// variable, or "INFO" when it is unset; no logger reads it on its own.
//
// # Best Practices
//
//   - Use appropriate log levels to control verbosity
//   - Include relevant context through structured fields
//   - Avoid logging sensitive information (passwords, tokens, PII)
//   - Use child loggers for request-scoped logging
//   - Keep log messages concise and actionable
package logger
