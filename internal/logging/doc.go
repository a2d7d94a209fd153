// Package logging provides structured logging utilities for gmail2md.
//
// This package centralizes logging patterns to ensure consistent,
// structured logging throughout the codebase using the standard
// library's slog package.
//
// # Key Features
//
//   - Structured logging with slog (text or JSON output)
//   - PII sanitization (email anonymization)
//   - Consistent attribute naming across the codebase
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(log, "export.run")
//	logger.Info("export complete",
//	    logging.Status("success"))
//
// Sanitize sensitive data before logging:
//
//	logger.Info("authenticated",
//	    logging.Account(email))
//
// # Security Considerations
//
// Account emails are hashed before logging to prevent PII leakage while
// still allowing correlation across log entries.
package logging
