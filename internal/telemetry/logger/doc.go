// Package logger provides structured logging for the server.
//
// This package wraps log/slog for structured logging:
//
//   - logger.go: slog handler configuration and initialization
//   - context.go: Context-aware logging with connection/trace IDs
//   - redact.go: Sensitive data redaction
//
// Features:
//
//   - JSON and text output formats
//   - Log level filtering, adjustable at runtime
//   - Automatic sensitive data masking
//   - Context propagation for per-connection correlation
package logger
