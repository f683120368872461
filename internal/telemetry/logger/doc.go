// Package logger provides structured logging for kvmesh.
//
// It wraps the standard library log/slog to provide structured JSON or
// text logging with automatic redaction of sensitive attributes.
//
// Features:
//   - JSON structured logging (default)
//   - Redaction of stored values and credentials by attribute key
//   - Context-aware logging with connection ID propagation
//   - Log level configuration, adjustable at runtime
package logger
