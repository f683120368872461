package logger

import (
	"log/slog"
	"strconv"
	"strings"
)

// Sensitive key patterns that should be redacted.
// Stored values are user data and never reach the log output.
var sensitiveKeyPatterns = []string{
	"value",
	"payload",
	"password",
	"secret",
	"token",
	"credential",
	"auth",
}

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

// redactSensitive replaces the value of attributes whose key looks sensitive.
func redactSensitive(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}

	if !IsSensitiveKey(a.Key) {
		return a
	}

	switch a.Value.Kind() {
	case slog.KindString:
		if a.Value.String() == "" {
			return a
		}
	case slog.KindAny:
		if b, ok := a.Value.Any().([]byte); ok && len(b) == 0 {
			return a
		}
	default:
		// Numbers, durations and booleans carry no user data.
		return a
	}
	return slog.String(a.Key, redactedValue)
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}

// Preview renders b for logging: quoted, and cut to at most max bytes with
// the total length appended when longer.
func Preview(b []byte, max int) string {
	if max <= 0 || len(b) <= max {
		return strconv.Quote(string(b))
	}
	return strconv.Quote(string(b[:max])) + "...(" + strconv.Itoa(len(b)) + " bytes)"
}
