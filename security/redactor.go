// Package security keeps credential material out of logs and user-visible
// error text.
//
// Some vendors take the credential in the query string (Google Gemini's
// `key=`, Baidu Qianfan's `access_token=`), so a transport failure that
// echoes the request URL would otherwise leak the secret into a provider's
// persisted last-test message.
package security

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
)

// RedactedPlaceholder replaces every secret-shaped substring.
const RedactedPlaceholder = "[REDACTED]"

// queryParamPattern matches credential-carrying query parameters of any length.
var queryParamPattern = regexp.MustCompile(`(?i)\b(key|access_token|api-key|api_key)=([^&\s"']+)`)

// sensitivePatterns contains regex patterns for common API key formats.
var sensitivePatterns = []*regexp.Regexp{
	// Anthropic keys: sk-ant-...
	regexp.MustCompile(`sk-ant-[a-zA-Z0-9_-]{20,}`),
	// OpenAI-style keys: sk-...
	regexp.MustCompile(`sk-[a-zA-Z0-9_-]{20,}`),
	// Google AI keys: AIza...
	regexp.MustCompile(`AIza[a-zA-Z0-9_-]{30,}`),
	// Bearer tokens
	regexp.MustCompile(`Bearer\s+[a-zA-Z0-9._~+/=-]{8,}`),
}

// Redact scans a string for sensitive patterns and replaces them.
func Redact(s string) string {
	if s == "" {
		return s
	}
	result := queryParamPattern.ReplaceAllString(s, "${1}="+RedactedPlaceholder)
	for _, pattern := range sensitivePatterns {
		result = pattern.ReplaceAllString(result, RedactedPlaceholder)
	}
	return result
}

// RedactSecret removes one known secret value from s, then applies Redact.
// Used where the exact credential is at hand and may not match any pattern
// (Baidu access tokens, Vertex OAuth tokens).
func RedactSecret(s, secret string) string {
	if secret != "" && len(secret) >= 4 {
		s = strings.ReplaceAll(s, secret, RedactedPlaceholder)
	}
	return Redact(s)
}

// RedactedHandler wraps an slog.Handler and redacts sensitive data from log records.
type RedactedHandler struct {
	inner slog.Handler
}

// NewRedactedHandler creates a new handler that wraps an existing handler
// and redacts sensitive data from all log output.
func NewRedactedHandler(inner slog.Handler) *RedactedHandler {
	return &RedactedHandler{inner: inner}
}

// Enabled reports whether the handler handles records at the given level.
func (h *RedactedHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle processes a log record, redacting sensitive data.
func (h *RedactedHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, Redact(r.Message), r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(redactAttr(a))
		return true
	})
	return h.inner.Handle(ctx, out)
}

// WithAttrs returns a new handler with the given attributes added.
func (h *RedactedHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = redactAttr(a)
	}
	return &RedactedHandler{inner: h.inner.WithAttrs(redacted)}
}

// WithGroup returns a new handler with the given group name.
func (h *RedactedHandler) WithGroup(name string) slog.Handler {
	return &RedactedHandler{inner: h.inner.WithGroup(name)}
}

func redactAttr(a slog.Attr) slog.Attr {
	if isSensitiveKey(strings.ToLower(a.Key)) {
		return slog.String(a.Key, RedactedPlaceholder)
	}

	switch v := a.Value.Any().(type) {
	case string:
		return slog.String(a.Key, Redact(v))
	case []string:
		redacted := make([]string, len(v))
		for i, s := range v {
			redacted[i] = Redact(s)
		}
		return slog.Any(a.Key, redacted)
	case error:
		return slog.String(a.Key, Redact(v.Error()))
	}

	return a
}

// isSensitiveKey reports whether an attribute key names credential material.
// "key_ref" is deliberately not matched: references are opaque and safe to log.
func isSensitiveKey(key string) bool {
	switch key {
	case "authorization", "api_key", "apikey", "api-key", "x-api-key",
		"secret", "password", "passphrase", "token", "access_token", "bearer", "credential":
		return true
	}
	return false
}
