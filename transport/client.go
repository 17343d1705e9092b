// Package transport issues the single GET request behind every provider
// health check and model listing.
package transport

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"resty.dev/v3"

	"llmkeyring/security"
)

// DefaultTimeout applies when a caller passes a zero timeout.
const DefaultTimeout = 5 * time.Second

// Response is a successful (2xx) exchange.
type Response struct {
	StatusCode int
	Body       []byte
}

// StatusError is a completed exchange with a non-2xx status. Body holds the
// response text when it is valid UTF-8 and is empty otherwise.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP %d", e.Code)
	}
	return fmt.Sprintf("HTTP %d: %s", e.Code, e.Body)
}

// Getter is the transport contract adapters depend on. Any error other than
// *StatusError is a transport failure (DNS, connect, timeout, non-HTTP reply).
type Getter interface {
	Get(ctx context.Context, url string, headers map[string]string, timeout time.Duration) (*Response, error)
}

// Client is the resty-backed Getter. Each call builds its own resty client,
// so nothing (cookies, connections) is shared between requests.
type Client struct {
	logger *slog.Logger
}

// New creates a Client. A nil logger discards output.
func New(logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{logger: logger}
}

// Get performs one GET with the given headers.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string, timeout time.Duration) (*Response, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	rc := resty.New().
		SetTimeout(timeout).
		SetCookieJar(nil).
		SetRetryCount(0).
		SetDisableWarn(true).
		SetLogger(&restyLogger{logger: c.logger})
	defer rc.Close()

	start := time.Now()
	resp, err := rc.R().
		SetContext(ctx).
		SetHeaders(headers).
		Get(url)
	if err != nil {
		c.logger.Debug("transport failure", "url", security.Redact(url), "error", err)
		return nil, err
	}

	code := resp.StatusCode()
	body := resp.Bytes()
	c.logger.Debug("transport response",
		"url", security.Redact(url),
		"status", code,
		"bytes", len(body),
		"elapsed", time.Since(start))

	if code < 200 || code > 299 {
		text := ""
		if utf8.Valid(body) {
			text = string(body)
		}
		return nil, &StatusError{Code: code, Body: text}
	}
	return &Response{StatusCode: code, Body: body}, nil
}

// restyLogger routes resty's internal logging into slog at debug level.
type restyLogger struct {
	logger *slog.Logger
}

func (l *restyLogger) Errorf(format string, v ...any) {
	l.logger.Debug("resty: " + fmt.Sprintf(format, v...))
}

func (l *restyLogger) Warnf(format string, v ...any) {
	l.logger.Debug("resty: " + fmt.Sprintf(format, v...))
}

func (l *restyLogger) Debugf(format string, v ...any) {
	l.logger.Debug("resty: " + fmt.Sprintf(format, v...))
}
