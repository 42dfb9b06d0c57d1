package httpinfra

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// LoggingRoundTripper records every outbound request at debug level
type LoggingRoundTripper struct {
	base   http.RoundTripper
	logger *zap.Logger
}

// NewLoggingRoundTripper wraps base; a nil base means http.DefaultTransport
func NewLoggingRoundTripper(base http.RoundTripper, logger *zap.Logger) *LoggingRoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingRoundTripper{base: base, logger: logger}
}

func (t *LoggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	fields := []zap.Field{
		zap.String("method", req.Method),
		zap.String("url", redactQuery(req)),
		zap.Duration("latency", time.Since(start)),
	}
	if err != nil {
		t.logger.Debug("http request failed", append(fields, zap.Error(err))...)
		return nil, err
	}
	t.logger.Debug("http request", append(fields, zap.Int("status", resp.StatusCode))...)
	return resp, nil
}

// redactQuery drops the query string, which carries session tokens
func redactQuery(req *http.Request) string {
	u := *req.URL
	if u.RawQuery != "" {
		u.RawQuery = "redacted"
	}
	return u.String()
}
