package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/llm-council/council-client/pkg/logger"
	"github.com/llm-council/council-client/pkg/metrics"
)

// transport instruments every outgoing request with a correlation ID,
// request logging and metrics. Request paths are bounded (the API surface is
// fixed), so the raw path is a safe metric label.
type transport struct {
	base http.RoundTripper
	log  *logger.Logger
}

func newTransport(base http.RoundTripper, log *logger.Logger) *transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &transport{base: base, log: log}
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	correlationID := req.Header.Get("X-Correlation-ID")
	if correlationID == "" {
		correlationID = uuid.New().String()
		req.Header.Set("X-Correlation-ID", correlationID)
	}

	resp, err := t.base.RoundTrip(req)
	duration := time.Since(start)

	if err != nil {
		t.log.Warn("request failed",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Duration("duration", duration),
			zap.String("correlation_id", correlationID),
			zap.Error(err),
		)
		metrics.RecordRequest(req.Method, req.URL.Path, "error", duration.Seconds())
		return nil, err
	}

	t.log.Debug("request completed",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", duration),
		zap.String("correlation_id", correlationID),
	)
	metrics.RecordRequest(req.Method, req.URL.Path, strconv.Itoa(resp.StatusCode), duration.Seconds())

	return resp, nil
}
