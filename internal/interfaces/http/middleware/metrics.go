// Package middleware provides the gin middleware of the posync HTTP API.
package middleware

import (
	"time"

	"github.com/erp/posync/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// AttrStatusClass groups status codes on the latency histogram
var AttrStatusClass = attribute.Key("http.status_class")

// HTTPMetricsConfig holds configuration for HTTP metrics middleware.
type HTTPMetricsConfig struct {
	MeterProvider *telemetry.MeterProvider
	Enabled       bool
	// Logger reports instrument setup failures. Optional.
	Logger *zap.Logger
}

// Upload sizes reach the import limit, so request buckets go higher than
// response buckets.
var (
	requestSizeBuckets  = []float64{1 << 10, 16 << 10, 128 << 10, 1 << 20, 4 << 20, 16 << 20, 64 << 20}
	responseSizeBuckets = []float64{256, 1 << 10, 4 << 10, 16 << 10, 64 << 10, 256 << 10, 1 << 20}
)

type httpInstruments struct {
	requests  *telemetry.Counter
	latency   *telemetry.Histogram
	reqBytes  *telemetry.Histogram
	respBytes *telemetry.Histogram
	inFlight  metric.Int64UpDownCounter
}

func newHTTPInstruments(meter metric.Meter) (*httpInstruments, error) {
	var (
		in  httpInstruments
		err error
	)
	if in.requests, err = telemetry.NewCounter(meter, "http_server_request_total", "HTTP requests served", "{request}"); err != nil {
		return nil, err
	}
	for _, h := range []struct {
		dst **telemetry.Histogram
		telemetry.HistogramOpts
	}{
		{&in.latency, telemetry.HistogramOpts{Name: "http_server_request_duration_seconds", Description: "HTTP request latency", Unit: "s", Boundaries: telemetry.HTTPDurationBuckets}},
		{&in.reqBytes, telemetry.HistogramOpts{Name: "http_server_request_size_bytes", Description: "HTTP request body size", Unit: "By", Boundaries: requestSizeBuckets}},
		{&in.respBytes, telemetry.HistogramOpts{Name: "http_server_response_size_bytes", Description: "HTTP response body size", Unit: "By", Boundaries: responseSizeBuckets}},
	} {
		if *h.dst, err = telemetry.NewHistogram(meter, h.HistogramOpts); err != nil {
			return nil, err
		}
	}
	in.inFlight, err = meter.Int64UpDownCounter("http_server_active_requests",
		metric.WithDescription("HTTP requests in flight"), metric.WithUnit("{request}"))
	if err != nil {
		return nil, err
	}
	return &in, nil
}

func passThrough(c *gin.Context) {
	c.Next()
}

// HTTPMetrics counts requests by method, route and status, and records
// latency and body sizes by method and route. It is a no-op unless metrics
// are enabled.
func HTTPMetrics(cfg HTTPMetricsConfig) gin.HandlerFunc {
	if !cfg.Enabled || cfg.MeterProvider == nil || !cfg.MeterProvider.IsEnabled() {
		return passThrough
	}
	mw, err := httpMetrics(cfg.MeterProvider.Meter("http.server"))
	if err != nil {
		if cfg.Logger != nil {
			cfg.Logger.Warn("HTTP metrics disabled", zap.Error(err))
		}
		return passThrough
	}
	return mw
}

// HTTPMetricsWithMeter records on an existing meter
func HTTPMetricsWithMeter(meter metric.Meter, enabled bool) gin.HandlerFunc {
	if !enabled {
		return passThrough
	}
	mw, err := httpMetrics(meter)
	if err != nil {
		return passThrough
	}
	return mw
}

func httpMetrics(meter metric.Meter) (gin.HandlerFunc, error) {
	in, err := newHTTPInstruments(meter)
	if err != nil {
		return nil, err
	}
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()

		in.inFlight.Add(ctx, 1)
		c.Next()
		in.inFlight.Add(ctx, -1)

		status := c.Writer.Status()
		route := []attribute.KeyValue{
			telemetry.AttrHTTPMethod.String(c.Request.Method),
			telemetry.AttrHTTPRoute.String(routeOf(c)),
		}
		in.requests.Inc(ctx, append(route, telemetry.AttrHTTPStatusCode.Int(status))...)
		in.latency.RecordDuration(ctx, time.Since(start), append(route, AttrStatusClass.String(statusClass(status)))...)
		if n := c.Request.ContentLength; n > 0 {
			in.reqBytes.Record(ctx, float64(n), route...)
		}
		if n := c.Writer.Size(); n > 0 {
			in.respBytes.Record(ctx, float64(n), route...)
		}
	}, nil
}

// routeOf keeps label cardinality bounded: the route template, never the
// raw path.
func routeOf(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unknown"
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	case code >= 200:
		return "2xx"
	}
	return "other"
}
