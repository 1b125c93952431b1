package middleware

import (
    "strconv"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics records request counts and latencies per route.
type HTTPMetrics struct {
    requests *prometheus.CounterVec
    duration *prometheus.HistogramVec
    inflight prometheus.Gauge
}

// NewHTTPMetrics registers the HTTP collectors with reg.
func NewHTTPMetrics(reg prometheus.Registerer) (*HTTPMetrics, error) {
    m := &HTTPMetrics{
        requests: prometheus.NewCounterVec(prometheus.CounterOpts{
            Namespace: "http",
            Subsystem: "server",
            Name:      "requests_total",
            Help:      "Total number of HTTP requests.",
        }, []string{"method", "route", "status"}),
        duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
            Namespace: "http",
            Subsystem: "server",
            Name:      "request_duration_seconds",
            Help:      "HTTP request duration.",
            Buckets:   prometheus.DefBuckets,
        }, []string{"method", "route"}),
        inflight: prometheus.NewGauge(prometheus.GaugeOpts{
            Namespace: "http",
            Subsystem: "server",
            Name:      "active_requests",
            Help:      "Number of in-flight HTTP requests.",
        }),
    }
    for _, c := range []prometheus.Collector{m.requests, m.duration, m.inflight} {
        if err := reg.Register(c); err != nil {
            return nil, err
        }
    }
    return m, nil
}

// Middleware observes every request.  Handler errors are rendered here so
// the recorded status is the one written to the client.
func (m *HTTPMetrics) Middleware() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            m.inflight.Inc()
            defer m.inflight.Dec()

            err := next(c)
            if err != nil {
                c.Error(err)
            }
            route := c.Path()
            method := c.Request().Method
            m.requests.WithLabelValues(method, route, strconv.Itoa(c.Response().Status)).Inc()
            m.duration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
            return nil
        }
    }
}
