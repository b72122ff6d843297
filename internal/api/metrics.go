package api

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hackdesk_requests_total",
			Help: "Total number of handled API requests.",
		},
		[]string{"method", "path", "status"},
	)
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hackdesk_request_duration_seconds",
			Help:    "Duration of handled API requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

func (v *View) registerMetricsHandlers(g *echo.Group) {
	g.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

func wrapMetrics(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		begin := time.Now()
		err := next(c)
		path := c.Path()
		requestDuration.WithLabelValues(c.Request().Method, path).
			Observe(time.Since(begin).Seconds())
		requestCounter.WithLabelValues(
			c.Request().Method, path,
			strconv.Itoa(c.Response().Status),
		).Inc()
		return err
	}
}
