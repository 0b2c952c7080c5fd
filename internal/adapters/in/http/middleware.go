package http

import (
	"log/slog"
	"strconv"
	"time"

	"partner/internal/observability"

	"github.com/labstack/echo/v4"
)

// Observe counts and times every request by route template and logs it. Health and
// metrics scrapes are logged at debug level only.
func Observe(logger *slog.Logger) echo.MiddlewareFunc {
	logger = logger.With("component", "http")
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
			}
			elapsed := time.Since(start)

			req, res := c.Request(), c.Response()
			route := c.Path()
			if route == "" {
				route = req.URL.Path
			}
			status := strconv.Itoa(res.Status)

			observability.HTTPRequestsTotal.WithLabelValues(req.Method, route, status).Inc()
			observability.HTTPRequestDuration.WithLabelValues(req.Method, route, status).Observe(elapsed.Seconds())

			level := slog.LevelInfo
			if route == "/health" || route == "/metrics" {
				level = slog.LevelDebug
			}
			logger.Log(req.Context(), level, "http_request",
				"method", req.Method,
				"route", route,
				"status", res.Status,
				"duration_ms", elapsed.Milliseconds(),
				"remote_addr", c.RealIP(),
				"request_id", res.Header().Get(echo.HeaderXRequestID),
			)
			return nil
		}
	}
}
