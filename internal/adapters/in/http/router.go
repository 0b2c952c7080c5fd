package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter builds the echo instance serving every route of s.
func NewRouter(s *Server, observe echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	if observe != nil {
		e.Use(observe)
	}

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "Healthy")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	if s.deps.Hub != nil {
		e.GET("/ws", s.deps.Hub.Handle)
	}

	v1 := e.Group("/api/v1")

	v1.GET("/lifecycle", s.GetLifecycle)
	v1.PUT("/lifecycle/rejection-reason", s.SelectRejectionReason)
	v1.POST("/lifecycle/reject", s.RejectOffer)
	v1.POST("/lifecycle/dismiss", s.Dismiss)
	v1.POST("/lifecycle/rating", s.SubmitRating)
	v1.POST("/gestures/:action/:phase", s.Gesture)

	v1.GET("/presence", s.GetPresence)
	v1.POST("/presence/toggle", s.TogglePresence)

	v1.POST("/location", s.PushLocation)
	v1.POST("/location/error", s.PushLocationError)
	v1.GET("/route-history", s.GetRouteHistory)

	v1.GET("/earnings", s.GetEarnings)
	v1.GET("/deliveries", s.GetRecentDeliveries)

	return e
}
