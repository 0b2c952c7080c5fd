// Package http is the partner client's inbound API: the REST routes the phone and
// companion surfaces call, and the websocket they receive events on.
package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"partner/internal/core/application/engine"
	"partner/internal/core/application/usecases/commands"
	"partner/internal/core/application/usecases/queries"
	"partner/internal/core/domain/model/gesture"
	"partner/internal/core/domain/model/kernel"
	"partner/internal/core/domain/model/lifecycle"
	"partner/internal/core/ports"
	"partner/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// Lifecycle is the engine surface the API drives.
type Lifecycle interface {
	View(ctx context.Context) (engine.View, error)
	SelectRejectionReason(ctx context.Context, reason lifecycle.RejectionReason) error
	Gesture(ctx context.Context, action gesture.Action, phase engine.Phase, x, y, width float64) (gesture.Progress, error)
	Dismiss(ctx context.Context) error
}

// DeviceFeed accepts readings posted by the phone.
type DeviceFeed interface {
	Push(pos ports.Position)
	PushError(err *ports.PositionError)
}

// LocationView is the read side of the tracker.
type LocationView interface {
	Current() kernel.LocationSample
	History() []kernel.GeoPoint
	IsLive() bool
}

type PresenceReader interface {
	IsOnline() bool
}

// Deps are the collaborators of a Server. Deliveries may be nil when no database
// is configured; its route then answers 503.
type Deps struct {
	Lifecycle  Lifecycle
	Feed       DeviceFeed
	Location   LocationView
	Presence   PresenceReader
	Reject     commands.RejectOfferCommandHandler
	Rating     commands.SubmitRatingCommandHandler
	Toggle     commands.TogglePresenceCommandHandler
	Earnings   queries.GetEarningsSummaryQueryHandler
	Deliveries *queries.GetRecentDeliveriesQueryHandler
	Hub        *Hub
}

// Server handles the API routes.
type Server struct {
	deps Deps
}

func NewServer(deps Deps) *Server {
	return &Server{deps: deps}
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type (
	rejectRequest struct {
		Reason string `json:"reason"`
	}

	dismissRequest struct {
		Method string `json:"method"`
	}

	ratingRequest struct {
		Stars  int    `json:"stars"`
		Review string `json:"review"`
	}

	gestureRequest struct {
		X     float64 `json:"x"`
		Y     float64 `json:"y"`
		Width float64 `json:"width"`
	}

	presenceResponse struct {
		Online bool `json:"online"`
	}

	routeHistoryResponse struct {
		Current kernel.LocationSample `json:"current"`
		Live    bool                  `json:"live"`
		Points  []kernel.GeoPoint     `json:"points"`
	}
)

// GetLifecycle handles GET /api/v1/lifecycle.
func (s *Server) GetLifecycle(c echo.Context) error {
	v, err := s.deps.Lifecycle.View(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// SelectRejectionReason handles PUT /api/v1/lifecycle/rejection-reason.
func (s *Server) SelectRejectionReason(c echo.Context) error {
	var req rejectRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	reason, err := lifecycle.ParseRejectionReason(req.Reason)
	if err != nil {
		return fail(c, err)
	}
	if err = s.deps.Lifecycle.SelectRejectionReason(c.Request().Context(), reason); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// RejectOffer handles POST /api/v1/lifecycle/reject.
func (s *Server) RejectOffer(c echo.Context) error {
	var req rejectRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	cmd, err := commands.NewRejectOfferCommand(req.Reason)
	if err != nil {
		return fail(c, err)
	}
	if err = s.deps.Reject.Handle(c.Request().Context(), cmd); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Dismiss handles POST /api/v1/lifecycle/dismiss: a backdrop tap or swipe-down.
func (s *Server) Dismiss(c echo.Context) error {
	var req dismissRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	switch req.Method {
	case "backdrop", "swipe_down":
	default:
		return badRequest(c, "method must be backdrop or swipe_down")
	}
	if err := s.deps.Lifecycle.Dismiss(c.Request().Context()); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// SubmitRating handles POST /api/v1/lifecycle/rating.
func (s *Server) SubmitRating(c echo.Context) error {
	var req ratingRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	cmd, err := commands.NewSubmitRatingCommand(req.Stars, req.Review)
	if err != nil {
		return fail(c, err)
	}
	if err = s.deps.Rating.Handle(c.Request().Context(), cmd); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Gesture handles POST /api/v1/gestures/:action/:phase.
func (s *Server) Gesture(c echo.Context) error {
	action, err := gesture.ParseAction(c.Param("action"))
	if err != nil {
		return fail(c, err)
	}
	var req gestureRequest
	if err = c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	p, err := s.deps.Lifecycle.Gesture(c.Request().Context(), action, engine.Phase(c.Param("phase")), req.X, req.Y, req.Width)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// GetPresence handles GET /api/v1/presence.
func (s *Server) GetPresence(c echo.Context) error {
	return c.JSON(http.StatusOK, presenceResponse{Online: s.deps.Presence.IsOnline()})
}

// TogglePresence handles POST /api/v1/presence/toggle.
func (s *Server) TogglePresence(c echo.Context) error {
	online, err := s.deps.Toggle.Handle(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, presenceResponse{Online: online})
}

// PushLocation handles POST /api/v1/location. Readings are validated by the tracker,
// which silently discards bad ones, so any well-formed body is accepted.
func (s *Server) PushLocation(c echo.Context) error {
	var pos ports.Position
	if err := c.Bind(&pos); err != nil {
		return badRequest(c, "Invalid request body")
	}
	s.deps.Feed.Push(pos)
	return c.NoContent(http.StatusAccepted)
}

// PushLocationError handles POST /api/v1/location/error.
func (s *Server) PushLocationError(c echo.Context) error {
	var perr ports.PositionError
	if err := c.Bind(&perr); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if perr.Code < ports.PermissionDenied || perr.Code > ports.Timeout {
		return badRequest(c, "code must be 1, 2 or 3")
	}
	s.deps.Feed.PushError(&perr)
	return c.NoContent(http.StatusAccepted)
}

// GetEarnings handles GET /api/v1/earnings?period=today|week|month.
func (s *Server) GetEarnings(c echo.Context) error {
	period := c.QueryParam("period")
	if period == "" {
		period = "today"
	}
	query, err := queries.NewGetEarningsSummaryQuery(period)
	if err != nil {
		return fail(c, err)
	}
	summary, err := s.deps.Earnings.Handle(c.Request().Context(), query)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}

// GetRouteHistory handles GET /api/v1/route-history.
func (s *Server) GetRouteHistory(c echo.Context) error {
	return c.JSON(http.StatusOK, routeHistoryResponse{
		Current: s.deps.Location.Current(),
		Live:    s.deps.Location.IsLive(),
		Points:  s.deps.Location.History(),
	})
}

// GetRecentDeliveries handles GET /api/v1/deliveries?limit=n.
func (s *Server) GetRecentDeliveries(c echo.Context) error {
	if s.deps.Deliveries == nil {
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Code:    http.StatusServiceUnavailable,
			Message: "Delivery history is not configured",
		})
	}
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return badRequest(c, "limit must be a number")
		}
		limit = n
	}
	query, err := queries.NewGetRecentDeliveriesQuery(limit)
	if err != nil {
		return fail(c, err)
	}
	rows, err := s.deps.Deliveries.Handle(c.Request().Context(), query)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, rows)
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Code: http.StatusBadRequest, Message: msg})
}

// fail maps an application error to a status code. Lifecycle rule violations are
// conflicts with the current stage; other domain validation failures are bad input.
func fail(c echo.Context, err error) error {
	code := statusOf(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = "Internal error"
		c.Logger().Error(err)
	}
	return c.JSON(code, ErrorResponse{Code: code, Message: strings.TrimSpace(msg)})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, engine.ErrEngineStopped):
		return http.StatusServiceUnavailable
	case errors.Is(err, engine.ErrUnknownPhase):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrPartnerOffline),
		errors.Is(err, engine.ErrGestureNotExpected),
		errors.Is(err, engine.ErrCommitPending),
		errors.Is(err, lifecycle.ErrPanelIsBlocking),
		errors.Is(err, lifecycle.ErrNothingToDismiss),
		errors.Is(err, lifecycle.ErrOfferAlreadyActive),
		errors.Is(err, lifecycle.ErrCountdownIsNotRunning),
		isTransitionError(err):
		return http.StatusConflict
	case errors.Is(err, errs.ErrObjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrValueIsInvalid),
		errors.Is(err, errs.ErrValueIsRequired),
		errors.Is(err, errs.ErrValueIsOutOfRange):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func isTransitionError(err error) bool {
	var invalid *errs.ValueIsInvalidError
	return errors.As(err, &invalid) && invalid.ParamName == "stage transition is invalid"
}
