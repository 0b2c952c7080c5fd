package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	httpapi "partner/internal/adapters/in/http"
	"partner/internal/core/application/engine"
	"partner/internal/core/application/usecases/commands"
	"partner/internal/core/application/usecases/queries"
	"partner/internal/core/domain/model/gesture"
	"partner/internal/core/domain/model/kernel"
	"partner/internal/core/domain/model/lifecycle"
	"partner/internal/core/domain/model/wallet"
	"partner/internal/core/ports"
	"partner/internal/pkg/logging"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockLifecycle struct {
	mock.Mock
}

func (m *MockLifecycle) View(ctx context.Context) (engine.View, error) {
	args := m.Called(ctx)
	return args.Get(0).(engine.View), args.Error(1)
}

func (m *MockLifecycle) SelectRejectionReason(ctx context.Context, reason lifecycle.RejectionReason) error {
	return m.Called(ctx, reason).Error(0)
}

func (m *MockLifecycle) Gesture(
	ctx context.Context, action gesture.Action, phase engine.Phase, x, y, width float64,
) (gesture.Progress, error) {
	args := m.Called(ctx, action, phase, x, y, width)
	return args.Get(0).(gesture.Progress), args.Error(1)
}

func (m *MockLifecycle) Dismiss(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockLifecycle) Reject(ctx context.Context, reason *lifecycle.RejectionReason) error {
	return m.Called(ctx, reason).Error(0)
}

func (m *MockLifecycle) SubmitRating(ctx context.Context, stars int, review string) error {
	return m.Called(ctx, stars, review).Error(0)
}

type MockPresence struct {
	mock.Mock
}

func (m *MockPresence) IsOnline() bool {
	return m.Called().Bool(0)
}

func (m *MockPresence) Toggle(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

type MockWallet struct {
	mock.Mock
}

func (m *MockWallet) Wallet(ctx context.Context) (wallet.State, error) {
	args := m.Called(ctx)
	return args.Get(0).(wallet.State), args.Error(1)
}

type fakeFeed struct {
	positions []ports.Position
	errors    []*ports.PositionError
}

func (f *fakeFeed) Push(pos ports.Position)            { f.positions = append(f.positions, pos) }
func (f *fakeFeed) PushError(err *ports.PositionError) { f.errors = append(f.errors, err) }

type fakeLocation struct{}

func (fakeLocation) Current() kernel.LocationSample {
	return kernel.LocationSample{Point: kernel.DefaultGeoPoint, Heading: 45}
}

func (fakeLocation) History() []kernel.GeoPoint {
	return []kernel.GeoPoint{kernel.DefaultGeoPoint, kernel.MustNewGeoPoint(22.72, 75.86)}
}

func (fakeLocation) IsLive() bool { return true }

type fixture struct {
	e        *echo.Echo
	life     *MockLifecycle
	presence *MockPresence
	wallet   *MockWallet
	feed     *fakeFeed
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		life:     &MockLifecycle{},
		presence: &MockPresence{},
		wallet:   &MockWallet{},
		feed:     &fakeFeed{},
	}
	s := httpapi.NewServer(httpapi.Deps{
		Lifecycle: f.life,
		Feed:      f.feed,
		Location:  fakeLocation{},
		Presence:  f.presence,
		Reject:    commands.NewRejectOfferCommandHandler(f.life),
		Rating:    commands.NewSubmitRatingCommandHandler(f.life),
		Toggle:    commands.NewTogglePresenceCommandHandler(f.presence),
		Earnings:  queries.NewGetEarningsSummaryQueryHandler(f.wallet, nil, logging.Discard()),
	})
	f.e = httpapi.NewRouter(s, httpapi.Observe(logging.Discard()))
	return f
}

func (f *fixture) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Healthy", rec.Body.String())
}

func TestMetrics(t *testing.T) {
	f := newFixture(t)
	f.do(http.MethodGet, "/health", "")

	rec := f.do(http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "partner_http_requests_total")
}

func TestGetLifecycle(t *testing.T) {
	f := newFixture(t)
	f.life.On("View", mock.Anything).Return(engine.View{
		Gesture: &gesture.Progress{Action: gesture.AcceptOrder},
		Reasons: lifecycle.RejectionReasons(),
	}, nil).Once()

	rec := f.do(http.MethodGet, "/api/v1/lifecycle", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string]any](t, rec)
	assert.Len(t, body["rejectionReasons"], 7)
	assert.Equal(t, "accept-order", body["gesture"].(map[string]any)["action"])
}

func TestGetLifecycle_EngineStopped(t *testing.T) {
	f := newFixture(t)
	f.life.On("View", mock.Anything).Return(engine.View{}, engine.ErrEngineStopped).Once()

	rec := f.do(http.MethodGet, "/api/v1/lifecycle", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRejectOffer(t *testing.T) {
	f := newFixture(t)
	f.life.On("Reject", mock.Anything, mock.MatchedBy(func(r *lifecycle.RejectionReason) bool {
		return r != nil && *r == lifecycle.ReasonTooFar
	})).Return(nil).Once()

	rec := f.do(http.MethodPost, "/api/v1/lifecycle/reject", `{"reason":"too_far"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	f.life.AssertExpectations(t)
}

func TestRejectOffer_Errors(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/v1/lifecycle/reject", `{"reason":"bored"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/api/v1/lifecycle/reject", `{"reason":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	f.life.On("Reject", mock.Anything, mock.Anything).Return(engine.ErrCommitPending).Once()
	rec = f.do(http.MethodPost, "/api/v1/lifecycle/reject", `{"reason":"too_far"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSelectRejectionReason(t *testing.T) {
	f := newFixture(t)
	f.life.On("SelectRejectionReason", mock.Anything, lifecycle.ReasonUnsafeArea).Return(nil).Once()

	rec := f.do(http.MethodPut, "/api/v1/lifecycle/rejection-reason", `{"reason":"unsafe_area"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	f.life.AssertExpectations(t)
}

func TestDismiss(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/v1/lifecycle/dismiss", `{"method":"shake"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	f.life.AssertNotCalled(t, "Dismiss", mock.Anything)

	f.life.On("Dismiss", mock.Anything).Return(lifecycle.ErrPanelIsBlocking).Once()
	rec = f.do(http.MethodPost, "/api/v1/lifecycle/dismiss", `{"method":"backdrop"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, decode[httpapi.ErrorResponse](t, rec).Message, "order id panel")

	f.life.On("Dismiss", mock.Anything).Return(nil).Once()
	rec = f.do(http.MethodPost, "/api/v1/lifecycle/dismiss", `{"method":"swipe_down"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestSubmitRating(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/v1/lifecycle/rating", `{"stars":6}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	f.life.On("SubmitRating", mock.Anything, 4, "friendly").Return(nil).Once()
	rec = f.do(http.MethodPost, "/api/v1/lifecycle/rating", `{"stars":4,"review":" friendly "}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	f.life.AssertExpectations(t)
}

func TestGesture(t *testing.T) {
	f := newFixture(t)
	f.life.On("Gesture", mock.Anything, gesture.AcceptOrder, engine.PhaseMove, 120.0, 10.0, 300.0).
		Return(gesture.Progress{Action: gesture.AcceptOrder, Value: 0.5}, nil).Once()

	rec := f.do(http.MethodPost, "/api/v1/gestures/accept-order/move", `{"x":120,"y":10,"width":300}`)
	require.Equal(t, http.StatusOK, rec.Code)
	p := decode[gesture.Progress](t, rec)
	assert.InDelta(t, 0.5, p.Value, 1e-9)
}

func TestGesture_Errors(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/v1/gestures/fly/move", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	f.life.On("Gesture", mock.Anything, gesture.ReachedDrop, engine.Phase("hover"), 0.0, 0.0, 0.0).
		Return(gesture.Progress{}, engine.ErrUnknownPhase).Once()
	rec = f.do(http.MethodPost, "/api/v1/gestures/reached-drop/hover", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	f.life.On("Gesture", mock.Anything, gesture.ReachedDrop, engine.PhaseStart, 0.0, 0.0, 0.0).
		Return(gesture.Progress{}, engine.ErrGestureNotExpected).Once()
	rec = f.do(http.MethodPost, "/api/v1/gestures/reached-drop/start", `{}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	_, transitionErr := lifecycle.Idle.Fire(lifecycle.TriggerAccept)
	f.life.On("Gesture", mock.Anything, gesture.AcceptOrder, engine.PhaseRelease, 0.0, 0.0, 0.0).
		Return(gesture.Progress{}, transitionErr).Once()
	rec = f.do(http.MethodPost, "/api/v1/gestures/accept-order/release", `{}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	f.life.On("Gesture", mock.Anything, gesture.AcceptOrder, engine.PhaseCancel, 0.0, 0.0, 0.0).
		Return(gesture.Progress{}, errors.New("boom")).Once()
	rec = f.do(http.MethodPost, "/api/v1/gestures/accept-order/cancel", `{}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal error", decode[httpapi.ErrorResponse](t, rec).Message)
}

func TestPresence(t *testing.T) {
	f := newFixture(t)
	f.presence.On("IsOnline").Return(false).Once()
	f.presence.On("Toggle", mock.Anything).Return(true, nil).Once()

	rec := f.do(http.MethodGet, "/api/v1/presence", "")
	assert.JSONEq(t, `{"online":false}`, rec.Body.String())

	rec = f.do(http.MethodPost, "/api/v1/presence/toggle", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"online":true}`, rec.Body.String())
}

func TestPushLocation(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/v1/location",
		`{"coords":{"latitude":22.72,"longitude":75.86,"heading":90,"accuracy":4},"timestamp":"2025-03-01T10:00:00Z"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, f.feed.positions, 1)
	require.NotNil(t, f.feed.positions[0].Coords.Latitude)
	assert.Equal(t, 22.72, *f.feed.positions[0].Coords.Latitude)
	require.NotNil(t, f.feed.positions[0].Coords.Heading)
	assert.Equal(t, 90.0, *f.feed.positions[0].Coords.Heading)
}

func TestPushLocationError(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/v1/location/error", `{"code":7}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/api/v1/location/error", `{"code":1,"message":"denied"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, f.feed.errors, 1)
	assert.Equal(t, ports.PermissionDenied, f.feed.errors[0].Code)
}

func TestGetRouteHistory(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/api/v1/route-history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Len(t, body["points"], 2)
	assert.Equal(t, true, body["live"])
}

func TestGetEarnings(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/api/v1/earnings?period=year", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	f.wallet.On("Wallet", mock.Anything).Return(wallet.State{}, errors.New("backend down")).Once()
	rec = f.do(http.MethodGet, "/api/v1/earnings", "")
	require.Equal(t, http.StatusOK, rec.Code)

	summary := decode[queries.GetEarningsSummaryQueryResponse](t, rec)
	assert.Equal(t, wallet.Today, summary.Period)
	assert.True(t, summary.WalletUnavailable)
	assert.Zero(t, summary.Earnings)
	assert.NotNil(t, summary.Transactions)
}

func TestGetRecentDeliveries_NotConfigured(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/api/v1/deliveries", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
