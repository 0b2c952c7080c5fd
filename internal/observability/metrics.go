// Package observability holds the process metrics exposed on /metrics.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "partner"

// Lifecycle.
var (
	OffersTotal = promauto.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "offers_total", Help: "Offers presented to the partner"},
	)
	OfferOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "offer_outcomes_total", Help: "How offers left the lifecycle"},
		[]string{"outcome"},
	)
	StageTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "stage_transitions_total", Help: "Lifecycle transitions by destination stage"},
		[]string{"stage"},
	)
	RejectedInputsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rejected_inputs_total", Help: "User actions refused by the lifecycle"},
		[]string{"input"},
	)
	RouteFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "route_fallbacks_total", Help: "Straight-line routes substituted for failed route queries"},
		[]string{"leg"},
	)
	RouteLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "route_latency_seconds",
		Help:      "Route query latency",
		Buckets:   prometheus.DefBuckets,
	})
)

// Tracking and presence.
var (
	InvalidSamplesTotal = promauto.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "invalid_location_samples_total", Help: "Location samples discarded by validation"},
	)
	LocationErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "location_errors_total", Help: "Geolocation errors by code"},
		[]string{"code"},
	)
	MarkerReattachTotal = promauto.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "marker_reattach_total", Help: "Times the marker was found detached and re-attached"},
	)
	TrackingLive = promauto.NewGauge(
		prometheus.GaugeOpts{Namespace: namespace, Name: "tracking_live", Help: "1 while live tracking, 0 in degraded mode"},
	)
	Online = promauto.NewGauge(
		prometheus.GaugeOpts{Namespace: namespace, Name: "online", Help: "Presence flag as last synced"},
	)
	WalletFallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "wallet_fallbacks_total", Help: "Empty wallet substituted for failed wallet fetches"},
	)
)

// HTTP.
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
