package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Marketplace API metrics
var (
	// APIRequestsTotal tracks marketplace calls by endpoint and outcome
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockkeeper_api_requests_total",
			Help: "Total marketplace API requests by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"},
	)

	// APIRequestDuration tracks marketplace call latency in seconds
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stockkeeper_api_request_duration_seconds",
			Help:    "Marketplace API request duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20},
		},
		[]string{"endpoint"},
	)
)

// Poll loop metrics
var (
	// CyclesTotal tracks finished poll cycles by outcome
	CyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockkeeper_cycles_total",
			Help: "Total poll cycles by outcome",
		},
		[]string{"outcome"},
	)

	// ItemsCheckedTotal tracks vendor items compared against the stock floor
	ItemsCheckedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stockkeeper_items_checked_total",
			Help: "Total vendor items compared against the stock floor",
		},
	)

	// RestocksTotal tracks quantity updates issued
	RestocksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stockkeeper_restocks_total",
			Help: "Total stock quantity updates issued",
		},
	)

	// LastCycleTimestamp is the unix time of the last finished cycle
	LastCycleTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stockkeeper_last_cycle_timestamp_seconds",
			Help: "Unix time of the last finished poll cycle",
		},
	)
)
