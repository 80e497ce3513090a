package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "countrysvc", Name: "refresh_total", Help: "Refresh pipeline runs by outcome."},
		[]string{"outcome"},
	)
	RefreshDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Namespace: "countrysvc", Name: "refresh_duration_seconds", Help: "End-to-end duration of successful refreshes.", Buckets: prometheus.DefBuckets},
	)
	CountriesUpserted = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "countrysvc", Name: "countries_upserted_total", Help: "Country records written by refresh batches."},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "countrysvc", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "countrysvc", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RefreshTotal)
	reg.MustRegister(RefreshDuration)
	reg.MustRegister(CountriesUpserted)
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
}
