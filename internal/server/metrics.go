package server

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	requests       *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	cacheLookups   *prometheus.CounterVec
	adminWrites    *prometheus.CounterVec
	catalogRecords *prometheus.GaugeVec
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "biodex",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "biodex",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "biodex",
			Name:      "search_cache_lookups_total",
			Help:      "Search result cache lookups by result.",
		}, []string{"result"}),
		adminWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "biodex",
			Name:      "admin_writes_total",
			Help:      "Admin species writes by operation and outcome.",
		}, []string{"op", "outcome"}),
		catalogRecords: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "biodex",
			Name:      "catalog_records",
			Help:      "Records in the served catalog by kind.",
		}, []string{"kind"}),
	}

	for _, c := range []prometheus.Collector{m.requests, m.duration, m.cacheLookups, m.adminWrites, m.catalogRecords} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}
	return m, nil
}
