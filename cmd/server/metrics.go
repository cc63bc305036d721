package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

const (
	outcomeOK               = "ok"
	outcomeInvalidSelection = "invalid_selection"
	outcomeDataIntegrity    = "data_integrity"
	outcomeInternal         = "internal"
)

type metrics struct {
	registry     *prometheus.Registry
	calculations *prometheus.CounterVec
	totals       prometheus.Histogram
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		calculations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "prints",
			Subsystem: "pricing",
			Name:      "calculations_total",
			Help:      "Price calculations by outcome.",
		}, []string{"outcome"}),
		totals: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "prints",
			Subsystem: "pricing",
			Name:      "total_price",
			Help:      "Total price of successful calculations.",
			Buckets:   prometheus.ExponentialBuckets(10, 2, 10),
		}),
	}
	m.registry.MustRegister(
		m.calculations,
		m.totals,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *metrics) observe(outcome string) {
	m.calculations.WithLabelValues(outcome).Inc()
}

func (m *metrics) observeTotal(total decimal.Decimal) {
	m.observe(outcomeOK)
	m.totals.Observe(total.InexactFloat64())
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
