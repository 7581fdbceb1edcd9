package http

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metricsRegistry struct {
	registry       *prometheus.Registry
	requestsTotal  *prometheus.CounterVec
	quotesTotal    *prometheus.CounterVec
	purchasesTotal *prometheus.CounterVec
	rpcLatency     prometheus.Gauge
}

func newMetricsRegistry() *metricsRegistry {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rcxsale_requests_total",
		Help: "API requests by route and status code",
	}, []string{"route", "status"})

	quotes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rcxsale_quotes_total",
		Help: "Quote requests by outcome",
	}, []string{"status"})

	purchases := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rcxsale_purchases_total",
		Help: "Purchase submissions by outcome",
	}, []string{"status"})

	rpc := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "rcxsale_rpc_latency_seconds",
		Help: "Latency of the last read-endpoint health probe",
	})

	r := prometheus.NewRegistry()
	r.MustRegister(requests, quotes, purchases, rpc)

	return &metricsRegistry{
		registry:       r,
		requestsTotal:  requests,
		quotesTotal:    quotes,
		purchasesTotal: purchases,
		rpcLatency:     rpc,
	}
}

func (m *metricsRegistry) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *metricsRegistry) incRequest(route, status string) {
	m.requestsTotal.WithLabelValues(route, status).Inc()
}

func (m *metricsRegistry) incQuote(status string) {
	m.quotesTotal.WithLabelValues(status).Inc()
}

func (m *metricsRegistry) incPurchase(status string) {
	m.purchasesTotal.WithLabelValues(status).Inc()
}

func (m *metricsRegistry) observeRPCLatency(d time.Duration) {
	m.rpcLatency.Set(d.Seconds())
}
