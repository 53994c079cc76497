package weft

import (
	"os"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	registry *prometheus.Registry

	// Counters
	nextConnectionID prometheus.CounterFunc

	// Gauges
	openConnections prometheus.GaugeFunc
	factTypes       prometheus.GaugeFunc
	roles           prometheus.GaugeFunc
	cachedFeeds     prometheus.GaugeFunc

	// Latency histograms
	parseLatency      prometheus.Summary
	feedBuildLatency  prometheus.Summary
	sqlCompileLatency prometheus.Summary
}

func newMetrics(s *Service) *metrics {
	m := &metrics{
		nextConnectionID: prometheus.NewCounterFunc(
			prometheus.CounterOpts{
				Name: "next_connection_id",
				Help: "number of connections to this server over its lifetime",
			},
			func() float64 {
				return float64(s.nextConnectionID)
			},
		),
		openConnections: prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "open_connections",
				Help: "number of connections currently open",
			},
			func() float64 {
				return float64(len(s.connections))
			},
		),
		factTypes: prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "fact_types",
				Help: "number of declared fact types",
			},
			func() float64 {
				s.mu.RLock()
				defer s.mu.RUnlock()
				return float64(s.mu.types.Size())
			},
		),
		roles: prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "roles",
				Help: "number of declared roles across all fact types",
			},
			func() float64 {
				s.mu.RLock()
				defer s.mu.RUnlock()
				return float64(s.mu.roles.Size())
			},
		),
		cachedFeeds: prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "cached_feeds",
				Help: "number of compiled feeds in the cache",
			},
			func() float64 {
				return float64(s.cache.Size())
			},
		),
		parseLatency: prometheus.NewSummary(
			prometheus.SummaryOpts{
				Name: "parse_latency_ns",
				Help: "latency to parse a specification",
			},
		),
		feedBuildLatency: prometheus.NewSummary(
			prometheus.SummaryOpts{
				Name: "feed_build_latency_ns",
				Help: "latency to decompose a specification into feeds",
			},
		),
		sqlCompileLatency: prometheus.NewSummary(
			prometheus.SummaryOpts{
				Name: "sql_compile_latency_ns",
				Help: "latency to compile all of a specification's feeds to SQL",
			},
		),
	}
	m.registry = prometheus.NewPedanticRegistry()
	reg := m.registry

	reg.MustRegister(prometheus.NewProcessCollector(os.Getpid(), ""))
	reg.MustRegister(prometheus.NewGoCollector())

	reg.MustRegister(m.nextConnectionID)
	reg.MustRegister(m.openConnections)
	reg.MustRegister(m.factTypes)
	reg.MustRegister(m.roles)
	reg.MustRegister(m.cachedFeeds)
	reg.MustRegister(m.parseLatency)
	reg.MustRegister(m.feedBuildLatency)
	reg.MustRegister(m.sqlCompileLatency)
	return m
}
