package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics are registered on a private registry so several servers can live
// in one process.
type Metrics struct {
	Registry    *prometheus.Registry
	Loads       *prometheus.CounterVec
	Normalize   prometheus.Histogram
	Diagnostics *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "socstudy_study_loads_total",
			Help: "Study loads by result.",
		}, []string{"result"}),
		Normalize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "socstudy_normalize_duration_seconds",
			Help:    "Time spent normalizing a loaded study.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
		Diagnostics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "socstudy_diagnostics_total",
			Help: "Data diagnostics raised while normalizing, by kind.",
		}, []string{"kind"}),
	}
	m.Registry.MustRegister(
		m.Loads, m.Normalize, m.Diagnostics,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}
