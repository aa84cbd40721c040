package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	monitoringRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tablo_monitoring_requests_total",
		Help: "Monitoring aggregations computed, by view.",
	}, []string{"view"})

	// ExportDuration is observed by the export engine per generated artifact.
	ExportDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tablo_export_duration_seconds",
		Help:    "Time spent generating export artifacts.",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
	}, []string{"kind"})

	// ExportFiles counts archive entries by outcome (added, skipped, annotated).
	ExportFiles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tablo_export_files_total",
		Help: "Files processed by archive exports, by result.",
	}, []string{"result"})
)
