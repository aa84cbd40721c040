package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

var startTime = time.Now()

// RegisterRuntimeMetrics adds uptime and database pool gauges to the default
// registry. Go runtime metrics are collected by client_golang itself.
func RegisterRuntimeMetrics(db *gorm.DB) error {
	collectors := []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "guestflow_uptime_seconds",
			Help: "Time since server start in seconds.",
		}, func() float64 { return time.Since(startTime).Seconds() }),
	}

	if sqlDB, err := db.DB(); err == nil {
		collectors = append(collectors,
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Name: "guestflow_db_open_connections",
				Help: "Number of open DB connections.",
			}, func() float64 { return float64(sqlDB.Stats().OpenConnections) }),
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Name: "guestflow_db_in_use_connections",
				Help: "Number of in-use DB connections.",
			}, func() float64 { return float64(sqlDB.Stats().InUse) }),
		)
	}

	for _, collector := range collectors {
		if err := prometheus.Register(collector); err != nil {
			return err
		}
	}
	return nil
}

// Metrics serves the default Prometheus registry
// GET /metrics
func Metrics() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
