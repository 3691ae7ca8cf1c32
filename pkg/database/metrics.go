package database

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// PoolStats is the part of *pgxpool.Stat the collector reads.
type PoolStats interface {
	AcquiredConns() int32
	IdleConns() int32
	TotalConns() int32
	MaxConns() int32
	AcquireCount() int64
	EmptyAcquireCount() int64
	CanceledAcquireCount() int64
}

type gauge struct {
	desc  *prometheus.Desc
	kind  prometheus.ValueType
	value func(PoolStats) float64
}

// PoolStatsCollector exports connection pool statistics, read on every
// scrape.
type PoolStatsCollector struct {
	stat    func() PoolStats
	service string
	metrics []gauge
}

// NewPoolStatsCollector creates a collector for pool labelled with service.
func NewPoolStatsCollector(pool *pgxpool.Pool, service string) *PoolStatsCollector {
	return newPoolStatsCollector(func() PoolStats { return pool.Stat() }, service)
}

func newPoolStatsCollector(stat func() PoolStats, service string) *PoolStatsCollector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc("deskly_db_pool_"+name, help, []string{"service"}, nil)
	}
	return &PoolStatsCollector{
		stat:    stat,
		service: service,
		metrics: []gauge{
			{desc("acquired_connections", "Connections currently in use."), prometheus.GaugeValue,
				func(s PoolStats) float64 { return float64(s.AcquiredConns()) }},
			{desc("idle_connections", "Connections currently idle."), prometheus.GaugeValue,
				func(s PoolStats) float64 { return float64(s.IdleConns()) }},
			{desc("total_connections", "Connections currently open."), prometheus.GaugeValue,
				func(s PoolStats) float64 { return float64(s.TotalConns()) }},
			{desc("max_connections", "Configured pool size."), prometheus.GaugeValue,
				func(s PoolStats) float64 { return float64(s.MaxConns()) }},
			{desc("acquires_total", "Connection acquires."), prometheus.CounterValue,
				func(s PoolStats) float64 { return float64(s.AcquireCount()) }},
			{desc("empty_acquires_total", "Acquires that had to wait for a connection."), prometheus.CounterValue,
				func(s PoolStats) float64 { return float64(s.EmptyAcquireCount()) }},
			{desc("canceled_acquires_total", "Acquires cancelled before a connection was free."), prometheus.CounterValue,
				func(s PoolStats) float64 { return float64(s.CanceledAcquireCount()) }},
		},
	}
}

// Describe implements prometheus.Collector.
func (c *PoolStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, m := range c.metrics {
		ch <- m.desc
	}
}

// Collect implements prometheus.Collector.
func (c *PoolStatsCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.stat()
	for _, m := range c.metrics {
		ch <- prometheus.MustNewConstMetric(m.desc, m.kind, m.value(s), c.service)
	}
}

// RegisterPoolMetrics registers a collector for pool with the default
// registry.
func RegisterPoolMetrics(pool *pgxpool.Pool, service string) {
	prometheus.MustRegister(NewPoolStatsCollector(pool, service))
}
