package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Varun5711/bookshelf/internal/database"
)

// poolCollector reads connection pool stats at scrape time.
type poolCollector struct {
	stats    func() []database.PoolStat
	total    *prometheus.Desc
	idle     *prometheus.Desc
	acquired *prometheus.Desc
}

// RegisterPoolStats exports the database pools' connection counts, labelled by pool name.
func RegisterPoolStats(registry prometheus.Registerer, stats func() []database.PoolStat) {
	registry.MustRegister(&poolCollector{
		stats:    stats,
		total:    prometheus.NewDesc("bookshelf_db_pool_total_conns", "Open connections in the pool", []string{"pool"}, nil),
		idle:     prometheus.NewDesc("bookshelf_db_pool_idle_conns", "Idle connections in the pool", []string{"pool"}, nil),
		acquired: prometheus.NewDesc("bookshelf_db_pool_acquired_conns", "Connections currently in use", []string{"pool"}, nil),
	})
}

func (c *poolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.total
	ch <- c.idle
	ch <- c.acquired
}

func (c *poolCollector) Collect(ch chan<- prometheus.Metric) {
	for _, s := range c.stats() {
		ch <- prometheus.MustNewConstMetric(c.total, prometheus.GaugeValue, float64(s.Total), s.Name)
		ch <- prometheus.MustNewConstMetric(c.idle, prometheus.GaugeValue, float64(s.Idle), s.Name)
		ch <- prometheus.MustNewConstMetric(c.acquired, prometheus.GaugeValue, float64(s.Acquired), s.Name)
	}
}
