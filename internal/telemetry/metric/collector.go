package metric

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/kvmesh-go/internal/storage/memory"
)

// StatsSource reports store statistics.
type StatsSource interface {
	Stats() memory.Stats
}

// StoreCollector samples store statistics at scrape time.
type StoreCollector struct {
	src StatsSource

	keys      *prometheus.Desc
	bytes     *prometheus.Desc
	shardKeys *prometheus.Desc
}

// NewStoreCollector creates a collector reading from src.
func NewStoreCollector(src StatsSource) *StoreCollector {
	return &StoreCollector{
		src: src,
		keys: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "store", "keys"),
			"Number of stored keys.",
			nil, nil,
		),
		bytes: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "store", "value_bytes"),
			"Total size of stored values in bytes.",
			nil, nil,
		),
		shardKeys: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "store", "shard_keys"),
			"Number of keys held by each shard.",
			[]string{"shard"}, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *StoreCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.keys
	ch <- c.bytes
	ch <- c.shardKeys
}

// Collect implements prometheus.Collector.
func (c *StoreCollector) Collect(ch chan<- prometheus.Metric) {
	st := c.src.Stats()

	ch <- prometheus.MustNewConstMetric(c.keys, prometheus.GaugeValue, float64(st.Keys))
	ch <- prometheus.MustNewConstMetric(c.bytes, prometheus.GaugeValue, float64(st.Bytes))
	for _, s := range st.Shards {
		ch <- prometheus.MustNewConstMetric(c.shardKeys, prometheus.GaugeValue,
			float64(s.Count), strconv.Itoa(s.Index))
	}
}
