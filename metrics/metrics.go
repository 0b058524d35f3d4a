// Package metrics exports codec registry statistics to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wippyai/binpack/codec"
)

// Collector reads a registry's counters on every scrape.
type Collector struct {
	reg       *codec.Registry
	compiled  *prometheus.Desc
	failed    *prometheus.Desc
	discarded *prometheus.Desc
	lookups   *prometheus.Desc
}

// NewCollector returns a collector for reg. constLabels are attached to
// every metric, which lets several registries share one Prometheus registry.
func NewCollector(reg *codec.Registry, namespace string, constLabels prometheus.Labels) *Collector {
	name := func(n string) string {
		return prometheus.BuildFQName(namespace, "codec", n)
	}
	return &Collector{
		reg: reg,
		compiled: prometheus.NewDesc(name("compiled_total"),
			"Codecs built and published by the registry.", nil, constLabels),
		failed: prometheus.NewDesc(name("build_failures_total"),
			"Top-level codec builds that failed.", nil, constLabels),
		discarded: prometheus.NewDesc(name("discarded_total"),
			"Codecs dropped because a concurrent build published first.", nil, constLabels),
		lookups: prometheus.NewDesc(name("lookups_total"),
			"Registry lookups by result.", []string{"result"}, constLabels),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.compiled
	ch <- c.failed
	ch <- c.discarded
	ch <- c.lookups
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	st := c.reg.Stats()
	ch <- prometheus.MustNewConstMetric(c.compiled, prometheus.CounterValue, float64(st.Compiled))
	ch <- prometheus.MustNewConstMetric(c.failed, prometheus.CounterValue, float64(st.Failed))
	ch <- prometheus.MustNewConstMetric(c.discarded, prometheus.CounterValue, float64(st.Discarded))
	ch <- prometheus.MustNewConstMetric(c.lookups, prometheus.CounterValue, float64(st.Hits), "hit")
	ch <- prometheus.MustNewConstMetric(c.lookups, prometheus.CounterValue, float64(st.Misses), "miss")
}
