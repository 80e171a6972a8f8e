// If you are AI: This file exports port, link and pool state as Prometheus metrics.
// Values are read from the registry on scrape; nothing is recorded on the send path.

package observability

import (
	"net/http"

	"dataflow/internal/core/flow"
	"dataflow/internal/core/pool"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dataflow"

// Collector is a prometheus.Collector over a flow registry and an optional buffer pool.
// Lock expectations: Collect takes registry and sender locks briefly per scrape.
type Collector struct {
	registry *flow.Registry
	pool     *pool.Pool

	senderLinks     *prometheus.Desc
	senderTracked   *prometheus.Desc
	senderDelivered *prometheus.Desc
	senderSkipped   *prometheus.Desc
	senderReleased  *prometheus.Desc
	senderFreed     *prometheus.Desc
	linkQueued      *prometheus.Desc
	linkCapacity    *prometheus.Desc
	poolAllocated   *prometheus.Desc
	poolReused      *prometheus.Desc
	poolInUse       *prometheus.Desc
	poolIdle        *prometheus.Desc
}

// NewCollector creates a collector. p may be nil.
func NewCollector(registry *flow.Registry, p *pool.Pool) *Collector {
	sender := []string{"port", "data_type"}
	link := []string{"from", "to"}
	return &Collector{
		registry: registry,
		pool:     p,

		senderLinks:     desc("sender", "links", "Receivers linked to the sender.", sender),
		senderTracked:   desc("sender", "tracked_buffers", "Buffers with outstanding references.", sender),
		senderDelivered: desc("sender", "delivered_total", "Frames pushed to receiver queues.", sender),
		senderSkipped:   desc("sender", "skipped_total", "Deliveries skipped because a queue was full.", sender),
		senderReleased:  desc("sender", "released_total", "Release calls matching a tracked buffer.", sender),
		senderFreed:     desc("sender", "freed_total", "Buffers whose reference count reached zero.", sender),
		linkQueued:      desc("link", "queued_frames", "Frames waiting in the link queue.", link),
		linkCapacity:    desc("link", "capacity", "Capacity of the link queue.", link),
		poolAllocated:   desc("pool", "allocated_total", "Buffers allocated by the pool.", nil),
		poolReused:      desc("pool", "reused_total", "Acquires served from the idle list.", nil),
		poolInUse:       desc("pool", "in_use_buffers", "Buffers currently out of the pool.", nil),
		poolIdle:        desc("pool", "idle_buffers", "Buffers waiting for reuse.", nil),
	}
}

// desc builds a namespaced metric description.
func desc(subsystem, name, help string, labels []string) *prometheus.Desc {
	return prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystem, name), help, labels, nil)
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		c.senderLinks, c.senderTracked, c.senderDelivered, c.senderSkipped,
		c.senderReleased, c.senderFreed, c.linkQueued, c.linkCapacity,
		c.poolAllocated, c.poolReused, c.poolInUse, c.poolIdle,
	} {
		ch <- d
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, s := range c.registry.Senders() {
		st := s.Stats()
		labels := []string{s.ID().String(), string(s.DataType())}
		ch <- prometheus.MustNewConstMetric(c.senderLinks, prometheus.GaugeValue, float64(st.Links), labels...)
		ch <- prometheus.MustNewConstMetric(c.senderTracked, prometheus.GaugeValue, float64(st.Tracked), labels...)
		ch <- prometheus.MustNewConstMetric(c.senderDelivered, prometheus.CounterValue, float64(st.Delivered), labels...)
		ch <- prometheus.MustNewConstMetric(c.senderSkipped, prometheus.CounterValue, float64(st.Skipped), labels...)
		ch <- prometheus.MustNewConstMetric(c.senderReleased, prometheus.CounterValue, float64(st.Released), labels...)
		ch <- prometheus.MustNewConstMetric(c.senderFreed, prometheus.CounterValue, float64(st.Freed), labels...)
	}

	for _, l := range c.registry.Links() {
		labels := []string{l.From.String(), l.To.String()}
		ch <- prometheus.MustNewConstMetric(c.linkQueued, prometheus.GaugeValue, float64(l.Queued), labels...)
		ch <- prometheus.MustNewConstMetric(c.linkCapacity, prometheus.GaugeValue, float64(l.Capacity), labels...)
	}

	if c.pool == nil {
		return
	}
	st := c.pool.Stats()
	ch <- prometheus.MustNewConstMetric(c.poolAllocated, prometheus.CounterValue, float64(st.Allocated))
	ch <- prometheus.MustNewConstMetric(c.poolReused, prometheus.CounterValue, float64(st.Reused))
	ch <- prometheus.MustNewConstMetric(c.poolInUse, prometheus.GaugeValue, float64(st.InUse))
	ch <- prometheus.MustNewConstMetric(c.poolIdle, prometheus.GaugeValue, float64(st.Idle))
}

// MetricsService serves /metrics from a dedicated Prometheus registry.
type MetricsService struct {
	gatherer *prometheus.Registry
}

// NewMetricsService registers the dataflow collector plus the Go and process
// collectors on a fresh registry.
func NewMetricsService(registry *flow.Registry, p *pool.Pool) *MetricsService {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		NewCollector(registry, p),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &MetricsService{gatherer: reg}
}

// RegisterRoutes adds the /metrics route to the provided mux.
func (m *MetricsService) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("/metrics", promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{}))
}
