package chargemap

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector bundles Prometheus metrics for filtering, index builds and
// viewport queries. A nil *Collector records nothing.
type Collector struct {
	Builds           prometheus.Counter
	BuildDuration    prometheus.Histogram
	IndexNodes       prometheus.Gauge
	FilteredEntities prometheus.Gauge
	DroppedEntities  prometheus.Counter
	StaleBuilds      prometheus.Counter
	Queries          prometheus.Counter
	RenderNodes      prometheus.Gauge
}

// NewCollector registers the chargemap metrics against reg, defaulting to
// the global Prometheus registry when nil. Registering twice against the
// same registry returns collectors bound to the existing metrics.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	var (
		c   Collector
		err error
	)
	if c.Builds, err = registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chargemap_index_builds_total",
		Help: "Total number of cluster index builds.",
	}), "chargemap_index_builds_total"); err != nil {
		return nil, err
	}
	if c.BuildDuration, err = registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "chargemap_index_build_duration_seconds",
		Help:    "Cluster index build latency in seconds.",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}), "chargemap_index_build_duration_seconds"); err != nil {
		return nil, err
	}
	if c.IndexNodes, err = registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chargemap_index_nodes",
		Help: "Number of nodes at zoom 0 of the most recent index.",
	}), "chargemap_index_nodes"); err != nil {
		return nil, err
	}
	if c.FilteredEntities, err = registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chargemap_filtered_entities",
		Help: "Number of entities that passed the most recent filter.",
	}), "chargemap_filtered_entities"); err != nil {
		return nil, err
	}
	if c.DroppedEntities, err = registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chargemap_dropped_entities_total",
		Help: "Total number of entities dropped for invalid coordinates.",
	}), "chargemap_dropped_entities_total"); err != nil {
		return nil, err
	}
	if c.StaleBuilds, err = registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chargemap_stale_builds_total",
		Help: "Total number of index builds discarded because a newer build was published.",
	}), "chargemap_stale_builds_total"); err != nil {
		return nil, err
	}
	if c.Queries, err = registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chargemap_queries_total",
		Help: "Total number of viewport queries.",
	}), "chargemap_queries_total"); err != nil {
		return nil, err
	}
	if c.RenderNodes, err = registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chargemap_render_nodes",
		Help: "Number of nodes returned by the most recent viewport query.",
	}), "chargemap_render_nodes"); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Collector) observeBuild(d time.Duration, topNodes int) {
	if c == nil {
		return
	}
	c.Builds.Inc()
	c.BuildDuration.Observe(d.Seconds())
	c.IndexNodes.Set(float64(topNodes))
}

func (c *Collector) observeFilter(kept, dropped int) {
	if c == nil {
		return
	}
	c.FilteredEntities.Set(float64(kept))
	c.DroppedEntities.Add(float64(dropped))
}

func (c *Collector) observeStale() {
	if c == nil {
		return
	}
	c.StaleBuilds.Inc()
}

func (c *Collector) observeQuery() {
	if c == nil {
		return
	}
	c.Queries.Inc()
}

func (c *Collector) observeRender(n int) {
	if c == nil {
		return
	}
	c.RenderNodes.Set(float64(n))
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerHistogram(reg prometheus.Registerer, h prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return h, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
