package metrics

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/common/expfmt"
)

// Failure kinds used as the "kind" label of the poll failure counter.
const (
	KindNetwork = "network"
	KindDecode  = "decode"
)

// Counts is one consistent reading of the guild gauges.
type Counts struct {
	Members   int64
	Presences int64
	Boosts    int64
}

// GaugeSet exposes the members, presences and boosts gauges.
//
// The three values are stored as one unit, so a scrape never observes a
// mix of two different updates.
type GaugeSet struct {
	mu     sync.RWMutex
	counts Counts

	members   *prometheus.Desc
	presences *prometheus.Desc
	boosts    *prometheus.Desc
}

// NewGaugeSet creates a zeroed GaugeSet. It is not registered anywhere.
func NewGaugeSet() *GaugeSet {
	return &GaugeSet{
		members:   prometheus.NewDesc("members", "How many total members there are", nil, nil),
		presences: prometheus.NewDesc("presences", "How many members are online", nil, nil),
		boosts:    prometheus.NewDesc("boosts", "How many boosts the server has", nil, nil),
	}
}

// SetAll overwrites all three gauges in a single critical section.
func (g *GaugeSet) SetAll(members, presences, boosts int64) {
	g.mu.Lock()
	g.counts = Counts{Members: members, Presences: presences, Boosts: boosts}
	g.mu.Unlock()
}

// Snapshot returns the current values.
func (g *GaugeSet) Snapshot() Counts {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.counts
}

// Describe implements prometheus.Collector.
func (g *GaugeSet) Describe(ch chan<- *prometheus.Desc) {
	ch <- g.members
	ch <- g.presences
	ch <- g.boosts
}

// Collect implements prometheus.Collector.
func (g *GaugeSet) Collect(ch chan<- prometheus.Metric) {
	c := g.Snapshot()
	ch <- prometheus.MustNewConstMetric(g.members, prometheus.GaugeValue, float64(c.Members))
	ch <- prometheus.MustNewConstMetric(g.presences, prometheus.GaugeValue, float64(c.Presences))
	ch <- prometheus.MustNewConstMetric(g.boosts, prometheus.GaugeValue, float64(c.Boosts))
}

// PollMetrics tracks the health of the invite poll loop.
type PollMetrics struct {
	Failures    *prometheus.CounterVec
	LastSuccess prometheus.Gauge
}

// AllMetrics aggregates all metric families used by the exporter.
type AllMetrics struct {
	Guild *GaugeSet
	Poll  *PollMetrics
}

// NewMetricsRegistry creates a registry and registers all metrics used by the exporter.
func NewMetricsRegistry() (*prometheus.Registry, *AllMetrics) {
	reg := prometheus.NewRegistry()

	guild := NewGaugeSet()
	reg.MustRegister(guild)

	all := &AllMetrics{
		Guild: guild,
		Poll:  NewPollMetrics(reg),
	}

	return reg, all
}

// RegisterRuntimeCollectors adds the Go runtime and process collectors to reg.
func RegisterRuntimeCollectors(reg prometheus.Registerer) {
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

func newCounterVec(reg prometheus.Registerer, name, help string, labels ...string) *prometheus.CounterVec {
	cv := prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: name, Help: help},
		labels,
	)
	reg.MustRegister(cv)
	return cv
}

func newGauge(reg prometheus.Registerer, name, help string) prometheus.Gauge {
	g := prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: help})
	reg.MustRegister(g)
	return g
}

// NewPollMetrics registers poll-health metrics with the provided registry.
func NewPollMetrics(reg prometheus.Registerer) *PollMetrics {
	pm := &PollMetrics{
		Failures:    newCounterVec(reg, "guild_poll_failures_total", "Failed invite polls by failure kind", "kind"),
		LastSuccess: newGauge(reg, "guild_last_success_timestamp_seconds", "Unix time of the last successful invite poll"),
	}

	// Pre-create both series so they are exported as 0 before the first failure.
	pm.Failures.WithLabelValues(KindNetwork)
	pm.Failures.WithLabelValues(KindDecode)

	return pm
}

// Render gathers g and formats the result in the Prometheus text exposition format.
func Render(g prometheus.Gatherer) ([]byte, error) {
	mfs, err := g.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather metrics: %w", err)
	}

	var buf bytes.Buffer
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(&buf, mf); err != nil {
			return nil, fmt.Errorf("encode %s: %w", mf.GetName(), err)
		}
	}
	return buf.Bytes(), nil
}
