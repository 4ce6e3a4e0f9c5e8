// internal/metrics/collector.go
package metrics

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Run outcomes recorded by Collector.RunFinished.
const (
	OutcomeCompleted = "completed"
	OutcomeAborted   = "aborted"
)

// Collector instruments benchmark runs on a private Prometheus registry.
// All methods are safe on a nil receiver so callers can leave it unset.
type Collector struct {
	registry  *prometheus.Registry
	bytesFed  prometheus.Counter
	chunksFed prometheus.Counter
	runs      *prometheus.CounterVec
	paint     prometheus.Histogram
}

// MetricLine is one flattened sample from the registry.
type MetricLine struct {
	Name   string
	Labels string
	Value  float64
}

func (l MetricLine) String() string {
	if l.Labels == "" {
		return fmt.Sprintf("%s %g", l.Name, l.Value)
	}
	return fmt.Sprintf("%s{%s} %g", l.Name, l.Labels, l.Value)
}

// NewCollector registers the benchmark metrics on a fresh registry.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &Collector{
		registry: registry,
		bytesFed: factory.NewCounter(prometheus.CounterOpts{
			Name: "termbench_bytes_fed_total",
			Help: "Bytes delivered to the terminal sink.",
		}),
		chunksFed: factory.NewCounter(prometheus.CounterOpts{
			Name: "termbench_chunks_fed_total",
			Help: "Stream chunks delivered to the terminal sink.",
		}),
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "termbench_runs_total",
			Help: "Benchmark runs by outcome.",
		}, []string{"outcome"}),
		paint: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "termbench_paint_duration_seconds",
			Help:    "Render pipeline paint cycle durations.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
		}),
	}
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// ChunkFed records one delivered chunk of n bytes.
func (c *Collector) ChunkFed(n int) {
	if c == nil {
		return
	}
	c.chunksFed.Inc()
	c.bytesFed.Add(float64(n))
}

// PaintObserved records one paint cycle.
func (c *Collector) PaintObserved(d time.Duration) {
	if c == nil {
		return
	}
	c.paint.Observe(d.Seconds())
}

// RunFinished counts a run by outcome.
func (c *Collector) RunFinished(outcome string) {
	if c == nil {
		return
	}
	c.runs.WithLabelValues(outcome).Inc()
}

// Summary gathers the registry into sorted lines. Histograms contribute their
// sample count and sum.
func (c *Collector) Summary() ([]MetricLine, error) {
	if c == nil {
		return nil, nil
	}
	families, err := c.registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather metrics: %w", err)
	}

	var lines []MetricLine
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := formatLabels(m.GetLabel())
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				lines = append(lines, MetricLine{Name: mf.GetName(), Labels: labels, Value: m.GetCounter().GetValue()})
			case dto.MetricType_GAUGE:
				lines = append(lines, MetricLine{Name: mf.GetName(), Labels: labels, Value: m.GetGauge().GetValue()})
			case dto.MetricType_HISTOGRAM:
				h := m.GetHistogram()
				lines = append(lines,
					MetricLine{Name: mf.GetName() + "_count", Labels: labels, Value: float64(h.GetSampleCount())},
					MetricLine{Name: mf.GetName() + "_sum", Labels: labels, Value: h.GetSampleSum()},
				)
			}
		}
	}
	sort.SliceStable(lines, func(i, j int) bool {
		if lines[i].Name != lines[j].Name {
			return lines[i].Name < lines[j].Name
		}
		return lines[i].Labels < lines[j].Labels
	})
	return lines, nil
}

func formatLabels(pairs []*dto.LabelPair) string {
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, fmt.Sprintf("%s=%q", p.GetName(), p.GetValue()))
	}
	return strings.Join(parts, ",")
}
