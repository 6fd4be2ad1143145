package stats

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "upf"

// PrometheusSink exports conversion totals and durations on its own registry.
type PrometheusSink struct {
	registry *prometheus.Registry
	total    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewPrometheusSink registers the conversion collectors. The registry also
// carries the Go runtime and process collectors unless bare is set.
func NewPrometheusSink(bare bool) (*PrometheusSink, error) {
	reg := prometheus.NewRegistry()
	s := &PrometheusSink{
		registry: reg,
		total: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversion_total",
			Help:      "Conversions by outcome and detected source format.",
		}, []string{"status", "format"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "conversion_duration_seconds",
			Help:      "Wall time of each conversion.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"status"}),
	}
	cs := []prometheus.Collector{s.total, s.duration}
	if !bare {
		cs = append(cs,
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	for _, c := range cs {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("registering collector: %w", err)
		}
	}
	return s, nil
}

func (s *PrometheusSink) ObserveConversion(o Outcome) {
	f := string(o.Format)
	if f == "" {
		f = "unknown"
	}
	s.total.WithLabelValues(o.Status(), f).Inc()
	s.duration.WithLabelValues(o.Status()).Observe(o.Elapsed.Seconds())
}

// Registry exposes the underlying registry for gathering in tests.
func (s *PrometheusSink) Registry() *prometheus.Registry {
	return s.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (s *PrometheusSink) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}
