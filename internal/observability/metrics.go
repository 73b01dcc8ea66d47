package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the Prometheus metrics recorded while running experiments.
type Collector struct {
	gatherer prometheus.Gatherer

	PropagationCalls   prometheus.Counter
	SamplesPropagated  prometheus.Counter
	ExperimentRuns     *prometheus.CounterVec
	ExperimentDuration *prometheus.HistogramVec
	Summary            *prometheus.GaugeVec
}

// NewCollector registers relclock metrics against reg, defaulting to the
// global registry when nil. Registering twice returns the existing collectors.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	calls, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relclock_propagation_calls_total",
		Help: "Number of Kepler propagation calls.",
	}), "relclock_propagation_calls_total")
	if err != nil {
		return nil, err
	}

	samples, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relclock_samples_propagated_total",
		Help: "Number of time samples propagated to state vectors.",
	}), "relclock_samples_propagated_total")
	if err != nil {
		return nil, err
	}

	runs, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "relclock_experiment_runs_total",
		Help: "Experiment runs, labeled by experiment and outcome.",
	}, []string{"experiment", "status"}), "relclock_experiment_runs_total")
	if err != nil {
		return nil, err
	}

	durations, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "relclock_experiment_duration_seconds",
		Help:    "Wall-clock experiment duration in seconds.",
		Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"experiment"}), "relclock_experiment_duration_seconds")
	if err != nil {
		return nil, err
	}

	summary, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "relclock_experiment_summary",
		Help: "Scalar results of the most recent run of each experiment.",
	}, []string{"experiment", "quantity"}), "relclock_experiment_summary")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:           gatherer,
		PropagationCalls:   calls,
		SamplesPropagated:  samples,
		ExperimentRuns:     runs,
		ExperimentDuration: durations,
		Summary:            summary,
	}, nil
}

// ObservePropagation records one propagation call over n samples.
func (c *Collector) ObservePropagation(n int) {
	if c == nil {
		return
	}
	c.PropagationCalls.Inc()
	c.SamplesPropagated.Add(float64(n))
}

// ObserveRun records the outcome and duration of an experiment run.
func (c *Collector) ObserveRun(experiment string, elapsed time.Duration, err error) {
	if c == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.ExperimentRuns.WithLabelValues(experiment, status).Inc()
	c.ExperimentDuration.WithLabelValues(experiment).Observe(elapsed.Seconds())
}

// SetSummary publishes scalar results as gauges.
func (c *Collector) SetSummary(experiment string, values map[string]float64) {
	if c == nil {
		return
	}
	for k, v := range values {
		c.Summary.WithLabelValues(experiment, k).Set(v)
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// WriteTextfile writes the current metrics in text exposition format, for
// node_exporter's textfile collector after batch runs.
func (c *Collector) WriteTextfile(path string) error {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return prometheus.WriteToTextfile(path, gatherer)
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T, name string) (T, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			var zero T
			return zero, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		var zero T
		return zero, err
	}
	return c, nil
}
