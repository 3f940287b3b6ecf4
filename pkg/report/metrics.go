package report

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "uiflow"

// NewMetricsRegistry builds a registry describing one run. It is kept
// separate from the default registry so several reports never mix.
func NewMetricsRegistry(r *Report) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	scenarios := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "scenarios_total",
		Help:      "Scenarios run, by verdict.",
	}, []string{"verdict"})
	duration := factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "scenario_duration_seconds",
		Help:      "Wall time of each scenario.",
	}, []string{"scenario", "verdict"})
	steps := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "steps_total",
		Help:      "Executed steps, by status.",
	}, []string{"status"})
	frames := factory.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "degraded_frames_total",
		Help:      "Frames that did not stabilise on the initial load.",
	})
	runDuration := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "run_duration_seconds",
		Help:      "Wall time of the whole run.",
	})
	exitCode := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "run_exit_code",
		Help:      "0 all passed, 1 failure, 2 infrastructure error.",
	})

	for _, s := range r.Scenarios {
		verdict := string(s.Verdict)
		scenarios.WithLabelValues(verdict).Inc()
		duration.WithLabelValues(s.Name, verdict).Set(s.Duration.Seconds())
		for _, st := range s.Steps {
			steps.WithLabelValues(st.Status).Inc()
		}
		frames.Add(float64(len(s.DegradedFrames)))
	}
	runDuration.Set(r.Duration.Seconds())
	exitCode.Set(float64(r.ExitCode))
	return reg
}

// WriteMetrics writes the run metrics in the Prometheus text format, for
// a node exporter textfile collector or a CI artifact.
func WriteMetrics(path string, r *Report) error {
	if err := prometheus.WriteToTextfile(path, NewMetricsRegistry(r)); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
