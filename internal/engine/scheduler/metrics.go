package scheduler

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// Metrics holds the counters collected while building.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	executed *prometheus.CounterVec
	upToDate prometheus.Counter
	failed   prometheus.Counter
	cycles   prometheus.Counter
	duration prometheus.Histogram
}

// NewMetrics registers the build metrics on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		executed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kiln_commands_executed_total",
			Help: "Commands executed, by result",
		}, []string{"result"}),
		upToDate: factory.NewCounter(prometheus.CounterOpts{
			Name: "kiln_commands_up_to_date_total",
			Help: "Commands whose recorded value was reused",
		}),
		failed: factory.NewCounter(prometheus.CounterOpts{
			Name: "kiln_commands_failed_total",
			Help: "Commands whose value is a failure, fresh or reused",
		}),
		cycles: factory.NewCounter(prometheus.CounterOpts{
			Name: "kiln_cycles_detected_total",
			Help: "Dependency cycles detected",
		}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "kiln_command_duration_seconds",
			Help:    "Time spent in command execution",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
		}),
	}
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteFile writes the metrics in the text exposition format.
func (m *Metrics) WriteFile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write metrics"), "path", path)
	}
	return nil
}

func (m *Metrics) commandExecuted(result domain.CommandResult, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.executed.WithLabelValues(result.String()).Inc()
	m.duration.Observe(elapsed.Seconds())
}

func (m *Metrics) commandUpToDate() {
	if m == nil {
		return
	}
	m.upToDate.Inc()
}

func (m *Metrics) commandFailed() {
	if m == nil {
		return
	}
	m.failed.Inc()
}

func (m *Metrics) cycleDetected() {
	if m == nil {
		return
	}
	m.cycles.Inc()
}
