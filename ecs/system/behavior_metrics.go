package system

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BehaviorMetrics counts what the behavior system does each tick. A nil
// *BehaviorMetrics records nothing.
type BehaviorMetrics struct {
	actionsStarted   *prometheus.CounterVec
	actionsCompleted *prometheus.CounterVec
	programsFinished prometheus.Counter
	activeActions    prometheus.Gauge
	invalidTicks     prometheus.Counter
	stepFailures     prometheus.Counter
}

// NewBehaviorMetrics creates the collectors and registers them on reg. A nil
// reg leaves them unregistered.
func NewBehaviorMetrics(reg prometheus.Registerer) *BehaviorMetrics {
	f := promauto.With(reg)
	return &BehaviorMetrics{
		actionsStarted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "walkabout_actions_started_total",
			Help: "Actions pulled from behavior programs",
		}, []string{"kind"}),
		actionsCompleted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "walkabout_actions_completed_total",
			Help: "Actions that reached full progress",
		}, []string{"kind"}),
		programsFinished: f.NewCounter(prometheus.CounterOpts{
			Name: "walkabout_programs_finished_total",
			Help: "Behavior programs that ran to completion",
		}),
		activeActions: f.NewGauge(prometheus.GaugeOpts{
			Name: "walkabout_active_actions",
			Help: "Entities holding an in-flight action after the last tick",
		}),
		invalidTicks: f.NewCounter(prometheus.CounterOpts{
			Name: "walkabout_invalid_ticks_total",
			Help: "Ticks skipped because the delta was negative or not finite",
		}),
		stepFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "walkabout_step_failures_total",
			Help: "Driver steps that panicked",
		}),
	}
}

func (m *BehaviorMetrics) started(kind string) {
	if m != nil {
		m.actionsStarted.WithLabelValues(kind).Inc()
	}
}

func (m *BehaviorMetrics) completed(kind string) {
	if m != nil {
		m.actionsCompleted.WithLabelValues(kind).Inc()
	}
}

func (m *BehaviorMetrics) programFinished() {
	if m != nil {
		m.programsFinished.Inc()
	}
}

func (m *BehaviorMetrics) setActive(n int) {
	if m != nil {
		m.activeActions.Set(float64(n))
	}
}

func (m *BehaviorMetrics) invalidTick() {
	if m != nil {
		m.invalidTicks.Inc()
	}
}

func (m *BehaviorMetrics) stepFailed() {
	if m != nil {
		m.stepFailures.Inc()
	}
}
