package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/macmarek/scheduling-assistant/core/metrics"
)

// PromSink records scheduling runs in Prometheus metrics.
type PromSink struct {
	runs       *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	solve      prometheus.Histogram
	objective  prometheus.Gauge
	placed     *prometheus.CounterVec
	discomfort prometheus.Histogram
}

// NewPromSink registers scheduler metrics on the default Prometheus registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered by an earlier sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{}
	var err error
	if s.runs, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedassist_runs_total",
		Help: "Scheduling runs by outcome and solver status",
	}, []string{"outcome", "status"})); err != nil {
		return nil, err
	}
	if s.duration, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "schedassist_run_duration_seconds",
		Help:    "Wall time of a scheduling run",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})); err != nil {
		return nil, err
	}
	if s.solve, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "schedassist_solve_duration_seconds",
		Help:    "Time spent inside the solver",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
	})); err != nil {
		return nil, err
	}
	if s.objective, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "schedassist_last_objective",
		Help: "Total discomfort of the last successful schedule",
	})); err != nil {
		return nil, err
	}
	if s.placed, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedassist_meetings_placed_total",
		Help: "Meetings placed by successful runs",
	}, []string{"team"})); err != nil {
		return nil, err
	}
	if s.discomfort, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "schedassist_meeting_discomfort_slots",
		Help:    "Attendee slots outside preferred hours per placed meeting",
		Buckets: []float64{0, 1, 2, 4, 8, 16, 32},
	})); err != nil {
		return nil, err
	}
	return s, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		var zero T
		return zero, err
	}
	return c, nil
}

// RecordRun counts the run and observes its timings.
func (s *PromSink) RecordRun(ev coremetrics.RunEvent) error {
	status := ev.Status
	if status == "" {
		status = "none"
	}
	s.runs.WithLabelValues(ev.Outcome, status).Inc()
	s.duration.WithLabelValues(ev.Outcome).Observe(ev.Duration.Seconds())
	if ev.Status != "" {
		s.solve.Observe(ev.SolveTime.Seconds())
	}
	if ev.Outcome == "scheduled" {
		s.objective.Set(float64(ev.Objective))
	}
	return nil
}

// RecordPlacements counts placed meetings per team.
func (s *PromSink) RecordPlacements(ps []coremetrics.Placement) error {
	for _, p := range ps {
		team := p.Team
		if team == "" {
			team = "none"
		}
		s.placed.WithLabelValues(team).Inc()
		s.discomfort.Observe(float64(p.Discomfort))
	}
	return nil
}
