package scenarios

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/macmarek/scheduling-assistant/core/factory"
	"github.com/macmarek/scheduling-assistant/core/model"
	"github.com/macmarek/scheduling-assistant/core/scheduler"
	"github.com/macmarek/scheduling-assistant/infra/logger"
	"github.com/macmarek/scheduling-assistant/infra/metrics"
	"github.com/macmarek/scheduling-assistant/infra/mqtt"
	"github.com/macmarek/scheduling-assistant/internal/eventbus"
)

// RunScenario replays sc once per solver engine and reports mismatches on t.
func RunScenario(t *testing.T, sc *Scenario) {
	t.Helper()
	req, err := sc.Input.Request()
	if err != nil && sc.Expected.Outcome != model.OutcomeInvalidInput {
		t.Fatalf("scenario %s: %v", sc.Name, err)
	}
	for _, engine := range sc.solvers() {
		t.Run(engine, func(t *testing.T) {
			if err != nil {
				// Rejected while decoding; nothing reaches the solver.
				return
			}
			runOnce(t, sc, engine, req)
		})
	}
}

func runOnce(t *testing.T, sc *Scenario, engine string, req scheduler.Request) {
	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("prom sink: %v", err)
	}

	bus := eventbus.New()
	pub := mqtt.NewMockPublisher()
	ctx, cancel := context.WithCancel(context.Background())
	done := mqtt.StartRunForwarder(ctx, bus, pub, logger.NopLogger{})

	cfg := scheduler.Config{SlotMinutes: sc.SlotMinutes, Solver: factory.ModuleConfig{Type: engine}}
	cfg.SetDefaults()
	s, err := scheduler.NewScheduler(cfg, nil, sink, bus, logger.NopLogger{})
	if err != nil {
		cancel()
		t.Fatalf("scheduler: %v", err)
	}
	res, runErr := s.Schedule(ctx, req)

	// Closing the bus lets the forwarder drain before it stops.
	bus.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Errorf("forwarder did not stop")
	}
	cancel()

	if res.Outcome != sc.Expected.Outcome {
		t.Fatalf("scenario %s expected %s, got %s (%v)", sc.Name, sc.Expected.Outcome, res.Outcome, runErr)
	}
	if got := len(pub.Published()); got != 1 {
		t.Errorf("expected 1 published run, got %d", got)
	}
	if n := testutil.CollectAndCount(reg, "schedassist_runs_total"); n != 1 {
		t.Errorf("expected one runs_total series, got %d", n)
	}

	if sc.Expected.UnsatisfiableMeeting != "" {
		var um *model.UnsatisfiableError
		if !errors.As(runErr, &um) || um.MeetingID != sc.Expected.UnsatisfiableMeeting {
			t.Errorf("expected unsatisfiable meeting %s, got %v", sc.Expected.UnsatisfiableMeeting, runErr)
		}
	}
	if res.Outcome != model.OutcomeScheduled {
		return
	}
	if sc.Expected.Objective != nil && res.Schedule.Objective != *sc.Expected.Objective {
		t.Errorf("expected objective %d, got %d", *sc.Expected.Objective, res.Schedule.Objective)
	}
	starts := make(map[string]string, len(res.Schedule.Entries))
	for _, e := range res.Schedule.Entries {
		starts[e.MeetingID] = e.Start.Format("15:04")
	}
	for id, want := range sc.Expected.Starts {
		if starts[id] != want {
			t.Errorf("meeting %s expected at %s, got %q", id, want, starts[id])
		}
	}
}
