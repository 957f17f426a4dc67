package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/macmarek/scheduling-assistant/core/availability"
	"github.com/macmarek/scheduling-assistant/core/candidates"
	"github.com/macmarek/scheduling-assistant/core/decoder"
	"github.com/macmarek/scheduling-assistant/core/events"
	"github.com/macmarek/scheduling-assistant/core/formulation"
	"github.com/macmarek/scheduling-assistant/core/logger"
	"github.com/macmarek/scheduling-assistant/core/metrics"
	"github.com/macmarek/scheduling-assistant/core/model"
	"github.com/macmarek/scheduling-assistant/core/monitoring"
	"github.com/macmarek/scheduling-assistant/core/scheduler/runlog"
	"github.com/macmarek/scheduling-assistant/core/solver"
	"github.com/macmarek/scheduling-assistant/core/timegrid"
	"github.com/macmarek/scheduling-assistant/internal/eventbus"
)

// Request is one day of meetings to place.
type Request struct {
	// Day anchors the grid; the zero value uses the configured day.
	Day          time.Time
	Participants []model.Participant
	Meetings     []model.Meeting
}

// Stats describes the work done by a run.
type Stats struct {
	Candidates  int
	Constraints int
	Clashes     int
	// Status is the solver verdict, empty when the solver was not reached.
	Status    string
	Nodes     int
	SolveTime time.Duration
	Duration  time.Duration
}

// Result is returned by every run, successful or not.
type Result struct {
	RunID    string
	Outcome  model.Outcome
	Schedule *decoder.Schedule
	Stats    Stats
}

// Scheduler runs the placement pipeline.
type Scheduler struct {
	cfg    Config
	grid   timegrid.Grid
	solver solver.Solver
	logger logger.Logger
	sink   metrics.MetricsSink
	bus    eventbus.EventBus

	mu    sync.Mutex
	store runlog.Store
	now   func() time.Time
}

// NewScheduler builds a Scheduler. A nil solver selects the engine from
// cfg.Solver; sink, bus and log may be nil.
func NewScheduler(cfg Config, slv solver.Solver, sink metrics.MetricsSink, bus eventbus.EventBus, log logger.Logger) (*Scheduler, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	g, err := timegrid.New(cfg.SlotMinutes)
	if err != nil {
		return nil, err
	}
	if slv == nil {
		if slv, err = NewSolver(cfg.Solver); err != nil {
			return nil, fmt.Errorf("scheduler: %w", err)
		}
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	if log == nil {
		log = nopLogger{}
	}
	return &Scheduler{cfg: cfg, grid: g, solver: slv, logger: log, sink: sink, bus: bus, now: time.Now}, nil
}

// SetRunLog configures the store receiving one record per run.
func (s *Scheduler) SetRunLog(store runlog.Store) {
	s.mu.Lock()
	s.store = store
	s.mu.Unlock()
}

// SetClock replaces the time source used for timestamps and the anchor day.
func (s *Scheduler) SetClock(now func() time.Time) {
	if now == nil {
		return
	}
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

// Grid returns the slot grid of the scheduler.
func (s *Scheduler) Grid() timegrid.Grid { return s.grid }

// Schedule places every meeting of req. The returned Result is never nil;
// on failure it carries the outcome and statistics gathered so far and the
// error wraps one of the model sentinel errors.
func (s *Scheduler) Schedule(ctx context.Context, req Request) (*Result, error) {
	s.mu.Lock()
	now, store := s.now, s.store
	s.mu.Unlock()

	started := now()
	res := &Result{RunID: uuid.NewString()}
	err := s.run(ctx, req, res, now)
	res.Stats.Duration = now().Sub(started)
	res.Outcome = model.OutcomeOf(err)
	s.report(ctx, req, res, err, started, store)
	return res, err
}

func (s *Scheduler) run(ctx context.Context, req Request, res *Result, now func() time.Time) error {
	if err := model.Validate(s.grid, req.Meetings, req.Participants); err != nil {
		return err
	}
	day := req.Day
	if day.IsZero() {
		d, err := s.cfg.AnchorDay(now())
		if err != nil {
			return fmt.Errorf("%w: %v", model.ErrInvalidInput, err)
		}
		day = d
	}

	proj := availability.Project(s.grid, req.Participants)
	cands, err := candidates.Generate(s.grid, req.Meetings, proj)
	if err != nil {
		return err
	}
	res.Stats.Candidates = cands.Count()

	m, err := formulation.Build(s.grid, req.Meetings, cands, proj)
	if err != nil {
		return err
	}
	res.Stats.Constraints = len(m.Problem.Constraints())
	res.Stats.Clashes = m.Clashes
	s.logger.Debugf("model: %d variables, %d constraints, %d clash rows", m.Problem.NumVars(), res.Stats.Constraints, m.Clashes)

	solveCtx, cancel := context.WithTimeout(ctx, s.cfg.TimeLimit())
	t0 := now()
	sol, err := s.solver.Solve(solveCtx, m.Problem)
	cancel()
	res.Stats.SolveTime = now().Sub(t0)
	if err != nil {
		return fmt.Errorf("solve: %w", err)
	}
	res.Stats.Status = sol.Status.String()
	res.Stats.Nodes = sol.Nodes

	switch sol.Status {
	case solver.StatusInfeasible:
		return fmt.Errorf("%w: %d meetings", model.ErrGlobalInfeasible, len(req.Meetings))
	case solver.StatusUnknown:
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("solve: %w", err)
		}
		return fmt.Errorf("%w within %s", model.ErrSolverTimeout, s.cfg.TimeLimit())
	}

	sched, err := decoder.Decode(s.grid, day, req.Meetings, req.Participants, m, sol)
	if err != nil {
		return err
	}
	res.Schedule = sched
	return nil
}

func (s *Scheduler) report(ctx context.Context, req Request, res *Result, runErr error, started time.Time, store runlog.Store) {
	fields := map[string]any{
		"run_id":      res.RunID,
		"outcome":     string(res.Outcome),
		"meetings":    len(req.Meetings),
		"candidates":  res.Stats.Candidates,
		"status":      res.Stats.Status,
		"duration_ms": res.Stats.Duration.Milliseconds(),
	}
	objective := 0
	if res.Schedule != nil {
		objective = res.Schedule.Objective
		fields["objective"] = objective
	}
	if runErr != nil {
		fields["error"] = runErr.Error()
	}
	s.logger.Infow("schedule run", fields)
	if unexpected(res.Outcome, runErr) {
		monitoring.CaptureException(runErr, map[string]string{
			"run_id":  res.RunID,
			"outcome": string(res.Outcome),
			"solver":  s.cfg.Solver.Type,
		})
	}

	ev := metrics.RunEvent{
		RunID:        res.RunID,
		Outcome:      string(res.Outcome),
		Status:       res.Stats.Status,
		Meetings:     len(req.Meetings),
		Participants: len(req.Participants),
		Candidates:   res.Stats.Candidates,
		Constraints:  res.Stats.Constraints,
		Objective:    objective,
		Nodes:        res.Stats.Nodes,
		SolveTime:    res.Stats.SolveTime,
		Duration:     res.Stats.Duration,
		Time:         started,
	}
	if err := s.sink.RecordRun(ev); err != nil {
		s.logger.Errorf("metrics error: %v", err)
	}
	if rec, ok := s.sink.(metrics.PlacementRecorder); ok && res.Schedule != nil {
		if err := rec.RecordPlacements(placements(res.RunID, res.Schedule, started)); err != nil {
			s.logger.Errorf("placement metrics error: %v", err)
		}
	}

	if s.bus != nil {
		s.bus.Publish(events.RunCompleted{
			RunID:    res.RunID,
			Outcome:  res.Outcome,
			Schedule: res.Schedule,
			Err:      runErr,
			Time:     started,
		})
	}

	if store != nil {
		r := runlog.Record{
			RunID:        res.RunID,
			Timestamp:    started.UTC(),
			Outcome:      res.Outcome,
			Status:       res.Stats.Status,
			Participants: len(req.Participants),
			Objective:    objective,
			DurationMS:   res.Stats.Duration.Milliseconds(),
			Schedule:     res.Schedule,
		}
		for _, m := range req.Meetings {
			r.Meetings = append(r.Meetings, m.ID)
		}
		if runErr != nil {
			r.Error = runErr.Error()
		}
		var unsat *model.UnsatisfiableError
		if errors.As(runErr, &unsat) {
			r.UnsatisfiableMeeting = unsat.MeetingID
		}
		if err := store.Append(context.WithoutCancel(ctx), r); err != nil {
			s.logger.Warnf("run log append failed: %v", err)
		}
	}
}

// unexpected reports whether a failed run points at a defect rather than at
// the input or the caller.
func unexpected(o model.Outcome, err error) bool {
	switch o {
	case model.OutcomeInternal:
		return true
	case model.OutcomeError:
		return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	}
	return false
}

func placements(runID string, sched *decoder.Schedule, at time.Time) []metrics.Placement {
	out := make([]metrics.Placement, 0, len(sched.Entries))
	for _, e := range sched.Entries {
		out = append(out, metrics.Placement{
			RunID:      runID,
			MeetingID:  e.MeetingID,
			Team:       e.Team,
			StartSlot:  int(e.StartSlot),
			Attendees:  len(e.Attendees),
			Discomfort: e.Discomfort,
			Time:       at,
		})
	}
	return out
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any)         {}
func (nopLogger) Debugw(string, map[string]any) {}
func (nopLogger) Infof(string, ...any)          {}
func (nopLogger) Infow(string, map[string]any)  {}
func (nopLogger) Warnf(string, ...any)          {}
func (nopLogger) Errorf(string, ...any)         {}
