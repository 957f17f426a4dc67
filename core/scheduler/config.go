package scheduler

import (
	"fmt"
	"time"

	"github.com/macmarek/scheduling-assistant/core/factory"
	"github.com/macmarek/scheduling-assistant/core/timegrid"
)

// DayLayout is the format of anchor dates.
const DayLayout = "2006-01-02"

// Config holds the planning parameters.
type Config struct {
	// SlotMinutes is the grid resolution; it must divide 1440.
	SlotMinutes int `json:"slot_minutes"`
	// SolverTimeLimitSeconds bounds a single solve.
	SolverTimeLimitSeconds float64 `json:"solver_time_limit_seconds"`
	// Day anchors the UTC grid on a calendar date (YYYY-MM-DD). Requests
	// without a day use it, falling back to the current UTC date.
	Day string `json:"day"`
	// Solver selects the engine: "lp" or "backtrack".
	Solver factory.ModuleConfig `json:"solver"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.SlotMinutes == 0 {
		c.SlotMinutes = timegrid.DefaultSlotMinutes
	}
	if c.SolverTimeLimitSeconds == 0 {
		c.SolverTimeLimitSeconds = 30
	}
	if c.Solver.Type == "" {
		c.Solver.Type = DefaultSolver
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if _, err := timegrid.New(c.SlotMinutes); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	if c.SolverTimeLimitSeconds <= 0 {
		return fmt.Errorf("scheduler: solver_time_limit_seconds must be positive")
	}
	if c.Day != "" {
		if _, err := time.Parse(DayLayout, c.Day); err != nil {
			return fmt.Errorf("scheduler: day %q: %w", c.Day, err)
		}
	}
	return nil
}

// TimeLimit returns the solver budget as a duration.
func (c Config) TimeLimit() time.Duration {
	return time.Duration(c.SolverTimeLimitSeconds * float64(time.Second))
}

// AnchorDay returns the configured day, or the UTC date of now when unset.
func (c Config) AnchorDay(now time.Time) (time.Time, error) {
	if c.Day == "" {
		now = now.UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Parse(DayLayout, c.Day)
}
