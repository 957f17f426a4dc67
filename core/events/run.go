package events

import (
	"time"

	"github.com/macmarek/scheduling-assistant/core/decoder"
	"github.com/macmarek/scheduling-assistant/core/model"
)

// RunCompleted is published once per scheduling run. Schedule is nil unless
// Outcome is model.OutcomeScheduled.
type RunCompleted struct {
	RunID    string
	Outcome  model.Outcome
	Schedule *decoder.Schedule
	Err      error
	Time     time.Time
}
