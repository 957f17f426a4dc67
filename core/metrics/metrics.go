package metrics

import "time"

// RunEvent summarises one scheduling run.
type RunEvent struct {
	RunID   string
	Outcome string
	// Status is the solver verdict, empty when the solver was not reached.
	Status       string
	Meetings     int
	Participants int
	Candidates   int
	Constraints  int
	Objective    int
	Nodes        int
	SolveTime    time.Duration
	Duration     time.Duration
	Time         time.Time
}

// MetricsSink records scheduling runs for observability purposes.
type MetricsSink interface {
	RecordRun(ev RunEvent) error
}

// Placement is one meeting placed by a successful run.
type Placement struct {
	RunID      string
	MeetingID  string
	Team       string
	StartSlot  int
	Attendees  int
	Discomfort int
	Time       time.Time
}

// PlacementRecorder is implemented by sinks able to record placements.
type PlacementRecorder interface {
	RecordPlacements(p []Placement) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordRun(RunEvent) error           { return nil }
func (NopSink) RecordPlacements([]Placement) error { return nil }

// MultiSink fans events out to several sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordRun forwards the event to all sinks, returning the first error
// after every sink had its chance.
func (m *MultiSink) RecordRun(ev RunEvent) error {
	var first error
	for _, s := range m.Sinks {
		if err := s.RecordRun(ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// RecordPlacements forwards placements to sinks that support them.
func (m *MultiSink) RecordPlacements(p []Placement) error {
	var first error
	for _, s := range m.Sinks {
		if rec, ok := s.(PlacementRecorder); ok {
			if err := rec.RecordPlacements(p); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}
