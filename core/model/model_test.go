package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/macmarek/scheduling-assistant/core/timegrid"
)

func people() []Participant {
	return []Participant{
		{ID: "alice", UTCOffsetMinutes: -120, Preferred: DefaultWindow},
		{ID: "bob", UTCOffsetMinutes: 60, Preferred: DefaultWindow},
	}
}

func TestValidateAcceptsWellFormedInput(t *testing.T) {
	g := timegrid.MustNew(30)
	meetings := []Meeting{{ID: "sync", DurationMinutes: 45, Participants: []string{"alice", "bob"}}}
	if err := Validate(g, meetings, people()); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	g := timegrid.MustNew(30)
	bad := Window{Start: -1, End: 600}
	tests := []struct {
		name     string
		meetings []Meeting
		people   []Participant
	}{
		{"no meetings", nil, people()},
		{"empty participants", []Meeting{{ID: "m", DurationMinutes: 30}}, people()},
		{"zero duration", []Meeting{{ID: "m", Participants: []string{"alice"}}}, people()},
		{"longer than a day", []Meeting{{ID: "m", DurationMinutes: 1441, Participants: []string{"alice"}}}, people()},
		{"unknown participant", []Meeting{{ID: "m", DurationMinutes: 30, Participants: []string{"zoe"}}}, people()},
		{"duplicate attendee", []Meeting{{ID: "m", DurationMinutes: 30, Participants: []string{"bob", "bob"}}}, people()},
		{"duplicate meeting", []Meeting{
			{ID: "m", DurationMinutes: 30, Participants: []string{"bob"}},
			{ID: "m", DurationMinutes: 30, Participants: []string{"alice"}},
		}, people()},
		{"duplicate participant", []Meeting{{ID: "m", DurationMinutes: 30, Participants: []string{"bob"}}},
			append(people(), Participant{ID: "bob", Preferred: DefaultWindow})},
		{"offset out of range", []Meeting{{ID: "m", DurationMinutes: 30, Participants: []string{"x"}}},
			[]Participant{{ID: "x", UTCOffsetMinutes: 15 * 60, Preferred: DefaultWindow}}},
		{"malformed window", []Meeting{{ID: "m", DurationMinutes: 30, Participants: []string{"x"}}},
			[]Participant{{ID: "x", Preferred: Window{Start: 0, End: 2000}}}},
		{"malformed availability", []Meeting{{ID: "m", DurationMinutes: 30, Participants: []string{"x"}}},
			[]Participant{{ID: "x", Preferred: DefaultWindow, Available: &bad}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(g, tt.meetings, tt.people)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected invalid input, got %v", err)
			}
		})
	}
}

func TestFullDayMeetingIsValid(t *testing.T) {
	g := timegrid.MustNew(30)
	m := Meeting{ID: "offsite", DurationMinutes: 1440, Participants: []string{"alice"}}
	if err := m.Validate(g); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if m.DurationSlots(g) != 48 {
		t.Fatalf("expected 48 slots got %d", m.DurationSlots(g))
	}
}

func TestAvailabilityWindowDefaultsToPreferred(t *testing.T) {
	p := Participant{ID: "a", Preferred: DefaultWindow}
	if p.AvailabilityWindow() != DefaultWindow {
		t.Fatalf("expected preferred window")
	}
	wide := Window{Start: 7 * 60, End: 20 * 60}
	p.Available = &wide
	if p.AvailabilityWindow() != wide {
		t.Fatalf("expected explicit availability")
	}
}

func TestOutcomeOf(t *testing.T) {
	cases := map[Outcome]error{
		OutcomeScheduled:     nil,
		OutcomeInvalidInput:  fmt.Errorf("%w: x", ErrInvalidInput),
		OutcomeUnsatisfiable: &UnsatisfiableError{MeetingID: "m"},
		OutcomeInfeasible:    ErrGlobalInfeasible,
		OutcomeTimeout:       fmt.Errorf("wrap: %w", ErrSolverTimeout),
		OutcomeInternal:      ErrInternalConsistency,
		OutcomeError:         errors.New("boom"),
	}
	for want, err := range cases {
		if got := OutcomeOf(err); got != want {
			t.Errorf("OutcomeOf(%v) = %s, want %s", err, got, want)
		}
	}
}

func TestUnsatisfiableErrorNamesMeeting(t *testing.T) {
	var err error = fmt.Errorf("generate: %w", &UnsatisfiableError{MeetingID: "standup"})
	var ue *UnsatisfiableError
	if !errors.As(err, &ue) || ue.MeetingID != "standup" {
		t.Fatalf("expected meeting id in error, got %v", err)
	}
	if DefaultWindow.String() != "09:00-17:00" {
		t.Fatalf("window string %s", DefaultWindow.String())
	}
}
