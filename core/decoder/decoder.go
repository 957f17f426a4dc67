// Package decoder maps a solver assignment back to a calendar.
package decoder

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/macmarek/scheduling-assistant/core/availability"
	"github.com/macmarek/scheduling-assistant/core/formulation"
	"github.com/macmarek/scheduling-assistant/core/model"
	"github.com/macmarek/scheduling-assistant/core/solver"
	"github.com/macmarek/scheduling-assistant/core/timegrid"
)

// Attendee is one participant's view of a meeting in local time.
type Attendee struct {
	ParticipantID    string    `json:"participant_id"`
	UTCOffsetMinutes int       `json:"utc_offset_minutes"`
	LocalStart       time.Time `json:"local_start"`
	LocalEnd         time.Time `json:"local_end"`
	// Discomfort counts this attendee's slots outside preferred hours.
	Discomfort int `json:"discomfort"`
}

// Entry is a placed meeting.
type Entry struct {
	MeetingID     string        `json:"meeting_id"`
	Team          string        `json:"team,omitempty"`
	StartSlot     timegrid.Slot `json:"start_slot"`
	DurationSlots int           `json:"duration_slots"`
	Start         time.Time     `json:"start"`
	End           time.Time     `json:"end"`
	// Discomfort counts attendee slots outside preferred hours.
	Discomfort int        `json:"discomfort"`
	Attendees  []Attendee `json:"attendees"`
}

// Schedule is the decoded result of a run.
type Schedule struct {
	Day         time.Time     `json:"day"`
	SlotMinutes int           `json:"slot_minutes"`
	Status      solver.Status `json:"-"`
	StatusName  string        `json:"status"`
	Objective   int           `json:"objective"`
	Entries     []Entry       `json:"entries"`
}

// Optimal reports whether the schedule was proven optimal.
func (s *Schedule) Optimal() bool { return s.Status == solver.StatusOptimal }

// UnmarshalJSON restores Status from the serialised status name so that
// schedules read back from the run log keep their verdict.
func (s *Schedule) UnmarshalJSON(b []byte) error {
	type plain Schedule
	if err := json.Unmarshal(b, (*plain)(s)); err != nil {
		return err
	}
	s.Status = solver.ParseStatus(s.StatusName)
	return nil
}

// Decode converts sol into a schedule anchored on day (UTC date only).
// Entries follow the meeting order.
func Decode(g timegrid.Grid, day time.Time, meetings []model.Meeting, participants []model.Participant, m *formulation.Model, sol solver.Solution) (*Schedule, error) {
	if !sol.Status.HasSolution() {
		return nil, fmt.Errorf("%w: decode called with status %s", model.ErrInternalConsistency, sol.Status)
	}
	if len(sol.Values) != m.Problem.NumVars() {
		return nil, fmt.Errorf("%w: %d values for %d variables", model.ErrInternalConsistency, len(sol.Values), m.Problem.NumVars())
	}
	if len(m.ByMeeting) != len(meetings) {
		return nil, fmt.Errorf("%w: model has %d meetings, input %d", model.ErrInternalConsistency, len(m.ByMeeting), len(meetings))
	}
	selected := m.Selected(sol.Values)
	for mi, sel := range selected {
		switch len(sel) {
		case 1:
		case 0:
			return nil, fmt.Errorf("%w: meeting %q has no selected start", model.ErrInternalConsistency, meetings[mi].ID)
		default:
			return nil, fmt.Errorf("%w: meeting %q has %d selected starts", model.ErrInternalConsistency, meetings[mi].ID, len(sel))
		}
	}
	if !m.Problem.Feasible(sol.Values) {
		return nil, fmt.Errorf("%w: assignment violates the model constraints", model.ErrInternalConsistency)
	}

	offsets := make(map[string]int, len(participants))
	for _, p := range participants {
		offsets[p.ID] = p.UTCOffsetMinutes
	}
	proj := availability.Project(g, participants)
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	out := &Schedule{
		Day:         midnight,
		SlotMinutes: g.SlotMinutes(),
		Status:      sol.Status,
		StatusName:  sol.Status.String(),
	}

	for mi, sel := range selected {
		mt := meetings[mi]
		v := sel[0]
		c := m.Candidates[v]
		if c.Meeting != mi {
			return nil, fmt.Errorf("%w: variable %s belongs to meeting %d", model.ErrInternalConsistency, m.Problem.VarName(v), c.Meeting)
		}
		end, err := g.Span(c.Start, c.Duration)
		if err != nil {
			return nil, fmt.Errorf("%w: meeting %q: %v", model.ErrInternalConsistency, mt.ID, err)
		}
		e := Entry{
			MeetingID:     mt.ID,
			Team:          mt.Team,
			StartSlot:     c.Start,
			DurationSlots: c.Duration,
			Start:         midnight.Add(time.Duration(g.SlotToClock(c.Start)) * time.Minute),
			End:           midnight.Add(time.Duration(g.SlotToClock(end)) * time.Minute),
			Discomfort:    m.Costs[v],
		}
		sum := 0
		for _, pid := range mt.Participants {
			off := offsets[pid]
			zone := time.FixedZone(ZoneName(off), off*60)
			d := proj.Discomfort(pid, c.Start, end)
			sum += d
			e.Attendees = append(e.Attendees, Attendee{
				ParticipantID:    pid,
				UTCOffsetMinutes: off,
				LocalStart:       e.Start.In(zone),
				LocalEnd:         e.End.In(zone),
				Discomfort:       d,
			})
		}
		if sum != e.Discomfort {
			return nil, fmt.Errorf("%w: meeting %q costs %d but attendees sum to %d", model.ErrInternalConsistency, mt.ID, e.Discomfort, sum)
		}
		out.Objective += e.Discomfort
		out.Entries = append(out.Entries, e)
	}
	return out, nil
}

// ZoneName renders an offset as UTC+HH:MM.
func ZoneName(offsetMinutes int) string {
	sign := '+'
	if offsetMinutes < 0 {
		sign = '-'
		offsetMinutes = -offsetMinutes
	}
	return fmt.Sprintf("UTC%c%02d:%02d", sign, offsetMinutes/60, offsetMinutes%60)
}
