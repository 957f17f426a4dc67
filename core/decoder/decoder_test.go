package decoder

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macmarek/scheduling-assistant/core/availability"
	"github.com/macmarek/scheduling-assistant/core/candidates"
	"github.com/macmarek/scheduling-assistant/core/formulation"
	"github.com/macmarek/scheduling-assistant/core/model"
	"github.com/macmarek/scheduling-assistant/core/solver"
	"github.com/macmarek/scheduling-assistant/core/solver/backtrack"
	"github.com/macmarek/scheduling-assistant/core/timegrid"
)

var day = time.Date(2024, 3, 11, 15, 4, 5, 0, time.UTC)

type fixture struct {
	g  timegrid.Grid
	ps []model.Participant
	ms []model.Meeting
	m  *formulation.Model
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	g := timegrid.MustNew(30)
	ps := []model.Participant{
		{ID: "A", Preferred: model.DefaultWindow},
		{ID: "B", UTCOffsetMinutes: 330, Preferred: model.DefaultWindow},
	}
	ms := []model.Meeting{
		{ID: "sync", Team: "core", DurationMinutes: 60, Participants: []string{"A", "B"}},
		{ID: "1on1", DurationMinutes: 30, Participants: []string{"B"}},
	}
	proj := availability.Project(g, ps)
	cands, err := candidates.Generate(g, ms, proj)
	require.NoError(t, err)
	m, err := formulation.Build(g, ms, cands, proj)
	require.NoError(t, err)
	return fixture{g: g, ps: ps, ms: ms, m: m}
}

func (f fixture) pick(t *testing.T, starts ...timegrid.Slot) []bool {
	t.Helper()
	values := make([]bool, f.m.Problem.NumVars())
	for mi, s := range starts {
		found := false
		for _, v := range f.m.ByMeeting[mi] {
			if f.m.Candidates[v].Start == s {
				values[v] = true
				found = true
			}
		}
		require.True(t, found, "meeting %d has no candidate at %d", mi, s)
	}
	return values
}

func TestDecodeSolvedSchedule(t *testing.T) {
	f := newFixture(t)
	sol, err := backtrack.New().Solve(context.Background(), f.m.Problem)
	require.NoError(t, err)

	s, err := Decode(f.g, day, f.ms, f.ps, f.m, sol)
	require.NoError(t, err)
	assert.True(t, s.Optimal())
	assert.Equal(t, "OPTIMAL", s.StatusName)
	assert.Equal(t, 0, s.Objective)
	require.Len(t, s.Entries, 2)
	assert.Equal(t, "sync", s.Entries[0].MeetingID)
	assert.Equal(t, "core", s.Entries[0].Team)
	assert.Equal(t, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), s.Day)

	raw, err := json.Marshal(s)
	require.NoError(t, err)
	var back Schedule
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.True(t, back.Optimal(), "status lost after a JSON round trip")
	assert.Equal(t, solver.StatusOptimal, back.Status)
}

func TestDecodeTimes(t *testing.T) {
	f := newFixture(t)
	sol := solver.Solution{Status: solver.StatusFeasible, Values: f.pick(t, 18, 10)}

	s, err := Decode(f.g, day, f.ms, f.ps, f.m, sol)
	require.NoError(t, err)
	assert.False(t, s.Optimal())

	e := s.Entries[0]
	assert.Equal(t, time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC), e.Start)
	assert.Equal(t, time.Date(2024, 3, 11, 10, 0, 0, 0, time.UTC), e.End)
	require.Len(t, e.Attendees, 2)
	b := e.Attendees[1]
	assert.Equal(t, "B", b.ParticipantID)
	assert.Equal(t, "14:30", b.LocalStart.Format("15:04"))
	assert.Equal(t, "15:30", b.LocalEnd.Format("15:04"))
	name, off := b.LocalStart.Zone()
	assert.Equal(t, "UTC+05:30", name)
	assert.Equal(t, 330*60, off)

	// 05:00 UTC is 10:30 for B
	one := s.Entries[1]
	assert.Equal(t, "10:30", one.Attendees[0].LocalStart.Format("15:04"))
}

func TestDecodeLocalTimeWrapsMidnight(t *testing.T) {
	g := timegrid.MustNew(30)
	ps := []model.Participant{{ID: "W", UTCOffsetMinutes: -480, Preferred: model.Window{Start: 20 * 60, End: 23 * 60}}}
	ms := []model.Meeting{{ID: "late", DurationMinutes: 30, Participants: []string{"W"}}}
	proj := availability.Project(g, ps)
	cands, err := candidates.Generate(g, ms, proj)
	require.NoError(t, err)
	m, err := formulation.Build(g, ms, cands, proj)
	require.NoError(t, err)

	// local 20:00 at UTC-8 is 04:00 UTC on the anchor day
	require.Equal(t, timegrid.Slot(8), m.Candidates[0].Start)
	values := make([]bool, m.Problem.NumVars())
	values[0] = true
	s, err := Decode(g, day, ms, ps, m, solver.Solution{Status: solver.StatusOptimal, Values: values})
	require.NoError(t, err)
	local := s.Entries[0].Attendees[0].LocalStart
	assert.Equal(t, 10, local.Day())
	assert.Equal(t, 20, local.Hour())
}

func TestDecodeConsistencyErrors(t *testing.T) {
	f := newFixture(t)
	none := f.pick(t, 18, 10)
	for v := range f.m.ByMeeting[1] {
		none[f.m.ByMeeting[1][v]] = false
	}
	twice := f.pick(t, 18, 10)
	twice[f.m.ByMeeting[0][1]] = true
	clash := f.pick(t, 18, 18)

	cases := map[string]solver.Solution{
		"none":      {Status: solver.StatusOptimal, Values: none},
		"twice":     {Status: solver.StatusOptimal, Values: twice},
		"clash":     {Status: solver.StatusOptimal, Values: clash},
		"short":     {Status: solver.StatusOptimal, Values: []bool{true}},
		"no status": {Status: solver.StatusUnknown},
	}
	for name, sol := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(f.g, day, f.ms, f.ps, f.m, sol)
			require.Error(t, err)
			assert.True(t, errors.Is(err, model.ErrInternalConsistency), err.Error())
		})
	}
}

func TestZoneName(t *testing.T) {
	assert.Equal(t, "UTC+00:00", ZoneName(0))
	assert.Equal(t, "UTC+05:45", ZoneName(345))
	assert.Equal(t, "UTC-03:30", ZoneName(-210))
}

func TestDecodeAttendeeDiscomfort(t *testing.T) {
	g := timegrid.MustNew(30)
	early := model.Window{Start: 7 * 60, End: 17 * 60}
	ps := []model.Participant{
		{ID: "A", Preferred: model.DefaultWindow, Available: &early},
		{ID: "K", UTCOffsetMinutes: 540, Preferred: model.DefaultWindow, Available: &model.Window{Start: 0, End: 24 * 60}},
	}
	ms := []model.Meeting{{ID: "standup", DurationMinutes: 60, Participants: []string{"A", "K"}}}
	proj := availability.Project(g, ps)
	cands, err := candidates.Generate(g, ms, proj)
	require.NoError(t, err)
	m, err := formulation.Build(g, ms, cands, proj)
	require.NoError(t, err)

	values := make([]bool, m.Problem.NumVars())
	found := false
	for v, c := range m.Candidates {
		if c.Start == 14 {
			values[v] = true
			found = true
		}
	}
	require.True(t, found)

	s, err := Decode(g, day, ms, ps, m, solver.Solution{Status: solver.StatusFeasible, Values: values})
	require.NoError(t, err)
	e := s.Entries[0]
	// 07:00 UTC is two slots early for A and 16:00 local for K
	assert.Equal(t, 2, e.Attendees[0].Discomfort)
	assert.Equal(t, 0, e.Attendees[1].Discomfort)
	assert.Equal(t, 2, e.Discomfort)
	assert.Equal(t, 2, s.Objective)
}
