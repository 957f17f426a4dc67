// Package candidates enumerates the feasible start slots of each meeting.
package candidates

import (
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/macmarek/scheduling-assistant/core/availability"
	"github.com/macmarek/scheduling-assistant/core/model"
	"github.com/macmarek/scheduling-assistant/core/timegrid"
)

// Candidate is a start slot at which every participant of the meeting is
// available for its whole duration.
type Candidate struct {
	Meeting  int // index into the meeting list
	Start    timegrid.Slot
	Duration int
}

// End returns the exclusive end slot.
func (c Candidate) End() timegrid.Slot { return c.Start + timegrid.Slot(c.Duration) }

// Occupies reports whether the candidate uses slot t.
func (c Candidate) Occupies(t timegrid.Slot) bool { return t >= c.Start && t < c.End() }

// Set holds the candidates of each meeting, in meeting order. Starts are
// ascending within a meeting.
type Set [][]Candidate

// Count returns the total number of candidates.
func (s Set) Count() int {
	n := 0
	for _, c := range s {
		n += len(c)
	}
	return n
}

// Contains reports whether start is a candidate of meeting mi.
func (s Set) Contains(mi int, start timegrid.Slot) bool {
	for _, c := range s[mi] {
		if c.Start == start {
			return true
		}
	}
	return false
}

// Generate enumerates candidates for every meeting. Meetings are processed in
// parallel. If any meeting has no candidate the first such meeting, in input
// order, is returned as a *model.UnsatisfiableError.
func Generate(g timegrid.Grid, meetings []model.Meeting, proj availability.Projection) (Set, error) {
	out := make(Set, len(meetings))
	var eg errgroup.Group
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i := range meetings {
		eg.Go(func() error {
			out[i] = forMeeting(g, i, meetings[i], proj)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	for i, c := range out {
		if len(c) == 0 {
			return nil, &model.UnsatisfiableError{MeetingID: meetings[i].ID}
		}
	}
	return out, nil
}

func forMeeting(g timegrid.Grid, idx int, m model.Meeting, proj availability.Projection) []Candidate {
	d := m.DurationSlots(g)
	if d <= 0 || d > g.SlotCount() {
		return nil
	}
	var out []Candidate
	for s := 0; s+d <= g.SlotCount(); s++ {
		start := timegrid.Slot(s)
		end := start + timegrid.Slot(d)
		ok := true
		for _, p := range m.Participants {
			if !proj.AvailableFor(p, start, end) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, Candidate{Meeting: idx, Start: start, Duration: d})
		}
	}
	return out
}
