// Package kpi aggregates how much meeting time each participant carries per
// day and how much of it falls outside their preferred hours.
package kpi

import (
	"sort"
	"time"

	"github.com/macmarek/scheduling-assistant/core/decoder"
)

// Record is the load of one participant on one UTC day.
type Record struct {
	ParticipantID   string
	Date            time.Time
	Meetings        int
	MeetingMinutes  int
	DiscomfortSlots int
}

// Store persists KPI records.
type Store interface {
	// AddRun adds the records of one run. It returns false and changes
	// nothing when runID was added before.
	AddRun(runID string, recs []Record) (bool, error)
	// Query returns records between start and end inclusive, ordered by
	// day then participant. An empty participantID matches everyone.
	Query(participantID string, start, end time.Time) ([]Record, error)
}

// Day aligns t to the start of its UTC day.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// FromSchedule derives one record per attendee of s, ordered by participant.
func FromSchedule(s *decoder.Schedule) []Record {
	if s == nil {
		return nil
	}
	day := Day(s.Day)
	by := map[string]*Record{}
	for _, e := range s.Entries {
		minutes := int(e.End.Sub(e.Start) / time.Minute)
		for _, a := range e.Attendees {
			r := by[a.ParticipantID]
			if r == nil {
				r = &Record{ParticipantID: a.ParticipantID, Date: day}
				by[a.ParticipantID] = r
			}
			r.Meetings++
			r.MeetingMinutes += minutes
			r.DiscomfortSlots += a.Discomfort
		}
	}
	out := make([]Record, 0, len(by))
	for _, r := range by {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ParticipantID < out[j].ParticipantID })
	return out
}

func (r *Record) add(o Record) {
	r.Meetings += o.Meetings
	r.MeetingMinutes += o.MeetingMinutes
	r.DiscomfortSlots += o.DiscomfortSlots
}
