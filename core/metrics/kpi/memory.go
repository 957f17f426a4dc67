package kpi

import (
	"sort"
	"sync"
	"time"
)

// MemoryStore stores records in memory for testing or lightweight usage.
type MemoryStore struct {
	mu   sync.Mutex
	runs map[string]bool
	data map[string]map[time.Time]*Record
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: map[string]bool{}, data: map[string]map[time.Time]*Record{}}
}

// AddRun aggregates recs by participant and day.
func (s *MemoryStore) AddRun(runID string, recs []Record) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runs[runID] {
		return false, nil
	}
	s.runs[runID] = true
	for _, r := range recs {
		if s.data[r.ParticipantID] == nil {
			s.data[r.ParticipantID] = map[time.Time]*Record{}
		}
		d := Day(r.Date)
		rec := s.data[r.ParticipantID][d]
		if rec == nil {
			rec = &Record{ParticipantID: r.ParticipantID, Date: d}
			s.data[r.ParticipantID][d] = rec
		}
		rec.add(r)
	}
	return true, nil
}

// Query returns records between start and end inclusive.
func (s *MemoryStore) Query(participantID string, start, end time.Time) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start = Day(start)
	end = Day(end)
	var res []Record
	for pid, days := range s.data {
		if participantID != "" && pid != participantID {
			continue
		}
		for d, r := range days {
			if d.Before(start) || d.After(end) {
				continue
			}
			res = append(res, *r)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		if !res[i].Date.Equal(res[j].Date) {
			return res[i].Date.Before(res[j].Date)
		}
		return res[i].ParticipantID < res[j].ParticipantID
	})
	return res, nil
}
