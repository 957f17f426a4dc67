package metrics

import (
	"errors"
	"testing"
)

type recordSink struct {
	runs, placements int
	err              error
}

func (r *recordSink) RecordRun(RunEvent) error {
	r.runs++
	return r.err
}

func (r *recordSink) RecordPlacements([]Placement) error {
	r.placements++
	return r.err
}

type runOnly struct{ runs int }

func (r *runOnly) RecordRun(RunEvent) error {
	r.runs++
	return nil
}

// TestMultiSink ensures events are forwarded to all sinks.
func TestMultiSink(t *testing.T) {
	s1 := &recordSink{}
	s2 := &runOnly{}
	m := NewMultiSink(s1, s2)
	if err := m.RecordRun(RunEvent{RunID: "r"}); err != nil {
		t.Fatalf("record run: %v", err)
	}
	if err := m.RecordPlacements(nil); err != nil {
		t.Fatalf("record placements: %v", err)
	}
	if s1.runs != 1 || s1.placements != 1 || s2.runs != 1 {
		t.Fatalf("events not forwarded: %+v %+v", s1, s2)
	}
}

func TestMultiSinkKeepsGoingAfterError(t *testing.T) {
	boom := errors.New("boom")
	s1 := &recordSink{err: boom}
	s2 := &recordSink{}
	err := NewMultiSink(s1, s2).RecordRun(RunEvent{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if s2.runs != 1 {
		t.Fatalf("second sink skipped")
	}
}
