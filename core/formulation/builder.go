// Package formulation turns candidate start slots into a 0-1 program: one
// variable per candidate, exactly one start per meeting, no participant in
// two meetings during the same slot, and total discomfort as the objective.
package formulation

import (
	"fmt"

	"github.com/macmarek/scheduling-assistant/core/availability"
	"github.com/macmarek/scheduling-assistant/core/candidates"
	"github.com/macmarek/scheduling-assistant/core/model"
	"github.com/macmarek/scheduling-assistant/core/solver"
	"github.com/macmarek/scheduling-assistant/core/timegrid"
)

// Model is a built problem together with the mapping back to candidates.
type Model struct {
	Problem *solver.Problem
	// Candidates[v] is the candidate of variable v.
	Candidates []candidates.Candidate
	// Costs[v] is the discomfort of choosing variable v.
	Costs []int
	// ByMeeting lists the variables of each meeting, in meeting order.
	ByMeeting [][]solver.Var
	// Clashes counts the emitted double-booking constraints.
	Clashes int
}

type busyKey struct {
	participant string
	slot        timegrid.Slot
}

type bucket struct {
	vars     []solver.Term
	meetings map[int]struct{}
}

// Build constructs the model. cands must come from candidates.Generate for
// the same meetings.
func Build(g timegrid.Grid, meetings []model.Meeting, cands candidates.Set, proj availability.Projection) (*Model, error) {
	if len(cands) != len(meetings) {
		return nil, fmt.Errorf("build model: %d candidate lists for %d meetings", len(cands), len(meetings))
	}
	p := solver.NewProblem()
	m := &Model{Problem: p, ByMeeting: make([][]solver.Var, len(meetings))}

	buckets := make(map[busyKey]*bucket)
	var order []busyKey
	var objective []solver.Term

	for mi, list := range cands {
		mt := meetings[mi]
		if len(list) == 0 {
			return nil, &model.UnsatisfiableError{MeetingID: mt.ID}
		}
		one := make([]solver.Term, 0, len(list))
		for _, c := range list {
			if c.Meeting != mi {
				return nil, fmt.Errorf("build model: candidate of meeting %d listed under %d", c.Meeting, mi)
			}
			v := p.NewBoolVar(fmt.Sprintf("start_%s_%d", mt.ID, c.Start))
			m.Candidates = append(m.Candidates, c)
			m.ByMeeting[mi] = append(m.ByMeeting[mi], v)
			one = append(one, solver.Term{Var: v, Coef: 1})

			cost := 0
			for _, pid := range mt.Participants {
				cost += proj.Discomfort(pid, c.Start, c.End())
				for t := c.Start; t < c.End(); t++ {
					k := busyKey{participant: pid, slot: t}
					b, ok := buckets[k]
					if !ok {
						b = &bucket{meetings: make(map[int]struct{})}
						buckets[k] = b
						order = append(order, k)
					}
					b.vars = append(b.vars, solver.Term{Var: v, Coef: 1})
					b.meetings[mi] = struct{}{}
				}
			}
			m.Costs = append(m.Costs, cost)
			if cost != 0 {
				objective = append(objective, solver.Term{Var: v, Coef: cost})
			}
		}
		if err := p.AddConstraint("one_"+mt.ID, one, solver.Equal, 1); err != nil {
			return nil, fmt.Errorf("build model: %w", err)
		}
	}

	for _, k := range order {
		b := buckets[k]
		if len(b.meetings) < 2 {
			continue
		}
		name := fmt.Sprintf("busy_%s_%d", k.participant, k.slot)
		if err := p.AddConstraint(name, b.vars, solver.LessEq, 1); err != nil {
			return nil, fmt.Errorf("build model: %w", err)
		}
		m.Clashes++
	}
	if err := p.Minimize(objective); err != nil {
		return nil, fmt.Errorf("build model: %w", err)
	}
	return m, nil
}

// Selected returns, for each meeting, the variables set in values.
func (m *Model) Selected(values []bool) [][]solver.Var {
	out := make([][]solver.Var, len(m.ByMeeting))
	for mi, vars := range m.ByMeeting {
		for _, v := range vars {
			if int(v) < len(values) && values[v] {
				out[mi] = append(out[mi], v)
			}
		}
	}
	return out
}
