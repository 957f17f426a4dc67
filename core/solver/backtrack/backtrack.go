// Package backtrack solves 0-1 problems exactly with depth-first
// branch-and-bound. It suits the small instances produced by day scheduling
// and serves as a reference for the LP-based engine.
package backtrack

import (
	"context"

	"github.com/macmarek/scheduling-assistant/core/solver"
)

// defaultCheckEvery is the number of nodes between context checks.
const defaultCheckEvery = 1024

// Solver is a depth-first branch-and-bound engine.
type Solver struct {
	// CheckEvery sets how many nodes are explored between deadline checks.
	CheckEvery int
}

// New returns a Solver with default settings.
func New() *Solver { return &Solver{CheckEvery: defaultCheckEvery} }

type occurrence struct {
	con  int
	coef int
}

type conState struct {
	fixed int
	pos   int // sum of positive coefficients of free variables
	neg   int // sum of negative coefficients of free variables
}

// search holds the mutable state of one Solve call.
type search struct {
	ctx        context.Context
	checkEvery int

	cons  []solver.Constraint
	occ   [][]occurrence
	state []conState
	obj   []int

	// groups are disjoint "pick exactly one" constraints used for bounding
	// when every objective coefficient is non-negative.
	groups   [][]solver.Var
	groupCon []int

	free    []bool
	values  []bool
	objCost int
	objNeg  int

	best     []bool
	bestCost int
	found    bool
	nodes    int
	stopped  bool
}

// Solve implements solver.Solver.
func (s *Solver) Solve(ctx context.Context, p *solver.Problem) (solver.Solution, error) {
	every := s.CheckEvery
	if every <= 0 {
		every = defaultCheckEvery
	}
	st := newSearch(ctx, p, every)
	for ci := range st.cons {
		if !st.possible(ci) {
			return solver.Solution{Status: solver.StatusInfeasible}, nil
		}
	}
	st.dfs(0)

	sol := solver.Solution{Nodes: st.nodes}
	switch {
	case st.found && !st.stopped:
		sol.Status = solver.StatusOptimal
	case st.found:
		sol.Status = solver.StatusFeasible
	case st.stopped:
		sol.Status = solver.StatusUnknown
	default:
		sol.Status = solver.StatusInfeasible
	}
	if st.found {
		sol.Values = st.best
		sol.Objective = st.bestCost
	}
	return sol, nil
}

func newSearch(ctx context.Context, p *solver.Problem, every int) *search {
	n := p.NumVars()
	st := &search{
		ctx:        ctx,
		checkEvery: every,
		cons:       p.Constraints(),
		occ:        make([][]occurrence, n),
		obj:        p.ObjectiveCoefs(),
		free:       make([]bool, n),
		values:     make([]bool, n),
	}
	st.state = make([]conState, len(st.cons))
	for ci, c := range st.cons {
		for _, t := range c.Terms {
			st.occ[t.Var] = append(st.occ[t.Var], occurrence{con: ci, coef: t.Coef})
			if t.Coef > 0 {
				st.state[ci].pos += t.Coef
			} else {
				st.state[ci].neg += t.Coef
			}
		}
	}
	nonNegative := true
	for v := range st.free {
		st.free[v] = true
		if st.obj[v] < 0 {
			st.objNeg += st.obj[v]
			nonNegative = false
		}
	}
	if nonNegative {
		st.findGroups()
	}
	return st
}

// findGroups collects Equal constraints of the form x1+...+xk == 1 whose
// variables appear in no other such constraint.
func (st *search) findGroups() {
	used := make([]bool, len(st.free))
	for ci, c := range st.cons {
		if c.Sense != solver.Equal || c.RHS != 1 || len(c.Terms) == 0 {
			continue
		}
		ok := true
		for _, t := range c.Terms {
			if t.Coef != 1 || used[t.Var] {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		vars := make([]solver.Var, len(c.Terms))
		for i, t := range c.Terms {
			vars[i] = t.Var
			used[t.Var] = true
		}
		st.groups = append(st.groups, vars)
		st.groupCon = append(st.groupCon, ci)
	}
}

func (st *search) possible(ci int) bool {
	c := st.cons[ci]
	s := st.state[ci]
	lo, hi := s.fixed+s.neg, s.fixed+s.pos
	switch c.Sense {
	case solver.LessEq:
		return lo <= c.RHS
	case solver.Equal:
		return lo <= c.RHS && hi >= c.RHS
	default:
		return hi >= c.RHS
	}
}

// assign fixes v and reports whether every touched constraint can still be
// satisfied. The update is always applied in full so unassign can revert it.
func (st *search) assign(v int, val bool) bool {
	st.free[v] = false
	st.values[v] = val
	if st.obj[v] < 0 {
		st.objNeg -= st.obj[v]
	}
	if val {
		st.objCost += st.obj[v]
	}
	ok := true
	for _, o := range st.occ[v] {
		s := &st.state[o.con]
		if o.coef > 0 {
			s.pos -= o.coef
		} else {
			s.neg -= o.coef
		}
		if val {
			s.fixed += o.coef
		}
		if !st.possible(o.con) {
			ok = false
		}
	}
	return ok
}

func (st *search) unassign(v int, val bool) {
	for _, o := range st.occ[v] {
		s := &st.state[o.con]
		if o.coef > 0 {
			s.pos += o.coef
		} else {
			s.neg += o.coef
		}
		if val {
			s.fixed -= o.coef
		}
	}
	if val {
		st.objCost -= st.obj[v]
	}
	if st.obj[v] < 0 {
		st.objNeg += st.obj[v]
	}
	st.free[v] = true
	st.values[v] = false
}

// bound is a lower bound on the objective of any completion.
func (st *search) bound() int {
	b := st.objCost + st.objNeg
	for gi, vars := range st.groups {
		if st.state[st.groupCon[gi]].fixed > 0 {
			continue
		}
		cheapest, seen := 0, false
		for _, v := range vars {
			if !st.free[v] {
				continue
			}
			if !seen || st.obj[v] < cheapest {
				cheapest, seen = st.obj[v], true
			}
		}
		b += cheapest
	}
	return b
}

func (st *search) dfs(v int) {
	if st.stopped {
		return
	}
	st.nodes++
	if st.nodes%st.checkEvery == 0 && st.ctx.Err() != nil {
		st.stopped = true
		return
	}
	if st.found && st.bound() >= st.bestCost {
		return
	}
	if v == len(st.values) {
		st.best = append(st.best[:0:0], st.values...)
		st.bestCost = st.objCost
		st.found = true
		return
	}
	first := st.obj[v] <= 0
	for _, val := range [2]bool{first, !first} {
		if st.assign(v, val) {
			st.dfs(v + 1)
		}
		st.unassign(v, val)
		if st.stopped {
			return
		}
	}
}
