// Package lp solves 0-1 problems by branch-and-bound over linear
// relaxations. Each node relaxes the free variables to [0,1] and solves the
// resulting linear program with gonum's simplex implementation.
package lp

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/macmarek/scheduling-assistant/core/solver"
)

const (
	defaultTol    = 1e-9
	defaultIntTol = 1e-6
)

// Solver is an LP-based branch-and-bound engine.
type Solver struct {
	// Tol is passed to the simplex routine.
	Tol float64
	// IntTol is the distance from an integer under which a relaxed value is
	// treated as integral.
	IntTol float64
}

// New returns a Solver with default tolerances.
func New() *Solver { return &Solver{Tol: defaultTol, IntTol: defaultIntTol} }

// relax points to the function solving one relaxation. It can be overridden
// in tests to simulate numerical failures.
var relax = simplex

func simplex(c []float64, a *mat.Dense, b []float64, tol float64) (opt float64, x []float64, err error) {
	// gonum panics on some degenerate inputs
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("simplex: %v", r)
		}
	}()
	return lp.Simplex(c, a, b, tol, nil)
}

type bb struct {
	ctx    context.Context
	p      *solver.Problem
	cons   []solver.Constraint
	obj    []int
	tol    float64
	intTol float64

	fix []int8 // -1 free, 0 or 1 fixed

	best     []bool
	bestCost int
	found    bool
	nodes    int
	stopped  bool
}

// Solve implements solver.Solver.
func (s *Solver) Solve(ctx context.Context, p *solver.Problem) (solver.Solution, error) {
	tol, intTol := s.Tol, s.IntTol
	if tol <= 0 {
		tol = defaultTol
	}
	if intTol <= 0 {
		intTol = defaultIntTol
	}
	st := &bb{
		ctx:    ctx,
		p:      p,
		cons:   p.Constraints(),
		obj:    p.ObjectiveCoefs(),
		tol:    tol,
		intTol: intTol,
		fix:    make([]int8, p.NumVars()),
	}
	for i := range st.fix {
		st.fix[i] = -1
	}
	st.dive()
	st.branch()

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

// reduced is the relaxation of a node with fixed variables substituted out.
type reduced struct {
	free      []int // problem variable of each LP column
	rows      []row
	fixedCost int
	objLower  int // fixedCost plus every negative free coefficient
}

type row struct {
	coefs map[int]int // LP column -> coefficient
	sense solver.Sense
	rhs   int
}

// reduce substitutes fixed variables. It returns false when some constraint
// can no longer be satisfied whatever the free variables do.
func (st *bb) reduce() (reduced, bool) {
	var r reduced
	col := make(map[int]int)
	for v, f := range st.fix {
		switch f {
		case -1:
			col[v] = len(r.free)
			r.free = append(r.free, v)
			if st.obj[v] < 0 {
				r.objLower += st.obj[v]
			}
		case 1:
			r.fixedCost += st.obj[v]
		}
	}
	r.objLower += r.fixedCost
	seen := make(map[string]struct{})
	for _, c := range st.cons {
		rw := row{coefs: make(map[int]int), sense: c.Sense, rhs: c.RHS}
		lo, hi := 0, 0
		for _, t := range c.Terms {
			switch st.fix[t.Var] {
			case 1:
				rw.rhs -= t.Coef
			case -1:
				rw.coefs[col[int(t.Var)]] += t.Coef
				if t.Coef > 0 {
					hi += t.Coef
				} else {
					lo += t.Coef
				}
			}
		}
		if !satisfiable(c.Sense, lo, hi, rw.rhs) {
			return r, false
		}
		if len(rw.coefs) == 0 || redundant(c.Sense, lo, hi, rw.rhs) {
			continue
		}
		key := rw.key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		r.rows = append(r.rows, rw)
	}
	return r, true
}

// satisfiable reports whether a row whose free part ranges over [lo, hi]
// can still meet rhs.
func satisfiable(sense solver.Sense, lo, hi, rhs int) bool {
	switch sense {
	case solver.LessEq:
		return lo <= rhs
	case solver.Equal:
		return lo <= rhs && hi >= rhs
	case solver.GreaterEq:
		return hi >= rhs
	}
	return false
}

// redundant reports whether a row holds for every 0-1 value of its free
// variables.
func redundant(sense solver.Sense, lo, hi, rhs int) bool {
	switch sense {
	case solver.LessEq:
		return hi <= rhs
	case solver.GreaterEq:
		return lo >= rhs
	}
	return false
}

func (rw row) key() string {
	cols := make([]int, 0, len(rw.coefs))
	for j := range rw.coefs {
		cols = append(cols, j)
	}
	slices.Sort(cols)
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(int(rw.sense)))
	sb.WriteByte('|')
	sb.WriteString(strconv.Itoa(rw.rhs))
	for _, j := range cols {
		sb.WriteByte('|')
		sb.WriteString(strconv.Itoa(j))
		sb.WriteByte(':')
		sb.WriteString(strconv.Itoa(rw.coefs[j]))
	}
	return sb.String()
}

// bounded marks the columns whose upper bound of 1 already follows from a
// row: in a row with positive coefficients and rhs <= coef, x <= rhs/coef.
func (r reduced) bounded() []bool {
	out := make([]bool, len(r.free))
	for _, rw := range r.rows {
		if rw.sense == solver.GreaterEq || rw.rhs < 0 {
			continue
		}
		positive := true
		for _, coef := range rw.coefs {
			if coef <= 0 {
				positive = false
				break
			}
		}
		if !positive {
			continue
		}
		for j, coef := range rw.coefs {
			if coef >= rw.rhs {
				out[j] = true
			}
		}
	}
	return out
}

// solveRelaxation builds the standard form
//
//	min c'x  s.t.  rows with slack or surplus columns,  x + u = 1,  x,s,u >= 0
//
// where the x + u = 1 rows are only emitted for columns not already bounded
// by another row. It returns the relaxed objective and the values of the free
// variables, or the context error when ctx ends first.
func (st *bb) solveRelaxation(r reduced) (float64, []float64, error) {
	nFree := len(r.free)
	nSlack := 0
	for _, rw := range r.rows {
		if rw.sense != solver.Equal {
			nSlack++
		}
	}
	var upper []int
	for j, ok := range r.bounded() {
		if !ok {
			upper = append(upper, j)
		}
	}
	m := len(r.rows) + len(upper)
	n := nFree + nSlack + len(upper)
	if m > n {
		return 0, nil, errTooManyRows
	}
	a := mat.NewDense(m, n, nil)
	b := make([]float64, m)
	c := make([]float64, n)
	for j, v := range r.free {
		c[j] = float64(st.obj[v])
	}
	slack := nFree
	for i, rw := range r.rows {
		for j, coef := range rw.coefs {
			a.Set(i, j, float64(coef))
		}
		switch rw.sense {
		case solver.LessEq:
			a.Set(i, slack, 1)
			slack++
		case solver.GreaterEq:
			a.Set(i, slack, -1)
			slack++
		}
		b[i] = float64(rw.rhs)
	}
	for k, j := range upper {
		i := len(r.rows) + k
		a.Set(i, j, 1)
		a.Set(i, nFree+nSlack+k, 1)
		b[i] = 1
	}
	for i := range b {
		if b[i] < 0 {
			b[i] = -b[i]
			for j := 0; j < n; j++ {
				a.Set(i, j, -a.At(i, j))
			}
		}
	}

	// gonum's simplex cannot be interrupted. On expiry the call is abandoned
	// and finishes in the background.
	fn := relax
	done := make(chan relaxation, 1)
	go func() {
		f, x, err := fn(c, a, b, st.tol)
		done <- relaxation{f: f, x: x, err: err}
	}()
	select {
	case <-st.ctx.Done():
		return 0, nil, st.ctx.Err()
	case res := <-done:
		if res.err != nil {
			return 0, nil, res.err
		}
		return res.f, res.x[:nFree], nil
	}
}

type relaxation struct {
	f   float64
	x   []float64
	err error
}

var errTooManyRows = errors.New("more rows than columns")

func (st *bb) branch() {
	if st.stopped {
		return
	}
	st.nodes++
	if st.ctx.Err() != nil {
		st.stopped = true
		return
	}
	r, ok := st.reduce()
	if !ok {
		return
	}
	if st.found && r.objLower >= st.bestCost && len(r.free) > 0 {
		return
	}
	if len(r.free) == 0 {
		st.leaf()
		return
	}

	f, x, err := st.solveRelaxation(r)
	if st.ctx.Err() != nil {
		st.stopped = true
		return
	}
	switch {
	case errors.Is(err, lp.ErrInfeasible):
		return
	case err != nil:
		// Numerical trouble: fall back to plain enumeration on this node.
		st.split(r.free[0], false)
		return
	}
	bound := float64(r.fixedCost) + f
	if st.found && int(math.Ceil(bound-st.intTol)) >= st.bestCost {
		return
	}

	pick, pickDist := -1, 0.0
	for j, xv := range x {
		frac := math.Abs(xv - math.Round(xv))
		if frac <= st.intTol {
			continue
		}
		dist := math.Abs(xv - 0.5)
		if pick < 0 || dist < pickDist {
			pick, pickDist = j, dist
		}
	}
	if pick < 0 {
		for j, xv := range x {
			if math.Round(xv) >= 1 {
				st.fix[r.free[j]] = 1
			} else {
				st.fix[r.free[j]] = 0
			}
		}
		feasible := st.leaf()
		for _, v := range r.free {
			st.fix[v] = -1
		}
		if feasible {
			return
		}
		st.split(r.free[0], false)
		return
	}
	st.split(r.free[pick], x[pick] >= 0.5)
}

// dive fixes variables greedily by ascending objective coefficient, keeping
// every constraint satisfiable, to seed an incumbent before any relaxation
// runs. A failed dive leaves no incumbent.
func (st *bb) dive() {
	if st.ctx.Err() != nil {
		return
	}
	order := make([]int, len(st.fix))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool { return st.obj[order[i]] < st.obj[order[j]] })
	defer func() {
		for i := range st.fix {
			st.fix[i] = -1
		}
	}()
	for _, v := range order {
		if st.ctx.Err() != nil {
			return
		}
		st.fix[v] = 1
		if st.consistent() {
			continue
		}
		st.fix[v] = 0
		if !st.consistent() {
			return
		}
	}
	st.leaf()
}

// consistent reports whether every constraint can still be met by the free
// variables.
func (st *bb) consistent() bool {
	for _, c := range st.cons {
		rhs, lo, hi := c.RHS, 0, 0
		for _, t := range c.Terms {
			switch st.fix[t.Var] {
			case 1:
				rhs -= t.Coef
			case -1:
				if t.Coef > 0 {
					hi += t.Coef
				} else {
					lo += t.Coef
				}
			}
		}
		if !satisfiable(c.Sense, lo, hi, rhs) {
			return false
		}
	}
	return true
}

// split explores v=first then v=!first.
func (st *bb) split(v int, first bool) {
	for _, val := range [2]bool{first, !first} {
		if val {
			st.fix[v] = 1
		} else {
			st.fix[v] = 0
		}
		st.branch()
		st.fix[v] = -1
		if st.stopped {
			return
		}
	}
}

// leaf evaluates a fully fixed assignment and reports whether it is feasible.
func (st *bb) leaf() bool {
	values := make([]bool, len(st.fix))
	for v, f := range st.fix {
		values[v] = f == 1
	}
	if !st.p.Feasible(values) {
		return false
	}
	cost := st.p.Evaluate(values)
	if !st.found || cost < st.bestCost {
		st.best, st.bestCost, st.found = values, cost, true
	}
	return true
}
