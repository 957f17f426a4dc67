package solver

import "context"

// Status is the verdict of a solve.
type Status int

const (
	// StatusUnknown means the budget ran out before any verdict.
	StatusUnknown Status = iota
	// StatusOptimal means Values is proven optimal.
	StatusOptimal
	// StatusFeasible means Values is feasible but optimality is unproven.
	StatusFeasible
	// StatusInfeasible means no assignment satisfies the constraints.
	StatusInfeasible
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "OPTIMAL"
	case StatusFeasible:
		return "FEASIBLE"
	case StatusInfeasible:
		return "INFEASIBLE"
	default:
		return "UNKNOWN"
	}
}

// ParseStatus is the inverse of String. Unrecognised names map to
// StatusUnknown.
func ParseStatus(name string) Status {
	for _, st := range []Status{StatusOptimal, StatusFeasible, StatusInfeasible} {
		if st.String() == name {
			return st
		}
	}
	return StatusUnknown
}

// HasSolution reports whether Values carries an assignment.
func (s Status) HasSolution() bool { return s == StatusOptimal || s == StatusFeasible }

// Solution is the result of Solve.
type Solution struct {
	Status    Status
	Values    []bool
	Objective int
	// Nodes counts explored search nodes.
	Nodes int
}

// Solver finds a minimum-objective assignment of a Problem.
//
// The time budget is the deadline of ctx. When it expires a solver returns
// StatusFeasible with its best assignment, or StatusUnknown without one,
// rather than blocking. A non-nil error means the engine itself failed.
type Solver interface {
	Solve(ctx context.Context, p *Problem) (Solution, error)
}

// Func adapts a function to the Solver interface.
type Func func(ctx context.Context, p *Problem) (Solution, error)

// Solve calls f.
func (f Func) Solve(ctx context.Context, p *Problem) (Solution, error) { return f(ctx, p) }
