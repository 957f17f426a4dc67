// Package solver defines a small 0-1 integer programming capability:
// boolean variables, linear constraints with integer coefficients and a
// linear objective to minimise. Engines implementing Solver live in
// sub-packages and are interchangeable.
package solver

import "fmt"

// Var identifies a boolean decision variable of a Problem.
type Var int

// Term is a weighted variable in a linear expression.
type Term struct {
	Var  Var
	Coef int
}

// Sense is the relation of a constraint.
type Sense int

const (
	LessEq Sense = iota
	Equal
	GreaterEq
)

func (s Sense) String() string {
	switch s {
	case LessEq:
		return "<="
	case Equal:
		return "=="
	case GreaterEq:
		return ">="
	default:
		return "?"
	}
}

// Constraint is sum(Terms) Sense RHS.
type Constraint struct {
	Name  string
	Terms []Term
	Sense Sense
	RHS   int
}

// Satisfied evaluates the constraint under values.
func (c Constraint) Satisfied(values []bool) bool {
	lhs := 0
	for _, t := range c.Terms {
		if values[t.Var] {
			lhs += t.Coef
		}
	}
	switch c.Sense {
	case LessEq:
		return lhs <= c.RHS
	case Equal:
		return lhs == c.RHS
	default:
		return lhs >= c.RHS
	}
}

// Problem is a 0-1 integer program under construction.
type Problem struct {
	names       []string
	constraints []Constraint
	objective   []Term
}

// NewProblem returns an empty problem.
func NewProblem() *Problem { return &Problem{} }

// NewBoolVar declares a boolean variable.
func (p *Problem) NewBoolVar(name string) Var {
	p.names = append(p.names, name)
	return Var(len(p.names) - 1)
}

// AddConstraint declares sum(terms) sense rhs. Terms must reference declared
// variables.
func (p *Problem) AddConstraint(name string, terms []Term, sense Sense, rhs int) error {
	for _, t := range terms {
		if int(t.Var) < 0 || int(t.Var) >= len(p.names) {
			return fmt.Errorf("constraint %s: unknown variable %d", name, t.Var)
		}
	}
	cp := make([]Term, len(terms))
	copy(cp, terms)
	p.constraints = append(p.constraints, Constraint{Name: name, Terms: cp, Sense: sense, RHS: rhs})
	return nil
}

// Minimize sets the objective, replacing any previous one.
func (p *Problem) Minimize(terms []Term) error {
	for _, t := range terms {
		if int(t.Var) < 0 || int(t.Var) >= len(p.names) {
			return fmt.Errorf("objective: unknown variable %d", t.Var)
		}
	}
	p.objective = make([]Term, len(terms))
	copy(p.objective, terms)
	return nil
}

// NumVars returns the number of declared variables.
func (p *Problem) NumVars() int { return len(p.names) }

// VarName returns the declared name of v.
func (p *Problem) VarName(v Var) string { return p.names[v] }

// Constraints returns the declared constraints. Callers must not modify them.
func (p *Problem) Constraints() []Constraint { return p.constraints }

// Objective returns the objective terms. Callers must not modify them.
func (p *Problem) Objective() []Term { return p.objective }

// ObjectiveCoefs returns the objective as a dense coefficient vector.
func (p *Problem) ObjectiveCoefs() []int {
	c := make([]int, len(p.names))
	for _, t := range p.objective {
		c[t.Var] += t.Coef
	}
	return c
}

// Evaluate returns the objective value of values.
func (p *Problem) Evaluate(values []bool) int {
	v := 0
	for _, t := range p.objective {
		if values[t.Var] {
			v += t.Coef
		}
	}
	return v
}

// Feasible reports whether values satisfies every constraint.
func (p *Problem) Feasible(values []bool) bool {
	if len(values) != len(p.names) {
		return false
	}
	for _, c := range p.constraints {
		if !c.Satisfied(values) {
			return false
		}
	}
	return true
}
