package solver

import (
	"context"
	"testing"
)

func TestProblemEvaluateAndFeasible(t *testing.T) {
	p := NewProblem()
	a := p.NewBoolVar("a")
	b := p.NewBoolVar("b")
	c := p.NewBoolVar("c")
	if err := p.AddConstraint("one", []Term{{a, 1}, {b, 1}, {c, 1}}, Equal, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := p.AddConstraint("notc", []Term{{c, 1}}, LessEq, 0); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := p.AddConstraint("cover", []Term{{a, 2}, {b, 1}}, GreaterEq, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := p.Minimize([]Term{{a, 3}, {b, 1}}); err != nil {
		t.Fatalf("minimize: %v", err)
	}
	if !p.Feasible([]bool{false, true, false}) {
		t.Fatalf("expected feasible")
	}
	if p.Feasible([]bool{false, false, true}) {
		t.Fatalf("c is forbidden")
	}
	if p.Feasible([]bool{true, true, false}) {
		t.Fatalf("exactly one violated")
	}
	if p.Feasible([]bool{true}) {
		t.Fatalf("short assignment accepted")
	}
	if got := p.Evaluate([]bool{true, false, false}); got != 3 {
		t.Fatalf("objective %d", got)
	}
	if got := p.ObjectiveCoefs(); got[0] != 3 || got[1] != 1 || got[2] != 0 {
		t.Fatalf("coefs %v", got)
	}
	if p.NumVars() != 3 || p.VarName(b) != "b" {
		t.Fatalf("bad vars")
	}
}

func TestProblemRejectsUnknownVars(t *testing.T) {
	p := NewProblem()
	p.NewBoolVar("a")
	if err := p.AddConstraint("x", []Term{{Var(4), 1}}, LessEq, 1); err == nil {
		t.Fatalf("expected error")
	}
	if err := p.Minimize([]Term{{Var(-1), 1}}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestStatusStrings(t *testing.T) {
	want := map[Status]string{StatusOptimal: "OPTIMAL", StatusFeasible: "FEASIBLE", StatusInfeasible: "INFEASIBLE", StatusUnknown: "UNKNOWN"}
	for s, str := range want {
		if s.String() != str {
			t.Errorf("%d: %s", s, s.String())
		}
		if ParseStatus(str) != s {
			t.Errorf("parse %s: %d", str, ParseStatus(str))
		}
	}
	if ParseStatus("optimal") != StatusUnknown {
		t.Errorf("status names are case sensitive")
	}
	if !StatusFeasible.HasSolution() || StatusUnknown.HasSolution() {
		t.Fatalf("HasSolution wrong")
	}
	f := Func(func(context.Context, *Problem) (Solution, error) { return Solution{Status: StatusInfeasible}, nil })
	sol, err := f.Solve(context.Background(), NewProblem())
	if err != nil || sol.Status != StatusInfeasible {
		t.Fatalf("func adapter: %v %v", sol, err)
	}
}
