package scheduler

import (
	"testing"
	"time"
)

func TestConfigDefaults(t *testing.T) {
	var c Config
	c.SetDefaults()
	if c.SlotMinutes != 30 || c.SolverTimeLimitSeconds != 30 || c.Solver.Type != "lp" {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	if c.TimeLimit() != 30*time.Second {
		t.Fatalf("time limit %s", c.TimeLimit())
	}
}

func TestConfigValidate(t *testing.T) {
	cases := map[string]Config{
		"slot":  {SlotMinutes: 50, SolverTimeLimitSeconds: 1},
		"limit": {SlotMinutes: 30, SolverTimeLimitSeconds: -1},
		"day":   {SlotMinutes: 30, SolverTimeLimitSeconds: 1, Day: "17/09/2025"},
	}
	for name, c := range cases {
		if err := c.Validate(); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
	for _, w := range []int{45, 35} {
		c := Config{SlotMinutes: w, SolverTimeLimitSeconds: 1}
		err := c.Validate()
		if 1440%w == 0 && err != nil {
			t.Fatalf("slot %d divides the day: %v", w, err)
		}
		if 1440%w != 0 && err == nil {
			t.Fatalf("slot %d: expected error", w)
		}
	}
	ok := Config{SlotMinutes: 15, SolverTimeLimitSeconds: 0.5, Day: "2025-09-17"}
	if err := ok.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok.TimeLimit() != 500*time.Millisecond {
		t.Fatalf("time limit %s", ok.TimeLimit())
	}
}

func TestConfigAnchorDay(t *testing.T) {
	c := Config{Day: "2025-09-17"}
	d, err := c.AnchorDay(time.Now())
	if err != nil || !d.Equal(time.Date(2025, 9, 17, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("got %v %v", d, err)
	}
	now := time.Date(2025, 1, 1, 1, 30, 0, 0, time.FixedZone("E", 2*3600))
	d, err = Config{}.AnchorDay(now)
	if err != nil || !d.Equal(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("got %v %v", d, err)
	}
}
