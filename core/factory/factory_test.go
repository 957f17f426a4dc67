package factory

import (
	"testing"
	"time"
)

type engine struct {
	Every   int
	Timeout time.Duration
}

type engineConf struct {
	Every   int           `json:"check_every"`
	Timeout time.Duration `json:"timeout"`
}

// Test registry registration and instantiation using Decode.
func TestRegistry_Create(t *testing.T) {
	reg := NewRegistry[*engine]()
	if err := reg.Register("bt", func(conf map[string]any) (*engine, error) {
		var c engineConf
		if err := Decode(conf, &c); err != nil {
			return nil, err
		}
		return &engine{Every: c.Every, Timeout: c.Timeout}, nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	inst, err := reg.Create(ModuleConfig{Type: "bt", Conf: map[string]any{"check_every": "64", "timeout": "250ms"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if inst.Every != 64 {
		t.Fatalf("expected 64 got %d", inst.Every)
	}
	if inst.Timeout != 250*time.Millisecond {
		t.Fatalf("expected 250ms got %v", inst.Timeout)
	}
}

// Test duplicate registration and unknown type errors.
func TestRegistry_Errors(t *testing.T) {
	reg := NewRegistry[int]()
	if err := reg.Register("x", func(map[string]any) (int, error) { return 1, nil }); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Register("x", func(map[string]any) (int, error) { return 2, nil }); err == nil {
		t.Fatal("expected duplicate error")
	}
	if err := reg.Register("z", nil); err == nil {
		t.Fatal("expected nil factory error")
	}
	if _, err := reg.Create(ModuleConfig{Type: "y"}); err == nil {
		t.Fatal("expected unknown type error")
	}
	if names := reg.Names(); len(names) != 1 || names[0] != "x" {
		t.Fatalf("names %v", names)
	}
}
