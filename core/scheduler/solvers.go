package scheduler

import (
	"github.com/macmarek/scheduling-assistant/core/factory"
	"github.com/macmarek/scheduling-assistant/core/solver"
	"github.com/macmarek/scheduling-assistant/core/solver/backtrack"
	"github.com/macmarek/scheduling-assistant/core/solver/lp"
)

// DefaultSolver is the engine used when none is configured.
const DefaultSolver = "lp"

var solverRegistry = factory.NewRegistry[solver.Solver]()

// RegisterSolver makes an engine available under name.
func RegisterSolver(name string, f factory.Factory[solver.Solver]) error {
	return solverRegistry.Register(name, f)
}

// NewSolver builds the engine described by cfg.
func NewSolver(cfg factory.ModuleConfig) (solver.Solver, error) {
	if cfg.Type == "" {
		cfg.Type = DefaultSolver
	}
	return solverRegistry.Create(cfg)
}

// Solvers lists the registered engine names.
func Solvers() []string { return solverRegistry.Names() }

type lpConf struct {
	Tol    float64 `json:"tol"`
	IntTol float64 `json:"int_tol"`
}

type backtrackConf struct {
	CheckEvery int `json:"check_every"`
}

func init() {
	_ = RegisterSolver("lp", func(conf map[string]any) (solver.Solver, error) {
		s := lp.New()
		var c lpConf
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.Tol > 0 {
			s.Tol = c.Tol
		}
		if c.IntTol > 0 {
			s.IntTol = c.IntTol
		}
		return s, nil
	})
	_ = RegisterSolver("backtrack", func(conf map[string]any) (solver.Solver, error) {
		s := backtrack.New()
		var c backtrackConf
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.CheckEvery > 0 {
			s.CheckEvery = c.CheckEvery
		}
		return s, nil
	})
}
