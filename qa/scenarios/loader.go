// Package scenarios replays scheduling requests described in YAML files
// through the full scheduler and checks the reported outcome.
package scenarios

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/macmarek/scheduling-assistant/core/model"
	"github.com/macmarek/scheduling-assistant/core/scheduler"
)

// Expected describes what a scenario run must produce.
type Expected struct {
	Outcome              model.Outcome `yaml:"outcome"`
	Objective            *int          `yaml:"objective,omitempty"`
	UnsatisfiableMeeting string        `yaml:"unsatisfiable_meeting,omitempty"`
	// Starts maps meeting IDs to their UTC start as HH:MM.
	Starts map[string]string `yaml:"starts,omitempty"`
}

// Scenario is one scheduling request and its expected result.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	// Solvers lists the engines to replay with; empty means every
	// registered engine.
	Solvers     []string        `yaml:"solvers,omitempty"`
	SlotMinutes int             `yaml:"slot_minutes,omitempty"`
	Input       scheduler.Input `yaml:"input"`
	Expected    Expected        `yaml:"expected"`
}

// Load reads a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if sc.Name == "" {
		return nil, fmt.Errorf("%s: scenario has no name", path)
	}
	if sc.Expected.Outcome == "" {
		sc.Expected.Outcome = model.OutcomeScheduled
	}
	return &sc, nil
}

func (sc *Scenario) solvers() []string {
	if len(sc.Solvers) > 0 {
		return sc.Solvers
	}
	return scheduler.Solvers()
}
