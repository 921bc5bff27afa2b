package scenario

import (
	"encoding/json"
	"errors"
	"slices"

	"github.com/rotisserie/eris"

	"github.com/sells-group/credit-stress/internal/model"
)

// Scenario is a named impact table.
type Scenario struct {
	Name string      `json:"name"`
	Map  ScenarioMap `json:"points"`
}

// Set is an ordered collection of uniquely named scenarios. Iteration order
// is the order the scenarios were configured in.
type Set struct {
	scenarios []Scenario
}

// NewSet validates scenario names and tables and keeps their order.
func NewSet(scenarios ...Scenario) (Set, error) {
	if len(scenarios) == 0 {
		return Set{}, eris.Wrap(model.ErrConfiguration, "scenario: at least one scenario is required")
	}

	seen := make(map[string]bool, len(scenarios))
	for _, s := range scenarios {
		if s.Name == "" {
			return Set{}, eris.Wrap(model.ErrConfiguration, "scenario: name is required")
		}
		if s.Name == model.ScenarioBaseline {
			return Set{}, eris.Wrapf(model.ErrConfiguration, "scenario: name %q is reserved", s.Name)
		}
		if seen[s.Name] {
			return Set{}, eris.Wrapf(model.ErrConfiguration, "scenario: duplicate name %q", s.Name)
		}
		if s.Map.Len() < 2 {
			return Set{}, eris.Wrapf(model.ErrConfiguration, "scenario: %q table needs at least 2 thresholds", s.Name)
		}
		seen[s.Name] = true
	}

	return Set{scenarios: slices.Clone(scenarios)}, nil
}

// Scenarios returns the scenarios in configuration order.
func (s Set) Scenarios() []Scenario {
	return slices.Clone(s.scenarios)
}

// Names returns the scenario names in configuration order.
func (s Set) Names() []string {
	names := make([]string, len(s.scenarios))
	for i, sc := range s.scenarios {
		names[i] = sc.Name
	}
	return names
}

// Get returns the table for a scenario name.
func (s Set) Get(name string) (ScenarioMap, bool) {
	for _, sc := range s.scenarios {
		if sc.Name == name {
			return sc.Map, true
		}
	}
	return ScenarioMap{}, false
}

// Len returns the number of scenarios.
func (s Set) Len() int {
	return len(s.scenarios)
}

// MarshalJSON encodes the set as an ordered list of scenarios.
func (s Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.scenarios)
}

// UnmarshalJSON decodes and validates an ordered list of scenarios.
func (s *Set) UnmarshalJSON(data []byte) error {
	var scenarios []Scenario
	if err := decodeStrict(data, &scenarios); err != nil {
		if errors.Is(err, model.ErrConfiguration) {
			return err
		}
		return eris.Wrapf(model.ErrConfiguration, "scenario: decode set: %v", err)
	}
	built, err := NewSet(scenarios...)
	if err != nil {
		return err
	}
	*s = built
	return nil
}

func impact(profit, mcap float64) model.Impact {
	return model.Impact{ProfitDeclinePct: profit, MCapDeclinePct: mcap}
}

// Default returns the reference Base, Light and Severe scenarios.
func Default() Set {
	set, err := NewSet(
		Scenario{Name: "Base", Map: MustScenarioMap([]Point{
			{Threshold: 10, Impact: impact(20, 15)},
			{Threshold: 20, Impact: impact(40, 30)},
			{Threshold: 30, Impact: impact(60, 45)},
		})},
		Scenario{Name: "Light", Map: MustScenarioMap([]Point{
			{Threshold: 10, Impact: impact(15, 12)},
			{Threshold: 20, Impact: impact(30, 24)},
			{Threshold: 30, Impact: impact(45, 36)},
		})},
		Scenario{Name: "Severe", Map: MustScenarioMap([]Point{
			{Threshold: 10, Impact: impact(25, 18)},
			{Threshold: 20, Impact: impact(50, 35)},
			{Threshold: 30, Impact: impact(75, 55)},
		})},
	)
	if err != nil {
		panic(err)
	}
	return set
}

// DefaultSeverities returns the reference severity grid 0, 10, 20, 30.
func DefaultSeverities() []int {
	return []int{0, 10, 20, 30}
}
