package scenario

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/credit-stress/internal/model"
)

// fileScenario is the YAML shape of one scenario.
type fileScenario struct {
	Name   string  `yaml:"name"`
	Points []Point `yaml:"points"`
}

// fileConfig is the YAML shape of a scenario file. Scenario order in the
// file is the scenario order of the resulting Set.
type fileConfig struct {
	Scenarios []fileScenario `yaml:"scenarios"`
}

// Load returns the scenarios in path, or Default when path is empty.
func Load(path string) (Set, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile reads a YAML scenario file.
func LoadFile(path string) (Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Set{}, eris.Wrapf(err, "scenario: read file %s", path)
	}
	set, err := Parse(data)
	if err != nil {
		return Set{}, eris.Wrapf(err, "scenario: load %s", path)
	}
	return set, nil
}

// Parse decodes a YAML scenario document.
func Parse(data []byte) (Set, error) {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return Set{}, eris.Wrapf(model.ErrConfiguration, "scenario: parse yaml: %v", err)
	}

	scenarios := make([]Scenario, 0, len(fc.Scenarios))
	for _, fs := range fc.Scenarios {
		m, err := NewScenarioMap(fs.Points)
		if err != nil {
			return Set{}, eris.Wrapf(err, "scenario %q", fs.Name)
		}
		scenarios = append(scenarios, Scenario{Name: fs.Name, Map: m})
	}

	return NewSet(scenarios...)
}

// Marshal encodes a Set in the scenario file format.
func Marshal(set Set) ([]byte, error) {
	fc := fileConfig{Scenarios: make([]fileScenario, 0, set.Len())}
	for _, sc := range set.Scenarios() {
		fc.Scenarios = append(fc.Scenarios, fileScenario{Name: sc.Name, Points: sc.Map.Points()})
	}
	data, err := yaml.Marshal(fc)
	if err != nil {
		return nil, eris.Wrap(err, "scenario: marshal yaml")
	}
	return data, nil
}
