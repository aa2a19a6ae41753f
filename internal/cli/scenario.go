package cli

import (
	"bytes"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ScenarioFile is a single verification scenario on disk, an
// alternative to spelling everything out as verify flags.
type ScenarioFile struct {
	// Name labels reports and artifacts. Defaults to the deck pairing.
	Name string `yaml:"name"`

	// Deck1 and Deck2 are deck file paths. Deck2 defaults to Deck1
	// (mirror match).
	Deck1 string `yaml:"deck1"`
	Deck2 string `yaml:"deck2,omitempty"`

	// P1 and P2 are strategy selectors for the continuous run.
	P1 string `yaml:"p1"`
	P2 string `yaml:"p2"`

	// Seed drives the simulation RNG.
	Seed int64 `yaml:"seed"`

	// Replays is the number of randomized trials.
	Replays int `yaml:"replays,omitempty"`

	// Stops is the requested suspend count per trial.
	Stops int `yaml:"stops,omitempty"`
}

// validStrategies are the decision-making strategy selectors the
// simulator accepts.
var validStrategies = []string{"random", "heuristic", "zero", "replay"}

// LoadScenarioFile reads and validates a YAML scenario.
func LoadScenarioFile(path string) (*ScenarioFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var sc ScenarioFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}

	if err := sc.validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return &sc, nil
}

func (sc *ScenarioFile) validate() error {
	if sc.Deck1 == "" {
		return fmt.Errorf("deck1 is required")
	}
	if sc.Deck2 == "" {
		sc.Deck2 = sc.Deck1
	}
	if sc.P1 == "" || sc.P2 == "" {
		return fmt.Errorf("p1 and p2 strategies are required")
	}
	for _, s := range []string{sc.P1, sc.P2} {
		if !slices.Contains(validStrategies, s) {
			return fmt.Errorf("unknown strategy %q (valid: %v)", s, validStrategies)
		}
	}
	if sc.Replays < 0 || sc.Stops < 0 {
		return fmt.Errorf("replays and stops must be non-negative")
	}
	if sc.Name == "" {
		sc.Name = fmt.Sprintf("%s_%sv%s_seed%d", sc.Deck1, sc.P1, sc.P2, sc.Seed)
	}
	return nil
}
