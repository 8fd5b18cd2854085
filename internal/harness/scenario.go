package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/progression/internal/model"
)

// Scenario defines an end-to-end engine scenario.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// User is the user id every step acts for.
	User string `yaml:"user"`

	// Now is the starting wall time (RFC 3339). Steps can advance it.
	Now string `yaml:"now"`

	// Catalog is a catalog file path. Relative paths are resolved against
	// the scenario file's directory by LoadScenario. Empty uses the default
	// catalog.
	Catalog string `yaml:"catalog,omitempty"`

	// Rules overrides quest rules per quest type.
	Rules map[model.PeriodType]RulesSpec `yaml:"rules,omitempty"`

	// Setup contains steps run before the flow. Setup steps must succeed.
	Setup []Step `yaml:"setup,omitempty"`

	// Flow contains the main test steps with optional expectations.
	Flow []Step `yaml:"flow"`

	// Assertions validate the final trace and state.
	Assertions []Assertion `yaml:"assertions"`
}

// RulesSpec overrides engine.QuestRules for one quest type.
type RulesSpec struct {
	Slots      int          `yaml:"slots"`
	MaxRerolls int          `yaml:"max_rerolls"`
	RerollCost model.Reward `yaml:"reroll_cost"`
}

// Step is one engine call.
type Step struct {
	// Action is one of the actions listed in the package documentation.
	Action string `yaml:"action"`

	// Args contains the action arguments.
	Args map[string]any `yaml:"args"`

	// Expect specifies the expected outcome. If nil, any outcome passes.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies expected step behavior.
type ExpectClause struct {
	// Code is "OK" or an engine error code such as "LIMIT_REACHED".
	Code string `yaml:"code"`

	// Result contains expected result field values.
	// This is a subset match: only specified fields are validated.
	Result map[string]any `yaml:"result,omitempty"`
}

// Assertion validates trace or final state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Action is the action name (trace_contains, trace_count).
	Action string `yaml:"action,omitempty"`

	// Code narrows trace matches to one result code (trace_contains, trace_count).
	Code string `yaml:"code,omitempty"`

	// Result is a result subset (trace_contains).
	Result map[string]any `yaml:"result,omitempty"`

	// Actions is the expected action order (trace_order).
	Actions []string `yaml:"actions,omitempty"`

	// Table is the store table (final_state, row_count).
	Table string `yaml:"table,omitempty"`

	// Where specifies query filters (final_state, row_count).
	// All fields must match exactly.
	Where map[string]any `yaml:"where,omitempty"`

	// Expect contains expected column values (final_state).
	Expect map[string]any `yaml:"expect,omitempty"`

	// Count is the expected number of matches (trace_count, row_count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
	AssertRowCount      = "row_count"
)

// Step action constants.
const (
	ActionQuests               = "quests"
	ActionTrack                = "track"
	ActionIncrementQuest       = "increment_quest"
	ActionIncrementAchievement = "increment_achievement"
	ActionReroll               = "reroll"
	ActionRerollStatus         = "reroll_status"
	ActionClaim                = "claim"
	ActionClaimQuest           = "claim_quest"
	ActionAchievements         = "achievements"
	ActionAdvance              = "advance"
	ActionSweep                = "sweep"
)

var knownActions = map[string]bool{
	ActionQuests:               true,
	ActionTrack:                true,
	ActionIncrementQuest:       true,
	ActionIncrementAchievement: true,
	ActionReroll:               true,
	ActionRerollStatus:         true,
	ActionClaim:                true,
	ActionClaimQuest:           true,
	ActionAchievements:         true,
	ActionAdvance:              true,
	ActionSweep:                true,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// A relative catalog path is resolved against the file's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.Catalog != "" && !filepath.IsAbs(scenario.Catalog) {
		scenario.Catalog = filepath.Join(filepath.Dir(path), scenario.Catalog)
	}
	if scenario.Catalog != "" {
		if _, err := os.Stat(scenario.Catalog); os.IsNotExist(err) {
			return nil, fmt.Errorf("invalid scenario: catalog file not found: %s", scenario.Catalog)
		}
	}
	return scenario, nil
}

// ParseScenario decodes and validates a scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict decoding catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadDir loads every *.yaml scenario directly inside dir, sorted by file
// name.
func LoadDir(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("list scenarios: %w", err)
	}
	sort.Strings(paths)

	out := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		out = append(out, s)
	}
	return out, nil
}

// StartTime parses Now.
func (s *Scenario) StartTime() (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s.Now)
	if err != nil {
		return time.Time{}, fmt.Errorf("now: %w", err)
	}
	return t.UTC(), nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.User == "" {
		return fmt.Errorf("user is required")
	}

	if _, err := s.StartTime(); err != nil {
		return err
	}

	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for pt, r := range s.Rules {
		if !pt.IsValid() {
			return fmt.Errorf("rules: unknown quest type %q", pt)
		}
		if r.Slots < 1 {
			return fmt.Errorf("rules.%s: slots must be positive", pt)
		}
		if r.MaxRerolls < 0 {
			return fmt.Errorf("rules.%s: max_rerolls must not be negative", pt)
		}
	}

	for i, step := range s.Setup {
		if err := validateStep(fmt.Sprintf("setup[%d]", i), step); err != nil {
			return err
		}
	}

	for i, step := range s.Flow {
		if err := validateStep(fmt.Sprintf("flow[%d]", i), step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(where string, step Step) error {
	if step.Action == "" {
		return fmt.Errorf("%s: action is required", where)
	}
	if !knownActions[step.Action] {
		return fmt.Errorf("%s: unknown action %q", where, step.Action)
	}
	if step.Args == nil {
		return fmt.Errorf("%s: args is required (use empty map if no args)", where)
	}
	if step.Expect != nil && step.Expect.Code == "" {
		return fmt.Errorf("%s.expect: code is required", where)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Actions) == 0 {
			return fmt.Errorf("assertions[%d]: actions list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	case AssertRowCount:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for row_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for row_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
