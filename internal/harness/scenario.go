package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/hatgram/internal/compiler"
)

// Scenario defines a phrase resolution scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// FullLineNumbers enables the "row N past M" line grammar.
	FullLineNumbers bool `yaml:"full_line_numbers,omitempty"`

	// Overrides are the initial override rows per domain, as
	// [spoken form, identifier] pairs.
	Overrides map[string][][]string `yaml:"overrides,omitempty"`

	// RawOverrides are written verbatim as the domain's CSV, for
	// scenarios exercising malformed files.
	RawOverrides map[string]string `yaml:"raw_overrides,omitempty"`

	// Settings is the initial settings document.
	Settings map[string]any `yaml:"settings,omitempty"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the whole run.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one scenario step. Exactly one of Say, Settings and Override is set.
type Step struct {
	Say      string         `yaml:"say,omitempty"`
	Expect   *ExpectClause  `yaml:"expect,omitempty"`
	Settings map[string]any `yaml:"settings,omitempty"`
	Override *OverrideStep  `yaml:"override,omitempty"`
}

// ExpectClause specifies the expected outcome of a say step.
type ExpectClause struct {
	// Output is the exact expected wire tree.
	Output map[string]any `yaml:"output,omitempty"`

	// Action is the expected action identifier.
	Action string `yaml:"action,omitempty"`

	// Error is the expected error code; the step must fail.
	Error string `yaml:"error,omitempty"`
}

// OverrideStep rewrites one domain's override file.
type OverrideStep struct {
	Domain string     `yaml:"domain"`
	Rows   [][]string `yaml:"rows"`
}

// Assertion validates the finished run.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Identifier is the rejected identifier (rejected).
	Identifier string `yaml:"identifier,omitempty"`

	// Suggestion is the expected suggestion (rejected).
	Suggestion string `yaml:"suggestion,omitempty"`

	// Phrase is the logged phrase (history_contains).
	Phrase string `yaml:"phrase,omitempty"`

	// Count is the expected count (rejected_count, history_count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertRejected        = "rejected"
	AssertRejectedCount   = "rejected_count"
	AssertHistoryCount    = "history_count"
	AssertHistoryContains = "history_contains"
)

var knownDomains = map[string]bool{
	compiler.DomainActions:         true,
	compiler.DomainCompoundTargets: true,
	compiler.DomainSpecialMarks:    true,
	compiler.DomainHatStyles:       true,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for domain, rows := range s.Overrides {
		if !knownDomains[domain] {
			return fmt.Errorf("overrides: unknown domain %q", domain)
		}
		if err := validateRows(rows); err != nil {
			return fmt.Errorf("overrides.%s: %w", domain, err)
		}
	}
	for domain := range s.RawOverrides {
		if !knownDomains[domain] {
			return fmt.Errorf("raw_overrides: unknown domain %q", domain)
		}
		if _, dup := s.Overrides[domain]; dup {
			return fmt.Errorf("raw_overrides.%s: domain also listed in overrides", domain)
		}
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}

	return nil
}

func validateRows(rows [][]string) error {
	for i, row := range rows {
		if len(row) != 2 {
			return fmt.Errorf("row %d: expected [spoken form, identifier], got %d fields", i, len(row))
		}
	}
	return nil
}

func validateStep(i int, step *Step) error {
	kinds := 0
	if step.Say != "" {
		kinds++
	}
	if step.Settings != nil {
		kinds++
	}
	if step.Override != nil {
		kinds++
	}
	if kinds != 1 {
		return fmt.Errorf("steps[%d]: exactly one of say, settings, override is required", i)
	}

	if step.Expect != nil {
		if step.Say == "" {
			return fmt.Errorf("steps[%d]: expect is only valid on say steps", i)
		}
		if step.Expect.Error != "" && (step.Expect.Output != nil || step.Expect.Action != "") {
			return fmt.Errorf("steps[%d].expect: error excludes output and action", i)
		}
	}

	if step.Override != nil {
		if !knownDomains[step.Override.Domain] {
			return fmt.Errorf("steps[%d].override: unknown domain %q", i, step.Override.Domain)
		}
		if err := validateRows(step.Override.Rows); err != nil {
			return fmt.Errorf("steps[%d].override: %w", i, err)
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertRejected:
		if a.Identifier == "" {
			return fmt.Errorf("assertions[%d]: identifier is required for rejected", index)
		}
	case AssertRejectedCount, AssertHistoryCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertHistoryContains:
		if a.Phrase == "" {
			return fmt.Errorf("assertions[%d]: phrase is required for history_contains", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
