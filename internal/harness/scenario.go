package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/prices/internal/entity"
	"github.com/roach88/prices/internal/result"
)

// Scenario is a sequence of dataset operations with expected outcomes.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Session is the dataset session id. If empty, defaults to
	// "test-session-default".
	Session string `yaml:"session,omitempty"`

	Steps []Step `yaml:"steps"`

	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one operation of a scenario.
type Step struct {
	Op string `yaml:"op"`

	// Kind is the entity kind created by add. An add without kind
	// re-adds the record already bound to Ref.
	Kind string `yaml:"kind,omitempty"`

	// Ref names the record the step acts on.
	Ref string `yaml:"ref,omitempty"`

	// Refs lists the records of a remove_range step.
	Refs []string `yaml:"refs,omitempty"`

	// As names the copy made by a copy step.
	As string `yaml:"as,omitempty"`

	// Fields are overlaid onto the record by add and update, keyed by
	// JSON field name.
	Fields map[string]any `yaml:"fields,omitempty"`

	// Expect is the status the step must return. Defaults to Success.
	Expect string `yaml:"expect,omitempty"`

	// Count is the expected removed count of remove_range or dropped count
	// of prune. Unchecked when nil.
	Count *int `yaml:"count,omitempty"`
}

// Assertion checks the final cache or storage state.
type Assertion struct {
	Type string `yaml:"type"`

	// Kind is the entity kind (cache_count, stored_count, next_id).
	Kind string `yaml:"kind,omitempty"`

	// Ref is the record checked by a record assertion.
	Ref string `yaml:"ref,omitempty"`

	// Count is the expected count (cache_count, stored_count).
	Count int `yaml:"count,omitempty"`

	// ID is the expected next identity (next_id).
	ID int64 `yaml:"id,omitempty"`

	// Expect contains expected field values (record).
	// Subset match - only specified fields are validated.
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Step operations.
const (
	OpAdd         = "add"
	OpUpdate      = "update"
	OpRemove      = "remove"
	OpRemoveRange = "remove_range"
	OpCopy        = "copy"
	OpLoad        = "load"
	OpPrune       = "prune"
)

// Assertion type constants.
const (
	AssertCacheCount  = "cache_count"
	AssertStoredCount = "stored_count"
	AssertNextID      = "next_id"
	AssertRecord      = "record"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or fails validation.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Parse YAML with strict field validation (catches typos like "step:" vs "steps:")
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

// validateScenario checks required fields and that every ref is bound by
// an earlier add or copy step.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps must not be empty")
	}

	bound := make(map[string]bool)
	need := func(i int, ref string) error {
		if ref == "" {
			return fmt.Errorf("steps[%d]: ref is required for %s", i, s.Steps[i].Op)
		}
		if !bound[ref] {
			return fmt.Errorf("steps[%d]: ref %q is not bound by an earlier add or copy", i, ref)
		}
		return nil
	}

	for i, step := range s.Steps {
		if step.Expect != "" {
			if _, err := result.ParseStatus(step.Expect); err != nil {
				return fmt.Errorf("steps[%d]: %w", i, err)
			}
		}
		switch step.Op {
		case OpAdd:
			if step.Kind == "" {
				// Re-adds a bound record, e.g. after a prune.
				if err := need(i, step.Ref); err != nil {
					return err
				}
				continue
			}
			if !entity.ValidKind(step.Kind) {
				return fmt.Errorf("steps[%d]: unknown kind %q", i, step.Kind)
			}
			if step.Ref == "" {
				return fmt.Errorf("steps[%d]: ref is required for add", i)
			}
			bound[step.Ref] = true
		case OpUpdate, OpRemove, OpPrune:
			if err := need(i, step.Ref); err != nil {
				return err
			}
		case OpCopy:
			if err := need(i, step.Ref); err != nil {
				return err
			}
			if step.As == "" {
				return fmt.Errorf("steps[%d]: as is required for copy", i)
			}
			bound[step.As] = true
		case OpRemoveRange:
			if len(step.Refs) == 0 {
				return fmt.Errorf("steps[%d]: refs is required for remove_range", i)
			}
			for _, ref := range step.Refs {
				if err := need(i, ref); err != nil {
					return err
				}
			}
		case OpLoad:
		default:
			return fmt.Errorf("steps[%d]: unknown op %q", i, step.Op)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a, i, bound); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(a Assertion, index int, bound map[string]bool) error {
	switch a.Type {
	case AssertCacheCount, AssertStoredCount, AssertNextID:
		if !entity.ValidKind(a.Kind) {
			return fmt.Errorf("assertions[%d]: unknown kind %q for %s", index, a.Kind, a.Type)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertRecord:
		if !bound[a.Ref] {
			return fmt.Errorf("assertions[%d]: ref %q is not bound", index, a.Ref)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for record", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
