package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/logrename/internal/config"
	"github.com/roach88/logrename/internal/engine"
	"github.com/roach88/logrename/internal/program"
)

// Scenario defines one rename scenario: a program, the options to run
// it with, and what the run must produce.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Flogger adds the fabricated Flogger library (testutil.AddFlogger)
	// so discovery has something to find.
	Flogger bool `yaml:"flogger,omitempty"`

	// Program is a dump file. Relative paths resolve against the
	// scenario file's directory.
	Program string `yaml:"program,omitempty"`

	// Classes are inline classes in dump form, added after Program.
	Classes []program.ClassDump `yaml:"classes,omitempty"`

	// Options configures the engine. Empty refs are discovered.
	Options config.Options `yaml:"options,omitempty"`

	// Mode is ModeAll (default) to process every class now, or
	// ModeVisit to run the gated per-class pass.
	Mode string `yaml:"mode,omitempty"`

	// Session is the fixed session ID; defaults to "test-session".
	Session string `yaml:"session,omitempty"`

	// Expect is checked exactly against the run.
	Expect *Expectation `yaml:"expect,omitempty"`

	// Assertions are checked after Expect.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Run modes.
const (
	ModeAll   = "all"
	ModeVisit = "visit"
)

// Expectation is an exact match on the run's outcome.
type Expectation struct {
	// Changed is the number of classes with at least one rename.
	Changed *int `yaml:"changed,omitempty"`

	// Renames is the full trace, in order. Class is optional per entry.
	Renames []ExpectedRename `yaml:"renames,omitempty"`
}

// ExpectedRename is one trace entry.
type ExpectedRename struct {
	Kind  engine.RenameKind `yaml:"kind"`
	Class string            `yaml:"class,omitempty"`
	To    string            `yaml:"to"`
}

// Assertion validates the trace, the failures, or the renamed program.
type Assertion struct {
	// Type specifies the assertion type:
	// - "rename_present": a rename of Kind (and Class, if set) to To exists
	// - "rename_order": renames to Names appear in that order
	// - "rename_count": exactly Count renames of Kind and Category (each optional)
	// - "final_name": class (and Method, if set) ends up named Name
	// - "failure": a non-fatal failure with Code (and Class, if set) occurred
	Type string `yaml:"type"`

	Kind     engine.RenameKind `yaml:"kind,omitempty"`
	Category engine.Category   `yaml:"category,omitempty"`

	// Class is a raw (load-time) class name.
	Class string `yaml:"class,omitempty"`

	// Method is a raw method name (used by final_name).
	Method string `yaml:"method,omitempty"`

	To    string   `yaml:"to,omitempty"`
	Name  string   `yaml:"name,omitempty"`
	Names []string `yaml:"names,omitempty"`
	Count int      `yaml:"count,omitempty"`
	Code  string   `yaml:"code,omitempty"`
}

// Assertion type constants.
const (
	AssertRenamePresent = "rename_present"
	AssertRenameOrder   = "rename_order"
	AssertRenameCount   = "rename_count"
	AssertFinalName     = "final_name"
	AssertFailure       = "failure"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Program != "" && !filepath.IsAbs(scenario.Program) {
		scenario.Program = filepath.Join(filepath.Dir(path), scenario.Program)
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

	if s.Program == "" && len(s.Classes) == 0 && !s.Flogger {
		return fmt.Errorf("one of program, classes or flogger is required")
	}

	switch s.Mode {
	case "", ModeAll, ModeVisit:
	default:
		return fmt.Errorf("mode %q: must be %q or %q", s.Mode, ModeAll, ModeVisit)
	}

	if s.Mode == ModeVisit && s.Options.TargetClass == "" {
		return fmt.Errorf("mode %q requires options.targetClass", ModeVisit)
	}

	if s.Expect != nil {
		for i, r := range s.Expect.Renames {
			if err := validateKind(r.Kind); err != nil {
				return fmt.Errorf("expect.renames[%d]: %w", i, err)
			}
			if r.To == "" {
				return fmt.Errorf("expect.renames[%d]: to is required", i)
			}
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}

	return nil
}

func validateKind(kind engine.RenameKind) error {
	switch kind {
	case engine.KindClass, engine.KindMethod:
		return nil
	default:
		return fmt.Errorf("kind %q: must be %q or %q", kind, engine.KindClass, engine.KindMethod)
	}
}

// validateAssertion checks assertion-specific required fields.
func validateAssertion(a Assertion) error {
	switch a.Type {
	case AssertRenamePresent:
		if err := validateKind(a.Kind); err != nil {
			return err
		}
		if a.To == "" {
			return fmt.Errorf("%s requires 'to'", a.Type)
		}
	case AssertRenameOrder:
		if len(a.Names) < 2 {
			return fmt.Errorf("%s requires at least 2 names", a.Type)
		}
	case AssertRenameCount:
		if a.Kind != "" {
			if err := validateKind(a.Kind); err != nil {
				return err
			}
		}
		if a.Count < 0 {
			return fmt.Errorf("%s count must be non-negative", a.Type)
		}
	case AssertFinalName:
		if a.Class == "" || a.Name == "" {
			return fmt.Errorf("%s requires 'class' and 'name'", a.Type)
		}
	case AssertFailure:
		if a.Code == "" {
			return fmt.Errorf("%s requires 'code'", a.Type)
		}
	case "":
		return fmt.Errorf("type is required")
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
