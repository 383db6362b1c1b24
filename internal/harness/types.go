package harness

import (
	"errors"

	"github.com/roach88/logrename/internal/engine"
	"github.com/roach88/logrename/internal/program"
)

// Failure is one non-fatal error met while processing a class.
type Failure struct {
	Class  string           `json:"class"`
	Method string           `json:"method,omitempty"`
	Code   engine.ErrorCode `json:"code"`
	Error  string           `json:"error"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true if the expect clause and every assertion hold.
	Pass bool `json:"pass"`

	// Session is the journaled session: resolved refs or the errors
	// that left a category inert.
	Session engine.SessionInfo `json:"session"`

	// Trace holds the applied renames in seq order, as journaled.
	Trace []engine.RenameEvent `json:"trace"`

	// Changed counts classes with at least one applied rename.
	Changed int `json:"changed"`

	Failures []Failure `json:"failures,omitempty"`

	// Errors holds expectation and assertion failures.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Program is the renamed program, for final-name checks.
	Program *program.Program `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:     true,
		Trace:    []engine.RenameEvent{},
		Failures: []Failure{},
		Errors:   []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddFailure records a non-fatal class error.
func (r *Result) AddFailure(class string, err error) {
	f := Failure{Class: class, Error: err.Error()}
	var ee *engine.Error
	if errors.As(err, &ee) {
		f.Code = ee.Code
		f.Method = ee.Method
	}
	r.Failures = append(r.Failures, f)
}
