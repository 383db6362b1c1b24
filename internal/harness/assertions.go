package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/logrename/internal/engine"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string               // Assertion type for categorization
	Expected string               // Human-readable expected outcome
	Actual   string               // Human-readable actual outcome
	Trace    []engine.RenameEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, ev := range e.Trace {
		fmt.Fprintf(&buf, "  %s\n", formatEvent(ev))
	}

	return buf.String()
}

// checkExpectation compares the run against an exact expect clause.
func checkExpectation(result *Result, expect *Expectation) []string {
	if expect == nil {
		return nil
	}
	var errs []string

	if expect.Changed != nil && *expect.Changed != result.Changed {
		errs = append(errs, (&AssertionError{
			Type:     "expect.changed",
			Expected: fmt.Sprintf("%d classes changed", *expect.Changed),
			Actual:   fmt.Sprintf("%d classes changed", result.Changed),
			Trace:    result.Trace,
		}).Error())
	}

	if expect.Renames == nil {
		return errs
	}
	if len(expect.Renames) != len(result.Trace) {
		errs = append(errs, (&AssertionError{
			Type:     "expect.renames",
			Expected: fmt.Sprintf("%d renames", len(expect.Renames)),
			Actual:   fmt.Sprintf("%d renames", len(result.Trace)),
			Trace:    result.Trace,
		}).Error())
		return errs
	}
	for i, want := range expect.Renames {
		if !renameMatches(result.Trace[i], want.Kind, want.Class, want.To) {
			errs = append(errs, (&AssertionError{
				Type:     fmt.Sprintf("expect.renames[%d]", i),
				Expected: formatExpected(want.Kind, want.Class, want.To),
				Actual:   formatEvent(result.Trace[i]),
				Trace:    result.Trace,
			}).Error())
		}
	}
	return errs
}

// renameMatches compares kind and target, and the raw class when given.
func renameMatches(ev engine.RenameEvent, kind engine.RenameKind, class, to string) bool {
	if ev.Kind != kind || ev.To != to {
		return false
	}
	return class == "" || ev.Class == class
}

// assertRenamePresent checks that the trace holds a matching rename.
func assertRenamePresent(trace []engine.RenameEvent, a Assertion) error {
	for _, ev := range trace {
		if renameMatches(ev, a.Kind, a.Class, a.To) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertRenamePresent,
		Expected: formatExpected(a.Kind, a.Class, a.To),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertRenameOrder checks that renames to the given names appear in
// order. Other renames may come in between.
func assertRenameOrder(trace []engine.RenameEvent, a Assertion) error {
	positions := make(map[string]int)
	for i, ev := range trace {
		if _, seen := positions[ev.To]; !seen {
			positions[ev.To] = i + 1 // 1-indexed for readability
		}
	}

	for _, name := range a.Names {
		if positions[name] == 0 {
			return &AssertionError{
				Type:     AssertRenameOrder,
				Expected: fmt.Sprintf("all names present: %v", a.Names),
				Actual:   fmt.Sprintf("missing name: %s", name),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(a.Names); i++ {
		prev, curr := a.Names[i-1], a.Names[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertRenameOrder,
				Expected: fmt.Sprintf("names in order: %v", a.Names),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}

// assertRenameCount checks the number of renames of a kind and category.
func assertRenameCount(trace []engine.RenameEvent, a Assertion) error {
	count := 0
	for _, ev := range trace {
		if a.Kind != "" && ev.Kind != a.Kind {
			continue
		}
		if a.Category != "" && ev.Category != a.Category {
			continue
		}
		count++
	}
	if count == a.Count {
		return nil
	}

	filter := "renames"
	if a.Kind != "" {
		filter = string(a.Kind) + " " + filter
	}
	if a.Category != "" {
		filter += " from " + string(a.Category)
	}
	return &AssertionError{
		Type:     AssertRenameCount,
		Expected: fmt.Sprintf("%d %s", a.Count, filter),
		Actual:   fmt.Sprintf("%d %s", count, filter),
		Trace:    trace,
	}
}

// assertFinalName checks a class or method name in the renamed program.
func assertFinalName(result *Result, a Assertion) error {
	cls := findClass(result.Program, a.Class)
	if cls == nil {
		return &AssertionError{
			Type:     AssertFinalName,
			Expected: fmt.Sprintf("class %s named %s", a.Class, a.Name),
			Actual:   "class not found",
			Trace:    result.Trace,
		}
	}

	if a.Method == "" {
		if cls.FullName() != a.Name {
			return &AssertionError{
				Type:     AssertFinalName,
				Expected: fmt.Sprintf("class %s named %s", a.Class, a.Name),
				Actual:   fmt.Sprintf("named %s", cls.FullName()),
				Trace:    result.Trace,
			}
		}
		return nil
	}

	m := cls.Method(a.Method)
	switch {
	case m == nil:
		return &AssertionError{
			Type:     AssertFinalName,
			Expected: fmt.Sprintf("method %s#%s named %s", a.Class, a.Method, a.Name),
			Actual:   "method not found",
			Trace:    result.Trace,
		}
	case m.Name() != a.Name:
		return &AssertionError{
			Type:     AssertFinalName,
			Expected: fmt.Sprintf("method %s#%s named %s", a.Class, a.Method, a.Name),
			Actual:   fmt.Sprintf("named %s", m.Name()),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertFailure checks that a non-fatal failure with the code occurred.
func assertFailure(result *Result, a Assertion) error {
	for _, f := range result.Failures {
		if string(f.Code) == a.Code && (a.Class == "" || f.Class == a.Class) {
			return nil
		}
	}
	actual := make([]string, len(result.Failures))
	for i, f := range result.Failures {
		actual[i] = formatFailure(f)
	}
	return &AssertionError{
		Type:     AssertFailure,
		Expected: strings.TrimSpace(fmt.Sprintf("%s %s", a.Code, a.Class)),
		Actual:   fmt.Sprintf("failures %v", actual),
		Trace:    result.Trace,
	}
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a list of error messages for failed assertions.
// An empty list means all assertions passed.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string

	for i, a := range assertions {
		var err error

		switch a.Type {
		case AssertRenamePresent:
			err = assertRenamePresent(result.Trace, a)
		case AssertRenameOrder:
			err = assertRenameOrder(result.Trace, a)
		case AssertRenameCount:
			err = assertRenameCount(result.Trace, a)
		case AssertFinalName:
			err = assertFinalName(result, a)
		case AssertFailure:
			err = assertFailure(result, a)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}

		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	return errs
}

func formatExpected(kind engine.RenameKind, class, to string) string {
	if class == "" {
		return fmt.Sprintf("%s -> %s", kind, to)
	}
	return fmt.Sprintf("%s %s -> %s", kind, class, to)
}
