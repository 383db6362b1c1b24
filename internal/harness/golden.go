package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/logrename/internal/engine"
)

// RenderTrace renders a result as the line-oriented text stored in
// golden files:
//
//	scenario: factory_in_static_init
//	session: test-session
//	factory: com/google/...->c(Ljava/lang/String;)L...; (discovered)
//	location: inert (DISCOVERY_CLASS_ABSENT)
//	renames:
//	  1 class o.a -> com.foo.Bar [factory @ <clinit>]
//	failures: none
//	changed: 1
func RenderTrace(name string, result *Result) []byte {
	var buf strings.Builder

	fmt.Fprintf(&buf, "scenario: %s\n", name)
	fmt.Fprintf(&buf, "session: %s\n", result.Session.ID)
	fmt.Fprintf(&buf, "factory: %s\n", formatRef(result.Session.FactoryRef, result.Session.FactorySource, result.Session.FactoryError))
	fmt.Fprintf(&buf, "location: %s\n", formatRef(result.Session.LocationRef, result.Session.LocationSource, result.Session.LocationError))

	if len(result.Trace) == 0 {
		buf.WriteString("renames: none\n")
	} else {
		buf.WriteString("renames:\n")
		for _, ev := range result.Trace {
			fmt.Fprintf(&buf, "  %d %s\n", ev.Seq, formatEvent(ev))
		}
	}

	if len(result.Failures) == 0 {
		buf.WriteString("failures: none\n")
	} else {
		buf.WriteString("failures:\n")
		for _, f := range result.Failures {
			fmt.Fprintf(&buf, "  %s\n", formatFailure(f))
		}
	}

	fmt.Fprintf(&buf, "changed: %d\n", result.Changed)
	return []byte(buf.String())
}

// RunWithGolden executes a scenario and compares the rendered trace
// against testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails. Test failure (via goldie)
// occurs if the trace doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares an existing result against a golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, RenderTrace(name, result))
}

func formatEvent(ev engine.RenameEvent) string {
	if ev.Kind == engine.KindClass {
		return fmt.Sprintf("class %s -> %s [%s @ %s]", ev.From, ev.To, ev.Category, ev.Site)
	}
	return fmt.Sprintf("method %s#%s -> %s [%s @ %s]", ev.Class, ev.From, ev.To, ev.Category, ev.Site)
}

func formatFailure(f Failure) string {
	if f.Method != "" {
		return fmt.Sprintf("%s %s#%s", f.Code, f.Class, f.Method)
	}
	return fmt.Sprintf("%s %s", f.Code, f.Class)
}

// formatRef shows a resolved ref with its source, or the error code
// that left the category inert.
func formatRef(ref, source, errText string) string {
	if errText != "" {
		code, _, _ := strings.Cut(errText, ":")
		return fmt.Sprintf("inert (%s)", code)
	}
	return fmt.Sprintf("%s (%s)", ref, source)
}
