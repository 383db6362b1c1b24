package harness

import (
	"context"
	"fmt"
	"os"

	"github.com/roach88/logrename/internal/engine"
	"github.com/roach88/logrename/internal/ir"
	"github.com/roach88/logrename/internal/program"
	"github.com/roach88/logrename/internal/store"
	"github.com/roach88/logrename/internal/testutil"
)

// Run executes a scenario and returns the result.
//
// Each run builds a fresh program and journals into a fresh in-memory
// database. Execution flow:
//  1. Build the program from the dump, inline classes and library
//  2. Start the engine session, resolving both refs
//  3. Process (or visit) every class in load order
//  4. Read the trace back from the journal
//  5. Check the expect clause and assertions
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	prog, err := buildProgram(scenario)
	if err != nil {
		return nil, fmt.Errorf("failed to build program: %w", err)
	}

	eng := engine.New(prog, scenario.Options,
		engine.WithJournal(st),
		engine.WithSessionIDs(testutil.NewFixedSessionID(scenario.Session)),
	)

	ctx := context.Background()
	if err := eng.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}

	result := NewResult()
	result.Program = prog

	for _, cls := range prog.Classes() {
		var (
			res     engine.ClassResult
			visited = true
		)
		if scenario.Mode == ModeVisit {
			res, visited, err = eng.VisitClass(ctx, cls)
		} else {
			res, err = eng.ProcessClass(ctx, cls)
		}
		if err != nil {
			return nil, fmt.Errorf("class %s: %w", cls.RawName(), err)
		}
		if !visited {
			continue
		}
		if res.Changed {
			result.Changed++
		}
		for _, e := range res.Errors {
			result.AddFailure(cls.RawName(), e)
		}
	}
	if result.Changed > 0 {
		prog.RegroupPackages()
	}

	id := eng.Session().ID
	if result.Session, err = st.GetSession(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	if result.Trace, err = st.ListRenames(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to read trace: %w", err)
	}

	for _, msg := range checkExpectation(result, scenario.Expect) {
		result.AddError(msg)
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

// buildProgram assembles the scenario's program: the dump file, then
// inline classes, then the fabricated library.
func buildProgram(s *Scenario) (*program.Program, error) {
	var dump program.Dump
	if s.Program != "" {
		format, err := program.FormatFromPath(s.Program)
		if err != nil {
			return nil, err
		}
		d, err := readDumpFile(s.Program, format)
		if err != nil {
			return nil, err
		}
		dump = d
	}
	dump.Classes = append(dump.Classes, s.Classes...)

	prog, err := program.FromDump(dump)
	if err != nil {
		return nil, err
	}
	if s.Flogger {
		testutil.AddFlogger(prog)
	}
	return prog, nil
}

// findClass resolves a raw or current class name in the renamed program.
func findClass(prog *program.Program, name string) *program.Class {
	if prog == nil {
		return nil
	}
	return prog.Class(ir.NormalizeName(name))
}

func readDumpFile(path string, format program.Format) (program.Dump, error) {
	f, err := os.Open(path)
	if err != nil {
		return program.Dump{}, fmt.Errorf("open dump: %w", err)
	}
	defer f.Close()
	return program.ReadDump(f, format)
}
