// Package harness runs rename scenarios end to end and compares their
// rename traces against golden files.
//
// # Scenario Format
//
// Scenarios are YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	flogger: true              # add the fabricated Flogger library classes
//	program: app.yaml          # program dump, relative to the scenario file
//	classes:                   # or inline classes, in dump form
//	  - name: o.a
//	    methods:
//	      - name: <clinit>
//	        code:
//	          - {op: const-string, dest: 0, value: com/foo/Bar}
//	          - {op: invoke, call: "...", args: [{reg: 0}]}
//	options:
//	  targetClass: Bar
//	  factoryMethodRef: "a/B->c(Ljava/lang/String;)La/B;"
//	mode: visit                # "all" (default) or "visit"
//	expect:
//	  changed: 1
//	  renames:
//	    - {kind: class, to: com.foo.Bar}
//	assertions:
//	  - {type: rename_present, kind: method, class: o.a, to: handle}
//	  - {type: rename_order, names: [com.foo.Bar, handle]}
//	  - {type: rename_count, kind: class, count: 1}
//	  - {type: final_name, class: o.a, method: b, name: handle}
//	  - {type: failure, code: NAME_REJECTED, class: o.b}
//
// # Deterministic Runs
//
// Every run uses a fresh program, a fixed session ID
// (testutil.FixedSessionID), the engine's logical clock starting at zero,
// and an in-memory SQLite journal. The trace is read back from the
// journal, so identical scenarios produce byte-identical golden files.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/factory.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
