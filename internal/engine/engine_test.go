package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/logrename/internal/config"
	"github.com/roach88/logrename/internal/ir"
	"github.com/roach88/logrename/internal/program"
	"github.com/roach88/logrename/internal/testutil"
)

type memJournal struct {
	sessions []SessionInfo
	events   []RenameEvent
	failOn   int64
}

func (j *memJournal) BeginSession(_ context.Context, info SessionInfo) error {
	j.sessions = append(j.sessions, info)
	return nil
}

func (j *memJournal) Record(_ context.Context, sessionID string, ev RenameEvent) error {
	if j.failOn != 0 && ev.Seq == j.failOn {
		return errors.New("disk full")
	}
	j.events = append(j.events, ev)
	return nil
}

// fixture returns a program holding the Flogger library and an engine
// over it with a fixed session ID.
func fixture(t *testing.T, opts config.Options, options ...Option) (*program.Program, testutil.Flogger, func() *Engine) {
	t.Helper()
	p := program.New()
	lib := testutil.AddFlogger(p)
	newEngine := func() *Engine {
		all := append([]Option{WithSessionIDs(testutil.NewFixedSessionID("s-1"))}, options...)
		return New(p, opts, all...)
	}
	return p, lib, newEngine
}

// locationCall is a log-site setter call through the implementation class.
func locationCall(class, method string) ir.Invoke {
	return testutil.VirtualCall(testutil.ImplLocationRef,
		testutil.Reg(9),
		testutil.Lit(class),
		testutil.Lit(method),
		testutil.Text("42"),
		testutil.Lit("x"),
	)
}

func TestScenario_FactoryInStaticInit(t *testing.T) {
	p, _, newEngine := fixture(t, config.Default())
	cls := p.AddClass(program.ClassSpec{Name: "o.a"})
	cls.AddMethod(program.MethodSpec{Name: ir.ClassInitName, Body: []ir.Instruction{
		testutil.Const(0, "com/foo/Bar"),
		testutil.Call(testutil.FactoryRef, testutil.Reg(0)),
	}})

	res, err := newEngine().ProcessClass(context.Background(), cls)
	require.NoError(t, err)

	assert.True(t, res.Changed)
	assert.Equal(t, "com.foo.Bar", cls.FullName())
	require.Len(t, res.Events, 1)
	assert.Equal(t, RenameEvent{
		Seq:      1,
		Kind:     KindClass,
		Category: CategoryFactory,
		Class:    "o.a",
		From:     "o.a",
		To:       "com.foo.Bar",
		Site:     ir.ClassInitName,
	}, res.Events[0])
}

func TestScenario_LocationThroughSubtype(t *testing.T) {
	p, _, newEngine := fixture(t, config.Default())
	cls := p.AddClass(program.ClassSpec{Name: "o.b"})
	m := cls.AddMethod(program.MethodSpec{Name: "a", Body: []ir.Instruction{
		locationCall("a/b/C", "myMethod"),
	}})

	res, err := newEngine().ProcessClass(context.Background(), cls)
	require.NoError(t, err)

	assert.True(t, res.Changed)
	assert.Empty(t, res.Errors)
	assert.Equal(t, "a.b.C", cls.FullName())
	assert.Equal(t, "myMethod", m.Name())
	require.Len(t, res.Events, 2)
	assert.Equal(t, KindClass, res.Events[0].Kind)
	assert.Equal(t, CategoryLocation, res.Events[0].Category)
	assert.Equal(t, KindMethod, res.Events[1].Kind)
	assert.Equal(t, "a", res.Events[1].From)
	assert.Equal(t, "myMethod", res.Events[1].To)
}

// The class rename stands when the method name is rejected. Partial
// success from one call is intended.
func TestScenario_InvalidMethodNameKeepsClassRename(t *testing.T) {
	p, _, newEngine := fixture(t, config.Default())
	cls := p.AddClass(program.ClassSpec{Name: "o.c"})
	m := cls.AddMethod(program.MethodSpec{Name: "a", Body: []ir.Instruction{
		locationCall("a/b/C", "123bad"),
	}})

	res, err := newEngine().ProcessClass(context.Background(), cls)
	require.NoError(t, err)

	assert.True(t, res.Changed)
	assert.Equal(t, "a.b.C", cls.FullName())
	assert.Equal(t, "a", m.Name())
	require.Len(t, res.Errors, 1)
	assert.True(t, IsRejectedName(res.Errors[0]))
	require.Len(t, res.Events, 1)
	assert.Equal(t, KindClass, res.Events[0].Kind)
}

func TestLocationMatching_OwnerGate(t *testing.T) {
	tests := []struct {
		name    string
		ref     string
		matches bool
	}{
		{"interface itself", testutil.LocationRef, true},
		{"implementation", testutil.ImplLocationRef, true},
		{"intermediate base", "com/google/common/flogger/b->j(Ljava/lang/String;Ljava/lang/String;ILjava/lang/String;)Lcom/google/common/flogger/LoggingApi;", true},
		{"other return type", "com/google/common/flogger/c->j(Ljava/lang/String;Ljava/lang/String;ILjava/lang/String;)V", true},
		{"unrelated owner", "x/Unrelated->j(Ljava/lang/String;Ljava/lang/String;ILjava/lang/String;)Lcom/google/common/flogger/LoggingApi;", false},
		{"unknown owner", "x/Missing->j(Ljava/lang/String;Ljava/lang/String;ILjava/lang/String;)Lcom/google/common/flogger/LoggingApi;", false},
		{"other name", "com/google/common/flogger/c->k(Ljava/lang/String;Ljava/lang/String;ILjava/lang/String;)Lcom/google/common/flogger/LoggingApi;", false},
		{"other args", "com/google/common/flogger/c->j(Ljava/lang/String;Ljava/lang/String;JLjava/lang/String;)Lcom/google/common/flogger/LoggingApi;", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _, newEngine := fixture(t, config.Default())
			p.AddClass(program.ClassSpec{Name: "x.Unrelated", Supertypes: []string{"java.lang.Object"}})
			cls := p.AddClass(program.ClassSpec{Name: "o.d"})
			cls.AddMethod(program.MethodSpec{Name: "a", Body: []ir.Instruction{
				testutil.VirtualCall(tt.ref, testutil.Reg(9),
					testutil.Lit("p/Q"), testutil.Lit("run"), testutil.Text("7"), testutil.Lit("Q.java")),
			}})

			res, err := newEngine().ProcessClass(context.Background(), cls)
			require.NoError(t, err)
			assert.Equal(t, tt.matches, res.Changed)
			if tt.matches {
				assert.Equal(t, "p.Q", cls.FullName())
			} else {
				assert.Equal(t, "o.d", cls.FullName())
			}
		})
	}
}

func TestFactoryPass_ConstructorsAfterStaticInit(t *testing.T) {
	p, _, newEngine := fixture(t, config.Default())
	cls := p.AddClass(program.ClassSpec{Name: "o.e"})
	cls.AddMethod(program.MethodSpec{Name: ir.ConstructorName, Body: []ir.Instruction{
		testutil.Call(testutil.FactoryRef, testutil.Lit("from/Ctor")),
	}})
	cls.AddMethod(program.MethodSpec{Name: "m", Body: []ir.Instruction{
		testutil.Call(testutil.FactoryRef, testutil.Lit("from/Method")),
	}})
	cls.AddMethod(program.MethodSpec{Name: ir.ClassInitName, Body: []ir.Instruction{
		testutil.Op(0, "sget"),
		testutil.Call(testutil.FactoryRef, testutil.Reg(0)),
		testutil.Call(testutil.FactoryRef, testutil.Lit("from/Clinit")),
	}})

	res, err := newEngine().ProcessClass(context.Background(), cls)
	require.NoError(t, err)

	// The static initializer is scanned first even though it is declared
	// last; an unresolved call is passed over.
	assert.Equal(t, "from.Clinit", cls.FullName())
	require.Len(t, res.Events, 1)
}

func TestFactoryPass_FallsBackToConstructor(t *testing.T) {
	p, _, newEngine := fixture(t, config.Default())
	cls := p.AddClass(program.ClassSpec{Name: "o.f"})
	cls.AddMethod(program.MethodSpec{Name: "m", Body: []ir.Instruction{
		testutil.Call(testutil.FactoryRef, testutil.Lit("from/Method")),
	}})
	cls.AddMethod(program.MethodSpec{Name: ir.ConstructorName, Body: []ir.Instruction{
		testutil.Call(testutil.FactoryRef, testutil.Lit("from/Ctor")),
	}})

	_, err := newEngine().ProcessClass(context.Background(), cls)
	require.NoError(t, err)
	assert.Equal(t, "from.Ctor", cls.FullName())
}

func TestLocationPass_EachMethodNamesItself(t *testing.T) {
	p, _, newEngine := fixture(t, config.Default())
	cls := p.AddClass(program.ClassSpec{Name: "o.g"})
	first := cls.AddMethod(program.MethodSpec{Name: "a", Body: []ir.Instruction{
		locationCall("p/Svc", "start"),
		locationCall("p/Svc", "ignored"),
	}})
	second := cls.AddMethod(program.MethodSpec{Name: "b", Body: []ir.Instruction{
		testutil.Const(3, "stop"),
		testutil.Move(4, 3),
		testutil.VirtualCall(testutil.ImplLocationRef, testutil.Reg(9),
			testutil.Lit("p/Svc"), testutil.Reg(4), testutil.Text("1"), testutil.Lit("Svc.java")),
	}})

	res, err := newEngine().ProcessClass(context.Background(), cls)
	require.NoError(t, err)

	assert.Equal(t, "p.Svc", cls.FullName())
	assert.Equal(t, "start", first.Name())
	assert.Equal(t, "stop", second.Name())
	assert.Len(t, res.Events, 3, "one class rename, two method renames")
}

func TestLocationPass_StaticInitNeverRenamed(t *testing.T) {
	p, _, newEngine := fixture(t, config.Default())
	cls := p.AddClass(program.ClassSpec{Name: "o.h"})
	clinit := cls.AddMethod(program.MethodSpec{Name: ir.ClassInitName, Body: []ir.Instruction{
		locationCall("p/Init", "<clinit>"),
	}})

	res, err := newEngine().ProcessClass(context.Background(), cls)
	require.NoError(t, err)
	assert.Equal(t, "p.Init", cls.FullName())
	assert.Equal(t, ir.ClassInitName, clinit.Name())
	assert.Empty(t, res.Errors)
}

func TestBothPassesFire(t *testing.T) {
	p, _, newEngine := fixture(t, config.Default())
	cls := p.AddClass(program.ClassSpec{Name: "o.i"})
	cls.AddMethod(program.MethodSpec{Name: ir.ClassInitName, Body: []ir.Instruction{
		testutil.Call(testutil.FactoryRef, testutil.Lit("p/Both")),
	}})
	m := cls.AddMethod(program.MethodSpec{Name: "a", Body: []ir.Instruction{
		locationCall("p/Both", "work"),
	}})

	res, err := newEngine().ProcessClass(context.Background(), cls)
	require.NoError(t, err)

	assert.Equal(t, "p.Both", cls.FullName())
	assert.Equal(t, "work", m.Name())
	require.Len(t, res.Events, 2, "second class rename is a no-op")
	assert.Equal(t, CategoryFactory, res.Events[0].Category)
	assert.Equal(t, KindMethod, res.Events[1].Kind)
}

func TestDecodePolicy(t *testing.T) {
	p, _, newEngine := fixture(t, config.Default())
	cls := p.AddClass(program.ClassSpec{Name: "o.j"})

	broken := cls.AddMethod(program.MethodSpec{Name: "a", Decode: func() ([]ir.Instruction, error) {
		return nil, errors.New("truncated code")
	}})

	calls := 0
	lazy := cls.AddMethod(program.MethodSpec{Name: "b", Decode: func() ([]ir.Instruction, error) {
		calls++
		if calls == 1 {
			return nil, nil
		}
		return []ir.Instruction{locationCall("p/Lazy", "loaded")}, nil
	}})

	abstract := cls.AddMethod(program.MethodSpec{Name: "c", NoCode: true})

	res, err := newEngine().ProcessClass(context.Background(), cls)
	require.NoError(t, err)

	assert.Equal(t, "p.Lazy", cls.FullName())
	assert.Equal(t, "loaded", lazy.Name())
	assert.Equal(t, 2, calls, "one reload for the empty body")
	assert.Equal(t, 1, abstract.Decodes(), "no reload for code-less methods")

	require.NotEmpty(t, res.Errors)
	assert.True(t, IsDecodeError(res.Errors[0]))
	assert.Equal(t, "a", broken.Name())
}

func TestDisabledCategories(t *testing.T) {
	p := program.New()
	cls := p.AddClass(program.ClassSpec{Name: "o.k"})
	cls.AddMethod(program.MethodSpec{Name: ir.ClassInitName, Body: []ir.Instruction{
		testutil.Call(testutil.FactoryRef, testutil.Lit("p/Never")),
	}})

	// No logging library in the input: both categories are inert.
	e := New(p, config.Default(), WithSessionIDs(testutil.NewFixedSessionID("s")))
	res, err := e.ProcessClass(context.Background(), cls)
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, "o.k", cls.FullName())

	_, ferr := e.Session().Factory()
	assert.Equal(t, ErrCodeDiscoveryClassAbsent, CodeOf(ferr))
	_, lerr := e.Session().Location()
	assert.Equal(t, ErrCodeDiscoveryClassAbsent, CodeOf(lerr))
}

func TestConfiguredRefs(t *testing.T) {
	p := program.New()
	cls := p.AddClass(program.ClassSpec{Name: "o.l"})
	cls.AddMethod(program.MethodSpec{Name: ir.ClassInitName, Body: []ir.Instruction{
		testutil.Call("z/Log->of(Ljava/lang/String;)Lz/Log;", testutil.Lit("p/Configured")),
	}})
	m := cls.AddMethod(program.MethodSpec{Name: "a", Body: []ir.Instruction{
		testutil.VirtualCall("z/Api->site(Ljava/lang/String;Ljava/lang/String;)Lz/Api;", testutil.Reg(1),
			testutil.Lit("p/Configured"), testutil.Lit("handle")),
	}})

	opts := config.Options{
		FactoryMethodRef:  "z/Log->of(Ljava/lang/String;)Lz/Log;",
		LocationMethodRef: "z.Api.site",
	}
	e := New(p, opts, WithSessionIDs(testutil.NewFixedSessionID("s")))
	res, err := e.ProcessClass(context.Background(), cls)
	require.NoError(t, err)

	assert.True(t, res.Changed)
	assert.Equal(t, "p.Configured", cls.FullName())
	assert.Equal(t, "handle", m.Name())

	loc, err := e.Session().Location()
	require.NoError(t, err)
	assert.Equal(t, SourceConfigured, loc.Source)
	assert.Equal(t, "z.Api", loc.Ancestor)
	assert.Nil(t, loc.Interface)
}

func TestConfiguredRef_Malformed(t *testing.T) {
	p, _, newEngine := fixture(t, config.Options{FactoryMethodRef: "GoogleLogger->c(Ljava/lang/String;"})
	cls := p.AddClass(program.ClassSpec{Name: "o.m"})
	cls.AddMethod(program.MethodSpec{Name: ir.ClassInitName, Body: []ir.Instruction{
		testutil.Call(testutil.FactoryRef, testutil.Lit("p/Never")),
	}})
	m := cls.AddMethod(program.MethodSpec{Name: "a", Body: []ir.Instruction{
		locationCall("p/Located", "run"),
	}})

	e := newEngine()
	_, err := e.ProcessClass(context.Background(), cls)
	require.NoError(t, err)

	// The malformed factory ref disables only the factory category; it
	// does not fall back to discovery.
	_, ferr := e.Session().Factory()
	assert.True(t, IsConfigError(ferr))
	assert.Equal(t, "p.Located", cls.FullName())
	assert.Equal(t, "run", m.Name())
}

func TestVisitClass_TargetGate(t *testing.T) {
	p, _, newEngine := fixture(t, config.Options{TargetClass: "o/n"})
	target := p.AddClass(program.ClassSpec{Name: "o.n"})
	target.AddMethod(program.MethodSpec{Name: ir.ClassInitName, Body: []ir.Instruction{
		testutil.Call(testutil.FactoryRef, testutil.Lit("p/Target")),
	}})
	other := p.AddClass(program.ClassSpec{Name: "o.o"})
	other.AddMethod(program.MethodSpec{Name: ir.ClassInitName, Body: []ir.Instruction{
		testutil.Call(testutil.FactoryRef, testutil.Lit("p/Other")),
	}})

	e := newEngine()
	_, visited, err := e.VisitClass(context.Background(), other)
	require.NoError(t, err)
	assert.False(t, visited)
	assert.Equal(t, "o.o", other.FullName())

	res, visited, err := e.VisitClass(context.Background(), target)
	require.NoError(t, err)
	assert.True(t, visited)
	assert.True(t, res.Changed)

	// ProcessClass ignores the gate.
	res, err = e.ProcessClass(context.Background(), other)
	require.NoError(t, err)
	assert.True(t, res.Changed)
}

func TestProcessAll(t *testing.T) {
	journal := &memJournal{}
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	p, _, newEngine := fixture(t, config.Default(), WithJournal(journal), WithMetrics(metrics))

	a := p.AddClass(program.ClassSpec{Name: "o.p"})
	a.AddMethod(program.MethodSpec{Name: ir.ClassInitName, Body: []ir.Instruction{
		testutil.Call(testutil.FactoryRef, testutil.Lit("com/x/Alpha")),
	}})
	b := p.AddClass(program.ClassSpec{Name: "o.q"})
	b.AddMethod(program.MethodSpec{Name: "a", Body: []ir.Instruction{
		locationCall("com/y/Beta", "go"),
	}})

	sum, err := newEngine().ProcessAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "s-1", sum.SessionID)
	assert.Equal(t, len(p.Classes()), sum.Scanned)
	assert.Equal(t, 2, sum.Changed)
	assert.Equal(t, 0, sum.Failed)
	require.Len(t, sum.Events, 3)
	for i, ev := range sum.Events {
		assert.Equal(t, int64(i+1), ev.Seq)
	}

	assert.Equal(t, 1, p.Regroups())
	assert.Equal(t, []string{"com.x.Alpha"}, p.Packages()["com.x"])

	require.Len(t, journal.sessions, 1)
	assert.Equal(t, "s-1", journal.sessions[0].ID)
	assert.Equal(t, testutil.FactoryRef, journal.sessions[0].FactoryRef)
	assert.Equal(t, string(SourceDiscovered), journal.sessions[0].LocationSource)
	assert.Equal(t, sum.Events, journal.events)

	assert.Equal(t, float64(len(p.Classes())), promtest.ToFloat64(metrics.classesScanned))
	assert.Equal(t, float64(1), promtest.ToFloat64(metrics.renames.WithLabelValues("class", "factory")))
	assert.Equal(t, float64(1), promtest.ToFloat64(metrics.renames.WithLabelValues("class", "location")))
	assert.Equal(t, float64(1), promtest.ToFloat64(metrics.renames.WithLabelValues("method", "location")))
	assert.Equal(t, float64(1), promtest.ToFloat64(metrics.discovery.WithLabelValues("factory", "discovered")))
}

func TestProcessAll_NothingChanged(t *testing.T) {
	p, _, newEngine := fixture(t, config.Default())

	sum, err := newEngine().ProcessAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Changed)
	assert.Empty(t, sum.Events)
	assert.Equal(t, 0, p.Regroups())
}

func TestProcessAll_Idempotent(t *testing.T) {
	p, _, newEngine := fixture(t, config.Default())
	cls := p.AddClass(program.ClassSpec{Name: "o.r"})
	cls.AddMethod(program.MethodSpec{Name: "a", Body: []ir.Instruction{
		locationCall("com/z/Gamma", "once"),
	}})

	first, err := newEngine().ProcessAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Changed)

	second, err := newEngine().ProcessAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Changed)
	assert.Equal(t, 1, p.Regroups())
}

func TestProcessAll_JournalFailureSkipsClass(t *testing.T) {
	journal := &memJournal{failOn: 1}
	p, _, newEngine := fixture(t, config.Default(), WithJournal(journal))
	a := p.AddClass(program.ClassSpec{Name: "o.s"})
	a.AddMethod(program.MethodSpec{Name: ir.ClassInitName, Body: []ir.Instruction{
		testutil.Call(testutil.FactoryRef, testutil.Lit("com/f/First")),
	}})
	b := p.AddClass(program.ClassSpec{Name: "o.t"})
	b.AddMethod(program.MethodSpec{Name: ir.ClassInitName, Body: []ir.Instruction{
		testutil.Call(testutil.FactoryRef, testutil.Lit("com/f/Second")),
	}})

	sum, err := newEngine().ProcessAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, 2, sum.Changed, "renames already applied stand")
	require.Len(t, journal.events, 1)
	assert.Equal(t, "com.f.Second", journal.events[0].To)
}

func TestProcessAll_Cancelled(t *testing.T) {
	p, _, newEngine := fixture(t, config.Default())
	cls := p.AddClass(program.ClassSpec{Name: "o.u"})
	cls.AddMethod(program.MethodSpec{Name: ir.ClassInitName, Body: []ir.Instruction{
		testutil.Call(testutil.FactoryRef, testutil.Lit("com/c/Cancelled")),
	}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newEngine().ProcessAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "o.u", cls.FullName())
}

func TestFindClass(t *testing.T) {
	p, _, newEngine := fixture(t, config.Default())
	cls := p.AddClass(program.ClassSpec{Name: "o.v"})
	cls.Rename("com.v.Found")
	e := newEngine()

	got, err := e.FindClass("o/v")
	require.NoError(t, err)
	assert.Same(t, cls, got)

	got, err = e.FindClass("Lcom/v/Found;")
	require.NoError(t, err)
	assert.Same(t, cls, got)

	_, err = e.FindClass("o.missing")
	assert.Error(t, err)
}
