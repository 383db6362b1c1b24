package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/logrename/internal/config"
	"github.com/roach88/logrename/internal/ir"
)

// Journal persists rename events. Implemented by store.Store.
type Journal interface {
	BeginSession(ctx context.Context, info SessionInfo) error
	Record(ctx context.Context, sessionID string, ev RenameEvent) error
}

// SessionInfo describes a session at start: the options it ran with and
// how each ref was resolved.
type SessionInfo struct {
	ID          string `json:"id"`
	TargetClass string `json:"target_class,omitempty"`

	FactoryRef    string `json:"factory_ref,omitempty"`
	FactorySource string `json:"factory_source,omitempty"`
	FactoryError  string `json:"factory_error,omitempty"`

	LocationRef    string `json:"location_ref,omitempty"`
	LocationSource string `json:"location_source,omitempty"`
	LocationError  string `json:"location_error,omitempty"`
}

// Engine recovers names for the classes of one loaded program.
//
// An Engine is bound to exactly one load: its session memoizes the
// resolved refs, and a new load needs a new Engine. The host drives it
// one class at a time (VisitClass), on demand for a single class
// (ProcessClass), or over the whole program (ProcessAll).
//
// Thread-safety model:
//   - Session ref resolution: safe from any goroutine
//   - ProcessClass/VisitClass/ProcessAll: one caller at a time; they
//     mutate host entities
type Engine struct {
	program ir.Program
	opts    config.Options
	session *Session
	scanner *Scanner

	tracer  Tracer
	clock   *Clock
	ids     SessionIDGenerator
	journal Journal
	metrics *Metrics

	startOnce sync.Once
	startErr  error
}

// Option configures an Engine.
type Option func(*Engine)

// WithJournal records every applied rename in j.
func WithJournal(j Journal) Option {
	return func(e *Engine) {
		e.journal = j
	}
}

// WithMetrics counts engine activity on m.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithClock stamps events from c instead of a fresh clock.
func WithClock(c *Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithSessionIDs names the session with g.
// Default: UUIDv7Generator.
func WithSessionIDs(g SessionIDGenerator) Option {
	return func(e *Engine) {
		e.ids = g
	}
}

// WithTracer replaces the default tracer budget and window.
func WithTracer(t Tracer) Option {
	return func(e *Engine) {
		e.tracer = t
	}
}

// New creates an Engine for one load of program.
func New(program ir.Program, opts config.Options, options ...Option) *Engine {
	e := &Engine{
		program: program,
		opts:    opts.WithDefaults(),
		tracer:  NewTracer(),
		clock:   NewClock(),
		ids:     UUIDv7Generator{},
	}
	for _, opt := range options {
		opt(e)
	}

	e.session = NewSession(e.ids.Generate(), program, e.opts, e.metrics)
	e.scanner = NewScanner(e.session, e.tracer, e.clock, e.metrics)
	return e
}

// Session returns the engine's discovery session.
func (e *Engine) Session() *Session {
	return e.session
}

// Start resolves both refs and opens the session in the journal. It runs
// once; later calls return the first result. Every processing entry point
// calls it, so hosts need not.
func (e *Engine) Start(ctx context.Context) error {
	e.startOnce.Do(func() {
		info := SessionInfo{ID: e.session.ID, TargetClass: e.opts.TargetClass}

		if f, err := e.session.Factory(); err != nil {
			info.FactoryError = err.Error()
		} else {
			info.FactoryRef = f.Ref.String()
			info.FactorySource = string(f.Source)
		}
		if l, err := e.session.Location(); err != nil {
			info.LocationError = err.Error()
		} else {
			info.LocationRef = l.Ref.String()
			info.LocationSource = string(l.Source)
		}

		slog.Info("session started",
			"session", info.ID,
			"factory", info.FactoryRef,
			"location", info.LocationRef,
		)

		if e.journal != nil {
			if err := e.journal.BeginSession(ctx, info); err != nil {
				e.startErr = fmt.Errorf("begin session %s: %w", info.ID, err)
			}
		}
	})
	return e.startErr
}

// ProcessClass runs both passes over cls now, regardless of TargetClass.
func (e *Engine) ProcessClass(ctx context.Context, cls ir.Class) (ClassResult, error) {
	if err := e.Start(ctx); err != nil {
		return ClassResult{}, err
	}
	res := e.scanner.Scan(cls)
	if err := e.record(ctx, res.Events); err != nil {
		return res, err
	}
	return res, nil
}

// VisitClass is the per-class pass a host runs as each class loads. It
// acts only on the class selected by TargetClass; visited reports whether
// it did.
func (e *Engine) VisitClass(ctx context.Context, cls ir.Class) (res ClassResult, visited bool, err error) {
	if !e.opts.MatchesTarget(cls.RawName(), cls.FullName()) {
		return ClassResult{Class: cls.RawName()}, false, nil
	}
	res, err = e.ProcessClass(ctx, cls)
	return res, true, err
}

// ProcessAll runs both passes over every class. A class that fails is
// logged and skipped. Derived package groupings are recomputed once if
// anything changed.
func (e *Engine) ProcessAll(ctx context.Context) (Summary, error) {
	return e.each(ctx, func(cls ir.Class) (ClassResult, bool, error) {
		res, err := e.ProcessClass(ctx, cls)
		return res, true, err
	})
}

// VisitAll runs VisitClass over every class, as a host does during load.
func (e *Engine) VisitAll(ctx context.Context) (Summary, error) {
	return e.each(ctx, func(cls ir.Class) (ClassResult, bool, error) {
		return e.VisitClass(ctx, cls)
	})
}

func (e *Engine) each(ctx context.Context, fn func(ir.Class) (ClassResult, bool, error)) (Summary, error) {
	sum := Summary{SessionID: e.session.ID, Events: []RenameEvent{}}
	if err := e.Start(ctx); err != nil {
		return sum, err
	}

	for _, cls := range e.program.Classes() {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		res, visited, err := fn(cls)
		if !visited {
			continue
		}
		sum.Scanned++
		sum.Events = append(sum.Events, res.Events...)
		if res.Changed {
			sum.Changed++
		}
		if err != nil {
			sum.Failed++
			slog.Error("class failed", "class", cls.RawName(), "error", err)
		}
	}

	if sum.Changed > 0 {
		e.program.RegroupPackages()
	}
	slog.Info("pass complete",
		"session", sum.SessionID,
		"scanned", sum.Scanned,
		"changed", sum.Changed,
		"failed", sum.Failed,
	)
	return sum, nil
}

// FindClass resolves a class by dotted, slashed or descriptor name, under
// either its load-time or current name.
func (e *Engine) FindClass(name string) (ir.Class, error) {
	cls := e.program.ResolveClass(name)
	if cls == nil {
		return nil, fmt.Errorf("class %q not found", ir.NormalizeName(name))
	}
	return cls, nil
}

func (e *Engine) record(ctx context.Context, events []RenameEvent) error {
	if e.journal == nil {
		return nil
	}
	for _, ev := range events {
		if err := e.journal.Record(ctx, e.session.ID, ev); err != nil {
			return fmt.Errorf("record rename %d: %w", ev.Seq, err)
		}
	}
	return nil
}
