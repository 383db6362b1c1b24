package engine

import (
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/roach88/logrename/internal/config"
	"github.com/roach88/logrename/internal/ir"
	"github.com/roach88/logrename/internal/methodref"
)

// RefSource says where a resolved ref came from.
type RefSource string

const (
	SourceConfigured RefSource = "configured"
	SourceDiscovered RefSource = "discovered"
)

// FactoryTarget is the resolved logger factory.
type FactoryTarget struct {
	Ref    methodref.Ref
	Source RefSource
}

// LocationTarget is the resolved log-site setter plus the type a call
// owner must equal or descend from.
type LocationTarget struct {
	Ref    methodref.Ref
	Source RefSource
	// Ancestor is the dotted name call owners are checked against.
	Ancestor string
	// Interface is the resolved logging interface; nil when a configured
	// ref names a type outside the input.
	Interface ir.Class
}

type outcome[T any] struct {
	done  bool
	value T
	err   error
}

// Session holds what is resolved once per load: the factory ref and the
// location ref, each configured or discovered, together with the error
// that left a category inert. Nothing here survives the load.
//
// Refs are computed lazily on first use. Concurrent first callers share
// one computation through a singleflight group; the result is a pure
// function of the program, so later callers read the memoized outcome.
type Session struct {
	ID string

	program ir.Program
	opts    config.Options
	metrics *Metrics

	group    singleflight.Group
	mu       sync.Mutex
	factory  outcome[FactoryTarget]
	location outcome[LocationTarget]
}

// NewSession creates a session over program. opts is completed with the
// default discovery profile.
func NewSession(id string, program ir.Program, opts config.Options, metrics *Metrics) *Session {
	return &Session{
		ID:      id,
		program: program,
		opts:    opts.WithDefaults(),
		metrics: metrics,
	}
}

// Options returns the session's effective options.
func (s *Session) Options() config.Options {
	return s.opts
}

// Factory returns the factory ref, or the error that disabled the factory
// category for this load.
func (s *Session) Factory() (FactoryTarget, error) {
	return memo(s, string(CategoryFactory), &s.factory, s.resolveFactory)
}

// Location returns the location ref, or the error that disabled the
// location category for this load.
func (s *Session) Location() (LocationTarget, error) {
	return memo(s, string(CategoryLocation), &s.location, s.resolveLocation)
}

func memo[T any](s *Session, key string, slot *outcome[T], compute func() (T, error)) (T, error) {
	s.mu.Lock()
	if slot.done {
		v, err := slot.value, slot.err
		s.mu.Unlock()
		return v, err
	}
	s.mu.Unlock()

	v, _, _ := s.group.Do(key, func() (any, error) {
		s.mu.Lock()
		if slot.done {
			o := *slot
			s.mu.Unlock()
			return o, nil
		}
		s.mu.Unlock()

		value, err := compute()

		s.mu.Lock()
		defer s.mu.Unlock()
		*slot = outcome[T]{done: true, value: value, err: err}
		return *slot, nil
	})
	o := v.(outcome[T])
	return o.value, o.err
}

func (s *Session) resolveFactory() (FactoryTarget, error) {
	if text := strings.TrimSpace(s.opts.FactoryMethodRef); text != "" {
		ref, err := methodref.Parse(text)
		if err != nil {
			s.metrics.resolved(CategoryFactory, "config_error")
			slog.Warn("factory method ref disabled", "ref", text, "error", err)
			return FactoryTarget{}, &Error{
				Code:    ErrCodeConfigParse,
				Message: "factory method ref",
				Err:     err,
			}
		}
		s.metrics.resolved(CategoryFactory, string(SourceConfigured))
		return FactoryTarget{Ref: ref, Source: SourceConfigured}, nil
	}

	ref, err := DiscoverFactory(s.program, s.opts.Discovery)
	if err != nil {
		s.metrics.resolved(CategoryFactory, outcomeLabel(err))
		slog.Warn("factory discovery failed", "error", err)
		return FactoryTarget{}, err
	}
	s.metrics.resolved(CategoryFactory, string(SourceDiscovered))
	return FactoryTarget{Ref: ref, Source: SourceDiscovered}, nil
}

func (s *Session) resolveLocation() (LocationTarget, error) {
	if text := strings.TrimSpace(s.opts.LocationMethodRef); text != "" {
		ref, err := methodref.Parse(text)
		if err != nil {
			s.metrics.resolved(CategoryLocation, "config_error")
			slog.Warn("location method ref disabled", "ref", text, "error", err)
			return LocationTarget{}, &Error{
				Code:    ErrCodeConfigParse,
				Message: "location method ref",
				Err:     err,
			}
		}
		s.metrics.resolved(CategoryLocation, string(SourceConfigured))
		return LocationTarget{
			Ref:       ref,
			Source:    SourceConfigured,
			Ancestor:  ref.Owner,
			Interface: s.program.ResolveClass(ref.Owner),
		}, nil
	}

	ref, iface, err := DiscoverLocation(s.program, s.opts.Discovery)
	if err != nil {
		s.metrics.resolved(CategoryLocation, outcomeLabel(err))
		slog.Warn("location discovery failed", "error", err)
		return LocationTarget{}, err
	}
	s.metrics.resolved(CategoryLocation, string(SourceDiscovered))
	return LocationTarget{
		Ref:       ref,
		Source:    SourceDiscovered,
		Ancestor:  ir.NormalizeName(iface.RawName()),
		Interface: iface,
	}, nil
}

func outcomeLabel(err error) string {
	if code := CodeOf(err); code != "" {
		return strings.ToLower(string(code))
	}
	return "error"
}
