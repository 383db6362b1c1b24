package engine

import (
	"log/slog"

	"github.com/roach88/logrename/internal/ir"
	"github.com/roach88/logrename/internal/methodref"
)

// Scanner runs the factory and location passes over one class at a time.
//
// The passes are independent: each ends its own search on success and both
// may rename the same class. Decode failures and rejected names are
// collected on the result and never stop the scan.
type Scanner struct {
	session  *Session
	tracer   Tracer
	subtypes *SubtypeResolver
	clock    *Clock
	metrics  *Metrics
}

// NewScanner creates a scanner resolving refs through session.
func NewScanner(session *Session, tracer Tracer, clock *Clock, metrics *Metrics) *Scanner {
	return &Scanner{
		session:  session,
		tracer:   tracer,
		subtypes: NewSubtypeResolver(session.program),
		clock:    clock,
		metrics:  metrics,
	}
}

// Scan runs both passes over cls.
func (s *Scanner) Scan(cls ir.Class) ClassResult {
	res := ClassResult{Class: cls.RawName()}
	s.metrics.classScanned()

	if target, err := s.session.Factory(); err == nil {
		s.factoryPass(cls, target.Ref, &res)
	}
	if target, err := s.session.Location(); err == nil {
		s.locationPass(cls, target, &res)
	}

	slog.Debug("scanned class",
		"class", cls.RawName(),
		"changed", res.Changed,
		"renames", len(res.Events),
		"errors", len(res.Errors),
	)
	return res
}

// factoryPass looks for the logger factory in the static initializer and
// then the constructors. The first argument that resolves to a string
// names the class and ends the pass.
func (s *Scanner) factoryPass(cls ir.Class, ref methodref.Ref, res *ClassResult) {
	for _, m := range factorySites(cls) {
		insns, ok := s.decode(m, res)
		if !ok {
			continue
		}
		for i, insn := range insns {
			inv, ok := insn.(ir.Invoke)
			if !ok || !s.matchesFactory(ref, inv.Callee) {
				continue
			}
			name, err := s.tracer.ExtractStringArg(insns, i, 0)
			if err != nil {
				slog.Debug("factory call without literal",
					"class", cls.RawName(),
					"method", m.Name(),
					"at", i,
					"reason", err,
				)
				continue
			}
			s.applyClass(cls, name, CategoryFactory, m, res)
			return
		}
	}
}

// locationPass looks for the log-site setter in the static initializer
// and every other declared method. Argument 0 names the class and
// argument 1 names the enclosing method; each method stops at its first
// call that yields either.
func (s *Scanner) locationPass(cls ir.Class, target LocationTarget, res *ClassResult) {
	for _, m := range locationSites(cls) {
		insns, ok := s.decode(m, res)
		if !ok {
			continue
		}
		site := m.Name()
		for i, insn := range insns {
			inv, ok := insn.(ir.Invoke)
			if !ok || !s.matchesLocation(target, inv.Callee) {
				continue
			}

			className, classErr := s.tracer.ExtractStringArg(insns, i, 0)
			methodName, methodErr := s.tracer.ExtractStringArg(insns, i, 1)
			if classErr != nil && methodErr != nil {
				slog.Debug("location call without literals",
					"class", cls.RawName(),
					"method", site,
					"at", i,
					"reason", classErr,
				)
				continue
			}

			if classErr == nil {
				s.applyClass(cls, className, CategoryLocation, m, res)
			}
			if methodErr == nil && site != ir.ClassInitName {
				s.applyMethod(m, methodName, site, res)
			}
			break
		}
	}
}

// decode returns the method body, re-decoding once when a method that
// should have code came back empty.
func (s *Scanner) decode(m ir.Method, res *ClassResult) ([]ir.Instruction, bool) {
	insns, err := m.Instructions()
	if err == nil && len(insns) == 0 && !m.IsNoCode() {
		slog.Debug("empty body, reloading", "class", m.Class().RawName(), "method", m.Name())
		insns, err = m.Reload()
	}
	if err != nil {
		s.metrics.decodeFailed()
		derr := &Error{
			Code:    ErrCodeDecode,
			Message: "method body could not be decoded",
			Class:   m.Class().RawName(),
			Method:  m.Name(),
			Err:     err,
		}
		slog.Warn("skipping method", "error", derr)
		res.Errors = append(res.Errors, derr)
		return nil, false
	}
	return insns, len(insns) > 0
}

func (s *Scanner) matchesFactory(ref methodref.Ref, call ir.MethodDesc) bool {
	if ref.Matches(call) {
		return true
	}
	return ref.MatchesMember(call) && s.sameType(call.Owner, ref.Owner)
}

// matchesLocation compares name and argument descriptors; the return type
// is ignored. The owner must be the ancestor or descend from it.
func (s *Scanner) matchesLocation(target LocationTarget, call ir.MethodDesc) bool {
	ref := target.Ref
	if call.Name != ref.Name {
		return false
	}
	if ref.HasSignature && !ref.ArgsEqual(call) {
		return false
	}
	if s.sameType(call.Owner, ref.Owner) {
		return true
	}
	return s.subtypes.IsSubtypeOf(call.Owner, target.Ancestor)
}

// sameType compares two type names, also resolving both through the
// program so a renamed class still matches its load-time name.
func (s *Scanner) sameType(a, b string) bool {
	a, b = ir.NormalizeName(a), ir.NormalizeName(b)
	if a == b {
		return true
	}
	ca := s.session.program.ResolveClass(a)
	return ca != nil && ca == s.session.program.ResolveClass(b)
}

func (s *Scanner) applyClass(cls ir.Class, raw string, cat Category, site ir.Method, res *ClassResult) {
	from := cls.FullName()
	changed, err := RenameClass(cls, raw)
	if err != nil {
		s.metrics.rejectedName(KindClass)
		slog.Warn("class name rejected", "error", err)
		res.Errors = append(res.Errors, err)
		return
	}
	if !changed {
		return
	}
	s.metrics.renamed(KindClass, cat)
	res.Changed = true
	res.Events = append(res.Events, s.clock.Stamp(RenameEvent{
		Kind:     KindClass,
		Category: cat,
		Class:    cls.RawName(),
		From:     from,
		To:       cls.FullName(),
		Site:     site.Name(),
	}))
}

func (s *Scanner) applyMethod(m ir.Method, raw, site string, res *ClassResult) {
	from := m.Name()
	changed, err := RenameMethod(m, raw)
	if err != nil {
		s.metrics.rejectedName(KindMethod)
		slog.Warn("method name rejected", "error", err)
		res.Errors = append(res.Errors, err)
		return
	}
	if !changed {
		return
	}
	s.metrics.renamed(KindMethod, CategoryLocation)
	res.Changed = true
	res.Events = append(res.Events, s.clock.Stamp(RenameEvent{
		Kind:     KindMethod,
		Category: CategoryLocation,
		Class:    m.Class().RawName(),
		Method:   from,
		From:     from,
		To:       m.Name(),
		Site:     site,
	}))
}

// factorySites returns the static initializer, then constructors in
// declaration order.
func factorySites(cls ir.Class) []ir.Method {
	var sites []ir.Method
	if init := cls.ClassInit(); init != nil {
		sites = append(sites, init)
	}
	for _, m := range cls.Methods() {
		if m.IsConstructor() && m.Name() != ir.ClassInitName {
			sites = append(sites, m)
		}
	}
	return sites
}

// locationSites returns the static initializer, then every other declared
// method in declaration order.
func locationSites(cls ir.Class) []ir.Method {
	var sites []ir.Method
	init := cls.ClassInit()
	if init != nil {
		sites = append(sites, init)
	}
	for _, m := range cls.Methods() {
		if init != nil && m == init {
			continue
		}
		if m.Name() == ir.ClassInitName {
			continue
		}
		sites = append(sites, m)
	}
	return sites
}
