package engine

import (
	"log/slog"
	"strings"

	"github.com/roach88/logrename/internal/config"
	"github.com/roach88/logrename/internal/ir"
	"github.com/roach88/logrename/internal/methodref"
)

// locationArgs is the shape of the log-site setter:
// (internalClassName, methodName, encodedLineNumber, sourceFileName).
var locationArgs = []string{
	ir.StringDescriptor,
	ir.StringDescriptor,
	ir.IntDescriptor,
	ir.StringDescriptor,
}

// DiscoverFactory infers the logger factory from the logger class: the
// single static method taking one String and returning the logger itself.
// Zero or several such methods yield a discovery error rather than a guess.
func DiscoverFactory(program ir.Program, profile config.DiscoveryProfile) (methodref.Ref, error) {
	logger := program.ResolveClass(profile.LoggerClass)
	if logger == nil {
		return methodref.Ref{}, newDiscoveryError(ErrCodeDiscoveryClassAbsent, profile.LoggerClass,
			"logger class not found in input")
	}

	var candidates []ir.Method
	for _, m := range logger.Methods() {
		if !m.IsStatic() {
			continue
		}
		args := m.ArgTypes()
		if len(args) != 1 || args[0] != ir.StringDescriptor {
			continue
		}
		if !sameClass(program, descriptorName(m.ReturnType()), logger) {
			continue
		}
		candidates = append(candidates, m)
	}

	switch len(candidates) {
	case 0:
		return methodref.Ref{}, newDiscoveryError(ErrCodeDiscoveryNoCandidate, logger.FullName(),
			"no static (String) factory returning the logger")
	case 1:
		ref := methodref.FromMethod(logger.RawName(), candidates[0])
		slog.Info("discovered logger factory", "ref", ref.String())
		return ref, nil
	default:
		return methodref.Ref{}, newDiscoveryError(ErrCodeDiscoveryAmbiguous, logger.FullName(),
			"%d factory candidates: %s", len(candidates), methodNames(candidates))
	}
}

// DiscoverLocation infers the log-site setter in two phases.
//
// Phase A finds the logging interface: on the base logger class, the
// methods taking exactly one level parameter must all return the same
// interface. Phase B finds the single method on that interface taking
// (String, String, int, String) and returning the interface again, which
// confirms a fluent builder rather than an unrelated same-arity overload.
func DiscoverLocation(program ir.Program, profile config.DiscoveryProfile) (methodref.Ref, ir.Class, error) {
	base := program.ResolveClass(profile.BaseLoggerClass)
	if base == nil {
		return methodref.Ref{}, nil, newDiscoveryError(ErrCodeDiscoveryClassAbsent, profile.BaseLoggerClass,
			"base logger class not found in input")
	}

	api, err := findLoggingInterface(program, base, profile.LevelType)
	if err != nil {
		return methodref.Ref{}, nil, err
	}

	var candidates []ir.Method
	for _, m := range api.Methods() {
		if !equalArgs(m.ArgTypes(), locationArgs) {
			continue
		}
		if !sameClass(program, descriptorName(m.ReturnType()), api) {
			continue
		}
		candidates = append(candidates, m)
	}

	switch len(candidates) {
	case 0:
		return methodref.Ref{}, nil, newDiscoveryError(ErrCodeDiscoveryNoCandidate, api.FullName(),
			"no (String, String, int, String) setter returning the logging interface")
	case 1:
		ref := methodref.FromMethod(api.RawName(), candidates[0])
		slog.Info("discovered log-site setter", "ref", ref.String(), "interface", api.FullName())
		return ref, api, nil
	default:
		return methodref.Ref{}, nil, newDiscoveryError(ErrCodeDiscoveryAmbiguous, api.FullName(),
			"%d setter candidates: %s", len(candidates), methodNames(candidates))
	}
}

func findLoggingInterface(program ir.Program, base ir.Class, levelType string) (ir.Class, error) {
	level := ir.NormalizeName(levelType)

	var found []ir.Class
	unresolved := 0
	for _, m := range base.Methods() {
		args := m.ArgTypes()
		if len(args) != 1 || descriptorName(args[0]) != level {
			continue
		}
		ret := program.ResolveClass(descriptorName(m.ReturnType()))
		if ret == nil || !ret.IsInterface() {
			unresolved++
			continue
		}
		if !containsClass(found, ret) {
			found = append(found, ret)
		}
	}

	switch len(found) {
	case 0:
		if unresolved > 0 {
			return nil, newDiscoveryError(ErrCodeDiscoveryUnresolved, base.FullName(),
				"level method return type does not resolve to an interface")
		}
		return nil, newDiscoveryError(ErrCodeDiscoveryNoCandidate, base.FullName(),
			"no method taking a single %s", level)
	case 1:
		return found[0], nil
	default:
		names := make([]string, len(found))
		for i, c := range found {
			names[i] = c.FullName()
		}
		return nil, newDiscoveryError(ErrCodeDiscoveryAmbiguous, base.FullName(),
			"level methods return different interfaces: %s", strings.Join(names, ", "))
	}
}

// descriptorName returns the dotted class name of an object descriptor,
// or "" for primitives and arrays.
func descriptorName(desc string) string {
	name, _ := ir.DescriptorClass(desc)
	return name
}

// sameClass reports whether name denotes cls, by name or by resolution.
func sameClass(program ir.Program, name string, cls ir.Class) bool {
	if name == "" {
		return false
	}
	if name == ir.NormalizeName(cls.RawName()) || name == ir.NormalizeName(cls.FullName()) {
		return true
	}
	resolved := program.ResolveClass(name)
	return resolved != nil && resolved == cls
}

func containsClass(list []ir.Class, cls ir.Class) bool {
	for _, c := range list {
		if c == cls {
			return true
		}
	}
	return false
}

func equalArgs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func methodNames(ms []ir.Method) string {
	names := make([]string, len(ms))
	for i, m := range ms {
		names[i] = m.Name()
	}
	return strings.Join(names, ", ")
}
