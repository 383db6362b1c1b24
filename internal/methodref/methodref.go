// Package methodref parses and matches method references written in the
// decompiler's descriptor notation.
//
// Two forms are accepted:
//
//	com/google/common/flogger/GoogleLogger->c(Ljava/lang/String;)Lcom/google/common/flogger/GoogleLogger;
//	com.google.common.flogger.GoogleLogger.c
//
// The first is signature-qualified and matches exactly one overload. The
// second matches any overload of the name on the owner.
package methodref

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/logrename/internal/ir"
)

// Ref identifies a method to look for. Refs are immutable values.
type Ref struct {
	Owner        string   // dotted owner name
	Name         string
	HasSignature bool     // false: match by owner and name only
	Args         []string // parameter descriptors
	Return       string   // return descriptor
}

// ErrEmpty is returned by Parse for blank input.
var ErrEmpty = errors.New("empty method ref")

// ParseError reports a malformed method ref.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed method ref %q: %s", e.Input, e.Reason)
}

// Parse parses a method ref in either the full or the name-only form.
func Parse(text string) (Ref, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return Ref{}, ErrEmpty
	}

	arrow := strings.Index(s, "->")
	if arrow == -1 {
		dot := strings.LastIndexByte(s, '.')
		if dot <= 0 || dot == len(s)-1 {
			return Ref{}, &ParseError{Input: text, Reason: "expected Owner.name or Owner->name(args)ret"}
		}
		owner := ir.NormalizeName(s[:dot])
		name := s[dot+1:]
		if strings.ContainsAny(name, "();") {
			return Ref{}, &ParseError{Input: text, Reason: "name-only form cannot carry a signature"}
		}
		return Ref{Owner: owner, Name: name}, nil
	}

	owner := ir.NormalizeName(s[:arrow])
	if owner == "" {
		return Ref{}, &ParseError{Input: text, Reason: "missing owner"}
	}
	rest := s[arrow+2:]
	open := strings.IndexByte(rest, '(')
	closing := strings.IndexByte(rest, ')')
	if open <= 0 {
		return Ref{}, &ParseError{Input: text, Reason: "missing method name or '('"}
	}
	if closing < open {
		return Ref{}, &ParseError{Input: text, Reason: "missing ')'"}
	}

	args, err := SplitDescriptors(rest[open+1 : closing])
	if err != nil {
		return Ref{}, &ParseError{Input: text, Reason: err.Error()}
	}
	ret := rest[closing+1:]
	if ret != ir.VoidDescriptor {
		single, err := SplitDescriptors(ret)
		if err != nil || len(single) != 1 {
			return Ref{}, &ParseError{Input: text, Reason: fmt.Sprintf("bad return descriptor %q", ret)}
		}
	}

	return Ref{
		Owner:        owner,
		Name:         rest[:open],
		HasSignature: true,
		Args:         args,
		Return:       ret,
	}, nil
}

// MustParse is like Parse but panics on error. For tests and constants.
func MustParse(text string) Ref {
	r, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return r
}

// SplitDescriptors splits a concatenated parameter descriptor list such as
// "Ljava/lang/String;I[J" into its elements.
func SplitDescriptors(desc string) ([]string, error) {
	out := []string{}
	i := 0
	for i < len(desc) {
		start := i
		for i < len(desc) && desc[i] == '[' {
			i++
		}
		if i == len(desc) {
			return nil, fmt.Errorf("array descriptor without element type at %d", start)
		}
		switch c := desc[i]; c {
		case 'L':
			semi := strings.IndexByte(desc[i:], ';')
			if semi <= 1 {
				return nil, fmt.Errorf("unterminated object descriptor at %d", i)
			}
			i += semi + 1
		case 'Z', 'B', 'C', 'S', 'I', 'J', 'F', 'D':
			i++
		default:
			return nil, fmt.Errorf("unknown descriptor %q at %d", c, i)
		}
		out = append(out, desc[start:i])
	}
	return out, nil
}

// FromMethod builds a signature-qualified ref for a declared method.
func FromMethod(owner string, m ir.Method) Ref {
	args := make([]string, len(m.ArgTypes()))
	copy(args, m.ArgTypes())
	return Ref{
		Owner:        ir.NormalizeName(owner),
		Name:         m.Name(),
		HasSignature: true,
		Args:         args,
		Return:       m.ReturnType(),
	}
}

// ShortID returns "name(args)ret", or just the name for name-only refs.
func (r Ref) ShortID() string {
	if !r.HasSignature {
		return r.Name
	}
	return r.Name + "(" + strings.Join(r.Args, "") + ")" + r.Return
}

// String renders the ref so that Parse(r.String()) reproduces r.
func (r Ref) String() string {
	if !r.HasSignature {
		return r.Owner + "." + r.Name
	}
	return strings.ReplaceAll(r.Owner, ".", "/") + "->" + r.ShortID()
}

// Matches reports whether a call target is this ref: same owner and name,
// and for signature-qualified refs the same argument and return descriptors.
func (r Ref) Matches(call ir.MethodDesc) bool {
	if ir.NormalizeName(call.Owner) != r.Owner {
		return false
	}
	return r.MatchesMember(call)
}

// MatchesMember is Matches without the owner check, for callers that
// resolve owners themselves.
func (r Ref) MatchesMember(call ir.MethodDesc) bool {
	if call.Name != r.Name {
		return false
	}
	if !r.HasSignature {
		return true
	}
	return r.ArgsEqual(call) && call.Return == r.Return
}

// ArgsEqual compares argument descriptors only, ignoring owner, name and
// return type.
func (r Ref) ArgsEqual(call ir.MethodDesc) bool {
	return strings.Join(call.Args, "") == strings.Join(r.Args, "")
}
