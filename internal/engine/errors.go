package engine

import (
	"errors"
	"fmt"
)

// Error is a non-fatal failure at one of the engine's boundaries.
//
// None of these abort a batch:
//   - Config parse: a malformed method ref disables its category
//   - Decode: a method body could not be decoded and is skipped
//   - Discovery: a structural assumption is unmet and the category is inert
//   - Name rejected: a recovered name failed validation and is not applied
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Class and Method locate the failure, when known.
	Class  string
	Method string

	// Err is the underlying cause, if any.
	Err error
}

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	// ErrCodeConfigParse indicates a configured method ref is malformed.
	ErrCodeConfigParse ErrorCode = "CONFIG_PARSE"

	// ErrCodeDecode indicates a method body could not be decoded.
	ErrCodeDecode ErrorCode = "DECODE_FAILED"

	// ErrCodeDiscoveryClassAbsent indicates an expected library class is
	// not part of the input.
	ErrCodeDiscoveryClassAbsent ErrorCode = "DISCOVERY_CLASS_ABSENT"

	// ErrCodeDiscoveryNoCandidate indicates no method has the expected shape.
	ErrCodeDiscoveryNoCandidate ErrorCode = "DISCOVERY_NO_CANDIDATE"

	// ErrCodeDiscoveryAmbiguous indicates more than one method has the
	// expected shape.
	ErrCodeDiscoveryAmbiguous ErrorCode = "DISCOVERY_AMBIGUOUS"

	// ErrCodeDiscoveryUnresolved indicates a type named by a candidate
	// could not be resolved to a class of the expected kind.
	ErrCodeDiscoveryUnresolved ErrorCode = "DISCOVERY_UNRESOLVED"

	// ErrCodeNameRejected indicates a recovered name failed validation.
	ErrCodeNameRejected ErrorCode = "NAME_REJECTED"
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Class != "" && e.Method != "" {
		msg = fmt.Sprintf("%s (class=%s, method=%s)", msg, e.Class, e.Method)
	} else if e.Class != "" {
		msg = fmt.Sprintf("%s (class=%s)", msg, e.Class)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

func hasCode(err error, codes ...ErrorCode) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	for _, c := range codes {
		if e.Code == c {
			return true
		}
	}
	return false
}

// IsConfigError reports a malformed configured method ref.
func IsConfigError(err error) bool {
	return hasCode(err, ErrCodeConfigParse)
}

// IsDecodeError reports a method body decode failure.
func IsDecodeError(err error) bool {
	return hasCode(err, ErrCodeDecode)
}

// IsDiscoveryError reports any discovery failure.
func IsDiscoveryError(err error) bool {
	return hasCode(err,
		ErrCodeDiscoveryClassAbsent,
		ErrCodeDiscoveryNoCandidate,
		ErrCodeDiscoveryAmbiguous,
		ErrCodeDiscoveryUnresolved,
	)
}

// IsRejectedName reports a recovered name that failed validation.
func IsRejectedName(err error) bool {
	return hasCode(err, ErrCodeNameRejected)
}

// CodeOf returns the code of an engine error, or "" for other errors.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func newDiscoveryError(code ErrorCode, class, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Class: class}
}

// Trace failures. The tracer returns exactly one of these when it cannot
// resolve an argument to a string literal.
var (
	// ErrNotInvoke: the traced position does not hold an invoke.
	ErrNotInvoke = errors.New("instruction is not an invoke")

	// ErrArgOutOfRange: the logical argument index is not present.
	ErrArgOutOfRange = errors.New("argument index out of range")

	// ErrNotConstString: the operand is a wrapped non-string instruction
	// or an opaque operand.
	ErrNotConstString = errors.New("operand is not a string constant")

	// ErrBrokenChain: the tracked register is defined by something other
	// than a const-string or a move.
	ErrBrokenChain = errors.New("register defined by a non-constant producer")

	// ErrTraceBudget: more move hops than the trace budget allows, or no
	// definition within the scan window.
	ErrTraceBudget = errors.New("trace budget exhausted")

	// ErrNoDefinition: the start of the method was reached without a
	// definition of the tracked register.
	ErrNoDefinition = errors.New("no definition of register found")
)
