package engine

import (
	"log/slog"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/logrename/internal/ir"
)

// NormalizeClassName turns a recovered class-name literal into the dotted
// form the host expects: trimmed, "L...;" stripped, NFC-composed, with
// '/' unified to '.'.
func NormalizeClassName(raw string) string {
	return ir.NormalizeName(norm.NFC.String(strings.TrimSpace(raw)))
}

// IsValidIdentifier reports whether s can name a method: a letter, '_' or
// '$' first, then letters, digits, '_' or '$'.
func IsValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '$' || unicode.IsLetter(r):
		case i > 0 && unicode.IsDigit(r):
		default:
			return false
		}
	}
	return true
}

// RenameClass applies a recovered name to cls. It returns false without
// touching the host when the normalized name is already the class's name,
// which makes repeated application idempotent.
func RenameClass(cls ir.Class, raw string) (bool, error) {
	name := NormalizeClassName(raw)
	if name == "" {
		return false, &Error{
			Code:    ErrCodeNameRejected,
			Message: "empty class name",
			Class:   cls.FullName(),
		}
	}
	for _, seg := range strings.Split(name, ".") {
		if !IsValidIdentifier(seg) {
			return false, &Error{
				Code:    ErrCodeNameRejected,
				Message: "invalid class name " + strconv.Quote(name),
				Class:   cls.FullName(),
			}
		}
	}
	if name == cls.FullName() {
		return false, nil
	}

	old := cls.FullName()
	cls.Rename(name)
	slog.Info("renamed class", "from", old, "to", name)
	return true, nil
}

// RenameMethod applies a recovered name to m. Constructors and static
// initializers are never renamed.
func RenameMethod(m ir.Method, raw string) (bool, error) {
	reject := func(msg string) (bool, error) {
		return false, &Error{
			Code:    ErrCodeNameRejected,
			Message: msg,
			Class:   m.Class().FullName(),
			Method:  m.Name(),
		}
	}

	if m.IsConstructor() || m.Name() == ir.ClassInitName {
		return reject("cannot rename a constructor")
	}
	name := norm.NFC.String(strings.TrimSpace(raw))
	if name == "" {
		return reject("empty method name")
	}
	if !IsValidIdentifier(name) {
		return reject("invalid method name " + strconv.Quote(name))
	}
	if name == m.Name() {
		return false, nil
	}

	old := m.Name()
	m.Rename(name)
	slog.Info("renamed method", "class", m.Class().FullName(), "from", old, "to", name)
	return true, nil
}
