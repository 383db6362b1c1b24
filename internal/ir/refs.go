package ir

import "strings"

// Common type descriptors.
const (
	StringDescriptor = "Ljava/lang/String;"
	IntDescriptor    = "I"
	VoidDescriptor   = "V"
)

// MethodDesc identifies a call target as written at an invoke site.
type MethodDesc struct {
	Owner  string   // declaring type, any separator convention
	Name   string
	Args   []string // parameter descriptors
	Return string   // return descriptor
}

// ShortID returns "name(args)ret".
func (d MethodDesc) ShortID() string {
	return d.Name + "(" + strings.Join(d.Args, "") + ")" + d.Return
}

// String returns "owner->name(args)ret" with a slashed owner.
func (d MethodDesc) String() string {
	return strings.ReplaceAll(NormalizeName(d.Owner), ".", "/") + "->" + d.ShortID()
}

// NormalizeName converts a slashed, dotted or "La/b/C;" type name to the
// dotted form used for all comparisons.
func NormalizeName(name string) string {
	s := strings.TrimSpace(name)
	if len(s) >= 2 && s[0] == 'L' && s[len(s)-1] == ';' {
		s = s[1 : len(s)-1]
	}
	return strings.ReplaceAll(s, "/", ".")
}

// ObjectDescriptor returns the descriptor for a class name.
func ObjectDescriptor(name string) string {
	return "L" + strings.ReplaceAll(NormalizeName(name), ".", "/") + ";"
}

// DescriptorClass returns the dotted class name of an object descriptor.
// Arrays and primitives report false.
func DescriptorClass(desc string) (string, bool) {
	if len(desc) < 3 || desc[0] != 'L' || desc[len(desc)-1] != ';' {
		return "", false
	}
	return NormalizeName(desc), true
}
