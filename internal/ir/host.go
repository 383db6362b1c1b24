package ir

// Program is the host's view of one loaded input.
type Program interface {
	// Classes returns every class in load order.
	Classes() []Class
	// ResolveClass looks up a class by dotted, slashed or descriptor name.
	// Returns nil if the class is not part of the input.
	ResolveClass(name string) Class
	// RegroupPackages recomputes derived package groupings after a batch
	// of renames.
	RegroupPackages()
}

// Class is a host class entity.
type Class interface {
	// RawName is the name the class was loaded under.
	RawName() string
	// FullName is the current dotted name, reflecting renames.
	FullName() string
	// Methods returns declared methods in declaration order, including
	// the static initializer and constructors.
	Methods() []Method
	// ClassInit returns the static initializer, or nil.
	ClassInit() Method
	// Supertypes returns the dotted names of the superclass and the
	// implemented interfaces.
	Supertypes() []string
	IsInterface() bool
	IsAbstract() bool
	// Rename sets the class's dotted name.
	Rename(name string)
}

// Method is a host method entity.
type Method interface {
	Name() string
	Class() Class
	IsConstructor() bool
	IsStatic() bool
	// IsNoCode reports methods without a body (abstract, native).
	IsNoCode() bool
	// ArgTypes returns parameter type descriptors.
	ArgTypes() []string
	// ReturnType returns the return type descriptor.
	ReturnType() string
	// Instructions decodes the body on first use. A body may legitimately
	// decode to empty.
	Instructions() ([]Instruction, error)
	// Reload discards any decoded body and decodes again.
	Reload() ([]Instruction, error)
	Rename(name string)
}

// Well-known method names.
const (
	ClassInitName   = "<clinit>"
	ConstructorName = "<init>"
)
