// Package program is an in-memory host for the rename engine.
//
// It implements the ir host interfaces over classes built in code or
// loaded from a dump file. Method bodies decode lazily on first use and
// stay cached until Reload; renames are kept as aliases so the load-time
// names remain resolvable and can be written back to a dump.
package program

import (
	"sort"
	"strings"

	"github.com/roach88/logrename/internal/ir"
)

// DecodeFunc produces a method body. It runs on first use and on every
// Reload.
type DecodeFunc func() ([]ir.Instruction, error)

// ClassSpec describes a class to add.
type ClassSpec struct {
	// Name is the load-time name, in any separator convention.
	Name string
	// Supertypes are the superclass and implemented interfaces.
	Supertypes []string
	Interface  bool
	Abstract   bool
}

// MethodSpec describes a method to add.
type MethodSpec struct {
	Name   string
	Args   []string
	Return string
	Static bool
	// NoCode marks abstract and native methods.
	NoCode bool
	// Body is returned by the default decoder. Ignored when Decode is set.
	Body []ir.Instruction
	// Decode overrides the default decoder.
	Decode DecodeFunc
}

// Program is a mutable set of classes.
type Program struct {
	classes  []*Class
	byRaw    map[string]*Class
	byAlias  map[string]*Class
	packages map[string][]string
	regroups int
}

// New creates an empty program.
func New() *Program {
	return &Program{
		byRaw:   make(map[string]*Class),
		byAlias: make(map[string]*Class),
	}
}

// AddClass adds a class. Adding a name twice returns the existing class.
func (p *Program) AddClass(spec ClassSpec) *Class {
	raw := ir.NormalizeName(spec.Name)
	if c, ok := p.byRaw[raw]; ok {
		return c
	}
	supers := make([]string, len(spec.Supertypes))
	for i, s := range spec.Supertypes {
		supers[i] = ir.NormalizeName(s)
	}
	c := &Class{
		program:    p,
		raw:        raw,
		supertypes: supers,
		iface:      spec.Interface,
		abstract:   spec.Abstract,
	}
	p.classes = append(p.classes, c)
	p.byRaw[raw] = c
	return c
}

// Classes implements ir.Program.
func (p *Program) Classes() []ir.Class {
	out := make([]ir.Class, len(p.classes))
	for i, c := range p.classes {
		out[i] = c
	}
	return out
}

// Class returns the concrete class for name, or nil.
func (p *Program) Class(name string) *Class {
	n := ir.NormalizeName(name)
	if c, ok := p.byRaw[n]; ok {
		return c
	}
	if c, ok := p.byAlias[n]; ok {
		return c
	}
	return nil
}

// ResolveClass implements ir.Program. Load-time names win over aliases.
func (p *Program) ResolveClass(name string) ir.Class {
	if c := p.Class(name); c != nil {
		return c
	}
	return nil
}

// RegroupPackages implements ir.Program by rebuilding the package index
// from current class names.
func (p *Program) RegroupPackages() {
	pkgs := make(map[string][]string)
	for _, c := range p.classes {
		full := c.FullName()
		pkg := ""
		if i := strings.LastIndexByte(full, '.'); i >= 0 {
			pkg = full[:i]
		}
		pkgs[pkg] = append(pkgs[pkg], full)
	}
	for _, names := range pkgs {
		sort.Strings(names)
	}
	p.packages = pkgs
	p.regroups++
}

// Packages returns the package index as of the last RegroupPackages.
func (p *Program) Packages() map[string][]string {
	return p.packages
}

// Regroups counts RegroupPackages calls.
func (p *Program) Regroups() int {
	return p.regroups
}

// Class is a host class.
type Class struct {
	program    *Program
	raw        string
	alias      string
	supertypes []string
	iface      bool
	abstract   bool
	methods    []*Method
}

// AddMethod appends a method in declaration order.
func (c *Class) AddMethod(spec MethodSpec) *Method {
	args := make([]string, len(spec.Args))
	copy(args, spec.Args)
	ret := spec.Return
	if ret == "" {
		ret = ir.VoidDescriptor
	}
	m := &Method{
		class:  c,
		raw:    spec.Name,
		args:   args,
		ret:    ret,
		static: spec.Static || spec.Name == ir.ClassInitName,
		noCode: spec.NoCode,
		decode: spec.Decode,
	}
	if m.decode == nil {
		body := spec.Body
		m.decode = func() ([]ir.Instruction, error) {
			out := make([]ir.Instruction, len(body))
			copy(out, body)
			return out, nil
		}
	}
	c.methods = append(c.methods, m)
	return m
}

func (c *Class) RawName() string { return c.raw }

func (c *Class) FullName() string {
	if c.alias != "" {
		return c.alias
	}
	return c.raw
}

// Alias returns the renamed name, or "" if the class was never renamed.
func (c *Class) Alias() string { return c.alias }

func (c *Class) Methods() []ir.Method {
	out := make([]ir.Method, len(c.methods))
	for i, m := range c.methods {
		out[i] = m
	}
	return out
}

// Method returns the first method with the given current or load-time
// name, or nil.
func (c *Class) Method(name string) *Method {
	for _, m := range c.methods {
		if m.Name() == name || m.raw == name {
			return m
		}
	}
	return nil
}

func (c *Class) ClassInit() ir.Method {
	for _, m := range c.methods {
		if m.raw == ir.ClassInitName {
			return m
		}
	}
	return nil
}

func (c *Class) Supertypes() []string { return c.supertypes }
func (c *Class) IsInterface() bool    { return c.iface }
func (c *Class) IsAbstract() bool     { return c.abstract }

// Rename sets the class alias and keeps it resolvable.
func (c *Class) Rename(name string) {
	name = ir.NormalizeName(name)
	if c.alias != "" && c.program.byAlias[c.alias] == c {
		delete(c.program.byAlias, c.alias)
	}
	if name == c.raw {
		c.alias = ""
		return
	}
	c.alias = name
	c.program.byAlias[name] = c
}

// Method is a host method with a lazily decoded body.
type Method struct {
	class  *Class
	raw    string
	alias  string
	args   []string
	ret    string
	static bool
	noCode bool

	decode  DecodeFunc
	body    []ir.Instruction
	decoded bool
	decodes int

	// source is the serialized body a dump-loaded method came from.
	source *MethodDump
}

func (m *Method) Name() string {
	if m.alias != "" {
		return m.alias
	}
	return m.raw
}

// RawName returns the load-time name.
func (m *Method) RawName() string { return m.raw }

// Alias returns the renamed name, or "".
func (m *Method) Alias() string { return m.alias }

func (m *Method) Class() ir.Class     { return m.class }
func (m *Method) IsConstructor() bool { return m.raw == ir.ConstructorName }
func (m *Method) IsStatic() bool      { return m.static }
func (m *Method) IsNoCode() bool      { return m.noCode }
func (m *Method) ArgTypes() []string  { return m.args }
func (m *Method) ReturnType() string  { return m.ret }

// Decodes counts decoder runs.
func (m *Method) Decodes() int { return m.decodes }

// Instructions decodes the body on first use. A failed decode is not
// cached.
func (m *Method) Instructions() ([]ir.Instruction, error) {
	if m.decoded {
		return m.body, nil
	}
	return m.Reload()
}

func (m *Method) Reload() ([]ir.Instruction, error) {
	m.decodes++
	body, err := m.decode()
	if err != nil {
		m.body, m.decoded = nil, false
		return nil, err
	}
	m.body, m.decoded = body, true
	return body, nil
}

func (m *Method) Rename(name string) {
	if name == m.raw {
		m.alias = ""
		return
	}
	m.alias = name
}
