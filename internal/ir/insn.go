package ir

import (
	"fmt"
	"strings"
)

// Kind identifies the instruction variant without a type switch.
type Kind string

// Instruction kinds understood by the engine. Everything else is KindOther.
const (
	KindConstString Kind = "const-string"
	KindMove        Kind = "move"
	KindInvoke      Kind = "invoke"
	KindOther       Kind = "other"
)

// Dest is the register an instruction defines, if any.
type Dest struct {
	Reg int
	Set bool
}

// To returns a Dest defining register reg.
func To(reg int) Dest {
	return Dest{Reg: reg, Set: true}
}

// NoDest is the zero Dest: the instruction defines no register.
var NoDest = Dest{}

// Instruction is a sealed interface over decoded method instructions.
// Only ConstString, Move, Invoke and Other implement it.
type Instruction interface {
	Kind() Kind
	// Result returns the register this instruction defines.
	Result() Dest
	instruction() // Sealed
}

// ConstString loads a string literal.
type ConstString struct {
	Out   Dest
	Value string
}

func (ConstString) instruction()     {}
func (ConstString) Kind() Kind       { return KindConstString }
func (c ConstString) Result() Dest   { return c.Out }
func (c ConstString) String() string { return fmt.Sprintf("%s = const-string %q", destString(c.Out), c.Value) }

// Move copies Src into the destination register.
type Move struct {
	Out Dest
	Src Operand
}

func (Move) instruction()     {}
func (Move) Kind() Kind       { return KindMove }
func (m Move) Result() Dest   { return m.Out }
func (m Move) String() string { return fmt.Sprintf("%s = move %s", destString(m.Out), m.Src) }

// Invoke calls Callee with Args. FirstArgOffset is the number of leading
// operands that are not logical arguments (the implicit receiver of an
// instance call).
type Invoke struct {
	Out            Dest
	Callee         MethodDesc
	Args           []Operand
	FirstArgOffset int
}

func (Invoke) instruction()   {}
func (Invoke) Kind() Kind     { return KindInvoke }
func (i Invoke) Result() Dest { return i.Out }

func (i Invoke) String() string {
	args := make([]string, len(i.Args))
	for n, a := range i.Args {
		args[n] = fmt.Sprint(a)
	}
	return fmt.Sprintf("%s = invoke %s(%s)", destString(i.Out), i.Callee, strings.Join(args, ", "))
}

// Other is any instruction the engine does not interpret.
type Other struct {
	Out Dest
	Op  string
}

func (Other) instruction()     {}
func (Other) Kind() Kind       { return KindOther }
func (o Other) Result() Dest   { return o.Out }
func (o Other) String() string { return fmt.Sprintf("%s = %s", destString(o.Out), o.Op) }

// Operand is a sealed interface over instruction operands.
// Only Register, Wrapped and Opaque implement it.
type Operand interface {
	operand() // Sealed
}

// Register refers to a register by number.
type Register struct {
	Num int
}

func (Register) operand()         {}
func (r Register) String() string { return fmt.Sprintf("v%d", r.Num) }

// Wrapped is an instruction folded into its use site.
type Wrapped struct {
	Insn Instruction
}

func (Wrapped) operand()         {}
func (w Wrapped) String() string { return fmt.Sprintf("(%v)", w.Insn) }

// Opaque is any other operand (literals, field refs, ...).
type Opaque struct {
	Text string
}

func (Opaque) operand()         {}
func (o Opaque) String() string { return o.Text }

// WrappedConstString returns the literal of a wrapped const-string operand.
func WrappedConstString(op Operand) (string, bool) {
	w, ok := op.(Wrapped)
	if !ok {
		return "", false
	}
	c, ok := w.Insn.(ConstString)
	if !ok {
		return "", false
	}
	return c.Value, true
}

func destString(d Dest) string {
	if !d.Set {
		return "_"
	}
	return fmt.Sprintf("v%d", d.Reg)
}
