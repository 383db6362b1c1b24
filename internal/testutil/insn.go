// Package testutil fabricates instruction streams and logging-library
// class shapes for tests.
package testutil

import (
	"strings"

	"github.com/roach88/logrename/internal/ir"
	"github.com/roach88/logrename/internal/methodref"
)

// Reg is a register operand.
func Reg(n int) ir.Operand {
	return ir.Register{Num: n}
}

// Lit is a const-string folded into its use site.
func Lit(value string) ir.Operand {
	return ir.Wrapped{Insn: ir.ConstString{Value: value}}
}

// Text is an opaque operand.
func Text(s string) ir.Operand {
	return ir.Opaque{Text: s}
}

// Const loads value into reg.
func Const(reg int, value string) ir.Instruction {
	return ir.ConstString{Out: ir.To(reg), Value: value}
}

// Move copies src into dst.
func Move(dst, src int) ir.Instruction {
	return ir.Move{Out: ir.To(dst), Src: ir.Register{Num: src}}
}

// MoveLit moves a folded const-string into dst.
func MoveLit(dst int, value string) ir.Instruction {
	return ir.Move{Out: ir.To(dst), Src: Lit(value)}
}

// Op defines reg with an uninterpreted instruction.
func Op(reg int, op string) ir.Instruction {
	return ir.Other{Out: ir.To(reg), Op: op}
}

// Nop is an uninterpreted instruction that defines nothing.
func Nop() ir.Instruction {
	return ir.Other{Op: "nop"}
}

// Call is a static invoke of desc, a full-form method ref. Panics on a
// malformed desc.
func Call(desc string, args ...ir.Operand) ir.Invoke {
	return ir.Invoke{Callee: Desc(desc), Args: args}
}

// VirtualCall is an instance invoke: receiver is operand 0 and logical
// arguments start at 1.
func VirtualCall(desc string, receiver ir.Operand, args ...ir.Operand) ir.Invoke {
	return ir.Invoke{
		Callee:         Desc(desc),
		Args:           append([]ir.Operand{receiver}, args...),
		FirstArgOffset: 1,
	}
}

// Desc converts a full-form method ref to a call-site descriptor, keeping
// the owner in slashed form as call sites write it.
func Desc(text string) ir.MethodDesc {
	ref := methodref.MustParse(text)
	return ir.MethodDesc{
		Owner:  strings.ReplaceAll(ref.Owner, ".", "/"),
		Name:   ref.Name,
		Args:   ref.Args,
		Return: ref.Return,
	}
}

// MoveChain loads value into register 0 and moves it through hops
// registers. It returns the instructions and the register holding the
// value at the end of the chain.
func MoveChain(value string, hops int) ([]ir.Instruction, int) {
	insns := []ir.Instruction{Const(0, value)}
	for i := 1; i <= hops; i++ {
		insns = append(insns, Move(i, i-1))
	}
	return insns, hops
}
