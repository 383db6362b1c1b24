package program

import (
	"errors"
	"fmt"

	"github.com/roach88/logrename/internal/ir"
	"github.com/roach88/logrename/internal/methodref"
)

func dumpDecoder(md MethodDump) DecodeFunc {
	code := md.Code
	lazy := md.Lazy
	failure := md.DecodeError
	return func() ([]ir.Instruction, error) {
		if failure != "" {
			return nil, errors.New(failure)
		}
		if lazy {
			lazy = false
			return []ir.Instruction{}, nil
		}
		return decodeBody(code)
	}
}

func decodeBody(code []InsnDump) ([]ir.Instruction, error) {
	out := make([]ir.Instruction, 0, len(code))
	for i, d := range code {
		insn, err := decodeInsn(d)
		if err != nil {
			return nil, fmt.Errorf("instruction %d: %w", i, err)
		}
		out = append(out, insn)
	}
	return out, nil
}

func decodeInsn(d InsnDump) (ir.Instruction, error) {
	out := ir.NoDest
	if d.Dest != nil {
		out = ir.To(*d.Dest)
	}

	switch ir.Kind(d.Op) {
	case ir.KindConstString:
		return ir.ConstString{Out: out, Value: d.Value}, nil
	case ir.KindMove:
		if d.Src == nil {
			return nil, errors.New("move without src")
		}
		src, err := decodeOperand(*d.Src)
		if err != nil {
			return nil, err
		}
		return ir.Move{Out: out, Src: src}, nil
	case ir.KindInvoke:
		callee, err := parseCallee(d.Call)
		if err != nil {
			return nil, err
		}
		args := make([]ir.Operand, len(d.Args))
		for i, a := range d.Args {
			if args[i], err = decodeOperand(a); err != nil {
				return nil, fmt.Errorf("arg %d: %w", i, err)
			}
		}
		return ir.Invoke{Out: out, Callee: callee, Args: args, FirstArgOffset: d.Offset}, nil
	case ir.KindOther:
		return ir.Other{Out: out, Op: d.Value}, nil
	default:
		return nil, fmt.Errorf("unknown op %q", d.Op)
	}
}

func decodeOperand(d OperandDump) (ir.Operand, error) {
	switch {
	case d.Reg != nil:
		return ir.Register{Num: *d.Reg}, nil
	case d.Wrap != nil:
		insn, err := decodeInsn(*d.Wrap)
		if err != nil {
			return nil, fmt.Errorf("wrapped: %w", err)
		}
		return ir.Wrapped{Insn: insn}, nil
	default:
		return ir.Opaque{Text: d.Text}, nil
	}
}

// parseCallee reads a full-form method descriptor. Call sites always carry
// a signature.
func parseCallee(text string) (ir.MethodDesc, error) {
	ref, err := methodref.Parse(text)
	if err != nil {
		return ir.MethodDesc{}, fmt.Errorf("call: %w", err)
	}
	if !ref.HasSignature {
		return ir.MethodDesc{}, fmt.Errorf("call %q: missing signature", text)
	}
	return ir.MethodDesc{
		Owner:  ref.Owner,
		Name:   ref.Name,
		Args:   ref.Args,
		Return: ref.Return,
	}, nil
}

func encodeBody(body []ir.Instruction) ([]InsnDump, error) {
	out := make([]InsnDump, 0, len(body))
	for i, insn := range body {
		d, err := encodeInsn(insn)
		if err != nil {
			return nil, fmt.Errorf("instruction %d: %w", i, err)
		}
		out = append(out, d)
	}
	return out, nil
}

func encodeInsn(insn ir.Instruction) (InsnDump, error) {
	var d InsnDump
	if insn == nil {
		return d, errors.New("nil instruction")
	}
	d.Op = string(insn.Kind())
	if r := insn.Result(); r.Set {
		reg := r.Reg
		d.Dest = &reg
	}

	switch v := insn.(type) {
	case ir.ConstString:
		d.Value = v.Value
	case ir.Move:
		src, err := encodeOperand(v.Src)
		if err != nil {
			return d, err
		}
		d.Src = &src
	case ir.Invoke:
		d.Call = v.Callee.String()
		d.Offset = v.FirstArgOffset
		for _, a := range v.Args {
			op, err := encodeOperand(a)
			if err != nil {
				return d, err
			}
			d.Args = append(d.Args, op)
		}
	case ir.Other:
		d.Value = v.Op
	}
	return d, nil
}

func encodeOperand(op ir.Operand) (OperandDump, error) {
	switch v := op.(type) {
	case ir.Register:
		reg := v.Num
		return OperandDump{Reg: &reg}, nil
	case ir.Wrapped:
		inner, err := encodeInsn(v.Insn)
		if err != nil {
			return OperandDump{}, fmt.Errorf("wrapped: %w", err)
		}
		return OperandDump{Wrap: &inner}, nil
	case ir.Opaque:
		return OperandDump{Text: v.Text}, nil
	default:
		return OperandDump{}, fmt.Errorf("unknown operand %T", op)
	}
}
