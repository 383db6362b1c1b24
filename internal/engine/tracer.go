package engine

import (
	"fmt"
	"log/slog"

	"github.com/roach88/logrename/internal/ir"
)

const (
	// TraceBudget is the maximum number of move hops followed while
	// tracing a register back to its string constant.
	TraceBudget = 10

	// TraceWindow caps how many preceding instructions a single trace
	// inspects, including instructions that do not touch the register.
	TraceWindow = 512
)

// Tracer resolves invoke arguments to string literals by walking backward
// through the instructions that precede the call.
//
// Decompiled register reuse routes literals through short chains of moves
// before they reach a call site. Each followed move consumes one step of
// the budget; instructions that do not define the tracked register are
// skipped but still count against the window. The budget bounds the chain,
// the window bounds the scan, and running out of either is ErrTraceBudget.
// The first definition that is neither a const-string nor a move ends the
// trace.
type Tracer struct {
	Budget int
	Window int
}

// NewTracer returns a tracer with the default budget and window.
func NewTracer() Tracer {
	return Tracer{Budget: TraceBudget, Window: TraceWindow}
}

// ExtractStringArg resolves logical argument argIndex of the invoke at
// insns[pos]. The logical index is shifted by the invoke's FirstArgOffset
// so that an implicit receiver is skipped.
func (t Tracer) ExtractStringArg(insns []ir.Instruction, pos, argIndex int) (string, error) {
	if pos < 0 || pos >= len(insns) {
		return "", fmt.Errorf("invoke position %d: %w", pos, ErrArgOutOfRange)
	}
	inv, ok := insns[pos].(ir.Invoke)
	if !ok {
		return "", fmt.Errorf("instruction %d: %w", pos, ErrNotInvoke)
	}

	idx := inv.FirstArgOffset + argIndex
	if argIndex < 0 || idx < 0 || idx >= len(inv.Args) {
		slog.Debug("argument index out of bounds",
			"arg", argIndex,
			"offset", inv.FirstArgOffset,
			"args", len(inv.Args),
		)
		return "", ErrArgOutOfRange
	}

	switch op := inv.Args[idx].(type) {
	case ir.Wrapped:
		if s, ok := ir.WrappedConstString(op); ok {
			slog.Debug("string arg from wrapped const", "value", s)
			return s, nil
		}
		return "", ErrNotConstString
	case ir.Register:
		return t.traceRegister(op.Num, pos, insns)
	default:
		return "", ErrNotConstString
	}
}

func (t Tracer) traceRegister(reg, pos int, insns []ir.Instruction) (string, error) {
	hops := 0
	scanned := 0
	for i := pos - 1; i >= 0; i-- {
		if t.Window > 0 && scanned >= t.Window {
			slog.Debug("trace window exhausted", "window", t.Window, "register", reg)
			return "", ErrTraceBudget
		}
		scanned++

		insn := insns[i]
		if insn == nil {
			continue
		}
		out := insn.Result()
		if !out.Set || out.Reg != reg {
			continue
		}

		switch def := insn.(type) {
		case ir.ConstString:
			slog.Debug("string arg from const", "value", def.Value, "hops", hops)
			return def.Value, nil
		case ir.Move:
			if s, ok := ir.WrappedConstString(def.Src); ok {
				slog.Debug("string arg from wrapped move", "value", s, "hops", hops)
				return s, nil
			}
			src, ok := def.Src.(ir.Register)
			if !ok {
				return "", ErrBrokenChain
			}
			if hops >= t.Budget {
				slog.Debug("trace budget exhausted", "budget", t.Budget, "register", reg)
				return "", ErrTraceBudget
			}
			hops++
			slog.Debug("follow move chain", "from", reg, "to", src.Num)
			reg = src.Num
		default:
			slog.Debug("non-const producer", "register", reg, "kind", insn.Kind())
			return "", ErrBrokenChain
		}
	}
	return "", ErrNoDefinition
}
