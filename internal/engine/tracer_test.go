package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/logrename/internal/ir"
	"github.com/roach88/logrename/internal/testutil"
)

const sinkRef = "a/Sink->s(Ljava/lang/String;Ljava/lang/String;)V"

// withCall appends a static call to sinkRef and returns its position.
func withCall(insns []ir.Instruction, args ...ir.Operand) ([]ir.Instruction, int) {
	insns = append(insns, testutil.Call(sinkRef, args...))
	return insns, len(insns) - 1
}

func TestTracer_WrappedConst(t *testing.T) {
	insns, pos := withCall(nil, testutil.Lit("com/foo/Bar"), testutil.Lit("m"))

	s, err := NewTracer().ExtractStringArg(insns, pos, 0)
	require.NoError(t, err)
	assert.Equal(t, "com/foo/Bar", s)

	s, err = NewTracer().ExtractStringArg(insns, pos, 1)
	require.NoError(t, err)
	assert.Equal(t, "m", s)
}

func TestTracer_DirectConst(t *testing.T) {
	insns, pos := withCall([]ir.Instruction{
		testutil.Const(0, "com/foo/Bar"),
		testutil.Nop(),
		testutil.Op(3, "new-instance"),
	}, testutil.Reg(0), testutil.Reg(3))

	s, err := NewTracer().ExtractStringArg(insns, pos, 0)
	require.NoError(t, err)
	assert.Equal(t, "com/foo/Bar", s)
}

func TestTracer_MoveChainBudget(t *testing.T) {
	tests := []struct {
		name    string
		hops    int
		wantErr error
	}{
		{"no moves", 0, nil},
		{"one move", 1, nil},
		{"ten moves", 10, nil},
		{"eleven moves", 11, ErrTraceBudget},
		{"twenty moves", 20, ErrTraceBudget},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain, reg := testutil.MoveChain("a.b.C", tt.hops)
			insns, pos := withCall(chain, testutil.Reg(reg))

			s, err := NewTracer().ExtractStringArg(insns, pos, 0)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, s)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "a.b.C", s)
		})
	}
}

func TestTracer_CustomBudget(t *testing.T) {
	chain, reg := testutil.MoveChain("x", 3)
	insns, pos := withCall(chain, testutil.Reg(reg))

	_, err := Tracer{Budget: 2, Window: TraceWindow}.ExtractStringArg(insns, pos, 0)
	assert.ErrorIs(t, err, ErrTraceBudget)

	s, err := Tracer{Budget: 3, Window: TraceWindow}.ExtractStringArg(insns, pos, 0)
	require.NoError(t, err)
	assert.Equal(t, "x", s)
}

func TestTracer_MoveFromWrappedConst(t *testing.T) {
	insns, pos := withCall([]ir.Instruction{
		testutil.MoveLit(2, "lit"),
		testutil.Move(4, 2),
	}, testutil.Reg(4))

	s, err := NewTracer().ExtractStringArg(insns, pos, 0)
	require.NoError(t, err)
	assert.Equal(t, "lit", s)
}

func TestTracer_SkipsUnrelatedDefinitions(t *testing.T) {
	insns, pos := withCall([]ir.Instruction{
		testutil.Const(1, "wanted"),
		testutil.Const(2, "other"),
		testutil.Op(3, "iget"),
		nil,
		testutil.Nop(),
	}, testutil.Reg(1))

	s, err := NewTracer().ExtractStringArg(insns, pos, 0)
	require.NoError(t, err)
	assert.Equal(t, "wanted", s)
}

func TestTracer_NearestDefinitionWins(t *testing.T) {
	insns, pos := withCall([]ir.Instruction{
		testutil.Const(0, "old"),
		testutil.Const(0, "new"),
	}, testutil.Reg(0))

	s, err := NewTracer().ExtractStringArg(insns, pos, 0)
	require.NoError(t, err)
	assert.Equal(t, "new", s)
}

func TestTracer_BrokenChain(t *testing.T) {
	// A non-constant producer ends the trace even though an older
	// const-string for the same register exists.
	insns, pos := withCall([]ir.Instruction{
		testutil.Const(0, "stale"),
		testutil.Op(0, "invoke-result"),
	}, testutil.Reg(0))

	_, err := NewTracer().ExtractStringArg(insns, pos, 0)
	assert.ErrorIs(t, err, ErrBrokenChain)
}

func TestTracer_MoveFromOpaque(t *testing.T) {
	insns, pos := withCall([]ir.Instruction{
		ir.Move{Out: ir.To(0), Src: testutil.Text("field")},
	}, testutil.Reg(0))

	_, err := NewTracer().ExtractStringArg(insns, pos, 0)
	assert.ErrorIs(t, err, ErrBrokenChain)
}

func TestTracer_NoDefinition(t *testing.T) {
	insns, pos := withCall([]ir.Instruction{
		testutil.Const(1, "unrelated"),
	}, testutil.Reg(7))

	_, err := NewTracer().ExtractStringArg(insns, pos, 0)
	assert.ErrorIs(t, err, ErrNoDefinition)
}

func TestTracer_Window(t *testing.T) {
	insns := []ir.Instruction{testutil.Const(0, "far")}
	for i := 0; i < 5; i++ {
		insns = append(insns, testutil.Nop())
	}
	insns, pos := withCall(insns, testutil.Reg(0))

	_, err := Tracer{Budget: TraceBudget, Window: 5}.ExtractStringArg(insns, pos, 0)
	assert.ErrorIs(t, err, ErrTraceBudget)

	s, err := Tracer{Budget: TraceBudget, Window: 6}.ExtractStringArg(insns, pos, 0)
	require.NoError(t, err)
	assert.Equal(t, "far", s)
}

func TestTracer_NotInvoke(t *testing.T) {
	insns := []ir.Instruction{testutil.Const(0, "x"), testutil.Nop()}

	_, err := NewTracer().ExtractStringArg(insns, 1, 0)
	assert.ErrorIs(t, err, ErrNotInvoke)
	assert.NotErrorIs(t, err, ErrArgOutOfRange)
}

func TestTracer_NotConstString(t *testing.T) {
	insns, pos := withCall(nil,
		ir.Wrapped{Insn: ir.Other{Op: "sget"}},
		testutil.Text("p0"),
	)

	_, err := NewTracer().ExtractStringArg(insns, pos, 0)
	assert.ErrorIs(t, err, ErrNotConstString)

	_, err = NewTracer().ExtractStringArg(insns, pos, 1)
	assert.ErrorIs(t, err, ErrNotConstString)
}

func TestTracer_ArgOutOfRange(t *testing.T) {
	insns, pos := withCall(nil, testutil.Lit("only"))

	_, err := NewTracer().ExtractStringArg(insns, pos, 1)
	assert.ErrorIs(t, err, ErrArgOutOfRange)

	_, err = NewTracer().ExtractStringArg(insns, pos, -1)
	assert.ErrorIs(t, err, ErrArgOutOfRange)

	_, err = NewTracer().ExtractStringArg(insns, 5, 0)
	assert.ErrorIs(t, err, ErrArgOutOfRange)
}

func TestTracer_ReceiverOffset(t *testing.T) {
	call := testutil.VirtualCall(sinkRef, testutil.Lit("receiver"), testutil.Lit("first"), testutil.Lit("second"))
	insns := []ir.Instruction{call}

	s, err := NewTracer().ExtractStringArg(insns, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "first", s)

	s, err = NewTracer().ExtractStringArg(insns, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, "second", s)
}

func TestTracer_NotAnInvoke(t *testing.T) {
	_, err := NewTracer().ExtractStringArg([]ir.Instruction{testutil.Nop()}, 0, 0)
	assert.Error(t, err)
}
