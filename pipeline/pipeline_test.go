// This file is part of lirjit - https://github.com/lirjit/lirjit
//
// Copyright 2024 The lirjit Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pipeline_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lirjit/lirjit/internal/arena"
	"github.com/lirjit/lirjit/ir"
	"github.com/lirjit/lirjit/pipeline"
)

func newBuffer() *ir.Buffer {
	return ir.NewBuffer(arena.New[ir.Node](64))
}

// TestCSE_IdenticalPureOpsShareOneNode checks that two identical pure
// additions with the same operands collapse to the single Node computed
// by the first, per §8's CSE idempotence property.
func TestCSE_IdenticalPureOpsShareOneNode(t *testing.T) {
	buf := newBuffer()
	top := pipeline.Build(buf, pipeline.Options{CSE: true})

	a, err := top.Emit(ir.Instruction{Op: ir.OpImmI, Imm: 2})
	require.NoError(t, err)
	b, err := top.Emit(ir.Instruction{Op: ir.OpImmI, Imm: 3})
	require.NoError(t, err)

	sum1, err := top.Emit(ir.Instruction{Op: ir.OpAddI, Args: []*ir.Node{a, b}})
	require.NoError(t, err)
	sum2, err := top.Emit(ir.Instruction{Op: ir.OpAddI, Args: []*ir.Node{a, b}})
	require.NoError(t, err)

	assert.Same(t, sum1, sum2)
	assert.Equal(t, 3, buf.Len()) // immi, immi, addi -- the second addi was elided
}

// TestCSE_StoreInvalidatesOverlappingLoad checks that a store to the same
// access set as a prior load busts the load's cache entry, so a second
// identical load re-executes rather than returning the stale cached Node.
func TestCSE_StoreInvalidatesOverlappingLoad(t *testing.T) {
	buf := newBuffer()
	top := pipeline.Build(buf, pipeline.Options{CSE: true})

	base, err := top.Emit(ir.Instruction{Op: ir.OpAllocP, Args: []*ir.Node{mustImm(t, top, 4)}})
	require.NoError(t, err)
	off, err := top.Emit(ir.Instruction{Op: ir.OpImmI, Imm: 0})
	require.NoError(t, err)

	ld1, err := top.Emit(ir.Instruction{Op: ir.OpLdI, Args: []*ir.Node{base}, Imm: off.Imm, Access: 1})
	require.NoError(t, err)

	val, err := top.Emit(ir.Instruction{Op: ir.OpImmI, Imm: 9})
	require.NoError(t, err)
	_, err = top.Emit(ir.Instruction{Op: ir.OpStI, Args: []*ir.Node{val, base}, Imm: off.Imm, Access: 1})
	require.NoError(t, err)

	ld2, err := top.Emit(ir.Instruction{Op: ir.OpLdI, Args: []*ir.Node{base}, Imm: off.Imm, Access: 1})
	require.NoError(t, err)

	assert.NotSame(t, ld1, ld2, "store to overlapping access set must invalidate the cached load")
}

// TestCSE_DisjointAccessSetLoadSurvivesStore checks the converse: a store
// tagged with an access class disjoint from a load's must not invalidate
// that load's cache entry.
func TestCSE_DisjointAccessSetLoadSurvivesStore(t *testing.T) {
	buf := newBuffer()
	top := pipeline.Build(buf, pipeline.Options{CSE: true})

	base, err := top.Emit(ir.Instruction{Op: ir.OpAllocP, Args: []*ir.Node{mustImm(t, top, 4)}})
	require.NoError(t, err)
	off, err := top.Emit(ir.Instruction{Op: ir.OpImmI, Imm: 0})
	require.NoError(t, err)

	ld1, err := top.Emit(ir.Instruction{Op: ir.OpLdI, Args: []*ir.Node{base}, Imm: off.Imm, Access: 1})
	require.NoError(t, err)

	val, err := top.Emit(ir.Instruction{Op: ir.OpImmI, Imm: 9})
	require.NoError(t, err)
	_, err = top.Emit(ir.Instruction{Op: ir.OpStI, Args: []*ir.Node{val, base}, Imm: off.Imm, Access: 2})
	require.NoError(t, err)

	ld2, err := top.Emit(ir.Instruction{Op: ir.OpLdI, Args: []*ir.Node{base}, Imm: off.Imm, Access: 1})
	require.NoError(t, err)

	assert.Same(t, ld1, ld2)
}

// TestCSE_LabelFlushesCache checks that a label instruction, marking a
// basic block boundary, busts the cache even for an otherwise-identical
// pure computation.
func TestCSE_LabelFlushesCache(t *testing.T) {
	buf := newBuffer()
	top := pipeline.Build(buf, pipeline.Options{CSE: true})

	a, err := top.Emit(ir.Instruction{Op: ir.OpImmI, Imm: 2})
	require.NoError(t, err)
	b, err := top.Emit(ir.Instruction{Op: ir.OpImmI, Imm: 3})
	require.NoError(t, err)
	sum1, err := top.Emit(ir.Instruction{Op: ir.OpAddI, Args: []*ir.Node{a, b}})
	require.NoError(t, err)

	_, err = top.Emit(ir.Instruction{Op: ir.OpLabel, Name: "L0"})
	require.NoError(t, err)

	sum2, err := top.Emit(ir.Instruction{Op: ir.OpAddI, Args: []*ir.Node{a, b}})
	require.NoError(t, err)

	assert.NotSame(t, sum1, sum2)
}

// TestFold_ConstantFoldsToSingleImmediate reproduces §8's constant
// folding example: immi 3; immi 4; r = addi t0 t1; reti r folds to an
// immi 7 followed directly by reti.
func TestFold_ConstantFoldsToSingleImmediate(t *testing.T) {
	buf := newBuffer()
	top := pipeline.Build(buf, pipeline.Options{Fold: true})

	a, err := top.Emit(ir.Instruction{Op: ir.OpImmI, Imm: 3})
	require.NoError(t, err)
	b, err := top.Emit(ir.Instruction{Op: ir.OpImmI, Imm: 4})
	require.NoError(t, err)
	r, err := top.Emit(ir.Instruction{Op: ir.OpAddI, Args: []*ir.Node{a, b}, Name: "r"})
	require.NoError(t, err)
	_, err = top.Emit(ir.Instruction{Op: ir.OpRetI, Args: []*ir.Node{r}})
	require.NoError(t, err)

	require.Equal(t, ir.OpImmI, r.Op)
	assert.EqualValues(t, 7, r.Imm)

	ret := buf.Tail()
	require.Equal(t, ir.OpRetI, ret.Op)
	assert.Same(t, r, ret.Args[0])
}

// TestFold_AdditiveIdentityReturnsOperand checks x+0 -> x without
// emitting a new node.
func TestFold_AdditiveIdentityReturnsOperand(t *testing.T) {
	buf := newBuffer()
	top := pipeline.Build(buf, pipeline.Options{Fold: true})

	x, err := top.Emit(ir.Instruction{Op: ir.OpParam, Type: ir.TyI32})
	require.NoError(t, err)
	zero, err := top.Emit(ir.Instruction{Op: ir.OpImmI, Imm: 0})
	require.NoError(t, err)
	sum, err := top.Emit(ir.Instruction{Op: ir.OpAddI, Args: []*ir.Node{x, zero}})
	require.NoError(t, err)

	assert.Same(t, x, sum)
}

// TestFold_CmovSelectsArmWhenConditionConstant checks cmov folding
// when the condition is a compile-time constant.
func TestFold_CmovSelectsArmWhenConditionConstant(t *testing.T) {
	buf := newBuffer()
	top := pipeline.Build(buf, pipeline.Options{Fold: true})

	cond, err := top.Emit(ir.Instruction{Op: ir.OpImmI, Imm: 1})
	require.NoError(t, err)
	onTrue, err := top.Emit(ir.Instruction{Op: ir.OpImmI, Imm: 10})
	require.NoError(t, err)
	onFalse, err := top.Emit(ir.Instruction{Op: ir.OpImmI, Imm: 20})
	require.NoError(t, err)
	r, err := top.Emit(ir.Instruction{Op: ir.OpCmovI, Args: []*ir.Node{cond, onTrue, onFalse}})
	require.NoError(t, err)

	assert.Same(t, onTrue, r)
}

// TestSoftFloat_RewritesArithmeticToHelperCall checks that a soft-float
// addition becomes a call against the matching libgcc-style helper
// routine, with the call's own reverse-lexical-order argument vector
// convention preserved, rather than a native addd/addf.
func TestSoftFloat_RewritesArithmeticToHelperCall(t *testing.T) {
	buf := newBuffer()
	top := pipeline.Build(buf, pipeline.Options{SoftFloat: true})

	a, err := top.Emit(ir.Instruction{Op: ir.OpParam, Type: ir.TyF32})
	require.NoError(t, err)
	b, err := top.Emit(ir.Instruction{Op: ir.OpParam, Type: ir.TyF32})
	require.NoError(t, err)
	r, err := top.Emit(ir.Instruction{Op: ir.OpAddF, Args: []*ir.Node{a, b}})
	require.NoError(t, err)

	require.Equal(t, ir.OpCallF, r.Op)
	require.NotNil(t, r.Call)
	assert.Equal(t, "__addsf3", r.Call.Name)
	require.Len(t, r.Args, 2)
	assert.Same(t, b, r.Args[0])
	assert.Same(t, a, r.Args[1])
}

// TestSoftFloat_RewritesDoubleArithmeticAndCasts checks that the filter
// also covers double-precision arithmetic and the float-involving cast
// family, not just single-precision ops, per §4.3.4's "no FP hardware"
// precondition.
func TestSoftFloat_RewritesDoubleArithmeticAndCasts(t *testing.T) {
	buf := newBuffer()
	top := pipeline.Build(buf, pipeline.Options{SoftFloat: true})

	x, err := top.Emit(ir.Instruction{Op: ir.OpParam, Type: ir.TyF64})
	require.NoError(t, err)
	y, err := top.Emit(ir.Instruction{Op: ir.OpParam, Type: ir.TyF64})
	require.NoError(t, err)
	sum, err := top.Emit(ir.Instruction{Op: ir.OpAddD, Args: []*ir.Node{x, y}})
	require.NoError(t, err)
	require.Equal(t, ir.OpCallD, sum.Op)
	assert.Equal(t, "__adddf3", sum.Call.Name)

	i, err := top.Emit(ir.Instruction{Op: ir.OpParam, Type: ir.TyI32})
	require.NoError(t, err)
	widened, err := top.Emit(ir.Instruction{Op: ir.OpI2D, Args: []*ir.Node{i}})
	require.NoError(t, err)
	require.Equal(t, ir.OpCallD, widened.Op)
	assert.Equal(t, "__floatsidf", widened.Call.Name)
}

// TestValidate_RejectsOperandKindMismatch checks that feeding an immd
// where addi expects two immi operands is a fatal validator error
// rather than a silent misinterpretation downstream.
func TestValidate_RejectsOperandKindMismatch(t *testing.T) {
	buf := newBuffer()
	top := pipeline.Build(buf, pipeline.Options{})

	a, err := top.Emit(ir.Instruction{Op: ir.OpImmD, Imm: ir.EncodeF64(1)})
	require.NoError(t, err)
	b, err := top.Emit(ir.Instruction{Op: ir.OpImmI, Imm: 2})
	require.NoError(t, err)

	_, err = top.Emit(ir.Instruction{Op: ir.OpAddI, Args: []*ir.Node{a, b}})
	require.Error(t, err)

	var verr *pipeline.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, ir.OpAddI, verr.Op)
}

// TestValidate_RejectsCallArgumentTypeMismatch checks that a call whose
// operand kind disagrees with its own CallInfo signature is rejected the
// same way.
func TestValidate_RejectsCallArgumentTypeMismatch(t *testing.T) {
	buf := newBuffer()
	top := pipeline.Build(buf, pipeline.Options{})

	i, err := top.Emit(ir.Instruction{Op: ir.OpImmI, Imm: 1})
	require.NoError(t, err)

	ci := ir.CallInfo{Name: "sin", ABI: ir.ABICdecl, Args: []ir.ResultType{ir.TyF64}, Ret: ir.TyF64, Pure: true}
	_, err = top.Emit(ir.Instruction{Op: ir.OpCallD, Args: []*ir.Node{i}, Call: &ci})
	require.Error(t, err)
}

// TestDisassemble_CallOperandsRoundTrip checks that a call node's
// disassembly reads "<mnemonic> <name> <abi> <args in natural order>",
// matching what asm.parseCall accepts, even though the Node itself stores
// its argument vector in reverse lexical order.
func TestDisassemble_CallOperandsRoundTrip(t *testing.T) {
	buf := newBuffer()
	top := pipeline.Build(buf, pipeline.Options{})

	a, err := top.Emit(ir.Instruction{Op: ir.OpImmD, Imm: ir.EncodeF64(1), Name: "a"})
	require.NoError(t, err)
	b, err := top.Emit(ir.Instruction{Op: ir.OpImmD, Imm: ir.EncodeF64(2), Name: "b"})
	require.NoError(t, err)

	ci := ir.CallInfo{Name: "pow", ABI: ir.ABICdecl, Args: []ir.ResultType{ir.TyF64, ir.TyF64}, Ret: ir.TyF64, Pure: true}
	r, err := top.Emit(ir.Instruction{
		Op:   ir.OpCallD,
		Args: []*ir.Node{b, a}, // reverse lexical order, per asm.parseCall
		Call: &ci,
		Name: "r",
	})
	require.NoError(t, err)

	assert.Equal(t, "r = calld pow cdecl a b", pipeline.Disassemble(r))
}

// TestVerbose_LogsOneLinePerEmission checks the verbose stage's dump
// format and that it passes every emission through unchanged.
func TestVerbose_LogsOneLinePerEmission(t *testing.T) {
	buf := newBuffer()
	var log bytes.Buffer
	top := pipeline.Build(buf, pipeline.Options{VerboseLog: &log})

	_, err := top.Emit(ir.Instruction{Op: ir.OpImmI, Imm: 5, Name: "t0"})
	require.NoError(t, err)

	assert.Contains(t, log.String(), "t0 = immi 5")
}

// TestChain_FoldAndCSECompose checks that folding and CSE work together:
// CSE sits upstream of Fold in the chain, so the first addi forwards
// through to Fold and comes back as an immi 7, which CSE then caches
// under the original addi's key; the second, identical addi never
// reaches Fold at all -- CSE returns the cached folded node directly.
func TestChain_FoldAndCSECompose(t *testing.T) {
	buf := newBuffer()
	top := pipeline.Build(buf, pipeline.Options{CSE: true, Fold: true})

	a, err := top.Emit(ir.Instruction{Op: ir.OpImmI, Imm: 3})
	require.NoError(t, err)
	b, err := top.Emit(ir.Instruction{Op: ir.OpImmI, Imm: 4})
	require.NoError(t, err)

	r1, err := top.Emit(ir.Instruction{Op: ir.OpAddI, Args: []*ir.Node{a, b}})
	require.NoError(t, err)
	r2, err := top.Emit(ir.Instruction{Op: ir.OpAddI, Args: []*ir.Node{a, b}})
	require.NoError(t, err)

	assert.Same(t, r1, r2)
	assert.Equal(t, ir.OpImmI, r1.Op)
	assert.EqualValues(t, 7, r1.Imm)
}

func mustImm(t *testing.T, s ir.Sink, v int64) *ir.Node {
	t.Helper()
	n, err := s.Emit(ir.Instruction{Op: ir.OpImmI, Imm: v})
	require.NoError(t, err)
	return n
}
