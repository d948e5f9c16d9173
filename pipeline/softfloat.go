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

package pipeline

import "github.com/lirjit/lirjit/ir"

// SoftFloat rewrites every floating point arithmetic and conversion
// opcode into a call against the matching soft-float helper routine, per
// §4.3.4. It is an optional stage for targets with no FP hardware at
// all: rather than leave addd/mulf/i2d and kin as native ops the native
// backend has no register class for, it lowers each one to a call,
// naming the routine the way libgcc's own soft-float runtime does
// (__adddf3, __floatsidf, ...). Loads, stores and immediates pass
// through untouched, since they govern the in-memory representation,
// not the computation.
type SoftFloat struct {
	Next ir.Sink
}

// softFloatRoutine names the helper a rewritten opcode calls, and the
// natural-order argument/return types asm.BuiltinFunctions-style CallInfo
// literals carry.
type softFloatRoutine struct {
	name   string
	callOp ir.Opcode
	args   []ir.ResultType
	ret    ir.ResultType
}

var softFloatRoutines = map[ir.Opcode]softFloatRoutine{
	// Single-precision arithmetic.
	ir.OpAddF: {"__addsf3", ir.OpCallF, []ir.ResultType{ir.TyF32, ir.TyF32}, ir.TyF32},
	ir.OpSubF: {"__subsf3", ir.OpCallF, []ir.ResultType{ir.TyF32, ir.TyF32}, ir.TyF32},
	ir.OpMulF: {"__mulsf3", ir.OpCallF, []ir.ResultType{ir.TyF32, ir.TyF32}, ir.TyF32},
	ir.OpDivF: {"__divsf3", ir.OpCallF, []ir.ResultType{ir.TyF32, ir.TyF32}, ir.TyF32},
	ir.OpNegF: {"__negsf2", ir.OpCallF, []ir.ResultType{ir.TyF32}, ir.TyF32},

	// Double-precision arithmetic.
	ir.OpAddD: {"__adddf3", ir.OpCallD, []ir.ResultType{ir.TyF64, ir.TyF64}, ir.TyF64},
	ir.OpSubD: {"__subdf3", ir.OpCallD, []ir.ResultType{ir.TyF64, ir.TyF64}, ir.TyF64},
	ir.OpMulD: {"__muldf3", ir.OpCallD, []ir.ResultType{ir.TyF64, ir.TyF64}, ir.TyF64},
	ir.OpDivD: {"__divdf3", ir.OpCallD, []ir.ResultType{ir.TyF64, ir.TyF64}, ir.TyF64},
	ir.OpNegD: {"__negdf2", ir.OpCallD, []ir.ResultType{ir.TyF64}, ir.TyF64},

	// i2d and kin: every cast that touches a float/double representation.
	ir.OpI2D:  {"__floatsidf", ir.OpCallD, []ir.ResultType{ir.TyI32}, ir.TyF64},
	ir.OpUI2D: {"__floatunsidf", ir.OpCallD, []ir.ResultType{ir.TyI32}, ir.TyF64},
	ir.OpD2I:  {"__fixdfsi", ir.OpCallI, []ir.ResultType{ir.TyF64}, ir.TyI32},
	ir.OpQ2D:  {"__floatdidf", ir.OpCallD, []ir.ResultType{ir.TyI64}, ir.TyF64},
	ir.OpD2Q:  {"__fixdfdi", ir.OpCallQ, []ir.ResultType{ir.TyF64}, ir.TyI64},
	ir.OpF2D:  {"__extendsfdf2", ir.OpCallD, []ir.ResultType{ir.TyF32}, ir.TyF64},
	ir.OpD2F:  {"__truncdfsf2", ir.OpCallF, []ir.ResultType{ir.TyF64}, ir.TyF32},
}

// Emit implements ir.Sink.
func (sf *SoftFloat) Emit(in ir.Instruction) (*ir.Node, error) {
	routine, ok := softFloatRoutines[in.Op]
	if !ok {
		return sf.Next.Emit(in)
	}

	// n.Args is stored in reverse lexical order for call nodes (§9
	// Design Notes), the same convention asm.parseCall establishes and
	// native.callBuiltin un-reverses before evaluating.
	rev := make([]*ir.Node, len(in.Args))
	for i, a := range in.Args {
		rev[len(in.Args)-1-i] = a
	}

	ci := ir.CallInfo{
		Name: routine.name,
		ABI:  ir.ABICdecl,
		Args: routine.args,
		Ret:  routine.ret,
		Pure: true,
	}
	return sf.Next.Emit(ir.Instruction{
		Op:   routine.callOp,
		Type: routine.ret,
		Args: rev,
		Call: &ci,
		Name: in.Name,
		Line: in.Line,
	})
}
