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

// Package pipeline implements the writer pipeline (§4.3): an ordered
// chain of ir.Sink decorators, the head of which is what the fragment
// assembler calls and each link of which forwards (possibly after
// transformation) to the next. Every link has local state only.
package pipeline

import (
	"strconv"

	"github.com/lirjit/lirjit/ir"
)

// Validate type-checks every emission before forwarding it unchanged. It
// is purely observational: it never alters the instruction stream, only
// rejects malformed ones. Two instances run in the full pipeline, one at
// the top (§4.3.1) seeing exactly what the parser requested, one at the
// bottom (§4.3.6) seeing whatever the optimizer filters produced.
type Validate struct {
	Next ir.Sink
}

// Emit implements ir.Sink.
func (v *Validate) Emit(in ir.Instruction) (*ir.Node, error) {
	if err := checkShape(in); err != nil {
		return nil, err
	}
	return v.Next.Emit(in)
}

// opArgTypes gives the expected ResultType of each fixed operand, in
// natural (not reverse-call) order, for every arithmetic, comparison,
// cmov and cast opcode, plus the i32 condition of jt/jf/xt/xf. Calls are
// checked against their CallInfo instead; the operands of opcodes outside
// this table (loads, stores, j, jov, returns and the rest) are not
// kind-checked.
var opArgTypes = map[ir.Opcode][]ir.ResultType{
	ir.OpAddI: {ir.TyI32, ir.TyI32}, ir.OpSubI: {ir.TyI32, ir.TyI32},
	ir.OpMulI: {ir.TyI32, ir.TyI32}, ir.OpDivI: {ir.TyI32, ir.TyI32},
	ir.OpModI: {ir.TyI32, ir.TyI32}, ir.OpAndI: {ir.TyI32, ir.TyI32},
	ir.OpOrI: {ir.TyI32, ir.TyI32}, ir.OpXorI: {ir.TyI32, ir.TyI32},
	ir.OpLshI: {ir.TyI32, ir.TyI32}, ir.OpRshI: {ir.TyI32, ir.TyI32},
	ir.OpRshUI: {ir.TyI32, ir.TyI32},
	ir.OpNegI:  {ir.TyI32}, ir.OpNotI: {ir.TyI32},

	ir.OpAddQ: {ir.TyI64, ir.TyI64}, ir.OpSubQ: {ir.TyI64, ir.TyI64},
	ir.OpMulQ: {ir.TyI64, ir.TyI64}, ir.OpAndQ: {ir.TyI64, ir.TyI64},
	ir.OpOrQ: {ir.TyI64, ir.TyI64}, ir.OpXorQ: {ir.TyI64, ir.TyI64},
	ir.OpLshQ: {ir.TyI64, ir.TyI64}, ir.OpRshQ: {ir.TyI64, ir.TyI64},
	ir.OpRshUQ: {ir.TyI64, ir.TyI64},

	ir.OpAddD: {ir.TyF64, ir.TyF64}, ir.OpSubD: {ir.TyF64, ir.TyF64},
	ir.OpMulD: {ir.TyF64, ir.TyF64}, ir.OpDivD: {ir.TyF64, ir.TyF64},
	ir.OpNegD: {ir.TyF64},

	ir.OpAddF: {ir.TyF32, ir.TyF32}, ir.OpSubF: {ir.TyF32, ir.TyF32},
	ir.OpMulF: {ir.TyF32, ir.TyF32}, ir.OpDivF: {ir.TyF32, ir.TyF32},
	ir.OpNegF: {ir.TyF32},

	ir.OpEqI: {ir.TyI32, ir.TyI32}, ir.OpLtI: {ir.TyI32, ir.TyI32},
	ir.OpGtI: {ir.TyI32, ir.TyI32}, ir.OpLeI: {ir.TyI32, ir.TyI32},
	ir.OpGeI: {ir.TyI32, ir.TyI32},
	ir.OpEqQ: {ir.TyI64, ir.TyI64}, ir.OpLtQ: {ir.TyI64, ir.TyI64},
	ir.OpGtQ: {ir.TyI64, ir.TyI64}, ir.OpLeQ: {ir.TyI64, ir.TyI64},
	ir.OpGeQ: {ir.TyI64, ir.TyI64},
	ir.OpEqD: {ir.TyF64, ir.TyF64}, ir.OpLtD: {ir.TyF64, ir.TyF64},
	ir.OpGtD: {ir.TyF64, ir.TyF64}, ir.OpLeD: {ir.TyF64, ir.TyF64},
	ir.OpGeD: {ir.TyF64, ir.TyF64},

	ir.OpCmovI: {ir.TyI32, ir.TyI32, ir.TyI32},
	ir.OpCmovQ: {ir.TyI32, ir.TyI64, ir.TyI64},
	ir.OpCmovD: {ir.TyI32, ir.TyF64, ir.TyF64},

	ir.OpI2Q:  {ir.TyI32},
	ir.OpQ2I:  {ir.TyI64},
	ir.OpI2D:  {ir.TyI32},
	ir.OpUI2D: {ir.TyI32},
	ir.OpD2I:  {ir.TyF64},
	ir.OpQ2D:  {ir.TyI64},
	ir.OpD2Q:  {ir.TyF64},
	ir.OpF2D:  {ir.TyF32},
	ir.OpD2F:  {ir.TyF64},

	ir.OpJt: {ir.TyI32}, ir.OpJf: {ir.TyI32},
	ir.OpXt: {ir.TyI32}, ir.OpXf: {ir.TyI32},
}

func checkShape(in ir.Instruction) error {
	shape := in.Op.ShapeOf()
	n := in.Op.NumArgs()
	switch shape {
	case ir.ShapeCall:
		if in.Call == nil {
			return &ValidationError{Op: in.Op, Msg: "call instruction missing CallInfo"}
		}
		if len(in.Args) != len(in.Call.Args) {
			return &ValidationError{Op: in.Op, Msg: "call argument count does not match CallInfo signature"}
		}
	case ir.ShapeBranch:
		want := in.Op.NumArgs() // 0 for j/jov, 1 for jt/jf
		if len(in.Args) != want {
			return &ValidationError{Op: in.Op, Msg: "branch operand count mismatch"}
		}
	case ir.ShapeGuard:
		want := in.Op.NumArgs()
		if len(in.Args) != want {
			return &ValidationError{Op: in.Op, Msg: "guard operand count mismatch"}
		}
		if in.Guard == nil {
			return &ValidationError{Op: in.Op, Msg: "guard instruction missing GuardRecord"}
		}
	default:
		if n >= 0 && len(in.Args) != n {
			return &ValidationError{Op: in.Op, Msg: "operand count mismatch"}
		}
	}
	for _, a := range in.Args {
		if a == nil {
			return &ValidationError{Op: in.Op, Msg: "nil operand: forward references must go through a jump label, not an arithmetic operand"}
		}
	}
	if err := checkTypes(in); err != nil {
		return err
	}
	return nil
}

// checkTypes compares each operand's ResultType against what in.Op
// expects, per §4.3.1's "type-checks every emission". A mismatch (e.g.
// feeding an immd into addi) is a fatal validator error rather than a
// silent misinterpretation by the native backend.
func checkTypes(in ir.Instruction) error {
	if want, ok := opArgTypes[in.Op]; ok {
		for i, a := range in.Args {
			if a.Type != want[i] {
				return &ValidationError{Op: in.Op, Msg: "operand " + strconv.Itoa(i) +
					": expected " + want[i].String() + ", got " + a.Type.String()}
			}
		}
		return nil
	}
	if in.Op.ShapeOf() == ir.ShapeCall && in.Call != nil {
		// n.Args is stored in reverse lexical order; CallInfo.Args is
		// natural order (§9 Design Notes).
		for i, want := range in.Call.Args {
			a := in.Args[len(in.Args)-1-i]
			if a.Type != want {
				return &ValidationError{Op: in.Op, Msg: "call operand " + strconv.Itoa(i) +
					": expected " + want.String() + ", got " + a.Type.String()}
			}
		}
	}
	return nil
}

// ValidationError reports a shape/type mismatch caught by Validate.
type ValidationError struct {
	Op  ir.Opcode
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Op.Mnemonic() + ": " + e.Msg
}
