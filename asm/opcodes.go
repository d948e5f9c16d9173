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

package asm

import "github.com/lirjit/lirjit/ir"

// BuiltinFunctions is the process-wide, read-only table of known callable
// helper routines (§9 Global State: "the built-in functions table are
// immutable initialization constants; treat as module-level read-only
// data"). A call whose function name matches an entry here is validated
// against the entry's ABI/arity/signature instead of being inferred from
// the call site.
var BuiltinFunctions = map[string]ir.CallInfo{
	"sin":    {Name: "sin", ABI: ir.ABICdecl, Args: []ir.ResultType{ir.TyF64}, Ret: ir.TyF64, Pure: true},
	"cos":    {Name: "cos", ABI: ir.ABICdecl, Args: []ir.ResultType{ir.TyF64}, Ret: ir.TyF64, Pure: true},
	"sqrt":   {Name: "sqrt", ABI: ir.ABICdecl, Args: []ir.ResultType{ir.TyF64}, Ret: ir.TyF64, Pure: true},
	"pow":    {Name: "pow", ABI: ir.ABICdecl, Args: []ir.ResultType{ir.TyF64, ir.TyF64}, Ret: ir.TyF64, Pure: true},
	"fmod":   {Name: "fmod", ABI: ir.ABICdecl, Args: []ir.ResultType{ir.TyF64, ir.TyF64}, Ret: ir.TyF64, Pure: true},
	"strlen": {Name: "strlen", ABI: ir.ABIStdcall, Args: []ir.ResultType{ir.TyPtr}, Ret: ir.TyI32, Pure: false, Access: ir.AccessAny},
	"puts":   {Name: "puts", ABI: ir.ABIStdcall, Args: []ir.ResultType{ir.TyPtr}, Ret: ir.TyI32, Pure: false, Access: ir.AccessAny},
}

// literalKind selects how an operand token is parsed for a given opcode,
// per §4.5's "parse literal (decimal, hex, or float per opcode)".
type literalKind int

const (
	litNone literalKind = iota
	litInt
	litFloat32
	litFloat64
	litFloat4
)

func literalKindFor(op ir.Opcode) literalKind {
	switch op {
	case ir.OpImmI, ir.OpImmQ:
		return litInt
	case ir.OpImmF:
		return litFloat32
	case ir.OpImmD:
		return litFloat64
	case ir.OpImmF4:
		return litFloat4
	default:
		return litNone
	}
}

// returnKindFor maps a return opcode to the Fragment.ObserveReturn kind
// it contributes, or RetNone if op is not a return opcode.
func returnKindFor(op ir.Opcode) ir.ReturnKind {
	switch op {
	case ir.OpRetI:
		return ir.RetInt
	case ir.OpRetQ:
		return ir.RetQuad
	case ir.OpRetD:
		return ir.RetDouble
	case ir.OpRetF:
		return ir.RetFloat
	case ir.OpRetF4:
		return ir.RetFloat4
	default:
		return ir.RetNone
	}
}

// isCallOp reports whether op is one of the call-shaped opcodes.
func isCallOp(op ir.Opcode) bool { return op.IsCall() }
