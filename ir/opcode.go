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

package ir

// Opcode is the closed enumeration of LIR instructions. It is represented
// as a tagged union (a plain integer plus a Node carrying only the fields
// relevant to that tag) rather than a class hierarchy, matching the
// opcode-table convention used throughout the rest of the toolchain.
type Opcode uint8

const (
	OpNone Opcode = iota

	// Fragment framing.
	OpStart // fragment entry pseudo-instruction
	OpParam // reserved callee-saved parameter slot
	OpLabel // basic block delimiter; flushes CSE state

	// Constants. The literal value lives inline on the Node.
	OpImmI  // i32
	OpImmQ  // i64
	OpImmD  // f64
	OpImmF  // f32
	OpImmF4 // 4x f32 packed

	// Integer (i32) arithmetic / bitwise.
	OpAddI
	OpSubI
	OpMulI
	OpDivI
	OpModI
	OpNegI
	OpAndI
	OpOrI
	OpXorI
	OpNotI
	OpLshI
	OpRshI
	OpRshUI

	// Quad (i64) arithmetic / bitwise.
	OpAddQ
	OpSubQ
	OpMulQ
	OpAndQ
	OpOrQ
	OpXorQ
	OpLshQ
	OpRshQ
	OpRshUQ

	// Double (f64) arithmetic.
	OpAddD
	OpSubD
	OpMulD
	OpDivD
	OpNegD

	// Float (f32) arithmetic.
	OpAddF
	OpSubF
	OpMulF
	OpDivF
	OpNegF

	// Comparisons (result is i32 boolean 0/1).
	OpEqI
	OpLtI
	OpGtI
	OpLeI
	OpGeI
	OpEqQ
	OpLtQ
	OpGtQ
	OpLeQ
	OpGeQ
	OpEqD
	OpLtD
	OpGtD
	OpLeD
	OpGeD

	// Conditional moves.
	OpCmovI
	OpCmovQ
	OpCmovD

	// Casts.
	OpI2Q
	OpQ2I
	OpI2D
	OpUI2D
	OpD2I
	OpQ2D
	OpD2Q
	OpF2D // widen f32 -> f64, used by the soft-float filter
	OpD2F // narrow f64 -> f32, used by the soft-float filter

	// Loads/stores. Loads take the base as operand 0; stores take the
	// value as operand 0 and the base as operand 1. The offset of both is
	// an immediate carried in the node's Imm field, not an operand.
	OpLdI
	OpLdQ
	OpLdD
	OpLdF
	OpLdF4
	OpStI
	OpStQ
	OpStD
	OpStF
	OpStF4

	// Stack allocation.
	OpAllocP

	// Calls. Return type is encoded in the opcode variant; CallInfo
	// carries target/ABI/signature/purity.
	OpCallI
	OpCallQ
	OpCallD
	OpCallF
	OpCallF4
	OpCallV // void call

	// Control flow (branch to a label within the fragment; never exits).
	OpJ
	OpJt
	OpJf
	OpJov // branch to label if the preceding xov-shaped op overflowed

	// Guards / side exits (leave the fragment on trigger).
	OpX  // unconditional exit
	OpXt // exit if operand is true
	OpXf // exit if operand is false

	// Overflow-checked arithmetic: computes like the non-xov counterpart
	// but carries a GuardRecord that triggers a side exit on overflow.
	OpAddXovI
	OpSubXovI
	OpMulXovI

	// Returns.
	OpRetI
	OpRetQ
	OpRetD
	OpRetF
	OpRetF4
	OpRetV
)

// ResultType tags the value a Node produces.
type ResultType uint8

const (
	TyVoid ResultType = iota
	TyI32
	TyI64
	TyF32
	TyF64
	TyF128 // 4 x f32, see Float4
	TyPtr
)

func (t ResultType) String() string {
	switch t {
	case TyVoid:
		return "void"
	case TyI32:
		return "i32"
	case TyI64:
		return "i64"
	case TyF32:
		return "f32"
	case TyF64:
		return "f64"
	case TyF128:
		return "f128"
	case TyPtr:
		return "ptr"
	default:
		return "?"
	}
}

// Shape classifies how a parser/optimizer must treat an opcode's operands.
type Shape uint8

const (
	ShapeFraming Shape = iota // start, param, label
	ShapeImm                  // immediate, no operands
	ShapeUnary
	ShapeBinary
	ShapeTernary // cmov
	ShapeLoad
	ShapeStore
	ShapeCall
	ShapeBranch // j, jt, jf, jov: last operand-ish is a label, resolved post-hoc
	ShapeGuard  // x, xt, xf
	ShapeReturn
)

// opInfo is the single source of metadata describing one opcode: its
// result type, shape, purity and number of fixed operands. It replaces a
// class hierarchy with a table, per the closed-enumeration design.
type opInfo struct {
	name   string
	typ    ResultType
	shape  Shape
	nargs  int
	pure   bool
	access bool // true if this op reads/writes memory through an access set
}

var opTable = [...]opInfo{
	OpNone:  {"none", TyVoid, ShapeFraming, 0, false, false},
	OpStart: {"start", TyVoid, ShapeFraming, 0, false, false},
	OpParam: {"param", TyPtr, ShapeFraming, 0, false, false},
	OpLabel: {"label", TyVoid, ShapeFraming, 0, false, false},

	OpImmI:  {"immi", TyI32, ShapeImm, 0, true, false},
	OpImmQ:  {"immq", TyI64, ShapeImm, 0, true, false},
	OpImmD:  {"immd", TyF64, ShapeImm, 0, true, false},
	OpImmF:  {"immf", TyF32, ShapeImm, 0, true, false},
	OpImmF4: {"immf4", TyF128, ShapeImm, 0, true, false},

	OpAddI:  {"addi", TyI32, ShapeBinary, 2, true, false},
	OpSubI:  {"subi", TyI32, ShapeBinary, 2, true, false},
	OpMulI:  {"muli", TyI32, ShapeBinary, 2, true, false},
	OpDivI:  {"divi", TyI32, ShapeBinary, 2, true, false},
	OpModI:  {"modi", TyI32, ShapeBinary, 2, true, false},
	OpNegI:  {"negi", TyI32, ShapeUnary, 1, true, false},
	OpAndI:  {"andi", TyI32, ShapeBinary, 2, true, false},
	OpOrI:   {"ori", TyI32, ShapeBinary, 2, true, false},
	OpXorI:  {"xori", TyI32, ShapeBinary, 2, true, false},
	OpNotI:  {"noti", TyI32, ShapeUnary, 1, true, false},
	OpLshI:  {"lshi", TyI32, ShapeBinary, 2, true, false},
	OpRshI:  {"rshi", TyI32, ShapeBinary, 2, true, false},
	OpRshUI: {"rshui", TyI32, ShapeBinary, 2, true, false},

	OpAddQ: {"addq", TyI64, ShapeBinary, 2, true, false},
	OpSubQ: {"subq", TyI64, ShapeBinary, 2, true, false},
	OpMulQ: {"mulq", TyI64, ShapeBinary, 2, true, false},
	OpAndQ: {"andq", TyI64, ShapeBinary, 2, true, false},
	OpOrQ:  {"orq", TyI64, ShapeBinary, 2, true, false},
	OpXorQ: {"xorq", TyI64, ShapeBinary, 2, true, false},
	OpLshQ: {"lshq", TyI64, ShapeBinary, 2, true, false},
	OpRshQ: {"rshq", TyI64, ShapeBinary, 2, true, false},
	OpRshUQ: {"rshuq", TyI64, ShapeBinary, 2, true, false},

	OpAddD: {"addd", TyF64, ShapeBinary, 2, true, false},
	OpSubD: {"subd", TyF64, ShapeBinary, 2, true, false},
	OpMulD: {"muld", TyF64, ShapeBinary, 2, true, false},
	OpDivD: {"divd", TyF64, ShapeBinary, 2, true, false},
	OpNegD: {"negd", TyF64, ShapeUnary, 1, true, false},

	OpAddF: {"addf", TyF32, ShapeBinary, 2, true, false},
	OpSubF: {"subf", TyF32, ShapeBinary, 2, true, false},
	OpMulF: {"mulf", TyF32, ShapeBinary, 2, true, false},
	OpDivF: {"divf", TyF32, ShapeBinary, 2, true, false},
	OpNegF: {"negf", TyF32, ShapeUnary, 1, true, false},

	OpEqI: {"eqi", TyI32, ShapeBinary, 2, true, false},
	OpLtI: {"lti", TyI32, ShapeBinary, 2, true, false},
	OpGtI: {"gti", TyI32, ShapeBinary, 2, true, false},
	OpLeI: {"lei", TyI32, ShapeBinary, 2, true, false},
	OpGeI: {"gei", TyI32, ShapeBinary, 2, true, false},
	OpEqQ: {"eqq", TyI32, ShapeBinary, 2, true, false},
	OpLtQ: {"ltq", TyI32, ShapeBinary, 2, true, false},
	OpGtQ: {"gtq", TyI32, ShapeBinary, 2, true, false},
	OpLeQ: {"leq", TyI32, ShapeBinary, 2, true, false},
	OpGeQ: {"geq", TyI32, ShapeBinary, 2, true, false},
	OpEqD: {"eqd", TyI32, ShapeBinary, 2, true, false},
	OpLtD: {"ltd", TyI32, ShapeBinary, 2, true, false},
	OpGtD: {"gtd", TyI32, ShapeBinary, 2, true, false},
	OpLeD: {"led", TyI32, ShapeBinary, 2, true, false},
	OpGeD: {"ged", TyI32, ShapeBinary, 2, true, false},

	OpCmovI: {"cmovi", TyI32, ShapeTernary, 3, true, false},
	OpCmovQ: {"cmovq", TyI64, ShapeTernary, 3, true, false},
	OpCmovD: {"cmovd", TyF64, ShapeTernary, 3, true, false},

	OpI2Q:  {"i2q", TyI64, ShapeUnary, 1, true, false},
	OpQ2I:  {"q2i", TyI32, ShapeUnary, 1, true, false},
	OpI2D:  {"i2d", TyF64, ShapeUnary, 1, true, false},
	OpUI2D: {"ui2d", TyF64, ShapeUnary, 1, true, false},
	OpD2I:  {"d2i", TyI32, ShapeUnary, 1, true, false},
	OpQ2D:  {"q2d", TyF64, ShapeUnary, 1, true, false},
	OpD2Q:  {"d2q", TyI64, ShapeUnary, 1, true, false},
	OpF2D:  {"f2d", TyF64, ShapeUnary, 1, true, false},
	OpD2F:  {"d2f", TyF32, ShapeUnary, 1, true, false},

	OpLdI:  {"ldi", TyI32, ShapeLoad, 1, true, true},
	OpLdQ:  {"ldq", TyI64, ShapeLoad, 1, true, true},
	OpLdD:  {"ldd", TyF64, ShapeLoad, 1, true, true},
	OpLdF:  {"ldf", TyF32, ShapeLoad, 1, true, true},
	OpLdF4: {"ldf4", TyF128, ShapeLoad, 1, true, true},
	OpStI:  {"sti", TyVoid, ShapeStore, 2, false, true},
	OpStQ:  {"stq", TyVoid, ShapeStore, 2, false, true},
	OpStD:  {"std", TyVoid, ShapeStore, 2, false, true},
	OpStF:  {"stf", TyVoid, ShapeStore, 2, false, true},
	OpStF4: {"stf4", TyVoid, ShapeStore, 2, false, true},

	OpAllocP: {"allocp", TyPtr, ShapeUnary, 1, false, false},

	OpCallI:  {"calli", TyI32, ShapeCall, -1, false, true},
	OpCallQ:  {"callq", TyI64, ShapeCall, -1, false, true},
	OpCallD:  {"calld", TyF64, ShapeCall, -1, false, true},
	OpCallF:  {"callf", TyF32, ShapeCall, -1, false, true},
	OpCallF4: {"callf4", TyF128, ShapeCall, -1, false, true},
	OpCallV:  {"callv", TyVoid, ShapeCall, -1, false, true},

	OpJ:   {"j", TyVoid, ShapeBranch, 0, false, false},
	OpJt:  {"jt", TyVoid, ShapeBranch, 1, false, false},
	OpJf:  {"jf", TyVoid, ShapeBranch, 1, false, false},
	OpJov: {"jov", TyVoid, ShapeBranch, 0, false, false},

	OpX:  {"x", TyVoid, ShapeGuard, 0, false, false},
	OpXt: {"xt", TyVoid, ShapeGuard, 1, false, false},
	OpXf: {"xf", TyVoid, ShapeGuard, 1, false, false},

	OpAddXovI: {"addxovi", TyI32, ShapeBinary, 2, true, false},
	OpSubXovI: {"subxovi", TyI32, ShapeBinary, 2, true, false},
	OpMulXovI: {"mulxovi", TyI32, ShapeBinary, 2, true, false},

	OpRetI:  {"reti", TyVoid, ShapeReturn, 1, false, false},
	OpRetQ:  {"retq", TyVoid, ShapeReturn, 1, false, false},
	OpRetD:  {"retd", TyVoid, ShapeReturn, 1, false, false},
	OpRetF:  {"retf", TyVoid, ShapeReturn, 1, false, false},
	OpRetF4: {"retf4", TyVoid, ShapeReturn, 1, false, false},
	OpRetV:  {"retv", TyVoid, ShapeReturn, 0, false, false},
}

// Mnemonic returns the textual opcode name used by the assembler and the
// verbose disassembler.
func (op Opcode) Mnemonic() string {
	if int(op) < len(opTable) {
		return opTable[op].name
	}
	return "?"
}

// ResultTypeOf returns the type tag an instance of op produces.
func (op Opcode) ResultTypeOf() ResultType { return opTable[op].typ }

// ShapeOf classifies op for parsing/optimization dispatch.
func (op Opcode) ShapeOf() Shape { return opTable[op].shape }

// NumArgs returns the fixed operand count for op, or -1 for call nodes
// which carry a variable-length argument vector.
func (op Opcode) NumArgs() int { return opTable[op].nargs }

// IsPure reports whether op is safe to common-subexpression-eliminate: it
// has no observable side effect beyond producing its result.
func (op Opcode) IsPure() bool { return opTable[op].pure }

// TouchesMemory reports whether op reads or writes through an access set
// (loads, stores, and every call opcode; the access set a particular call
// touches is carried on its node and CallInfo, not decided here).
func (op Opcode) TouchesMemory() bool { return opTable[op].access }

// IsGuard reports whether op is a side-exit (x, xt, xf).
func (op Opcode) IsGuard() bool { return opTable[op].shape == ShapeGuard }

// IsBranch reports whether op is an in-fragment branch (j, jt, jf, jov).
func (op Opcode) IsBranch() bool { return opTable[op].shape == ShapeBranch }

// IsCall reports whether op is one of the call opcodes.
func (op Opcode) IsCall() bool { return opTable[op].shape == ShapeCall }

// IsReturn reports whether op is one of the return opcodes.
func (op Opcode) IsReturn() bool { return opTable[op].shape == ShapeReturn }

// IsXov reports whether op is an overflow-guarded arithmetic op.
func (op Opcode) IsXov() bool {
	return op == OpAddXovI || op == OpSubXovI || op == OpMulXovI
}

var mnemonicIndex map[string]Opcode

func init() {
	mnemonicIndex = make(map[string]Opcode, len(opTable))
	for i, info := range opTable {
		if info.name != "" {
			mnemonicIndex[info.name] = Opcode(i)
		}
	}
}

// OpcodeByName looks up the opcode for a textual mnemonic, as used by the
// assembler's opcode table and the verbose disassembler's round trip.
func OpcodeByName(name string) (Opcode, bool) {
	op, ok := mnemonicIndex[name]
	return op, ok
}
