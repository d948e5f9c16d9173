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

// Fold constant-folds arithmetic and casts, and applies algebraic
// identities (x+0 -> x, x*1 -> x, x&x -> x, cmov(true,a,b) -> a, etc.),
// per §4.3.5. It never reorders side effects: it only ever substitutes a
// pure node for an equivalent pure node or constant.
type Fold struct {
	Next ir.Sink
}

// Emit implements ir.Sink.
func (f *Fold) Emit(in ir.Instruction) (*ir.Node, error) {
	switch in.Op {
	case ir.OpAddI, ir.OpSubI, ir.OpMulI, ir.OpAndI, ir.OpOrI, ir.OpXorI,
		ir.OpLshI, ir.OpRshI, ir.OpRshUI, ir.OpDivI, ir.OpModI:
		if n, ok := f.foldBinaryI(in); ok {
			return n, nil
		}
	case ir.OpAddD, ir.OpSubD, ir.OpMulD, ir.OpDivD:
		if n, ok := f.foldBinaryD(in); ok {
			return n, nil
		}
	case ir.OpI2D:
		if isImmI(in.Args[0]) {
			return f.Next.Emit(ir.Instruction{Op: ir.OpImmD, Imm: ir.EncodeF64(float64(int32(in.Args[0].Imm)))})
		}
	case ir.OpD2I:
		if isImmD(in.Args[0]) {
			return f.Next.Emit(ir.Instruction{Op: ir.OpImmI, Imm: int64(int32(ir.DecodeF64(in.Args[0].Imm)))})
		}
	case ir.OpCmovI, ir.OpCmovQ, ir.OpCmovD:
		if cond := in.Args[0]; isImmI(cond) {
			if cond.Imm != 0 {
				return in.Args[1], nil
			}
			return in.Args[2], nil
		}
	}
	return f.Next.Emit(in)
}

func isImmI(n *ir.Node) bool { return n.Op == ir.OpImmI }
func isImmD(n *ir.Node) bool { return n.Op == ir.OpImmD }

func (f *Fold) foldBinaryI(in ir.Instruction) (*ir.Node, bool) {
	a, b := in.Args[0], in.Args[1]

	// Algebraic identities that don't require both operands constant.
	switch in.Op {
	case ir.OpAddI:
		if isImmI(b) && b.Imm == 0 {
			return a, true
		}
		if isImmI(a) && a.Imm == 0 {
			return b, true
		}
	case ir.OpSubI:
		if isImmI(b) && b.Imm == 0 {
			return a, true
		}
	case ir.OpMulI:
		if isImmI(b) && b.Imm == 1 {
			return a, true
		}
		if isImmI(a) && a.Imm == 1 {
			return b, true
		}
	case ir.OpAndI:
		if a == b {
			return a, true
		}
	case ir.OpOrI:
		if a == b {
			return a, true
		}
	case ir.OpXorI:
		if a == b {
			n, err := f.Next.Emit(ir.Instruction{Op: ir.OpImmI, Imm: 0})
			if err == nil {
				return n, true
			}
		}
	}

	if !isImmI(a) || !isImmI(b) {
		return nil, false
	}
	x, y := int32(a.Imm), int32(b.Imm)
	var r int32
	switch in.Op {
	case ir.OpAddI:
		r = x + y
	case ir.OpSubI:
		r = x - y
	case ir.OpMulI:
		r = x * y
	case ir.OpAndI:
		r = x & y
	case ir.OpOrI:
		r = x | y
	case ir.OpXorI:
		r = x ^ y
	case ir.OpLshI:
		r = x << uint32(y&31)
	case ir.OpRshI:
		r = x >> uint32(y&31)
	case ir.OpRshUI:
		r = int32(uint32(x) >> uint32(y&31))
	case ir.OpDivI:
		if y == 0 {
			return nil, false
		}
		r = x / y
	case ir.OpModI:
		if y == 0 {
			return nil, false
		}
		r = x % y
	default:
		return nil, false
	}
	n, err := f.Next.Emit(ir.Instruction{Op: ir.OpImmI, Imm: int64(r)})
	if err != nil {
		return nil, false
	}
	return n, true
}

func (f *Fold) foldBinaryD(in ir.Instruction) (*ir.Node, bool) {
	a, b := in.Args[0], in.Args[1]
	if !isImmD(a) || !isImmD(b) {
		return nil, false
	}
	x, y := ir.DecodeF64(a.Imm), ir.DecodeF64(b.Imm)
	var r float64
	switch in.Op {
	case ir.OpAddD:
		r = x + y
	case ir.OpSubD:
		r = x - y
	case ir.OpMulD:
		r = x * y
	case ir.OpDivD:
		r = x / y // IEEE-754 division by zero yields +/-Inf or NaN, not an error
	default:
		return nil, false
	}
	n, err := f.Next.Emit(ir.Instruction{Op: ir.OpImmD, Imm: ir.EncodeF64(r)})
	if err != nil {
		return nil, false
	}
	return n, true
}
