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

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/lirjit/lirjit/ir"
)

// Verbose forwards every emission unchanged, after writing a textual dump
// of the resulting node to Log. It is the §4.3.2 optional stage, enabled
// by the driver's Verbose switch (lirasm's -v flag).
type Verbose struct {
	Next ir.Sink
	Log  io.Writer
}

// Emit implements ir.Sink.
func (vb *Verbose) Emit(in ir.Instruction) (*ir.Node, error) {
	n, err := vb.Next.Emit(in)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(vb.Log, "%04d: %s\n", n.Addr, Disassemble(n))
	return n, nil
}

// Disassemble renders n in the same textual shape the assembler accepts,
// so that the round-trip property in §8 can be checked: reparsing this
// text reproduces an equivalent opcode/operand shape.
func Disassemble(n *ir.Node) string {
	var sb strings.Builder
	if n.Name != "" && n.Op != ir.OpLabel {
		sb.WriteString(n.Name)
		sb.WriteString(" = ")
	}
	switch n.Op {
	case ir.OpLabel:
		sb.WriteString(n.Name)
		sb.WriteByte(':')
		return sb.String()
	case ir.OpImmI, ir.OpImmQ:
		sb.WriteString(n.Op.Mnemonic())
		sb.WriteByte(' ')
		sb.WriteString(strconv.FormatInt(n.Imm, 10))
		return sb.String()
	case ir.OpImmD, ir.OpImmF:
		sb.WriteString(n.Op.Mnemonic())
		sb.WriteByte(' ')
		sb.WriteString(strconv.FormatFloat(immFloat(n), 'g', -1, 64))
		return sb.String()
	case ir.OpImmF4:
		sb.WriteString(n.Op.Mnemonic())
		for _, c := range n.ImmF4 {
			sb.WriteByte(' ')
			sb.WriteString(strconv.FormatFloat(float64(c), 'g', -1, 32))
		}
		return sb.String()
	}
	sb.WriteString(n.Op.Mnemonic())
	if n.Op.IsCall() && n.Call != nil {
		sb.WriteByte(' ')
		sb.WriteString(n.Call.Name)
		sb.WriteByte(' ')
		sb.WriteString(n.Call.ABI.String())
		// n.Args is stored in reverse lexical order (§9 Design Notes);
		// un-reverse it so the printed form matches what asm.parseCall
		// accepts.
		for i := len(n.Args) - 1; i >= 0; i-- {
			sb.WriteByte(' ')
			sb.WriteString(operandRef(n.Args[i]))
		}
		return sb.String()
	}
	for _, a := range n.Args {
		sb.WriteByte(' ')
		sb.WriteString(operandRef(a))
	}
	if n.Op.ShapeOf() == ir.ShapeLoad || n.Op.ShapeOf() == ir.ShapeStore {
		sb.WriteByte(' ')
		sb.WriteString(strconv.FormatInt(n.Imm, 10))
	}
	if n.Op.IsBranch() {
		if n.Target != nil {
			sb.WriteByte(' ')
			sb.WriteString(n.Target.Name)
		} else {
			sb.WriteString(" ???")
		}
	}
	return sb.String()
}

func operandRef(n *ir.Node) string {
	if n.Name != "" {
		return n.Name
	}
	return "t" + strconv.Itoa(n.Addr)
}

func immFloat(n *ir.Node) float64 {
	if n.Op == ir.OpImmF {
		return float64(ir.DecodeF32(n.Imm))
	}
	return ir.DecodeF64(n.Imm)
}
