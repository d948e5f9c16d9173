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

// Instruction is the single operation family a Sink accepts: "emit this
// opcode with these operands". It is deliberately one flat struct rather
// than one type per opcode shape, so that the writer pipeline's filters
// can all implement the same one-method interface (see Sink) and compose
// as plain values owning a downstream Sink, instead of an inheritance
// hierarchy of emitters.
type Instruction struct {
	Op   Opcode
	Type ResultType // overrides Op.ResultTypeOf() when non-zero; calls need this

	Args []*Node // fixed operands, or the full reverse-order call argument vector

	Imm   int64
	ImmF4 [4]float32

	Call   *CallInfo
	Access AccessSet
	Guard  *GuardRecord

	Name string
	Line int
}

// Sink is the one capability every stage of the writer pipeline exposes:
// accept an Instruction, return the Node that now represents it (freshly
// emitted, or a prior Node if a filter decided the instruction was
// redundant), or an error if the instruction is malformed.
//
// A filter's contract: for any Sink it wraps, the sequence of
// side-effecting Emit calls reaching the wrapped Sink, and the Node
// returned to the filter's own caller, reproduce the observable semantics
// of calling the wrapped Sink directly for every instruction in the
// stream.
type Sink interface {
	Emit(in Instruction) (*Node, error)
}
