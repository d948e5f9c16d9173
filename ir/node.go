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

// Node is a single LIR instruction. Every LIR value is a Node; operand
// references are back-references to already-constructed Nodes in the same
// fragment's buffer. Nodes are immutable once inserted except that a
// branch's Target may be set exactly once during jump resolution, and a
// guard's side-exit Target may be patched post-compile.
type Node struct {
	Op   Opcode
	Type ResultType

	// Fixed operands (0-3). Populated according to Op.ShapeOf(); calls use
	// Args for their full, reverse-lexical-order argument vector instead.
	Args []*Node

	// Imm carries the literal bit pattern for immi/immq/immd/immf nodes
	// (as the underlying integer/float bits) and ImmF4 for immf4.
	Imm   int64
	ImmF4 [4]float32

	Call   *CallInfo // set for call nodes
	Access AccessSet // set for loads/stores/calls that touch memory
	Guard  *GuardRecord

	// Target is the resolved destination of a branch (label node) or,
	// together with Guard, is reachable via Guard.Exit.Target for
	// fragment-to-fragment patching.
	Target *Node

	Name string // label name (OpLabel) or bound name ("name = op ...")
	Line int    // source line, used by guards/side exits for diagnostics

	Addr int // position in the owning fragment's buffer, for disassembly

	next, prev *Node // buffer chunk links, for backward iteration (§4.2)
}

// Prev returns the instruction immediately before n in emission order, or
// nil if n is the first instruction. The native emitter walks a fragment
// via Prev, tail to head, mirroring the "emit tail-first" discipline of a
// real JIT backend.
func (n *Node) Prev() *Node { return n.prev }

// Next returns the instruction immediately after n in emission order, or
// nil if n is the last.
func (n *Node) Next() *Node { return n.next }
