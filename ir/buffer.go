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

import "github.com/lirjit/lirjit/internal/arena"

// Buffer is the raw sink at the bottom of the writer pipeline (§4.2). It
// imposes no semantics whatsoever: every Emit call produces a fresh Node in
// the arena and links it to the previous one, so that the native emitter
// can walk the completed fragment backwards.
type Buffer struct {
	arena *arena.Arena[Node]
	head  *Node
	tail  *Node
	pc    int
}

// NewBuffer returns a Buffer that allocates its Nodes from a.
func NewBuffer(a *arena.Arena[Node]) *Buffer {
	return &Buffer{arena: a}
}

// Emit implements Sink.
func (b *Buffer) Emit(in Instruction) (*Node, error) {
	n := b.arena.Alloc()
	typ := in.Type
	if typ == TyVoid && in.Op.ResultTypeOf() != TyVoid {
		typ = in.Op.ResultTypeOf()
	}
	n.Op = in.Op
	n.Type = typ
	n.Args = in.Args
	n.Imm = in.Imm
	n.ImmF4 = in.ImmF4
	n.Call = in.Call
	n.Access = in.Access
	n.Guard = in.Guard
	n.Name = in.Name
	n.Line = in.Line
	n.Addr = b.pc
	b.pc++

	if b.head == nil {
		b.head = n
	} else {
		b.tail.next = n
	}
	n.prev = b.tail
	b.tail = n
	return n, nil
}

// Head returns the first instruction emitted, or nil if the buffer is
// empty.
func (b *Buffer) Head() *Node { return b.head }

// Tail returns the last instruction emitted, or nil if the buffer is
// empty.
func (b *Buffer) Tail() *Node { return b.tail }

// Len returns the number of instructions emitted so far.
func (b *Buffer) Len() int { return b.pc }
