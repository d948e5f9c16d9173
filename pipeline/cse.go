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

// CSE implements common-subexpression elimination (§4.3.3). It hash-maps
// (opcode, operand addresses, immediate) to the Node that first computed
// it. A pure operation with a matching key returns the cached Node instead
// of emitting a new one. Non-pure operations bust their class of the
// cache; loads/stores are partitioned by access set so that a store to one
// class never invalidates CSE of loads from a disjoint class. Label
// instructions flush the entire cache, since they delimit basic blocks and
// nothing may be assumed live across one.
type CSE struct {
	Next ir.Sink

	pure  map[pureKey]*ir.Node
	loads map[ir.AccessSet]map[pureKey]*ir.Node
}

type pureKey struct {
	op    ir.Opcode
	a, b, c *ir.Node
	imm   int64
}

func keyFor(in ir.Instruction) pureKey {
	var k pureKey
	k.op = in.Op
	k.imm = in.Imm
	if len(in.Args) > 0 {
		k.a = in.Args[0]
	}
	if len(in.Args) > 1 {
		k.b = in.Args[1]
	}
	if len(in.Args) > 2 {
		k.c = in.Args[2]
	}
	return k
}

// Emit implements ir.Sink.
func (c *CSE) Emit(in ir.Instruction) (*ir.Node, error) {
	if in.Op == ir.OpLabel {
		c.pure = nil
		c.loads = nil
		return c.Next.Emit(in)
	}

	if !in.Op.IsPure() {
		if in.Op.TouchesMemory() {
			c.invalidate(in.Access)
		}
		return c.Next.Emit(in)
	}

	k := keyFor(in)

	if in.Op.ShapeOf() == ir.ShapeLoad {
		if c.loads == nil {
			c.loads = make(map[ir.AccessSet]map[pureKey]*ir.Node)
		}
		bucket := c.loads[in.Access]
		if bucket == nil {
			bucket = make(map[pureKey]*ir.Node)
			c.loads[in.Access] = bucket
		}
		if n, ok := bucket[k]; ok {
			return n, nil
		}
		n, err := c.Next.Emit(in)
		if err != nil {
			return nil, err
		}
		bucket[k] = n
		return n, nil
	}

	if c.pure == nil {
		c.pure = make(map[pureKey]*ir.Node)
	}
	if n, ok := c.pure[k]; ok {
		return n, nil
	}
	n, err := c.Next.Emit(in)
	if err != nil {
		return nil, err
	}
	c.pure[k] = n
	return n, nil
}

// invalidate drops cached loads whose access set is not disjoint from
// access (a store, or an impure call, touching access may alias them). A
// store tagged ir.AccessAny invalidates every class.
func (c *CSE) invalidate(access ir.AccessSet) {
	if c.loads == nil {
		return
	}
	if access == ir.AccessAny {
		c.loads = nil
		return
	}
	for class := range c.loads {
		if !class.Disjoint(access) {
			delete(c.loads, class)
		}
	}
}
