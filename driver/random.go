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

package driver

import (
	"math/rand"

	"github.com/pkg/errors"

	"github.com/lirjit/lirjit/ir"
)

// randomOps is the pool random integer instructions are drawn from, the
// same arithmetic family the fuzz generator in the original tool favors
// for its torture runs: cheap, total over int32, no trap conditions.
var randomOps = []ir.Opcode{
	ir.OpAddI, ir.OpSubI, ir.OpMulI, ir.OpAndI, ir.OpOrI, ir.OpXorI,
}

// RandomFragment builds a synthetic fragment named "random" of
// approximately n arithmetic instructions directly through sink, bypassing
// the textual assembler entirely (§6 "--random [N]"). Every instruction
// combines two previously produced int32 values (an immediate seed pool
// or an earlier random op's result), so the fragment is always
// well-formed regardless of which opcodes are picked. seed makes a run
// reproducible.
func RandomFragment(sink ir.Sink, n int, seed int64) (*ir.Fragment, error) {
	if n <= 0 {
		n = 1
	}
	rng := rand.New(rand.NewSource(seed))
	frag := ir.NewFragment("random")

	head, err := sink.Emit(ir.Instruction{Op: ir.OpStart})
	if err != nil {
		return nil, errors.Wrap(err, "driver: random start")
	}
	frag.Head = head

	var pool []*ir.Node
	for i := 0; i < 4; i++ {
		p, err := sink.Emit(ir.Instruction{Op: ir.OpImmI, Imm: int64(rng.Int31())})
		if err != nil {
			return nil, errors.Wrap(err, "driver: random seed value")
		}
		pool = append(pool, p)
	}

	var last *ir.Node
	for i := 0; i < n; i++ {
		op := randomOps[rng.Intn(len(randomOps))]
		a := pool[rng.Intn(len(pool))]
		b := pool[rng.Intn(len(pool))]
		node, err := sink.Emit(ir.Instruction{Op: op, Args: []*ir.Node{a, b}})
		if err != nil {
			return nil, errors.Wrapf(err, "driver: random instruction %d", i)
		}
		pool = append(pool, node)
		last = node
	}

	if _, err := sink.Emit(ir.Instruction{Op: ir.OpRetI, Args: []*ir.Node{last}}); err != nil {
		return nil, errors.Wrap(err, "driver: random return")
	}
	frag.ObserveReturn(ir.RetInt)

	tail, err := sink.Emit(ir.Instruction{
		Op:    ir.OpX,
		Guard: &ir.GuardRecord{Exit: &ir.SideExit{Line: 0}},
	})
	if err != nil {
		return nil, errors.Wrap(err, "driver: random exit")
	}
	frag.Tail = tail
	return frag, nil
}
