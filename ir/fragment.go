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

// ReturnKind classifies a fragment's overall return type, selected once
// parsing reaches .end (§4.5 step 5).
type ReturnKind uint8

const (
	RetNone ReturnKind = iota
	RetInt
	RetQuad
	RetDouble
	RetFloat
	RetFloat4
	RetGuard
)

func (k ReturnKind) String() string {
	switch k {
	case RetInt:
		return "int"
	case RetQuad:
		return "quad"
	case RetDouble:
		return "double"
	case RetFloat:
		return "float"
	case RetFloat4:
		return "float4"
	case RetGuard:
		return "guard"
	default:
		return "none"
	}
}

// return-mask bits, one per return opcode family seen while parsing a
// fragment body (§4.5 step 5, §8 "Return-type inference").
const (
	retBitInt = 1 << iota
	retBitQuad
	retBitDouble
	retBitFloat
	retBitFloat4
)

// Fragment is a named compilation unit: one entry, one or more exits.
type Fragment struct {
	Name string

	Head *Node // first instruction (the OpStart pseudo-instruction)
	Tail *Node // last instruction (the trailing OpX exit)

	// Labels is the general name->node binding ("name = op ...") used as
	// patch targets from .patch. JumpLabels is the name->label-node
	// binding used specifically to resolve jt/jf/j/jov branches. Per
	// §3, duplicate names within either map is an error, enforced by the
	// assembler at insertion time, not here.
	Labels     map[string]*Node
	JumpLabels map[string]*Node

	returnMask uint8
	ReturnType ReturnKind

	// Entry is set by the native emitter after a successful Compile. Its
	// concrete type depends on ReturnType; see package native.
	Entry any
}

// NewFragment returns an empty, unclassified Fragment named name.
func NewFragment(name string) *Fragment {
	return &Fragment{
		Name:       name,
		Labels:     make(map[string]*Node),
		JumpLabels: make(map[string]*Node),
	}
}

// ObserveReturn records that a return opcode of kind k was emitted while
// parsing this fragment's body, and sets ReturnType to k, so the
// last-observed kind always wins (§9 Open Questions: "the last-written bit
// wins").
func (f *Fragment) ObserveReturn(k ReturnKind) {
	var bit uint8
	switch k {
	case RetInt:
		bit = retBitInt
	case RetQuad:
		bit = retBitQuad
	case RetDouble:
		bit = retBitDouble
	case RetFloat:
		bit = retBitFloat
	case RetFloat4:
		bit = retBitFloat4
	default:
		return
	}
	f.returnMask |= bit
	f.ReturnType = k
}

// ReturnMaskPopCount reports how many distinct return-type bits were
// observed, for the "no return type" / "multiple return types" warnings.
func (f *Fragment) ReturnMaskPopCount() int {
	n := 0
	for m := f.returnMask; m != 0; m &= m - 1 {
		n++
	}
	return n
}
