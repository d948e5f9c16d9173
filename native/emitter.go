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

// Package native implements §4.6's emitter contract: translate a completed
// ir.Fragment into something callable, and rewrite a guard's trampoline
// in place when the fragment registry patches a side exit (§4.7).
//
// Per-target instruction encoding is explicitly out of scope (spec
// Non-goals); the emitter here is the portable reference backend, Interp,
// which walks the fragment and evaluates it directly rather than emitting
// real machine code. It can still own a genuine executable code arena
// (codearena_unix.go / codearena_other.go) so the mmap/mprotect discipline
// a real backend would need is present and exercised; Interp's own Compile
// writes only a short marker naming the fragment there, never machine
// code.
package native

import "github.com/lirjit/lirjit/ir"

// Status is the native emitter's coarse result code (§4.6).
type Status int

const (
	StatusNone Status = iota
	StatusBranchTooFar
	StatusStackFull
	StatusUnknownBranch
)

func (s Status) String() string {
	switch s {
	case StatusNone:
		return "none"
	case StatusBranchTooFar:
		return "branch too far"
	case StatusStackFull:
		return "stack full"
	case StatusUnknownBranch:
		return "unknown branch"
	default:
		return "?"
	}
}

// Emitter is the native-code backend contract. Compile consumes a fully
// resolved fragment (all jumps set, trailing exit appended) and, on
// StatusNone, installs a callable value into frag.Entry. Repatch rewrites
// whatever trampoline Compile built for guard so that, on trigger, it
// transfers to dest's entry instead of its default side exit (§4.7);
// Registry.Patch has already updated guard.Guard.Exit.Target by the time
// Repatch runs, so Emitter implementations that re-read the Target
// dynamically (as Interp does) may implement Repatch as a no-op.
//
// Emitter satisfies asm.Patcher structurally, without native importing
// asm: the driver wires the two together.
type Emitter interface {
	Compile(frag *ir.Fragment) (Status, error)
	Repatch(guard *ir.Node, dest *ir.Fragment) error
}
