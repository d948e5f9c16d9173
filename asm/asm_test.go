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

package asm_test

import (
	"strings"
	"testing"

	"github.com/lirjit/lirjit/asm"
	"github.com/lirjit/lirjit/internal/arena"
	"github.com/lirjit/lirjit/ir"
)

func newSink() ir.Sink {
	return ir.NewBuffer(arena.New[ir.Node](64))
}

// TestParse_ImplicitMainFragment checks the integer-add end-to-end
// scenario: a bare body with no .begin/.end assembles into one "main"
// fragment whose return mask classifies as int.
func TestParse_ImplicitMainFragment(t *testing.T) {
	code := `
a = immi 2
b = immi 3
r = addi a b
reti r
`
	reg, err := asm.Parse("t", strings.NewReader(code), newSink, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	frag, ok := reg.Get("main")
	if !ok {
		t.Fatal("expected an implicit main fragment")
	}
	if frag.ReturnType != ir.RetInt {
		t.Fatalf("expected RetInt, got %v", frag.ReturnType)
	}
	r, ok := frag.Labels["r"]
	if !ok {
		t.Fatal("expected bound name r")
	}
	if r.Op != ir.OpAddI {
		t.Fatalf("expected addi, got %s", r.Op.Mnemonic())
	}
}

// TestParse_UnknownOpcode checks that an unrecognized mnemonic is a
// fatal parse error naming the bad token.
func TestParse_UnknownOpcode(t *testing.T) {
	_, err := asm.Parse("t", strings.NewReader("r = bogus a b\n"), newSink, nil)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "unknown opcode bogus") {
		t.Fatalf("unexpected error: %v", err)
	}
}

// TestParse_DuplicateLabel checks label-uniqueness, per §8's testable
// property.
func TestParse_DuplicateLabel(t *testing.T) {
	code := `
L:
a = immi 1
L:
reti a
`
	_, err := asm.Parse("t", strings.NewReader(code), newSink, nil)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "duplicate label L") {
		t.Fatalf("unexpected error: %v", err)
	}
}

// TestParse_UndefinedJumpTarget checks jump resolution failure.
func TestParse_UndefinedJumpTarget(t *testing.T) {
	code := `
a = immi 0
c = eqi a a
jt c Nowhere
reti a
`
	_, err := asm.Parse("t", strings.NewReader(code), newSink, nil)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "undefined label Nowhere") {
		t.Fatalf("unexpected error: %v", err)
	}
}

// TestParse_BranchAndLabel reproduces §8 end-to-end scenario 4.
func TestParse_BranchAndLabel(t *testing.T) {
	code := `
a = immi 0
c = eqi a a
jt c L
reti a
L:
one = immi 1
reti one
`
	reg, err := asm.Parse("t", strings.NewReader(code), newSink, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	frag, _ := reg.Get("main")
	jt, ok := frag.Labels["c"]
	if !ok {
		t.Fatal("missing bound name c")
	}
	_ = jt
	lbl, ok := frag.JumpLabels["L"]
	if !ok {
		t.Fatal("missing jump label L")
	}
	if lbl.Op != ir.OpLabel {
		t.Fatalf("expected a label node, got %s", lbl.Op.Mnemonic())
	}
}

// TestParse_ExplicitFragmentsAndPatch reproduces §8 end-to-end scenario
// 6's shape: two explicit fragments and a .patch directive resolve
// without error.
func TestParse_ExplicitFragmentsAndPatch(t *testing.T) {
	code := `
.begin A
cond = immi 1
L = xt cond
reti cond
.end
.begin B
v = immi 42
reti v
.end
.patch A.L -> B
`
	reg, err := asm.Parse("t", strings.NewReader(code), newSink, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a, ok := reg.Get("A")
	if !ok {
		t.Fatal("missing fragment A")
	}
	guard, ok := a.Labels["L"]
	if !ok {
		t.Fatal("missing guard label L")
	}
	if guard.Guard == nil || guard.Guard.Exit == nil || guard.Guard.Exit.Target == nil {
		t.Fatal("expected patch to set the guard's side-exit target")
	}
	if guard.Guard.Exit.Target.Name != "B" {
		t.Fatalf("expected patch target B, got %s", guard.Guard.Exit.Target.Name)
	}
}

// TestParse_CallReverseArgOrder checks the historical reverse-lexical
// call-argument ordering (§9 Design Notes).
func TestParse_CallReverseArgOrder(t *testing.T) {
	code := `
a = immd 1.0
b = immd 2.0
r = calld sin cdecl a
reti r
`
	_, err := asm.Parse("t", strings.NewReader(code), newSink, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	code2 := `
a = immd 1.0
b = immd 2.0
r = calld pow cdecl a b
retd r
`
	reg, err := asm.Parse("t", strings.NewReader(code2), newSink, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	frag, _ := reg.Get("main")
	r := frag.Labels["r"]
	if len(r.Args) != 2 {
		t.Fatalf("expected 2 call operands, got %d", len(r.Args))
	}
	a := frag.Labels["a"]
	b := frag.Labels["b"]
	if r.Args[0] != b || r.Args[1] != a {
		t.Fatal("expected call operand vector in reverse lexical order (b, a)")
	}
	if r.Call.Args[0] != ir.TyF64 || r.Call.Args[1] != ir.TyF64 {
		t.Fatal("expected CallInfo.Args in natural lexical order")
	}
}
