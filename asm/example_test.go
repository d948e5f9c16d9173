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
	"fmt"
	"strings"

	"github.com/lirjit/lirjit/asm"
	"github.com/lirjit/lirjit/internal/arena"
	"github.com/lirjit/lirjit/ir"
)

// ExampleParse assembles a single implicit main fragment computing 2+3 and
// reports its inferred return type.
func ExampleParse() {
	code := `
a = immi 2
b = immi 3
r = addi a b
reti r
`
	reg, err := asm.Parse("doc", strings.NewReader(code), func() ir.Sink {
		return ir.NewBuffer(arena.New[ir.Node](64))
	}, nil)
	if err != nil {
		fmt.Println(err)
		return
	}
	frag, _ := reg.Get("main")
	fmt.Println(frag.ReturnType)
	// Output:
	// int
}

// Example_fragmentsAndPatch assembles two explicit fragments and wires a
// guard in the first to fall through into the second.
func Example_fragmentsAndPatch() {
	code := `
.begin slowPath
cond = immi 0
L = xt cond
reti cond
.end
.begin fastPath
v = immi 1
reti v
.end
.patch slowPath.L -> fastPath
`
	reg, err := asm.Parse("doc", strings.NewReader(code), func() ir.Sink {
		return ir.NewBuffer(arena.New[ir.Node](64))
	}, nil)
	if err != nil {
		fmt.Println(err)
		return
	}
	guard := reg.Names()
	fmt.Println(len(guard))
	// Output:
	// 2
}
