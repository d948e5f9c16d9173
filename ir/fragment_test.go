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

package ir_test

import (
	"testing"

	"github.com/lirjit/lirjit/ir"
)

func TestFragment_returnMask(t *testing.T) {
	f := ir.NewFragment("main")
	if f.ReturnMaskPopCount() != 0 {
		t.Fatal("fresh fragment should have no return bits set")
	}
	f.ObserveReturn(ir.RetInt)
	if f.ReturnMaskPopCount() != 1 || f.ReturnType != ir.RetInt {
		t.Fatal("single return observation should classify as int")
	}
	f.ObserveReturn(ir.RetDouble)
	if f.ReturnMaskPopCount() != 2 {
		t.Fatalf("ReturnMaskPopCount() = %d, want 2", f.ReturnMaskPopCount())
	}
	if f.ReturnType != ir.RetDouble {
		t.Fatal("last-observed return type should win for signature selection")
	}
}
