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

package arena_test

import (
	"testing"

	"github.com/lirjit/lirjit/internal/arena"
)

func TestAlloc_stableAcrossChunks(t *testing.T) {
	a := arena.New[int](4)
	var ptrs []*int
	for i := 0; i < 20; i++ {
		p := a.Alloc()
		*p = i
		ptrs = append(ptrs, p)
	}
	for i, p := range ptrs {
		if *p != i {
			t.Fatalf("ptr %d: got %d, want %d (address not stable across chunk growth)", i, *p, i)
		}
	}
	if got := a.Len(); got != 20 {
		t.Fatalf("Len() = %d, want 20", got)
	}
}

func TestAllocSlice_contiguous(t *testing.T) {
	a := arena.New[byte](8)
	s := a.AllocSlice(5)
	if len(s) != 5 {
		t.Fatalf("len = %d, want 5", len(s))
	}
	for i := range s {
		s[i] = byte(i)
	}
	next := a.Alloc()
	*next = 0xff
	for i, v := range s {
		if v != byte(i) {
			t.Fatalf("slice element %d clobbered by subsequent Alloc", i)
		}
	}
}

func TestAllocSlice_largerThanChunk(t *testing.T) {
	a := arena.New[int](4)
	s := a.AllocSlice(10)
	if len(s) != 10 {
		t.Fatalf("len = %d, want 10", len(s))
	}
}

func TestReset(t *testing.T) {
	a := arena.New[int](4)
	a.Alloc()
	a.Alloc()
	a.Reset()
	if got := a.Len(); got != 0 {
		t.Fatalf("Len() after Reset = %d, want 0", got)
	}
}
