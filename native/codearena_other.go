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

//go:build !unix

package native

import "github.com/pkg/errors"

// CodeArena is the non-unix fallback: a plain heap buffer with no
// executable-page transition, since there is no portable mmap/mprotect
// API to call here. lirasm's reference backend never executes from this
// buffer (Interp interprets the ir.Fragment directly), so this is a
// bookkeeping-only stand-in, not a functional gap.
type CodeArena struct {
	mem    []byte
	frozen bool
}

// NewCodeArena reserves size bytes of plain memory.
func NewCodeArena(size int) (*CodeArena, error) {
	return &CodeArena{mem: make([]byte, size)}, nil
}

// Stamp writes a short marker into the arena and marks it frozen.
func (c *CodeArena) Stamp(fragName string) (int, error) {
	if c.frozen {
		return 0, errors.New("native: code arena already frozen")
	}
	n := copy(c.mem, fragName)
	c.frozen = true
	return n, nil
}

// Close is a no-op on this fallback.
func (c *CodeArena) Close() error {
	c.mem = nil
	return nil
}
