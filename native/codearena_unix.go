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

//go:build unix

package native

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// CodeArena is a single mmap'd region that starts writable and is
// mprotect'd to executable exactly once, mirroring §5's "guaranteed
// writable during emission and executable afterwards — a single
// transition" resource rule. Grounded on the wazevo engine's mmap +
// mprotect code-segment pattern from the retrieval pack.
type CodeArena struct {
	mem    []byte
	frozen bool
}

// NewCodeArena reserves size bytes of RW memory.
func NewCodeArena(size int) (*CodeArena, error) {
	mem, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, errors.Wrap(err, "native: mmap code arena")
	}
	return &CodeArena{mem: mem}, nil
}

// Stamp writes a short marker into the arena identifying the fragment
// that compiled into it and freezes the page executable, transitioning it
// exactly once per §5. It never contains real machine code for Interp
// (per-target instruction encoding is out of scope), only the marker.
func (c *CodeArena) Stamp(fragName string) (int, error) {
	if c.frozen {
		return 0, errors.New("native: code arena already frozen")
	}
	n := copy(c.mem, fragName)
	if err := unix.Mprotect(c.mem, unix.PROT_READ|unix.PROT_EXEC); err != nil {
		return 0, errors.Wrap(err, "native: mprotect code arena")
	}
	c.frozen = true
	return n, nil
}

// Close releases the underlying mapping.
func (c *CodeArena) Close() error {
	if c.mem == nil {
		return nil
	}
	err := unix.Munmap(c.mem)
	c.mem = nil
	return errors.Wrap(err, "native: munmap code arena")
}
