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
	"encoding/binary"
	"runtime"
	"strconv"

	"github.com/pkg/errors"
)

// OptionalInt is a flag.Value for switches that take an optional integer
// argument, e.g. "-random" (defaults to DefaultN when bare) and
// "-random=500" (explicit count). Standard library flag only supports this
// via the IsBoolFlag trick: a flag whose value type reports IsBoolFlag()
// true may be given with no operand at all, in which case flag.Parse calls
// Set("true") and the default supplied to NewOptionalInt stands. An
// explicit count must be joined with "="; in "-random 500" the 500 is
// parsed as the next argument, not as this flag's value.
type OptionalInt struct {
	Set_     bool
	Value    int
	DefaultN int
}

// NewOptionalInt returns an unset OptionalInt that falls back to
// defaultN if the flag is passed bare.
func NewOptionalInt(defaultN int) *OptionalInt {
	return &OptionalInt{DefaultN: defaultN}
}

func (o *OptionalInt) String() string {
	if o == nil || !o.Set_ {
		return ""
	}
	return strconv.Itoa(o.Value)
}

func (o *OptionalInt) Set(s string) error {
	// flag.Parse calls Set("true") when a bool-like flag is given bare
	// (no "=value"); treat that as "use DefaultN", not a literal integer.
	if s == "true" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return errors.Wrapf(err, "bad integer %q", s)
	}
	o.Value, o.Set_ = n, true
	return nil
}

// IsBoolFlag makes "-random" (no operand) legal; flag.Parse treats the
// next argument as a new flag or positional, not this one's value.
func (o *OptionalInt) IsBoolFlag() bool { return true }

// N returns the count to use and whether an explicit value was given: the
// explicit value with ok=true if the flag was passed as "-flag=N", and
// DefaultN with ok=false otherwise, whether the flag was passed bare or
// not at all (callers tell those two apart with flag.Visit).
func (o *OptionalInt) N() (n int, ok bool) {
	if o == nil {
		return 0, false
	}
	if o.Set_ {
		return o.Value, true
	}
	return o.DefaultN, false
}

// ShowArch reports the host architecture backing this build (§6
// "--show-arch"), the Go runtime's own name for it rather than a
// per-target instruction-set string, since per-target code generation is
// out of scope.
func ShowArch() string { return runtime.GOARCH }

// ShowWordSize reports the native int width in bits (§6
// "--show-word-size").
func ShowWordSize() string { return strconv.Itoa(strconv.IntSize) }

// ShowEndianness reports the host byte order. The reference backend
// always stores heap values little-endian (see native.memory), so this
// answers what the *host* CPU is, which governs whether host-encoded
// constants would need swapping by a real per-target backend.
func ShowEndianness() string {
	if binary.NativeEndian.Uint16([]byte{1, 0}) == 1 {
		return "little"
	}
	return "big"
}

// ShowFloat reports the floating point representation used by immd/immf
// (§6 "--show-float"): always IEEE 754, encoded via ir.EncodeF64/EncodeF32.
func ShowFloat() string { return "IEEE 754" }
