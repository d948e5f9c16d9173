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

import "math"

// EncodeF64 packs v into the bit pattern stored by an OpImmD node's Imm
// field.
func EncodeF64(v float64) int64 { return int64(math.Float64bits(v)) }

// DecodeF64 unpacks the value stored in an OpImmD node's Imm field.
func DecodeF64(imm int64) float64 { return math.Float64frombits(uint64(imm)) }

// EncodeF32 packs v into the bit pattern stored by an OpImmF node's Imm
// field.
func EncodeF32(v float32) int64 { return int64(math.Float32bits(v)) }

// DecodeF32 unpacks the value stored in an OpImmF node's Imm field.
func DecodeF32(imm int64) float32 { return math.Float32frombits(uint32(imm)) }
