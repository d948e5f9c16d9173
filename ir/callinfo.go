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

// ABI enumerates the calling conventions a CallInfo may describe.
type ABI uint8

const (
	ABICdecl ABI = iota
	ABIFastcall
	ABIStdcall
	ABIThiscall
)

func (a ABI) String() string {
	switch a {
	case ABICdecl:
		return "cdecl"
	case ABIFastcall:
		return "fastcall"
	case ABIStdcall:
		return "stdcall"
	case ABIThiscall:
		return "thiscall"
	default:
		return "?"
	}
}

// CallInfo describes the target of a call node: its absolute address, its
// calling convention, the types of its arguments, whether it is pure (so
// CSE may merge repeat calls), and the access set it may write through.
//
// Built-in CallInfos are static, process-wide, read-only data (see
// asm.BuiltinFunctions); user-defined functions get a CallInfo built by
// inference from the call site (return type from the opcode variant,
// argument types from each operand's result type).
type CallInfo struct {
	Name   string
	Target uintptr
	ABI    ABI
	Args   []ResultType
	Ret    ResultType
	Pure   bool
	Access AccessSet
}
