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

// Package asm reads the LIR textual form and produces ir.Fragments.
//
// A source document is either:
//
//   - a single implicit "main" fragment: no .begin/.end anywhere, the
//     body starts at the first opcode and runs to EOF;
//   - or any number of explicit fragments, each:
//
//     .begin NAME
//     ...statements...
//     .end
//
//     optionally interleaved with patch directives:
//
//     .patch src.guardLabel -> dest
//
// Within a fragment body, each line is one statement:
//
//	(NAME ":")? (NAME "=")? OPCODE operand*
//
// A leading "label:" marks a jump target. A leading "name =" binds the
// line's result so later statements can reference it by name. Comments
// run from ";" to end of line.
//
// Opcode operands are resolved by looking up already-bound names (LIR is
// append-only and each operand must already exist, per the data model's
// invariant); the exceptions are branch targets, which are resolved once
// the enclosing fragment's ".end" (or EOF) is reached, guard side-exit
// targets, which only a later ".patch" directive sets, and call
// argument lists, whose node vector is stored in reverse lexical order
// (a historical ABI artifact callers rely on positionally).
package asm
