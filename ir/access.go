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

// AccessSet is a coarse alias class tagged on loads, stores and calls so
// that CSE and scheduling can reason about aliasing conservatively: two
// memory operations that share no bit can never alias.
type AccessSet uint32

// AccessAny means "may touch anything"; it never merges with, nor is ever
// considered disjoint from, any other class.
const AccessAny AccessSet = ^AccessSet(0)

// Disjoint reports whether a and b share no access class, i.e. whether a
// load tagged b can be safely reordered/merged across a store tagged a.
func (a AccessSet) Disjoint(b AccessSet) bool {
	if a == AccessAny || b == AccessAny {
		return false
	}
	return a&b == 0
}
