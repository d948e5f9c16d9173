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

// SideExit describes where control goes when a guard trips: either the
// fragment's own implicit "failed here" stub (Target == nil) or another
// fragment that a .patch operation has wired in.
type SideExit struct {
	Line   int // source line, for the "Exited block on line: N" diagnostic
	Target *Fragment
}

// GuardRecord links a guard/guard-xov instruction to its side exit. It is
// allocated fresh for every guard-shaped node; nothing else shares it.
type GuardRecord struct {
	Exit *SideExit
}
