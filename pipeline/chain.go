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

package pipeline

import (
	"io"

	"github.com/lirjit/lirjit/ir"
)

// Options selects which optional stages of the writer pipeline to build,
// per §4.3.
type Options struct {
	// VerboseLog, if non-nil, enables the Verbose stage and directs its
	// dump there.
	VerboseLog io.Writer

	// CSE enables the common-subexpression-elimination stage.
	CSE bool

	// SoftFloat enables rewriting float/double arithmetic and the
	// float-involving casts into soft-float helper calls, for targets
	// with no FP hardware at all.
	SoftFloat bool

	// Fold enables constant folding and algebraic simplification.
	Fold bool
}

// Build assembles the full writer pipeline ending at bottom (normally an
// *ir.Buffer), in the fixed order from §4.3: validate, verbose, CSE,
// soft-float, fold, validate, then bottom. Each enabled stage wraps the
// next, so the Sink returned here is the one the fragment assembler calls
// for every instruction it emits.
func Build(bottom ir.Sink, opts Options) ir.Sink {
	next := &Validate{Next: bottom}

	top := ir.Sink(next)
	if opts.Fold {
		top = &Fold{Next: top}
	}
	if opts.SoftFloat {
		top = &SoftFloat{Next: top}
	}
	if opts.CSE {
		top = &CSE{Next: top}
	}
	if opts.VerboseLog != nil {
		top = &Verbose{Next: top, Log: opts.VerboseLog}
	}
	top = &Validate{Next: top}
	return top
}
