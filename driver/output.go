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
	"fmt"
	"math"

	"github.com/lirjit/lirjit/ir"
	"github.com/lirjit/lirjit/native"
)

// FormatResult renders one execution's Result in the exact shapes §6
// specifies: a decimal for int/quad, a %g-style float with explicit
// NAN/INF spelling for double/float, comma-joined components for
// float4, and the exited-block line when no return opcode ever staged a
// value before the terminating guard fired.
func FormatResult(r native.Result) string {
	if r.Exited {
		return fmt.Sprintf("Exited block on line: %d", r.ExitLine)
	}
	switch r.Kind {
	case ir.RetInt:
		return fmt.Sprintf("Output is: %d", r.Int)
	case ir.RetQuad:
		return fmt.Sprintf("Output is: %d", r.Quad)
	case ir.RetDouble:
		return fmt.Sprintf("Output is: %s", formatFloat(r.Double))
	case ir.RetFloat:
		return fmt.Sprintf("Output is: %s", formatFloat(float64(r.Float)))
	case ir.RetFloat4:
		return fmt.Sprintf("Output is: %s,%s,%s,%s",
			formatFloat(float64(r.Float4[0])), formatFloat(float64(r.Float4[1])),
			formatFloat(float64(r.Float4[2])), formatFloat(float64(r.Float4[3])))
	default:
		return "Output is: (none)"
	}
}

// formatFloat spells NaN/Inf the way the original reporting tool does
// rather than Go's default "NaN"/"+Inf", and otherwise uses %g.
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NAN"
	case math.IsInf(f, 1):
		return "INF"
	case math.IsInf(f, -1):
		return "-INF"
	default:
		return fmt.Sprintf("%g", f)
	}
}
