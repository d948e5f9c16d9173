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

package driver_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lirjit/lirjit/driver"
	"github.com/lirjit/lirjit/ir"
	"github.com/lirjit/lirjit/native"
)

func TestFormatResult(t *testing.T) {
	cases := []struct {
		name string
		r    native.Result
		want string
	}{
		{"int", native.Result{Kind: ir.RetInt, Int: 5}, "Output is: 5"},
		{"quad", native.Result{Kind: ir.RetQuad, Quad: -7}, "Output is: -7"},
		{"double", native.Result{Kind: ir.RetDouble, Double: 1.5}, "Output is: 1.5"},
		{"double-inf", native.Result{Kind: ir.RetDouble, Double: math.Inf(1)}, "Output is: INF"},
		{"double-neg-inf", native.Result{Kind: ir.RetDouble, Double: math.Inf(-1)}, "Output is: -INF"},
		{"double-nan", native.Result{Kind: ir.RetDouble, Double: math.NaN()}, "Output is: NAN"},
		{"float4", native.Result{Kind: ir.RetFloat4, Float4: [4]float32{1, 2, 3, 4}}, "Output is: 1,2,3,4"},
		{"exited", native.Result{Exited: true, ExitLine: 9}, "Exited block on line: 9"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, driver.FormatResult(c.r))
		})
	}
}
