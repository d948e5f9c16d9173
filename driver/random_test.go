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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lirjit/lirjit/driver"
	"github.com/lirjit/lirjit/internal/arena"
	"github.com/lirjit/lirjit/ir"
	"github.com/lirjit/lirjit/native"
)

func TestRandomFragment_Deterministic(t *testing.T) {
	sink1 := ir.NewBuffer(arena.New[ir.Node](256))
	sink2 := ir.NewBuffer(arena.New[ir.Node](256))

	f1, err := driver.RandomFragment(sink1, 20, 7)
	require.NoError(t, err)
	f2, err := driver.RandomFragment(sink2, 20, 7)
	require.NoError(t, err)

	assert.Equal(t, ir.RetInt, f1.ReturnType)
	assert.Equal(t, f1.ReturnType, f2.ReturnType)

	in, err := native.NewInterp(0)
	require.NoError(t, err)

	status1, err := in.Compile(f1)
	require.NoError(t, err)
	require.Equal(t, native.StatusNone, status1)
	status2, err := in.Compile(f2)
	require.NoError(t, err)
	require.Equal(t, native.StatusNone, status2)

	r1 := f1.Entry.(native.Entry)()
	r2 := f2.Entry.(native.Entry)()
	assert.Equal(t, r1, r2, "same seed must reproduce the same synthetic fragment")
}

func TestRandomFragment_ZeroClampsToOne(t *testing.T) {
	sink := ir.NewBuffer(arena.New[ir.Node](64))
	frag, err := driver.RandomFragment(sink, 0, 1)
	require.NoError(t, err)
	assert.NotNil(t, frag.Head)
	assert.NotNil(t, frag.Tail)
}
