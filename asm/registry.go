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

package asm

import (
	"github.com/pkg/errors"

	"github.com/lirjit/lirjit/ir"
)

// Patcher is implemented by the native emitter. Repatch rewrites the
// trampoline at a guard site so that, on trigger, it falls through to
// dest's entry instead of its default side-exit stub (§4.6/§4.7).
type Patcher interface {
	Repatch(guard *ir.Node, dest *ir.Fragment) error
}

// Registry holds every assembled fragment by name (§4.7).
type Registry struct {
	frags map[string]*ir.Fragment
	order []string
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{frags: make(map[string]*ir.Fragment)}
}

// Add registers f. It is an error to register two fragments under the
// same name.
func (r *Registry) Add(f *ir.Fragment) error {
	if _, dup := r.frags[f.Name]; dup {
		return errors.Errorf("fragment %q already defined", f.Name)
	}
	r.frags[f.Name] = f
	r.order = append(r.order, f.Name)
	return nil
}

// Get looks up a fragment by name.
func (r *Registry) Get(name string) (*ir.Fragment, bool) {
	f, ok := r.frags[name]
	return f, ok
}

// Names returns every registered fragment name, in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Patch implements the ".patch src.guardLabel -> destFrag" operation
// (§4.7): locate the guard instruction bound to guardLabel inside src,
// point its side exit at destName's fragment, and ask p to rewrite the
// compiled trampoline accordingly.
func (r *Registry) Patch(srcName, guardLabel, destName string, p Patcher) error {
	src, ok := r.Get(srcName)
	if !ok {
		return errors.Errorf("patch: unknown fragment %q", srcName)
	}
	dest, ok := r.Get(destName)
	if !ok {
		return errors.Errorf("patch: unknown fragment %q", destName)
	}
	guard, ok := src.Labels[guardLabel]
	if !ok {
		return errors.Errorf("patch: %s has no label %q", srcName, guardLabel)
	}
	if guard.Guard == nil || guard.Guard.Exit == nil {
		return errors.Errorf("patch: %s.%s is not a guard instruction", srcName, guardLabel)
	}
	guard.Guard.Exit.Target = dest
	if p == nil {
		return nil
	}
	return errors.Wrapf(p.Repatch(guard, dest), "patch: %s.%s -> %s", srcName, guardLabel, destName)
}
