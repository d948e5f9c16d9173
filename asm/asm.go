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

// Package asm implements the textual front-end of the JIT: a tokenizer
// (§4.4), a fragment assembler that turns a stream of LIR statements into
// calls against a writer-pipeline Sink (§4.5), and the fragment registry
// with its one exposed patch operation (§4.7).
//
// A source file is either a single implicit "main" fragment (no
// .begin/.end at all, body starts at the first opcode) or any number of
// explicit ".begin NAME ... .end" fragments interleaved with
// ".patch src.label -> dest" directives; the two forms are mutually
// exclusive within one file.
package asm

import (
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/lirjit/lirjit/ir"
)

// SinkFactory returns a fresh writer-pipeline Sink for one fragment. The
// driver supplies this so that every fragment gets its own Buffer (and
// thus its own per-fragment instruction addressing) and its own CSE
// cache, per §4.3/§4.5.
type SinkFactory func() ir.Sink

// Parse reads name's whole document from r, assembling every fragment it
// contains into a Registry. patcher, if non-nil, is invoked for each
// ".patch" directive to rewrite the compiled trampoline; pass nil to
// defer patching until fragments have been natively compiled.
func Parse(name string, r io.Reader, newSink SinkFactory, patcher Patcher) (*Registry, error) {
	tok := NewTokenizer(r)
	reg := NewRegistry()
	var errs ErrAsm

	sawDirective := false
	for {
		t, err := tok.Peek()
		if err != nil {
			errs = append(errs, errItem(t.Line, err.Error()))
			tok.Get()
			continue
		}
		switch {
		case t.Kind == TokEOF:
			if len(errs) > 0 {
				return reg, errs
			}
			return reg, nil
		case t.Kind == TokNewline:
			tok.Get()
			continue
		case t.Kind == TokName && t.Text == ".begin":
			sawDirective = true
			tok.Get()
			nameTok, err := tok.Get()
			if err != nil || nameTok.Kind != TokName {
				errs = append(errs, errItem(nameTok.Line, "expected fragment name after .begin"))
				skipToNewline(tok)
				continue
			}
			skipToNewline(tok)
			p := NewParser(tok, newSink())
			frag, ferr := p.AssembleFragment(nameTok.Text, true)
			if ferr != nil {
				errs = append(errs, flatten(ferr)...)
				continue
			}
			if err := reg.Add(frag); err != nil {
				errs = append(errs, errItem(nameTok.Line, err.Error()))
			}
		case t.Kind == TokName && t.Text == ".patch":
			sawDirective = true
			tok.Get()
			if err := parsePatchDirective(tok, reg, patcher); err != nil {
				errs = append(errs, errItem(t.Line, err.Error()))
			}
			skipToNewline(tok)
		default:
			if sawDirective {
				errs = append(errs, errItem(t.Line, "unexpected statement outside .begin/.end: "+t.Text))
				skipToNewline(tok)
				continue
			}
			p := NewParser(tok, newSink())
			frag, ferr := p.AssembleFragment("main", false)
			if ferr != nil {
				errs = append(errs, flatten(ferr)...)
			} else if err := reg.Add(frag); err != nil {
				errs = append(errs, errItem(t.Line, err.Error()))
			}
			if len(errs) > 0 {
				return reg, errs
			}
			return reg, nil
		}
	}
}

func errItem(line int, msg string) struct {
	Line int
	Msg  string
} {
	return struct {
		Line int
		Msg  string
	}{line, msg}
}

func flatten(err error) ErrAsm {
	if ea, ok := err.(ErrAsm); ok {
		return ea
	}
	return ErrAsm{errItem(0, err.Error())}
}

func skipToNewline(tok *Tokenizer) {
	for {
		t, err := tok.Get()
		if err != nil || t.Kind == TokNewline || t.Kind == TokEOF {
			return
		}
	}
}

// parsePatchDirective consumes 'NAME "->" NAME' after the leading
// ".patch" token has already been consumed. The first NAME is a single
// dotted token "src.guardLabel" -- '.' is part of the tokenizer's
// identifier charset (§4.4), so "fragment.label" reads as one NAME, not
// three, and is split here.
func parsePatchDirective(tok *Tokenizer, reg *Registry, patcher Patcher) error {
	qualTok, err := tok.Get()
	if err != nil || qualTok.Kind != TokName {
		return errors.New(".patch: expected src.guardLabel")
	}
	dot := strings.IndexByte(qualTok.Text, '.')
	if dot < 0 {
		return errors.Errorf(".patch: expected src.guardLabel, got %q", qualTok.Text)
	}
	srcName, labelName := qualTok.Text[:dot], qualTok.Text[dot+1:]
	if srcName == "" || labelName == "" {
		return errors.Errorf(".patch: expected src.guardLabel, got %q", qualTok.Text)
	}

	arrowTok, err := tok.Get()
	if err != nil || arrowTok.Kind != TokPunct || arrowTok.Text != "->" {
		return errors.New(".patch: expected '->'")
	}
	destTok, err := tok.Get()
	if err != nil || destTok.Kind != TokName {
		return errors.New(".patch: expected destination fragment name")
	}
	return reg.Patch(srcName, labelName, destTok.Text, patcher)
}
