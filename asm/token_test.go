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
	"strings"
	"testing"
)

func scanAll(t *testing.T, src string) []Token {
	t.Helper()
	tok := NewTokenizer(strings.NewReader(src))
	var out []Token
	for {
		tk, err := tok.Get()
		if err != nil {
			t.Fatalf("unexpected scan error: %v", err)
		}
		out = append(out, tk)
		if tk.Kind == TokEOF {
			return out
		}
	}
}

func TestTokenizer_Arrow(t *testing.T) {
	toks := scanAll(t, "a -> b")
	if toks[0].Kind != TokName || toks[0].Text != "a" {
		t.Fatalf("tok0 = %+v", toks[0])
	}
	if toks[1].Kind != TokPunct || toks[1].Text != "->" {
		t.Fatalf("expected a single '->' punct token, got %+v", toks[1])
	}
	if toks[2].Kind != TokName || toks[2].Text != "b" {
		t.Fatalf("tok2 = %+v", toks[2])
	}
}

func TestTokenizer_QualifiedNameIsOneToken(t *testing.T) {
	toks := scanAll(t, "fragA.guardLabel\n")
	if toks[0].Kind != TokName || toks[0].Text != "fragA.guardLabel" {
		t.Fatalf("expected one qualified NAME token, got %+v", toks[0])
	}
}

func TestTokenizer_NumberClassification(t *testing.T) {
	cases := []struct {
		src  string
		kind TokenKind
	}{
		{"0x1F", TokNumber},
		{"0X1f", TokNumber},
		{"123", TokNumber},
		{".9", TokNumber},
		{"-5", TokNumber},
		{"+5", TokNumber},
		{"-.5", TokNumber},
		{"x1", TokName},
		{"r", TokName},
		{"-x", TokName},
	}
	for _, c := range cases {
		toks := scanAll(t, c.src)
		if toks[0].Kind != c.kind {
			t.Errorf("classify(%q) = %v, want %v", c.src, toks[0].Kind, c.kind)
		}
	}
}

func TestTokenizer_CommentRunsToEndOfLine(t *testing.T) {
	toks := scanAll(t, "a ; this is a comment\nb\n")
	if toks[0].Kind != TokName || toks[0].Text != "a" {
		t.Fatalf("tok0 = %+v", toks[0])
	}
	if toks[1].Kind != TokNewline {
		t.Fatalf("expected comment to end at newline, got %+v", toks[1])
	}
	if toks[2].Kind != TokName || toks[2].Text != "b" {
		t.Fatalf("tok2 = %+v", toks[2])
	}
}

func TestTokenizer_PeekAndPeek2DoNotConsume(t *testing.T) {
	tok := NewTokenizer(strings.NewReader("a b c"))
	first, _ := tok.Peek()
	second, _ := tok.Peek2()
	if first.Text != "a" || second.Text != "b" {
		t.Fatalf("Peek/Peek2 = %q, %q", first.Text, second.Text)
	}
	got, _ := tok.Get()
	if got.Text != "a" {
		t.Fatalf("Get after Peek returned %q, want a", got.Text)
	}
	got, _ = tok.Get()
	if got.Text != "b" {
		t.Fatalf("Get returned %q, want b", got.Text)
	}
}

func TestTokenizer_SingleCharPunct(t *testing.T) {
	toks := scanAll(t, "L:\nr=x\n[](),")
	want := []struct {
		kind TokenKind
		text string
	}{
		{TokName, "L"}, {TokPunct, ":"}, {TokNewline, "\n"},
		{TokName, "r"}, {TokPunct, "="}, {TokName, "x"}, {TokNewline, "\n"},
		{TokPunct, "["}, {TokPunct, "]"}, {TokPunct, "("}, {TokPunct, ")"}, {TokPunct, ","},
	}
	if len(toks) < len(want) {
		t.Fatalf("got %d tokens, want at least %d", len(toks), len(want))
	}
	for i, w := range want {
		if toks[i].Kind != w.kind || toks[i].Text != w.text {
			t.Errorf("tok %d = %+v, want {%v %q}", i, toks[i], w.kind, w.text)
		}
	}
}

func TestTokenizer_UnrecognizedCharacterIsAnError(t *testing.T) {
	tok := NewTokenizer(strings.NewReader("@"))
	_, err := tok.Get()
	if err == nil {
		t.Fatal("expected an error for an unrecognized character")
	}
}
