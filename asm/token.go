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
	"bufio"
	"fmt"
	"io"
)

// TokenKind classifies a lexeme produced by the tokenizer, per §4.4.
type TokenKind int

const (
	TokEOF TokenKind = iota
	TokName
	TokNumber
	TokPunct
	TokNewline
)

func (k TokenKind) String() string {
	switch k {
	case TokEOF:
		return "EOF"
	case TokName:
		return "NAME"
	case TokNumber:
		return "NUMBER"
	case TokPunct:
		return "PUNCT"
	case TokNewline:
		return "NEWLINE"
	default:
		return "?"
	}
}

// Token is one lexeme plus the source line it came from, for diagnostics.
type Token struct {
	Kind TokenKind
	Text string
	Line int
}

func identRune(b byte) bool {
	switch {
	case b >= 'A' && b <= 'Z', b >= 'a' && b <= 'z', b >= '0' && b <= '9':
		return true
	case b == '_' || b == '$' || b == '.' || b == '+' || b == '-':
		return true
	}
	return false
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

const singleCharPunct = ":,=[]()"

// bufTok is one queued lookahead result of the tokenizer.
type bufTok struct {
	tok Token
	err error
}

// Tokenizer is a single-pass, line-based, ASCII-only lexer over the LIR
// textual form. It is deliberately not built on text/scanner: the
// grammar needs the two-character "->" punctuation token, which
// text/scanner's Ident/Int/rune classification cannot produce directly.
type Tokenizer struct {
	r    *bufio.Reader
	line int

	buf []bufTok // queued lookahead tokens, front = buf[0]
}

// NewTokenizer returns a Tokenizer reading from r.
func NewTokenizer(r io.Reader) *Tokenizer {
	return &Tokenizer{r: bufio.NewReader(r), line: 1}
}

func (t *Tokenizer) readByte() (byte, bool) {
	b, err := t.r.ReadByte()
	if err != nil {
		return 0, false
	}
	return b, true
}

func (t *Tokenizer) unread() { _ = t.r.UnreadByte() }

func (t *Tokenizer) fill(n int) {
	for len(t.buf) < n {
		tok, err := t.scan()
		t.buf = append(t.buf, bufTok{tok, err})
	}
}

// Get returns the next token.
func (t *Tokenizer) Get() (Token, error) {
	t.fill(1)
	bt := t.buf[0]
	t.buf = t.buf[1:]
	return bt.tok, bt.err
}

// Peek returns the next token without consuming it.
func (t *Tokenizer) Peek() (Token, error) {
	t.fill(1)
	return t.buf[0].tok, t.buf[0].err
}

// Peek2 returns the token after the next one, without consuming either.
func (t *Tokenizer) Peek2() (Token, error) {
	t.fill(2)
	return t.buf[1].tok, t.buf[1].err
}

func (t *Tokenizer) scan() (Token, error) {
	for {
		b, ok := t.readByte()
		if !ok {
			return Token{Kind: TokEOF, Line: t.line}, nil
		}
		switch {
		case b == ' ' || b == '\t' || b == '\r':
			continue
		case b == ';':
			for {
				c, ok := t.readByte()
				if !ok || c == '\n' {
					break
				}
			}
			line := t.line
			t.line++
			return Token{Kind: TokNewline, Text: "\n", Line: line}, nil
		case b == '\n':
			line := t.line
			t.line++
			return Token{Kind: TokNewline, Text: "\n", Line: line}, nil
		case b == '-':
			nb, ok := t.readByte()
			if ok && nb == '>' {
				return Token{Kind: TokPunct, Text: "->", Line: t.line}, nil
			}
			if ok {
				t.unread()
			}
			return t.scanIdentLike(b)
		case identRune(b):
			return t.scanIdentLike(b)
		case containsByte(singleCharPunct, b):
			return Token{Kind: TokPunct, Text: string(b), Line: t.line}, nil
		default:
			return Token{}, fmt.Errorf("line %d: unrecognized character %q", t.line, b)
		}
	}
}

func containsByte(s string, b byte) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return true
		}
	}
	return false
}

// scanIdentLike consumes a maximal run of identifier-like bytes starting
// with first (already consumed), then classifies it as NUMBER or NAME.
func (t *Tokenizer) scanIdentLike(first byte) (Token, error) {
	buf := []byte{first}
	for {
		b, ok := t.readByte()
		if !ok {
			break
		}
		if !identRune(b) {
			t.unread()
			break
		}
		buf = append(buf, b)
	}
	s := string(buf)
	return Token{Kind: classify(s), Text: s, Line: t.line}, nil
}

// classify implements §4.4's NUMBER/NAME split: a "0x"/"0X"-prefixed or
// digit-led run (including a leading '.', as in ".9") is NUMBER, as is a
// '+' or '-' sign followed by such a run (as in "-5" or "-.5"); everything
// else is NAME.
func classify(s string) TokenKind {
	if len(s) == 0 {
		return TokName
	}
	if len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return TokNumber
	}
	if isDigit(s[0]) {
		return TokNumber
	}
	if s[0] == '.' && len(s) > 1 && isDigit(s[1]) {
		return TokNumber
	}
	if (s[0] == '+' || s[0] == '-') && len(s) > 1 && (isDigit(s[1]) || (s[1] == '.' && len(s) > 2 && isDigit(s[2]))) {
		return TokNumber
	}
	return TokName
}
