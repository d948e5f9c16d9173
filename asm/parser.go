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
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/lirjit/lirjit/ir"
)

const maxErrors = 10

// NumReservedParams is the number of callee-saved parameter slots every
// fragment reserves on entry (§4.5 step 1). Concrete register assignment
// is outside this package's scope (per-target instruction encoding and
// register allocation are non-goals); the parameter pseudo-instructions
// exist so that the native emitter has a stable, abstract place to bind
// incoming arguments.
const NumReservedParams = 4

// ErrAsm collects every error produced while assembling a fragment. Up to
// maxErrors entries are kept before parsing aborts early.
type ErrAsm []struct {
	Line int
	Msg  string
}

func (e ErrAsm) Error() string {
	l := make([]string, 0, len(e))
	for _, err := range e {
		l = append(l, fmt.Sprintf("line %d: %s", err.Line, err.Msg))
	}
	return strings.Join(l, "\n")
}

var abiNames = map[string]ir.ABI{
	"cdecl":    ir.ABICdecl,
	"fastcall": ir.ABIFastcall,
	"stdcall":  ir.ABIStdcall,
	"thiscall": ir.ABIThiscall,
}

// pendingJump records a branch whose target label had not yet been
// defined when the branch was parsed, per the forward-jump worklist in
// §4.5 step 3.
type pendingJump struct {
	name string
	node *ir.Node
	line int
}

// Parser assembles a single fragment body: the sequence of statements
// between a ".begin NAME" (or the start of file, for the implicit main
// fragment) and ".end" or EOF.
type Parser struct {
	tok  *Tokenizer
	sink ir.Sink
	frag *ir.Fragment

	jumps []pendingJump
	errs  ErrAsm

	// lastBranchTarget is set by parseBranch for statement to consume
	// right after emitting the branch node, since the opcode-shape
	// dispatch only returns through the shared *ir.Instruction out-param.
	lastBranchTarget string

	// Diag receives non-fatal warnings (zero/mixed return-type bits).
	Diag io.Writer
}

// NewParser returns a Parser reading tokens from tok and emitting into
// sink.
func NewParser(tok *Tokenizer, sink ir.Sink) *Parser {
	return &Parser{tok: tok, sink: sink, Diag: io.Discard}
}

func (p *Parser) error(line int, msg string) {
	p.errs = append(p.errs, struct {
		Line int
		Msg  string
	}{line, msg})
}

func (p *Parser) abort() bool { return len(p.errs) >= maxErrors }

func (p *Parser) warn(msg string) {
	if p.Diag != nil {
		fmt.Fprintf(p.Diag, "warning: %s\n", msg)
	}
}

// AssembleFragment parses one fragment named name, per the protocol in
// §4.5. explicit is true when the fragment was opened with ".begin" (so
// a ".end" token is mandatory); it is false for the implicit top-level
// main fragment, where EOF also ends the body.
func (p *Parser) AssembleFragment(name string, explicit bool) (*ir.Fragment, error) {
	p.frag = ir.NewFragment(name)

	head, err := p.sink.Emit(ir.Instruction{Op: ir.OpStart})
	if err != nil {
		return nil, err
	}
	p.frag.Head = head
	for i := 0; i < NumReservedParams; i++ {
		if _, err := p.sink.Emit(ir.Instruction{Op: ir.OpParam}); err != nil {
			return nil, err
		}
	}

	lastLine := 1
	for !p.abort() {
		tok, err := p.tok.Peek()
		if err != nil {
			p.error(tok.Line, err.Error())
			p.tok.Get()
			continue
		}
		lastLine = tok.Line
		switch {
		case tok.Kind == TokEOF:
			if explicit {
				p.error(tok.Line, "unexpected EOF: missing .end")
			}
			goto done
		case tok.Kind == TokNewline:
			p.tok.Get()
			continue
		case tok.Kind == TokName && tok.Text == ".end":
			p.tok.Get()
			goto done
		}
		p.statement()
	}
done:
	if len(p.errs) > 0 {
		return nil, p.errs
	}

	for _, j := range p.jumps {
		target, ok := p.frag.JumpLabels[j.name]
		if !ok {
			p.error(j.line, "undefined label "+j.name)
			continue
		}
		j.node.Target = target
	}
	if len(p.errs) > 0 {
		return nil, p.errs
	}

	tail, err := p.sink.Emit(ir.Instruction{
		Op:    ir.OpX,
		Guard: &ir.GuardRecord{Exit: &ir.SideExit{Line: lastLine}},
	})
	if err != nil {
		return nil, err
	}
	p.frag.Tail = tail

	switch n := p.frag.ReturnMaskPopCount(); {
	case n == 0:
		p.warn(name + ": no return type")
	case n > 1:
		p.warn(name + ": multiple return types")
	}

	return p.frag, nil
}

// statement parses one (NAME ":")? (NAME "=")? OPCODE operand* NEWLINE
// production.
func (p *Parser) statement() {
	var boundName string

	tok, _ := p.tok.Peek()
	if tok.Kind == TokName {
		if next, _ := p.tok.Peek2(); next.Kind == TokPunct && next.Text == ":" {
			p.tok.Get() // name
			p.tok.Get() // ':'
			labelName := tok.Text
			if _, dup := p.frag.JumpLabels[labelName]; dup {
				p.error(tok.Line, "duplicate label "+labelName)
			} else {
				n, err := p.sink.Emit(ir.Instruction{Op: ir.OpLabel, Name: labelName, Line: tok.Line})
				if err != nil {
					p.error(tok.Line, err.Error())
					p.skipLine()
					return
				}
				p.frag.JumpLabels[labelName] = n
				p.frag.Labels[labelName] = n
			}
			tok, _ = p.tok.Peek()
			if tok.Kind == TokNewline || tok.Kind == TokEOF {
				if tok.Kind == TokNewline {
					p.tok.Get()
				}
				return
			}
		}
	}

	tok, _ = p.tok.Peek()
	if tok.Kind == TokName {
		if next, _ := p.tok.Peek2(); next.Kind == TokPunct && next.Text == "=" {
			p.tok.Get() // name
			p.tok.Get() // '='
			boundName = tok.Text
			if _, dup := p.frag.Labels[boundName]; dup {
				p.error(tok.Line, "duplicate bound name "+boundName)
			}
		}
	}

	opTok, err := p.tok.Get()
	if err != nil {
		p.error(opTok.Line, err.Error())
		p.skipLine()
		return
	}
	if opTok.Kind != TokName {
		p.error(opTok.Line, "expected opcode, got "+opTok.Kind.String())
		p.skipLine()
		return
	}
	op, ok := ir.OpcodeByName(opTok.Text)
	if !ok {
		p.error(opTok.Line, "unknown opcode "+opTok.Text)
		p.skipLine()
		return
	}

	in := ir.Instruction{Op: op, Name: boundName, Line: opTok.Line}
	switch op.ShapeOf() {
	case ir.ShapeImm:
		p.parseImmediate(&in, opTok.Line)
	case ir.ShapeUnary, ir.ShapeBinary, ir.ShapeTernary:
		p.parseArith(&in, op.NumArgs())
	case ir.ShapeLoad:
		p.parseLoad(&in)
	case ir.ShapeStore:
		p.parseStore(&in)
	case ir.ShapeCall:
		p.parseCall(&in)
	case ir.ShapeBranch:
		p.parseBranch(&in, op)
	case ir.ShapeGuard:
		p.parseGuard(&in, op, opTok.Line)
	case ir.ShapeReturn:
		p.parseReturn(&in, op)
	default:
		p.error(opTok.Line, "opcode "+opTok.Text+" cannot appear in a fragment body")
	}
	if op.IsXov() {
		in.Guard = &ir.GuardRecord{Exit: &ir.SideExit{Line: opTok.Line}}
	}

	if p.abort() {
		return
	}

	n, err := p.sink.Emit(in)
	if err != nil {
		p.error(opTok.Line, err.Error())
		p.skipLine()
		return
	}
	if boundName != "" {
		p.frag.Labels[boundName] = n
	}
	if op.IsBranch() {
		p.jumps = append(p.jumps, pendingJump{name: p.lastBranchTarget, node: n, line: opTok.Line})
	}

	p.expectEOL()
}

func (p *Parser) skipLine() {
	for {
		tok, err := p.tok.Get()
		if err != nil || tok.Kind == TokEOF || tok.Kind == TokNewline {
			return
		}
	}
}

func (p *Parser) expectEOL() {
	tok, err := p.tok.Get()
	if err != nil {
		p.error(tok.Line, err.Error())
		return
	}
	if tok.Kind != TokNewline && tok.Kind != TokEOF {
		p.error(tok.Line, "expected end of line, got "+tok.Text)
		p.skipLine()
	}
}

func (p *Parser) resolveOperand(name string, line int) *ir.Node {
	n, ok := p.frag.Labels[name]
	if !ok {
		p.error(line, "undefined operand "+name)
		return nil
	}
	return n
}

func (p *Parser) parseArith(in *ir.Instruction, n int) {
	args := make([]*ir.Node, 0, n)
	for i := 0; i < n; i++ {
		tok, err := p.tok.Get()
		if err != nil {
			p.error(tok.Line, err.Error())
			return
		}
		if tok.Kind != TokName {
			p.error(tok.Line, "expected operand name, got "+tok.Kind.String())
			return
		}
		if node := p.resolveOperand(tok.Text, tok.Line); node != nil {
			args = append(args, node)
		}
	}
	in.Args = args
}

func (p *Parser) parseImmediate(in *ir.Instruction, line int) {
	switch literalKindFor(in.Op) {
	case litInt:
		v, ok := p.parseIntLiteral()
		if ok {
			in.Imm = v
		}
	case litFloat64:
		v, ok := p.parseFloatLiteral(64)
		if ok {
			in.Imm = ir.EncodeF64(v)
		}
	case litFloat32:
		v, ok := p.parseFloatLiteral(32)
		if ok {
			in.Imm = ir.EncodeF32(float32(v))
		}
	case litFloat4:
		for i := 0; i < 4; i++ {
			v, ok := p.parseFloatLiteral(32)
			if ok {
				in.ImmF4[i] = float32(v)
			}
		}
	}
}

func (p *Parser) parseIntLiteral() (int64, bool) {
	tok, err := p.tok.Get()
	if err != nil {
		p.error(tok.Line, err.Error())
		return 0, false
	}
	if tok.Kind != TokNumber {
		p.error(tok.Line, "expected integer literal, got "+tok.Kind.String())
		return 0, false
	}
	v, perr := strconv.ParseInt(tok.Text, 0, 64)
	if perr != nil {
		p.error(tok.Line, "bad integer literal "+tok.Text)
		return 0, false
	}
	return v, true
}

func (p *Parser) parseFloatLiteral(bits int) (float64, bool) {
	tok, err := p.tok.Get()
	if err != nil {
		p.error(tok.Line, err.Error())
		return 0, false
	}
	if tok.Kind != TokNumber {
		p.error(tok.Line, "expected float literal, got "+tok.Kind.String())
		return 0, false
	}
	v, perr := strconv.ParseFloat(tok.Text, bits)
	if perr != nil {
		p.error(tok.Line, "bad float literal "+tok.Text)
		return 0, false
	}
	return v, true
}

func (p *Parser) parseLoad(in *ir.Instruction) {
	baseTok, err := p.tok.Get()
	if err != nil {
		p.error(baseTok.Line, err.Error())
		return
	}
	if baseTok.Kind != TokName {
		p.error(baseTok.Line, "expected base operand name")
		return
	}
	base := p.resolveOperand(baseTok.Text, baseTok.Line)
	off, ok := p.parseIntLiteral()
	if base == nil || !ok {
		return
	}
	in.Args = []*ir.Node{base}
	in.Imm = off
	in.Access = ir.AccessAny
}

func (p *Parser) parseStore(in *ir.Instruction) {
	valTok, err := p.tok.Get()
	if err != nil {
		p.error(valTok.Line, err.Error())
		return
	}
	if valTok.Kind != TokName {
		p.error(valTok.Line, "expected value operand name")
		return
	}
	val := p.resolveOperand(valTok.Text, valTok.Line)

	baseTok, err := p.tok.Get()
	if err != nil {
		p.error(baseTok.Line, err.Error())
		return
	}
	if baseTok.Kind != TokName {
		p.error(baseTok.Line, "expected base operand name")
		return
	}
	base := p.resolveOperand(baseTok.Text, baseTok.Line)

	off, ok := p.parseIntLiteral()
	if val == nil || base == nil || !ok {
		return
	}
	in.Args = []*ir.Node{val, base}
	in.Imm = off
	in.Access = ir.AccessAny
}

func (p *Parser) parseCall(in *ir.Instruction) {
	fnTok, err := p.tok.Get()
	if err != nil {
		p.error(fnTok.Line, err.Error())
		return
	}
	if fnTok.Kind != TokName {
		p.error(fnTok.Line, "expected function name")
		return
	}
	abiTok, err := p.tok.Get()
	if err != nil {
		p.error(abiTok.Line, err.Error())
		return
	}
	abi, ok := abiNames[abiTok.Text]
	if !ok {
		p.error(abiTok.Line, "unknown calling convention "+abiTok.Text)
		return
	}

	var args []*ir.Node
	var argTypes []ir.ResultType
	for {
		tok, err := p.tok.Peek()
		if err != nil || tok.Kind != TokName {
			break
		}
		p.tok.Get()
		n := p.resolveOperand(tok.Text, tok.Line)
		if n == nil {
			return
		}
		args = append(args, n)
		argTypes = append(argTypes, n.Type)
	}

	var ci ir.CallInfo
	if builtin, ok := BuiltinFunctions[fnTok.Text]; ok {
		if builtin.ABI != abi {
			p.error(abiTok.Line, "ABI mismatch with built-in "+fnTok.Text)
			return
		}
		if len(builtin.Args) != len(args) {
			p.error(fnTok.Line, "wrong argument count for built-in "+fnTok.Text)
			return
		}
		ci = builtin
	} else {
		ci = ir.CallInfo{
			Name:   fnTok.Text,
			ABI:    abi,
			Args:   argTypes,
			Ret:    in.Op.ResultTypeOf(),
			Pure:   false,
			Access: ir.AccessAny,
		}
	}
	in.Call = &ci
	in.Access = ci.Access

	// Reverse-lexical-order operand vector: a historical ABI artifact
	// callers rely on positionally (§9 Design Notes).
	rev := make([]*ir.Node, len(args))
	for i, a := range args {
		rev[len(args)-1-i] = a
	}
	in.Args = rev
}

func (p *Parser) parseBranch(in *ir.Instruction, op ir.Opcode) {
	n := op.NumArgs()
	if n > 0 {
		p.parseArith(in, n)
	}
	tok, err := p.tok.Get()
	if err != nil {
		p.error(tok.Line, err.Error())
		return
	}
	if tok.Kind != TokName {
		p.error(tok.Line, "expected branch target label")
		return
	}
	p.lastBranchTarget = tok.Text
}

func (p *Parser) parseGuard(in *ir.Instruction, op ir.Opcode, line int) {
	n := op.NumArgs()
	if n > 0 {
		p.parseArith(in, n)
	}
	in.Guard = &ir.GuardRecord{Exit: &ir.SideExit{Line: line}}
}

func (p *Parser) parseReturn(in *ir.Instruction, op ir.Opcode) {
	if op.NumArgs() > 0 {
		p.parseArith(in, 1)
	}
	p.frag.ObserveReturn(returnKindFor(op))
}
