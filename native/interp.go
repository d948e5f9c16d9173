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

package native

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"github.com/pkg/errors"

	"github.com/lirjit/lirjit/ir"
)

// Entry is the callable value Interp.Compile installs into a Fragment's
// Entry field. Calling it runs the fragment to its terminating guard (the
// trailing unconditional exit §4.5 step 4 always guarantees one is
// reached) and reports what happened.
type Entry func() Result

// Result is what a fragment run produced: either the value staged by the
// last return opcode executed along the taken path, or, if no return
// opcode ran before the terminating guard fired, the line the block
// exited on (§6 "Exited block on line").
type Result struct {
	Kind     ir.ReturnKind
	Int      int32
	Quad     int64
	Double   float64
	Float    float32
	Float4   [4]float32
	Exited   bool
	ExitLine int

	// Steps counts every node the interpreter visited to produce this
	// Result, including nodes visited in any fragment a patched guard
	// tail-chained into (§6 "-stats" instruction count).
	Steps int64
}

// cell is the dynamic value slot backing one node's result, sized for
// whichever of its fields n.Type actually uses.
type cell struct {
	i32 int32
	i64 int64
	f32 float32
	f64 float64
	f4  [4]float32
	ptr int64 // byte offset into the run's heap
}

// memory is the flat byte heap backing allocp/ld*/st*, grounded on
// vm/mem.go's LittleEndian-via-encoding/binary convention.
type memory struct {
	buf []byte
}

func (m *memory) alloc(n int32) int64 {
	off := int64(len(m.buf))
	m.buf = append(m.buf, make([]byte, n)...)
	return off
}

func (m *memory) ld32(off int64) int32 {
	return int32(binary.LittleEndian.Uint32(m.buf[off : off+4]))
}

func (m *memory) st32(off int64, v int32) {
	binary.LittleEndian.PutUint32(m.buf[off:off+4], uint32(v))
}

func (m *memory) ld64(off int64) int64 {
	return int64(binary.LittleEndian.Uint64(m.buf[off : off+8]))
}

func (m *memory) st64(off int64, v int64) {
	binary.LittleEndian.PutUint64(m.buf[off:off+8], uint64(v))
}

func (m *memory) ldf4(off int64) [4]float32 {
	var v [4]float32
	for i := range v {
		bits := binary.LittleEndian.Uint32(m.buf[off+int64(i*4) : off+int64(i*4)+4])
		v[i] = math.Float32frombits(bits)
	}
	return v
}

func (m *memory) stf4(off int64, v [4]float32) {
	for i, c := range v {
		binary.LittleEndian.PutUint32(m.buf[off+int64(i*4):off+int64(i*4)+4], math.Float32bits(c))
	}
}

// Interp is the portable reference Emitter (§4.6): it evaluates a
// fragment directly instead of translating it to real machine code,
// which is sound because per-target instruction encoding is explicitly
// out of scope. It still owns a CodeArena so the mmap/mprotect lifecycle
// a real backend would need is exercised (see codearena_unix.go).
type Interp struct {
	arena *CodeArena
}

// NewInterp returns an Interp backed by a fresh code arena of pageSize
// bytes; pass 0 to skip reserving one.
func NewInterp(pageSize int) (*Interp, error) {
	if pageSize == 0 {
		return &Interp{}, nil
	}
	a, err := NewCodeArena(pageSize)
	if err != nil {
		return nil, errors.Wrap(err, "native: code arena")
	}
	return &Interp{arena: a}, nil
}

// Compile implements Emitter. It stamps a small marker trampoline into the
// code arena (present so the executable-page contract is real, though
// Interp itself never jumps to it) and installs frag.Entry.
func (in *Interp) Compile(frag *ir.Fragment) (Status, error) {
	if frag.Head == nil || frag.Tail == nil {
		return StatusUnknownBranch, errors.Errorf("native: fragment %q has no instructions", frag.Name)
	}
	if in.arena != nil {
		if _, err := in.arena.Stamp(frag.Name); err != nil {
			return StatusStackFull, errors.Wrapf(err, "native: compile %q", frag.Name)
		}
	}
	frag.Entry = Entry(func() Result {
		return run(frag, &memory{})
	})
	return StatusNone, nil
}

// Repatch implements Emitter/asm.Patcher. Interp's guards re-read
// Guard.Exit.Target on every trigger, so there is no compiled trampoline
// to rewrite; Registry.Patch has already updated the target by the time
// this is called.
func (in *Interp) Repatch(guard *ir.Node, dest *ir.Fragment) error {
	return nil
}

// run executes one fragment to its terminating guard. Patched guards
// tail-chain into dest's own run rather than returning, so the top-level
// Result always reflects whichever fragment actually terminated the
// chain.
func run(frag *ir.Fragment, m *memory) Result {
	vals := make([]cell, frag.Tail.Addr+1)

	var (
		sawReturn  bool
		retKind    ir.ReturnKind
		retCell    cell
		lastOflow  bool
	)

	get := func(n *ir.Node) cell { return vals[n.Addr] }
	set := func(n *ir.Node, c cell) { vals[n.Addr] = c }

	var steps int64
	for n := frag.Head; n != nil; {
		steps++
		switch n.Op {
		case ir.OpStart, ir.OpParam, ir.OpLabel:
			// no computed value

		case ir.OpImmI:
			set(n, cell{i32: int32(n.Imm)})
		case ir.OpImmQ:
			set(n, cell{i64: n.Imm})
		case ir.OpImmD:
			set(n, cell{f64: ir.DecodeF64(n.Imm)})
		case ir.OpImmF:
			set(n, cell{f32: ir.DecodeF32(n.Imm)})
		case ir.OpImmF4:
			set(n, cell{f4: n.ImmF4})

		case ir.OpAddI:
			set(n, cell{i32: get(n.Args[0]).i32 + get(n.Args[1]).i32})
		case ir.OpSubI:
			set(n, cell{i32: get(n.Args[0]).i32 - get(n.Args[1]).i32})
		case ir.OpMulI:
			set(n, cell{i32: get(n.Args[0]).i32 * get(n.Args[1]).i32})
		case ir.OpDivI:
			set(n, cell{i32: get(n.Args[0]).i32 / get(n.Args[1]).i32})
		case ir.OpModI:
			set(n, cell{i32: get(n.Args[0]).i32 % get(n.Args[1]).i32})
		case ir.OpNegI:
			set(n, cell{i32: -get(n.Args[0]).i32})
		case ir.OpAndI:
			set(n, cell{i32: get(n.Args[0]).i32 & get(n.Args[1]).i32})
		case ir.OpOrI:
			set(n, cell{i32: get(n.Args[0]).i32 | get(n.Args[1]).i32})
		case ir.OpXorI:
			set(n, cell{i32: get(n.Args[0]).i32 ^ get(n.Args[1]).i32})
		case ir.OpNotI:
			set(n, cell{i32: ^get(n.Args[0]).i32})
		case ir.OpLshI:
			set(n, cell{i32: get(n.Args[0]).i32 << uint(get(n.Args[1]).i32&31)})
		case ir.OpRshI:
			set(n, cell{i32: get(n.Args[0]).i32 >> uint(get(n.Args[1]).i32&31)})
		case ir.OpRshUI:
			set(n, cell{i32: int32(uint32(get(n.Args[0]).i32) >> uint(get(n.Args[1]).i32&31))})

		case ir.OpAddQ:
			set(n, cell{i64: get(n.Args[0]).i64 + get(n.Args[1]).i64})
		case ir.OpSubQ:
			set(n, cell{i64: get(n.Args[0]).i64 - get(n.Args[1]).i64})
		case ir.OpMulQ:
			set(n, cell{i64: get(n.Args[0]).i64 * get(n.Args[1]).i64})
		case ir.OpAndQ:
			set(n, cell{i64: get(n.Args[0]).i64 & get(n.Args[1]).i64})
		case ir.OpOrQ:
			set(n, cell{i64: get(n.Args[0]).i64 | get(n.Args[1]).i64})
		case ir.OpXorQ:
			set(n, cell{i64: get(n.Args[0]).i64 ^ get(n.Args[1]).i64})
		case ir.OpLshQ:
			set(n, cell{i64: get(n.Args[0]).i64 << uint(get(n.Args[1]).i64)})
		case ir.OpRshQ:
			set(n, cell{i64: get(n.Args[0]).i64 >> uint(get(n.Args[1]).i64)})
		case ir.OpRshUQ:
			set(n, cell{i64: int64(uint64(get(n.Args[0]).i64) >> uint(get(n.Args[1]).i64))})

		case ir.OpAddD:
			set(n, cell{f64: get(n.Args[0]).f64 + get(n.Args[1]).f64})
		case ir.OpSubD:
			set(n, cell{f64: get(n.Args[0]).f64 - get(n.Args[1]).f64})
		case ir.OpMulD:
			set(n, cell{f64: get(n.Args[0]).f64 * get(n.Args[1]).f64})
		case ir.OpDivD:
			set(n, cell{f64: get(n.Args[0]).f64 / get(n.Args[1]).f64})
		case ir.OpNegD:
			set(n, cell{f64: -get(n.Args[0]).f64})

		case ir.OpAddF:
			set(n, cell{f32: get(n.Args[0]).f32 + get(n.Args[1]).f32})
		case ir.OpSubF:
			set(n, cell{f32: get(n.Args[0]).f32 - get(n.Args[1]).f32})
		case ir.OpMulF:
			set(n, cell{f32: get(n.Args[0]).f32 * get(n.Args[1]).f32})
		case ir.OpDivF:
			set(n, cell{f32: get(n.Args[0]).f32 / get(n.Args[1]).f32})
		case ir.OpNegF:
			set(n, cell{f32: -get(n.Args[0]).f32})

		case ir.OpEqI:
			set(n, boolCell(get(n.Args[0]).i32 == get(n.Args[1]).i32))
		case ir.OpLtI:
			set(n, boolCell(get(n.Args[0]).i32 < get(n.Args[1]).i32))
		case ir.OpGtI:
			set(n, boolCell(get(n.Args[0]).i32 > get(n.Args[1]).i32))
		case ir.OpLeI:
			set(n, boolCell(get(n.Args[0]).i32 <= get(n.Args[1]).i32))
		case ir.OpGeI:
			set(n, boolCell(get(n.Args[0]).i32 >= get(n.Args[1]).i32))
		case ir.OpEqQ:
			set(n, boolCell(get(n.Args[0]).i64 == get(n.Args[1]).i64))
		case ir.OpLtQ:
			set(n, boolCell(get(n.Args[0]).i64 < get(n.Args[1]).i64))
		case ir.OpGtQ:
			set(n, boolCell(get(n.Args[0]).i64 > get(n.Args[1]).i64))
		case ir.OpLeQ:
			set(n, boolCell(get(n.Args[0]).i64 <= get(n.Args[1]).i64))
		case ir.OpGeQ:
			set(n, boolCell(get(n.Args[0]).i64 >= get(n.Args[1]).i64))
		case ir.OpEqD:
			set(n, boolCell(get(n.Args[0]).f64 == get(n.Args[1]).f64))
		case ir.OpLtD:
			set(n, boolCell(get(n.Args[0]).f64 < get(n.Args[1]).f64))
		case ir.OpGtD:
			set(n, boolCell(get(n.Args[0]).f64 > get(n.Args[1]).f64))
		case ir.OpLeD:
			set(n, boolCell(get(n.Args[0]).f64 <= get(n.Args[1]).f64))
		case ir.OpGeD:
			set(n, boolCell(get(n.Args[0]).f64 >= get(n.Args[1]).f64))

		case ir.OpCmovI:
			if get(n.Args[0]).i32 != 0 {
				set(n, get(n.Args[1]))
			} else {
				set(n, get(n.Args[2]))
			}
		case ir.OpCmovQ:
			if get(n.Args[0]).i32 != 0 {
				set(n, get(n.Args[1]))
			} else {
				set(n, get(n.Args[2]))
			}
		case ir.OpCmovD:
			if get(n.Args[0]).i32 != 0 {
				set(n, get(n.Args[1]))
			} else {
				set(n, get(n.Args[2]))
			}

		case ir.OpI2Q:
			set(n, cell{i64: int64(get(n.Args[0]).i32)})
		case ir.OpQ2I:
			set(n, cell{i32: int32(get(n.Args[0]).i64)})
		case ir.OpI2D:
			set(n, cell{f64: float64(get(n.Args[0]).i32)})
		case ir.OpUI2D:
			set(n, cell{f64: float64(uint32(get(n.Args[0]).i32))})
		case ir.OpD2I:
			set(n, cell{i32: int32(get(n.Args[0]).f64)})
		case ir.OpQ2D:
			set(n, cell{f64: float64(get(n.Args[0]).i64)})
		case ir.OpD2Q:
			set(n, cell{i64: int64(get(n.Args[0]).f64)})
		case ir.OpF2D:
			set(n, cell{f64: float64(get(n.Args[0]).f32)})
		case ir.OpD2F:
			set(n, cell{f32: float32(get(n.Args[0]).f64)})

		case ir.OpLdI:
			base := get(n.Args[0]).ptr
			set(n, cell{i32: m.ld32(base + n.Imm)})
		case ir.OpLdQ:
			base := get(n.Args[0]).ptr
			set(n, cell{i64: m.ld64(base + n.Imm)})
		case ir.OpLdD:
			base := get(n.Args[0]).ptr
			set(n, cell{f64: math.Float64frombits(uint64(m.ld64(base + n.Imm)))})
		case ir.OpLdF:
			base := get(n.Args[0]).ptr
			set(n, cell{f32: math.Float32frombits(uint32(m.ld32(base + n.Imm)))})
		case ir.OpLdF4:
			base := get(n.Args[0]).ptr
			set(n, cell{f4: m.ldf4(base + n.Imm)})

		case ir.OpStI:
			val, base := get(n.Args[0]), get(n.Args[1]).ptr
			m.st32(base+n.Imm, val.i32)
		case ir.OpStQ:
			val, base := get(n.Args[0]), get(n.Args[1]).ptr
			m.st64(base+n.Imm, val.i64)
		case ir.OpStD:
			val, base := get(n.Args[0]), get(n.Args[1]).ptr
			m.st64(base+n.Imm, int64(math.Float64bits(val.f64)))
		case ir.OpStF:
			val, base := get(n.Args[0]), get(n.Args[1]).ptr
			m.st32(base+n.Imm, int32(math.Float32bits(val.f32)))
		case ir.OpStF4:
			val, base := get(n.Args[0]), get(n.Args[1]).ptr
			m.stf4(base+n.Imm, val.f4)

		case ir.OpAllocP:
			set(n, cell{ptr: m.alloc(get(n.Args[0]).i32)})

		case ir.OpCallI, ir.OpCallQ, ir.OpCallD, ir.OpCallF, ir.OpCallF4, ir.OpCallV:
			c, err := callBuiltin(n, vals, m)
			if err != nil {
				// Per §7, an unresolvable call target is a fatal
				// assembler-stage condition; the reference backend
				// surfaces it as an immediate exit at this line.
				return Result{Exited: true, ExitLine: n.Line}
			}
			set(n, c)

		case ir.OpAddXovI:
			a, b := int64(get(n.Args[0]).i32), int64(get(n.Args[1]).i32)
			sum := a + b
			lastOflow = sum != int64(int32(sum))
			set(n, cell{i32: int32(sum)})
		case ir.OpSubXovI:
			a, b := int64(get(n.Args[0]).i32), int64(get(n.Args[1]).i32)
			diff := a - b
			lastOflow = diff != int64(int32(diff))
			set(n, cell{i32: int32(diff)})
		case ir.OpMulXovI:
			a, b := int64(get(n.Args[0]).i32), int64(get(n.Args[1]).i32)
			prod := a * b
			lastOflow = prod != int64(int32(prod))
			set(n, cell{i32: int32(prod)})

		case ir.OpJ:
			n = n.Target
			continue
		case ir.OpJt:
			if get(n.Args[0]).i32 != 0 {
				n = n.Target
				continue
			}
		case ir.OpJf:
			if get(n.Args[0]).i32 == 0 {
				n = n.Target
				continue
			}
		case ir.OpJov:
			if lastOflow {
				n = n.Target
				continue
			}

		case ir.OpX, ir.OpXt, ir.OpXf:
			trigger := n.Op == ir.OpX
			if n.Op == ir.OpXt {
				trigger = get(n.Args[0]).i32 != 0
			} else if n.Op == ir.OpXf {
				trigger = get(n.Args[0]).i32 == 0
			}
			if trigger {
				if n.Guard != nil && n.Guard.Exit != nil && n.Guard.Exit.Target != nil {
					r := run(n.Guard.Exit.Target, m)
					r.Steps += steps
					return r
				}
				if sawReturn {
					r := Result{Kind: retKind, Steps: steps}
					switch retKind {
					case ir.RetInt:
						r.Int = retCell.i32
					case ir.RetQuad:
						r.Quad = retCell.i64
					case ir.RetDouble:
						r.Double = retCell.f64
					case ir.RetFloat:
						r.Float = retCell.f32
					case ir.RetFloat4:
						r.Float4 = retCell.f4
					}
					return r
				}
				line := n.Line
				if n.Guard != nil && n.Guard.Exit != nil {
					line = n.Guard.Exit.Line
				}
				return Result{Exited: true, ExitLine: line, Steps: steps}
			}

		case ir.OpRetI:
			sawReturn, retKind, retCell = true, ir.RetInt, get(n.Args[0])
		case ir.OpRetQ:
			sawReturn, retKind, retCell = true, ir.RetQuad, get(n.Args[0])
		case ir.OpRetD:
			sawReturn, retKind, retCell = true, ir.RetDouble, get(n.Args[0])
		case ir.OpRetF:
			sawReturn, retKind, retCell = true, ir.RetFloat, get(n.Args[0])
		case ir.OpRetF4:
			sawReturn, retKind, retCell = true, ir.RetFloat4, get(n.Args[0])
		case ir.OpRetV:
			sawReturn, retKind = true, ir.RetNone
		}
		n = n.Next()
	}

	// Unreachable in a well-formed fragment: AssembleFragment always
	// appends a trailing unconditional exit.
	return Result{Exited: true, ExitLine: frag.Tail.Line, Steps: steps}
}

func boolCell(b bool) cell {
	if b {
		return cell{i32: 1}
	}
	return cell{i32: 0}
}

// callBuiltin evaluates a call node against the known built-in functions
// (§9 Global State). User-defined call targets have no real machine
// address to invoke in this portable backend and are reported as a call
// error (§7).
func callBuiltin(n *ir.Node, vals []cell, m *memory) (cell, error) {
	if n.Call == nil {
		return cell{}, errors.New("native: call node missing CallInfo")
	}
	// n.Args is stored in reverse lexical order (§9 Design Notes);
	// restore natural order for evaluation.
	args := make([]*ir.Node, len(n.Args))
	for i, a := range n.Args {
		args[len(n.Args)-1-i] = a
	}

	switch n.Call.Name {
	case "sin":
		return cell{f64: math.Sin(vals[args[0].Addr].f64)}, nil
	case "cos":
		return cell{f64: math.Cos(vals[args[0].Addr].f64)}, nil
	case "sqrt":
		return cell{f64: math.Sqrt(vals[args[0].Addr].f64)}, nil
	case "pow":
		return cell{f64: math.Pow(vals[args[0].Addr].f64, vals[args[1].Addr].f64)}, nil
	case "fmod":
		return cell{f64: math.Mod(vals[args[0].Addr].f64, vals[args[1].Addr].f64)}, nil
	case "strlen":
		off := vals[args[0].Addr].ptr
		n := int32(0)
		for off+int64(n) < int64(len(m.buf)) && m.buf[off+int64(n)] != 0 {
			n++
		}
		return cell{i32: n}, nil
	case "puts":
		off := vals[args[0].Addr].ptr
		end := off
		for end < int64(len(m.buf)) && m.buf[end] != 0 {
			end++
		}
		fmt.Fprintln(os.Stdout, string(m.buf[off:end]))
		return cell{i32: int32(end - off)}, nil

	// Soft-float helper routines (pipeline.SoftFloat's rewrite targets),
	// named and computed the way libgcc's own soft-float runtime would,
	// standing in for what a genuine no-FP-hardware target links against.
	case "__addsf3":
		return cell{f32: vals[args[0].Addr].f32 + vals[args[1].Addr].f32}, nil
	case "__subsf3":
		return cell{f32: vals[args[0].Addr].f32 - vals[args[1].Addr].f32}, nil
	case "__mulsf3":
		return cell{f32: vals[args[0].Addr].f32 * vals[args[1].Addr].f32}, nil
	case "__divsf3":
		return cell{f32: vals[args[0].Addr].f32 / vals[args[1].Addr].f32}, nil
	case "__negsf2":
		return cell{f32: -vals[args[0].Addr].f32}, nil
	case "__adddf3":
		return cell{f64: vals[args[0].Addr].f64 + vals[args[1].Addr].f64}, nil
	case "__subdf3":
		return cell{f64: vals[args[0].Addr].f64 - vals[args[1].Addr].f64}, nil
	case "__muldf3":
		return cell{f64: vals[args[0].Addr].f64 * vals[args[1].Addr].f64}, nil
	case "__divdf3":
		return cell{f64: vals[args[0].Addr].f64 / vals[args[1].Addr].f64}, nil
	case "__negdf2":
		return cell{f64: -vals[args[0].Addr].f64}, nil
	case "__floatsidf":
		return cell{f64: float64(vals[args[0].Addr].i32)}, nil
	case "__floatunsidf":
		return cell{f64: float64(uint32(vals[args[0].Addr].i32))}, nil
	case "__fixdfsi":
		return cell{i32: int32(vals[args[0].Addr].f64)}, nil
	case "__floatdidf":
		return cell{f64: float64(vals[args[0].Addr].i64)}, nil
	case "__fixdfdi":
		return cell{i64: int64(vals[args[0].Addr].f64)}, nil
	case "__extendsfdf2":
		return cell{f64: float64(vals[args[0].Addr].f32)}, nil
	case "__truncdfsf2":
		return cell{f32: float32(vals[args[0].Addr].f64)}, nil
	default:
		return cell{}, errors.Errorf("native: unresolvable call target %q", n.Call.Name)
	}
}
