/*
 * Copyright 2024 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package opt

import (
	"fmt"
	"math"

	"github.com/cloudwego/asmopt/internal/cfg"
	"github.com/cloudwego/asmopt/internal/dataflow"
	"github.com/cloudwego/asmopt/internal/ir"
	"github.com/cloudwego/asmopt/internal/utils"
)

type (
	_UnaryFold  func(x uint32) (uint32, bool)
	_BinaryFold func(x uint32, y uint32) (uint32, bool)
)

func wrap(f func(x uint32, y uint32) uint32) _BinaryFold {
	return func(x uint32, y uint32) (uint32, bool) { return f(x, y), true }
}

func boolean(v bool) uint32 {
	if v {
		return 1
	} else {
		return 0
	}
}

func addOverflow(x uint32, y uint32) (uint32, bool) {
	v := int64(int32(x)) + int64(int32(y))
	return uint32(v), v == int64(int32(v))
}

func subOverflow(x uint32, y uint32) (uint32, bool) {
	v := int64(int32(x)) - int64(int32(y))
	return uint32(v), v == int64(int32(v))
}

// divSigned folds the signed division, except for the overflowing case
// the hardware leaves undefined.
func divSigned(f func(x int32, y int32) int32) _BinaryFold {
	return func(x uint32, y uint32) (uint32, bool) {
		if int32(x) == math.MinInt32 && int32(y) == -1 {
			return 0, false
		} else {
			return uint32(f(int32(x), int32(y))), true
		}
	}
}

var _unaryFolds = map[ir.OpCode]_UnaryFold{
	ir.OP_negu: func(x uint32) (uint32, bool) { return -x, true },
	ir.OP_not:  func(x uint32) (uint32, bool) { return ^x, true },
	ir.OP_neg:  func(x uint32) (uint32, bool) { return -x, int32(x) != math.MinInt32 },
}

var _binaryFolds = map[ir.OpCode]_BinaryFold{
	ir.OP_add:   addOverflow,
	ir.OP_addi:  addOverflow,
	ir.OP_sub:   subOverflow,
	ir.OP_addu:  wrap(func(x uint32, y uint32) uint32 { return x + y }),
	ir.OP_addiu: wrap(func(x uint32, y uint32) uint32 { return x + y }),
	ir.OP_subu:  wrap(func(x uint32, y uint32) uint32 { return x - y }),
	ir.OP_mul:   wrap(func(x uint32, y uint32) uint32 { return x * y }),
	ir.OP_and:   wrap(func(x uint32, y uint32) uint32 { return x & y }),
	ir.OP_andi:  wrap(func(x uint32, y uint32) uint32 { return x & y }),
	ir.OP_or:    wrap(func(x uint32, y uint32) uint32 { return x | y }),
	ir.OP_ori:   wrap(func(x uint32, y uint32) uint32 { return x | y }),
	ir.OP_xor:   wrap(func(x uint32, y uint32) uint32 { return x ^ y }),
	ir.OP_xori:  wrap(func(x uint32, y uint32) uint32 { return x ^ y }),
	ir.OP_nor:   wrap(func(x uint32, y uint32) uint32 { return ^(x | y) }),
	ir.OP_slt:   wrap(func(x uint32, y uint32) uint32 { return boolean(int32(x) < int32(y)) }),
	ir.OP_slti:  wrap(func(x uint32, y uint32) uint32 { return boolean(int32(x) < int32(y)) }),
	ir.OP_sltu:  wrap(func(x uint32, y uint32) uint32 { return boolean(x < y) }),
	ir.OP_sltiu: wrap(func(x uint32, y uint32) uint32 { return boolean(x < y) }),
	ir.OP_sll:   wrap(func(x uint32, y uint32) uint32 { return x << (y & 31) }),
	ir.OP_sllv:  wrap(func(x uint32, y uint32) uint32 { return x << (y & 31) }),
	ir.OP_srl:   wrap(func(x uint32, y uint32) uint32 { return x >> (y & 31) }),
	ir.OP_srlv:  wrap(func(x uint32, y uint32) uint32 { return x >> (y & 31) }),
	ir.OP_sra:   wrap(func(x uint32, y uint32) uint32 { return uint32(int32(x) >> (y & 31)) }),
	ir.OP_srav:  wrap(func(x uint32, y uint32) uint32 { return uint32(int32(x) >> (y & 31)) }),
	ir.OP_div:   divSigned(func(x int32, y int32) int32 { return x / y }),
	ir.OP_rem:   divSigned(func(x int32, y int32) int32 { return x % y }),
	ir.OP_divu:  wrap(func(x uint32, y uint32) uint32 { return x / y }),
	ir.OP_remu:  wrap(func(x uint32, y uint32) uint32 { return x % y }),
}

var _divisions = map[ir.OpCode]bool{
	ir.OP_div:  true,
	ir.OP_divu: true,
	ir.OP_rem:  true,
	ir.OP_remu: true,
}

// _Substitutions lists the operations whose register operand can be replaced
// by a literal, with the range of literals the assembler encodes directly.
var _Substitutions = map[ir.OpCode]func(v int64) bool{
	ir.OP_addu: isInt16,
	ir.OP_subu: func(v int64) bool { return isInt16(v) && isInt16(-v) },
	ir.OP_slt:  isInt16,
	ir.OP_sltu: isInt16,
	ir.OP_and:  isUint16,
	ir.OP_or:   isUint16,
	ir.OP_xor:  isUint16,
}

type _Cell struct {
	mem ir.Operand
	val uint32
}

// _Values tracks the registers and memory cells holding known constants.
type _Values struct {
	regs  map[ir.Reg]uint32
	cells []_Cell
	fixed dataflow.Set[ir.Reg]
}

// newValues tracks every register but the reserved ones, which may change
// behind the program's back.
func newValues(reserved dataflow.Set[ir.Reg]) *_Values {
	return &_Values{
		regs:  make(map[ir.Reg]uint32),
		fixed: reserved,
	}
}

func (self *_Values) get(op ir.Operand) (uint32, bool) {
	switch op.Kind {
	case ir.O_imm:
		return uint32(op.Imm), true
	case ir.O_reg:
		if op.Reg.IsZero() {
			return 0, true
		} else {
			v, ok := self.regs[op.Reg]
			return v, ok
		}
	default:
		return 0, false
	}
}

func (self *_Values) set(r ir.Reg, v uint32) {
	if !r.IsZero() && !self.fixed.Has(r) {
		self.regs[r] = v
	}
}

func (self *_Values) load(mem ir.Operand) (uint32, bool) {
	for _, c := range self.cells {
		if c.mem == mem {
			return c.val, true
		}
	}
	return 0, false
}

// kill forgets r, and every cell addressed through it.
func (self *_Values) kill(r ir.Reg) {
	delete(self.regs, r)
	cells := self.cells[:0]

	/* the address of these cells has changed */
	for _, c := range self.cells {
		if c.mem.Reg != r {
			cells = append(cells, c)
		}
	}
	self.cells = cells
}

// store records a word stored to memory. Any store may alias any cell, so
// only the stored one is kept.
func (self *_Values) store(mem ir.Operand, v uint32, known bool) {
	self.cells = self.cells[:0]
	if known {
		self.cells = append(self.cells, _Cell{mem: mem, val: v})
	}
}

// hilo evaluates a multiplication or a division writing $hi and $lo.
func (self *_Values) hilo(p *ir.Instr) (uint32, uint32, bool) {
	var x, y uint32
	var ok1, ok2 bool
	var args []ir.Operand

	/* extract the operands */
	switch {
	case p.Op == ir.OP_mult || p.Op == ir.OP_multu:
		args = p.Args
	case p.IsHiLoDiv():
		args = p.Args[len(p.Args)-2:]
	default:
		return 0, 0, false
	}

	/* both of them must be known */
	if x, ok1 = self.get(args[0]); !ok1 {
		return 0, 0, false
	} else if y, ok2 = self.get(args[1]); !ok2 {
		return 0, 0, false
	}

	/* compute the results */
	switch p.Op {
	case ir.OP_mult:
		v := uint64(int64(int32(x)) * int64(int32(y)))
		return uint32(v >> 32), uint32(v), true
	case ir.OP_multu:
		v := uint64(x) * uint64(y)
		return uint32(v >> 32), uint32(v), true
	case ir.OP_div:
		if y == 0 || (int32(x) == math.MinInt32 && int32(y) == -1) {
			return 0, 0, false
		} else {
			return uint32(int32(x) % int32(y)), uint32(int32(x) / int32(y)), true
		}
	default:
		if y == 0 {
			return 0, 0, false
		} else {
			return x % y, x / y, true
		}
	}
}

// eval computes the value p writes to its first operand.
func (self *_Values) eval(p *ir.Instr) (uint32, bool) {
	switch {
	case len(p.Args) == 0 || p.Args[0].Kind != ir.O_reg || p.IsOpaque():
		return 0, false
	case p.Op == ir.OP_li && len(p.Args) == 2:
		return self.get(p.Args[1])
	case p.Op == ir.OP_lui && len(p.Args) == 2 && p.Args[1].Kind == ir.O_imm:
		return uint32(p.Args[1].Imm) << 16, true
	case p.IsMove():
		return self.get(p.Args[1])
	case p.Op == ir.OP_mflo && len(p.Args) == 1:
		return self.get(ir.Register(ir.R_lo))
	case p.Op == ir.OP_mfhi && len(p.Args) == 1:
		return self.get(ir.Register(ir.R_hi))
	case p.Op == ir.OP_lw && p.IsMemLoad():
		return self.load(p.Args[1])
	case len(p.Args) == 2:
		return self.unary(p)
	case len(p.Args) == 3 && !p.IsHiLoDiv():
		return self.binary(p)
	default:
		return 0, false
	}
}

func (self *_Values) unary(p *ir.Instr) (uint32, bool) {
	if fn, ok := _unaryFolds[p.Op]; !ok {
		return 0, false
	} else if x, ok := self.get(p.Args[1]); !ok {
		return 0, false
	} else {
		return fn(x)
	}
}

func (self *_Values) binary(p *ir.Instr) (uint32, bool) {
	var x, y uint32
	var ok1, ok2 bool

	/* must be a foldable operation with both operands known */
	fn, ok := _binaryFolds[p.Op]
	if !ok {
		return 0, false
	} else if x, ok1 = self.get(p.Args[1]); !ok1 {
		return 0, false
	} else if y, ok2 = self.get(p.Args[2]); !ok2 {
		return 0, false
	}

	/* never fold a division by zero, it traps at runtime */
	if y == 0 && _divisions[p.Op] {
		log.Debugf("%s", utils.EDivZero(p.String()))
		return 0, false
	} else {
		return fn(x, y)
	}
}

// update applies the effect of p to the known values.
func (self *_Values) update(p *ir.Instr) {
	v, ok := self.eval(p)
	hi, lo, hl := self.hilo(p)

	/* stores replace the memory cells */
	if p.IsStore() {
		if p.Op == ir.OP_sw && len(p.Args) == 2 && p.Args[1].Kind == ir.O_mem {
			x, known := self.get(p.Args[0])
			self.store(p.Args[1], x, known)
		} else {
			self.cells = self.cells[:0]
		}
	}

	/* calls and unknown commands may write to any memory */
	if p.IsOpaque() || p.Is(ir.F_call|ir.F_barrier) {
		self.cells = self.cells[:0]
	}

	/* forget everything the command may have overwritten */
	for _, r := range p.Clobbers() {
		self.kill(r)
	}

	/* then record the new values */
	if ok {
		self.set(p.Args[0].Reg, v)
	}
	if hl {
		self.set(ir.R_hi, hi)
		self.set(ir.R_lo, lo)
	}
}

// ConstFold evaluates the commands whose operands are known constants.
type ConstFold struct{}

// literal rewrites a known register operand of p into a literal, and
// simplifies the identity operations it produces.
func (ConstFold) literal(ids *ir.Allocator, vals *_Values, p *ir.Instr) (*ir.Instr, bool) {
	if len(p.Args) != 3 || p.Args[1].Kind != ir.O_reg {
		return nil, false
	}

	/* check for the known operand */
	fits, sub := _Substitutions[p.Op]
	x, ok1 := vals.get(p.Args[1])
	y, ok2 := vals.get(p.Args[2])
	changed := false

	/* substitute the known operand, the literal always goes last */
	if sub && ok1 != ok2 && p.Args[2].Kind == ir.O_reg {
		if ok2 && fits(int64(int32(y))) {
			p.Args[2] = ir.Immediate(int64(int32(y)))
			changed = true
		} else if ok1 && p.Is(ir.F_commut) && fits(int64(int32(x))) {
			p.Args[1], p.Args[2] = p.Args[2], ir.Immediate(int64(int32(x)))
			changed = true
		}
	}

	/* adding, subtracting or combining zero copies the other operand */
	if a := p.Args[2]; a.Kind != ir.O_imm || a.Imm != 0 {
		return p, changed
	}

	/* identity operations */
	switch p.Op {
	case ir.OP_addu, ir.OP_addiu, ir.OP_subu, ir.OP_or, ir.OP_ori, ir.OP_xor, ir.OP_xori:
		return ids.Move(p.Args[0].Reg, p.Args[1].Reg), true
	case ir.OP_and, ir.OP_andi:
		return ids.LoadImm(p.Args[0].Reg, 0), true
	default:
		return p, changed
	}
}

func (self ConstFold) Apply(ctx *Context, bb *cfg.BasicBlock) bool {
	ret := false
	vals := newValues(ctx.Facts.Reserved)
	bb.Reset()

	/* evaluate every command in order */
	for !bb.End() {
		var ok bool
		var v uint32
		var q *ir.Instr

		/* only commands have values */
		p := bb.Read()
		if !p.IsCommand() {
			continue
		}

		/* must be a computation into a register that is not reserved */
		foldable := (p.IsArith() || p.IsMove() || p.Op == ir.OP_mflo || p.Op == ir.OP_mfhi || p.IsMemLoad()) &&
			len(p.Args) > 0 &&
			p.Args[0].Kind == ir.O_reg &&
			!ctx.Reserved(p.Args[0].Reg)

		/* replace it with the constant if all the operands are known */
		if foldable {
			if v, ok = vals.eval(p); ok {
				q = bb.Ids.LoadImm(p.Args[0].Reg, int64(int32(v)))
				bb.Replace(1, []*ir.Instr{q}, fmt.Sprintf("constant folded: %s = %d", p, int32(v)))
				log.Debugf("bb_%d: folded %s = %d", bb.Id, p, int32(v))
				vals.update(q)
				ret = true
				continue
			}
		}

		/* otherwise try to reduce the operands */
		if foldable && p.IsArith() {
			old := p.String()
			if q, ok = self.literal(bb.Ids, vals, p); ok {
				if q != p {
					bb.Replace(1, []*ir.Instr{q}, "constant operand: "+old)
				} else {
					bb.Noted(p, "constant operand: "+old)
				}
				log.Debugf("bb_%d: reduced %s to %s", bb.Id, old, q)
				p = q
				ret = true
			}
		}

		/* record the effect of the command */
		vals.update(p)
	}
	return ret
}
