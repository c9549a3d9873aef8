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
	"math"

	"github.com/cloudwego/asmopt/internal/cfg"
	"github.com/cloudwego/asmopt/internal/ir"
)

// _Rule inspects the instruction that was just read from the block, and
// rewrites it together with the ones following it if they match.
type _Rule func(ctx *Context, bb *cfg.BasicBlock, p *ir.Instr) bool

type _RuleDescriptor struct {
	rule _Rule
	desc string
}

var _rules = [...]_RuleDescriptor{
	{desc: "Self Move", rule: selfMove},
	{desc: "Move Folding", rule: moveFold},
	{desc: "Argument Forwarding", rule: argForward},
	{desc: "Move Swap", rule: moveSwap},
	{desc: "Store Forwarding", rule: storeForward},
	{desc: "Zero Shift", rule: zeroShift},
	{desc: "Offset Folding", rule: offsetFold},
}

var _storeLoads = map[ir.OpCode]ir.OpCode{
	ir.OP_sw:   ir.OP_lw,
	ir.OP_sd:   ir.OP_ld,
	ir.OP_s_s:  ir.OP_l_s,
	ir.OP_s_d:  ir.OP_l_d,
	ir.OP_swc1: ir.OP_lwc1,
}

func isInt16(v int64) bool {
	return v >= math.MinInt16 && v <= math.MaxInt16
}

func isUint16(v int64) bool {
	return v >= 0 && v <= math.MaxUint16
}

// following returns the n commands right after the cursor, or nil if any of
// them is not a command.
func following(bb *cfg.BasicBlock, n int) []*ir.Instr {
	ins := bb.Peek(n)
	if len(ins) != n {
		return nil
	}
	for _, p := range ins {
		if !p.IsCommand() {
			return nil
		}
	}
	return ins
}

// selfMove removes `move $a, $a`.
func selfMove(_ *Context, bb *cfg.BasicBlock, p *ir.Instr) bool {
	if !p.IsMove() || p.Args[0].Reg != p.Args[1].Reg {
		return false
	} else {
		bb.Remove("redundant move removed: " + p.String())
		return true
	}
}

// moveSwap turns `move $a, $b; move $b, $a` into `move $a, $b`.
func moveSwap(_ *Context, bb *cfg.BasicBlock, p *ir.Instr) bool {
	var ins []*ir.Instr
	if !p.IsMove() {
		return false
	} else if ins = following(bb, 1); ins == nil || !ins[0].IsMove() {
		return false
	}

	/* the second move must copy the value back */
	q := ins[0]
	if q.Args[0].Reg != p.Args[1].Reg || q.Args[1].Reg != p.Args[0].Reg {
		return false
	}

	/* the registers already hold the same value */
	bb.Replace(2, []*ir.Instr{p}, "redundant move removed: "+q.String())
	return true
}

// moveFold turns `move $a, $b; op $a, $a, ...` into `op $a, $b, ...`.
func moveFold(_ *Context, bb *cfg.BasicBlock, p *ir.Instr) bool {
	var ins []*ir.Instr
	if !p.IsMove() {
		return false
	} else if ins = following(bb, 1); ins == nil {
		return false
	}

	/* the next command must overwrite the copy with a value computed from it */
	a := p.Args[0].Reg
	q := ins[0]
	switch {
	case q.IsOpaque() || q.IsJump() || len(q.Args) < 2:
		return false
	case !q.Args[0].IsReg(a) || !q.Args[1].IsReg(a) || !q.Writes(a):
		return false
	}

	/* and the copy must be read exactly once, by the second operand */
	n := 0
	for _, s := range q.UseSlots() {
		if s.Reg == a {
			if s.Index != 1 {
				return false
			}
			n++
		}
	}

	/* nothing to fold */
	if n != 1 {
		return false
	}

	/* read the source directly */
	q.Args[1].Reg = p.Args[1].Reg
	bb.Replace(2, []*ir.Instr{q}, "move folded: "+p.String())
	return true
}

// argForward turns `op $t, ...; move $aN, $t; jal f` into `op $aN, ...; jal f`
// when $t is not used afterwards.
func argForward(ctx *Context, bb *cfg.BasicBlock, p *ir.Instr) bool {
	var ins []*ir.Instr
	if !p.IsPure() || len(p.Args) == 0 || p.Args[0].Kind != ir.O_reg {
		return false
	} else if ins = following(bb, 2); ins == nil {
		return false
	}

	/* the first command must define exactly its first operand */
	t := p.Args[0].Reg
	if defs := p.Defs(); len(defs) != 1 || defs[0] != t {
		return false
	}

	/* followed by a move to an argument register and a call */
	q, r := ins[0], ins[1]
	switch {
	case !q.IsMove() || !r.IsCall():
		return false
	case !q.Args[1].IsReg(t) || !q.Args[0].Reg.IsArgument():
		return false
	case q.Args[0].Reg == t || ctx.Reserved(q.Args[0].Reg):
		return false
	case !ctx.Facts.DeadAfter(bb, bb.Pos(), t):
		return false
	}

	/* compute directly into the argument register */
	p.Args[0].Reg = q.Args[0].Reg
	bb.Replace(2, []*ir.Instr{p}, "argument forwarded: "+q.String())
	return true
}

// storeForward removes a load right after a store of the same register to
// the same location.
func storeForward(_ *Context, bb *cfg.BasicBlock, p *ir.Instr) bool {
	var ok bool
	var op ir.OpCode
	var ins []*ir.Instr

	/* must be a store to memory */
	if op, ok = _storeLoads[p.Op]; !ok || !p.IsStore() {
		return false
	} else if len(p.Args) != 2 || p.Args[1].Kind != ir.O_mem {
		return false
	} else if ins = following(bb, 1); ins == nil {
		return false
	}

	/* followed by the matching load of the same register and location */
	if q := ins[0]; q.Op != op || len(q.Args) != 2 || q.Args[0] != p.Args[0] || q.Args[1] != p.Args[1] {
		return false
	} else {
		bb.Replace(2, []*ir.Instr{p}, "redundant load removed: "+q.String())
		return true
	}
}

// zeroShift removes a shift of a register by zero into itself, and turns any
// other shift by zero into a move.
func zeroShift(_ *Context, bb *cfg.BasicBlock, p *ir.Instr) bool {
	switch {
	case !p.IsShift():
		return false
	case len(p.Args) != 3 || p.Args[2].Kind != ir.O_imm || p.Args[2].Imm != 0:
		return false
	case p.Args[0].Kind != ir.O_reg || p.Args[1].Kind != ir.O_reg:
		return false
	}

	/* `sll $0, $0, 0` is the canonical nop, keep it */
	a, b := p.Args[0].Reg, p.Args[1].Reg
	switch {
	case a.IsZero():
		return false
	case a == b:
		bb.Remove("shift by zero removed: " + p.String())
	default:
		bb.Replace(1, []*ir.Instr{bb.Ids.Move(a, b)}, "shift by zero: "+p.String())
	}
	return true
}

// offsetFold turns `addiu $a, $a, n; lw $d, m($a)` into `lw $d, n+m($a)` when
// the incremented $a is not used afterwards.
func offsetFold(ctx *Context, bb *cfg.BasicBlock, p *ir.Instr) bool {
	var ins []*ir.Instr
	switch {
	case p.Op != ir.OP_addu && p.Op != ir.OP_addiu:
		return false
	case len(p.Args) != 3 || p.Args[2].Kind != ir.O_imm:
		return false
	case p.Args[0].Kind != ir.O_reg || !p.Args[1].IsReg(p.Args[0].Reg):
		return false
	}

	/* followed by a load based on the incremented register */
	if ins = following(bb, 1); ins == nil || !ins[0].IsMemLoad() {
		return false
	}

	/* check the resulting offset and the register usages */
	a := p.Args[0].Reg
	q := ins[0]
	m := q.Args[1]
	n := m.Imm + p.Args[2].Imm
	switch {
	case m.Reg != a || m.Sym != "" || !isInt16(n):
		return false
	case !q.Args[0].IsReg(a) && !ctx.Facts.DeadAfter(bb, bb.Pos(), a):
		return false
	}

	/* fold the increment into the offset */
	q.Args[1] = ir.Memory(n, a)
	bb.Replace(2, []*ir.Instr{q}, "offset folded: "+p.String())
	return true
}

// Redundancy applies the peephole rules to a block.
type Redundancy struct{}

func (Redundancy) Apply(ctx *Context, bb *cfg.BasicBlock) bool {
	ret := false
	bb.Reset()

	/* try every rule on every instruction, and start over after each rewrite */
	for !bb.End() {
		p := bb.Read()
		for _, r := range _rules {
			if r.rule(ctx, bb, p) {
				log.Debugf("bb_%d: %s: %s", bb.Id, r.desc, p)
				ret = true
				bb.Reset()
				break
			}
		}
	}
	return ret
}
