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
	"sort"
	"strconv"
	"strings"

	"github.com/cloudwego/asmopt/internal/ir"
)

// ValueGraph numbers the values computed in straight-line code. Two
// arithmetic commands get the same value number when they apply the same
// operator to operands with the same value numbers.
type ValueGraph struct {
	next int
	vals map[string]int
	regs map[ir.Reg]int
}

func NewValueGraph() *ValueGraph {
	ret := &ValueGraph{
		vals: make(map[string]int),
		regs: make(map[ir.Reg]int),
	}

	/* the zero register always holds the constant zero */
	ret.regs[ir.R_zero] = ret.leaf("$0")
	return ret
}

func (self *ValueGraph) fresh() int {
	self.next++
	return self.next
}

func (self *ValueGraph) leaf(vid string) int {
	if v, ok := self.vals[vid]; ok {
		return v
	} else {
		v = self.fresh()
		self.vals[vid] = v
		return v
	}
}

// Value returns the value number held by an operand.
func (self *ValueGraph) Value(op ir.Operand) (int, bool) {
	switch op.Kind {
	case ir.O_imm:
		return self.leaf("$" + strconv.FormatInt(op.Imm, 10)), true
	case ir.O_sym:
		return self.leaf("&" + op.Sym), true
	case ir.O_reg:
		if v, ok := self.regs[op.Reg]; ok {
			return v, true
		} else {
			v = self.fresh()
			self.regs[op.Reg] = v
			return v, true
		}
	default:
		return 0, false
	}
}

// Eligible reports whether the command computes a value that can be shared.
func Eligible(p *ir.Instr) bool {
	switch {
	case !p.IsArith() || !p.IsPure() || len(p.Args) < 2:
		return false
	case p.Args[0].Kind != ir.O_reg || p.Args[0].Reg.IsZero():
		return false
	}

	/* the command must define exactly its first operand, without reading it */
	if defs := p.Defs(); len(defs) != 1 || defs[0] != p.Args[0].Reg {
		return false
	}
	for _, s := range p.UseSlots() {
		if s.Index == 0 {
			return false
		}
	}
	return true
}

// vid identifies the value computed by an eligible command.
func (self *ValueGraph) vid(p *ir.Instr) (string, bool) {
	args := make([]int, 0, len(p.Args)-1)
	for _, op := range p.Args[1:] {
		if v, ok := self.Value(op); !ok {
			return "", false
		} else {
			args = append(args, v)
		}
	}

	/* commutative operations, sort the operands */
	if p.Is(ir.F_commut) {
		sort.Ints(args)
	}

	/* build the value ID */
	buf := make([]string, len(args))
	for i, v := range args {
		buf[i] = "%" + strconv.Itoa(v)
	}
	return fmt.Sprintf("(%s %s)", p.Op, strings.Join(buf, " ")), true
}

// Number updates the graph with the effect of p. It returns the value number
// p defines if p is eligible for sharing.
func (self *ValueGraph) Number(p *ir.Instr) (int, bool) {
	v := 0
	ok := false

	/* compute the value before any operand is overwritten */
	if Eligible(p) {
		var vid string
		if vid, ok = self.vid(p); ok {
			v = self.leaf(vid)
		}
	}

	/* registers the command may write hold unknown values from now on */
	for _, r := range p.Clobbers() {
		if !r.IsZero() {
			delete(self.regs, r)
		}
	}

	/* copies share the value of their source, and the shared value lives in the destination */
	if ok {
		self.regs[p.Args[0].Reg] = v
	} else if p.IsMove() && !p.Args[0].Reg.IsZero() {
		self.regs[p.Args[0].Reg], _ = self.Value(p.Args[1])
	}
	return v, ok
}
