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
	"github.com/cloudwego/asmopt/internal/cfg"
	"github.com/cloudwego/asmopt/internal/ir"
	"github.com/cloudwego/asmopt/internal/utils"
)

// CSE performs the Common Sub-expression Elimination optimization.
//
// Commands computing the same value are rewritten as copies of a scratch
// register, which is computed once right before the first of them.
type CSE struct{}

// scratch finds a register that is free across the window [first, last].
func (CSE) scratch(ctx *Context, bb *cfg.BasicBlock, first int, last int) (ir.Reg, bool) {
	for _, r := range ir.ScratchRegs {
		if ctx.Reserved(r) || !ctx.Facts.DeadAfter(bb, first-1, r) {
			continue
		}

		/* nothing in the window may write to it */
		free := true
		for i := first; free && i <= last; i++ {
			free = !bb.Ins[i].Clobber(r)
		}

		/* found one */
		if free {
			return r, true
		}
	}
	return "", false
}

func (self CSE) hoist(ctx *Context, bb *cfg.BasicBlock, idx []int) bool {
	first := idx[0]
	last := idx[len(idx)-1]
	expr := bb.Ins[first]

	/* find a register to hold the value */
	t, ok := self.scratch(ctx, bb, first, last)
	if !ok {
		log.Debugf("bb_%d: %s", bb.Id, utils.ENoScratch(expr.String()))
		return false
	}

	/* compute the value into the scratch register */
	val := bb.Ids.Clone(expr)
	val.Args[0] = ir.Register(t)

	/* every occurrence becomes a copy, backwards to keep the indices valid */
	for i := len(idx) - 1; i >= 0; i-- {
		p := bb.Ins[idx[i]]
		mov := bb.Ids.Move(p.Args[0].Reg, t)
		bb.ReplaceAt(idx[i], 1, []*ir.Instr{mov}, "common subexpression: "+p.String())
	}

	/* place the computation before the first occurrence */
	bb.Insert(first, val, "common subexpression hoisted into "+t.String())
	log.Debugf("bb_%d: hoisted %d occurrences of %s into %s", bb.Id, len(idx), expr, t)
	return true
}

// once shares the first value that is computed more than once.
func (self CSE) once(ctx *Context, bb *cfg.BasicBlock) bool {
	vg := NewValueGraph()
	occ := make(map[int][]int)
	ord := make([]int, 0, len(bb.Ins))

	/* number every value, and group the commands computing the same one */
	for i, p := range bb.Ins {
		if v, ok := vg.Number(p); ok && !ctx.Reserved(p.Args[0].Reg) {
			if len(occ[v]) == 0 {
				ord = append(ord, v)
			}
			occ[v] = append(occ[v], i)
		}
	}

	/* try them in the order they first appear */
	for _, v := range ord {
		if len(occ[v]) > 1 && self.hoist(ctx, bb, occ[v]) {
			return true
		}
	}
	return false
}

func (self CSE) Apply(ctx *Context, bb *cfg.BasicBlock) bool {
	ret := false
	for self.once(ctx, bb) {
		ret = true
	}
	return ret
}
