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

package dataflow

import (
	"github.com/cloudwego/asmopt/internal/cfg"
	"github.com/cloudwego/asmopt/internal/ir"
)

// ForcedLive are kept alive at a jump whose destination is not in the program.
var ForcedLive = []ir.Reg{ir.R_v0, ir.R_v1, ir.R_a0, ir.R_a1, ir.R_a2, ir.R_a3}

// ExitLive returns the registers live when the program leaves through its last block.
func ExitLive(reserved []ir.Reg) Set[ir.Reg] {
	ret := NewSet(reserved...)
	ret.Union(NewSet(ir.ResultRegs...))
	ret.Union(NewSet(ir.CalleeSaved...))
	return ret
}

// UsesAt returns the registers read by the i-th instruction of a block. A
// jump leaving for an unknown destination reads every argument and result
// register.
func UsesAt(bb *cfg.BasicBlock, i int) []ir.Reg {
	p := bb.Ins[i]
	rs := p.Uses()

	/* not the terminator of an unresolved block */
	if !bb.Unresolved || i != len(bb.Ins)-1 || !p.IsJump() {
		return rs
	}

	/* add the forced registers */
	for _, r := range ForcedLive {
		if !p.Reads(r) {
			rs = append(rs, r)
		}
	}
	return rs
}

// LivenessProblem builds the backward may-problem of live registers.
//
//	use[B] = registers read in B before any write in B
//	def[B] = registers written in B
//	out[B] = union of in[S] for every successor S
//	in[B]  = use[B] + (out[B] - def[B])
func LivenessProblem(g *cfg.Graph, reserved []ir.Reg) *Problem[ir.Reg] {
	nb := len(g.Blocks)
	ret := &Problem[ir.Reg]{
		Name:     "liveness",
		Dir:      Backward,
		Meet:     Union,
		Gen:      make([]Set[ir.Reg], nb),
		Kill:     make([]Set[ir.Reg], nb),
		Boundary: ExitLive(reserved),
	}

	/* compute use and def set of every block */
	for _, bb := range g.Blocks {
		use := NewSet(reserved...)
		def := NewSet[ir.Reg]()

		/* reads before writes */
		for i, p := range bb.Ins {
			for _, r := range UsesAt(bb, i) {
				if !def.Has(r) {
					use.Add(r)
				}
			}
			for _, r := range p.Defs() {
				def.Add(r)
			}
		}

		/* reserved registers are never killed */
		ret.Gen[bb.Id] = use
		ret.Kill[bb.Id] = def.Subtract(NewSet(reserved...))
	}
	return ret
}

// Liveness computes the live registers at the entry and exit of every block.
func Liveness(g *cfg.Graph, reserved []ir.Reg) *Result[ir.Reg] {
	return Solve(g, LivenessProblem(g, reserved))
}
