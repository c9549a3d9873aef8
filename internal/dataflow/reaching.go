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

// ReachingProblem builds the forward may-problem of reaching definitions,
// identified by the sequence id of the defining instruction.
//
//	gen[B]  = the last definition in B of every register B defines
//	kill[B] = every other definition in the program of a register B defines
//	in[B]   = union of out[P] for every predecessor P
//	out[B]  = gen[B] + (in[B] - kill[B])
func ReachingProblem(g *cfg.Graph) *Problem[uint64] {
	nb := len(g.Blocks)
	all := make(map[ir.Reg][]uint64)
	ret := &Problem[uint64]{
		Name:     "reaching definitions",
		Dir:      Forward,
		Meet:     Union,
		Gen:      make([]Set[uint64], nb),
		Kill:     make([]Set[uint64], nb),
		Boundary: NewSet[uint64](),
	}

	/* collect every definition of every register */
	for _, bb := range g.Blocks {
		for _, p := range bb.Ins {
			for _, r := range p.Defs() {
				all[r] = append(all[r], p.Id)
			}
		}
	}

	/* compute the gen and kill set of every block */
	for _, bb := range g.Blocks {
		last := make(map[ir.Reg]uint64)
		gen := NewSet[uint64]()
		kill := NewSet[uint64]()

		/* the last definition of every register wins */
		for _, p := range bb.Ins {
			for _, r := range p.Defs() {
				last[r] = p.Id
			}
		}

		/* every other definition of the same registers is killed */
		for r, id := range last {
			gen.Add(id)
			for _, v := range all[r] {
				kill.Add(v)
			}
		}

		/* update the sets */
		ret.Gen[bb.Id] = gen
		ret.Kill[bb.Id] = kill.Subtract(gen)
	}
	return ret
}

// Reaching computes the definitions reaching the entry and exit of every block.
func Reaching(g *cfg.Graph) *Result[uint64] {
	return Solve(g, ReachingProblem(g))
}
