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
	"fmt"

	"github.com/cloudwego/asmopt/internal/cfg"
	"github.com/cloudwego/asmopt/internal/ir"
)

// Copy is the fact `Dst == Src` established by `move Dst, Src`.
type Copy struct {
	Dst ir.Reg
	Src ir.Reg
}

func (self Copy) String() string {
	return fmt.Sprintf("%s=%s", self.Dst, self.Src)
}

// CopyOf returns the copy a move establishes, false if the instruction is
// not an eligible move.
func CopyOf(p *ir.Instr, reserved Set[ir.Reg]) (Copy, bool) {
	if !p.IsMove() {
		return Copy{}, false
	}

	/* self moves and reserved registers are never tracked */
	dst, src := p.Args[0].Reg, p.Args[1].Reg
	if dst == src || reserved.Has(dst) || reserved.Has(src) {
		return Copy{}, false
	} else {
		return Copy{Dst: dst, Src: src}, true
	}
}

func killCopies(cs Set[Copy], r ir.Reg) {
	for c := range cs {
		if c.Dst == r || c.Src == r {
			delete(cs, c)
		}
	}
}

// CopiesProblem builds the forward must-problem of available copies.
//
//	gen[B]  = copies made in B that survive to the end of B
//	kill[B] = every copy in the program whose either side is written in B
//	in[B]   = intersection of out[P] for every predecessor P
//	out[B]  = gen[B] + (in[B] - kill[B])
//
// Nothing is available at the entry of the program, nor at blocks that
// can be entered from outside the visible control flow.
func CopiesProblem(g *cfg.Graph, reserved []ir.Reg) *Problem[Copy] {
	nb := len(g.Blocks)
	rs := NewSet(reserved...)
	ret := &Problem[Copy]{
		Name:     "available copies",
		Dir:      Forward,
		Meet:     Intersect,
		Gen:      make([]Set[Copy], nb),
		Kill:     make([]Set[Copy], nb),
		Boundary: NewSet[Copy](),
		Universe: NewSet[Copy](),
		Open:     func(bb *cfg.BasicBlock) bool { return bb.Entry },
	}

	/* collect the universe of copies */
	for _, bb := range g.Blocks {
		for _, p := range bb.Ins {
			if c, ok := CopyOf(p, rs); ok {
				ret.Universe.Add(c)
			}
		}
	}

	/* compute the gen and kill set of every block */
	for _, bb := range g.Blocks {
		gen := NewSet[Copy]()
		kill := NewSet[Copy]()

		/* simulate the block */
		for _, p := range bb.Ins {
			for _, r := range p.Clobbers() {
				killCopies(gen, r)
				for c := range ret.Universe {
					if c.Dst == r || c.Src == r {
						kill.Add(c)
					}
				}
			}
			if c, ok := CopyOf(p, rs); ok {
				gen.Add(c)
			}
		}

		/* update the sets */
		ret.Gen[bb.Id] = gen
		ret.Kill[bb.Id] = kill
	}
	return ret
}

// Copies computes the copies available at the entry and exit of every block.
func Copies(g *cfg.Graph, reserved []ir.Reg) *Result[Copy] {
	return Solve(g, CopiesProblem(g, reserved))
}
