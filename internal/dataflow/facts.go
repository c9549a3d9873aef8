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
	"github.com/tliron/commonlog"

	"github.com/cloudwego/asmopt/internal/cfg"
	"github.com/cloudwego/asmopt/internal/ir"
)

var log = commonlog.GetLogger("asmopt.dataflow")

// Facts bundles the results of every analysis over one graph.
type Facts struct {
	Reserved Set[ir.Reg]
	Live     *Result[ir.Reg]
	Reach    *Result[uint64]
	Copies   *Result[Copy]
}

// Analyze runs liveness, reaching definitions and available copies.
func Analyze(g *cfg.Graph, reserved []ir.Reg) *Facts {
	ret := &Facts{
		Reserved: NewSet(reserved...),
		Live:     Liveness(g, reserved),
		Reach:    Reaching(g),
		Copies:   Copies(g, reserved),
	}

	/* dump the results if needed */
	if log.AllowLevel(commonlog.Debug) {
		for _, bb := range g.Blocks {
			log.Debugf("bb_%d:\n%s", bb.Id, Dump(ret, bb))
		}
	}
	return ret
}

// LiveOut returns the registers live at the exit of the block.
func (self *Facts) LiveOut(bb *cfg.BasicBlock) Set[ir.Reg] {
	return self.Live.Out[bb.Id]
}

// DeadAfter reports whether r is dead right after the i-th instruction of
// the block: it is not read later in the block before a definite write,
// and it is not live at the exit of the block.
func (self *Facts) DeadAfter(bb *cfg.BasicBlock, i int, r ir.Reg) bool {
	if self.Reserved.Has(r) {
		return false
	}

	/* scan the rest of the block */
	for j := i + 1; j < len(bb.Ins); j++ {
		for _, v := range UsesAt(bb, j) {
			if v == r {
				return false
			}
		}
		if bb.Ins[j].Writes(r) {
			return true
		}
	}

	/* check the block exit */
	return !self.Live.Out[bb.Id].Has(r)
}

// LiveAt returns the registers live right before the i-th instruction of the block.
func (self *Facts) LiveAt(bb *cfg.BasicBlock, i int) Set[ir.Reg] {
	ret := self.Live.Out[bb.Id].Clone()

	/* walk backwards to the instruction */
	for j := len(bb.Ins) - 1; j >= i; j-- {
		for _, r := range bb.Ins[j].Defs() {
			if !self.Reserved.Has(r) {
				ret.Remove(r)
			}
		}
		for _, r := range UsesAt(bb, j) {
			ret.Add(r)
		}
	}
	return ret
}

// Reaches reports whether the definition made by p reaches the exit of the block.
func (self *Facts) Reaches(bb *cfg.BasicBlock, p *ir.Instr) bool {
	return self.Reach.Out[bb.Id].Has(p.Id)
}

// Available reports whether the copy holds at the entry of the block.
func (self *Facts) Available(bb *cfg.BasicBlock, c Copy) bool {
	return self.Copies.In[bb.Id].Has(c)
}
