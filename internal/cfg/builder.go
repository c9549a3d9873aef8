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

package cfg

import (
	"regexp"
	"sort"

	"github.com/tliron/commonlog"

	"github.com/cloudwego/asmopt/internal/ir"
	"github.com/cloudwego/asmopt/internal/utils"
)

var log = commonlog.GetLogger("asmopt.cfg")

var _SymbolPattern = regexp.MustCompile(`[A-Za-z0-9_$.]+`)

// Graph is the control-flow graph of a partitioned program. Blocks live in
// an arena and are addressed by their index, which is also their Id.
type Graph struct {
	Blocks []*BasicBlock
	Labels map[string][]int
}

// Edges counts the edges of the graph.
func (self *Graph) Edges() int {
	n := 0
	for _, bb := range self.Blocks {
		n += len(bb.Succ)
	}
	return n
}

// Flatten concatenates the blocks back into a single sequence.
func (self *Graph) Flatten() []*ir.Instr {
	n := 0
	for _, bb := range self.Blocks {
		n += len(bb.Ins)
	}

	/* concatenate every block in order */
	ret := make([]*ir.Instr, 0, n)
	for _, bb := range self.Blocks {
		ret = append(ret, bb.Ins...)
	}
	return ret
}

// AddEdge links two blocks, keeping the successor and predecessor lists in sync.
func (self *Graph) AddEdge(from int, to int) {
	if self.Blocks[from].addSucc(to) {
		self.Blocks[to].addPred(from)
	}
}

// GraphBuilder partitions an instruction sequence and links the blocks.
type GraphBuilder struct {
	Pin   map[string]bool
	Entry map[string]bool
}

func CreateGraphBuilder() *GraphBuilder {
	return &GraphBuilder{
		Pin:   make(map[string]bool),
		Entry: make(map[string]bool),
	}
}

func (self *GraphBuilder) scan(ins []*ir.Instr) {
	decl := make(map[string]bool)

	/* collect every declared label */
	for _, p := range ins {
		if p.IsLabel() {
			decl[p.Name] = true
		}
	}

	/* jump targets, and labels that might be entered from elsewhere */
	for _, p := range ins {
		switch p.Kind {
		case ir.K_command:
			self.scanCommand(p, decl)
		case ir.K_directive:
			self.scanDirective(p, decl)
		}
	}
}

func (self *GraphBuilder) scanCommand(p *ir.Instr, decl map[string]bool) {
	if tg, ok := p.Target(); ok {
		self.Pin[tg] = true
		return
	}

	/* address-taken labels, `la $2,$L5` */
	for _, v := range p.Args {
		if v.Kind == ir.O_sym && decl[v.Sym] {
			self.Pin[v.Sym] = true
			self.Entry[v.Sym] = true
		}
	}
}

func (self *GraphBuilder) scanDirective(p *ir.Instr, decl map[string]bool) {
	for _, tk := range _SymbolPattern.FindAllString(p.Name, -1) {
		if decl[tk] {
			self.Pin[tk] = true
			self.Entry[tk] = true
		}
	}
}

// Leaders returns the sorted positions that start a basic block.
func (self *GraphBuilder) Leaders(ins []*ir.Instr) []int {
	ret := make([]int, 0, 16)
	set := make(map[int]bool)

	/* the empty program has no blocks */
	if len(ins) == 0 {
		return nil
	}

	/* the first instruction, everything right after a jump, and the jump targets */
	for i, p := range ins {
		if i == 0 {
			set[i] = true
		}
		if p.IsJump() && i+1 < len(ins) {
			set[i+1] = true
		}
		if p.IsLabel() && self.Pin[p.Name] {
			set[i] = true
		}
	}

	/* sort the leaders */
	for i := range set {
		ret = append(ret, i)
	}
	sort.Ints(ret)
	return ret
}

// Build partitions the sequence into basic blocks and links them.
func (self *GraphBuilder) Build(ins []*ir.Instr, ids *ir.Allocator, verbose int) *Graph {
	self.scan(ins)
	lds := self.Leaders(ins)
	ret := &Graph{Labels: make(map[string][]int)}

	/* cut the sequence at every leader */
	for i, lp := range lds {
		end := len(ins)
		if i+1 < len(lds) {
			end = lds[i+1]
		}

		/* copy the instructions, the block owns the slice */
		bb := &BasicBlock{Id: i}
		bb.Stream = *ir.NewStream(append([]*ir.Instr(nil), ins[lp:end]...), ids, verbose)

		/* index the block by its leading label */
		if name, ok := bb.Label(); ok {
			bb.Entry = self.Entry[name]
			ret.Labels[name] = append(ret.Labels[name], bb.Id)
		}

		/* add to the arena */
		ret.Blocks = append(ret.Blocks, bb)
	}

	/* link the blocks */
	for _, bb := range ret.Blocks {
		self.link(ret, bb)
	}
	return ret
}

func (self *GraphBuilder) link(g *Graph, bb *BasicBlock) {
	p := bb.Terminator()
	next := bb.Id + 1

	/* plain instructions fall through to the next block */
	if p == nil {
		if next < len(g.Blocks) {
			g.AddEdge(bb.Id, next)
		}
		return
	}

	/* returns leave the function */
	if p.IsReturn() {
		return
	}

	/* direct jumps go to every block with a matching label */
	if tg, ok := p.Target(); ok {
		if dst := g.Labels[tg]; len(dst) != 0 {
			for _, id := range dst {
				g.AddEdge(bb.Id, id)
			}
		} else {
			bb.Unresolved = true
			log.Debugf("bb_%d: %s", bb.Id, utils.EJumpTarget(tg))
		}
	} else if bb.Unresolved = true; p.IsIndirect() && !p.IsCall() {
		for _, dst := range g.Blocks {
			if dst.Entry {
				g.AddEdge(bb.Id, dst.Id)
			}
		}
	}

	/* conditional branches and calls also fall through */
	if (p.IsBranch() || p.IsCall()) && next < len(g.Blocks) {
		g.AddEdge(bb.Id, next)
	}
}

// Build partitions the instruction sequence and constructs the control-flow graph.
func Build(ins []*ir.Instr, ids *ir.Allocator, verbose int) *Graph {
	return CreateGraphBuilder().Build(ins, ids, verbose)
}
