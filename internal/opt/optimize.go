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
	"sync/atomic"

	"github.com/tliron/commonlog"

	"github.com/cloudwego/asmopt/internal/cfg"
	"github.com/cloudwego/asmopt/internal/dataflow"
	"github.com/cloudwego/asmopt/internal/ir"
	"github.com/cloudwego/asmopt/internal/opts"
	"github.com/cloudwego/asmopt/internal/utils"
)

var log = commonlog.GetLogger("asmopt.opt")

var (
	UnitCount    uint64
	CycleCount   uint64
	RewriteCount uint64
)

// BlockPass rewrites a single basic block, and reports whether it changed anything.
type BlockPass interface {
	Apply(ctx *Context, bb *cfg.BasicBlock) bool
}

// GlobalPass rewrites the whole flat program, and reports whether it changed anything.
type GlobalPass interface {
	Apply(s *ir.Stream) bool
}

type _GlobalPassDescriptor struct {
	pass GlobalPass
	desc string
}

type _BlockPassDescriptor struct {
	pass BlockPass
	desc string
}

var _globals = [...]_GlobalPassDescriptor{
	{desc: "Jump Optimization", pass: new(Jumps)},
}

var _passes = [...]_BlockPassDescriptor{
	{desc: "Redundancy Elimination", pass: new(Redundancy)},
	{desc: "Common Sub-expression Elimination", pass: new(CSE)},
	{desc: "Constant Folding", pass: new(ConstFold)},
	{desc: "Copy Propagation", pass: new(CopyProp)},
	{desc: "Dead Code Elimination", pass: new(DCE)},
}

// Summary reports the size of the program along the optimization, counted
// in commands and labels.
type Summary struct {
	Original    int
	AfterGlobal int
	Final       int
	Cycles      int
	Peak        int
}

func optimizeGlobal(prog *Program) bool {
	ret := false
	s := prog.Stream()

	/* apply every global pass once */
	for _, p := range _globals {
		if p.pass.Apply(s) {
			log.Debugf("%s: changed", p.desc)
			ret = true
		}
	}

	/* take the changes back */
	prog.Update(s)
	return ret
}

func optimizeBlock(ctx *Context, bb *cfg.BasicBlock, limit int) (bool, error) {
	ret := false
	for n := 0; n < limit; n++ {
		done := true

		/* apply every pass, the facts are refreshed as soon as another block changes */
		for _, p := range _passes {
			if p.pass.Apply(ctx, bb) {
				atomic.AddUint64(&RewriteCount, 1)
				log.Debugf("bb_%d: %s: changed", bb.Id, p.desc)
				done = false
			}
			ctx.Refresh()
		}

		/* stable now */
		if done {
			return ret, nil
		} else {
			ret = true
		}
	}
	return ret, utils.ENonConvergence(limit)
}

func optimizeGraph(g *cfg.Graph, o *opts.Options, limit int) (bool, error) {
	ret := false
	ctx := newContext(g, o)

	/* every block sees the facts of the program as it is right now */
	for _, bb := range g.Blocks {
		ctx.Refresh()
		changed, err := optimizeBlock(ctx, bb, limit)

		/* check for errors */
		if err != nil {
			return ret, err
		}

		/* the other blocks must know about the changes */
		if changed {
			ctx.Invalidate()
			ret = true
		}
	}
	return ret, nil
}

// summarize attaches the dataflow facts of every block to its leader.
func summarize(prog *Program, o *opts.Options) {
	g := prog.Partition()
	f := dataflow.Analyze(g, o.Reserved)

	/* the first instruction of every block gets the facts */
	for _, bb := range g.Blocks {
		if len(bb.Ins) != 0 {
			for _, v := range dataflow.Summary(f, bb) {
				bb.Ins[0].Note(v)
			}
		}
	}

	/* flatten the program again */
	prog.Flatten()
}

// Optimize rewrites the unit until none of the passes changes it anymore.
func Optimize(u *ir.Unit, o *opts.Options) (Summary, error) {
	var err error
	var ret Summary

	/* count the original program */
	prog := NewProgram(u.Ins, u.Ids, o.Verbose)
	ret.Original = ir.CountCode(u.Ins)
	ret.Peak = ret.Original
	limit := o.CycleLimit(ret.Original)
	size := ret.Original
	atomic.AddUint64(&UnitCount, 1)

	/* optimization cycles */
	for changed := true; changed; {
		if ret.Cycles >= limit {
			err = utils.ENonConvergence(ret.Cycles)
			break
		}

		/* global passes first */
		ret.Cycles++
		atomic.AddUint64(&CycleCount, 1)
		changed = optimizeGlobal(prog)

		/* the first cycle reports the global result separately */
		if ret.Cycles == 1 {
			ret.AfterGlobal = ir.CountCode(prog.Flat())
		}

		/* then the blocks */
		g := prog.Partition()
		log.Infof("cycle %d: %s", ret.Cycles, g.Stats())
		ok, exc := optimizeGraph(g, o, limit)
		prog.Flatten()

		/* the program should shrink from one cycle to the next */
		if n := ir.CountCode(prog.Flat()); n > size {
			log.Warningf("cycle %d: program grew from %d to %d", ret.Cycles, size, n)
			size, ret.Peak = n, max(ret.Peak, n)
		} else {
			log.Infof("cycle %d: %d -> %d", ret.Cycles, size, n)
			size = n
		}

		/* check for errors */
		if exc != nil {
			err = exc
			break
		}

		/* go for another cycle if anything changed */
		changed = changed || ok
	}

	/* dataflow summaries if needed */
	if err == nil && o.Summarize() {
		summarize(prog, o)
	}

	/* the unit now holds the optimized program */
	u.Ins = prog.Flat()
	ret.Final = ir.CountCode(u.Ins)
	return ret, err
}
