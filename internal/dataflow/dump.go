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
	"sort"

	"github.com/davecgh/go-spew/spew"

	"github.com/cloudwego/asmopt/internal/cfg"
	"github.com/cloudwego/asmopt/internal/ir"
)

var _Spew = spew.ConfigState{
	Indent:                  "    ",
	SortKeys:                true,
	DisableMethods:          true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
}

type _BlockFacts struct {
	Block     int
	Succ      []int
	Pred      []int
	LiveIn    []ir.Reg
	LiveOut   []ir.Reg
	ReachIn   []uint64
	ReachOut  []uint64
	CopiesIn  []string
	CopiesOut []string
}

func regs(s Set[ir.Reg]) []ir.Reg {
	ret := make([]ir.Reg, 0, len(s))
	for r := range s {
		ret = append(ret, r)
	}
	ir.SortRegs(ret)
	return ret
}

func copies(s Set[Copy]) []string {
	ret := make([]string, 0, len(s))
	for _, c := range s.Sorted() {
		ret = append(ret, c.String())
	}
	return ret
}

func ids(s Set[uint64]) []uint64 {
	ret := make([]uint64, 0, len(s))
	for v := range s {
		ret = append(ret, v)
	}
	sort.Slice(ret, func(i int, j int) bool {
		return ret[i] < ret[j]
	})
	return ret
}

func collect(f *Facts, bb *cfg.BasicBlock) _BlockFacts {
	return _BlockFacts{
		Block:     bb.Id,
		Succ:      bb.Succ,
		Pred:      bb.Pred,
		LiveIn:    regs(f.Live.In[bb.Id]),
		LiveOut:   regs(f.Live.Out[bb.Id]),
		ReachIn:   ids(f.Reach.In[bb.Id]),
		ReachOut:  ids(f.Reach.Out[bb.Id]),
		CopiesIn:  copies(f.Copies.In[bb.Id]),
		CopiesOut: copies(f.Copies.Out[bb.Id]),
	}
}

// Dump renders the facts of a block for the debug log.
func Dump(f *Facts, bb *cfg.BasicBlock) string {
	return _Spew.Sdump(collect(f, bb))
}

// Summary renders the facts of a block as one-line annotations.
func Summary(f *Facts, bb *cfg.BasicBlock) []string {
	v := collect(f, bb)
	return []string{
		fmt.Sprintf("bb_%d: succ %v, pred %v", v.Block, v.Succ, v.Pred),
		fmt.Sprintf("live in %v, live out %v", v.LiveIn, v.LiveOut),
		fmt.Sprintf("reach in %v, reach out %v", v.ReachIn, v.ReachOut),
		fmt.Sprintf("copies in %v, copies out %v", v.CopiesIn, v.CopiesOut),
	}
}
