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
	"sync/atomic"

	"github.com/oleiade/lane"

	"github.com/cloudwego/asmopt/internal/cfg"
)

var (
	SolveCount     uint64
	IterationCount uint64
)

type Direction uint8

const (
	Forward Direction = iota
	Backward
)

type Meet uint8

const (
	Union Meet = iota
	Intersect
)

// Problem describes a gen/kill dataflow problem over a control-flow graph.
//
// Boundary facts flow into every boundary block: for forward problems
// these are the first block, blocks without predecessors and the blocks
// Open selects; for backward problems the blocks without successors.
type Problem[T comparable] struct {
	Name     string
	Dir      Direction
	Meet     Meet
	Gen      []Set[T]
	Kill     []Set[T]
	Boundary Set[T]
	Universe Set[T]
	Open     func(bb *cfg.BasicBlock) bool
}

// Result holds the facts at the entry and the exit of every block, indexed by block id.
type Result[T comparable] struct {
	In  []Set[T]
	Out []Set[T]
}

func (self *Problem[T]) isBoundary(g *cfg.Graph, bb *cfg.BasicBlock) bool {
	if self.Dir == Backward {
		return len(bb.Succ) == 0
	} else {
		return bb.Id == 0 || len(bb.Pred) == 0 || (self.Open != nil && self.Open(bb))
	}
}

func (self *Problem[T]) neighbours(bb *cfg.BasicBlock) (up []int, down []int) {
	if self.Dir == Backward {
		return bb.Succ, bb.Pred
	} else {
		return bb.Pred, bb.Succ
	}
}

func (self *Problem[T]) initial() Set[T] {
	if self.Meet == Intersect {
		return self.Universe.Clone()
	} else {
		return NewSet[T]()
	}
}

func (self *Problem[T]) meet(g *cfg.Graph, bb *cfg.BasicBlock, down []Set[T]) Set[T] {
	var ret Set[T]
	up, _ := self.neighbours(bb)

	/* boundary blocks see the boundary facts as an extra neighbour */
	if self.isBoundary(g, bb) {
		ret = self.Boundary.Clone()
	}

	/* merge the facts of all the upstream neighbours */
	for _, id := range up {
		if ret == nil {
			ret = down[id].Clone()
		} else if self.Meet == Intersect {
			ret.Intersect(down[id])
		} else {
			ret.Union(down[id])
		}
	}

	/* no neighbours at all */
	if ret == nil {
		ret = NewSet[T]()
	}
	return ret
}

func (self *Problem[T]) order(g *cfg.Graph) []*cfg.BasicBlock {
	if self.Dir == Backward {
		return g.PostOrder()
	} else {
		return g.ReversePostOrder()
	}
}

// Solve computes the fixpoint of the problem with the work-list algorithm.
func Solve[T comparable](g *cfg.Graph, p *Problem[T]) *Result[T] {
	nb := len(g.Blocks)
	up := make([]Set[T], nb)
	down := make([]Set[T], nb)
	queued := make([]bool, nb)

	/* sanity checks */
	if len(p.Gen) != nb || len(p.Kill) != nb {
		panic(fmt.Sprintf("dataflow: %s: gen/kill sets do not match %d blocks", p.Name, nb))
	} else if p.Meet == Intersect && p.Universe == nil {
		panic(fmt.Sprintf("dataflow: %s: must-analysis without an universe", p.Name))
	}

	/* initial values */
	for i := range down {
		down[i] = p.initial()
	}

	/* seed the work-list with every block */
	q := lane.NewQueue()
	for _, bb := range p.order(g) {
		q.Enqueue(bb)
		queued[bb.Id] = true
	}

	/* iterate until nothing changes */
	atomic.AddUint64(&SolveCount, 1)
	for !q.Empty() {
		bb := q.Dequeue().(*cfg.BasicBlock)
		queued[bb.Id] = false
		atomic.AddUint64(&IterationCount, 1)

		/* recompute the upstream facts, then apply the transfer function */
		up[bb.Id] = p.meet(g, bb, down)
		rv := up[bb.Id].Clone().Subtract(p.Kill[bb.Id]).Union(p.Gen[bb.Id])

		/* nothing changed, no need to propagate */
		if rv.Equal(down[bb.Id]) {
			continue
		}

		/* update the facts and schedule the downstream neighbours */
		down[bb.Id] = rv
		_, next := p.neighbours(bb)

		/* add to the work-list if not queued yet */
		for _, id := range next {
			if !queued[id] {
				queued[id] = true
				q.Enqueue(g.Blocks[id])
			}
		}
	}

	/* map back to block entry and exit */
	if p.Dir == Backward {
		return &Result[T]{In: down, Out: up}
	} else {
		return &Result[T]{In: up, Out: down}
	}
}
