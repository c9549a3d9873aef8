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
	"github.com/oleiade/lane"
)

// BasicBlockIter visits the blocks in depth-first post-order. Blocks that
// are not reachable from the first block are visited afterwards, starting a
// new search from each of them in index order.
type BasicBlockIter struct {
	g *Graph
	b *BasicBlock
	s *lane.Stack
	v []bool
	r int
}

func newBasicBlockIter(g *Graph) *BasicBlockIter {
	return &BasicBlockIter{
		g: g,
		s: lane.NewStack(),
		v: make([]bool, len(g.Blocks)),
	}
}

func (self *BasicBlockIter) root() bool {
	for ; self.r < len(self.v); self.r++ {
		if !self.v[self.r] {
			self.v[self.r] = true
			self.s.Push(self.g.Blocks[self.r])
			return true
		}
	}
	return false
}

func (self *BasicBlockIter) Next() bool {
	var tail bool
	var this *BasicBlock

	/* pick a new root if the stack is drained */
	if self.s.Empty() && !self.root() {
		self.b = nil
		return false
	}

	/* scan until the stack is empty */
	for !self.s.Empty() {
		tail = true
		this = self.s.Head().(*BasicBlock)

		/* add the first unvisited successor */
		for _, id := range this.Succ {
			if !self.v[id] {
				tail = false
				self.v[id] = true
				self.s.Push(self.g.Blocks[id])
				break
			}
		}

		/* all the successors are visited, pop the current node */
		if tail {
			self.b = self.s.Pop().(*BasicBlock)
			return true
		}
	}

	/* should never happen */
	panic("cfg: unbalanced block stack")
}

func (self *BasicBlockIter) Block() *BasicBlock {
	return self.b
}

func (self *BasicBlockIter) ForEach(action func(bb *BasicBlock)) {
	for self.Next() {
		action(self.b)
	}
}

// PostOrder returns every block in depth-first post-order.
func (self *Graph) PostOrder() []*BasicBlock {
	ret := make([]*BasicBlock, 0, len(self.Blocks))
	newBasicBlockIter(self).ForEach(func(bb *BasicBlock) { ret = append(ret, bb) })
	return ret
}

// ReversePostOrder returns every block in reverse depth-first post-order.
func (self *Graph) ReversePostOrder() []*BasicBlock {
	ret := self.PostOrder()
	for i, j := 0, len(ret)-1; i < j; i, j = i+1, j-1 {
		ret[i], ret[j] = ret[j], ret[i]
	}
	return ret
}
