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
)

// Program holds the instructions of a unit either as one flat sequence or
// partitioned into basic blocks, never both at the same time.
type Program struct {
	ins     []*ir.Instr
	graph   *cfg.Graph
	ids     *ir.Allocator
	verbose int
}

func NewProgram(ins []*ir.Instr, ids *ir.Allocator, verbose int) *Program {
	return &Program{
		ins:     ins,
		ids:     ids,
		verbose: verbose,
	}
}

// Partitioned reports whether the program is currently split into blocks.
func (self *Program) Partitioned() bool {
	return self.graph != nil
}

// Flat returns the flat instruction sequence.
func (self *Program) Flat() []*ir.Instr {
	if self.graph != nil {
		panic("opt: program is partitioned")
	} else {
		return self.ins
	}
}

// Stream returns a cursor over the flat sequence, changes made through the
// cursor are taken back with Update.
func (self *Program) Stream() *ir.Stream {
	return ir.NewStream(self.Flat(), self.ids, self.verbose)
}

// Update replaces the flat instruction sequence.
func (self *Program) Update(s *ir.Stream) {
	if self.graph != nil {
		panic("opt: program is partitioned")
	} else {
		self.ins = s.Ins
	}
}

// Graph returns the control-flow graph of the partitioned program.
func (self *Program) Graph() *cfg.Graph {
	if self.graph == nil {
		panic("opt: program is not partitioned")
	} else {
		return self.graph
	}
}

// Partition splits the flat sequence into basic blocks.
func (self *Program) Partition() *cfg.Graph {
	if self.graph != nil {
		panic("opt: program is already partitioned")
	}

	/* the blocks own the instructions from now on */
	self.graph = cfg.Build(self.ins, self.ids, self.verbose)
	self.ins = nil
	return self.graph
}

// Flatten concatenates the blocks back in their original order.
func (self *Program) Flatten() []*ir.Instr {
	if self.graph == nil {
		panic("opt: program is not partitioned")
	}

	/* the flat sequence owns the instructions from now on */
	self.ins = self.graph.Flatten()
	self.graph = nil
	return self.ins
}
