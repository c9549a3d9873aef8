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
	"fmt"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/graph/traverse"
)

// Stats summarizes the shape of a control-flow graph.
type Stats struct {
	Blocks    int
	Edges     int
	Reachable int
	Loops     int
}

func (self Stats) String() string {
	return fmt.Sprintf("%d blocks, %d edges, %d reachable, %d loops", self.Blocks, self.Edges, self.Reachable, self.Loops)
}

// Directed mirrors the graph into a gonum directed graph. Self loops are
// left out since the simple graph does not allow them.
func (self *Graph) Directed() *simple.DirectedGraph {
	g := simple.NewDirectedGraph()

	/* add all the nodes first */
	for _, bb := range self.Blocks {
		g.AddNode(simple.Node(bb.Id))
	}

	/* then all the edges */
	for _, bb := range self.Blocks {
		for _, id := range bb.Succ {
			if id != bb.Id {
				g.SetEdge(g.NewEdge(simple.Node(bb.Id), simple.Node(id)))
			}
		}
	}
	return g
}

// Stats computes the reachability and loop statistics of the graph.
func (self *Graph) Stats() Stats {
	ret := Stats{
		Blocks: len(self.Blocks),
		Edges:  self.Edges(),
	}

	/* nothing to analyze for the empty program */
	if len(self.Blocks) == 0 {
		return ret
	}

	/* count the blocks reachable from the entry */
	g := self.Directed()
	bfs := traverse.BreadthFirst{Visit: func(graph.Node) { ret.Reachable++ }}
	bfs.Walk(g, g.Node(0), nil)

	/* every non-trivial strongly connected component is a loop */
	for _, cc := range topo.TarjanSCC(g) {
		if len(cc) > 1 {
			ret.Loops++
		}
	}

	/* so is every self loop */
	for _, bb := range self.Blocks {
		for _, id := range bb.Succ {
			if id == bb.Id {
				ret.Loops++
			}
		}
	}
	return ret
}
