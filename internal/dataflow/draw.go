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
	"io"

	"github.com/ajstarks/svgo"

	"github.com/cloudwego/asmopt/internal/cfg"
	"github.com/cloudwego/asmopt/internal/ir"
)

type _LivePoint struct {
	b int
	i int
}

// DrawLiveness renders the live registers before every command as an SVG chart.
// Filled dots mark a live register, hollow dots mark its definitions.
func DrawLiveness(w io.Writer, g *cfg.Graph, f *Facts) {
	maxi := 0
	rows := 0
	all := NewSet[ir.Reg]()
	live := make(map[_LivePoint]Set[ir.Reg])

	/* collect the live sets and the register columns */
	for _, bb := range g.Blocks {
		for i, p := range bb.Ins {
			if !p.IsCommand() {
				continue
			}
			s := f.LiveAt(bb, i)
			live[_LivePoint{bb.Id, i}] = s
			all.Union(s)
			for _, r := range p.Defs() {
				all.Add(r)
			}
			if n := len(p.String()); n > maxi {
				maxi = n
			}
		}
		rows += len(bb.Ins) + 1
	}

	/* layout */
	cols := regs(all)
	insw := maxi*9 + 120
	regw := 48
	p := svg.New(w)
	p.Start(len(cols)*regw+insw+100, rows*24+100)
	p.Rect(0, 0, len(cols)*regw+insw+100, rows*24+100, "fill:white")

	/* register headers */
	for i, r := range cols {
		p.Text(insw+i*regw+50, 70, r.String(), "fill:black;font-size:16px;font-family:monospace;text-anchor:middle")
	}

	/* one row per instruction */
	row := 0
	prev := make(map[ir.Reg]int)
	for _, bb := range g.Blocks {
		p.Text(16, 100+row*24, fmt.Sprintf("bb_%d", bb.Id), "fill:gray;font-size:16px;font-family:monospace")
		p.Line(10, 84+row*24, len(cols)*regw+insw+50, 84+row*24, "stroke:lightgray")
		row++

		/* draw every command */
		for i, v := range bb.Ins {
			h := 95 + row*24
			s, ok := live[_LivePoint{bb.Id, i}]
			p.Text(insw, 100+row*24, v.String(), "fill:black;font-size:16px;font-family:monospace;text-anchor:end")

			/* labels, directives and comments only take the space */
			if !ok {
				row++
				continue
			}

			/* dots for every live register */
			for c, r := range cols {
				x := insw + c*regw + 50
				if v.Writes(r) {
					p.Circle(x, h, 4, "fill:white;stroke:black;stroke-width:2")
				} else if s.Has(r) {
					if y, ok := prev[r]; ok && y == row-1 {
						p.Line(x, 95+y*24, x, h, "stroke:black;stroke-width:3")
					}
					p.Circle(x, h, 4, "fill:black;stroke:black;stroke-width:2")
					prev[r] = row
				}
			}
			row++
		}
	}
	p.End()
}
