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
	"bytes"
	"fmt"
	"strings"
	"testing"

	gofakeit "github.com/brianvoe/gofakeit/v6"
	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/require"

	"github.com/cloudwego/asmopt/internal/cfg"
	"github.com/cloudwego/asmopt/internal/ir"
)

func build(lines ...string) *cfg.Graph {
	ids := new(ir.Allocator)
	ins := make([]*ir.Instr, 0, len(lines))

	/* a tiny line parser, good enough for the tests */
	for _, ln := range lines {
		switch {
		case strings.HasSuffix(ln, ":"):
			ins = append(ins, ids.Label(strings.TrimSuffix(ln, ":")))
		case strings.HasPrefix(ln, "."):
			ins = append(ins, ids.Directive(ln))
		default:
			var args []ir.Operand
			name, rest, _ := strings.Cut(ln, " ")
			for _, v := range strings.Split(rest, ",") {
				if v = strings.TrimSpace(v); v != "" {
					op, err := ir.ParseOperand(v)
					if err != nil {
						panic(err)
					}
					args = append(args, op)
				}
			}
			ins = append(ins, ids.Command(name, args...))
		}
	}
	return cfg.Build(ins, ids, 0)
}

func TestLiveness_StraightLine(t *testing.T) {
	g := build(
		"li $8,5",
		"addu $9,$8,$8",
	)
	f := Analyze(g, ir.DefaultReserved)
	bb := g.Blocks[0]
	require.False(t, f.DeadAfter(bb, 0, "$8"))
	require.True(t, f.DeadAfter(bb, 1, "$8"))
	require.True(t, f.DeadAfter(bb, 1, "$9"))
	require.False(t, f.DeadAfter(bb, 1, ir.R_sp))
	require.False(t, f.Live.In[0].Has("$8"))
	require.True(t, f.LiveAt(bb, 1).Has("$8"))
	require.False(t, f.LiveAt(bb, 0).Has("$8"))
}

func TestLiveness_Loop(t *testing.T) {
	g := build(
		"li $8,0",
		"loop:",
		"addu $8,$8,1",
		"bne $8,$9,loop",
		"move $2,$8",
		"jr $31",
	)
	f := Analyze(g, ir.DefaultReserved)
	require.Len(t, g.Blocks, 3, spew.Sdump(f.Live))
	require.True(t, f.Live.In[1].Has("$8"))
	require.True(t, f.Live.In[1].Has("$9"))
	require.True(t, f.Live.Out[1].Has("$8"))
	require.True(t, f.Live.Out[0].Has("$8"))
	require.False(t, f.Live.In[0].Has("$8"))
	require.True(t, f.Live.In[0].Has("$9"))
	require.False(t, f.DeadAfter(g.Blocks[2], 0, "$2"))

	/* reserved registers are live everywhere */
	for i := range g.Blocks {
		require.True(t, f.Live.In[i].Has(ir.R_sp))
	}
}

func TestLiveness_UnresolvedCall(t *testing.T) {
	g := build(
		"li $4,1",
		"li $8,1",
		"jal printf",
	)
	f := Analyze(g, ir.DefaultReserved)
	bb := g.Blocks[0]
	require.True(t, bb.Unresolved)
	require.False(t, f.DeadAfter(bb, 0, "$4"))
	require.True(t, f.DeadAfter(bb, 1, "$8"))
}

func TestReaching_Merge(t *testing.T) {
	g := build(
		"li $8,1",
		"beq $2,$3,L1",
		"li $8,2",
		"L1:",
		"addu $9,$8,$8",
	)
	f := Analyze(g, ir.DefaultReserved)
	require.Len(t, g.Blocks, 3)
	li1 := g.Blocks[0].Ins[0]
	li2 := g.Blocks[1].Ins[0]
	require.True(t, f.Reaches(g.Blocks[0], li1))
	require.False(t, f.Reaches(g.Blocks[1], li1))
	require.True(t, f.Reaches(g.Blocks[1], li2))
	require.Equal(t, NewSet(li1.Id, li2.Id), f.Reach.In[2])
}

func TestCopies_MustMeet(t *testing.T) {
	g := build(
		"move $8,$9",
		"beq $2,$3,L1",
		"move $8,$9",
		"L1:",
		"addu $10,$8,$8",
	)
	f := Analyze(g, ir.DefaultReserved)
	require.True(t, f.Available(g.Blocks[2], Copy{"$8", "$9"}))

	/* one of the paths kills the copy */
	g = build(
		"move $8,$9",
		"beq $2,$3,L1",
		"li $9,0",
		"L1:",
		"addu $10,$8,$8",
	)
	f = Analyze(g, ir.DefaultReserved)
	require.False(t, f.Available(g.Blocks[2], Copy{"$8", "$9"}))
	require.Empty(t, f.Copies.In[0])
}

func TestCopies_EntryBlock(t *testing.T) {
	g := build(
		".globl L1",
		"move $8,$9",
		"L1:",
		"addu $10,$8,$8",
	)
	f := Analyze(g, ir.DefaultReserved)
	require.True(t, g.Blocks[1].Entry)
	require.Empty(t, f.Copies.In[1])
}

func TestCopies_CallKills(t *testing.T) {
	g := build(
		"move $8,$16",
		"move $17,$16",
		"jal foo",
		"addu $10,$8,$17",
		"foo:",
		"jr $31",
	)
	f := Analyze(g, ir.DefaultReserved)
	require.False(t, f.Available(g.Blocks[1], Copy{"$8", "$16"}))
	require.True(t, f.Available(g.Blocks[1], Copy{"$17", "$16"}))
}

func TestSolve_MustWithoutUniverse(t *testing.T) {
	g := build("li $8,1")
	require.Panics(t, func() {
		Solve(g, &Problem[ir.Reg]{
			Meet: Intersect,
			Gen:  []Set[ir.Reg]{NewSet[ir.Reg]()},
			Kill: []Set[ir.Reg]{NewSet[ir.Reg]()},
		})
	})
}

func TestDump(t *testing.T) {
	g := build(
		"li $8,5",
		"move $9,$8",
		"addu $10,$9,$8",
	)
	f := Analyze(g, ir.DefaultReserved)
	s := Dump(f, g.Blocks[0])
	require.Contains(t, s, "LiveIn")
	require.Contains(t, s, "$9=$8")
	require.Len(t, Summary(f, g.Blocks[0]), 4)

	/* render the chart */
	buf := new(bytes.Buffer)
	DrawLiveness(buf, g, f)
	require.Contains(t, buf.String(), "<svg")
	require.Contains(t, buf.String(), "bb_0")
	require.Contains(t, buf.String(), "$8")
}

// randomGraph builds a program of nb labelled blocks, each ending with a
// random kind of control transfer.
func randomGraph(f *gofakeit.Faker, nb int) []string {
	var ret []string
	reg := func() string { return fmt.Sprintf("$%d", f.Number(8, 12)) }

	/* every block starts with its own label */
	for i := 0; i < nb; i++ {
		ret = append(ret, fmt.Sprintf("L%d:", i))
		for n := f.Number(0, 4); n > 0; n-- {
			switch f.Number(0, 3) {
			case 0:
				ret = append(ret, fmt.Sprintf("li %s,%d", reg(), f.Number(0, 9)))
			case 1:
				ret = append(ret, fmt.Sprintf("move %s,%s", reg(), reg()))
			case 2:
				ret = append(ret, fmt.Sprintf("sw %s,0($sp)", reg()))
			default:
				ret = append(ret, fmt.Sprintf("addu %s,%s,%s", reg(), reg(), reg()))
			}
		}

		/* then leaves it somehow */
		switch f.Number(0, 6) {
		case 0:
			ret = append(ret, fmt.Sprintf("beq %s,%s,L%d", reg(), reg(), f.Number(0, nb-1)))
		case 1:
			ret = append(ret, fmt.Sprintf("j L%d", f.Number(0, nb-1)))
		case 2:
			ret = append(ret, "jr $31")
		case 3:
			ret = append(ret, "jal foo")
		case 4:
			ret = append(ret, fmt.Sprintf("jr %s", reg()))
		}
	}
	return ret
}

func TestLiveness_RandomGraphs(t *testing.T) {
	exit := ExitLive(ir.DefaultReserved)
	for seed := int64(1); seed <= 200; seed++ {
		src := randomGraph(gofakeit.New(seed), 6)
		g := build(src...)
		f := Analyze(g, ir.DefaultReserved)
		msg := strings.Join(src, "\n")

		/* every register live at the exit of a block is live where control goes next */
		for _, bb := range g.Blocks {
			next := NewSet[ir.Reg]()
			if len(bb.Succ) == 0 {
				next.Union(exit)
			}
			for _, id := range bb.Succ {
				next.Union(f.Live.In[id])
			}
			for r := range f.Live.Out[bb.Id] {
				require.Truef(t, next.Has(r), "%s is live out of bb_%d but nowhere after it\n%s", r, bb.Id, msg)
			}
			for r := range next {
				require.Truef(t, f.Live.Out[bb.Id].Has(r), "%s is missing from the live out of bb_%d\n%s", r, bb.Id, msg)
			}

			/* and every register read before a write is live at the entry */
			def := NewSet[ir.Reg]()
			for i, p := range bb.Ins {
				for _, r := range UsesAt(bb, i) {
					if !def.Has(r) {
						require.Truef(t, f.Live.In[bb.Id].Has(r), "%s is read in bb_%d but not live in\n%s", r, bb.Id, msg)
					}
				}
				for _, r := range p.Defs() {
					def.Add(r)
				}
			}
		}
	}
}
