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
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cloudwego/asmopt/internal/ir"
)

func program(lines ...string) ([]*ir.Instr, *ir.Allocator) {
	ids := new(ir.Allocator)
	ret := make([]*ir.Instr, 0, len(lines))

	/* a tiny line parser, good enough for the tests */
	for _, ln := range lines {
		switch {
		case strings.HasSuffix(ln, ":"):
			ret = append(ret, ids.Label(strings.TrimSuffix(ln, ":")))
		case strings.HasPrefix(ln, "."):
			ret = append(ret, ids.Directive(ln))
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
			ret = append(ret, ids.Command(name, args...))
		}
	}
	return ret, ids
}

func spans(g *Graph) [][2]int {
	var i int
	var ret [][2]int
	for _, bb := range g.Blocks {
		ret = append(ret, [2]int{i, i + len(bb.Ins)})
		i += len(bb.Ins)
	}
	return ret
}

func TestCFG_Partition(t *testing.T) {
	ins, ids := program(
		"addu $2,$3,$4",
		"j L",
		"addu $5,$6,$7",
		"addu $8,$9,$10",
		"L:",
	)
	g := Build(ins, ids, 0)
	require.Equal(t, [][2]int{{0, 2}, {2, 4}, {4, 5}}, spans(g))
	require.Equal(t, []int{2}, g.Blocks[0].Succ)
	require.Equal(t, []int{2}, g.Blocks[1].Succ)
	require.Equal(t, []int{0, 1}, g.Blocks[2].Pred)
	require.Empty(t, g.Blocks[1].Pred)
	require.Equal(t, ins, g.Flatten())
}

func TestCFG_Empty(t *testing.T) {
	g := Build(nil, new(ir.Allocator), 0)
	require.Empty(t, g.Blocks)
	require.Empty(t, g.Flatten())
	require.Equal(t, Stats{}, g.Stats())
}

func TestCFG_UntargetedLabelIsNotLeader(t *testing.T) {
	ins, ids := program(
		"li $2,1",
		"here:",
		"li $3,2",
	)
	g := Build(ins, ids, 0)
	require.Len(t, g.Blocks, 1)
}

func TestCFG_Edges(t *testing.T) {
	ins, ids := program(
		"li $2,0",
		"loop:",
		"addu $2,$2,1",
		"bne $2,$4,loop",
		"jal helper",
		"jal printf",
		"j $31",
		"helper:",
		"jr $31",
	)
	g := Build(ins, ids, 0)
	require.Len(t, g.Blocks, 6)

	/* fallthrough into the loop */
	require.Equal(t, []int{1}, g.Blocks[0].Succ)

	/* conditional branch: target and fallthrough */
	require.Equal(t, []int{1, 2}, g.Blocks[1].Succ)
	require.ElementsMatch(t, []int{0, 1}, g.Blocks[1].Pred)

	/* resolved call: callee and return point */
	require.Equal(t, []int{5, 3}, g.Blocks[2].Succ)

	/* unresolved call: fallthrough only */
	require.Equal(t, []int{4}, g.Blocks[3].Succ)
	require.True(t, g.Blocks[3].Unresolved)

	/* returns have no successors */
	require.Empty(t, g.Blocks[4].Succ)
	require.Empty(t, g.Blocks[5].Succ)

	/* edge symmetry */
	for _, bb := range g.Blocks {
		for _, s := range bb.Succ {
			require.Contains(t, g.Blocks[s].Pred, bb.Id)
		}
		for _, p := range bb.Pred {
			require.Contains(t, g.Blocks[p].Succ, bb.Id)
		}
	}

	st := g.Stats()
	require.Equal(t, 6, st.Blocks)
	require.Equal(t, 6, st.Edges)
	require.Equal(t, 6, st.Reachable)
	require.Equal(t, 1, st.Loops)
}

func TestCFG_UnresolvedBranch(t *testing.T) {
	ins, ids := program(
		"beq $2,$3,nowhere",
		"li $2,1",
	)
	g := Build(ins, ids, 0)
	require.Len(t, g.Blocks, 2)
	require.True(t, g.Blocks[0].Unresolved)
	require.Equal(t, []int{1}, g.Blocks[0].Succ)
}

func TestCFG_EntryLabels(t *testing.T) {
	ins, ids := program(
		".globl main",
		"main:",
		"la $2,$L5",
		"jr $2",
		"li $3,1",
		"$L5:",
		"j $31",
	)
	g := Build(ins, ids, 0)
	require.Len(t, g.Blocks, 4)
	require.True(t, g.Blocks[1].Entry)
	require.True(t, g.Blocks[3].Entry)

	/* the indirect jump may go to every address-taken label */
	require.Equal(t, []int{1, 3}, g.Blocks[1].Succ)
	require.True(t, g.Blocks[1].Unresolved)
}

func TestCFG_IndirectCall(t *testing.T) {
	ins, ids := program(
		".globl main",
		"main:",
		"la $9,$L1",
		"jalr $9",
		"li $2,1",
		"$L1:",
		"jr $31",
	)
	g := Build(ins, ids, 0)
	require.Len(t, g.Blocks, 4)

	/* an indirect call returns to the next block, and nowhere else */
	require.Equal(t, "jalr $9", g.Blocks[1].Terminator().String())
	require.True(t, g.Blocks[1].Unresolved)
	require.Equal(t, []int{2}, g.Blocks[1].Succ)

	/* blocks without a jump fall through */
	require.Nil(t, g.Blocks[2].Terminator())
	require.Equal(t, []int{3}, g.Blocks[2].Succ)
	require.True(t, g.Blocks[3].Terminator().IsReturn())
	require.Empty(t, g.Blocks[3].Succ)
}

func TestCFG_PostOrder(t *testing.T) {
	ins, ids := program(
		"beq $2,$3,L1",
		"li $2,1",
		"L1:",
		"j $31",
		"dead:",
		"li $4,1",
	)
	g := Build(ins, ids, 0)
	ids2 := func(bbs []*BasicBlock) []int {
		ret := make([]int, len(bbs))
		for i, bb := range bbs {
			ret[i] = bb.Id
		}
		return ret
	}
	require.Len(t, g.Blocks, 4)
	require.Equal(t, []int{2, 1, 0, 3}, ids2(g.PostOrder()))
	require.Equal(t, []int{3, 0, 1, 2}, ids2(g.ReversePostOrder()))
	require.Equal(t, 3, g.Stats().Reachable)
}
