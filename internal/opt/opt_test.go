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
	"errors"
	"fmt"
	"strings"
	"testing"

	gofakeit "github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/require"

	"github.com/cloudwego/asmopt/internal/ir"
	"github.com/cloudwego/asmopt/internal/parser"
	"github.com/cloudwego/asmopt/internal/printer"
	"github.com/cloudwego/asmopt/internal/utils"
)

func optimize(t *testing.T, verbose int, lines ...string) (*ir.Unit, Summary) {
	u := parse(t, lines...)
	s, err := Optimize(u, options(verbose))
	require.NoError(t, err)
	return u, s
}

func TestProgram_Misuse(t *testing.T) {
	u := parse(t, "li $2,1", "jr $31")
	prog := NewProgram(u.Ins, u.Ids, 0)
	require.False(t, prog.Partitioned())
	require.Panics(t, func() { prog.Graph() })
	require.Panics(t, func() { prog.Flatten() })

	/* partitioned programs have no flat view */
	g := prog.Partition()
	require.True(t, prog.Partitioned())
	require.Same(t, g, prog.Graph())
	require.Panics(t, func() { prog.Flat() })
	require.Panics(t, func() { prog.Stream() })
	require.Panics(t, func() { prog.Partition() })

	/* and back */
	require.Len(t, prog.Flatten(), 2)
	require.False(t, prog.Partitioned())
}

func TestOptimize_Folding(t *testing.T) {
	u, s := optimize(t, 0,
		"li $1,5",
		"li $2,3",
		"addu $3,$1,$2",
		"jr $31",
	)
	require.Equal(t, []string{"li $2,3", "li $3,8", "jr $31"}, text(u.Ins))
	require.Equal(t, 4, s.Original)
	require.Equal(t, 4, s.AfterGlobal)
	require.Equal(t, 3, s.Final)
	require.Equal(t, 2, s.Cycles)
	require.Equal(t, 4, s.Peak)
}

func TestOptimize_CopyPropagation(t *testing.T) {
	u, _ := optimize(t, 0,
		"move $8,$4",
		"addu $2,$8,$8",
		"jr $31",
	)
	require.Equal(t, []string{"addu $2,$4,$4", "jr $31"}, text(u.Ins))
}

func TestOptimize_KeepsLayout(t *testing.T) {
	u, _ := optimize(t, 0,
		"\t.text",
		"\t.globl\tmain",
		"main:",
		"\tmove\t$8,$4\t\t# argument",
		"\tbeq\t$8,$0,$L2",
		"\tj\t$L3",
		"$L2:",
		"\tli\t$2,1",
		"$L3:",
		"\tjr\t$31",
		"\t.end\tmain",
	)
	out := printer.Write(u.Ins)
	require.True(t, strings.HasPrefix(out, "\t.text\n\t.globl\tmain\nmain:\n"), out)
	require.True(t, strings.HasSuffix(out, "\tjr\t$31\n\t.end\tmain\n"), out)
	require.Equal(t, []string{"main:", "bne $4,$0,$L3", "$L2:", "li $2,1", "$L3:", "jr $31"}, text(u.Ins))
}

func TestOptimize_Idempotent(t *testing.T) {
	u, _ := optimize(t, 0,
		"li $8,4",
		"addu $9,$4,$5",
		"addu $10,$5,$4",
		"mult $9,$10",
		"mflo $2",
		"sw $2,0($sp)",
		"lw $3,0($sp)",
		"addu $3,$3,$8",
		"jr $31",
	)
	once := printer.Write(u.Ins)
	v, err := parser.Parse("again.s", once)
	require.NoError(t, err)
	_, err = Optimize(v, options(0))
	require.NoError(t, err)
	require.Equal(t, once, printer.Write(v.Ins))
}

func TestOptimize_Verbosity(t *testing.T) {
	src := []string{
		"move $8,$4",
		"beq $8,$5,L1",
		"li $9,2",
		"addu $2,$9,$8",
		"L1:",
		"jr $31",
	}
	u0, s0 := optimize(t, 0, src...)
	u2, s2 := optimize(t, 2, src...)
	require.Equal(t, text(u0.Ins), text(u2.Ins))
	require.Equal(t, s0, s2)

	/* no annotations by default */
	for _, p := range u0.Ins {
		require.Empty(t, p.Notes, p.String())
	}

	/* block summaries on the leaders */
	found := false
	for _, p := range u2.Ins {
		for _, n := range p.Notes {
			found = found || strings.HasPrefix(n, "bb_0: succ")
		}
	}
	require.True(t, found)
}

func TestOptimize_NonConvergence(t *testing.T) {
	u := parse(t, "li $1,5", "li $2,3", "addu $3,$1,$2", "jr $31")
	o := options(0)
	o.MaxCycles = 1
	_, err := Optimize(u, o)
	require.Error(t, err)
	var exc utils.NonConvergenceError
	require.True(t, errors.As(err, &exc), err.Error())
	require.Equal(t, 1, exc.Cycles)
}

func TestOptimize_Counters(t *testing.T) {
	units := UnitCount
	cycles := CycleCount
	optimize(t, 0, "li $1,5", "li $2,3", "addu $3,$1,$2", "jr $31")
	require.Equal(t, units+1, UnitCount)
	require.Equal(t, cycles+2, CycleCount)
}

type _RandomCommand struct {
	Op  int `fake:"{number:0,9}"`
	Rd  int `fake:"{number:8,12}"`
	Rs  int `fake:"{number:2,12}"`
	Rt  int `fake:"{number:2,12}"`
	Imm int `fake:"{number:0,6}"`
}

type _RandomUnit struct {
	Commands []_RandomCommand
	Branch   int
}

func randomUnit(n int) (_RandomUnit, error) {
	ret := _RandomUnit{
		Commands: make([]_RandomCommand, n),
		Branch:   gofakeit.Number(0, n-1),
	}
	for i := range ret.Commands {
		if err := gofakeit.Struct(&ret.Commands[i]); err != nil {
			return ret, err
		}
	}
	return ret, nil
}

func (self _RandomCommand) String() string {
	switch self.Op {
	case 0:
		return fmt.Sprintf("addu $%d,$%d,$%d", self.Rd, self.Rs, self.Rt)
	case 1:
		return fmt.Sprintf("subu $%d,$%d,$%d", self.Rd, self.Rs, self.Rt)
	case 2:
		return fmt.Sprintf("and $%d,$%d,$%d", self.Rd, self.Rs, self.Rt)
	case 3:
		return fmt.Sprintf("li $%d,%d", self.Rd, self.Imm-3)
	case 4:
		return fmt.Sprintf("move $%d,$%d", self.Rd, self.Rs)
	case 5:
		return fmt.Sprintf("sll $%d,$%d,%d", self.Rd, self.Rs, self.Imm)
	case 6:
		return fmt.Sprintf("sw $%d,%d($sp)", self.Rs, self.Imm*4)
	case 7:
		return fmt.Sprintf("lw $%d,%d($sp)", self.Rd, self.Imm*4)
	case 8:
		return fmt.Sprintf("slt $%d,$%d,$%d", self.Rd, self.Rs, self.Rt)
	default:
		return fmt.Sprintf("addiu $%d,$%d,%d", self.Rd, self.Rs, self.Imm)
	}
}

func (self _RandomUnit) Lines() []string {
	ret := make([]string, 0, len(self.Commands)+4)
	for i, c := range self.Commands {
		if i == self.Branch {
			ret = append(ret, fmt.Sprintf("beq $%d,$%d,L1", c.Rs, c.Rt))
		}
		ret = append(ret, c.String())
	}
	return append(ret, "L1:", "move $2,$8", "jr $31")
}

func TestOptimize_RandomPrograms(t *testing.T) {
	for seed := int64(1); seed <= 64; seed++ {
		gofakeit.Seed(seed)
		r, err := randomUnit(24)
		require.NoError(t, err)

		/* optimizing never fails, and the result is a fixed point */
		src := r.Lines()
		u, s := optimize(t, 0, src...)
		out := printer.Write(u.Ins)
		require.GreaterOrEqual(t, s.Peak, s.Original)
		require.GreaterOrEqual(t, s.Peak, s.Final)
		v, err := parser.Parse("again.s", out)
		require.NoError(t, err)
		s, err = Optimize(v, options(0))
		require.NoError(t, err)
		require.Equal(t, out, printer.Write(v.Ins), strings.Join(src, "\n"))
		require.Equal(t, s.Original, s.Peak)

		/* annotations never change the code */
		w, _ := optimize(t, 2, src...)
		require.Equal(t, text(u.Ins), text(w.Ins))
	}
}
