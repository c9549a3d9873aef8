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

package ir

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func cmd(ids *Allocator, name string, args ...string) *Instr {
	ops := make([]Operand, len(args))
	for i, a := range args {
		op, err := ParseOperand(a)
		if err != nil {
			panic(err)
		}
		ops[i] = op
	}
	return ids.Command(name, ops...)
}

func TestReg_Canonical(t *testing.T) {
	for s, r := range map[string]Reg{
		"$zero": "$0",
		"$ra":   "$31",
		"$29":   "$sp",
		"$sp":   "$sp",
		"$s8":   "$fp",
		"$t0":   "$8",
		"$17":   "$17",
		"$f12":  "$f12",
	} {
		v, ok := ParseReg(s)
		require.True(t, ok, s)
		require.Equal(t, r, v, s)
	}
	for _, s := range []string{"$LC0", "$L12", "$32", "$01", "foo", "$"} {
		_, ok := ParseReg(s)
		require.False(t, ok, s)
	}
}

func TestOperand_Parse(t *testing.T) {
	op, err := ParseOperand("16($fp)")
	require.NoError(t, err)
	require.Equal(t, Memory(16, R_fp), op)
	op, err = ParseOperand("($2)")
	require.NoError(t, err)
	require.Equal(t, Memory(0, R_v0), op)
	op, err = ParseOperand("%lo(foo)($3)")
	require.NoError(t, err)
	require.Equal(t, SymbolicMemory("%lo(foo)", R_v1), op)
	require.Equal(t, "%lo(foo)($3)", op.String())
	op, err = ParseOperand("0x10")
	require.NoError(t, err)
	require.Equal(t, Immediate(16), op)
	op, err = ParseOperand("-4")
	require.NoError(t, err)
	require.Equal(t, Immediate(-4), op)
	op, err = ParseOperand("$LC0")
	require.NoError(t, err)
	require.Equal(t, Symbol("$LC0"), op)
	_, err = ParseOperand("$99")
	require.Error(t, err)
}

func TestInstr_Classification(t *testing.T) {
	ids := new(Allocator)
	j := cmd(ids, "j", "$L1")
	jal := cmd(ids, "jal", "printf")
	beq := cmd(ids, "beq", "$2", "$3", "$L2")
	ret := cmd(ids, "j", "$31")
	jr := cmd(ids, "jr", "$2")
	mv := cmd(ids, "move", "$2", "$3")
	lw := cmd(ids, "lw", "$2", "8($sp)")
	sw := cmd(ids, "sw", "$2", "8($sp)")
	unk := cmd(ids, "frobnicate", "$2", "$3")

	require.True(t, j.IsJump())
	require.False(t, j.IsBranch())
	require.True(t, jal.IsCall())
	require.True(t, beq.IsBranch())
	require.True(t, ret.IsReturn())
	require.False(t, ret.IsIndirect())
	require.True(t, jr.IsIndirect())
	require.True(t, mv.IsMove())
	require.True(t, lw.IsMemLoad())
	require.True(t, sw.IsStore())
	require.True(t, unk.IsOpaque())
	require.False(t, unk.IsPure())
	require.False(t, sw.IsPure())
	require.True(t, mv.IsPure())

	tg, ok := beq.Target()
	require.True(t, ok)
	require.Equal(t, "$L2", tg)
	_, ok = jr.Target()
	require.False(t, ok)
}

func TestInstr_DefsUses(t *testing.T) {
	ids := new(Allocator)
	add := cmd(ids, "addu", "$2", "$3", "$4")
	require.Equal(t, []Reg{"$2"}, add.Defs())
	require.Equal(t, []Reg{"$3", "$4"}, add.Uses())

	sw := cmd(ids, "sw", "$2", "16($fp)")
	require.Empty(t, sw.Defs())
	require.Equal(t, []Reg{"$2", "$fp"}, sw.Uses())

	mult := cmd(ids, "mult", "$2", "$3")
	require.Equal(t, []Reg{R_hi, R_lo}, mult.Defs())
	mflo := cmd(ids, "mflo", "$4")
	require.Equal(t, []Reg{"$4"}, mflo.Defs())
	require.Equal(t, []Reg{R_lo}, mflo.Uses())

	div := cmd(ids, "div", "$2", "$3", "$4")
	require.Equal(t, []Reg{"$2"}, div.Defs())
	div0 := cmd(ids, "div", "$0", "$3", "$4")
	require.True(t, div0.IsHiLoDiv())
	require.Equal(t, []Reg{R_hi, R_lo}, div0.Defs())
	require.Equal(t, []Reg{"$3", "$4"}, div0.Uses())

	acc := cmd(ids, "addu", "$2", "$3")
	require.Equal(t, []Reg{"$2"}, acc.Defs())
	require.Equal(t, []Reg{"$2", "$3"}, acc.Uses())

	jal := cmd(ids, "jal", "foo")
	require.Equal(t, []Reg{R_ra}, jal.Defs())
	require.Contains(t, jal.Clobbers(), Reg("$8"))
	require.NotContains(t, jal.Clobbers(), Reg("$16"))

	ret := cmd(ids, "jr", "$31")
	require.Contains(t, ret.Uses(), R_v0)
	require.Contains(t, ret.Uses(), Reg("$16"))

	unk := cmd(ids, "frobnicate", "$2", "4($3)")
	require.Empty(t, unk.Defs())
	require.Equal(t, []Reg{"$2"}, unk.Clobbers())
	require.Equal(t, []Reg{"$2", "$3"}, unk.Uses())
}

func TestInstr_ReplaceUse(t *testing.T) {
	ids := new(Allocator)
	p := cmd(ids, "addu", "$2", "$2", "$2")
	require.Equal(t, 2, p.ReplaceUse("$2", "$5"))
	require.Equal(t, "addu $2,$5,$5", p.String())

	p = cmd(ids, "lw", "$2", "4($2)")
	require.Equal(t, 1, p.ReplaceUse("$2", "$5"))
	require.Equal(t, "lw $2,4($5)", p.String())
}

func TestInstr_IdsNeverReused(t *testing.T) {
	ids := new(Allocator)
	a := ids.Label("a")
	b := ids.Clone(cmd(ids, "addu", "$2", "$3", "$4"))
	c := ids.Move("$2", "$3")
	require.Less(t, a.Id, b.Id)
	require.Less(t, b.Id, c.Id)
	require.Equal(t, c.Id+1, ids.Peek())
}

func TestInstr_Notes(t *testing.T) {
	p := new(Allocator).Move("$2", "$3")
	p.Note("x")
	p.Note("x")
	p.Note("y")
	require.Equal(t, []string{"x", "y"}, p.Notes)
}
