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
	"fmt"
)

type OpCode uint8

const (
	OP_unknown OpCode = iota
	OP_nop
	OP_syscall
	OP_break

	/* integer arithmetic */
	OP_add
	OP_addu
	OP_addi
	OP_addiu
	OP_sub
	OP_subu
	OP_and
	OP_andi
	OP_or
	OP_ori
	OP_xor
	OP_xori
	OP_nor
	OP_slt
	OP_sltu
	OP_slti
	OP_sltiu
	OP_sll
	OP_srl
	OP_sra
	OP_sllv
	OP_srlv
	OP_srav
	OP_mul
	OP_mult
	OP_multu
	OP_div
	OP_divu
	OP_rem
	OP_remu
	OP_neg
	OP_negu
	OP_not
	OP_abs
	OP_mflo
	OP_mfhi
	OP_mtlo
	OP_mthi

	/* data movement */
	OP_move
	OP_li
	OP_lui
	OP_la
	OP_lw
	OP_lb
	OP_lbu
	OP_lh
	OP_lhu
	OP_ld
	OP_l_s
	OP_l_d
	OP_lwc1
	OP_sw
	OP_sb
	OP_sh
	OP_sd
	OP_s_s
	OP_s_d
	OP_swc1
	OP_mfc1
	OP_mtc1

	/* floating point */
	OP_add_s
	OP_add_d
	OP_sub_s
	OP_sub_d
	OP_mul_s
	OP_mul_d
	OP_div_s
	OP_div_d
	OP_abs_s
	OP_abs_d
	OP_neg_s
	OP_neg_d
	OP_sqrt_s
	OP_sqrt_d
	OP_mov_s
	OP_mov_d
	OP_cvt_s_d
	OP_cvt_d_s
	OP_cvt_s_w
	OP_cvt_d_w
	OP_cvt_w_s
	OP_cvt_w_d
	OP_trunc_w_s
	OP_trunc_w_d
	OP_c_eq_s
	OP_c_eq_d
	OP_c_lt_s
	OP_c_lt_d
	OP_c_le_s
	OP_c_le_d

	/* control transfer */
	OP_j
	OP_b
	OP_jal
	OP_bal
	OP_jr
	OP_jalr
	OP_beq
	OP_bne
	OP_beql
	OP_bnel
	OP_beqz
	OP_bnez
	OP_blez
	OP_bgtz
	OP_bltz
	OP_bgez
	OP_bc1t
	OP_bc1f
	_OP_count
)

type OpFlags uint16

const (
	F_jump OpFlags = 1 << iota
	F_cond
	F_call
	F_arith
	F_load
	F_store
	F_move
	F_shift
	F_trap
	F_commut
	F_barrier
)

// _Form describes the register roles of the operands for one operand count.
type _Form struct {
	defs  []int
	uses  []int
	idefs []Reg
	iuses []Reg
}

type _OpInfo struct {
	name  string
	flags OpFlags
	forms [4]*_Form
}

var (
	_F_none = &_Form{}
	_F_d    = &_Form{defs: []int{0}}
	_F_u    = &_Form{uses: []int{0}}
	_F_uu   = &_Form{uses: []int{0, 1}}
	_F_du   = &_Form{defs: []int{0}, uses: []int{1}}
	_F_ud   = &_Form{defs: []int{1}, uses: []int{0}}
	_F_duu  = &_Form{defs: []int{0}, uses: []int{1, 2}}
	_F_acc  = &_Form{defs: []int{0}, uses: []int{0, 1}}
	_F_hilo = &_Form{uses: []int{0, 1}, idefs: []Reg{R_hi, R_lo}}
	_F_div0 = &_Form{uses: []int{1, 2}, idefs: []Reg{R_hi, R_lo}}
	_F_cmp  = &_Form{uses: []int{0, 1}, idefs: []Reg{R_fcc}}
	_F_fcc  = &_Form{iuses: []Reg{R_fcc}}
	_F_mflo = &_Form{defs: []int{0}, iuses: []Reg{R_lo}}
	_F_mfhi = &_Form{defs: []int{0}, iuses: []Reg{R_hi}}
	_F_mtlo = &_Form{uses: []int{0}, idefs: []Reg{R_lo}}
	_F_mthi = &_Form{uses: []int{0}, idefs: []Reg{R_hi}}
	_F_jalr = &_Form{uses: []int{0}, idefs: []Reg{R_ra}}
	_F_jalx = &_Form{defs: []int{0}, uses: []int{1}}
	_F_sys  = &_Form{idefs: []Reg{R_v0, R_v1}, iuses: []Reg{R_v0, R_a0, R_a1, R_a2, R_a3}}
)

func forms(f0, f1, f2, f3 *_Form) [4]*_Form {
	return [4]*_Form{f0, f1, f2, f3}
}

var (
	_FS_none  = forms(_F_none, nil, nil, nil)
	_FS_arith = forms(nil, nil, _F_acc, _F_duu)
	_FS_unary = forms(nil, nil, _F_du, nil)
	_FS_def   = forms(nil, nil, _F_d, nil)
	_FS_load  = forms(nil, nil, _F_d, nil)
	_FS_store = forms(nil, nil, _F_u, nil)
	_FS_br2   = forms(nil, nil, nil, _F_uu)
	_FS_br1   = forms(nil, nil, _F_u, nil)
	_FS_div   = forms(nil, nil, _F_hilo, _F_duu)
)

var _OpTab = [_OP_count]_OpInfo{
	OP_unknown: {name: "<unknown>"},
	OP_nop:     {name: "nop", forms: _FS_none},
	OP_syscall: {name: "syscall", flags: F_barrier, forms: forms(_F_sys, nil, nil, nil)},
	OP_break:   {name: "break", flags: F_barrier, forms: forms(_F_none, _F_none, nil, nil)},

	OP_add:   {name: "add", flags: F_arith | F_trap | F_commut, forms: _FS_arith},
	OP_addu:  {name: "addu", flags: F_arith | F_commut, forms: _FS_arith},
	OP_addi:  {name: "addi", flags: F_arith | F_trap, forms: _FS_arith},
	OP_addiu: {name: "addiu", flags: F_arith, forms: _FS_arith},
	OP_sub:   {name: "sub", flags: F_arith | F_trap, forms: _FS_arith},
	OP_subu:  {name: "subu", flags: F_arith, forms: _FS_arith},
	OP_and:   {name: "and", flags: F_arith | F_commut, forms: _FS_arith},
	OP_andi:  {name: "andi", flags: F_arith, forms: _FS_arith},
	OP_or:    {name: "or", flags: F_arith | F_commut, forms: _FS_arith},
	OP_ori:   {name: "ori", flags: F_arith, forms: _FS_arith},
	OP_xor:   {name: "xor", flags: F_arith | F_commut, forms: _FS_arith},
	OP_xori:  {name: "xori", flags: F_arith, forms: _FS_arith},
	OP_nor:   {name: "nor", flags: F_arith | F_commut, forms: _FS_arith},
	OP_slt:   {name: "slt", flags: F_arith, forms: _FS_arith},
	OP_sltu:  {name: "sltu", flags: F_arith, forms: _FS_arith},
	OP_slti:  {name: "slti", flags: F_arith, forms: _FS_arith},
	OP_sltiu: {name: "sltiu", flags: F_arith, forms: _FS_arith},
	OP_sll:   {name: "sll", flags: F_arith | F_shift, forms: _FS_arith},
	OP_srl:   {name: "srl", flags: F_arith | F_shift, forms: _FS_arith},
	OP_sra:   {name: "sra", flags: F_arith | F_shift, forms: _FS_arith},
	OP_sllv:  {name: "sllv", flags: F_arith | F_shift, forms: _FS_arith},
	OP_srlv:  {name: "srlv", flags: F_arith | F_shift, forms: _FS_arith},
	OP_srav:  {name: "srav", flags: F_arith | F_shift, forms: _FS_arith},
	OP_mul:   {name: "mul", flags: F_arith | F_commut, forms: _FS_arith},
	OP_mult:  {name: "mult", flags: F_arith | F_commut, forms: forms(nil, nil, _F_hilo, nil)},
	OP_multu: {name: "multu", flags: F_arith | F_commut, forms: forms(nil, nil, _F_hilo, nil)},
	OP_div:   {name: "div", flags: F_arith, forms: _FS_div},
	OP_divu:  {name: "divu", flags: F_arith, forms: _FS_div},
	OP_rem:   {name: "rem", flags: F_arith, forms: forms(nil, nil, nil, _F_duu)},
	OP_remu:  {name: "remu", flags: F_arith, forms: forms(nil, nil, nil, _F_duu)},
	OP_neg:   {name: "neg", flags: F_arith | F_trap, forms: _FS_unary},
	OP_negu:  {name: "negu", flags: F_arith, forms: _FS_unary},
	OP_not:   {name: "not", flags: F_arith, forms: _FS_unary},
	OP_abs:   {name: "abs", flags: F_arith | F_trap, forms: _FS_unary},
	OP_mflo:  {name: "mflo", forms: forms(nil, _F_mflo, nil, nil)},
	OP_mfhi:  {name: "mfhi", forms: forms(nil, _F_mfhi, nil, nil)},
	OP_mtlo:  {name: "mtlo", forms: forms(nil, _F_mtlo, nil, nil)},
	OP_mthi:  {name: "mthi", forms: forms(nil, _F_mthi, nil, nil)},

	OP_move: {name: "move", flags: F_move, forms: _FS_unary},
	OP_li:   {name: "li", flags: F_load, forms: _FS_def},
	OP_lui:  {name: "lui", flags: F_load, forms: _FS_def},
	OP_la:   {name: "la", flags: F_load, forms: _FS_def},
	OP_lw:   {name: "lw", flags: F_load, forms: _FS_load},
	OP_lb:   {name: "lb", flags: F_load, forms: _FS_load},
	OP_lbu:  {name: "lbu", flags: F_load, forms: _FS_load},
	OP_lh:   {name: "lh", flags: F_load, forms: _FS_load},
	OP_lhu:  {name: "lhu", flags: F_load, forms: _FS_load},
	OP_ld:   {name: "ld", flags: F_load, forms: _FS_load},
	OP_l_s:  {name: "l.s", flags: F_load, forms: _FS_load},
	OP_l_d:  {name: "l.d", flags: F_load, forms: _FS_load},
	OP_lwc1: {name: "lwc1", flags: F_load, forms: _FS_load},
	OP_sw:   {name: "sw", flags: F_store, forms: _FS_store},
	OP_sb:   {name: "sb", flags: F_store, forms: _FS_store},
	OP_sh:   {name: "sh", flags: F_store, forms: _FS_store},
	OP_sd:   {name: "sd", flags: F_store, forms: _FS_store},
	OP_s_s:  {name: "s.s", flags: F_store, forms: _FS_store},
	OP_s_d:  {name: "s.d", flags: F_store, forms: _FS_store},
	OP_swc1: {name: "swc1", flags: F_store, forms: _FS_store},
	OP_mfc1: {name: "mfc1", forms: _FS_unary},
	OP_mtc1: {name: "mtc1", forms: forms(nil, nil, _F_ud, nil)},

	OP_add_s:     {name: "add.s", flags: F_arith | F_commut, forms: _FS_arith},
	OP_add_d:     {name: "add.d", flags: F_arith | F_commut, forms: _FS_arith},
	OP_sub_s:     {name: "sub.s", flags: F_arith, forms: _FS_arith},
	OP_sub_d:     {name: "sub.d", flags: F_arith, forms: _FS_arith},
	OP_mul_s:     {name: "mul.s", flags: F_arith | F_commut, forms: _FS_arith},
	OP_mul_d:     {name: "mul.d", flags: F_arith | F_commut, forms: _FS_arith},
	OP_div_s:     {name: "div.s", flags: F_arith, forms: _FS_arith},
	OP_div_d:     {name: "div.d", flags: F_arith, forms: _FS_arith},
	OP_abs_s:     {name: "abs.s", flags: F_arith, forms: _FS_unary},
	OP_abs_d:     {name: "abs.d", flags: F_arith, forms: _FS_unary},
	OP_neg_s:     {name: "neg.s", flags: F_arith, forms: _FS_unary},
	OP_neg_d:     {name: "neg.d", flags: F_arith, forms: _FS_unary},
	OP_sqrt_s:    {name: "sqrt.s", flags: F_arith, forms: _FS_unary},
	OP_sqrt_d:    {name: "sqrt.d", flags: F_arith, forms: _FS_unary},
	OP_mov_s:     {name: "mov.s", forms: _FS_unary},
	OP_mov_d:     {name: "mov.d", forms: _FS_unary},
	OP_cvt_s_d:   {name: "cvt.s.d", forms: _FS_unary},
	OP_cvt_d_s:   {name: "cvt.d.s", forms: _FS_unary},
	OP_cvt_s_w:   {name: "cvt.s.w", forms: _FS_unary},
	OP_cvt_d_w:   {name: "cvt.d.w", forms: _FS_unary},
	OP_cvt_w_s:   {name: "cvt.w.s", forms: _FS_unary},
	OP_cvt_w_d:   {name: "cvt.w.d", forms: _FS_unary},
	OP_trunc_w_s: {name: "trunc.w.s", forms: forms(nil, nil, _F_du, _F_duu)},
	OP_trunc_w_d: {name: "trunc.w.d", forms: forms(nil, nil, _F_du, _F_duu)},
	OP_c_eq_s:    {name: "c.eq.s", forms: forms(nil, nil, _F_cmp, nil)},
	OP_c_eq_d:    {name: "c.eq.d", forms: forms(nil, nil, _F_cmp, nil)},
	OP_c_lt_s:    {name: "c.lt.s", forms: forms(nil, nil, _F_cmp, nil)},
	OP_c_lt_d:    {name: "c.lt.d", forms: forms(nil, nil, _F_cmp, nil)},
	OP_c_le_s:    {name: "c.le.s", forms: forms(nil, nil, _F_cmp, nil)},
	OP_c_le_d:    {name: "c.le.d", forms: forms(nil, nil, _F_cmp, nil)},

	OP_j:    {name: "j", flags: F_jump, forms: forms(nil, _F_u, nil, nil)},
	OP_b:    {name: "b", flags: F_jump, forms: forms(nil, _F_u, nil, nil)},
	OP_jal:  {name: "jal", flags: F_jump | F_call, forms: forms(nil, _F_jalr, nil, nil)},
	OP_bal:  {name: "bal", flags: F_jump | F_call, forms: forms(nil, _F_jalr, nil, nil)},
	OP_jr:   {name: "jr", flags: F_jump, forms: forms(nil, _F_u, nil, nil)},
	OP_jalr: {name: "jalr", flags: F_jump | F_call, forms: forms(nil, _F_jalr, _F_jalx, nil)},
	OP_beq:  {name: "beq", flags: F_jump | F_cond, forms: _FS_br2},
	OP_bne:  {name: "bne", flags: F_jump | F_cond, forms: _FS_br2},
	OP_beql: {name: "beql", flags: F_jump | F_cond, forms: _FS_br2},
	OP_bnel: {name: "bnel", flags: F_jump | F_cond, forms: _FS_br2},
	OP_beqz: {name: "beqz", flags: F_jump | F_cond, forms: _FS_br1},
	OP_bnez: {name: "bnez", flags: F_jump | F_cond, forms: _FS_br1},
	OP_blez: {name: "blez", flags: F_jump | F_cond, forms: _FS_br1},
	OP_bgtz: {name: "bgtz", flags: F_jump | F_cond, forms: _FS_br1},
	OP_bltz: {name: "bltz", flags: F_jump | F_cond, forms: _FS_br1},
	OP_bgez: {name: "bgez", flags: F_jump | F_cond, forms: _FS_br1},
	OP_bc1t: {name: "bc1t", flags: F_jump | F_cond, forms: forms(nil, _F_fcc, nil, nil)},
	OP_bc1f: {name: "bc1f", flags: F_jump | F_cond, forms: forms(nil, _F_fcc, nil, nil)},
}

var _OpNames = func() map[string]OpCode {
	ret := make(map[string]OpCode, _OP_count)
	for i := OpCode(1); i < _OP_count; i++ {
		if _OpTab[i].name == "" {
			panic(fmt.Sprintf("ir: missing descriptor for opcode %d", i))
		}
		ret[_OpTab[i].name] = i
	}
	return ret
}()

// _OpInverse pairs every conditional branch with the branch taken on the opposite condition.
var _OpInverse = map[OpCode]OpCode{
	OP_beq:  OP_bne,
	OP_bne:  OP_beq,
	OP_beqz: OP_bnez,
	OP_bnez: OP_beqz,
	OP_blez: OP_bgtz,
	OP_bgtz: OP_blez,
	OP_bltz: OP_bgez,
	OP_bgez: OP_bltz,
	OP_bc1t: OP_bc1f,
	OP_bc1f: OP_bc1t,
}

// LookupOp finds the opcode of a mnemonic, OP_unknown if it is not recognised.
func LookupOp(name string) OpCode {
	return _OpNames[name]
}

// Inverse returns the branch with the opposite condition, if there is one.
func (self OpCode) Inverse() (OpCode, bool) {
	op, ok := _OpInverse[self]
	return op, ok
}

func (self OpCode) Flags() OpFlags {
	return _OpTab[self].flags
}

func (self OpCode) Is(f OpFlags) bool {
	return _OpTab[self].flags&f != 0
}

func (self OpCode) String() string {
	return _OpTab[self].name
}
