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
	"strings"
)

type Kind uint8

const (
	K_label Kind = iota
	K_directive
	K_comment
	K_command
)

func (self Kind) String() string {
	switch self {
	case K_label:
		return "label"
	case K_directive:
		return "directive"
	case K_comment:
		return "comment"
	case K_command:
		return "command"
	default:
		return fmt.Sprintf("kind(%d)", self)
	}
}

// Instr is a single line of the program.
//
// For labels, Name is the label name; for directives and comments it is the
// raw text; for commands it is the mnemonic as written in the source.
type Instr struct {
	Id      uint64
	Kind    Kind
	Op      OpCode
	Name    string
	Args    []Operand
	Inline  bool // indented comment
	Comment string
	Notes   []string
}

func (self *Instr) IsLabel() bool     { return self.Kind == K_label }
func (self *Instr) IsDirective() bool { return self.Kind == K_directive }
func (self *Instr) IsComment() bool   { return self.Kind == K_comment }
func (self *Instr) IsCommand() bool   { return self.Kind == K_command }

// Is checks the capability flags of a command.
func (self *Instr) Is(f OpFlags) bool {
	return self.Kind == K_command && self.Op.Is(f)
}

// IsJump reports whether the command transfers control (jumps, branches, calls and returns).
func (self *Instr) IsJump() bool {
	return self.Is(F_jump)
}

// IsBranch reports whether the command is a conditional branch.
func (self *Instr) IsBranch() bool {
	return self.Is(F_cond)
}

// IsCall reports whether the command is a call expected to return.
func (self *Instr) IsCall() bool {
	return self.Is(F_call)
}

func (self *Instr) IsArith() bool { return self.Is(F_arith) }
func (self *Instr) IsStore() bool { return self.Is(F_store) }
func (self *Instr) IsShift() bool { return self.Is(F_shift) }

// IsLoad reports whether the command loads a register from memory or a literal.
func (self *Instr) IsLoad() bool {
	return self.Is(F_load)
}

// IsMove reports whether the command is a plain register copy `move rd, rs`.
func (self *Instr) IsMove() bool {
	return self.Is(F_move) && len(self.Args) == 2 && self.Args[0].Kind == O_reg && self.Args[1].Kind == O_reg
}

// IsMemLoad reports whether the command reads memory through an `offset(base)` operand.
func (self *Instr) IsMemLoad() bool {
	return self.IsLoad() && len(self.Args) == 2 && self.Args[1].Kind == O_mem && self.Op != OP_la
}

// IsReturn reports whether the command returns to the caller (`jr $31` or `j $31`).
func (self *Instr) IsReturn() bool {
	switch {
	case self.Kind != K_command:
		return false
	case self.Op != OP_jr && self.Op != OP_j:
		return false
	default:
		return len(self.Args) == 1 && self.Args[0].IsReg(R_ra)
	}
}

// IsIndirect reports whether the control transfer goes through a register other than the link register.
func (self *Instr) IsIndirect() bool {
	if !self.IsJump() || self.IsReturn() || len(self.Args) == 0 {
		return false
	} else {
		return self.Args[len(self.Args)-1].Kind == O_reg && !self.IsBranch()
	}
}

// IsOpaque reports whether the command has no known register semantics.
func (self *Instr) IsOpaque() bool {
	return self.Kind == K_command && self.form() == nil
}

// IsPure reports whether the command has no effect other than writing its definitions.
func (self *Instr) IsPure() bool {
	switch {
	case self.Kind != K_command:
		return false
	case self.IsOpaque():
		return false
	default:
		return !self.Is(F_jump | F_store | F_trap | F_barrier)
	}
}

// Target returns the label a jump transfers to, if it is a direct jump.
func (self *Instr) Target() (string, bool) {
	if !self.IsJump() || len(self.Args) == 0 {
		return "", false
	} else if op := self.Args[len(self.Args)-1]; op.Kind != O_sym {
		return "", false
	} else {
		return op.Sym, true
	}
}

func (self *Instr) form() *_Form {
	if n := len(self.Args); n >= len(_OpTab[self.Op].forms) {
		return nil
	} else if self.IsHiLoDiv() && n == 3 {
		return _F_div0
	} else {
		return _OpTab[self.Op].forms[n]
	}
}

// IsHiLoDiv reports whether the command is a division writing $hi and $lo.
// Assemblers treat `div $0, rs, rt` the same as `div rs, rt`.
func (self *Instr) IsHiLoDiv() bool {
	if self.Kind != K_command || (self.Op != OP_div && self.Op != OP_divu) {
		return false
	} else if len(self.Args) == 2 {
		return true
	} else {
		return len(self.Args) == 3 && self.Args[0].IsReg(R_zero)
	}
}

// Defs returns the registers the command definitely writes, explicit first.
func (self *Instr) Defs() []Reg {
	var rs []Reg
	var fm *_Form

	/* only known commands define anything for sure */
	if self.Kind != K_command {
		return nil
	} else if fm = self.form(); fm == nil {
		return nil
	}

	/* explicit definitions */
	for _, i := range fm.defs {
		if self.Args[i].Kind == O_reg {
			rs = appendReg(rs, self.Args[i].Reg)
		}
	}

	/* implicit definitions */
	for _, r := range fm.idefs {
		rs = appendReg(rs, r)
	}
	return rs
}

// Clobbers returns every register the command may write.
func (self *Instr) Clobbers() []Reg {
	var rs []Reg
	var fm *_Form

	/* non-commands never write */
	if self.Kind != K_command {
		return nil
	}

	/* unknown commands may write any of their registers */
	if fm = self.form(); fm == nil {
		for _, a := range self.Args {
			if a.Kind == O_reg {
				rs = appendReg(rs, a.Reg)
			}
		}
		return rs
	}

	/* calls and system calls clobber all the caller saved registers */
	if rs = self.Defs(); self.Is(F_call | F_barrier) {
		for _, r := range CallerSaved {
			rs = appendReg(rs, r)
		}
	}
	return rs
}

// Uses returns every register the command reads, explicit first.
func (self *Instr) Uses() []Reg {
	var rs []Reg
	for _, s := range self.UseSlots() {
		rs = appendReg(rs, s.Reg)
	}

	/* implicit usages */
	if fm := self.form(); fm != nil {
		for _, r := range fm.iuses {
			rs = appendReg(rs, r)
		}
	}

	/* returning keeps the results and the callee saved registers */
	if self.IsReturn() {
		for _, r := range ResultRegs {
			rs = appendReg(rs, r)
		}
		for _, r := range CalleeSaved {
			rs = appendReg(rs, r)
		}
	}
	return rs
}

// UseSlot is an operand position that reads a register.
type UseSlot struct {
	Index int
	Reg   Reg
}

// UseSlots returns the operand positions that read a register, in operand order.
func (self *Instr) UseSlots() []UseSlot {
	var fm *_Form
	var rs []UseSlot

	/* non-commands never read */
	if self.Kind != K_command {
		return nil
	}

	/* unknown commands may read any of their registers */
	if fm = self.form(); fm == nil {
		for i, a := range self.Args {
			if r, ok := a.Base(); ok {
				rs = append(rs, UseSlot{i, r})
			}
		}
		return rs
	}

	/* explicit register usages and memory bases */
	for i, a := range self.Args {
		if a.Kind == O_mem {
			rs = append(rs, UseSlot{i, a.Reg})
		} else if a.Kind == O_reg && hasIndex(fm.uses, i) {
			rs = append(rs, UseSlot{i, a.Reg})
		}
	}
	return rs
}

// Reads reports whether the command reads r.
func (self *Instr) Reads(r Reg) bool {
	return containsReg(self.Uses(), r)
}

// Writes reports whether the command definitely writes r.
func (self *Instr) Writes(r Reg) bool {
	return containsReg(self.Defs(), r)
}

// Clobber reports whether the command may write r.
func (self *Instr) Clobber(r Reg) bool {
	return containsReg(self.Clobbers(), r)
}

// ReplaceUse rewrites every operand reading `from` into reading `to`, returns
// the number of rewritten operands.
func (self *Instr) ReplaceUse(from Reg, to Reg) int {
	n := 0
	for _, s := range self.UseSlots() {
		if s.Reg == from {
			self.Args[s.Index].Reg = to
			n++
		}
	}
	return n
}

// SetOp changes the opcode and the mnemonic of a command.
func (self *Instr) SetOp(op OpCode) {
	self.Op = op
	self.Name = op.String()
}

// Note attaches a diagnostic annotation, duplicates are ignored.
func (self *Instr) Note(msg string) {
	for _, v := range self.Notes {
		if v == msg {
			return
		}
	}
	self.Notes = append(self.Notes, msg)
}

// Equal compares two instructions by their textual content, ignoring ids and annotations.
func (self *Instr) Equal(other *Instr) bool {
	if self.Kind != other.Kind || self.Name != other.Name || self.Inline != other.Inline {
		return false
	} else if len(self.Args) != len(other.Args) {
		return false
	}
	for i, a := range self.Args {
		if a != other.Args[i] {
			return false
		}
	}
	return true
}

// ArgString returns the comma separated operand list.
func (self *Instr) ArgString() string {
	rs := make([]string, len(self.Args))
	for i, a := range self.Args {
		rs[i] = a.String()
	}
	return strings.Join(rs, ",")
}

func (self *Instr) String() string {
	switch self.Kind {
	case K_label:
		return self.Name + ":"
	case K_directive:
		return self.Name
	case K_comment:
		return "#" + self.Name
	case K_command:
		if len(self.Args) == 0 {
			return self.Name
		} else {
			return self.Name + " " + self.ArgString()
		}
	default:
		panic(fmt.Sprintf("ir: invalid instruction kind: %d", self.Kind))
	}
}

func hasIndex(v []int, i int) bool {
	for _, x := range v {
		if x == i {
			return true
		}
	}
	return false
}

func containsReg(rs []Reg, r Reg) bool {
	for _, x := range rs {
		if x == r {
			return true
		}
	}
	return false
}

func appendReg(rs []Reg, r Reg) []Reg {
	if containsReg(rs, r) {
		return rs
	} else {
		return append(rs, r)
	}
}
