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

// Allocator hands out instruction sequence ids for one compilation unit.
// Ids are never reused, not even for the replacement of a removed instruction.
type Allocator struct {
	next uint64
}

func (self *Allocator) Next() uint64 {
	self.next++
	return self.next
}

// Peek returns the id the next instruction will get.
func (self *Allocator) Peek() uint64 {
	return self.next + 1
}

func (self *Allocator) Label(name string) *Instr {
	return &Instr{Id: self.Next(), Kind: K_label, Name: name}
}

func (self *Allocator) Directive(text string) *Instr {
	return &Instr{Id: self.Next(), Kind: K_directive, Name: text}
}

func (self *Allocator) Comment(text string, inline bool) *Instr {
	return &Instr{Id: self.Next(), Kind: K_comment, Name: text, Inline: inline}
}

// Command creates a command, the opcode is looked up from the mnemonic.
func (self *Allocator) Command(name string, args ...Operand) *Instr {
	return &Instr{
		Id:   self.Next(),
		Kind: K_command,
		Op:   LookupOp(name),
		Name: name,
		Args: args,
	}
}

// Op creates a command from a known opcode.
func (self *Allocator) Op(op OpCode, args ...Operand) *Instr {
	return &Instr{
		Id:   self.Next(),
		Kind: K_command,
		Op:   op,
		Name: op.String(),
		Args: args,
	}
}

// Move creates `move dst, src`.
func (self *Allocator) Move(dst Reg, src Reg) *Instr {
	return self.Op(OP_move, Register(dst), Register(src))
}

// LoadImm creates `li dst, value`.
func (self *Allocator) LoadImm(dst Reg, value int64) *Instr {
	return self.Op(OP_li, Register(dst), Immediate(value))
}

// Clone duplicates a command with a fresh id.
func (self *Allocator) Clone(p *Instr) *Instr {
	ret := *p
	ret.Id = self.Next()
	ret.Notes = nil
	ret.Args = append([]Operand(nil), p.Args...)
	return &ret
}

// Unit is a compilation unit: a program and the allocator its instructions come from.
type Unit struct {
	Ins []*Instr
	Ids *Allocator
}

func NewUnit() *Unit {
	return &Unit{Ids: new(Allocator)}
}

// Commands counts the commands and labels of the unit.
func (self *Unit) Commands() int {
	return CountCode(self.Ins)
}

// CountCode counts the commands and labels of an instruction sequence.
func CountCode(ins []*Instr) int {
	n := 0
	for _, p := range ins {
		if p.Kind == K_command || p.Kind == K_label {
			n++
		}
	}
	return n
}
