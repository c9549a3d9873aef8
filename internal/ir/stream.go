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
	"slices"
)

// Stream is an instruction sequence with a read cursor.
//
// Rewrite rules walk the stream with Read and Peek, and substitute windows
// of instructions with Replace. A replacement always starts at the
// instruction that was read last, unless an explicit start is given, and
// the cursor continues right after the replacement.
type Stream struct {
	Ins     []*Instr
	Ids     *Allocator
	Verbose int
	pos     int
	read    bool
}

func NewStream(ins []*Instr, ids *Allocator, verbose int) *Stream {
	return &Stream{Ins: ins, Ids: ids, Verbose: verbose}
}

// Len returns the number of instructions in the stream.
func (self *Stream) Len() int {
	return len(self.Ins)
}

// Pos returns the index of the next instruction to read.
func (self *Stream) Pos() int {
	return self.pos
}

// End reports whether every instruction has been read.
func (self *Stream) End() bool {
	return self.pos >= len(self.Ins)
}

// Reset rewinds the cursor to the first instruction.
func (self *Stream) Reset() {
	self.pos = 0
	self.read = false
}

// Read returns the instruction under the cursor and advances.
func (self *Stream) Read() *Instr {
	if self.End() {
		panic("ir: read past the end of the stream")
	}

	/* move to the next instruction */
	self.pos++
	self.read = true
	return self.Ins[self.pos-1]
}

// Peek returns up to n instructions following the cursor without advancing.
func (self *Stream) Peek(n int) []*Instr {
	if n < 0 {
		panic(fmt.Sprintf("ir: invalid peek count: %d", n))
	} else if end := self.pos + n; end > len(self.Ins) {
		return self.Ins[self.pos:]
	} else {
		return self.Ins[self.pos:end]
	}
}

// Replace substitutes count instructions, starting from the one read last,
// with repl. The note is attached when the stream is verbose.
func (self *Stream) Replace(count int, repl []*Instr, note string) {
	if !self.read {
		panic("ir: replace without reading an instruction first")
	} else {
		self.ReplaceAt(self.pos-1, count, repl, note)
	}
}

// ReplaceAt substitutes the window [start, start + count) with repl.
func (self *Stream) ReplaceAt(start int, count int, repl []*Instr, note string) {
	if start < 0 || count < 0 || start+count > len(self.Ins) {
		panic(fmt.Sprintf("ir: replace window [%d, %d) out of range [0, %d)", start, start+count, len(self.Ins)))
	}

	/* the removed instructions hand their notes over */
	var notes []string
	if self.Verbose > 0 {
		notes = dropped(self.Ins[start:start+count], repl)
	}

	/* splice the replacement in */
	buf := make([]*Instr, 0, len(self.Ins)-count+len(repl))
	buf = append(buf, self.Ins[:start]...)
	buf = append(buf, repl...)
	buf = append(buf, self.Ins[start+count:]...)

	/* reposition the cursor right after the replacement */
	self.Ins = buf
	self.pos = start + len(repl)
	self.read = false

	/* attach the notes if needed */
	if note != "" {
		notes = append(notes, note)
	}
	if self.Verbose > 0 && len(notes) != 0 {
		if len(repl) != 0 {
			annotate(repl[0], notes)
		} else if start < len(self.Ins) {
			annotate(self.Ins[start], notes)
		} else if start > 0 {
			annotate(self.Ins[start-1], notes)
		}
	}
}

// dropped collects the notes of the instructions in old that are not part of repl.
func dropped(old []*Instr, repl []*Instr) []string {
	var ret []string
	for _, p := range old {
		if !slices.Contains(repl, p) {
			ret = append(ret, p.Notes...)
		}
	}
	return ret
}

func annotate(p *Instr, notes []string) {
	for _, v := range notes {
		p.Note(v)
	}
}

// Insert places p before the instruction at index at.
func (self *Stream) Insert(at int, p *Instr, note string) {
	self.ReplaceAt(at, 0, []*Instr{p}, note)
}

// Remove deletes the instruction read last.
func (self *Stream) Remove(note string) {
	self.Replace(1, nil, note)
}

// Filter keeps only the instructions accepted by keep, the cursor is reset.
func (self *Stream) Filter(keep func(p *Instr) bool) int {
	n := 0
	buf := self.Ins[:0]
	var notes []string

	/* compact the instruction buffer in place, notes go to the next survivor */
	for _, p := range self.Ins {
		if !keep(p) {
			n++
			notes = append(notes, p.Notes...)
		} else if buf = append(buf, p); self.Verbose > 0 {
			annotate(p, notes)
			notes = notes[:0]
		}
	}

	/* nothing follows, the last survivor takes them */
	if self.Verbose > 0 && len(notes) != 0 && len(buf) != 0 {
		annotate(buf[len(buf)-1], notes)
	}

	/* clear the tail to release the removed instructions */
	for i := len(buf); i < len(self.Ins); i++ {
		self.Ins[i] = nil
	}

	/* reset the cursor */
	self.Ins = buf
	self.Reset()
	return n
}

// Noted attaches msg to p when the stream is verbose.
func (self *Stream) Noted(p *Instr, msg string) {
	if self.Verbose > 0 {
		p.Note(msg)
	}
}
