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
	"strings"

	"github.com/cloudwego/asmopt/internal/ir"
)

// BasicBlock is a maximal straight-line run of instructions. The block
// exclusively owns its instructions, and walks them with the embedded cursor.
type BasicBlock struct {
	ir.Stream
	Id         int
	Succ       []int
	Pred       []int
	Entry      bool
	Unresolved bool
}

// Label returns the name of the label leading the block, if any.
func (self *BasicBlock) Label() (string, bool) {
	if len(self.Ins) == 0 || !self.Ins[0].IsLabel() {
		return "", false
	} else {
		return self.Ins[0].Name, true
	}
}

// Last returns the last instruction of the block.
func (self *BasicBlock) Last() *ir.Instr {
	if len(self.Ins) == 0 {
		return nil
	} else {
		return self.Ins[len(self.Ins)-1]
	}
}

// Terminator returns the jump ending the block, if any.
func (self *BasicBlock) Terminator() *ir.Instr {
	if p := self.Last(); p != nil && p.IsJump() {
		return p
	} else {
		return nil
	}
}

func (self *BasicBlock) String() string {
	buf := make([]string, 0, len(self.Ins)+1)
	buf = append(buf, fmt.Sprintf("bb_%d:", self.Id))

	/* dump every instruction */
	for _, p := range self.Ins {
		buf = append(buf, "    "+p.String())
	}

	/* join them together */
	return strings.Join(buf, "\n")
}

func (self *BasicBlock) addSucc(id int) bool {
	for _, v := range self.Succ {
		if v == id {
			return false
		}
	}
	self.Succ = append(self.Succ, id)
	return true
}

func (self *BasicBlock) addPred(id int) {
	for _, v := range self.Pred {
		if v == id {
			return
		}
	}
	self.Pred = append(self.Pred, id)
}
