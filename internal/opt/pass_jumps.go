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
	"github.com/cloudwego/asmopt/internal/ir"
)

// isGoto reports whether p is an unconditional jump to a label.
func isGoto(p *ir.Instr) bool {
	if p.Op != ir.OP_j && p.Op != ir.OP_b {
		return false
	} else {
		_, ok := p.Target()
		return ok
	}
}

// invertBranch turns `beq $a, $b, L1; j L2; L1:` into `bne $a, $b, L2; L1:`.
func invertBranch(s *ir.Stream, p *ir.Instr) bool {
	var ok bool
	var op ir.OpCode
	var lx string
	var ins []*ir.Instr

	/* must be an invertible branch to a label */
	if !p.IsBranch() {
		return false
	} else if op, ok = p.Op.Inverse(); !ok {
		return false
	} else if lx, ok = p.Target(); !ok {
		return false
	} else if ins = s.Peek(2); len(ins) != 2 {
		return false
	}

	/* jumping over an unconditional jump */
	if !isGoto(ins[0]) || !ins[1].IsLabel() || ins[1].Name != lx {
		return false
	}

	/* branch to where the jump goes, on the opposite condition */
	ly, _ := ins[0].Target()
	br := s.Ids.Clone(p)
	br.SetOp(op)
	br.Args[len(br.Args)-1] = ir.Symbol(ly)
	s.Replace(2, []*ir.Instr{br}, "branch inverted: "+p.String())
	return true
}

// jumpToNext removes a jump or a branch to a label that immediately follows it.
func jumpToNext(s *ir.Stream, p *ir.Instr) bool {
	var ok bool
	var lx string

	/* calls have side effects even when they land right after themselves */
	if !p.IsJump() || p.IsCall() {
		return false
	} else if lx, ok = p.Target(); !ok {
		return false
	} else if !isGoto(p) && !p.IsBranch() {
		return false
	}

	/* look through the labels right after the jump */
	for _, v := range s.Ins[s.Pos():] {
		if !v.IsLabel() {
			return false
		} else if v.Name == lx {
			s.Remove("jump to the next instruction removed: " + p.String())
			return true
		}
	}
	return false
}

// Jumps simplifies the control transfers of the whole flat program.
type Jumps struct{}

func (Jumps) Apply(s *ir.Stream) bool {
	ret := false
	s.Reset()

	/* try every rule on every instruction */
	for !s.End() {
		if p := s.Read(); invertBranch(s, p) || jumpToNext(s, p) {
			log.Debugf("jumps: %s", p)
			ret = true
		}
	}
	return ret
}
