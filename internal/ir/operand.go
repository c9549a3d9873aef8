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
	"strconv"
	"strings"
)

type OperandKind uint8

const (
	O_reg OperandKind = iota
	O_imm
	O_mem
	O_sym
)

// Operand is a single command argument.
//
// Memory operands are written as `offset(base)`, the offset is kept in Imm
// when it is numeric, otherwise its text is kept in Sym.
type Operand struct {
	Kind OperandKind
	Reg  Reg
	Imm  int64
	Sym  string
}

func Register(r Reg) Operand {
	return Operand{Kind: O_reg, Reg: r}
}

func Immediate(v int64) Operand {
	return Operand{Kind: O_imm, Imm: v}
}

func Symbol(s string) Operand {
	return Operand{Kind: O_sym, Sym: s}
}

func Memory(off int64, base Reg) Operand {
	return Operand{Kind: O_mem, Imm: off, Reg: base}
}

func SymbolicMemory(off string, base Reg) Operand {
	return Operand{Kind: O_mem, Sym: off, Reg: base}
}

// ParseOperand converts the textual form of an operand.
func ParseOperand(s string) (Operand, error) {
	if s == "" {
		return Operand{}, fmt.Errorf("empty operand")
	}

	/* memory reference, `off($base)` */
	if i := strings.LastIndexByte(s, '('); i >= 0 && strings.HasSuffix(s, ")") {
		if r, ok := ParseReg(s[i+1 : len(s)-1]); ok {
			if off := s[:i]; off == "" {
				return Memory(0, r), nil
			} else if v, err := strconv.ParseInt(off, 0, 64); err == nil {
				return Memory(v, r), nil
			} else {
				return SymbolicMemory(off, r), nil
			}
		}
	}

	/* registers and immediate values */
	if r, ok := ParseReg(s); ok {
		return Register(r), nil
	} else if v, err := strconv.ParseInt(s, 0, 64); err == nil {
		return Immediate(v), nil
	} else if v, err := strconv.ParseUint(s, 0, 64); err == nil {
		return Immediate(int64(v)), nil
	} else if s[0] == '$' && len(s) > 1 && s[1] >= '0' && s[1] <= '9' {
		return Operand{}, fmt.Errorf("invalid register %q", s)
	} else {
		return Symbol(s), nil
	}
}

// IsReg reports whether the operand is exactly the register r.
func (self Operand) IsReg(r Reg) bool {
	return self.Kind == O_reg && self.Reg == r
}

// Base returns the register an operand reads when evaluated, if any.
func (self Operand) Base() (Reg, bool) {
	switch self.Kind {
	case O_reg, O_mem:
		return self.Reg, true
	default:
		return "", false
	}
}

func (self Operand) String() string {
	switch self.Kind {
	case O_reg:
		return self.Reg.String()
	case O_imm:
		return strconv.FormatInt(self.Imm, 10)
	case O_sym:
		return self.Sym
	case O_mem:
		if self.Sym != "" {
			return self.Sym + "(" + self.Reg.String() + ")"
		} else {
			return strconv.FormatInt(self.Imm, 10) + "(" + self.Reg.String() + ")"
		}
	default:
		panic(fmt.Sprintf("ir: invalid operand kind: %d", self.Kind))
	}
}
