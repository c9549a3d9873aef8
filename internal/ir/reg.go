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
	"sort"
	"strconv"
)

// Reg is a register in its canonical spelling, including the leading '$'.
type Reg string

const (
	R_zero Reg = "$0"
	R_at   Reg = "$1"
	R_v0   Reg = "$2"
	R_v1   Reg = "$3"
	R_a0   Reg = "$4"
	R_a1   Reg = "$5"
	R_a2   Reg = "$6"
	R_a3   Reg = "$7"
	R_gp   Reg = "$gp"
	R_sp   Reg = "$sp"
	R_fp   Reg = "$fp"
	R_ra   Reg = "$31"
	R_hi   Reg = "$hi"
	R_lo   Reg = "$lo"
	R_fcc  Reg = "$fcc"
	R_f0   Reg = "$f0"
	R_f2   Reg = "$f2"
)

var _RegAliases = map[string]Reg{
	"$zero": "$0",
	"$at":   "$1",
	"$v0":   "$2",
	"$v1":   "$3",
	"$a0":   "$4",
	"$a1":   "$5",
	"$a2":   "$6",
	"$a3":   "$7",
	"$t0":   "$8",
	"$t1":   "$9",
	"$t2":   "$10",
	"$t3":   "$11",
	"$t4":   "$12",
	"$t5":   "$13",
	"$t6":   "$14",
	"$t7":   "$15",
	"$s0":   "$16",
	"$s1":   "$17",
	"$s2":   "$18",
	"$s3":   "$19",
	"$s4":   "$20",
	"$s5":   "$21",
	"$s6":   "$22",
	"$s7":   "$23",
	"$t8":   "$24",
	"$t9":   "$25",
	"$k0":   "$26",
	"$k1":   "$27",
	"$28":   "$gp",
	"$29":   "$sp",
	"$30":   "$fp",
	"$s8":   "$fp",
	"$ra":   "$31",
}

var (
	// ArgumentRegs carry the first four words of a call's arguments.
	ArgumentRegs = []Reg{R_a0, R_a1, R_a2, R_a3}

	// ResultRegs carry values returned from a call.
	ResultRegs = []Reg{R_v0, R_v1, R_f0, R_f2}

	// CalleeSaved must hold their entry values when a function returns.
	CalleeSaved = []Reg{"$16", "$17", "$18", "$19", "$20", "$21", "$22", "$23"}

	// ScratchRegs are the temporaries the optimizer may allocate, in preference order.
	ScratchRegs = []Reg{"$8", "$9", "$10", "$11", "$12", "$13", "$14", "$15", "$24", "$25"}

	// DefaultReserved are the registers that are always considered live.
	DefaultReserved = []Reg{R_zero, R_gp, R_sp, R_fp, R_ra}
)

// CallerSaved lists every register a call may overwrite.
var CallerSaved = func() []Reg {
	rs := []Reg{R_at, R_v0, R_v1, R_a0, R_a1, R_a2, R_a3}
	rs = append(rs, ScratchRegs...)
	rs = append(rs, R_ra, R_hi, R_lo, R_fcc)

	/* even float registers $f0 ~ $f18 are not preserved across calls */
	for i := 0; i < 20; i++ {
		rs = append(rs, Reg("$f"+strconv.Itoa(i)))
	}
	return rs
}()

// ParseReg parses a register name, returning false if s does not look like a register.
func ParseReg(s string) (Reg, bool) {
	if len(s) < 2 || s[0] != '$' {
		return "", false
	}

	/* aliases first */
	if r, ok := _RegAliases[s]; ok {
		return r, true
	}

	/* special registers */
	switch s {
	case "$gp", "$sp", "$fp":
		return Reg(s), true
	}

	/* general purpose registers */
	if n, err := strconv.Atoi(s[1:]); err == nil {
		if n >= 0 && n < 32 && strconv.Itoa(n) == s[1:] {
			return Reg(s), true
		} else {
			return "", false
		}
	}

	/* floating point registers */
	if len(s) > 2 && s[1] == 'f' {
		if n, err := strconv.Atoi(s[2:]); err == nil && n >= 0 && n < 32 {
			return Reg(s), true
		}
	}

	/* `$LC0` and friends are symbols */
	return "", false
}

// MustReg is like ParseReg but panics on failure.
func MustReg(s string) Reg {
	if r, ok := ParseReg(s); !ok {
		panic(fmt.Sprintf("ir: invalid register: %q", s))
	} else {
		return r
	}
}

// IsZero reports whether the register is hard-wired to zero.
func (self Reg) IsZero() bool {
	return self == R_zero
}

// IsPseudo reports whether the register has no textual form in the source.
func (self Reg) IsPseudo() bool {
	return self == R_hi || self == R_lo || self == R_fcc
}

// IsArgument reports whether the register is one of $4 ~ $7.
func (self Reg) IsArgument() bool {
	for _, r := range ArgumentRegs {
		if r == self {
			return true
		}
	}
	return false
}

func (self Reg) String() string {
	return string(self)
}

// SortRegs orders general purpose registers numerically, then everything else by name.
func SortRegs(rs []Reg) {
	sort.Slice(rs, func(i int, j int) bool {
		a, ea := strconv.Atoi(string(rs[i][1:]))
		b, eb := strconv.Atoi(string(rs[j][1:]))

		/* numeric registers go first */
		switch {
		case ea == nil && eb == nil:
			return a < b
		case ea == nil:
			return true
		case eb == nil:
			return false
		default:
			return rs[i] < rs[j]
		}
	})
}
