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

package asmopt

import (
	"fmt"

	"github.com/cloudwego/asmopt/internal/ir"
	"github.com/cloudwego/asmopt/internal/opts"
)

// Option is the property setter function for opts.Options.
type Option func(*opts.Options)

// WithVerbose sets the annotation level of the optimized program.
//
// Level "0" leaves the program without annotations, level "1" attaches a note
// to every rewritten instruction, and level "2" additionally attaches the
// dataflow facts to the first instruction of every basic block.
//
// The annotation level never changes the optimized commands.
//
// The default value of this option is "0".
func WithVerbose(level int) Option {
	if level < 0 {
		panic(fmt.Sprintf("asmopt: invalid verbose level: %d", level))
	} else {
		return func(o *opts.Options) { o.Verbose = level }
	}
}

// WithReservedRegisters adds registers that the optimizer must never touch,
// on top of $0, $gp, $sp, $fp and $ra.
//
// Reserved registers are live everywhere, are never allocated as scratch
// registers, and their definitions are never removed or rewritten.
func WithReservedRegisters(regs ...string) Option {
	rs := make([]ir.Reg, 0, len(regs))
	for _, v := range regs {
		if r, ok := ir.ParseReg(v); !ok {
			panic(fmt.Sprintf("asmopt: invalid register: %s", v))
		} else {
			rs = append(rs, r)
		}
	}
	return func(o *opts.Options) {
		for _, r := range rs {
			if !o.Reserves(r) {
				o.Reserved = append(o.Reserved, r)
			}
		}
	}
}

// WithMaxCycles sets the number of optimization cycles after which the
// optimizer gives up with a NonConvergenceError.
//
// This value can also be configured with the `ASMOPT_MAX_CYCLES` environment
// variable.
//
// By default the limit grows with the size of the program, which is enough
// for every program to converge.
func WithMaxCycles(n int) Option {
	if n < 1 {
		panic(fmt.Sprintf("asmopt: invalid max cycles: %d", n))
	} else {
		return func(o *opts.Options) { o.MaxCycles = n }
	}
}
