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

package opts

import (
	"github.com/cloudwego/asmopt/internal/ir"
)

type Options struct {
	Verbose   int
	MaxCycles int
	Reserved  []ir.Reg
}

// Summarize reports whether dataflow summaries are attached to the block leaders.
func (self *Options) Summarize() bool {
	return self.Verbose > 1
}

// CycleLimit returns the number of optimization cycles allowed for a program
// of the given size, counted in commands and labels.
func (self *Options) CycleLimit(size int) int {
	if self.MaxCycles > 0 {
		return self.MaxCycles
	} else {
		return _MinCycleLimit + size
	}
}

// Reserves reports whether r is never considered for optimization.
func (self *Options) Reserves(r ir.Reg) bool {
	for _, v := range self.Reserved {
		if v == r {
			return true
		}
	}
	return false
}

func GetDefaultOptions() Options {
	return Options{
		Verbose:   Verbose,
		MaxCycles: MaxCycles,
		Reserved:  append([]ir.Reg(nil), ir.DefaultReserved...),
	}
}
