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

package utils

import (
	"fmt"
)

// MalformedInputError occures when a source line cannot be parsed.
type MalformedInputError struct {
	Filename string
	Line     int
	Column   int
	Reason   string
}

func (self MalformedInputError) Error() string {
	if self.Filename == "" {
		return fmt.Sprintf("Malformed input at line %d, column %d: %s", self.Line, self.Column, self.Reason)
	} else {
		return fmt.Sprintf("Malformed input at %s:%d:%d: %s", self.Filename, self.Line, self.Column, self.Reason)
	}
}

// UnknownJumpTarget occures when a jump refers to a label that is not
// declared in the unit. It is recoverable: the block is treated as leaving
// the unit.
type UnknownJumpTarget struct {
	Label string
}

func (self UnknownJumpTarget) Error() string {
	return fmt.Sprintf("Unknown jump target: %s", self.Label)
}

// NoFreeScratchRegister occures when a common sub-expression cannot be
// hoisted because every scratch register is busy. It is recoverable: the
// expression is left untouched.
type NoFreeScratchRegister struct {
	Expr string
}

func (self NoFreeScratchRegister) Error() string {
	return fmt.Sprintf("No free scratch register to hold %s", self.Expr)
}

// DivisionByZeroAtFoldTime occures when a constant division has a zero
// divisor. It is recoverable: the division is kept as it is.
type DivisionByZeroAtFoldTime struct {
	Instr string
}

func (self DivisionByZeroAtFoldTime) Error() string {
	return fmt.Sprintf("Division by zero in constant expression: %s", self.Instr)
}

// NonConvergenceError occures when the optimizer does not reach a fixed
// point within the cycle limit.
type NonConvergenceError struct {
	Cycles int
}

func (self NonConvergenceError) Error() string {
	return fmt.Sprintf("Optimization did not converge after %d cycles", self.Cycles)
}

func EMalformed(file string, line int, col int, reason string) MalformedInputError {
	return MalformedInputError{
		Filename: file,
		Line:     line,
		Column:   col,
		Reason:   reason,
	}
}

func EJumpTarget(label string) UnknownJumpTarget {
	return UnknownJumpTarget{Label: label}
}

func ENoScratch(expr string) NoFreeScratchRegister {
	return NoFreeScratchRegister{Expr: expr}
}

func EDivZero(ins string) DivisionByZeroAtFoldTime {
	return DivisionByZeroAtFoldTime{Instr: ins}
}

func ENonConvergence(cycles int) NonConvergenceError {
	return NonConvergenceError{Cycles: cycles}
}
