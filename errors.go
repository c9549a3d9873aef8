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
	"github.com/cloudwego/asmopt/internal/utils"
)

type (
	// MalformedInputError occures when a source line cannot be parsed.
	MalformedInputError = utils.MalformedInputError

	// UnknownJumpTarget occures when a jump refers to a label that is not
	// declared in the unit. It is never returned, the optimizer treats the jump
	// as leaving the unit.
	UnknownJumpTarget = utils.UnknownJumpTarget

	// NoFreeScratchRegister occures when a common sub-expression has nowhere to
	// live. It is never returned, the expression is left untouched.
	NoFreeScratchRegister = utils.NoFreeScratchRegister

	// DivisionByZeroAtFoldTime occures when a constant division has a zero
	// divisor. It is never returned, the division is kept as it is.
	DivisionByZeroAtFoldTime = utils.DivisionByZeroAtFoldTime

	// NonConvergenceError occures when the optimizer gives up after too many
	// cycles.
	NonConvergenceError = utils.NonConvergenceError
)
