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
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const _Source = `	.text
	.globl	main
main:
	li	$8,1
	addu	$9,$8,$8
	move	$2,$9
	jr	$31
	.end	main
`

func TestOptimizeSource(t *testing.T) {
	out, s, err := OptimizeSource("main.s", _Source)
	require.NoError(t, err)
	require.Equal(t, "\t.text\n\t.globl\tmain\nmain:\n\tli\t$2,2\n\tjr\t$31\n\t.end\tmain\n", out)
	require.Equal(t, Summary{Original: 5, AfterGlobal: 5, Final: 3, Cycles: 2, Peak: 5}, s)
}

func TestOptimize_ReservedRegisters(t *testing.T) {
	u, err := Parse("main.s", _Source)
	require.NoError(t, err)
	_, err = Optimize(u, WithReservedRegisters("$t0", "$9"))
	require.NoError(t, err)
	require.Equal(t, _Source, Write(u))
}

func TestOptimize_Verbose(t *testing.T) {
	plain, _, err := OptimizeSource("main.s", _Source)
	require.NoError(t, err)
	noted, _, err := OptimizeSource("main.s", _Source, WithVerbose(1))
	require.NoError(t, err)
	require.NotEqual(t, plain, noted)
	require.Contains(t, noted, "# constant folded")

	/* dropping the annotations gives the same program */
	var lines []string
	for _, v := range strings.Split(noted, "\n") {
		v, _, _ = strings.Cut(v, "\t\t#")
		lines = append(lines, v)
	}
	require.Equal(t, plain, strings.Join(lines, "\n"))
}

func TestOptimize_MaxCycles(t *testing.T) {
	_, _, err := OptimizeSource("main.s", _Source, WithMaxCycles(1))
	var exc NonConvergenceError
	require.True(t, errors.As(err, &exc))
	require.Equal(t, 1, exc.Cycles)
}

func TestParse_Malformed(t *testing.T) {
	_, _, err := OptimizeSource("bad.s", "main:\n\tli\t$2,,3\n")
	var exc MalformedInputError
	require.True(t, errors.As(err, &exc), err)
	require.Equal(t, "bad.s", exc.Filename)
	require.Equal(t, 2, exc.Line)
}

func TestOptions_Invalid(t *testing.T) {
	require.Panics(t, func() { WithVerbose(-1) })
	require.Panics(t, func() { WithMaxCycles(0) })
	require.Panics(t, func() { WithReservedRegisters("$99") })
	require.NotPanics(t, func() { WithReservedRegisters("$s0", "$fp") })
}

func ExampleOptimizeSource() {
	_, s, err := OptimizeSource("main.s", "\tmove\t$8,$4\n\taddu\t$2,$8,$8\n\tjr\t$31\n")
	if err != nil {
		panic(err)
	}
	fmt.Printf("%d -> %d in %d cycles\n", s.Original, s.Final, s.Cycles)
	// Output: 3 -> 2 in 2 cycles
}
