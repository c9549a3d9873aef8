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

package debug

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudwego/asmopt"
)

func TestGetStats(t *testing.T) {
	old := GetStats()
	_, _, err := asmopt.OptimizeSource("stats.s", "\tli\t$8,1\n\taddu\t$2,$8,$8\n\tjr\t$31\n")
	require.NoError(t, err)

	/* counters only grow */
	now := GetStats()
	assert.Equal(t, old.Optimizer.Units+1, now.Optimizer.Units)
	assert.Greater(t, now.Optimizer.Cycles, old.Optimizer.Cycles)
	assert.Greater(t, now.Optimizer.Rewrites, old.Optimizer.Rewrites)
	assert.Greater(t, now.Dataflow.Solves, old.Dataflow.Solves)
	assert.GreaterOrEqual(t, now.Dataflow.Iterations, now.Dataflow.Solves)
}
