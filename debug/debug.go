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
	"sync/atomic"

	"github.com/cloudwego/asmopt/internal/dataflow"
	"github.com/cloudwego/asmopt/internal/opt"
)

// A Stats records statistics about the optimizer.
type Stats struct {
	Optimizer OptimizerStats
	Dataflow  DataflowStats
}

// An OptimizerStats records statistics about the fixpoint driver.
type OptimizerStats struct {
	Units    int
	Cycles   int
	Rewrites int
}

// A DataflowStats records statistics about the dataflow solver.
type DataflowStats struct {
	Solves     int
	Iterations int
}

// GetStats returns statistics of the optimizer.
func GetStats() Stats {
	return Stats{
		Optimizer: OptimizerStats{
			Units:    int(atomic.LoadUint64(&opt.UnitCount)),
			Cycles:   int(atomic.LoadUint64(&opt.CycleCount)),
			Rewrites: int(atomic.LoadUint64(&opt.RewriteCount)),
		},
		Dataflow: DataflowStats{
			Solves:     int(atomic.LoadUint64(&dataflow.SolveCount)),
			Iterations: int(atomic.LoadUint64(&dataflow.IterationCount)),
		},
	}
}
