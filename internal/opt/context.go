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
	"github.com/cloudwego/asmopt/internal/cfg"
	"github.com/cloudwego/asmopt/internal/dataflow"
	"github.com/cloudwego/asmopt/internal/ir"
	"github.com/cloudwego/asmopt/internal/opts"
)

// Context is what the block passes see of the partitioned program.
type Context struct {
	Graph   *cfg.Graph
	Facts   *dataflow.Facts
	Options *opts.Options
	stale   bool
}

func newContext(g *cfg.Graph, o *opts.Options) *Context {
	return &Context{
		Graph:   g,
		Facts:   dataflow.Analyze(g, o.Reserved),
		Options: o,
	}
}

// Invalidate marks the dataflow facts as outdated. It must be called when a
// pass modifies a block other than the one it was applied to.
func (self *Context) Invalidate() {
	self.stale = true
}

// Refresh recomputes the dataflow facts if they are outdated.
func (self *Context) Refresh() bool {
	if !self.stale {
		return false
	}

	/* run all the analyses again */
	self.stale = false
	self.Facts = dataflow.Analyze(self.Graph, self.Options.Reserved)
	return true
}

// Reserved reports whether r must be left untouched.
func (self *Context) Reserved(r ir.Reg) bool {
	return self.Facts.Reserved.Has(r)
}
