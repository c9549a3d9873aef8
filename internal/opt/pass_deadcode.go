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
)

// DCE removes the commands whose results are never used.
type DCE struct{}

func (DCE) dead(ctx *Context, bb *cfg.BasicBlock, i int) bool {
	p := bb.Ins[i]
	defs := p.Defs()

	/* only pure commands that define something can go */
	if !p.IsPure() || len(defs) == 0 {
		return false
	}

	/* every definition must be unused */
	for _, r := range defs {
		if !ctx.Facts.DeadAfter(bb, i, r) {
			return false
		}
	}
	return true
}

func (self DCE) once(ctx *Context, bb *cfg.BasicBlock) bool {
	var rm []int
	for i := range bb.Ins {
		if self.dead(ctx, bb, i) {
			rm = append(rm, i)
		}
	}

	/* remove backwards, so the note goes to the instruction that follows */
	for i := len(rm) - 1; i >= 0; i-- {
		p := bb.Ins[rm[i]]
		bb.ReplaceAt(rm[i], 1, nil, "dead code removed: "+p.String())
		log.Debugf("bb_%d: removed dead %s", bb.Id, p)
	}
	return len(rm) != 0
}

func (self DCE) Apply(ctx *Context, bb *cfg.BasicBlock) bool {
	ret := false
	for self.once(ctx, bb) {
		ret = true
	}
	return ret
}
