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
	"fmt"

	"github.com/cloudwego/asmopt/internal/cfg"
	"github.com/cloudwego/asmopt/internal/dataflow"
)

// CopyProp replaces the usages of a copied register with its source, for as
// long as both of them keep their values.
type CopyProp struct{}

// propagate rewrites the usages of c.Dst from the i-th instruction of the
// block on. It returns the number of rewritten operands, and whether the
// copy still holds at the end of the block.
func (CopyProp) propagate(bb *cfg.BasicBlock, i int, c dataflow.Copy, note string) (int, bool) {
	n := 0
	for ; i < len(bb.Ins); i++ {
		p := bb.Ins[i]
		if !p.IsCommand() {
			continue
		}

		/* unknown commands may do anything with their registers */
		if p.IsOpaque() && (p.Clobber(c.Dst) || p.Clobber(c.Src) || p.Reads(c.Dst)) {
			return n, false
		}

		/* read the source instead */
		if k := p.ReplaceUse(c.Dst, c.Src); k != 0 {
			bb.Noted(p, note)
			n += k
		}

		/* stop at the first write to either register */
		if p.Clobber(c.Dst) || p.Clobber(c.Src) {
			return n, false
		}
	}
	return n, true
}

func (self CopyProp) Apply(ctx *Context, bb *cfg.BasicBlock) bool {
	ret := false
	for i := 0; i < len(bb.Ins); i++ {
		p := bb.Ins[i]
		c, ok := dataflow.CopyOf(p, ctx.Facts.Reserved)
		if !ok {
			continue
		}

		/* within the block */
		n, live := self.propagate(bb, i+1, c, "copy propagated: "+p.String())
		if n != 0 {
			log.Debugf("bb_%d: propagated %s into %d operands", bb.Id, c, n)
			ret = true
		}

		/* into the successors where the copy holds on every incoming path */
		if !live || !ctx.Facts.Reaches(bb, p) {
			continue
		}
		for _, s := range bb.Succ {
			succ := ctx.Graph.Blocks[s]
			if !ctx.Facts.Available(succ, c) {
				continue
			}

			/* another block changes, the facts are out of date from now on */
			note := fmt.Sprintf("copy propagated from bb_%d: %s", bb.Id, p)
			if k, _ := self.propagate(succ, 0, c, note); k != 0 {
				log.Debugf("bb_%d: propagated %s into %d operands of bb_%d", bb.Id, c, k, succ.Id)
				ctx.Invalidate()
				ret = true
			}
		}
	}
	return ret
}
