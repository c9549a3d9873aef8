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

package printer

import (
	"github.com/bytedance/gopkg/lang/dirtmake"

	"github.com/cloudwego/asmopt/internal/ir"
)

const (
	_LineSize     = 32
	_MnemonicSize = 8
)

func appendNotes(buf []byte, p *ir.Instr) []byte {
	if p.Comment != "" {
		buf = append(buf, "\t\t#"...)
		buf = append(buf, p.Comment...)
	}

	/* each note goes into its own comment */
	for _, v := range p.Notes {
		buf = append(buf, "\t\t# "...)
		buf = append(buf, v...)
	}
	return buf
}

// AppendInstr renders one instruction as a source line, without the line break.
func AppendInstr(buf []byte, p *ir.Instr) []byte {
	switch p.Kind {
	case ir.K_label:
		buf = append(buf, p.Name...)
		buf = append(buf, ':')
	case ir.K_directive:
		buf = append(buf, '\t')
		buf = append(buf, p.Name...)
	case ir.K_comment:
		if p.Inline {
			buf = append(buf, '\t')
		}
		buf = append(buf, '#')
		buf = append(buf, p.Name...)
	case ir.K_command:
		buf = append(buf, '\t')
		buf = append(buf, p.Name...)
		if len(p.Args) != 0 {
			if len(p.Name) < _MnemonicSize {
				buf = append(buf, '\t')
			} else {
				buf = append(buf, ' ')
			}
			buf = append(buf, p.ArgString()...)
		}
	}
	return appendNotes(buf, p)
}

// Write renders the instructions as assembly source.
func Write(ins []*ir.Instr) string {
	buf := dirtmake.Bytes(0, len(ins)*_LineSize)
	for _, p := range ins {
		buf = AppendInstr(buf, p)
		buf = append(buf, '\n')
	}
	return string(buf)
}
