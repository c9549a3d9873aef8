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

package parser

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"

	"github.com/cloudwego/asmopt/internal/ir"
	"github.com/cloudwego/asmopt/internal/utils"
)

var _Parser = buildParser()

func buildParser() *participle.Parser[_File] {
	p, err := participle.Build[_File](
		participle.Lexer(_Lexer),
		participle.Elide("Whitespace"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to build parser: %w", err))
	}
	return p
}

func malformed(filename string, err error) error {
	if pe, ok := err.(participle.Error); !ok {
		return utils.EMalformed(filename, 0, 0, err.Error())
	} else {
		pos := pe.Position()
		return utils.EMalformed(filename, pos.Line, pos.Column, pe.Message())
	}
}

func (self *_Command) lower(ids *ir.Allocator, filename string) (*ir.Instr, error) {
	args := make([]ir.Operand, 0, len(self.Operands))
	for _, v := range self.Operands {
		if op, err := ir.ParseOperand(strings.TrimSpace(v)); err != nil {
			return nil, utils.EMalformed(filename, self.Pos.Line, self.Pos.Column, err.Error())
		} else {
			args = append(args, op)
		}
	}
	return ids.Command(self.Mnemonic, args...), nil
}

func (self *_Line) lower(u *ir.Unit, filename string) error {
	var last *ir.Instr

	/* labels come first */
	for _, v := range self.Labels {
		last = u.Ids.Label(strings.TrimSuffix(v, ":"))
		u.Ins = append(u.Ins, last)
	}

	/* then either a directive or a command */
	if self.Directive != nil {
		last = u.Ids.Directive(strings.TrimSpace(*self.Directive))
		u.Ins = append(u.Ins, last)
	} else if self.Command != nil {
		if p, err := self.Command.lower(u.Ids, filename); err != nil {
			return err
		} else {
			last = p
			u.Ins = append(u.Ins, p)
		}
	}

	/* comments belong to whatever is on the same line */
	if self.Comment != nil {
		if text := strings.TrimPrefix(*self.Comment, "#"); last != nil {
			last.Comment = text
		} else {
			u.Ins = append(u.Ins, u.Ids.Comment(text, self.Pos.Column > 1))
		}
	}
	return nil
}

// Parse reads a MIPS assembly source into a compilation unit.
func Parse(filename string, src string) (*ir.Unit, error) {
	if !strings.HasSuffix(src, "\n") {
		src += "\n"
	}

	/* parse the source */
	ret := ir.NewUnit()
	ast, err := _Parser.ParseString(filename, src)
	if err != nil {
		return nil, malformed(filename, err)
	}

	/* lower every line into instructions */
	for _, ln := range ast.Lines {
		if err = ln.lower(ret, filename); err != nil {
			return nil, err
		}
	}
	return ret, nil
}
