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
	"github.com/alecthomas/participle/v2/lexer"
)

var _Lexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{Name: "Whitespace", Pattern: `[ \t\r]+`, Action: nil},
		{Name: "Comment", Pattern: `#[^\n]*`, Action: nil},
		{Name: "EOL", Pattern: `\n`, Action: nil},

		// labels go first, they may look like directives or mnemonics
		{Name: "Label", Pattern: `[A-Za-z0-9_.$][A-Za-z0-9_.$]*:`, Action: nil},
		{Name: "Directive", Pattern: `\.[A-Za-z_][A-Za-z0-9_.]*(?:"(?:\\.|[^"\\\n])*"|[^\n#"])*`, Action: nil},
		{Name: "Mnemonic", Pattern: `[A-Za-z][A-Za-z0-9_.]*`, Action: lexer.Push("Operands")},
	},
	"Operands": {
		{Name: "Whitespace", Pattern: `[ \t\r]+`, Action: nil},
		{Name: "Comment", Pattern: `#[^\n]*`, Action: nil},
		{Name: "EOL", Pattern: `\n`, Action: lexer.Pop()},
		{Name: "Comma", Pattern: `,`, Action: nil},
		{Name: "Operand", Pattern: `[^,#\s][^,#\n]*`, Action: nil},
	},
})

type _File struct {
	Lines []*_Line `parser:"@@*"`
}

type _Line struct {
	Pos       lexer.Position
	Labels    []string  `parser:"@Label*"`
	Directive *string   `parser:"( @Directive"`
	Command   *_Command `parser:"| @@ )?"`
	Comment   *string   `parser:"@Comment?"`
	End       string    `parser:"@EOL"`
}

type _Command struct {
	Pos      lexer.Position
	Mnemonic string   `parser:"@Mnemonic"`
	Operands []string `parser:"( @Operand ( \",\" @Operand )* )?"`
}
