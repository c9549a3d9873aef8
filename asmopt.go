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
	"github.com/cloudwego/asmopt/internal/ir"
	"github.com/cloudwego/asmopt/internal/opt"
	"github.com/cloudwego/asmopt/internal/opts"
	"github.com/cloudwego/asmopt/internal/parser"
	"github.com/cloudwego/asmopt/internal/printer"
)

// Unit is a parsed assembly source file.
type Unit = ir.Unit

// Summary reports the size of a unit along the optimization, counted in
// commands and labels.
type Summary = opt.Summary

// Parse reads an assembly source file into a Unit.
func Parse(filename string, source string) (*Unit, error) {
	return parser.Parse(filename, source)
}

// Optimize rewrites u in place until none of the optimizations applies
// anymore. The unit holds the best program found so far even when an error
// is returned.
func Optimize(u *Unit, options ...Option) (Summary, error) {
	o := opts.GetDefaultOptions()
	for _, fn := range options {
		fn(&o)
	}
	return opt.Optimize(u, &o)
}

// Write renders u as assembly source.
func Write(u *Unit) string {
	return printer.Write(u.Ins)
}

// OptimizeSource parses, optimizes and renders an assembly source file.
func OptimizeSource(filename string, source string, options ...Option) (string, Summary, error) {
	u, err := Parse(filename, source)
	if err != nil {
		return "", Summary{}, err
	}

	/* optimize the unit */
	s, err := Optimize(u, options...)
	if err != nil {
		return "", s, err
	}
	return Write(u), s, nil
}
