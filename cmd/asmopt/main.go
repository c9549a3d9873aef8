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

package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/tebeka/atexit"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/cloudwego/asmopt"
	"github.com/cloudwego/asmopt/internal/cfg"
	"github.com/cloudwego/asmopt/internal/dataflow"
	"github.com/cloudwego/asmopt/internal/ir"
)

var log = commonlog.GetLogger("asmopt.cli")

var (
	verbose  = flag.Int("v", 0, "annotation level of the output: 0, 1 or 2")
	output   = flag.String("o", "", "write the optimized program to this file instead of stdout")
	original = flag.String("orig", "", "also write the unmodified program to this file")
	chart    = flag.String("draw-liveness", "", "draw the liveness of the optimized program as SVG into this file")
	reserved = flag.String("reserved", "", "comma separated registers the optimizer must not touch")
	logLevel = flag.Int("log-level", 0, "log verbosity: 0 errors only, 1 info, 2 debug")
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: asmopt [flags] <file.s>\n\n")
	flag.PrintDefaults()
}

func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Second:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d >= time.Millisecond:
		return fmt.Sprintf("%.1fms", float64(d.Nanoseconds())/1000000.0)
	default:
		return fmt.Sprintf("%.1fμs", float64(d.Nanoseconds())/1000.0)
	}
}

// formatError renders a caret diagnostic pointing at the offending column.
func formatError(exc asmopt.MalformedInputError, source string) string {
	var line string
	lines := strings.Split(source, "\n")

	/* the offending line, if any */
	if exc.Line >= 1 && exc.Line <= len(lines) {
		line = lines[exc.Line-1]
	}

	/* color setup */
	red := color.New(color.FgRed).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()
	marker := strings.Repeat(" ", max(0, exc.Column-1)) + "^"
	indent := strings.Repeat(" ", max(3, len(fmt.Sprint(exc.Line))))

	/* build the diagnostic */
	return fmt.Sprintf(
		"%s: %s\n%s┌─ %s:%d:%d\n%s│\n%3d│%s\n%s│%s\n\n",
		red("error"),
		exc.Reason,
		indent,
		exc.Filename, exc.Line, exc.Column,
		indent,
		exc.Line, line,
		indent,
		bold(marker),
	)
}

func writeFile(path string, data string) {
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		color.Red("Cannot write %s: %s", path, err)
		atexit.Exit(1)
	}
}

func drawLiveness(path string, u *asmopt.Unit, regs []ir.Reg) {
	fp, err := os.Create(path)
	if err != nil {
		color.Red("Cannot create %s: %s", path, err)
		atexit.Exit(1)
	}

	/* close the chart on exit */
	atexit.Register(func() {
		if err := fp.Close(); err != nil {
			log.Errorf("cannot close %s: %s", path, err)
		}
	})

	/* analyze the final program */
	g := cfg.Build(u.Ins, u.Ids, 0)
	dataflow.DrawLiveness(fp, g, dataflow.Analyze(g, regs))
}

func main() {
	var regs []string
	flag.Usage = usage
	flag.Parse()

	/* exactly one source file */
	if flag.NArg() != 1 {
		usage()
		atexit.Exit(2)
	}

	/* logging */
	commonlog.Configure(*logLevel, nil)
	path := flag.Arg(0)
	start := time.Now()

	/* read the source */
	src, err := os.ReadFile(path)
	if err != nil {
		color.Red("Cannot read %s: %s", path, err)
		atexit.Exit(1)
	}

	/* parse the source */
	u, err := asmopt.Parse(path, string(src))
	if err != nil {
		var exc asmopt.MalformedInputError
		if errors.As(err, &exc) {
			fmt.Fprint(os.Stderr, formatError(exc, string(src)))
		} else {
			color.Red("Unexpected error: %s", err)
		}
		atexit.Exit(1)
	}

	/* keep a copy of the original program if requested */
	if *original != "" {
		writeFile(*original, asmopt.Write(u))
	}

	/* reserved registers */
	if *reserved != "" {
		regs = strings.Split(*reserved, ",")
	}

	/* validate the options before touching the program */
	all := append([]ir.Reg(nil), ir.DefaultReserved...)
	for _, v := range regs {
		if r, ok := ir.ParseReg(strings.TrimSpace(v)); !ok {
			color.Red("Invalid register: %s", v)
			atexit.Exit(2)
		} else {
			all = append(all, r)
		}
	}

	/* optimize the program */
	s, err := asmopt.Optimize(u,
		asmopt.WithVerbose(max(0, *verbose)),
		asmopt.WithReservedRegisters(trimAll(regs)...),
	)
	if err != nil {
		color.Red("Optimization failed after %s: %s", formatDuration(time.Since(start)), err)
		atexit.Exit(1)
	}

	/* write the result */
	if out := asmopt.Write(u); *output == "" {
		fmt.Print(out)
	} else {
		writeFile(*output, out)
	}

	/* draw the liveness chart if needed */
	if *chart != "" {
		drawLiveness(*chart, u, all)
	}

	/* print the summary */
	color.New(color.FgGreen).Fprintf(os.Stderr,
		"%s: %d -> %d -> %d instructions (peak %d) in %d cycles, %s\n",
		path, s.Original, s.AfterGlobal, s.Final, s.Peak, s.Cycles, formatDuration(time.Since(start)),
	)
	atexit.Exit(0)
}

func trimAll(v []string) []string {
	ret := make([]string, 0, len(v))
	for _, s := range v {
		ret = append(ret, strings.TrimSpace(s))
	}
	return ret
}
