// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"github.com/vinelang/go-vine/pkg/schema"
	"github.com/vinelang/go-vine/pkg/util/source"
	"golang.org/x/term"
)

const (
	ansiRed   = "\033[31m"
	ansiBold  = "\033[1m"
	ansiReset = "\033[0m"
)

// noColor disables ANSI escapes in error reports.  Set from the persistent
// no-color flag before any command runs.
var noColor bool

// readSchemaFile parses the schema named by the persistent schema flag.
func readSchemaFile(cmd *cobra.Command) *schema.Schema {
	filename := GetString(cmd, "schema")
	//
	if filename == "" {
		fmt.Println("no schema file given (use --schema)")
		os.Exit(2)
	}
	//
	sch, err := schema.LoadFile(filename)
	if err != nil {
		fmt.Printf("%s: %s\n", filename, err)
		os.Exit(2)
	}
	//
	return sch
}

// readQueryFile reads a query file into a source file ready for parsing.
func readQueryFile(filename string) *source.File {
	bytes, err := os.ReadFile(filename)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
	//
	return source.NewSourceFile(filename, bytes)
}

// reportErrors prints each syntax error with the offending line and a caret
// marker below the offending span, colored when attached to a terminal.
func reportErrors(errs []source.SyntaxError) {
	var (
		colored = !noColor && isatty.IsTerminal(os.Stderr.Fd())
		columns = 0
	)
	// Clamp printed lines to the terminal width, when known.
	if w, _, err := term.GetSize(int(os.Stderr.Fd())); err == nil {
		columns = w
	}
	//
	for i := range errs {
		reportError(&errs[i], colored, columns)
	}
}

func reportError(err *source.SyntaxError, colored bool, columns int) {
	var (
		srcfile = err.SourceFile()
		span    = err.Span()
		line    = err.FirstEnclosingLine()
		text    = line.String()
	)
	//
	if columns > 3 && runewidth.StringWidth(text) > columns {
		text = runewidth.Truncate(text, columns-3, "...")
	}
	// Determine visual columns of the span within its line, accounting for
	// wide characters.
	prefix := runewidth.StringWidth(text[:min(span.Start()-line.Start(), len(text))])
	width := max(runewidth.StringWidth(spanText(text, line, span)), 1)
	//
	msg := err.Message()
	if colored {
		msg = fmt.Sprintf("%s%s%s", ansiBold, msg, ansiReset)
	}
	//
	fmt.Fprintf(os.Stderr, "%s:%d: %s\n", srcfile.Filename(), line.Number(), msg)
	fmt.Fprintln(os.Stderr, text)
	//
	marker := strings.Repeat("^", width)
	if colored {
		marker = fmt.Sprintf("%s%s%s", ansiRed, marker, ansiReset)
	}
	//
	fmt.Fprintf(os.Stderr, "%s%s\n", strings.Repeat(" ", prefix), marker)
	//
	if hint := err.Hint(); hint != "" {
		fmt.Fprintf(os.Stderr, "hint: %s\n", hint)
	}
}

// spanText slices the portion of a line covered by a span, clamped to the
// line itself.
func spanText(text string, line source.Line, span source.Span) string {
	start := span.Start() - line.Start()
	end := span.End() - line.Start()
	//
	if start < 0 {
		start = 0
	}
	//
	if end > len(text) {
		end = len(text)
	}
	//
	if start >= end {
		return ""
	}
	//
	return text[start:end]
}
