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
	"bufio"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"github.com/vinelang/go-vine/pkg/schema"
	"github.com/vinelang/go-vine/pkg/vine"
	"github.com/vinelang/go-vine/pkg/vine/compiler"
)

var replCmd = &cobra.Command{
	Use:   "repl [flags]",
	Short: "Analyze statements interactively.",
	Long: `Read statements from the terminal and analyze each against the schema as it
	 is entered.  Statements may span multiple lines; input is submitted once its
	 parentheses balance.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		sch := readSchemaFile(cmd)
		//
		if isatty.IsTerminal(os.Stdin.Fd()) {
			runRepl(sch)
		} else {
			runPipe(sch)
		}
	},
}

// historyFile determines where the repl persists its input history.
func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	//
	return filepath.Join(home, ".vine_history")
}

// runRepl drives the interactive loop over a terminal.
func runRepl(sch *schema.Schema) {
	line := liner.NewLiner()
	defer line.Close()
	//
	line.SetCtrlCAborts(true)
	line.SetCompleter(completer(sch))
	//
	if f, err := os.Open(historyFile()); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}
	//
	for {
		input, err := readStatement(line)
		if err != nil {
			break
		}
		//
		if input == "" {
			continue
		} else if input == "quit" || input == "exit" {
			break
		}
		//
		line.AppendHistory(input)
		evaluate(sch, input)
	}
	//
	if f, err := os.Create(historyFile()); err == nil {
		_, _ = line.WriteHistory(f)
		f.Close()
	}
}

// readStatement reads one statement, prompting for continuation lines until
// the parentheses balance.
func readStatement(line *liner.State) (string, error) {
	input, err := line.Prompt("vine> ")
	if err != nil {
		return "", err
	}
	//
	for parenDepth(input) > 0 {
		more, err := line.Prompt("....> ")
		if err != nil {
			return "", err
		}
		//
		input = input + "\n" + more
	}
	//
	return strings.TrimSpace(input), nil
}

// runPipe handles non-interactive input, e.g. a script piped on stdin.
func runPipe(sch *schema.Schema) {
	var (
		scanner = bufio.NewScanner(os.Stdin)
		input   string
	)
	//
	for scanner.Scan() {
		input = input + scanner.Text() + "\n"
		//
		if parenDepth(input) <= 0 && strings.TrimSpace(input) != "" {
			evaluate(sch, strings.TrimSpace(input))
			input = ""
		}
	}
	//
	if strings.TrimSpace(input) != "" {
		evaluate(sch, strings.TrimSpace(input))
	}
}

// evaluate analyzes one input and prints the outcome.
func evaluate(sch *schema.Schema, input string) {
	analyses, errs := vine.AnalyzeString(sch, input)
	if len(errs) > 0 {
		reportErrors(errs)
		return
	}
	//
	printAnalyses(analyses, false)
}

// parenDepth computes the parenthesis nesting of the input so far, ignoring
// anything within string literals.
func parenDepth(input string) int {
	var (
		depth    int
		instring bool
	)
	//
	for i := 0; i < len(input); i++ {
		switch input[i] {
		case '"':
			instring = !instring
		case '(', '{', '[':
			if !instring {
				depth++
			}
		case ')', '}', ']':
			if !instring {
				depth--
			}
		}
	}
	//
	return depth
}

// completer builds the tab completion function, which completes the word
// under the cursor against the standard library and the schema.
func completer(sch *schema.Schema) liner.Completer {
	var names []string
	//
	names = append(names, compiler.StdNames()...)
	names = append(names, "select", "for", "with", "insert", "update", "delete", "group")
	//
	for _, t := range sch.Types() {
		names = append(names, t.Name)
	}
	//
	sort.Strings(names)
	//
	return func(line string) []string {
		var completions []string
		//
		start := strings.LastIndexAny(line, " ({[") + 1
		prefix, word := line[:start], line[start:]
		//
		if word == "" {
			return nil
		}
		//
		for _, name := range names {
			if strings.HasPrefix(name, word) {
				completions = append(completions, prefix+name)
			}
		}
		//
		return completions
	}
}

func init() {
	rootCmd.AddCommand(replCmd)
}
