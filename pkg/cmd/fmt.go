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

	"github.com/spf13/cobra"
	"github.com/vinelang/go-vine/pkg/util/source/sexp"
	"github.com/vinelang/go-vine/pkg/vine/ast"
	"github.com/vinelang/go-vine/pkg/vine/parser"
)

var fmtCmd = &cobra.Command{
	Use:   "fmt [flags] query_file",
	Short: "Reformat a query file.",
	Long:  `Parse a query file and print it back in a standard layout.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		srcfile := readQueryFile(args[0])
		//
		script, _, errs := parser.ParseSourceFile(srcfile)
		if len(errs) > 0 {
			reportErrors(errs)
			os.Exit(1)
		}
		//
		fmt.Print(formatScript(script, GetUint(cmd, "width")))
	},
}

func formatScript(script *ast.Script, width uint) string {
	var text string
	//
	formatter := sexp.NewFormatter(width)
	formatter.Add(&sexp.ClauseRule{Head: "select", Level: 0})
	formatter.Add(&sexp.ClauseRule{Head: "update", Level: 0})
	formatter.Add(&sexp.ClauseRule{Head: "delete", Level: 0})
	formatter.Add(&sexp.ClauseRule{Head: "insert", Level: 0})
	formatter.Add(&sexp.ClauseRule{Head: "group", Level: 0})
	formatter.Add(&sexp.BlockRule{Head: "for", Fixed: 2, Level: 0})
	formatter.Add(&sexp.BlockRule{Head: "with", Level: 0})
	formatter.Add(&sexp.BlockRule{Head: "params", Level: 0})
	formatter.Add(&sexp.OperandRule{Head: "and", Level: 1})
	formatter.Add(&sexp.OperandRule{Head: "or", Level: 1})
	formatter.Add(&sexp.OperandRule{Head: "union", Level: 2})
	//
	if len(script.Params) > 0 {
		params := sexp.NewList([]sexp.SExp{sexp.NewSymbol("params")})
		//
		for _, decl := range script.Params {
			params.Append(decl.Lisp())
		}
		//
		text += formatter.Format(params)
	}
	//
	for _, stmt := range script.Statements {
		text += formatter.Format(stmt.Lisp())
	}
	//
	return text
}

func init() {
	rootCmd.AddCommand(fmtCmd)
	fmtCmd.Flags().UintP("width", "w", 100, "maximum line width")
}
