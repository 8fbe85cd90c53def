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
	"github.com/vinelang/go-vine/pkg/vine"
)

var scopesCmd = &cobra.Command{
	Use:   "scopes [flags] query_file",
	Short: "Print the scope tree of each statement.",
	Long: `Analyze each statement of a query file and print the visibility tree the
	 analyzer constructed for it, which determines where each path is in scope.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		sch := readSchemaFile(cmd)
		srcfile := readQueryFile(args[0])
		//
		analyses, errs := vine.AnalyzeSourceFile(sch, srcfile)
		if len(errs) > 0 {
			reportErrors(errs)
			os.Exit(1)
		}
		//
		debug := GetFlag(cmd, "debug")
		//
		for i, analysis := range analyses {
			fmt.Printf("statement %d:\n", i+1)
			//
			if debug {
				fmt.Println(analysis.ScopeTree().DebugString())
			} else {
				fmt.Println(analysis.ScopeTree().String())
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(scopesCmd)
	scopesCmd.Flags().Bool("debug", false, "include fencing and namespace annotations")
}
