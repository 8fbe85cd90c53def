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
	"encoding/json"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vinelang/go-vine/pkg/vine"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [flags] query_file",
	Short: "Analyze the statements of a query file.",
	Long: `Analyze each statement of a query file against a schema, reporting the
	 inferred cardinality, multiplicity and volatility of every statement.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		sch := readSchemaFile(cmd)
		srcfile := readQueryFile(args[0])
		//
		log.Debugf("analyzing %s", args[0])
		//
		analyses, errs := vine.AnalyzeSourceFile(sch, srcfile)
		if len(errs) > 0 {
			reportErrors(errs)
			os.Exit(1)
		}
		//
		paths := GetFlag(cmd, "paths")
		//
		if GetFlag(cmd, "json") {
			printAnalysesJson(analyses, paths)
		} else {
			printAnalyses(analyses, paths)
		}
	},
}

// jsonAnalysis is the machine-readable rendering of one statement.
type jsonAnalysis struct {
	Statement       int             `json:"statement"`
	Cardinality     string          `json:"cardinality"`
	Multiplicity    string          `json:"multiplicity"`
	Volatility      string          `json:"volatility"`
	Materialization string          `json:"materialization"`
	Paths           []jsonPathUsage `json:"paths,omitempty"`
}

// jsonPathUsage is the machine-readable rendering of one path reference
// count.
type jsonPathUsage struct {
	Path       string `json:"path"`
	References int    `json:"references"`
}

func printAnalyses(analyses []*vine.Analysis, paths bool) {
	for i, analysis := range analyses {
		vol := analysis.Volatility()
		//
		fmt.Printf("statement %d:\n", i+1)
		fmt.Printf("  cardinality:  %s\n", analysis.Cardinality())
		fmt.Printf("  multiplicity: %s\n", analysis.Multiplicity())
		fmt.Printf("  volatility:   %s (materialization %s)\n", vol.Real, vol.Materialization)
		//
		if paths {
			fmt.Printf("  paths:\n")
			//
			for _, usage := range analysis.Paths() {
				fmt.Printf("    %s: %d\n", usage.Path, usage.References)
			}
		}
	}
}

func printAnalysesJson(analyses []*vine.Analysis, paths bool) {
	rendered := make([]jsonAnalysis, len(analyses))
	//
	for i, analysis := range analyses {
		rendered[i] = jsonAnalysis{
			Statement:       i + 1,
			Cardinality:     analysis.Cardinality().String(),
			Multiplicity:    analysis.Multiplicity().String(),
			Volatility:      analysis.Volatility().Real.String(),
			Materialization: analysis.Volatility().Materialization.String(),
		}
		//
		if paths {
			rendered[i].Paths = jsonPaths(analysis)
		}
	}
	//
	bytes, err := json.MarshalIndent(rendered, "", "  ")
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
	//
	fmt.Println(string(bytes))
}

func jsonPaths(analysis *vine.Analysis) []jsonPathUsage {
	usages := analysis.Paths()
	rendered := make([]jsonPathUsage, len(usages))
	//
	for i, usage := range usages {
		rendered[i] = jsonPathUsage{usage.Path.String(), usage.References}
	}
	//
	return rendered
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().Bool("json", false, "report analysis as json")
	analyzeCmd.Flags().Bool("paths", false, "report referenced paths per statement")
}
