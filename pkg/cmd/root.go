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
	"runtime/debug"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Version of this executable, injected by the release build.  Left empty
// under "go install", which records its version in the embedded build
// information instead.
var Version string

var rootCmd = &cobra.Command{
	Use:   "vine",
	Short: "An analyzer for the Vine query language.",
	Long:  "An analyzer (and general toolbox) for the Vine query language.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if GetFlag(cmd, "verbose") {
			log.SetLevel(log.DebugLevel)
		}
		//
		noColor = GetFlag(cmd, "no-color")
	},
	Run: func(cmd *cobra.Command, args []string) {
		if GetFlag(cmd, "version") {
			fmt.Printf("vine %s\n", versionString())
		}
	},
}

// versionString determines the version of this executable: injected for
// release builds, read from the embedded build information under "go
// install", and unknown otherwise (e.g. "go run").
func versionString() string {
	if Version != "" {
		return Version
	}
	//
	if info, ok := debug.ReadBuildInfo(); ok {
		return info.Main.Version
	}
	//
	return "(unknown version)"
}

// Execute dispatches onto the subcommands, exiting nonzero when one fails.
// Called once, by main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().Bool("version", false, "report the version of this executable")
	rootCmd.PersistentFlags().StringP("schema", "s", "", "schema file to analyze against")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "increase logging verbosity")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored error reporting")
}
