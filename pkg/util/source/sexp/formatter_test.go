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
package sexp

import (
	"testing"
)

func Test_Formatter_01(t *testing.T) {
	// Fitting forms keep their single line.
	check_Format(t, 80, lst(sym("select"), sym("User"), sym(":limit"), sym("1")),
		"(select User :limit 1)\n")
}

func Test_Formatter_02(t *testing.T) {
	// Overflowing statements break at their clause keywords, keeping each
	// keyword's arguments beside it.
	expr := lst(sym("select"), sym("User"),
		sym(":filter"), lst(sym("="), lst(sym("."), sym("User"), sym("name")), sym("\"alice\"")),
		sym(":limit"), sym("1"))
	//
	check_Format(t, 24, expr,
		"(select User\n  :filter (= (. User name) \"alice\")\n  :limit 1)\n")
}

func Test_Formatter_03(t *testing.T) {
	// Iteration bodies move onto their own line whilst the binder and its
	// source stay beside the head.
	expr := lst(sym("for"), sym("x"), lst(sym("."), sym("User"), sym("friends")),
		lst(sym("select"), lst(sym("."), sym("x"), sym("name"))))
	//
	check_Format(t, 20, expr,
		"(for x (. User friends)\n  (select (. x name)))\n")
}

func Test_Formatter_04(t *testing.T) {
	// Operands split one per line once lower break levels fall short.
	expr := lst(sym("union"), lst(sym("."), sym("User"), sym("name")),
		lst(sym("."), sym("User"), sym("nick")))
	//
	check_Format(t, 16, expr,
		"(union (. User name)\n  (. User nick))\n")
}

// ===================================================================
// Test Helpers
// ===================================================================

func sym(value string) SExp {
	return NewSymbol(value)
}

func lst(elements ...SExp) SExp {
	return NewList(elements)
}

// check_Format lays the given expression out under the standard rule set
// and checks the exact text produced.
func check_Format(t *testing.T, width uint, expr SExp, expected string) {
	t.Helper()
	//
	formatter := NewFormatter(width)
	formatter.Add(&ClauseRule{Head: "select", Level: 0})
	formatter.Add(&BlockRule{Head: "for", Fixed: 2, Level: 0})
	formatter.Add(&OperandRule{Head: "union", Level: 2})
	//
	if actual := formatter.Format(expr); actual != expected {
		t.Errorf("wrong layout (expected %q, got %q)", expected, actual)
	}
}
