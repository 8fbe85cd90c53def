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
package compiler

import (
	"testing"

	"github.com/vinelang/go-vine/pkg/ir"
)

func Test_InferCardinality_01(t *testing.T) {
	// Literals and containers denote single values.
	check_Cardinality(t, "42", ir.CardOne)
	check_Cardinality(t, `"hi"`, ir.CardOne)
	check_Cardinality(t, "{1}", ir.CardOne)
	check_Cardinality(t, "{1 2 3}", ir.CardMany)
	check_Cardinality(t, "[1 2]", ir.CardOne)
	check_Cardinality(t, "(tuple 1 2)", ir.CardOne)
	check_Cardinality(t, "(cast str (set))", ir.CardOne)
	check_Cardinality(t, "(params (who str)) (select $who)", ir.CardOne)
}

func Test_InferCardinality_02(t *testing.T) {
	// Paths range over the database.
	check_Cardinality(t, "(select User)", ir.CardMany)
	check_Cardinality(t, "(select (. User name))", ir.CardMany)
	check_Cardinality(t, "(select (. User bestie))", ir.CardMany)
	check_Cardinality(t, "(select (. User friends))", ir.CardMany)
	check_Cardinality(t, "(select (.< User author))", ir.CardMany)
}

func Test_InferCardinality_03(t *testing.T) {
	// Equality over an exclusive pointer pins the subject to at most one
	// object; anything else leaves it unbounded.
	check_Cardinality(t, `(select User :filter (= (. User nick) "x"))`, ir.CardOne)
	check_Cardinality(t, `(select User :filter (= "x" (. User nick)))`, ir.CardOne)
	check_Cardinality(t, `(select User :filter (= (. User id) (cast uuid (set))))`, ir.CardOne)
	check_Cardinality(t, `(select User :filter (= (. User age) 42))`, ir.CardMany)
	check_Cardinality(t, `(select User :filter (= (. User name) "x"))`, ir.CardMany)
	check_Cardinality(t, `(select User :filter (and (= (. User age) 42) (= (. User nick) "x")))`, ir.CardOne)
	check_Cardinality(t, `(select User :filter (= User (select User :limit 1)))`, ir.CardOne)
	// A pin against a multi-valued expression proves nothing.
	check_Cardinality(t, `(select User :filter (= (. User nick) (. User name)))`, ir.CardMany)
}

func Test_InferCardinality_04(t *testing.T) {
	check_Cardinality(t, "(select User :limit 1)", ir.CardOne)
	check_Cardinality(t, "(select User :limit 2)", ir.CardMany)
	check_Cardinality(t, "(select User :limit 1 :offset 2)", ir.CardOne)
	check_Cardinality(t, "(select (. User name) :limit 1)", ir.CardOne)
}

func Test_InferCardinality_05(t *testing.T) {
	// Aggregates swallow their SET OF argument.
	check_Cardinality(t, "(count User)", ir.CardOne)
	check_Cardinality(t, "(exists User)", ir.CardOne)
	check_Cardinality(t, "(= 1 2)", ir.CardOne)
	check_Cardinality(t, "(+ 1 2)", ir.CardOne)
	// An element-wise callee inherits the worst argument.
	check_Cardinality(t, "(select (len (. User name)))", ir.CardMany)
	// Set returning operators produce many values regardless.
	check_Cardinality(t, "(union 1 2)", ir.CardMany)
	check_Cardinality(t, "(distinct {1 2})", ir.CardMany)
	check_Cardinality(t, "(if true 1 2)", ir.CardMany)
	check_Cardinality(t, "(?? (cast int64 (set)) 1)", ir.CardMany)
}

func Test_InferCardinality_06(t *testing.T) {
	check_Cardinality(t, `(insert Post :shape ((:= title "t") (:= author (select User :limit 1))))`,
		ir.CardOne)
	check_Cardinality(t, `(update User :set ((:= age 1)))`, ir.CardMany)
	check_Cardinality(t, `(update User :filter (= (. User nick) "x") :set ((:= age 1)))`, ir.CardOne)
	check_Cardinality(t, "(delete User)", ir.CardMany)
	check_Cardinality(t, `(delete User :filter (= (. User nick) "x"))`, ir.CardOne)
}

func Test_InferCardinality_07(t *testing.T) {
	// A for statement produces one slice of results per iteration.
	check_Cardinality(t, "(for x {1 2 3} x)", ir.CardMany)
	check_Cardinality(t, `(for x User (insert Post :shape ((:= title "t") (:= author x))))`,
		ir.CardMany)
	//
	check_Cardinality(t, "(with ((a (select User))) (count a))", ir.CardOne)
	check_Cardinality(t, "(group User :by (age))", ir.CardMany)
}

// ===================================================================
// Test Helpers
// ===================================================================

func check_Cardinality(t *testing.T, text string, expected ir.Cardinality) {
	t.Helper()
	//
	stmt, _ := compileOne(t, text)
	//
	if stmt.Cardinality != expected {
		t.Errorf("wrong cardinality for %q (expected %s, got %s)", text, expected, stmt.Cardinality)
	}
}
