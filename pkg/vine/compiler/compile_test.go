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
	"strings"
	"testing"

	"github.com/vinelang/go-vine/pkg/ir"
	"github.com/vinelang/go-vine/pkg/schema"
	"github.com/vinelang/go-vine/pkg/vine/parser"
)

// ===================================================================
// Lowering
// ===================================================================

func Test_Compile_01(t *testing.T) {
	stmt, env := compileOne(t, "(select User)")
	//
	if stmt.Expr == nil || stmt.ScopeTree == nil {
		t.Fatalf("compiled statement is missing its expression or scope tree")
	}
	//
	if !stmt.ScopeTree.IsFenced() {
		t.Errorf("statement root should be fenced")
	}
	//
	sel, ok := stmt.Expr.Expr.(*ir.SelectStmt)
	//
	if !ok {
		t.Fatalf("expected a select, got %T", stmt.Expr.Expr)
	}
	//
	if sel.Result.TypeRef == nil || sel.Result.TypeRef.Name != "default::User" {
		t.Errorf("unexpected result type")
	}
	// Analysis results are recorded on the statement itself.
	if !stmt.Cardinality.IsKnown() {
		t.Errorf("cardinality was not inferred")
	}
	//
	if !env.SrcMap.Has(stmt.Expr) {
		t.Errorf("statement expression missing from the source map")
	}
}

func Test_Compile_02(t *testing.T) {
	// Unqualified names resolve against the default module, then std.
	stmt, _ := compileOne(t, "(select default::User)")
	//
	if stmt.Expr.TypeRef.Name != "default::User" {
		t.Errorf("qualified name resolved to %s", stmt.Expr.TypeRef.Name)
	}
	//
	stmt, _ = compileOne(t, `(cast int64 "3")`)
	//
	if stmt.Expr.TypeRef.Name != "std::int64" {
		t.Errorf("cast target resolved to %s", stmt.Expr.TypeRef.Name)
	}
	//
	stmt, _ = compileOne(t, "(is User Admin)")
	//
	if stmt.Expr.TypeRef.Name != "std::bool" {
		t.Errorf("type check should produce a boolean")
	}
}

func Test_Compile_03(t *testing.T) {
	stmt, _ := compileOne(t, "(with ((a (select User)) (n (count a))) n)")
	//
	sel, ok := stmt.Expr.Expr.(*ir.SelectStmt)
	//
	if !ok {
		t.Fatalf("expected a select, got %T", stmt.Expr.Expr)
	} else if len(sel.Bindings) != 2 {
		t.Fatalf("expected two bindings, got %d", len(sel.Bindings))
	}
	// References to a bound name evaluate under the scope of its value.
	if sel.Result.Binding != ir.BindWith {
		t.Errorf("body should reference the binding")
	}
	//
	if sel.Result.PathScopeId == 0 {
		t.Errorf("binding reference should carry its value's scope")
	}
}

func Test_Compile_04(t *testing.T) {
	stmt, _ := compileOne(t, "(params (who str) (tenant uuid :global)) (select $who)")
	//
	sel := stmt.Expr.Expr.(*ir.SelectStmt)
	param, ok := sel.Result.Expr.(*ir.Parameter)
	//
	if !ok {
		t.Fatalf("expected a parameter reference, got %T", sel.Result.Expr)
	}
	//
	if param.Name != "who" || param.IsGlobal {
		t.Errorf("unexpected parameter %v", param)
	}
	//
	if sel.Result.TypeRef.Name != "std::str" {
		t.Errorf("parameter type resolved to %s", sel.Result.TypeRef.Name)
	}
}

func Test_Compile_05(t *testing.T) {
	stmt, _ := compileOne(t, `
		(insert Post
			:shape ((:= title "hi") (:= author (select User :limit 1))))`)
	//
	ins, ok := stmt.Expr.Expr.(*ir.InsertStmt)
	//
	if !ok {
		t.Fatalf("expected an insert, got %T", stmt.Expr.Expr)
	}
	//
	if ins.Subject.TypeRef.Name != "default::Post" {
		t.Errorf("unexpected subject type")
	}
	//
	if ins.Subject != ins.Result {
		t.Errorf("an insert produces the object it creates")
	}
	//
	if len(ins.Subject.Shape) != 2 {
		t.Errorf("expected two shape elements, got %d", len(ins.Subject.Shape))
	}
}

func Test_Compile_06(t *testing.T) {
	stmt, _ := compileOne(t, `
		(insert User
			:shape ((:= name "bob") (:= nick "b0b"))
			:unless-conflict ((. User nick) (select User)))`)
	//
	ins := stmt.Expr.Expr.(*ir.InsertStmt)
	//
	if ins.OnConflict == nil {
		t.Fatalf("missing conflict clause")
	}
	//
	if ins.OnConflict.Select == nil || ins.OnConflict.Else == nil {
		t.Errorf("conflict clause should carry both parts")
	}
}

func Test_Compile_07(t *testing.T) {
	stmt, _ := compileOne(t, "(group User :using ((initial (str_upper (. User name)))) :by (initial age))")
	//
	group, ok := stmt.Expr.Expr.(*ir.GroupStmt)
	//
	if !ok {
		t.Fatalf("expected a group, got %T", stmt.Expr.Expr)
	}
	// The bare by key synthesizes a binding over the subject's pointer.
	if len(group.Using) != 2 {
		t.Errorf("expected two grouping bindings, got %d", len(group.Using))
	}
	//
	if stmt.Expr.TypeRef.Name != schema.FreeObjectName {
		t.Errorf("a group should produce free objects, got %s", stmt.Expr.TypeRef.Name)
	}
}

func Test_Compile_08(t *testing.T) {
	// Mutating the current element of an iteration is allowed despite the
	// mutation fence.
	stmt, _ := compileOne(t, "(for x User (update x :set ((:= age 1))))")
	//
	sel := stmt.Expr.Expr.(*ir.SelectStmt)
	//
	if sel.Iterator == nil {
		t.Fatalf("missing iterator")
	}
	//
	if _, ok := sel.Result.Expr.(*ir.UpdateStmt); !ok {
		t.Errorf("expected an update body, got %T", sel.Result.Expr)
	}
}

func Test_Compile_09(t *testing.T) {
	// Compilation continues past a failing statement.
	script, nodemap, perrs := parser.ParseString("(select Missing)\n(select User)")
	//
	if len(perrs) > 0 {
		t.Fatalf("parse failed: %s", perrs[0].Message())
	}
	//
	stmts, envs, errs := CompileScript(script, testSchema(t), nodemap)
	//
	if len(errs) != 1 {
		t.Fatalf("expected one error, got %d", len(errs))
	}
	//
	if len(stmts) != 1 || len(envs) != 1 {
		t.Errorf("expected the remaining statement to compile")
	}
}

// ===================================================================
// Errors
// ===================================================================

func Test_Compile_10(t *testing.T) {
	check_CompileFails(t, "(select Missing)", "unknown name 'Missing'")
	check_CompileFails(t, "(select str)", "'str' is not an object type")
	check_CompileFails(t, "(insert Missing)", "unknown type 'Missing'")
	check_CompileFails(t, "(insert Person)", "cannot insert into 'default::Person'")
	check_CompileFails(t, "(insert str)", "cannot insert into 'std::str'")
	check_CompileFails(t, "(update 42 :set ((:= age 1)))", "cannot update 'std::int64'")
	check_CompileFails(t, "(delete 42)", "cannot delete 'std::int64'")
	check_CompileFails(t, "(group User :by (missing))", "unknown grouping key 'missing'")
}

func Test_Compile_11(t *testing.T) {
	check_CompileFails(t, "(select (. User missing))", "type 'default::User' has no pointer 'missing'")
	check_CompileFails(t, "(select (. User name foo))", "type 'std::str' has no pointer 'foo'")
	check_CompileFails(t, "(select (.< (. User name) friends))", "cannot follow a backlink from 'std::str'")
	check_CompileFails(t, "(select (.< User bogus))", "no link 'bogus' targets 'default::User'")
	check_CompileFails(t, "(select (@ User strength))", "link property 'strength' requires a link path")
	check_CompileFails(t, "(select (@ (. User friends) bogus))",
		"link 'default::User.friends' has no property 'bogus'")
	check_CompileFails(t, "(select (. User name) :shape (foo))", "cannot apply a shape to 'std::str'")
	check_CompileFails(t, "(select User :shape (missing))", "type 'default::User' has no pointer 'missing'")
	check_CompileFails(t, "(update User :set ((:= missing 1)))", "type 'default::User' has no pointer 'missing'")
}

func Test_Compile_12(t *testing.T) {
	check_CompileFails(t, "(nope 1)", "unknown function 'nope'")
	check_CompileFails(t, "(other::count User)", "unknown function 'other::count'")
	check_CompileFails(t, "(count)", "wrong number of arguments for 'std::count'")
	check_CompileFails(t, "(select (set))", "expression returns value of indeterminate type")
	check_CompileFails(t, "(select (array))", "expression returns value of indeterminate type")
	check_CompileFails(t, `(tuple 1 (:= label "x"))`, "cannot mix named and positional tuple elements")
	check_CompileFails(t, "(index true 0)", "cannot index a value of type 'std::bool'")
	check_CompileFails(t, "(select $missing)", "unknown parameter '$missing'")
	check_CompileFails(t, "(cast Missing 1)", "unknown type 'Missing'")
}

// ===================================================================
// Test Helpers
// ===================================================================

// Schema shared by the compiler tests, covering inheritance, an exclusive
// property, a link with properties and a backlink target.
const testSchemaYaml = `
types:
  - name: Person
    abstract: true
    properties:
      - name: name
        type: str
        required: true
  - name: User
    bases: [Person]
    properties:
      - name: nick
        type: str
        exclusive: true
      - name: age
        type: int64
    links:
      - name: friends
        target: User
        cardinality: many
        properties:
          - name: strength
            type: float64
      - name: bestie
        target: User
  - name: Admin
    bases: [User]
  - name: Post
    properties:
      - name: title
        type: str
        required: true
    links:
      - name: author
        target: User
        required: true
`

func testSchema(t *testing.T) *schema.Schema {
	t.Helper()
	//
	sch, err := schema.Load([]byte(testSchemaYaml))
	//
	if err != nil {
		t.Fatalf("failed to load test schema: %v", err)
	}
	//
	return sch
}

// compileOne parses and compiles a single statement, failing the test on any
// error along the way.
func compileOne(t *testing.T, text string) (*ir.Statement, *Environment) {
	t.Helper()
	//
	script, nodemap, perrs := parser.ParseString(text)
	//
	if len(perrs) > 0 {
		t.Fatalf("parse failed: %s", perrs[0].Message())
	} else if len(script.Statements) != 1 {
		t.Fatalf("expected one statement, got %d", len(script.Statements))
	}
	//
	stmt, env, errs := CompileStatement(script.Statements[0], script.Params, testSchema(t), nodemap)
	//
	if len(errs) > 0 {
		t.Fatalf("compile failed: %s", errs[0].Message())
	}
	//
	return stmt, env
}

func check_CompileFails(t *testing.T, text string, msg string) {
	t.Helper()
	//
	script, nodemap, perrs := parser.ParseString(text)
	//
	if len(perrs) > 0 {
		t.Fatalf("parse failed: %s", perrs[0].Message())
	}
	//
	_, _, errs := CompileScript(script, testSchema(t), nodemap)
	//
	if len(errs) == 0 {
		t.Errorf("compilation of %q should fail", text)
	} else if !strings.Contains(errs[0].Message(), msg) {
		t.Errorf("unexpected error %q (expected %q)", errs[0].Message(), msg)
	}
}
