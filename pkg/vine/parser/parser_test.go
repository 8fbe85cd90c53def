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
package parser

import (
	"strings"
	"testing"

	"github.com/vinelang/go-vine/pkg/vine/ast"
)

// ===================================================================
// Statements
// ===================================================================

func Test_Parser_01(t *testing.T) {
	// Bare expressions wrap into an implicit select.
	script := parseScript(t, "User")
	//
	if len(script.Statements) != 1 {
		t.Fatalf("expected one statement, got %d", len(script.Statements))
	}
	//
	sel, ok := script.Statements[0].(*ast.Select)
	//
	if !ok {
		t.Fatalf("expected a select, got %T", script.Statements[0])
	} else if !sel.Implicit {
		t.Errorf("wrapped select should be implicit")
	}
	//
	if ident, ok := sel.Result.(*ast.Ident); !ok || ident.Name != "User" {
		t.Errorf("unexpected result %v", sel.Result)
	}
}

func Test_Parser_02(t *testing.T) {
	if lit, ok := parseExpr(t, "42").(*ast.IntLit); !ok || lit.Value != "42" {
		t.Errorf("expected integer literal 42")
	}
	//
	if lit, ok := parseExpr(t, "-7").(*ast.IntLit); !ok || lit.Value != "-7" {
		t.Errorf("expected integer literal -7")
	}
	//
	if lit, ok := parseExpr(t, "3.14").(*ast.FloatLit); !ok || lit.Value != "3.14" {
		t.Errorf("expected float literal 3.14")
	}
	//
	if lit, ok := parseExpr(t, "true").(*ast.BoolLit); !ok || !lit.Value {
		t.Errorf("expected boolean literal true")
	}
	//
	if lit, ok := parseExpr(t, `"hi\nthere"`).(*ast.StringLit); !ok || lit.Value != "hi\nthere" {
		t.Errorf("expected string literal with resolved escape")
	}
	//
	if param, ok := parseExpr(t, "$who").(*ast.Param); !ok || param.Name != "who" {
		t.Errorf("expected parameter reference $who")
	}
	//
	if ident, ok := parseExpr(t, "std::User").(*ast.Ident); !ok || ident.Name != "std::User" {
		t.Errorf("expected qualified identifier")
	}
}

func Test_Parser_03(t *testing.T) {
	script := parseScript(t, `
		(params (who str) (limit std::int64 :optional) (tenant uuid :global))
		User`)
	//
	if len(script.Params) != 3 {
		t.Fatalf("expected three parameter declarations, got %d", len(script.Params))
	}
	//
	who := script.Params[0]
	if who.Name.Name != "who" || who.Type.Name != "str" || who.Optional || who.Global {
		t.Errorf("unexpected declaration of $who")
	}
	//
	limit := script.Params[1]
	if limit.Name.Name != "limit" || limit.Type.Name != "std::int64" || !limit.Optional {
		t.Errorf("unexpected declaration of $limit")
	}
	//
	if !script.Params[2].Global {
		t.Errorf("$tenant should be global")
	}
	//
	if len(script.Statements) != 1 {
		t.Errorf("expected one statement after the params block")
	}
}

func Test_Parser_04(t *testing.T) {
	path, ok := parseExpr(t, "(. User friends name)").(*ast.Path)
	//
	if !ok {
		t.Fatalf("expected a path")
	} else if len(path.Steps) != 2 {
		t.Fatalf("expected two steps, got %d", len(path.Steps))
	}
	//
	if base, ok := path.Base.(*ast.Ident); !ok || base.Name != "User" {
		t.Errorf("unexpected path base")
	}
	//
	if path.Steps[0].Name != "friends" || path.Steps[0].Kind != ast.StepForward {
		t.Errorf("unexpected first step")
	}
	//
	if path.Steps[1].Name != "name" || path.Steps[1].Kind != ast.StepForward {
		t.Errorf("unexpected second step")
	}
	// Tuple elements address by position
	path, ok = parseExpr(t, "(. pair 0)").(*ast.Path)
	//
	if !ok || len(path.Steps) != 1 || path.Steps[0].Name != "0" {
		t.Errorf("expected a positional step")
	}
}

func Test_Parser_05(t *testing.T) {
	back, ok := parseExpr(t, "(.< User author)").(*ast.Path)
	//
	if !ok || len(back.Steps) != 1 {
		t.Fatalf("expected a backlink path")
	} else if back.Steps[0].Kind != ast.StepBackward || back.Steps[0].Name != "author" {
		t.Errorf("unexpected backlink step")
	}
	//
	lprop, ok := parseExpr(t, "(@ (. User friends) strength)").(*ast.Path)
	//
	if !ok || len(lprop.Steps) != 1 {
		t.Fatalf("expected a link property path")
	} else if lprop.Steps[0].Kind != ast.StepLinkProp {
		t.Errorf("unexpected link property step")
	}
	//
	if _, ok := lprop.Base.(*ast.Path); !ok {
		t.Errorf("link property base should itself be a path")
	}
	//
	isect, ok := parseExpr(t, "(.is (. User friends) Admin)").(*ast.TypeIntersection)
	//
	if !ok {
		t.Fatalf("expected a type intersection")
	} else if isect.Type.Name != "Admin" {
		t.Errorf("unexpected intersection type")
	}
}

func Test_Parser_06(t *testing.T) {
	eq, ok := parseExpr(t, `(= (. User name) "bob")`).(*ast.Operator)
	//
	if !ok || eq.Name != "=" || len(eq.Args) != 2 {
		t.Fatalf("expected a binary comparison")
	}
	//
	not, ok := parseExpr(t, "(not true)").(*ast.Operator)
	//
	if !ok || not.Name != "not" || len(not.Args) != 1 {
		t.Errorf("expected a unary operator")
	}
	//
	sum, ok := parseExpr(t, "(+ 1 2 3)").(*ast.Operator)
	//
	if !ok || len(sum.Args) != 3 {
		t.Errorf("variadic operators should accept more than two operands")
	}
	//
	union, ok := parseExpr(t, "(union User Admin)").(*ast.Operator)
	//
	if !ok || union.Name != "union" {
		t.Errorf("expected a union operator")
	}
}

func Test_Parser_07(t *testing.T) {
	call, ok := parseExpr(t, "(count User)").(*ast.Call)
	//
	if !ok || call.Name != "count" || len(call.Args) != 1 {
		t.Fatalf("expected a function call")
	}
	//
	qualified, ok := parseExpr(t, "(std::len (. User name))").(*ast.Call)
	//
	if !ok || qualified.Name != "std::len" {
		t.Errorf("expected a qualified function call")
	}
}

func Test_Parser_08(t *testing.T) {
	set, ok := parseExpr(t, "{1 2 3}").(*ast.SetExpr)
	//
	if !ok || len(set.Elements) != 3 {
		t.Errorf("expected a three element set literal")
	}
	//
	if set, ok := parseExpr(t, "(set 1 2)").(*ast.SetExpr); !ok || len(set.Elements) != 2 {
		t.Errorf("expected a set constructor")
	}
	//
	if arr, ok := parseExpr(t, "[1 2]").(*ast.ArrayExpr); !ok || len(arr.Elements) != 2 {
		t.Errorf("expected an array literal")
	}
	//
	if arr, ok := parseExpr(t, "(array 1)").(*ast.ArrayExpr); !ok || len(arr.Elements) != 1 {
		t.Errorf("expected an array constructor")
	}
	//
	tuple, ok := parseExpr(t, `(tuple 1 (:= label "x"))`).(*ast.TupleExpr)
	//
	if !ok || len(tuple.Elements) != 2 {
		t.Fatalf("expected a two element tuple")
	}
	//
	if tuple.Elements[0].Name != nil {
		t.Errorf("first element should be positional")
	}
	//
	if tuple.Elements[1].Name == nil || tuple.Elements[1].Name.Name != "label" {
		t.Errorf("second element should be named")
	}
	//
	if _, ok := parseExpr(t, "(if true 1 2)").(*ast.If); !ok {
		t.Errorf("expected a conditional")
	}
	//
	if _, ok := parseExpr(t, "(slice xs 1 2)").(*ast.Slice); !ok {
		t.Errorf("expected a slice")
	}
	//
	if _, ok := parseExpr(t, "(index xs 0)").(*ast.Index); !ok {
		t.Errorf("expected an index")
	}
	//
	if _, ok := parseExpr(t, "(cast str 42)").(*ast.Cast); !ok {
		t.Errorf("expected a cast")
	}
	//
	check, ok := parseExpr(t, "(is-not User Admin)").(*ast.TypeCheck)
	//
	if !ok || !check.Negated {
		t.Errorf("expected a negated type check")
	}
	//
	if _, ok := parseExpr(t, "(introspect User)").(*ast.Introspect); !ok {
		t.Errorf("expected a type introspection")
	}
}

func Test_Parser_09(t *testing.T) {
	stmt := parseStatement(t, `
		(select User
			:shape (name (friends (name)) (:= upper (str_upper (. User name))))
			:filter (= (. User nick) "x")
			:order ((desc (. User name)) (. User nick))
			:offset 2
			:limit 10)`)
	//
	sel, ok := stmt.(*ast.Select)
	//
	if !ok {
		t.Fatalf("expected a select, got %T", stmt)
	} else if sel.Implicit {
		t.Errorf("explicit selects should not be marked implicit")
	}
	//
	if len(sel.Shape) != 3 {
		t.Fatalf("expected three shape elements, got %d", len(sel.Shape))
	}
	//
	name := sel.Shape[0]
	if name.Name.Name != "name" || name.Op != ast.ShapeGet || name.Value != nil || name.Shape != nil {
		t.Errorf("unexpected plain fetch element")
	}
	//
	friends := sel.Shape[1]
	if friends.Name.Name != "friends" || len(friends.Shape) != 1 {
		t.Errorf("unexpected nested fetch element")
	}
	//
	upper := sel.Shape[2]
	if upper.Op != ast.ShapeAssign || upper.Value == nil {
		t.Errorf("unexpected computed element")
	}
	//
	if sel.Filter == nil {
		t.Errorf("missing filter clause")
	}
	//
	if len(sel.OrderBy) != 2 {
		t.Fatalf("expected two ordering keys")
	} else if !sel.OrderBy[0].Descending || sel.OrderBy[1].Descending {
		t.Errorf("unexpected ordering directions")
	}
	//
	if lit, ok := sel.Offset.(*ast.IntLit); !ok || lit.Value != "2" {
		t.Errorf("unexpected offset clause")
	}
	//
	if lit, ok := sel.Limit.(*ast.IntLit); !ok || lit.Value != "10" {
		t.Errorf("unexpected limit clause")
	}
}

func Test_Parser_10(t *testing.T) {
	stmt := parseStatement(t, "(for x {1 2} (+ x 1))")
	//
	loop, ok := stmt.(*ast.For)
	//
	if !ok {
		t.Fatalf("expected a for, got %T", stmt)
	}
	//
	if loop.Name.Name != "x" {
		t.Errorf("unexpected iterator name")
	}
	//
	if _, ok := loop.Iterator.(*ast.SetExpr); !ok {
		t.Errorf("unexpected iterator expression")
	}
	//
	if _, ok := loop.Body.(*ast.Operator); !ok {
		t.Errorf("unexpected body expression")
	}
}

func Test_Parser_11(t *testing.T) {
	stmt := parseStatement(t, "(with ((a (select User)) (n (count a))) (+ n 1))")
	//
	with, ok := stmt.(*ast.With)
	//
	if !ok {
		t.Fatalf("expected a with, got %T", stmt)
	} else if len(with.Bindings) != 2 {
		t.Fatalf("expected two bindings, got %d", len(with.Bindings))
	}
	//
	if with.Bindings[0].Name.Name != "a" {
		t.Errorf("unexpected first binding")
	}
	//
	if _, ok := with.Bindings[0].Value.(*ast.Select); !ok {
		t.Errorf("first binding should hold a select")
	}
	//
	if with.Body == nil {
		t.Errorf("missing body")
	}
}

func Test_Parser_12(t *testing.T) {
	stmt := parseStatement(t, "(group User :using ((l (len (. User name)))) :by (l))")
	//
	group, ok := stmt.(*ast.Group)
	//
	if !ok {
		t.Fatalf("expected a group, got %T", stmt)
	}
	//
	if len(group.Using) != 1 || group.Using[0].Name.Name != "l" {
		t.Errorf("unexpected using clause")
	}
	//
	if len(group.By) != 1 || group.By[0].Name != "l" {
		t.Errorf("unexpected by clause")
	}
}

func Test_Parser_13(t *testing.T) {
	stmt := parseStatement(t, `
		(insert User
			:shape ((:= name "bob") (+= friends other))
			:unless-conflict ((. User nick) (select User)))`)
	//
	insert, ok := stmt.(*ast.Insert)
	//
	if !ok {
		t.Fatalf("expected an insert, got %T", stmt)
	}
	//
	if insert.Target.Name != "User" {
		t.Errorf("unexpected insert target")
	}
	//
	if len(insert.Shape) != 2 {
		t.Fatalf("expected two shape elements")
	}
	//
	if insert.Shape[0].Op != ast.ShapeAssign || insert.Shape[1].Op != ast.ShapeAppend {
		t.Errorf("unexpected shape operators")
	}
	//
	if insert.Conflict == nil || insert.Conflict.On == nil || insert.Conflict.Else == nil {
		t.Fatalf("expected a full unless-conflict clause")
	}
	// Bare conflict clauses are allowed
	insert = parseStatement(t, "(insert User :unless-conflict ())").(*ast.Insert)
	//
	if insert.Conflict == nil || insert.Conflict.On != nil || insert.Conflict.Else != nil {
		t.Errorf("expected an empty unless-conflict clause")
	}
}

func Test_Parser_14(t *testing.T) {
	stmt := parseStatement(t, `(update User :filter (= (. User name) "a") :set ((:= name "b")))`)
	//
	update, ok := stmt.(*ast.Update)
	//
	if !ok {
		t.Fatalf("expected an update, got %T", stmt)
	}
	//
	if update.Filter == nil {
		t.Errorf("missing filter clause")
	}
	//
	if len(update.Shape) != 1 || update.Shape[0].Op != ast.ShapeAssign {
		t.Errorf("unexpected set clause")
	}
}

func Test_Parser_15(t *testing.T) {
	stmt := parseStatement(t, `(delete User :filter (= (. User name) "a") :limit 1)`)
	//
	del, ok := stmt.(*ast.Delete)
	//
	if !ok {
		t.Fatalf("expected a delete, got %T", stmt)
	}
	//
	if del.Filter == nil || del.Limit == nil {
		t.Errorf("missing delete clauses")
	}
}

func Test_Parser_16(t *testing.T) {
	script, srcmap, errs := ParseString("(select User)\n(delete User)")
	//
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	//
	if len(script.Statements) != 2 {
		t.Fatalf("expected two statements, got %d", len(script.Statements))
	}
	// Every statement is registered in the node map.
	for _, stmt := range script.Statements {
		if !srcmap.Has(stmt) {
			t.Errorf("statement missing from the source map")
		}
	}
}

// ===================================================================
// Errors
// ===================================================================

func Test_Parser_17(t *testing.T) {
	check_ParseFails(t, "(select)", "malformed select statement")
	check_ParseFails(t, "(for x User)", "malformed for statement")
	check_ParseFails(t, "(with (x User))", "malformed with statement")
	check_ParseFails(t, "(with ((x)) User)", "malformed binding")
	check_ParseFails(t, "(select User :bogus 1)", "unknown attribute ':bogus'")
	check_ParseFails(t, "(select User :filter true :filter false)", "duplicate attribute ':filter'")
	check_ParseFails(t, "(select User :filter)", "missing value for attribute ':filter'")
	check_ParseFails(t, "(select User true)", "expected attribute keyword")
}

func Test_Parser_18(t *testing.T) {
	check_ParseFails(t, "(. User)", "malformed path")
	check_ParseFails(t, "(@ User a b)", "malformed path")
	check_ParseFails(t, "(. User :kw)", "invalid path step")
	check_ParseFails(t, "(cast str)", "malformed cast expression")
	check_ParseFails(t, "(insert 42)", "expected type name")
	check_ParseFails(t, "(not true false)", "operator 'not' expects exactly one operand")
	check_ParseFails(t, "(= 1)", "operator '=' expects exactly two operands")
	check_ParseFails(t, "(union User)", "operator 'union' expects at least two operands")
	check_ParseFails(t, "$1bad", "invalid parameter reference '$1bad'")
	check_ParseFails(t, ":stray", "unexpected keyword ':stray'")
	check_ParseFails(t, "(1 2)", "invalid function name '1'")
	check_ParseFails(t, `"unterminated`, "")
	check_ParseFails(t, "(select User", "")
}

// ===================================================================
// Test Helpers
// ===================================================================

func parseScript(t *testing.T, text string) *ast.Script {
	t.Helper()
	//
	script, _, errs := ParseString(text)
	//
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	//
	return script
}

func parseStatement(t *testing.T, text string) ast.Statement {
	t.Helper()
	//
	script := parseScript(t, text)
	//
	if len(script.Statements) != 1 {
		t.Fatalf("expected one statement, got %d", len(script.Statements))
	}
	//
	return script.Statements[0]
}

func parseExpr(t *testing.T, text string) ast.Expr {
	t.Helper()
	//
	sel, ok := parseStatement(t, text).(*ast.Select)
	//
	if !ok || !sel.Implicit {
		t.Fatalf("expected an implicit select around %s", text)
	}
	//
	return sel.Result
}

func check_ParseFails(t *testing.T, text string, msg string) {
	t.Helper()
	//
	_, _, errs := ParseString(text)
	//
	if len(errs) == 0 {
		t.Errorf("parsing %s should fail", text)
		return
	}
	//
	if msg != "" && !strings.Contains(errs[0].Message(), msg) {
		t.Errorf("unexpected error %q for %s", errs[0].Message(), text)
	}
}
